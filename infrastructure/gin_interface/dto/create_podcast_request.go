package dto

type CreatePodcastRequest struct {
	Profile  string `json:"profile" binding:"required"`
	Topic    string `json:"topic" binding:"required"`
	Mood     string `json:"mood"`
	NumTurns int    `json:"num_turns" binding:"omitempty,gte=2,lte=50"`
}

type CreatePodcastResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type PodcastJobResponse struct {
	JobID     string   `json:"job_id"`
	Profile   string   `json:"profile"`
	Topic     string   `json:"topic"`
	Mood      string   `json:"mood,omitempty"`
	NumTurns  int      `json:"num_turns"`
	Status    string   `json:"status"`
	StepError string   `json:"step_error,omitempty"`
	VideoKey  string   `json:"video_key,omitempty"`
	ThumbKeys []string `json:"thumb_keys,omitempty"`
}
