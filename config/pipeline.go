package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// PipelineConfig sizes the two worker classes and the batch poll loop.
// Audio work (TTS fan-out) is cheap and runs wide; video work holds decoded
// frames in memory, so each job owns a whole video worker.
type PipelineConfig struct {
	WorkRoot     string
	ProfilesDir  string
	AudioWorkers int
	VideoWorkers int
	JobPoll      time.Duration
}

func GetPipelineConfig() (*PipelineConfig, error) {
	workRoot := os.Getenv("WORK_ROOT")
	if workRoot == "" {
		return nil, fmt.Errorf("WORK_ROOT must be set")
	}
	profilesDir := os.Getenv("PROFILES_DIR")
	if profilesDir == "" {
		return nil, fmt.Errorf("PROFILES_DIR must be set")
	}

	cfg := &PipelineConfig{
		WorkRoot:     workRoot,
		ProfilesDir:  profilesDir,
		AudioWorkers: 8,
		VideoWorkers: 1,
		JobPoll:      15 * time.Second,
	}

	if v := os.Getenv("AUDIO_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("failed to parse AUDIO_WORKERS")
		}
		cfg.AudioWorkers = n
	}
	if v := os.Getenv("VIDEO_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("failed to parse VIDEO_WORKERS")
		}
		cfg.VideoWorkers = n
	}
	if v := os.Getenv("JOB_POLL_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds < 1 {
			return nil, fmt.Errorf("failed to parse JOB_POLL_SECONDS")
		}
		cfg.JobPoll = time.Duration(seconds) * time.Second
	}

	return cfg, nil
}
