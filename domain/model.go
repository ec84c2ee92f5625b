package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingAsset marks a required input file that could not be located,
	// including after fallback resolution.
	ErrMissingAsset = errors.New("required media asset is missing")
	// ErrRenderTimeout marks a remote render job that did not reach a
	// terminal state within the configured poll window.
	ErrRenderTimeout = errors.New("remote render did not finish in time")
	// ErrEmptyMix is returned when no turn in a conversation produced audio.
	ErrEmptyMix = errors.New("no turns could be mixed")
)

type Speaker struct {
	Name        string `json:"name" yaml:"name" validate:"required"`
	VoiceID     string `json:"voice_id" yaml:"voice_id" validate:"required"`
	Personality string `json:"personality" yaml:"personality"`
	// AvatarID is set when the speaker has a remote avatar that can be
	// rendered into the intro's circular feed.
	AvatarID string `json:"avatar_id,omitempty" yaml:"avatar_id"`
}

// ConversationTurn is one speaker's contiguous utterance. OverlapWith maps
// the reacting speaker's name to the short reaction text blended near the
// end of this turn's audio. Turns are immutable once mixing begins.
type ConversationTurn struct {
	Order       int               `json:"order" validate:"gte=1"`
	Speaker     string            `json:"speaker" validate:"required"`
	Text        string            `json:"text" validate:"required"`
	OverlapWith map[string]string `json:"overlap_with,omitempty"`
}

// MainAudioFileName is the deterministic per-turn speech file name.
func (t ConversationTurn) MainAudioFileName() string {
	return fmt.Sprintf("%s_%d.mp3", t.Speaker, t.Order)
}

// OverlapAudioFileName is the deterministic reaction clip file name.
func (t ConversationTurn) OverlapAudioFileName() string {
	return fmt.Sprintf("overlap_%d.mp3", t.Order)
}

type Conversation struct {
	Topic    string             `json:"topic"`
	Mood     string             `json:"mood"`
	Speakers []Speaker          `json:"speakers" validate:"min=1,dive"`
	Turns    []ConversationTurn `json:"turns" validate:"min=1,dive"`
}

// VoiceFor resolves a speaker name to its voice ID.
func (c Conversation) VoiceFor(name string) (string, error) {
	for _, s := range c.Speakers {
		if s.Name == name {
			return s.VoiceID, nil
		}
	}
	return "", fmt.Errorf("no voice ID found for speaker %q", name)
}

// Validate enforces the schema invariants: the speaker set is closed (every
// speaker and overlap key is declared) and turn orders are strictly
// increasing. Self-referencing overlaps are NOT rejected here; the mixer
// skips them with a warning so an upstream generation quirk cannot abort a
// whole job.
func (c Conversation) Validate() error {
	declared := make(map[string]struct{}, len(c.Speakers))
	for _, s := range c.Speakers {
		declared[s.Name] = struct{}{}
	}
	prevOrder := 0
	for _, turn := range c.Turns {
		if turn.Order <= prevOrder {
			return fmt.Errorf("turn order %d is not strictly increasing (previous %d)", turn.Order, prevOrder)
		}
		prevOrder = turn.Order
		if _, ok := declared[turn.Speaker]; !ok {
			return fmt.Errorf("turn %d references undeclared speaker %q", turn.Order, turn.Speaker)
		}
		for name := range turn.OverlapWith {
			if _, ok := declared[name]; !ok {
				return fmt.Errorf("turn %d overlap references undeclared speaker %q", turn.Order, name)
			}
		}
	}
	return nil
}

// ConversationSchema is the persisted JSON envelope for a conversation.
type ConversationSchema struct {
	Conversation Conversation `json:"conversation"`
}

type JobStatus string

const (
	JobPending           JobStatus = "pending"
	JobDownloadingInputs JobStatus = "downloading_inputs"
	JobMixingAudio       JobStatus = "mixing_audio"
	JobBuildingSegments  JobStatus = "building_segments"
	JobConcatenating     JobStatus = "concatenating"
	JobUploading         JobStatus = "uploading"
	JobCompleted         JobStatus = "completed"
	JobFailed            JobStatus = "failed"
)

// PodcastJob is one unit of batch work: a single podcast video, produced
// end to end by one worker. Failures are recorded on the job and never halt
// the batch loop.
type PodcastJob struct {
	ID        string
	Profile   string
	Topic     string
	Mood      string
	NumTurns  int
	Status    JobStatus
	StepError string
	VideoKey  string
	ThumbKeys []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewPodcastJob(id, profile, topic, mood string, numTurns int) PodcastJob {
	now := time.Now().UTC()
	return PodcastJob{
		ID:        id,
		Profile:   profile,
		Topic:     topic,
		Mood:      mood,
		NumTurns:  numTurns,
		Status:    JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type SegmentKind string

const (
	SegmentIntro SegmentKind = "intro"
	SegmentShort SegmentKind = "short"
	SegmentBrief SegmentKind = "brief"
	SegmentMain  SegmentKind = "main"
	SegmentOutro SegmentKind = "outro"
)

// SegmentOrder is the fixed concatenation order of the final video.
var SegmentOrder = []SegmentKind{SegmentIntro, SegmentShort, SegmentBrief, SegmentMain, SegmentOutro}

// Optional reports whether a failed or missing build of this segment may be
// skipped with a warning instead of aborting the job.
func (k SegmentKind) Optional() bool {
	return k == SegmentBrief
}

type SegmentStatus int

const (
	SegmentBuilt SegmentStatus = iota
	SegmentSkipped
	SegmentFailed
)

// SegmentResult is the explicit outcome of one segment build. The assembler
// inspects it to decide whether to continue, skip, or abort, instead of
// recovering from a builder panic or matching error strings.
type SegmentResult struct {
	Kind     SegmentKind
	Status   SegmentStatus
	FileName string
	Duration float64
	Err      error
}

// VideoSegment is one built, on-disk segment awaiting concatenation.
type VideoSegment struct {
	Kind     SegmentKind
	FileName string
	Duration float64
	Ordinal  int
}

type VideoSegmentsAscByOrdinal []VideoSegment

func (v VideoSegmentsAscByOrdinal) Len() int           { return len(v) }
func (v VideoSegmentsAscByOrdinal) Swap(i, j int)      { v[i], v[j] = v[j], v[i] }
func (v VideoSegmentsAscByOrdinal) Less(i, j int) bool { return v[i].Ordinal < v[j].Ordinal }
