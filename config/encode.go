package config

import (
	"fmt"
	"os"
	"strconv"
)

// EncodeConfig carries the output encoding settings shared by every segment
// build and the final mux.
type EncodeConfig struct {
	Fps          int
	VideoCodec   string
	AudioCodec   string
	VideoBitrate string
	AudioBitrate string
	Preset       string
}

func GetEncodeConfig() (*EncodeConfig, error) {
	cfg := &EncodeConfig{
		Fps:          30,
		VideoCodec:   "libx264",
		AudioCodec:   "aac",
		VideoBitrate: "4000k",
		AudioBitrate: "192k",
		Preset:       "ultrafast",
	}

	if v := os.Getenv("VIDEO_FPS"); v != "" {
		fps, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse VIDEO_FPS")
		}
		cfg.Fps = fps
	}
	if v := os.Getenv("VIDEO_CODEC"); v != "" {
		cfg.VideoCodec = v
	}
	if v := os.Getenv("AUDIO_CODEC"); v != "" {
		cfg.AudioCodec = v
	}
	if v := os.Getenv("VIDEO_BITRATE"); v != "" {
		cfg.VideoBitrate = v
	}
	if v := os.Getenv("AUDIO_BITRATE"); v != "" {
		cfg.AudioBitrate = v
	}
	if v := os.Getenv("VIDEO_PRESET"); v != "" {
		cfg.Preset = v
	}

	return cfg, nil
}
