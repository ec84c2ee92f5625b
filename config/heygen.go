package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type HeyGenConfig struct {
	ApiUrl       string
	ApiKey       string
	PollInterval time.Duration
	PollTimeout  time.Duration
}

func GetHeyGenConfig() (*HeyGenConfig, error) {
	apiUrl := os.Getenv("HEYGEN_API_URL")
	if apiUrl == "" {
		return nil, fmt.Errorf("HEYGEN_API_URL must be set")
	}
	apiKey := os.Getenv("HEYGEN_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("HEYGEN_API_KEY must be set")
	}

	pollInterval := 5 * time.Second
	if v := os.Getenv("HEYGEN_POLL_INTERVAL_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse HEYGEN_POLL_INTERVAL_SECONDS")
		}
		pollInterval = time.Duration(seconds) * time.Second
	}

	pollTimeout := 300 * time.Second
	if v := os.Getenv("HEYGEN_POLL_TIMEOUT_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse HEYGEN_POLL_TIMEOUT_SECONDS")
		}
		pollTimeout = time.Duration(seconds) * time.Second
	}

	return &HeyGenConfig{
		ApiUrl:       apiUrl,
		ApiKey:       apiKey,
		PollInterval: pollInterval,
		PollTimeout:  pollTimeout,
	}, nil
}
