package adapters

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os/exec"
	"strconv"

	"podcast-video-pipeline/application/ports/outbound"
	"podcast-video-pipeline/domain"
)

// peakHeadroomDb is how far below full scale a loaded clip's peak is placed.
// TTS clips arrive at uneven levels; normalizing at decode keeps the mixer's
// gain arithmetic meaningful across clips.
const peakHeadroomDb = 1.0

type ffmpegTrackCodec struct {
	logger outbound.LoggerPort
}

func NewFFmpegTrackCodec(logger outbound.LoggerPort) outbound.TrackCodecPort {
	return &ffmpegTrackCodec{logger: logger}
}

// Load decodes any ffmpeg-readable audio file into a mono PCM track at the
// canonical sample rate.
func (c *ffmpegTrackCodec) Load(ctx context.Context, path string) (*domain.Track, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(domain.DefaultSampleRate),
		"-ac", "1",
		"pipe:1")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		c.logger.ErrorWithFields(err, "failed to decode audio file", map[string]interface{}{
			"path":   path,
			"ffmpeg": stderr.String(),
		})
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	raw := stdout.Bytes()
	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}

	track := domain.NewTrack(samples, domain.DefaultSampleRate, 1)
	track.NormalizePeak(peakHeadroomDb)
	return track, nil
}

// Export encodes a PCM track to MP3 at the given path, overwriting it.
func (c *ffmpegTrackCodec) Export(ctx context.Context, track *domain.Track, path string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-f", "s16le",
		"-ar", strconv.Itoa(track.SampleRate()),
		"-ac", strconv.Itoa(track.Channels()),
		"-i", "pipe:0",
		"-codec:a", "libmp3lame",
		"-b:a", "192k",
		path)

	raw := make([]byte, len(track.Samples())*2)
	for i, s := range track.Samples() {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}
	cmd.Stdin = bytes.NewReader(raw)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		c.logger.ErrorWithFields(err, "failed to encode audio file", map[string]interface{}{
			"path":   path,
			"ffmpeg": stderr.String(),
		})
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}
