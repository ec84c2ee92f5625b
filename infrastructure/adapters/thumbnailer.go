package adapters

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"podcast-video-pipeline/application/ports/outbound"
)

const (
	thumbnailWidth  = 1280
	thumbnailHeight = 720
)

type ffmpegThumbnailer struct {
	logger outbound.LoggerPort
}

func NewFFmpegThumbnailer(logger outbound.LoggerPort) outbound.ThumbnailerPort {
	return &ffmpegThumbnailer{logger: logger}
}

// Thumbnails grabs count stills spread evenly through the video, skipping the
// very start and end so fades never produce a black frame.
func (t *ffmpegThumbnailer) Thumbnails(ctx context.Context, videoPath, outputDir string, count int) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}

	duration, err := t.videoDuration(ctx, videoPath)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, count)
	for i := 0; i < count; i++ {
		at := duration * float64(i+1) / float64(count+1)
		out := filepath.Join(outputDir, fmt.Sprintf("thumb_%d.jpg", i+1))

		if err := runFFmpeg(ctx,
			"-y",
			"-ss", formatSeconds(at),
			"-i", videoPath,
			"-frames:v", "1",
			"-vf", fmt.Sprintf("scale=%d:%d", thumbnailWidth, thumbnailHeight),
			"-q:v", "2",
			out); err != nil {
			return nil, fmt.Errorf("failed to extract thumbnail %d: %w", i+1, err)
		}
		paths = append(paths, out)
	}

	t.logger.InfoWithFields("thumbnails extracted", map[string]interface{}{
		"video": videoPath,
		"count": len(paths),
	})
	return paths, nil
}

func (t *ffmpegThumbnailer) videoDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to probe duration of %s: %w", path, err)
	}
	return strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
}
