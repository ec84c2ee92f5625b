package adapters

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"podcast-video-pipeline/application/ports/outbound"
	"podcast-video-pipeline/config"
	"podcast-video-pipeline/domain"

	"github.com/google/uuid"
)

const (
	segmentFadeInSeconds  = 0.5
	segmentFadeOutSeconds = 1.0
)

type ffmpegVideoConcatenator struct {
	logger outbound.LoggerPort
	encode *config.EncodeConfig
}

func NewFFmpegVideoConcatenator(logger outbound.LoggerPort, encode *config.EncodeConfig) outbound.VideoConcatenatorPort {
	return &ffmpegVideoConcatenator{
		logger: logger,
		encode: encode,
	}
}

// Concatenate fades each segment in and out, then joins them in ordinal
// order with the concat demuxer. The fades need a re-encode per segment; the
// join itself is a stream copy.
func (f *ffmpegVideoConcatenator) Concatenate(ctx context.Context, segments []domain.VideoSegment,
	outputPath string) (string, error) {
	if len(segments) == 0 {
		return "", fmt.Errorf("nothing to concatenate: %w", domain.ErrEmptyMix)
	}
	sort.Sort(domain.VideoSegmentsAscByOrdinal(segments))

	workDir := filepath.Dir(outputPath)

	faded := make([]string, 0, len(segments))
	defer func() {
		for _, p := range faded {
			if err := os.Remove(p); err != nil {
				f.logger.Error(err, "failed to remove faded segment file")
			}
		}
	}()
	for _, s := range segments {
		out, err := f.fadeSegment(ctx, s, workDir)
		if err != nil {
			return "", err
		}
		faded = append(faded, out)
	}

	listPath, err := f.writeListFile(workDir, faded)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.Remove(listPath); err != nil {
			f.logger.Error(err, "failed to remove video list file")
		}
	}()

	if err := runFFmpeg(ctx,
		"-y",
		"-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outputPath); err != nil {
		f.logger.Error(err, "failed to concatenate segments")
		return "", fmt.Errorf("failed to concatenate segments: %w", err)
	}

	f.logger.InfoWithFields("segments concatenated", map[string]interface{}{
		"segments": len(segments),
		"output":   outputPath,
	})
	return outputPath, nil
}

func (f *ffmpegVideoConcatenator) fadeSegment(ctx context.Context, s domain.VideoSegment, workDir string) (string, error) {
	fadeOutStart := s.Duration - segmentFadeOutSeconds
	if fadeOutStart < 0 {
		fadeOutStart = 0
	}

	out := filepath.Join(workDir, fmt.Sprintf("faded_%d_%s.mp4", s.Ordinal, uuid.NewString()))
	args := []string{
		"-y",
		"-i", s.FileName,
		"-vf", fmt.Sprintf("fade=t=in:st=0:d=%s,fade=t=out:st=%s:d=%s",
			formatSeconds(segmentFadeInSeconds), formatSeconds(fadeOutStart), formatSeconds(segmentFadeOutSeconds)),
		"-af", fmt.Sprintf("afade=t=in:st=0:d=%s,afade=t=out:st=%s:d=%s",
			formatSeconds(segmentFadeInSeconds), formatSeconds(fadeOutStart), formatSeconds(segmentFadeOutSeconds)),
		"-c:v", f.encode.VideoCodec,
		"-b:v", f.encode.VideoBitrate,
		"-preset", f.encode.Preset,
		"-pix_fmt", "yuv420p",
		"-c:a", f.encode.AudioCodec,
		"-b:a", f.encode.AudioBitrate,
		out,
	}

	if err := runFFmpeg(ctx, args...); err != nil {
		f.logger.ErrorWithFields(err, "failed to fade segment", map[string]interface{}{
			"kind": string(s.Kind),
			"file": s.FileName,
		})
		return "", fmt.Errorf("failed to fade segment %s: %w", s.Kind, err)
	}
	return out, nil
}

func (f *ffmpegVideoConcatenator) writeListFile(workDir string, files []string) (string, error) {
	fileList, err := os.Create(filepath.Join(workDir, "list_"+uuid.NewString()+".txt"))
	if err != nil {
		f.logger.Error(err, "failed to create video list file")
		return "", err
	}
	defer func() {
		if err := fileList.Close(); err != nil {
			f.logger.Error(err, "failed to close video list file")
		}
	}()

	writer := bufio.NewWriter(fileList)
	for _, p := range files {
		if _, err := writer.WriteString("file '" + p + "'\n"); err != nil {
			f.logger.Error(err, "failed to write to video list file")
			return "", err
		}
	}
	if err := writer.Flush(); err != nil {
		f.logger.Error(err, "failed to flush video list file")
		return "", err
	}
	return fileList.Name(), nil
}

// runFFmpeg runs ffmpeg and surfaces its own diagnostics on failure instead
// of just "exit status 1".
func runFFmpeg(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, tail(stderr.String(), 2000))
	}
	return nil
}
