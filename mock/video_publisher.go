package mock_providers

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"podcast-video-pipeline/application/ports/outbound"
)

type localVideoPublisher struct {
	logger    outbound.LoggerPort
	outputDir string
}

// NewLocalVideoPublisher copies finished videos into outputDir instead of
// uploading them, so mock runs need no bucket.
func NewLocalVideoPublisher(logger outbound.LoggerPort, outputDir string) outbound.VideoPublisherPort {
	return &localVideoPublisher{
		logger:    logger,
		outputDir: outputDir,
	}
}

func (p *localVideoPublisher) Publish(ctx context.Context, req outbound.PublishVideoRequest) (*outbound.PublishVideoResponse, error) {
	jobDir := filepath.Join(p.outputDir, req.Profile, req.JobID)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return nil, err
	}

	videoKey := filepath.Join(jobDir, filepath.Base(req.VideoFileName))
	if err := copyFile(req.VideoFileName, videoKey); err != nil {
		return nil, err
	}

	thumbnailKeys := make([]string, 0, len(req.ThumbnailFiles))
	for _, thumb := range req.ThumbnailFiles {
		key := filepath.Join(jobDir, filepath.Base(thumb))
		if err := copyFile(thumb, key); err != nil {
			p.logger.ErrorWithFields(err, "failed to copy thumbnail, dropping it", map[string]interface{}{
				"path": thumb,
			})
			continue
		}
		thumbnailKeys = append(thumbnailKeys, key)
	}

	p.logger.InfoWithFields("video published locally", map[string]interface{}{
		"video": videoKey,
	})

	return &outbound.PublishVideoResponse{
		VideoKey:      videoKey,
		ThumbnailKeys: thumbnailKeys,
		StoreRegion:   "local",
	}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return nil
}
