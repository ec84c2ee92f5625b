package adapters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"podcast-video-pipeline/application/ports/outbound"
	"podcast-video-pipeline/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
)

type s3VideoPublisher struct {
	logger   outbound.LoggerPort
	s3Svc    *s3.S3
	s3Config *config.S3Config
}

func NewS3VideoPublisher(logger outbound.LoggerPort, s3Svc *s3.S3, s3Config *config.S3Config) outbound.VideoPublisherPort {
	return &s3VideoPublisher{
		logger:   logger,
		s3Svc:    s3Svc,
		s3Config: s3Config,
	}
}

// Publish uploads the final video and its thumbnails under the profile's
// prefix. A failed thumbnail upload is logged and dropped; the video itself
// failing is fatal.
func (s *s3VideoPublisher) Publish(ctx context.Context, req outbound.PublishVideoRequest) (*outbound.PublishVideoResponse, error) {
	videoKey := fmt.Sprintf("company/%s/podcast/%s/video/%s", req.Profile, req.JobID, filepath.Base(req.VideoFileName))
	if err := s.putFile(ctx, videoKey, req.VideoFileName, "video/mp4"); err != nil {
		s.logger.Error(err, "failed to upload video to S3")
		return nil, err
	}

	thumbnailKeys := make([]string, 0, len(req.ThumbnailFiles))
	for _, thumb := range req.ThumbnailFiles {
		key := fmt.Sprintf("company/%s/podcast/%s/thumbnails/%s", req.Profile, req.JobID, filepath.Base(thumb))
		if err := s.putFile(ctx, key, thumb, "image/jpeg"); err != nil {
			s.logger.ErrorWithFields(err, "failed to upload thumbnail, dropping it", map[string]interface{}{
				"key": key,
			})
			continue
		}
		thumbnailKeys = append(thumbnailKeys, key)
	}

	s.logger.InfoWithFields("video published", map[string]interface{}{
		"video_key":  videoKey,
		"thumbnails": len(thumbnailKeys),
	})

	return &outbound.PublishVideoResponse{
		VideoKey:      videoKey,
		ThumbnailKeys: thumbnailKeys,
		StoreRegion:   s.s3Config.Region,
	}, nil
}

func (s *s3VideoPublisher) putFile(ctx context.Context, key, path, contentType string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if err := file.Close(); err != nil {
			s.logger.Error(err, "failed to close upload file")
		}
	}()

	_, err = s.s3Svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	return err
}
