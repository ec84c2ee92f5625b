package outbound

import "context"

// ThumbnailerPort extracts count evenly spaced JPEG stills from a video.
type ThumbnailerPort interface {
	Thumbnails(ctx context.Context, videoPath, outputDir string, count int) ([]string, error)
}
