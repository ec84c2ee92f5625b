package outbound

import "context"

type PublishVideoRequest struct {
	VideoFileName  string
	ThumbnailFiles []string
	JobID          string
	Profile        string
}

type PublishVideoResponse struct {
	VideoKey      string
	ThumbnailKeys []string
	StoreRegion   string
}

type VideoPublisherPort interface {
	Publish(ctx context.Context, req PublishVideoRequest) (*PublishVideoResponse, error)
}
