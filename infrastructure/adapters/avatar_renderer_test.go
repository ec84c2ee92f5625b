package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"podcast-video-pipeline/application/ports/outbound"
	"podcast-video-pipeline/config"
	"podcast-video-pipeline/domain"
)

func heyGenTestServer(t *testing.T, pollsUntilDone int32) *httptest.Server {
	t.Helper()
	var polls int32
	var server *httptest.Server

	mux := http.NewServeMux()
	mux.HandleFunc("/v2/video/generate", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"video_id": "vid-123"},
		})
	})
	mux.HandleFunc("/v1/video_status.get", func(w http.ResponseWriter, r *http.Request) {
		status := "processing"
		payload := map[string]interface{}{"status": status}
		if pollsUntilDone >= 0 && atomic.AddInt32(&polls, 1) >= pollsUntilDone {
			payload["status"] = "completed"
			payload["video_url"] = server.URL + "/renders/vid-123.mp4"
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": payload})
	})
	mux.HandleFunc("/renders/vid-123.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fake video bytes"))
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestAvatarRenderer(apiURL string, pollTimeout time.Duration) outbound.AvatarRendererPort {
	logger := NewZerologWrapper()
	return NewAvatarRenderer(NewContentFetcher(logger), logger, &config.HeyGenConfig{
		ApiUrl:       apiURL,
		ApiKey:       "test-key",
		PollInterval: 5 * time.Millisecond,
		PollTimeout:  pollTimeout,
	})
}

func TestAvatarRendererDownloadsCompletedRender(t *testing.T) {
	server := heyGenTestServer(t, 3)
	renderer := newTestAvatarRenderer(server.URL, time.Second)

	outputPath := filepath.Join(t.TempDir(), "avatar.mp4")
	got, err := renderer.Render(context.Background(), outbound.RenderAvatarRequest{
		AvatarID:   "av-1",
		VoiceID:    "v-1",
		Text:       "hello",
		OutputPath: outputPath,
	})
	if err != nil {
		t.Fatal("Failed to render avatar:", err)
	}
	if got != outputPath {
		t.Fatalf("unexpected output path %q", got)
	}

	payload, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != "fake video bytes" {
		t.Fatalf("unexpected download payload %q", payload)
	}
}

func TestAvatarRendererTimesOut(t *testing.T) {
	server := heyGenTestServer(t, -1) // never completes
	renderer := newTestAvatarRenderer(server.URL, 30*time.Millisecond)

	_, err := renderer.Render(context.Background(), outbound.RenderAvatarRequest{
		AvatarID:   "av-1",
		VoiceID:    "v-1",
		Text:       "hello",
		OutputPath: filepath.Join(t.TempDir(), "avatar.mp4"),
	})
	if !errors.Is(err, domain.ErrRenderTimeout) {
		t.Fatalf("expected ErrRenderTimeout, got %v", err)
	}
}

func TestAvatarRendererSurfacesRemoteFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/video/generate", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"video_id": "vid-456"},
		})
	})
	mux.HandleFunc("/v1/video_status.get", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"status": "failed",
				"error":  map[string]string{"message": "avatar not found"},
			},
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	renderer := newTestAvatarRenderer(server.URL, time.Second)
	_, err := renderer.Render(context.Background(), outbound.RenderAvatarRequest{
		AvatarID:   "av-bad",
		VoiceID:    "v-1",
		Text:       "hello",
		OutputPath: filepath.Join(t.TempDir(), "avatar.mp4"),
	})
	if err == nil || errors.Is(err, domain.ErrRenderTimeout) {
		t.Fatalf("expected a remote failure error, got %v", err)
	}
}
