package mock_providers

import (
	"context"
	"encoding/binary"
	"testing"

	"podcast-video-pipeline/application/ports/outbound"
	"podcast-video-pipeline/domain"
	"podcast-video-pipeline/infrastructure/adapters"
)

func TestMockSpeechGeneratorProducesValidWav(t *testing.T) {
	gen := NewMockSpeechGenerator(adapters.NewZerologWrapper())

	data, err := gen.Generate(context.Background(), outbound.GenerateSpeechRequest{
		Text:    "Hello there, this is a turn of conversation.",
		VoiceID: "voice-1",
	})
	if err != nil {
		t.Fatal(err)
	}

	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE header")
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != domain.DefaultSampleRate {
		t.Fatalf("sample rate = %d, want %d", rate, domain.DefaultSampleRate)
	}
	if channels := binary.LittleEndian.Uint16(data[22:24]); channels != 1 {
		t.Fatalf("channels = %d, want mono", channels)
	}

	dataLen := int(binary.LittleEndian.Uint32(data[40:44]))
	if len(data) != 44+dataLen {
		t.Fatalf("declared data length %d does not match payload %d", dataLen, len(data)-44)
	}
}

func TestMockSpeechGeneratorClipLengthTracksText(t *testing.T) {
	gen := NewMockSpeechGenerator(adapters.NewZerologWrapper())
	ctx := context.Background()

	short, err := gen.Generate(ctx, outbound.GenerateSpeechRequest{Text: "Hi."})
	if err != nil {
		t.Fatal(err)
	}
	long, err := gen.Generate(ctx, outbound.GenerateSpeechRequest{Text: "A considerably longer conversational turn with many more words in it."})
	if err != nil {
		t.Fatal(err)
	}

	if len(long) <= len(short) {
		t.Fatalf("longer text should yield a longer clip: %d <= %d", len(long), len(short))
	}

	// "Hi." is below the floor, so the clip clamps to minClipMs.
	wantFrames := minClipMs * domain.DefaultSampleRate / 1000
	if got := (len(short) - 44) / 2; got != wantFrames {
		t.Fatalf("short clip frames = %d, want %d", got, wantFrames)
	}
}
