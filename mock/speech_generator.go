package mock_providers

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"

	"podcast-video-pipeline/application/ports/outbound"
	"podcast-video-pipeline/domain"
)

const (
	// msPerChar approximates speech pacing so mock clips scale with text
	// length the way real TTS output does.
	msPerChar = 60
	minClipMs = 800
	maxClipMs = 6000

	toneHz        = 220.0
	toneAmplitude = 8000
)

type mockSpeechGenerator struct {
	logger outbound.LoggerPort
}

func NewMockSpeechGenerator(logger outbound.LoggerPort) outbound.SpeechGeneratorPort {
	return &mockSpeechGenerator{logger: logger}
}

// Generate returns a WAV tone whose length tracks the text length. The
// files keep the .mp3 names the renderer assigns; ffmpeg sniffs the RIFF
// header and decodes them regardless.
func (m *mockSpeechGenerator) Generate(ctx context.Context, req outbound.GenerateSpeechRequest) ([]byte, error) {
	durMs := len(req.Text) * msPerChar
	if durMs < minClipMs {
		durMs = minClipMs
	}
	if durMs > maxClipMs {
		durMs = maxClipMs
	}

	frames := durMs * domain.DefaultSampleRate / 1000
	samples := make([]int16, frames)
	for i := range samples {
		t := float64(i) / float64(domain.DefaultSampleRate)
		samples[i] = int16(toneAmplitude * math.Sin(2*math.Pi*toneHz*t))
	}

	return encodeWav(samples, domain.DefaultSampleRate), nil
}

// encodeWav wraps mono 16-bit PCM in a minimal RIFF/WAVE container.
func encodeWav(samples []int16, rate int) []byte {
	dataLen := len(samples) * 2
	var buf bytes.Buffer

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(rate))
	binary.Write(&buf, binary.LittleEndian, uint32(rate*2)) // byte rate
	binary.Write(&buf, binary.LittleEndian, uint16(2))      // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16))     // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	for _, s := range samples {
		binary.Write(&buf, binary.LittleEndian, s)
	}

	return buf.Bytes()
}
