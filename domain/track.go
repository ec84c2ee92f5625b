package domain

import (
	"fmt"
	"math"
)

// DefaultSampleRate is the canonical rate every decoded clip is resampled to
// before mixing. Keeping a single rate means tracks can always be appended
// and overlaid without resampling inside the mixer.
const DefaultSampleRate = 44100

// Track is an in-memory PCM audio buffer: interleaved signed 16-bit samples
// at a fixed rate and channel count, addressed in milliseconds. It is the
// unit the overlap mixer operates on; decode/encode to compressed formats
// happens at the codec boundary.
type Track struct {
	rate     int
	channels int
	samples  []int16
}

func NewTrack(samples []int16, rate, channels int) *Track {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	if channels <= 0 {
		channels = 1
	}
	// Drop a trailing partial frame from interleaved input.
	n := len(samples) - len(samples)%channels
	return &Track{rate: rate, channels: channels, samples: samples[:n]}
}

// Silent returns a track of durMs milliseconds of silence.
func Silent(durMs, rate, channels int) *Track {
	t := NewTrack(nil, rate, channels)
	t.samples = make([]int16, t.frameIndex(durMs))
	return t
}

func (t *Track) SampleRate() int  { return t.rate }
func (t *Track) Channels() int    { return t.channels }
func (t *Track) Samples() []int16 { return t.samples }

// DurationMs is the track length in whole milliseconds.
func (t *Track) DurationMs() int {
	frames := len(t.samples) / t.channels
	return frames * 1000 / t.rate
}

// frameIndex converts a millisecond offset to an index into the interleaved
// sample slice, aligned to a frame boundary.
func (t *Track) frameIndex(ms int) int {
	if ms < 0 {
		ms = 0
	}
	return int(int64(ms)*int64(t.rate)/1000) * t.channels
}

func (t *Track) Clone() *Track {
	dup := make([]int16, len(t.samples))
	copy(dup, t.samples)
	return &Track{rate: t.rate, channels: t.channels, samples: dup}
}

// Gain applies a gain in dB (negative attenuates) to the whole track.
func (t *Track) Gain(db float64) {
	t.GainRange(0, t.DurationMs(), db)
}

// GainRange applies a gain in dB to the [startMs, endMs) region only.
func (t *Track) GainRange(startMs, endMs int, db float64) {
	factor := math.Pow(10, db/20)
	lo, hi := t.frameIndex(startMs), t.frameIndex(endMs)
	if hi > len(t.samples) {
		hi = len(t.samples)
	}
	for i := lo; i < hi; i++ {
		t.samples[i] = clampSample(float64(t.samples[i]) * factor)
	}
}

// FadeIn applies a linear fade from silence over the first durMs.
func (t *Track) FadeIn(durMs int) {
	n := t.frameIndex(durMs)
	if n > len(t.samples) {
		n = len(t.samples)
	}
	if n == 0 {
		return
	}
	for i := 0; i < n; i++ {
		t.samples[i] = int16(float64(t.samples[i]) * float64(i) / float64(n))
	}
}

// FadeOut applies a linear fade to silence over the last durMs.
func (t *Track) FadeOut(durMs int) {
	n := t.frameIndex(durMs)
	if n > len(t.samples) {
		n = len(t.samples)
	}
	if n == 0 {
		return
	}
	offset := len(t.samples) - n
	for i := 0; i < n; i++ {
		t.samples[offset+i] = int16(float64(t.samples[offset+i]) * float64(n-i) / float64(n))
	}
}

// Slice returns a copy of the [startMs, endMs) region.
func (t *Track) Slice(startMs, endMs int) *Track {
	lo, hi := t.frameIndex(startMs), t.frameIndex(endMs)
	if hi > len(t.samples) {
		hi = len(t.samples)
	}
	if lo > hi {
		lo = hi
	}
	dup := make([]int16, hi-lo)
	copy(dup, t.samples[lo:hi])
	return &Track{rate: t.rate, channels: t.channels, samples: dup}
}

// Append concatenates other onto the end of t.
func (t *Track) Append(other *Track) error {
	if other.rate != t.rate || other.channels != t.channels {
		return fmt.Errorf("track format mismatch: %dHz/%dch vs %dHz/%dch",
			t.rate, t.channels, other.rate, other.channels)
	}
	t.samples = append(t.samples, other.samples...)
	return nil
}

// AppendSilence pads the end of the track with durMs of silence.
func (t *Track) AppendSilence(durMs int) {
	t.samples = append(t.samples, make([]int16, t.frameIndex(durMs))...)
}

// PadToMs extends the track with silence so it is at least durMs long.
func (t *Track) PadToMs(durMs int) {
	want := t.frameIndex(durMs)
	if want > len(t.samples) {
		t.samples = append(t.samples, make([]int16, want-len(t.samples))...)
	}
}

// Overlay sums other into t starting at offsetMs, padding t with silence
// first if other would run past the current end. Summation saturates at the
// int16 bounds.
func (t *Track) Overlay(other *Track, offsetMs int) error {
	if other.rate != t.rate || other.channels != t.channels {
		return fmt.Errorf("track format mismatch: %dHz/%dch vs %dHz/%dch",
			t.rate, t.channels, other.rate, other.channels)
	}
	start := t.frameIndex(offsetMs)
	if need := start + len(other.samples); need > len(t.samples) {
		t.samples = append(t.samples, make([]int16, need-len(t.samples))...)
	}
	for i, s := range other.samples {
		t.samples[start+i] = clampSample(float64(t.samples[start+i]) + float64(s))
	}
	return nil
}

// NormalizePeak scales the track so its peak sits at headroomDb below full
// scale. A silent track is left untouched.
func (t *Track) NormalizePeak(headroomDb float64) {
	var peak float64
	for _, s := range t.samples {
		if v := math.Abs(float64(s)); v > peak {
			peak = v
		}
	}
	if peak == 0 {
		return
	}
	target := math.Pow(10, -math.Abs(headroomDb)/20) * math.MaxInt16
	factor := target / peak
	for i := range t.samples {
		t.samples[i] = clampSample(float64(t.samples[i]) * factor)
	}
}

func clampSample(v float64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
