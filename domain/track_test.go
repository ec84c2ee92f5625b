package domain

import (
	"math"
	"testing"
)

func TestTrackDurationRoundTrip(t *testing.T) {
	for _, ms := range []int{0, 500, 1000, 2500, 60000} {
		track := Silent(ms, DefaultSampleRate, 1)
		if got := track.DurationMs(); got != ms {
			t.Fatalf("Silent(%d) has duration %d", ms, got)
		}
	}
}

func TestTrackAppendAccumulatesDuration(t *testing.T) {
	track := Silent(1000, DefaultSampleRate, 1)
	other := Silent(2000, DefaultSampleRate, 1)

	if err := track.Append(other); err != nil {
		t.Fatal("Failed to append:", err)
	}
	track.AppendSilence(500)

	if got := track.DurationMs(); got != 3500 {
		t.Fatalf("expected 3500ms after appends, got %d", got)
	}
}

func TestTrackAppendRejectsFormatMismatch(t *testing.T) {
	track := Silent(100, DefaultSampleRate, 1)
	other := Silent(100, 22050, 1)

	if err := track.Append(other); err == nil {
		t.Fatal("expected format mismatch error")
	}
}

func TestTrackOverlayPadsPastEnd(t *testing.T) {
	base := Silent(1000, DefaultSampleRate, 1)
	overlay := Silent(800, DefaultSampleRate, 1)

	if err := base.Overlay(overlay, 600); err != nil {
		t.Fatal("Failed to overlay:", err)
	}
	if got := base.DurationMs(); got != 1400 {
		t.Fatalf("expected overlay to pad base to 1400ms, got %d", got)
	}
}

func TestTrackOverlaySaturates(t *testing.T) {
	samples := make([]int16, 100)
	for i := range samples {
		samples[i] = math.MaxInt16
	}
	base := NewTrack(samples, DefaultSampleRate, 1)

	loud := make([]int16, 100)
	for i := range loud {
		loud[i] = math.MaxInt16
	}
	overlay := NewTrack(loud, DefaultSampleRate, 1)

	if err := base.Overlay(overlay, 0); err != nil {
		t.Fatal("Failed to overlay:", err)
	}
	for i, s := range base.Samples() {
		if s != math.MaxInt16 {
			t.Fatalf("sample %d overflowed to %d", i, s)
		}
	}
}

func TestTrackGainRangeAttenuatesOnlyRegion(t *testing.T) {
	samples := make([]int16, DefaultSampleRate) // one second
	for i := range samples {
		samples[i] = 10000
	}
	track := NewTrack(samples, DefaultSampleRate, 1)

	track.GainRange(250, 750, -6)

	got := track.Samples()
	if got[0] != 10000 {
		t.Fatalf("sample before region changed: %d", got[0])
	}
	if got[len(got)-1] != 10000 {
		t.Fatalf("sample after region changed: %d", got[len(got)-1])
	}

	mid := got[DefaultSampleRate/2]
	want := int16(10000 * math.Pow(10, -6.0/20))
	if mid < want-1 || mid > want+1 {
		t.Fatalf("expected mid sample near %d, got %d", want, mid)
	}
}

func TestTrackFadesReachSilenceAndFullScale(t *testing.T) {
	samples := make([]int16, DefaultSampleRate)
	for i := range samples {
		samples[i] = 10000
	}
	track := NewTrack(samples, DefaultSampleRate, 1)

	track.FadeIn(200)
	track.FadeOut(200)

	got := track.Samples()
	if got[0] != 0 {
		t.Fatalf("fade in should start at silence, got %d", got[0])
	}
	if mid := got[len(got)/2]; mid != 10000 {
		t.Fatalf("middle should be untouched, got %d", mid)
	}
	if last := got[len(got)-1]; last > 10 {
		t.Fatalf("fade out should end near silence, got %d", last)
	}
}

func TestTrackNormalizePeak(t *testing.T) {
	samples := make([]int16, 1000)
	samples[500] = 1000
	track := NewTrack(samples, DefaultSampleRate, 1)

	track.NormalizePeak(1.0)

	var peak int16
	for _, s := range track.Samples() {
		if s > peak {
			peak = s
		}
	}
	want := int16(math.Pow(10, -1.0/20) * math.MaxInt16)
	if peak < want-1 || peak > want+1 {
		t.Fatalf("expected peak near %d, got %d", want, peak)
	}
}

func TestNormalizePeakLeavesSilenceAlone(t *testing.T) {
	track := Silent(100, DefaultSampleRate, 1)
	track.NormalizePeak(1.0)
	for _, s := range track.Samples() {
		if s != 0 {
			t.Fatal("silence should stay silent")
		}
	}
}
