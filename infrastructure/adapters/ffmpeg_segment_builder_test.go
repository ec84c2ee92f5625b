package adapters

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"podcast-video-pipeline/config"
	"podcast-video-pipeline/domain"
)

func TestCoverFitCoversWithoutDistortion(t *testing.T) {
	cases := []struct {
		name                   string
		srcW, srcH, dstW, dstH int
	}{
		{"wider source", 2560, 1080, 1920, 1080},
		{"taller source", 1080, 1920, 1920, 1080},
		{"smaller source", 640, 360, 1920, 1080},
		{"exact match", 1920, 1080, 1920, 1080},
		{"odd aspect", 1000, 700, 1280, 720},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, h := coverFit(tc.srcW, tc.srcH, tc.dstW, tc.dstH)
			if w < tc.dstW || h < tc.dstH {
				t.Fatalf("scaled %dx%d does not cover %dx%d", w, h, tc.dstW, tc.dstH)
			}
			// Aspect ratio survives within rounding.
			srcRatio := float64(tc.srcW) / float64(tc.srcH)
			gotRatio := float64(w) / float64(h)
			if gotRatio < srcRatio*0.99 || gotRatio > srcRatio*1.01 {
				t.Fatalf("aspect ratio drifted from %v to %v", srcRatio, gotRatio)
			}
		})
	}
}

func TestBackgroundPlanCoversTarget(t *testing.T) {
	durations := []float64{10, 5, 8}
	plan := backgroundPlan(durations, 30)

	var covered float64
	for _, idx := range plan {
		covered += durations[idx]
	}
	if covered < 30 {
		t.Fatalf("plan covers only %v of 30 seconds", covered)
	}
}

func TestBackgroundPlanCyclesShortLibrary(t *testing.T) {
	durations := []float64{4}
	plan := backgroundPlan(durations, 10)

	if len(plan) != 3 {
		t.Fatalf("expected the single clip repeated 3 times, got %d", len(plan))
	}
	for _, idx := range plan {
		if idx != 0 {
			t.Fatalf("unexpected index %d", idx)
		}
	}
}

func TestBackgroundPlanIgnoresUnreadableClips(t *testing.T) {
	durations := []float64{0, 6, 0}
	plan := backgroundPlan(durations, 10)
	for _, idx := range plan {
		if idx != 1 {
			t.Fatalf("zero-duration clip %d chosen", idx)
		}
	}

	if plan := backgroundPlan([]float64{0, 0}, 10); plan != nil {
		t.Fatal("all-unreadable library should produce no plan")
	}
}

func TestFooterMarqueeScrollsLeftFromRightEdge(t *testing.T) {
	expr := footerMarqueeExpr()
	if expr != "w-150*t" {
		t.Fatalf("unexpected marquee expression %q", expr)
	}
}

func TestEscapeDrawText(t *testing.T) {
	got := escapeDrawText("it's 50%: fine")
	if want := `it'\''s 50\%\: fine`; got != want {
		t.Fatalf("escaped %q, want %q", got, want)
	}

	if got := escapeDrawText(`a\b`); got != `a\\b` {
		t.Fatalf("backslash not escaped in %q", got)
	}
}

func TestAudioFilterSumsWithoutRescaling(t *testing.T) {
	b := &ffmpegSegmentBuilder{}
	cfg := domain.SegmentConfig{BgMusicVolume: 0.1}

	filter, label := b.audioFilter(cfg, 1, 2, 8, 10)
	if label != "[aout]" {
		t.Fatalf("unexpected output label %q", label)
	}
	if !strings.Contains(filter, "normalize=0") {
		t.Fatalf("mix rescales its inputs: %q", filter)
	}
	if !strings.Contains(filter, "volume=0.100") {
		t.Fatalf("music not attenuated: %q", filter)
	}
	// Voiceover shorter than the segment passes through untouched.
	if !strings.Contains(filter, "[2:a]anull[voice]") {
		t.Fatalf("voiceover modified: %q", filter)
	}
}

func TestAudioFilterFadesVoiceoverLongerThanSegment(t *testing.T) {
	b := &ffmpegSegmentBuilder{}

	filter, _ := b.audioFilter(domain.SegmentConfig{BgMusicVolume: 0.1}, 1, 2, 15, 10)
	if !strings.Contains(filter, "atrim=0:9.000,afade=t=out:st=7.000:d=2") {
		t.Fatalf("long voiceover not trimmed and faded: %q", filter)
	}

	// Without music the faded voiceover is the whole bed.
	filter, _ = b.audioFilter(domain.SegmentConfig{}, -1, 0, 15, 10)
	if !strings.Contains(filter, "[0:a]atrim=0:9.000,afade=t=out:st=7.000:d=2[aout]") {
		t.Fatalf("voice-only bed missing fade: %q", filter)
	}
}

func TestBuildBriefWithEmptyLibrarySkips(t *testing.T) {
	builder := NewFFmpegSegmentBuilder(NewZerologWrapper(), &config.EncodeConfig{})

	// Brief draws one random clip from the library; nothing to draw means the
	// optional segment is skipped, not stretched from elsewhere or failed.
	result := builder.Build(context.Background(), domain.SegmentConfig{
		SegmentType:     domain.SegmentBrief,
		Duration:        5,
		SourceVideosDir: t.TempDir(),
		OutputPath:      filepath.Join(t.TempDir(), "segment_brief.mp4"),
	})
	if result.Status != domain.SegmentSkipped {
		t.Fatalf("expected skip, got %+v", result)
	}
}

func TestVoiceoverFadeChainClampsNearZero(t *testing.T) {
	if got := voiceoverFadeChain(0.5); got != "atrim=0:0.000,afade=t=out:st=0.000:d=2" {
		t.Fatalf("unexpected chain %q", got)
	}
}
