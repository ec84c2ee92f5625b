package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"podcast-video-pipeline/domain"
)

// testLogger satisfies outbound.LoggerPort and records warnings so tests can
// assert on skip behavior.
type testLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *testLogger) Info(msg string)                                                 {}
func (l *testLogger) InfoWithFields(msg string, fields map[string]interface{})        {}
func (l *testLogger) Error(err error, msg string)                                     {}
func (l *testLogger) ErrorWithFields(err error, msg string, f map[string]interface{}) {}
func (l *testLogger) Debug(msg string)                                                {}
func (l *testLogger) DebugWithFields(msg string, fields map[string]interface{})       {}

func (l *testLogger) Warn(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *testLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.Warn(msg)
}

func (l *testLogger) warnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warns)
}

// fakeCodec serves silent tracks of preset durations, keyed by file base
// name. Missing keys load like missing files.
type fakeCodec struct {
	durations map[string]int
}

func (c *fakeCodec) Load(ctx context.Context, path string) (*domain.Track, error) {
	dur, ok := c.durations[filepath.Base(path)]
	if !ok {
		return nil, errors.New("no such file")
	}
	return domain.Silent(dur, domain.DefaultSampleRate, 1), nil
}

func (c *fakeCodec) Export(ctx context.Context, track *domain.Track, path string) error {
	return nil
}

func TestMixDurationIsSumOfTurnsPlusGaps(t *testing.T) {
	codec := &fakeCodec{durations: map[string]int{
		"ana_1.mp3": 3000,
		"ben_2.mp3": 4000,
		"ana_3.mp3": 2500,
	}}
	mixer := NewConversationMixer(&testLogger{}, codec)

	conversation := domain.Conversation{
		Speakers: []domain.Speaker{{Name: "ana", VoiceID: "v1"}, {Name: "ben", VoiceID: "v2"}},
		Turns: []domain.ConversationTurn{
			{Order: 1, Speaker: "ana", Text: "a"},
			{Order: 2, Speaker: "ben", Text: "b"},
			{Order: 3, Speaker: "ana", Text: "c"},
		},
	}

	result, err := mixer.Mix(context.Background(), conversation, "")
	if err != nil {
		t.Fatal("Failed to mix:", err)
	}

	// 3000 + 500 + 4000 + 500 + 2500
	if got := result.Track.DurationMs(); got != 10500 {
		t.Fatalf("expected 10500ms, got %d", got)
	}
	if len(result.Placements) != 0 {
		t.Fatalf("expected no placements, got %d", len(result.Placements))
	}
}

func TestMixSkipsTurnWithMissingMainAudio(t *testing.T) {
	codec := &fakeCodec{durations: map[string]int{
		"ana_1.mp3": 3000,
		// ben_2.mp3 missing
		"ana_3.mp3": 2000,
	}}
	logger := &testLogger{}
	mixer := NewConversationMixer(logger, codec)

	conversation := domain.Conversation{
		Speakers: []domain.Speaker{{Name: "ana", VoiceID: "v1"}, {Name: "ben", VoiceID: "v2"}},
		Turns: []domain.ConversationTurn{
			{Order: 1, Speaker: "ana", Text: "a"},
			{Order: 2, Speaker: "ben", Text: "b"},
			{Order: 3, Speaker: "ana", Text: "c"},
		},
	}

	result, err := mixer.Mix(context.Background(), conversation, "")
	if err != nil {
		t.Fatal("Failed to mix:", err)
	}
	if got := result.Track.DurationMs(); got != 5500 {
		t.Fatalf("expected 5500ms with turn 2 skipped, got %d", got)
	}
	if logger.warnCount() == 0 {
		t.Fatal("expected a warning for the skipped turn")
	}
}

func TestMixEmptyConversationFails(t *testing.T) {
	mixer := NewConversationMixer(&testLogger{}, &fakeCodec{durations: map[string]int{}})

	conversation := domain.Conversation{
		Speakers: []domain.Speaker{{Name: "ana", VoiceID: "v1"}},
		Turns:    []domain.ConversationTurn{{Order: 1, Speaker: "ana", Text: "a"}},
	}

	_, err := mixer.Mix(context.Background(), conversation, "")
	if !errors.Is(err, domain.ErrEmptyMix) {
		t.Fatalf("expected ErrEmptyMix, got %v", err)
	}
}

func TestMixSelfOverlapIsDroppedWithoutChangingAudio(t *testing.T) {
	durations := map[string]int{
		"ana_1.mp3":     3000,
		"ben_2.mp3":     4000,
		"overlap_2.mp3": 1000,
	}
	buildConversation := func(overlap map[string]string) domain.Conversation {
		return domain.Conversation{
			Speakers: []domain.Speaker{{Name: "ana", VoiceID: "v1"}, {Name: "ben", VoiceID: "v2"}},
			Turns: []domain.ConversationTurn{
				{Order: 1, Speaker: "ana", Text: "a"},
				{Order: 2, Speaker: "ben", Text: "b", OverlapWith: overlap},
			},
		}
	}

	logger := &testLogger{}
	mixer := NewConversationMixer(logger, &fakeCodec{durations: durations})

	withSelf, err := mixer.Mix(context.Background(), buildConversation(map[string]string{"ben": "me!"}), "")
	if err != nil {
		t.Fatal(err)
	}
	without, err := mixer.Mix(context.Background(), buildConversation(nil), "")
	if err != nil {
		t.Fatal(err)
	}

	if len(withSelf.Placements) != 0 {
		t.Fatal("self overlap must not be placed")
	}
	if withSelf.Track.DurationMs() != without.Track.DurationMs() {
		t.Fatal("self overlap must not change the mix")
	}
	if logger.warnCount() == 0 {
		t.Fatal("expected a warning for the dropped self overlap")
	}
}

func TestMixPlacesOverlapAndRecordsPlacement(t *testing.T) {
	codec := &fakeCodec{durations: map[string]int{
		"ana_1.mp3":     3000,
		"ben_2.mp3":     5000,
		"overlap_2.mp3": 1000,
	}}
	mixer := NewConversationMixer(&testLogger{}, codec)

	conversation := domain.Conversation{
		Speakers: []domain.Speaker{{Name: "ana", VoiceID: "v1"}, {Name: "ben", VoiceID: "v2"}},
		Turns: []domain.ConversationTurn{
			{Order: 1, Speaker: "ana", Text: "a"},
			{Order: 2, Speaker: "ben", Text: "b", OverlapWith: map[string]string{"ana": "oh!"}},
		},
	}

	result, err := mixer.Mix(context.Background(), conversation, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Placements) != 1 {
		t.Fatalf("expected one placement, got %d", len(result.Placements))
	}

	p := result.Placements[0]
	// Turn 2 spans [3500, 8500); its 1000ms reaction is shorter than the
	// two-second window, so it starts one reaction-length before the end.
	if p.PositionMs != 7500 {
		t.Fatalf("expected placement at 7500ms, got %d", p.PositionMs)
	}
	if p.Speaker != "ana" || p.TurnOrder != 2 {
		t.Fatalf("unexpected placement %+v", p)
	}
	// Reaction fits inside the turn, so the mix does not grow.
	if got := result.Track.DurationMs(); got != 8500 {
		t.Fatalf("expected 8500ms, got %d", got)
	}
}

func TestMixFourTurnsWithTwoOverlaps(t *testing.T) {
	codec := &fakeCodec{durations: map[string]int{
		"ana_1.mp3":     3000,
		"ben_2.mp3":     5000,
		"overlap_2.mp3": 1000,
		"ana_3.mp3":     2000,
		"ben_4.mp3":     3000,
		"overlap_4.mp3": 2500,
	}}
	mixer := NewConversationMixer(&testLogger{}, codec)

	conversation := domain.Conversation{
		Speakers: []domain.Speaker{{Name: "ana", VoiceID: "v1"}, {Name: "ben", VoiceID: "v2"}},
		Turns: []domain.ConversationTurn{
			{Order: 1, Speaker: "ana", Text: "a"},
			{Order: 2, Speaker: "ben", Text: "b", OverlapWith: map[string]string{"ana": "oh!"}},
			{Order: 3, Speaker: "ana", Text: "c"},
			{Order: 4, Speaker: "ben", Text: "d", OverlapWith: map[string]string{"ana": "right!"}},
		},
	}

	result, err := mixer.Mix(context.Background(), conversation, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Placements) != 2 {
		t.Fatalf("expected two placements, got %d", len(result.Placements))
	}

	// Turn 2 spans [3500, 8500); the 1000ms reaction is shorter than the
	// window, so it starts one reaction-length before the end.
	if p := result.Placements[0]; p.TurnOrder != 2 || p.PositionMs != 7500 {
		t.Fatalf("unexpected first placement %+v", p)
	}
	// Turn 4 spans [11500, 14500); the 2500ms reaction exceeds the window and
	// clamps to the final two seconds.
	if p := result.Placements[1]; p.TurnOrder != 4 || p.PositionMs != 12500 {
		t.Fatalf("unexpected second placement %+v", p)
	}
	// The second reaction runs 500ms past the last turn, padding the mix.
	if got := result.Track.DurationMs(); got != 15000 {
		t.Fatalf("expected 15000ms, got %d", got)
	}
}

func TestOverlapInsertionPoint(t *testing.T) {
	cases := []struct {
		name                             string
		mainStart, mainEnd, mainDur, ovD int
		want                             int
	}{
		{"short turn centers the reaction", 1000, 2500, 1500, 3000, 1750},
		{"boundary duration still centers", 1000, 3000, 2000, 500, 2000},
		{"long turn, short reaction", 1000, 6000, 5000, 800, 5200},
		{"long turn, long reaction clamps to window", 1000, 6000, 5000, 4000, 4000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := overlapInsertionMs(tc.mainStart, tc.mainEnd, tc.mainDur, tc.ovD)
			if got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestBlendOverlapPadsWhenReactionRunsPastEnd(t *testing.T) {
	base := domain.Silent(5000, domain.DefaultSampleRate, 1)
	overlay := domain.Silent(2000, domain.DefaultSampleRate, 1)

	if err := blendOverlap(base, overlay, 4000); err != nil {
		t.Fatal(err)
	}
	if got := base.DurationMs(); got != 6000 {
		t.Fatalf("expected base padded to 6000ms, got %d", got)
	}
}
