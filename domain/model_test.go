package domain

import (
	"sort"
	"testing"
)

func twoSpeakerConversation(turns []ConversationTurn) Conversation {
	return Conversation{
		Topic: "test",
		Speakers: []Speaker{
			{Name: "ana", VoiceID: "v1"},
			{Name: "ben", VoiceID: "v2"},
		},
		Turns: turns,
	}
}

func TestConversationValidateAcceptsWellFormed(t *testing.T) {
	c := twoSpeakerConversation([]ConversationTurn{
		{Order: 1, Speaker: "ana", Text: "hi"},
		{Order: 2, Speaker: "ben", Text: "hello", OverlapWith: map[string]string{"ana": "yes!"}},
	})
	if err := c.Validate(); err != nil {
		t.Fatal("expected valid conversation:", err)
	}
}

func TestConversationValidateRejectsUndeclaredSpeaker(t *testing.T) {
	c := twoSpeakerConversation([]ConversationTurn{
		{Order: 1, Speaker: "zoe", Text: "hi"},
	})
	if err := c.Validate(); err == nil {
		t.Fatal("expected undeclared speaker to be rejected")
	}
}

func TestConversationValidateRejectsUndeclaredOverlapSpeaker(t *testing.T) {
	c := twoSpeakerConversation([]ConversationTurn{
		{Order: 1, Speaker: "ana", Text: "hi", OverlapWith: map[string]string{"zoe": "what"}},
	})
	if err := c.Validate(); err == nil {
		t.Fatal("expected undeclared overlap speaker to be rejected")
	}
}

func TestConversationValidateRequiresIncreasingOrder(t *testing.T) {
	c := twoSpeakerConversation([]ConversationTurn{
		{Order: 2, Speaker: "ana", Text: "hi"},
		{Order: 2, Speaker: "ben", Text: "hello"},
	})
	if err := c.Validate(); err == nil {
		t.Fatal("expected duplicate order to be rejected")
	}
}

func TestConversationValidateAllowsSelfOverlap(t *testing.T) {
	// A self-referencing overlap is a generation quirk; the mixer drops it,
	// validation must not abort the job over it.
	c := twoSpeakerConversation([]ConversationTurn{
		{Order: 1, Speaker: "ana", Text: "hi", OverlapWith: map[string]string{"ana": "me too"}},
	})
	if err := c.Validate(); err != nil {
		t.Fatal("self overlap should pass validation:", err)
	}
}

func TestTurnFileNames(t *testing.T) {
	turn := ConversationTurn{Order: 3, Speaker: "ana"}
	if got := turn.MainAudioFileName(); got != "ana_3.mp3" {
		t.Fatalf("unexpected main file name %q", got)
	}
	if got := turn.OverlapAudioFileName(); got != "overlap_3.mp3" {
		t.Fatalf("unexpected overlap file name %q", got)
	}
}

func TestVoiceFor(t *testing.T) {
	c := twoSpeakerConversation(nil)
	voice, err := c.VoiceFor("ben")
	if err != nil {
		t.Fatal(err)
	}
	if voice != "v2" {
		t.Fatalf("expected v2, got %q", voice)
	}
	if _, err := c.VoiceFor("zoe"); err == nil {
		t.Fatal("expected error for unknown speaker")
	}
}

func TestOnlyBriefIsOptional(t *testing.T) {
	for _, kind := range SegmentOrder {
		if kind.Optional() != (kind == SegmentBrief) {
			t.Fatalf("kind %s has wrong optionality", kind)
		}
	}
}

func TestSegmentOrderIsFixed(t *testing.T) {
	want := []SegmentKind{SegmentIntro, SegmentShort, SegmentBrief, SegmentMain, SegmentOutro}
	if len(SegmentOrder) != len(want) {
		t.Fatalf("unexpected segment count %d", len(SegmentOrder))
	}
	for i, kind := range want {
		if SegmentOrder[i] != kind {
			t.Fatalf("position %d is %s, want %s", i, SegmentOrder[i], kind)
		}
	}
}

func TestVideoSegmentsSortByOrdinal(t *testing.T) {
	segments := []VideoSegment{
		{Kind: SegmentOutro, Ordinal: 4},
		{Kind: SegmentIntro, Ordinal: 0},
		{Kind: SegmentMain, Ordinal: 3},
	}
	sort.Sort(VideoSegmentsAscByOrdinal(segments))
	if segments[0].Kind != SegmentIntro || segments[2].Kind != SegmentOutro {
		t.Fatalf("segments not sorted: %+v", segments)
	}
}
