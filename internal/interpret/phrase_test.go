package interpret

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SoumenSample/NetraVaani/internal/bus"
)

func TestBuildPrompt(t *testing.T) {
	cases := []struct {
		pronoun  string
		activity string
		want     string
	}{
		{"My", "my arm hurts", "my arm hurts"},
		{"My", "nap for 30 minutes", "My nap for 30 minutes"},
		{"I", "go to sleep", "I go to sleep"},
		{"I", "order food", "I order food"},
		{"I", "watch TV", "I watch TV"},
		{"I", "have dinner", "I want to have dinner"},
		{"I", "grab something to eat", "I want to grab something to eat"},
		{"We", "watch a movie", "Let's watch a movie"},
		{"We", "order food", "Let's order food"},
		{"We", "nap for 30 minutes", "We will nap for 30 minutes"},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%s_%s", c.pronoun, c.activity), func(t *testing.T) {
			assert.Equal(t, c.want, buildPrompt(c.pronoun, c.activity))
		})
	}
}

func TestGenerateSuggestionsDeduplicatesAndCaps(t *testing.T) {
	got := generateSuggestions("watch tv")
	want := []string{
		"watch TV", "change channel", "start streaming", "recommend a show",
		"watch a movie", "turn on the show", "choose what to watch",
		"watch tv",
	}
	assert.Equal(t, want, got, "exact match first, then leading-word match, capped at 8")
}

func TestGenerateSuggestionsFallbackOnly(t *testing.T) {
	got := generateSuggestions("garden")
	assert.Equal(t, []string{"garden", "think about garden", "set reminder for garden"}, got)
}

func phraseInput(count int) Input {
	return Input{DeviceID: "esp32-01", Count: count, Now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func TestPhraseFullFlow(t *testing.T) {
	actions := &fakeActions{}
	s := NewPhraseSession(actions)

	// Perspective level starts at "I"; select it.
	s.Handle(phraseInput(3))
	// Base level: advance twice to "hungry", select.
	s.Handle(phraseInput(2))
	s.Handle(phraseInput(2))
	s.Handle(phraseInput(3))
	// Suggestion level: advance once to "order food", select.
	s.Handle(phraseInput(2))
	s.Handle(phraseInput(3))

	assert.Equal(t, []string{"I order food"}, actions.spoken)
	assert.Equal(t, []string{"I order food"}, s.History())

	ev, ok := actions.lastEvent(bus.TopicPhrase)
	require.True(t, ok)
	state := ev.Payload.(PhraseState)
	assert.Equal(t, stagePronoun, state.Stage, "selection rewinds to the perspective level")
	assert.Equal(t, 0, state.Index)
	assert.Equal(t, "I order food", state.Spoken,
		"the spoken sentence is the last broadcast, not blanked by a follow-up")

	actions.mu.Lock()
	var phraseEvents int
	for _, e := range actions.events {
		if e.Topic == bus.TopicPhrase {
			phraseEvents++
		}
	}
	actions.mu.Unlock()
	assert.Equal(t, 6, phraseEvents, "one broadcast per gesture, no duplicate after speaking")
}

func TestPhraseBackNavigation(t *testing.T) {
	actions := &fakeActions{}
	s := NewPhraseSession(actions)

	s.Handle(phraseInput(3)) // to base
	s.Handle(phraseInput(3)) // to suggestion, base "sleeping"
	assert.Equal(t, stageSuggestion, s.stage)
	assert.NotEmpty(t, s.suggestions)

	s.Handle(phraseInput(5))
	assert.Equal(t, stageBase, s.stage)
	assert.Empty(t, s.suggestions)
	assert.Empty(t, s.base)

	s.Handle(phraseInput(5))
	assert.Equal(t, stagePronoun, s.stage)

	// Already at the top level; another back is harmless.
	s.Handle(phraseInput(5))
	assert.Equal(t, stagePronoun, s.stage)
}

func TestPhrasePronounAdvanceWraps(t *testing.T) {
	actions := &fakeActions{}
	s := NewPhraseSession(actions)

	s.Handle(phraseInput(2))
	assert.Equal(t, "We", s.pronoun)
	s.Handle(phraseInput(2))
	assert.Equal(t, "My", s.pronoun)
	s.Handle(phraseInput(2))
	assert.Equal(t, "I", s.pronoun)
}

func TestPhraseHistoryMostRecentFirstAndCapped(t *testing.T) {
	actions := &fakeActions{}
	s := NewPhraseSession(actions)

	speakOnce := func() {
		s.Handle(phraseInput(3)) // perspective
		s.Handle(phraseInput(3)) // base "sleeping"
		s.Handle(phraseInput(3)) // first suggestion "go to sleep"
	}
	for i := 0; i < maxHistory+3; i++ {
		speakOnce()
	}

	h := s.History()
	assert.Len(t, h, maxHistory)
	assert.Equal(t, "I go to sleep", h[0])
}
