package interpret

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SoumenSample/NetraVaani/internal/bus"
)

func newTestMorse(actions *fakeActions) *MorseSession {
	cfg := testInterpreterConfig()
	return NewMorseSession(actions, cfg.MorseLetterGap, cfg.MorseWordGap, cfg.MorseDotThreshold)
}

func morseInput(count int, now time.Time) Input {
	return Input{DeviceID: "esp32-01", Count: count, Now: now}
}

func TestMorseDecodesLetter(t *testing.T) {
	actions := &fakeActions{}
	s := newTestMorse(actions)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s.Handle(morseInput(2, t0))                    // dot
	s.Handle(morseInput(2, t0.Add(time.Second)))   // dot
	s.Tick(t0.Add(7100 * time.Millisecond))        // idle 6100ms since last symbol

	assert.Equal(t, "I", s.Text())
	assert.Contains(t, actions.spoken, "I")

	ev, ok := actions.lastEvent(bus.TopicMorse)
	require.True(t, ok)
	state := ev.Payload.(MorseState)
	assert.Empty(t, state.Buffer)
	assert.Equal(t, "I", state.Text)
}

func TestMorseDashAndUnknownSequence(t *testing.T) {
	actions := &fakeActions{}
	s := newTestMorse(actions)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s.Handle(morseInput(2, t0)) // .
	s.Handle(morseInput(3, t0)) // -
	s.Tick(t0.Add(6100 * time.Millisecond))
	assert.Equal(t, "A", s.Text())

	for i := 0; i < 7; i++ { // "......." is no letter
		s.Handle(morseInput(2, t0.Add(10*time.Second)))
	}
	s.Tick(t0.Add(17 * time.Second))
	assert.Equal(t, "A?", s.Text())
}

func TestMorseLetterGapDoesNotAddSpace(t *testing.T) {
	actions := &fakeActions{}
	s := newTestMorse(actions)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s.Handle(morseInput(2, t0))
	s.Tick(t0.Add(6200 * time.Millisecond))
	assert.Equal(t, "E", s.Text())

	// The gap marker was consumed by the letter; later ticks add nothing.
	s.Tick(t0.Add(30 * time.Second))
	s.Tick(t0.Add(60 * time.Second))
	assert.Equal(t, "E", s.Text())
}

func TestMorseLongIdleFlushesLetterAndSpaceTogether(t *testing.T) {
	actions := &fakeActions{}
	s := newTestMorse(actions)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s.Handle(morseInput(3, t0)) // -
	// First evaluation happens only after the idle time jumped past both
	// thresholds; the letter closes and a single word break follows.
	s.Tick(t0.Add(9 * time.Second))
	assert.Equal(t, "T ", s.Text())

	s.Tick(t0.Add(20 * time.Second))
	assert.Equal(t, "T ", s.Text(), "no second space without new activity")
}

func TestMorseTickWithoutActivityIsNoop(t *testing.T) {
	actions := &fakeActions{}
	s := newTestMorse(actions)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s.Tick(t0)
	s.Tick(t0.Add(time.Minute))
	assert.Empty(t, s.Text())
	assert.Empty(t, actions.events)
}

func TestMorsePressDurationMapsToSymbol(t *testing.T) {
	actions := &fakeActions{}
	s := newTestMorse(actions)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s.Press(morseInput(0, t0), 100*time.Millisecond)
	s.Press(morseInput(0, t0), 400*time.Millisecond)
	s.Tick(t0.Add(7 * time.Second))

	assert.Equal(t, "A", s.Text(), "short press is a dot, long press a dash")
}
