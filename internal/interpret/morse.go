package interpret

import (
	"strings"
	"time"

	"github.com/SoumenSample/NetraVaani/internal/bus"
	"github.com/SoumenSample/NetraVaani/internal/gesture"
)

var morseToText = map[string]string{
	".-": "A", "-...": "B", "-.-.": "C", "-..": "D",
	".": "E", "..-.": "F", "--.": "G", "....": "H",
	"..": "I", ".---": "J", "-.-": "K", ".-..": "L",
	"--": "M", "-.": "N", "---": "O", ".--.": "P",
	"--.-": "Q", ".-.": "R", "...": "S", "-": "T",
	"..-": "U", "...-": "V", ".--": "W", "-..-": "X",
	"-.--": "Y", "--..": "Z",
	"-----": "0", ".----": "1", "..---": "2", "...--": "3",
	"....-": "4", ".....": "5", "-....": "6", "--...": "7",
	"---..": "8", "----.": "9",
}

// MorseState is broadcast on the morse topic after every change.
type MorseState struct {
	Buffer string `json:"buffer"`
	Text   string `json:"text"`
}

// MorseSession decodes blink-entered morse. Two blinks append a dot, three
// a dash; letters and word breaks fall out of idle-time detection driven by
// Tick.
type MorseSession struct {
	actions Actions

	letterGap    time.Duration
	wordGap      time.Duration
	dotThreshold time.Duration

	buffer string
	text   string
	// lastEnd marks the end of the latest symbol. The zero value means no
	// pending activity, which keeps an already-flushed gap from producing
	// extra spaces on later ticks.
	lastEnd time.Time
}

func NewMorseSession(actions Actions, letterGap, wordGap, dotThreshold time.Duration) *MorseSession {
	return &MorseSession{
		actions:      actions,
		letterGap:    letterGap,
		wordGap:      wordGap,
		dotThreshold: dotThreshold,
	}
}

func (s *MorseSession) Mode() string { return "morse" }

func (s *MorseSession) Claims(count int) bool {
	g := gesture.Classify(count)
	return g == gesture.Advance || g == gesture.Select
}

func (s *MorseSession) Handle(in Input) {
	switch gesture.Classify(in.Count) {
	case gesture.Advance:
		s.addSymbol(".", in.Now)
	case gesture.Select:
		s.addSymbol("-", in.Now)
	}
}

// Press maps a timed button press to a symbol: short presses are dots.
func (s *MorseSession) Press(in Input, duration time.Duration) {
	if duration < s.dotThreshold {
		s.addSymbol(".", in.Now)
	} else {
		s.addSymbol("-", in.Now)
	}
}

func (s *MorseSession) addSymbol(sym string, now time.Time) {
	s.buffer += sym
	s.lastEnd = now
	s.publish()
}

// Tick evaluates the idle gap since the last symbol. A long enough gap
// closes the current letter; a longer one also inserts a word break. Both
// can fire on the same tick when the gap jumped past both thresholds.
func (s *MorseSession) Tick(now time.Time) {
	if s.lastEnd.IsZero() {
		return
	}
	idle := now.Sub(s.lastEnd)
	changed := false

	if idle > s.letterGap && s.buffer != "" {
		letter, ok := morseToText[s.buffer]
		if !ok {
			letter = "?"
		}
		s.text += letter
		s.buffer = ""
		s.lastEnd = time.Time{}
		s.actions.Speak(letter)
		changed = true
	}

	if idle > s.wordGap {
		s.text = strings.TrimRight(s.text, " ") + " "
		s.lastEnd = time.Time{}
		changed = true
	}

	if changed {
		s.publish()
	}
}

func (s *MorseSession) publish() {
	s.actions.Publish(bus.TopicMorse, MorseState{Buffer: s.buffer, Text: s.text})
}

// Text returns the decoded transcript so far.
func (s *MorseSession) Text() string { return s.text }
