package interpret

import (
	"strings"

	"github.com/SoumenSample/NetraVaani/internal/bus"
	"github.com/SoumenSample/NetraVaani/internal/gesture"
)

const (
	stagePronoun    = "pronoun"
	stageBase       = "base"
	stageSuggestion = "suggestion"
)

var pronouns = []string{"I", "We", "My"}

var basePhrases = []string{"sleeping", "watch tv", "hungry", "help", "eat"}

var activityMap = map[string][]string{
	"sleep":    {"go to sleep", "take a nap", "set a sleep timer", "talk about sleep schedule"},
	"sleeping": {"go to sleep", "nap for 30 minutes", "adjust sleeping schedule", "sleep well wishes"},
	"watch tv": {"watch TV", "change channel", "start streaming", "recommend a show"},
	"watch":    {"watch TV", "watch a movie", "turn on the show", "choose what to watch"},
	"eat":      {"have dinner", "order food", "prepare a snack", "set mealtime reminder"},
	"hungry":   {"grab something to eat", "order food", "prepare a snack", "drink water"},
	"help":     {"call for help", "need assistance", "send emergency alert"},
}

const (
	maxSuggestions = 8
	maxHistory     = 20
)

// iPrefixes take plain "I" instead of "I want to".
var iPrefixes = []string{"go to ", "take ", "set ", "watch ", "order ", "prepare ", "call ", "need ", "send "}

// wePrefixes take "Let's" instead of "We will".
var wePrefixes = []string{"watch", "prepare", "order", "start", "choose", "set"}

// buildPrompt turns a pronoun and an activity into a speakable sentence.
func buildPrompt(pronoun, activity string) string {
	a := strings.TrimSpace(activity)
	lower := strings.ToLower(a)
	switch pronoun {
	case "My":
		if lower == "my" || strings.HasPrefix(lower, "my ") {
			return a
		}
		return "My " + a
	case "I":
		for _, p := range iPrefixes {
			if strings.HasPrefix(lower, p) {
				return "I " + a
			}
		}
		return "I want to " + a
	default:
		for _, p := range wePrefixes {
			if strings.HasPrefix(lower, p) {
				return "Let's " + a
			}
		}
		return "We will " + a
	}
}

// generateSuggestions expands a base phrase into candidate activities. The
// exact phrase is looked up first, then its leading word, then generic
// fallbacks, deduplicated in order.
func generateSuggestions(base string) []string {
	key := strings.ToLower(strings.TrimSpace(base))
	var candidates []string
	if acts, ok := activityMap[key]; ok {
		candidates = append(candidates, acts...)
	}
	if tokens := strings.Fields(key); len(tokens) > 0 {
		if acts, ok := activityMap[tokens[0]]; ok {
			candidates = append(candidates, acts...)
		}
	}
	candidates = append(candidates, base, "think about "+base, "set reminder for "+base)

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, maxSuggestions)
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

// PhraseState is broadcast on the phrase topic after every change.
type PhraseState struct {
	Stage       string   `json:"stage"`
	Index       int      `json:"index"`
	Pronoun     string   `json:"pronoun"`
	Base        string   `json:"base,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Spoken      string   `json:"spoken,omitempty"`
}

// PhraseSession builds sentences in three levels: perspective, base phrase,
// then a generated suggestion. Two blinks cycle the current level, three
// blinks descend, five blinks climb back up.
type PhraseSession struct {
	actions Actions

	stage       string
	index       int
	pronoun     string
	base        string
	suggestions []string
	history     []string
}

func NewPhraseSession(actions Actions) *PhraseSession {
	return &PhraseSession{actions: actions, stage: stagePronoun, pronoun: pronouns[0]}
}

func (s *PhraseSession) Mode() string { return "phrase" }

func (s *PhraseSession) Claims(count int) bool {
	// Five blinks mean "go back" here, not emergency. The patient escapes
	// via the menu mode or by the caretaker unregistering the session.
	g := gesture.Classify(count)
	return g == gesture.Advance || g == gesture.Select || g == gesture.Emergency
}

func (s *PhraseSession) Handle(in Input) {
	switch gesture.Classify(in.Count) {
	case gesture.Advance:
		s.advance()
	case gesture.Select:
		if s.selectCurrent() {
			// A final select already published the spoken sentence.
			return
		}
	case gesture.Emergency:
		s.back()
	}
	s.publish("")
}

func (s *PhraseSession) advance() {
	switch s.stage {
	case stagePronoun:
		s.index = (s.index + 1) % len(pronouns)
		s.pronoun = pronouns[s.index]
	case stageBase:
		s.index = (s.index + 1) % len(basePhrases)
	case stageSuggestion:
		if len(s.suggestions) > 0 {
			s.index = (s.index + 1) % len(s.suggestions)
		}
	}
}

// selectCurrent descends a level, or speaks on the final level. It reports
// whether it already published the resulting state.
func (s *PhraseSession) selectCurrent() bool {
	switch s.stage {
	case stagePronoun:
		s.pronoun = pronouns[s.index]
		s.stage = stageBase
		s.index = 0
	case stageBase:
		s.base = basePhrases[s.index]
		s.suggestions = generateSuggestions(s.base)
		s.stage = stageSuggestion
		s.index = 0
	case stageSuggestion:
		if len(s.suggestions) == 0 {
			return false
		}
		text := buildPrompt(s.pronoun, s.suggestions[s.index])
		s.actions.Speak(text)
		s.history = append([]string{text}, s.history...)
		if len(s.history) > maxHistory {
			s.history = s.history[:maxHistory]
		}
		s.stage = stagePronoun
		s.index = 0
		s.publish(text)
		return true
	}
	return false
}

func (s *PhraseSession) back() {
	switch s.stage {
	case stageSuggestion:
		s.stage = stageBase
		s.index = 0
		s.suggestions = nil
		s.base = ""
	case stageBase:
		s.stage = stagePronoun
		s.index = 0
	}
}

func (s *PhraseSession) publish(spoken string) {
	s.actions.Publish(bus.TopicPhrase, PhraseState{
		Stage:       s.stage,
		Index:       s.index,
		Pronoun:     s.pronoun,
		Base:        s.base,
		Suggestions: s.suggestions,
		Spoken:      spoken,
	})
}

// History returns spoken sentences, most recent first.
func (s *PhraseSession) History() []string {
	out := make([]string, len(s.history))
	copy(out, s.history)
	return out
}
