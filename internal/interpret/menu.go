package interpret

import (
	"fmt"
	"sync"
	"time"

	"github.com/SoumenSample/NetraVaani/internal/bus"
	"github.com/SoumenSample/NetraVaani/internal/gesture"
)

// MenuItem is one entry on the radial care menu.
type MenuItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var menuItems = []MenuItem{
	{ID: "food", Label: "Food"},
	{ID: "water", Label: "Water"},
	{ID: "toilet", Label: "Toilet"},
	{ID: "game", Label: "Game"},
	{ID: "training", Label: "Ai Talk"},
	{ID: "morse", Label: "Talk Training"},
	{ID: "light", Label: "Light"},
}

// MenuState is broadcast on the menu topic after every change.
type MenuState struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// MenuSession walks the radial menu: two blinks advance the highlight and
// speak the next label, three blinks select the highlighted item.
type MenuSession struct {
	actions  Actions
	grace    time.Duration
	schedule func(d time.Duration, f func())

	mu sync.Mutex
	// generation invalidates a pending reset when a newer selection
	// schedules its own.
	generation int
	index      int
}

func NewMenuSession(actions Actions, grace time.Duration) *MenuSession {
	return &MenuSession{
		actions:  actions,
		grace:    grace,
		schedule: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

func (s *MenuSession) Mode() string { return "menu" }

func (s *MenuSession) Claims(count int) bool {
	return gesture.Classify(count) == gesture.Advance || gesture.Classify(count) == gesture.Select
}

func (s *MenuSession) Handle(in Input) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch gesture.Classify(in.Count) {
	case gesture.Advance:
		s.index = (s.index + 1) % len(menuItems)
		item := menuItems[s.index]
		s.actions.Speak(item.Label)
		s.actions.Publish(bus.TopicMenu, MenuState{Index: s.index, ID: item.ID, Label: item.Label})
	case gesture.Select:
		s.selectLocked(in, s.index)
	}
}

// SelectAt performs a direct selection, as driven from the dashboard.
func (s *MenuSession) SelectAt(in Input, index int) error {
	if index < 0 || index >= len(menuItems) {
		return fmt.Errorf("menu index %d out of range", index)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = index
	s.selectLocked(in, index)
	return nil
}

func (s *MenuSession) selectLocked(in Input, index int) {
	item := menuItems[index]
	s.actions.Speak("Selected " + item.Label)
	s.actions.Publish(bus.TopicMenu, MenuState{Index: index, ID: item.ID, Label: item.Label, Selected: true})

	switch item.ID {
	case "light":
		if err := s.actions.ToggleLight(); err != nil {
			s.actions.Speak("Light control failed")
		}
	case "game", "training", "morse":
		s.actions.Navigate(item.ID)
	default:
		s.actions.ReportNeed(in.DeviceID, item.Label, in.Now)
	}

	// The highlight returns to the first item after a short grace so the
	// patient sees what was chosen before the menu rewinds.
	s.generation++
	gen := s.generation
	s.schedule(s.grace, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.generation {
			return
		}
		s.index = 0
		first := menuItems[0]
		s.actions.Publish(bus.TopicMenu, MenuState{Index: 0, ID: first.ID, Label: first.Label})
	})
}

// Index returns the currently highlighted item position.
func (s *MenuSession) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}
