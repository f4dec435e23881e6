package interpret

import (
	"io"
	"log"
	"sync"
	"time"

	"github.com/SoumenSample/NetraVaani/config"
	"github.com/SoumenSample/NetraVaani/internal/bus"
)

// fakeActions records everything a session did.
type fakeActions struct {
	mu        sync.Mutex
	spoken    []string
	navigated []string
	needs     []string
	toggles   int
	toggleErr error
	events    []bus.Event
}

func (f *fakeActions) Speak(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, text)
}

func (f *fakeActions) Navigate(target string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigated = append(f.navigated, target)
}

func (f *fakeActions) ReportNeed(deviceID, item string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.needs = append(f.needs, item)
}

func (f *fakeActions) ToggleLight() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.toggleErr != nil {
		return f.toggleErr
	}
	f.toggles++
	return nil
}

func (f *fakeActions) Publish(topic string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, bus.Event{Topic: topic, Payload: payload})
}

func (f *fakeActions) lastEvent(topic string) (bus.Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].Topic == topic {
			return f.events[i], true
		}
	}
	return bus.Event{}, false
}

type fakeNotifier struct {
	mu          sync.Mutex
	emergencies []string
	needs       []string
}

func (f *fakeNotifier) Emergency(deviceID string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emergencies = append(f.emergencies, deviceID)
}

func (f *fakeNotifier) Need(deviceID, item string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.needs = append(f.needs, item)
}

func testInterpreterConfig() config.InterpreterConfig {
	var cfg config.Config
	config.ApplyDefaults(&cfg)
	return cfg.Interpreter
}

func newTestDispatcher() (*Dispatcher, *fakeActions, *fakeNotifier) {
	actions := &fakeActions{}
	notifier := &fakeNotifier{}
	d := NewDispatcher(actions, notifier, testInterpreterConfig(), log.New(io.Discard, "", 0))
	return d, actions, notifier
}
