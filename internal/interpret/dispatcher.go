package interpret

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/SoumenSample/NetraVaani/config"
	"github.com/SoumenSample/NetraVaani/internal/gesture"
)

// Dispatcher owns the single active session slot and routes every blink
// signal: the active session gets first claim on the count, and an
// unclaimed emergency gesture raises the global alert.
type Dispatcher struct {
	mu      sync.Mutex
	session Session

	actions  Actions
	notifier Notifier
	cfg      config.InterpreterConfig
	logger   *log.Logger

	lastEmergency time.Time
}

func NewDispatcher(actions Actions, notifier Notifier, cfg config.InterpreterConfig, logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		actions:  actions,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// Register activates the session for the given mode, replacing whatever was
// active before. Registration is last writer wins: the surface the patient
// is looking at is always the one that registered most recently.
func (d *Dispatcher) Register(mode string) error {
	var s Session
	switch mode {
	case "menu":
		s = NewMenuSession(d.actions, d.cfg.MenuResetGrace)
	case "phrase":
		s = NewPhraseSession(d.actions)
	case "morse":
		s = NewMorseSession(d.actions, d.cfg.MorseLetterGap, d.cfg.MorseWordGap, d.cfg.MorseDotThreshold)
	case "game":
		s = NewGameSession(d.actions, time.Now())
	default:
		return fmt.Errorf("unknown interpreter mode %q", mode)
	}

	d.mu.Lock()
	prev := d.session
	d.session = s
	d.mu.Unlock()

	if prev != nil && prev.Mode() != mode {
		d.logger.Printf("interpreter %s replaced by %s", prev.Mode(), mode)
	} else {
		d.logger.Printf("interpreter %s registered", mode)
	}
	activeMode.Set(modeValue(mode))
	return nil
}

// Unregister clears the active session if it matches the given mode. A
// stale unregister from a surface that was already replaced is a no-op.
func (d *Dispatcher) Unregister(mode string) {
	d.mu.Lock()
	cleared := d.session != nil && d.session.Mode() == mode
	if cleared {
		d.session = nil
	}
	d.mu.Unlock()

	if cleared {
		d.logger.Printf("interpreter %s unregistered", mode)
		activeMode.Set(modeValue(""))
	}
}

// Active returns the mode of the current session, or "" when idle.
func (d *Dispatcher) Active() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session == nil {
		return ""
	}
	return d.session.Mode()
}

// Dispatch routes one blink signal. Invalid counts are ignored.
func (d *Dispatcher) Dispatch(deviceID string, count int, now time.Time) {
	if !gesture.Valid(count) {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	mode := "idle"
	if d.session != nil {
		mode = d.session.Mode()
	}
	gesturesTotal.WithLabelValues(mode, string(gesture.Classify(count))).Inc()

	if d.session != nil && d.session.Claims(count) {
		d.session.Handle(Input{DeviceID: deviceID, Count: count, Now: now})
		return
	}

	if gesture.Classify(count) == gesture.Emergency {
		d.triggerEmergencyLocked(deviceID, now)
	}
}

// Press routes a timed button press to the active session, if it takes one.
func (d *Dispatcher) Press(deviceID string, duration time.Duration, now time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.session.(Presser)
	if !ok {
		return fmt.Errorf("active interpreter does not accept presses")
	}
	p.Press(Input{DeviceID: deviceID, Now: now}, duration)
	return nil
}

// Select routes a direct index selection to the active session, if it
// supports one.
func (d *Dispatcher) Select(deviceID string, index int, now time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	sel, ok := d.session.(Selector)
	if !ok {
		return fmt.Errorf("active interpreter does not support selection")
	}
	return sel.SelectAt(Input{DeviceID: deviceID, Now: now}, index)
}

// TriggerEmergency raises the emergency alert, subject to the cooldown.
func (d *Dispatcher) TriggerEmergency(deviceID string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.triggerEmergencyLocked(deviceID, now)
}

func (d *Dispatcher) triggerEmergencyLocked(deviceID string, now time.Time) bool {
	if !d.lastEmergency.IsZero() && now.Sub(d.lastEmergency) < d.cfg.EmergencyCooldown {
		d.logger.Printf("emergency from %s suppressed by cooldown", deviceID)
		emergencyTotal.WithLabelValues("suppressed").Inc()
		return false
	}
	d.lastEmergency = now
	emergencyTotal.WithLabelValues("triggered").Inc()
	d.actions.Speak("Emergency! Calling for help!")
	d.notifier.Emergency(deviceID, now)
	return true
}

// Run drives time-based session behavior, currently morse gap detection,
// until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	tick := time.NewTicker(d.cfg.MorseTick)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tick.C:
			d.mu.Lock()
			if t, ok := d.session.(Ticker); ok {
				t.Tick(now)
			}
			d.mu.Unlock()
		}
	}
}
