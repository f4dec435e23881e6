// Package interpret turns blink counts from the headset into meaning: menu
// navigation, phrase building, morse input, the training game and the
// emergency escape gesture.
package interpret

import (
	"log"
	"time"

	"github.com/SoumenSample/NetraVaani/internal/bus"
)

// Input is one blink signal as handed to the active session.
type Input struct {
	DeviceID string
	Count    int
	Now      time.Time
}

// Session interprets blink counts for one interaction surface. All session
// methods are invoked under the dispatcher's lock, so implementations do
// not need their own locking unless they run timers of their own.
type Session interface {
	Mode() string
	// Claims reports whether this session consumes the given blink count.
	// Unclaimed counts fall through to the global gesture handling.
	Claims(count int) bool
	Handle(in Input)
}

// Ticker is implemented by sessions that need periodic time-based
// evaluation, such as morse gap detection.
type Ticker interface {
	Tick(now time.Time)
}

// Presser is implemented by sessions that accept timed button presses in
// addition to blink counts.
type Presser interface {
	Press(in Input, duration time.Duration)
}

// Selector is implemented by sessions that support direct selection from
// the caretaker dashboard.
type Selector interface {
	SelectAt(in Input, index int) error
}

// Notifier raises caretaker alerts.
type Notifier interface {
	Emergency(deviceID string, at time.Time)
	Need(deviceID, item string, at time.Time)
}

// LightToggler flips a room light. Satisfied by *light.Mirror.
type LightToggler interface {
	Toggle(light string) error
}

// Actions is everything a session can do to the outside world.
type Actions interface {
	// Speak queues text for speech synthesis on connected observers.
	Speak(text string)
	// Navigate asks observers to switch to another interaction surface.
	Navigate(target string)
	// ReportNeed raises a care request such as food or water.
	ReportNeed(deviceID, item string, at time.Time)
	// ToggleLight flips the primary room light.
	ToggleLight() error
	// Publish broadcasts a raw event to observers.
	Publish(topic string, payload any)
}

// SpeechPayload is broadcast on the speech topic.
type SpeechPayload struct {
	Text string `json:"text"`
}

// NavigatePayload is broadcast on the navigate topic.
type NavigatePayload struct {
	Target string `json:"target"`
}

// BusActions is the production Actions implementation, wired to the event
// bus, the light mirror and the caretaker notifier.
type BusActions struct {
	pub      *bus.Bus
	lights   LightToggler
	notifier Notifier
	logger   *log.Logger
}

func NewBusActions(pub *bus.Bus, lights LightToggler, notifier Notifier, logger *log.Logger) *BusActions {
	return &BusActions{pub: pub, lights: lights, notifier: notifier, logger: logger}
}

func (a *BusActions) Speak(text string) {
	a.pub.Publish(bus.TopicSpeech, SpeechPayload{Text: text})
}

func (a *BusActions) Navigate(target string) {
	a.pub.Publish(bus.TopicNavigate, NavigatePayload{Target: target})
}

func (a *BusActions) ReportNeed(deviceID, item string, at time.Time) {
	a.notifier.Need(deviceID, item, at)
}

func (a *BusActions) ToggleLight() error {
	return a.lights.Toggle("light1")
}

func (a *BusActions) Publish(topic string, payload any) {
	a.pub.Publish(topic, payload)
}
