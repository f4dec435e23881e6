// Package light mirrors the on/off state of the room light relays and
// forwards commands to the actuator over MQTT.
package light

import (
	"fmt"
	"log"
	"sync"

	"github.com/SoumenSample/NetraVaani/internal/bus"
)

// Command values accepted by the actuator firmware.
const (
	CommandOn  = "ON"
	CommandOff = "OFF"
)

var knownLights = []string{"light1", "light2"}

// KnownLight reports whether name is a controllable relay.
func KnownLight(name string) bool {
	for _, l := range knownLights {
		if l == name {
			return true
		}
	}
	return false
}

// ValidCommand reports whether cmd is an accepted actuator command.
func ValidCommand(cmd string) bool {
	return cmd == CommandOn || cmd == CommandOff
}

// Mirror keeps the last known state of each relay. Commands update the
// mirror optimistically; a state report from the actuator itself always
// wins over the optimistic value.
type Mirror struct {
	mu     sync.Mutex
	states map[string]string

	bridge Bridge
	pub    *bus.Bus
	logger *log.Logger
}

func NewMirror(bridge Bridge, pub *bus.Bus, logger *log.Logger) *Mirror {
	states := make(map[string]string, len(knownLights))
	for _, l := range knownLights {
		states[l] = CommandOff
	}
	return &Mirror{states: states, bridge: bridge, pub: pub, logger: logger}
}

// Set sends a command to the actuator and, on publish success, records it
// as the assumed state. A failed publish leaves the mirror untouched.
func (m *Mirror) Set(light, command string) error {
	if !KnownLight(light) {
		return fmt.Errorf("unknown light %q", light)
	}
	if !ValidCommand(command) {
		return fmt.Errorf("invalid command %q", command)
	}
	if err := m.bridge.PublishCommand(light, command); err != nil {
		return fmt.Errorf("publish command for %s: %w", light, err)
	}

	m.mu.Lock()
	m.states[light] = command
	m.mu.Unlock()

	m.logger.Printf("light %s commanded %s", light, command)
	// Observers always get the complete map, never a single-light delta.
	m.pub.Publish(bus.TopicLightStatus, m.Snapshot())
	return nil
}

// Toggle flips a light based on its mirrored state.
func (m *Mirror) Toggle(light string) error {
	m.mu.Lock()
	cur := m.states[light]
	m.mu.Unlock()

	next := CommandOn
	if cur == CommandOn {
		next = CommandOff
	}
	return m.Set(light, next)
}

// ReportActuatorState records a state announced by the actuator itself.
// It overrides any optimistic value and rebroadcasts.
func (m *Mirror) ReportActuatorState(light, state string) {
	if !KnownLight(light) || !ValidCommand(state) {
		m.logger.Printf("ignoring actuator report %s=%s", light, state)
		return
	}

	m.mu.Lock()
	changed := m.states[light] != state
	m.states[light] = state
	m.mu.Unlock()

	if changed {
		m.logger.Printf("light %s reported %s", light, state)
	}
	m.pub.Publish(bus.TopicLightStatus, m.Snapshot())
}

// Snapshot returns a copy of the mirrored states.
func (m *Mirror) Snapshot() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.states))
	for k, v := range m.states {
		out[k] = v
	}
	return out
}
