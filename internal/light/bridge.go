package light

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Bridge carries relay commands to the actuator firmware.
type Bridge interface {
	PublishCommand(light, command string) error
	Close() error
}

// MQTTBridge talks to the ESP32 actuator over an MQTT broker. Commands go
// out on <prefix>/<light>; the actuator confirms on <prefix>/<light>/state.
type MQTTBridge struct {
	client paho.Client
	prefix string
}

func NewMQTTBridge(broker, clientID, prefix string) (*MQTTBridge, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &MQTTBridge{client: client, prefix: prefix}, nil
}

// PublishCommand sends a command to one relay.
func (b *MQTTBridge) PublishCommand(light, command string) error {
	// QoS 0, not retained: a stale ON replayed after reconnect would be
	// worse than a missed command the patient can repeat.
	token := b.client.Publish(b.prefix+"/"+light, 0, false, command)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// SubscribeStates wires actuator state confirmations into the mirror.
func (b *MQTTBridge) SubscribeStates(mirror *Mirror) error {
	for _, l := range knownLights {
		light := l
		token := b.client.Subscribe(b.prefix+"/"+light+"/state", 0, func(_ paho.Client, msg paho.Message) {
			mirror.ReportActuatorState(light, string(msg.Payload()))
		})
		if !token.WaitTimeout(5 * time.Second) {
			return fmt.Errorf("subscribe timeout for %s", light)
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("subscribe %s: %w", light, err)
		}
	}
	return nil
}

// Close disconnects from the broker.
func (b *MQTTBridge) Close() error {
	b.client.Disconnect(1000)
	return nil
}

// FakeBridge records commands in memory. Used in tests and when no broker
// is configured.
type FakeBridge struct {
	mu       sync.Mutex
	commands [][2]string
	Err      error
}

func NewFakeBridge() *FakeBridge { return &FakeBridge{} }

func (f *FakeBridge) PublishCommand(light, command string) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	f.commands = append(f.commands, [2]string{light, command})
	f.mu.Unlock()
	return nil
}

func (f *FakeBridge) Close() error { return nil }

// Commands returns every command published so far.
func (f *FakeBridge) Commands() [][2]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][2]string, len(f.commands))
	copy(out, f.commands)
	return out
}
