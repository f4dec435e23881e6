package device

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/SoumenSample/NetraVaani/internal/bus"
)

// Publisher is where the tracker emits status and telemetry events.
// Satisfied by *bus.Bus.
type Publisher interface {
	Publish(topic string, payload any)
}

// Tracker is an in-memory device registry with heartbeat timeout detection.
// All state lives in the process; a restart simply forgets devices until
// their next heartbeat.
type Tracker struct {
	mu      sync.Mutex
	devices map[string]*Device

	pub     Publisher
	logger  *log.Logger
	timeout time.Duration
}

func NewTracker(pub Publisher, logger *log.Logger, timeout time.Duration) *Tracker {
	return &Tracker{
		devices: make(map[string]*Device),
		pub:     pub,
		logger:  logger,
		timeout: timeout,
	}
}

// IngestHeartbeat upserts the device record and marks it online. reported is
// the device's own timestamp and may be nil, in which case now stands in.
// The returned copy reflects the post-upsert state.
func (t *Tracker) IngestHeartbeat(deviceID string, reported *time.Time, rssi, battery *int, now time.Time) Device {
	t.mu.Lock()
	d, ok := t.devices[deviceID]
	if !ok {
		d = &Device{DeviceID: deviceID}
		t.devices[deviceID] = d
	}
	wasOffline := !ok || d.Status != StatusOnline
	d.Status = StatusOnline
	if reported != nil {
		d.LastSeen = *reported
	} else {
		d.LastSeen = now
	}
	d.UpdatedAt = now
	if rssi != nil {
		d.RSSI = rssi
	}
	if battery != nil {
		d.Battery = battery
	}
	snap := *d
	t.mu.Unlock()

	if wasOffline {
		heartbeatTransitions.WithLabelValues("online").Inc()
		t.logger.Printf("device %s online", deviceID)
	}
	t.pub.Publish(bus.TopicStatus, StatusPayload{
		DeviceID:  snap.DeviceID,
		Status:    snap.Status,
		LastSeen:  snap.LastSeen,
		Transport: "heartbeat",
	})
	if rssi != nil || battery != nil {
		t.pub.Publish(bus.TopicTelemetry, TelemetryPayload{
			DeviceID:  snap.DeviceID,
			RSSI:      snap.RSSI,
			Battery:   snap.Battery,
			Timestamp: now,
		})
	}
	return snap
}

// Sweep flips every device whose last arrival is older than the timeout to
// offline and broadcasts the transition. Already-offline devices are left
// alone so each outage produces exactly one event.
func (t *Tracker) Sweep(now time.Time) {
	t.mu.Lock()
	var flipped []Device
	for _, d := range t.devices {
		if d.Status == StatusOnline && now.Sub(d.UpdatedAt) > t.timeout {
			d.Status = StatusOffline
			flipped = append(flipped, *d)
		}
	}
	t.mu.Unlock()

	for _, d := range flipped {
		heartbeatTransitions.WithLabelValues("offline").Inc()
		t.logger.Printf("device %s offline (no heartbeat for %s)", d.DeviceID, t.timeout)
		t.pub.Publish(bus.TopicStatus, StatusPayload{
			DeviceID:  d.DeviceID,
			Status:    StatusOffline,
			LastSeen:  d.LastSeen,
			Transport: "timeout",
		})
	}
}

// Rebroadcast re-emits the current status of every device. Run periodically
// so late subscribers on a lossy channel converge without waiting for the
// next transition.
func (t *Tracker) Rebroadcast() {
	for _, d := range t.Snapshot() {
		t.pub.Publish(bus.TopicStatus, StatusPayload{
			DeviceID:  d.DeviceID,
			Status:    d.Status,
			LastSeen:  d.LastSeen,
			Transport: "rebroadcast",
		})
	}
}

// Snapshot returns a copy of every known device, ordered by DeviceID so
// responses and replays are stable.
func (t *Tracker) Snapshot() []Device {
	t.mu.Lock()
	out := make([]Device, 0, len(t.devices))
	for _, d := range t.devices {
		out = append(out, *d)
	}
	t.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out
}

// ReplayEvents returns the status snapshot as bus events, for handing to
// Bus.Subscribe so a new stream consumer sees the full device list first.
func (t *Tracker) ReplayEvents() []bus.Event {
	devs := t.Snapshot()
	evs := make([]bus.Event, 0, len(devs))
	for _, d := range devs {
		evs = append(evs, bus.Event{Topic: bus.TopicStatus, Payload: StatusPayload{
			DeviceID:  d.DeviceID,
			Status:    d.Status,
			LastSeen:  d.LastSeen,
			Transport: "replay",
		}})
	}
	return evs
}

// Run drives the timeout sweep and periodic rebroadcast until ctx is done.
func (t *Tracker) Run(ctx context.Context, sweepEvery, rebroadcastEvery time.Duration) {
	sweep := time.NewTicker(sweepEvery)
	defer sweep.Stop()
	rebroadcast := time.NewTicker(rebroadcastEvery)
	defer rebroadcast.Stop()

	t.logger.Printf("presence loop started (timeout %s, sweep %s)", t.timeout, sweepEvery)
	for {
		select {
		case <-ctx.Done():
			t.logger.Println("presence loop stopped")
			return
		case <-sweep.C:
			t.Sweep(time.Now())
		case <-rebroadcast.C:
			t.Rebroadcast()
		}
	}
}
