// Package device tracks the liveness of blink sensor headsets from their
// periodic heartbeats.
package device

import "time"

// Status is the liveness classification of a device.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// Device is a sensor headset known to the tracker. Records are created on
// first heartbeat and live for the rest of the process; a device only goes
// offline via the timeout sweep and only comes back via a fresh heartbeat.
type Device struct {
	DeviceID string `json:"deviceId"`
	Status   Status `json:"status"`
	// LastSeen is the device-reported timestamp, kept for display only.
	LastSeen time.Time `json:"lastSeen"`
	// UpdatedAt is the server-observed arrival time of the last heartbeat.
	// Liveness decisions use this, never LastSeen: device clocks are
	// untrusted.
	UpdatedAt time.Time `json:"updatedAt"`
	RSSI      *int      `json:"rssi,omitempty"`
	Battery   *int      `json:"battery,omitempty"`
}

// StatusPayload is the shape broadcast on the status topic.
type StatusPayload struct {
	DeviceID  string    `json:"deviceId"`
	Status    Status    `json:"status"`
	LastSeen  time.Time `json:"lastSeen"`
	Transport string    `json:"transport"`
}

// TelemetryPayload is the shape broadcast on the telemetry topic.
type TelemetryPayload struct {
	DeviceID  string    `json:"deviceId"`
	RSSI      *int      `json:"rssi,omitempty"`
	Battery   *int      `json:"battery,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
