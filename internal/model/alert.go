package model

import "time"

// Alert kinds as stored in the audit log.
const (
	AlertKindEmergency = "emergency"
	AlertKindNeed      = "need"
)

// AlertRecord is an audit row for every alert dispatched to caretakers.
// Only alert metadata is stored; patient-composed text never touches the
// database.
type AlertRecord struct {
	ID        int64     `gorm:"primaryKey"`
	Kind      string    `gorm:"size:32;index;not null"`
	DeviceID  string    `gorm:"size:128;index;not null"`
	Detail    string    `gorm:"size:256"`
	CreatedAt time.Time `gorm:"index;not null"`
}
