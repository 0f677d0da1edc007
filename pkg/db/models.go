package db

import (
	"time"

	"gorm.io/datatypes"
)

// KeyValue backs the keyed JSON blobs (settings, history) when the relational
// store is used as the key-value backend.
type KeyValue struct {
	Key       string         `gorm:"primaryKey;size:191"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

func (KeyValue) TableName() string {
	return "key_values"
}

// PendingNotification is one entry of the local notification schedule. The
// reminder engine replaces the queued rows on every cycle; the dispatcher
// drains rows whose FireAt has passed. Zero-valued columns carry no gorm
// default so that false and 0 survive Create.
type PendingNotification struct {
	ID            string    `gorm:"primaryKey;size:64"`
	FireAt        time.Time `gorm:"index;not null"`
	Title         string    `gorm:"not null"`
	Body          string    `gorm:"not null;default:''"`
	Category      string    `gorm:"index;not null"`
	ItemKind      string    `gorm:"not null;default:''"`
	ItemID        string    `gorm:"not null;default:''"`
	CourseID      string    `gorm:"not null;default:''"`
	CourseName    string    `gorm:"not null;default:''"`
	RecordHistory bool      `gorm:"not null"`
	Attempts      int       `gorm:"not null;default:0"`
	LastError     string    `gorm:"not null;default:''"`
	CreatedAt     time.Time
}

// Models lists every table managed by AutoMigrate.
func Models() []interface{} {
	return []interface{}{&KeyValue{}, &PendingNotification{}}
}
