// Package persistence is the optional append-only room log described in
// spec.md §6.3. It is never authoritative — live room state lives only in
// internal/roomactor — and a logging failure must never fail createRoom.
// Grounded on the teacher's gorm+postgres models (models/*.go) and on
// irrelative-picture_this's golang-migrate schema-setup convention.
package persistence

import (
	"time"

	"gorm.io/gorm"
)

// RoomLogEntry is the one line appended per room, per spec.md §6.3:
// (code, hostName, maxParticipants, "LOBBY", createdAt).
type RoomLogEntry struct {
	RoomCode        string
	HostName        string
	MaxParticipants int
	Status          string
	CreatedAt       time.Time
}

// RoomLogger appends best-effort room-creation records.
type RoomLogger interface {
	LogRoomCreated(entry RoomLogEntry) error
}

// roomLogRow is the gorm model backing the postgres-backed logger. It
// mirrors the teacher's models.* convention (primary key, soft delete,
// plain column types) generalized to this package's single append-only
// table instead of the teacher's relational quiz/game schema.
type roomLogRow struct {
	ID              uint   `gorm:"primaryKey"`
	RoomCode        string `gorm:"size:10;index"`
	HostName        string `gorm:"size:24"`
	MaxParticipants int
	Status          string `gorm:"size:16"`
	CreatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (roomLogRow) TableName() string { return "room_log" }

// PostgresLogger persists RoomLogEntry rows via gorm, the teacher's ORM of
// choice. Every write is best-effort: errors are returned to the caller
// (the registry), which is documented to ignore them per spec.md §6.3.
type PostgresLogger struct {
	db *gorm.DB
}

func NewPostgresLogger(db *gorm.DB) *PostgresLogger {
	return &PostgresLogger{db: db}
}

func (l *PostgresLogger) LogRoomCreated(entry RoomLogEntry) error {
	row := roomLogRow{
		RoomCode:        entry.RoomCode,
		HostName:        entry.HostName,
		MaxParticipants: entry.MaxParticipants,
		Status:          entry.Status,
		CreatedAt:       entry.CreatedAt,
	}
	return l.db.Create(&row).Error
}

// NoopLogger is used when no DSN is configured; createRoom proceeds with
// no durable record at all, which spec.md §6.3 explicitly allows ("MAY be
// appended").
type NoopLogger struct{}

func (NoopLogger) LogRoomCreated(RoomLogEntry) error { return nil }
