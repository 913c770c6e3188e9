package logentry

import (
	"time"

	"github.com/google/uuid"
)

// Level is the severity of an append-only Instance log entry (3).
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Entry is one append-only line attributable to an Instance.
type Entry struct {
	id         string
	instanceID string
	level      Level
	message    string
	timestamp  time.Time
}

func New(instanceID string, level Level, message string) *Entry {
	return &Entry{
		id:         uuid.New().String(),
		instanceID: instanceID,
		level:      level,
		message:    message,
		timestamp:  time.Now(),
	}
}

func Restore(id, instanceID string, level Level, message string, timestamp time.Time) *Entry {
	return &Entry{id: id, instanceID: instanceID, level: level, message: message, timestamp: timestamp}
}

func (e *Entry) ID() string            { return e.id }
func (e *Entry) InstanceID() string    { return e.instanceID }
func (e *Entry) Level() Level          { return e.level }
func (e *Entry) Message() string       { return e.message }
func (e *Entry) Timestamp() time.Time  { return e.timestamp }
