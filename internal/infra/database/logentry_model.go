package database

import (
	"time"

	"github.com/uptrace/bun"

	"chatgateway/internal/domain/logentry"
)

// LogEntryModel is the database model for logentry.Entry rows (4.5).
type LogEntryModel struct {
	bun.BaseModel `bun:"table:instance_logs"`

	ID         string    `bun:"id,pk,type:varchar(36)" json:"id"`
	InstanceID string    `bun:"instance_id,notnull,type:varchar(36)" json:"instance_id"`
	Level      string    `bun:"level,notnull,type:varchar(10)" json:"level"`
	Message    string    `bun:"message,type:text" json:"message"`
	Timestamp  time.Time `bun:"timestamp,notnull,default:current_timestamp,type:datetime" json:"timestamp"`
}

func ToLogEntryModel(e *logentry.Entry) *LogEntryModel {
	return &LogEntryModel{
		ID:         e.ID(),
		InstanceID: e.InstanceID(),
		Level:      string(e.Level()),
		Message:    e.Message(),
		Timestamp:  e.Timestamp(),
	}
}

func FromLogEntryModel(model *LogEntryModel) *logentry.Entry {
	return logentry.Restore(model.ID, model.InstanceID, logentry.Level(model.Level), model.Message, model.Timestamp)
}
