package database

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"

	"chatgateway/internal/domain/message"
)

// MessageModel is the database model for message.Message rows (4.5).
type MessageModel struct {
	bun.BaseModel `bun:"table:messages"`

	ID         string     `bun:"id,pk,type:varchar(36)" json:"id"`
	InstanceID string     `bun:"instance_id,notnull,type:varchar(36)" json:"instance_id"`
	Direction  string     `bun:"direction,notnull,type:varchar(10)" json:"direction"`
	FromAddr   string     `bun:"from_addr,notnull,type:varchar(100)" json:"from"`
	ToAddr     string     `bun:"to_addr,notnull,type:varchar(100)" json:"to"`
	Type       string     `bun:"msg_type,notnull,type:varchar(20)" json:"type"`
	Content    string     `bun:"content,type:text" json:"content"`
	Status     string     `bun:"status,notnull,type:varchar(20),default:'pending'" json:"status"`
	SentAt     *time.Time `bun:"sent_at,type:datetime" json:"sent_at,omitempty"`
	CreatedAt  time.Time  `bun:"created_at,notnull,default:current_timestamp,type:datetime" json:"created_at"`
}

func ToMessageModel(msg *message.Message) (*MessageModel, error) {
	contentJSON, err := json.Marshal(msg.Content())
	if err != nil {
		return nil, err
	}
	return &MessageModel{
		ID:         msg.ID(),
		InstanceID: msg.InstanceID(),
		Direction:  string(msg.Direction()),
		FromAddr:   msg.From(),
		ToAddr:     msg.To(),
		Type:       string(msg.Type()),
		Content:    string(contentJSON),
		Status:     string(msg.Status()),
		SentAt:     msg.SentAt(),
		CreatedAt:  msg.CreatedAt(),
	}, nil
}

func FromMessageModel(model *MessageModel) (*message.Message, error) {
	var content message.Content
	if model.Content != "" {
		if err := json.Unmarshal([]byte(model.Content), &content); err != nil {
			return nil, err
		}
	}
	return message.Restore(
		model.ID, model.InstanceID, message.Direction(model.Direction),
		model.FromAddr, model.ToAddr, message.Type(model.Type),
		content, message.Status(model.Status), model.SentAt, model.CreatedAt,
	), nil
}
