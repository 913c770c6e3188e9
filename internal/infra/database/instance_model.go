package database

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"

	"chatgateway/internal/domain/instance"
)

// InstanceModel is the database model for instance.Instance rows (4.5).
type InstanceModel struct {
	bun.BaseModel `bun:"table:instances"`

	ID                string    `bun:"id,pk,type:varchar(36)" json:"id"`
	Phone             string    `bun:"phone,unique,notnull,type:varchar(20)" json:"phone"`
	Name              string    `bun:"name,notnull,type:varchar(80)" json:"name"`
	Alias             string    `bun:"alias,type:varchar(80)" json:"alias,omitempty"`
	Status            string    `bun:"status,notnull,type:varchar(20),default:'pending'" json:"status"`
	WaJID             string    `bun:"wa_jid,type:varchar(100)" json:"wa_jid,omitempty"`
	QRCode            string    `bun:"qr_code,type:text" json:"qr_code,omitempty"`
	ProxyURL          string    `bun:"proxy_url,type:text" json:"proxy_url,omitempty"`
	PluginOverrides   string    `bun:"plugin_overrides,type:text" json:"plugin_overrides,omitempty"`
	ReconnectAttempts int       `bun:"reconnect_attempts,notnull,default:0" json:"reconnect_attempts"`
	CreatedAt         time.Time `bun:"created_at,notnull,default:current_timestamp,type:datetime" json:"created_at"`
	UpdatedAt         time.Time `bun:"updated_at,notnull,default:current_timestamp,type:datetime" json:"updated_at"`
}

// ToInstanceModel converts a domain Instance to its database model.
func ToInstanceModel(inst *instance.Instance) (*InstanceModel, error) {
	overridesJSON, err := json.Marshal(inst.PluginOverrides())
	if err != nil {
		return nil, err
	}
	return &InstanceModel{
		ID:                inst.ID().String(),
		Phone:             inst.Phone().String(),
		Name:              inst.Name().String(),
		Alias:             inst.Alias(),
		Status:            inst.Status().String(),
		WaJID:             inst.WaJID(),
		QRCode:            inst.QRCode(),
		ProxyURL:          inst.ProxyURL(),
		PluginOverrides:   string(overridesJSON),
		ReconnectAttempts: inst.ReconnectAttempts(),
		CreatedAt:         inst.CreatedAt(),
		UpdatedAt:         inst.UpdatedAt(),
	}, nil
}

// FromInstanceModel converts a database model back to a domain Instance.
func FromInstanceModel(model *InstanceModel) (*instance.Instance, error) {
	id, err := instance.IDFromString(model.ID)
	if err != nil {
		return nil, err
	}
	phone, err := instance.NewPhone(model.Phone)
	if err != nil {
		return nil, err
	}
	name, err := instance.NewName(model.Name)
	if err != nil {
		return nil, err
	}
	status, err := instance.StatusFromString(model.Status)
	if err != nil {
		return nil, err
	}

	overrides := make(instance.PluginOverrides)
	if model.PluginOverrides != "" {
		if err := json.Unmarshal([]byte(model.PluginOverrides), &overrides); err != nil {
			return nil, err
		}
	}

	return instance.Restore(
		id, phone, name, model.Alias, status,
		model.WaJID, model.QRCode, model.ProxyURL,
		overrides, model.ReconnectAttempts,
		model.CreatedAt, model.UpdatedAt,
	), nil
}
