package dto

import (
	"time"

	"chatgateway/internal/domain/instance"
	"chatgateway/internal/domain/transport"
)

// CreateInstanceRequest is the control API's instance-creation body (4.1, 6).
type CreateInstanceRequest struct {
	Phone string `json:"phone" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Alias string `json:"alias"`
}

// UpdateInstanceRequest patches name/alias/proxy fields; nil leaves a field
// untouched (4.1, supplemented proxy feature).
type UpdateInstanceRequest struct {
	Name     *string `json:"name,omitempty"`
	Alias    *string `json:"alias,omitempty"`
	ProxyURL *string `json:"proxy_url,omitempty"`
}

// DeleteInstanceRequest controls whether the persisted row survives removal
// of the live Runtime (4.2's soft-clean semantics).
type DeleteInstanceRequest struct {
	KeepRecord bool `json:"keep_record"`
}

// SendTextRequest is the control API's outbound text-message body (4.5).
type SendTextRequest struct {
	To   string `json:"to" validate:"required"`
	Text string `json:"text" validate:"required"`
}

// SendMediaRequest is the control API's outbound media-message body (4.5).
type SendMediaRequest struct {
	To       string `json:"to" validate:"required"`
	Type     string `json:"type" validate:"required"`
	URL      string `json:"url" validate:"required"`
	Caption  string `json:"caption"`
	Filename string `json:"filename"`
}

// SendResponse echoes back the ID the transport assigned an outbound message.
type SendResponse struct {
	MessageID string `json:"message_id"`
}

// GroupMetadataResponse wraps a transport.GroupMetadata snapshot for the
// control API (4.5 supplemented group operations).
type GroupMetadataResponse struct {
	Metadata *transport.GroupMetadata `json:"metadata"`
}

// PluginSetRequest enables/disables a single plugin override (4.3, 6).
type PluginSetRequest struct {
	Enabled bool `json:"enabled"`
}

// PluginBulkSetRequest replaces the full plugin override map in one call.
type PluginBulkSetRequest struct {
	Set map[string]bool `json:"set" validate:"required"`
}

// PluginStatusResponse reports the effective enabled/disabled state of every
// registered plugin against an instance's overrides (4.3).
type PluginStatusResponse struct {
	Status map[string]bool `json:"status"`
}

// InstanceResponse is the control API's representation of an Instance
// aggregate (4.1, 6) - it never leaks the aggregate's internal fields
// directly, only what the wire contract names.
type InstanceResponse struct {
	ID                string    `json:"id"`
	Phone             string    `json:"phone"`
	Name              string    `json:"name"`
	Alias             string    `json:"alias,omitempty"`
	Status            string    `json:"status"`
	WaJID             string    `json:"wa_jid,omitempty"`
	QRCode            string    `json:"qr_code,omitempty"`
	ProxyURL          string    `json:"proxy_url,omitempty"`
	HasProxy          bool      `json:"has_proxy"`
	PluginOverrides   map[string]bool `json:"plugin_overrides,omitempty"`
	ReconnectAttempts int       `json:"reconnect_attempts"`
	LastError         string    `json:"last_error,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// InstanceListResponse is the paginated instance-listing payload (4.1, 6).
type InstanceListResponse struct {
	Instances []*InstanceResponse `json:"instances"`
	Total     int                 `json:"total"`
}

// ToInstanceResponse converts a domain Instance into its wire representation.
func ToInstanceResponse(inst *instance.Instance) *InstanceResponse {
	if inst == nil {
		return nil
	}
	return &InstanceResponse{
		ID:                inst.ID().String(),
		Phone:             inst.Phone().String(),
		Name:              inst.Name().String(),
		Alias:             inst.Alias(),
		Status:            inst.Status().String(),
		WaJID:             inst.WaJID(),
		QRCode:            inst.QRCode(),
		ProxyURL:          inst.ProxyURL(),
		HasProxy:          inst.HasProxy(),
		PluginOverrides:   inst.PluginOverrides(),
		ReconnectAttempts: inst.ReconnectAttempts(),
		LastError:         inst.LastError(),
		CreatedAt:         inst.CreatedAt(),
		UpdatedAt:         inst.UpdatedAt(),
	}
}

// ToInstanceListResponse converts a page of domain Instances into their wire
// representation alongside the total row count.
func ToInstanceListResponse(insts []*instance.Instance, total int) *InstanceListResponse {
	out := make([]*InstanceResponse, len(insts))
	for i, inst := range insts {
		out[i] = ToInstanceResponse(inst)
	}
	return &InstanceListResponse{Instances: out, Total: total}
}
