package dto

import (
	"encoding/json"
	"net/http"
	"time"
)

// writeJSON writes a status code and JSON body to the response writer.
func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// WriteSuccess writes the control API's standard success envelope (6).
func WriteSuccess(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	writeJSON(w, statusCode, NewSuccessResponse(message, data))
}

// SuccessResponse is the control API's standard success envelope (6).
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the control API's standard error envelope (6, 7).
type ErrorResponse struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details string                 `json:"details,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// PaginationRequest is the standard limit/offset query shape used across
// every listing endpoint (6).
type PaginationRequest struct {
	Limit  int `json:"limit" query:"limit" validate:"min=1,max=100"`
	Offset int `json:"offset" query:"offset" validate:"min=0"`
}

// PaginationResponse carries the pagination metadata back alongside a list.
type PaginationResponse struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Pages  int `json:"pages"`
}

// HealthResponse is the control API's health-check payload (6).
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Services  map[string]interface{} `json:"services"`
}

// ServiceHealth reports the status of one infrastructure dependency.
type ServiceHealth struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// MetricsResponse is the control API's aggregate metrics payload (6).
type MetricsResponse struct {
	Instances InstanceMetrics `json:"instances"`
	Webhooks  WebhookMetrics  `json:"webhooks"`
	System    SystemMetrics   `json:"system"`
	Timestamp time.Time       `json:"timestamp"`
}

// InstanceMetrics summarises instance counts by connection state (4.2).
type InstanceMetrics struct {
	Total         int `json:"total"`
	Active        int `json:"active"`
	Connecting    int `json:"connecting"`
	Reconnecting  int `json:"reconnecting"`
	Inactive      int `json:"inactive"`
	Error         int `json:"error"`
	LoggedOut     int `json:"logged_out"`
}

// WebhookMetrics summarises delivery outcomes (4.4).
type WebhookMetrics struct {
	TotalSubscriptions int `json:"total_subscriptions"`
	DeliveredToday     int `json:"delivered_today"`
	FailedToday        int `json:"failed_today"`
}

// SystemMetrics reports process-level health signals.
type SystemMetrics struct {
	Uptime              string `json:"uptime"`
	DatabaseStatus      string `json:"database_status"`
	DatabaseConnections int    `json:"database_connections"`
}

func NewSuccessResponse(message string, data interface{}) *SuccessResponse {
	return &SuccessResponse{Success: true, Message: message, Data: data}
}

func NewErrorResponse(errMsg, code, details string) *ErrorResponse {
	return &ErrorResponse{Success: false, Error: errMsg, Code: code, Details: details}
}

func NewErrorResponseWithContext(errMsg, code, details string, context map[string]interface{}) *ErrorResponse {
	return &ErrorResponse{Success: false, Error: errMsg, Code: code, Details: details, Context: context}
}

func (p *PaginationResponse) CalculatePages() {
	if p.Limit > 0 {
		p.Pages = (p.Total + p.Limit - 1) / p.Limit
	}
}

func NewPaginationResponse(total, limit, offset int) *PaginationResponse {
	pagination := &PaginationResponse{Total: total, Limit: limit, Offset: offset}
	pagination.CalculatePages()
	return pagination
}
