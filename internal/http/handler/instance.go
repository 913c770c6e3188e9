package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chatgateway/internal/http/dto"
	instanceUC "chatgateway/internal/usecases/instance"
	"chatgateway/pkg/logger"
	"chatgateway/pkg/validator"
)

// InstanceHandler handles instance-related HTTP requests (4.1-4.3, 4.5, 6).
type InstanceHandler struct {
	createUC        *instanceUC.CreateUseCase
	listUC          *instanceUC.ListUseCase
	getUC           *instanceUC.GetUseCase
	updateUC        *instanceUC.UpdateUseCase
	deleteUC        *instanceUC.DeleteUseCase
	startUC         *instanceUC.StartUseCase
	restartUC       *instanceUC.RestartUseCase
	sendTextUC      *instanceUC.SendTextUseCase
	sendMediaUC     *instanceUC.SendMediaUseCase
	groupMetadataUC *instanceUC.GroupMetadataUseCase
	pluginsUC       *instanceUC.PluginsUseCase

	logger    logger.Logger
	validator validator.Validator
}

// NewInstanceHandler creates a new instance handler.
func NewInstanceHandler(
	createUC *instanceUC.CreateUseCase,
	listUC *instanceUC.ListUseCase,
	getUC *instanceUC.GetUseCase,
	updateUC *instanceUC.UpdateUseCase,
	deleteUC *instanceUC.DeleteUseCase,
	startUC *instanceUC.StartUseCase,
	restartUC *instanceUC.RestartUseCase,
	sendTextUC *instanceUC.SendTextUseCase,
	sendMediaUC *instanceUC.SendMediaUseCase,
	groupMetadataUC *instanceUC.GroupMetadataUseCase,
	pluginsUC *instanceUC.PluginsUseCase,
	logger logger.Logger,
	validator validator.Validator,
) *InstanceHandler {
	return &InstanceHandler{
		createUC:        createUC,
		listUC:          listUC,
		getUC:           getUC,
		updateUC:        updateUC,
		deleteUC:        deleteUC,
		startUC:         startUC,
		restartUC:       restartUC,
		sendTextUC:      sendTextUC,
		sendMediaUC:     sendMediaUC,
		groupMetadataUC: groupMetadataUC,
		pluginsUC:       pluginsUC,
		logger:          logger,
		validator:       validator,
	}
}

// CreateInstance handles POST /instances
func (h *InstanceHandler) CreateInstance(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateInstanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.WriteError(w, err)
		return
	}

	result, err := h.createUC.Execute(r.Context(), instanceUC.CreateRequest{
		Phone: req.Phone,
		Name:  req.Name,
		Alias: req.Alias,
	})
	if err != nil {
		dto.WriteError(w, err)
		return
	}

	dto.WriteSuccess(w, http.StatusCreated, "instance created", dto.ToInstanceResponse(result.Instance))
}

// ListInstances handles GET /instances
func (h *InstanceHandler) ListInstances(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	result, err := h.listUC.Execute(r.Context(), instanceUC.ListRequest{Limit: limit, Offset: offset})
	if err != nil {
		dto.WriteError(w, err)
		return
	}

	dto.WriteSuccess(w, http.StatusOK, "instances retrieved", dto.ToInstanceListResponse(result.Instances, result.Total))
}

// GetInstance handles GET /instances/{phone}
func (h *InstanceHandler) GetInstance(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	result, err := h.getUC.Execute(r.Context(), instanceUC.GetRequest{Phone: phone})
	if err != nil {
		dto.WriteError(w, err)
		return
	}

	dto.WriteSuccess(w, http.StatusOK, "instance retrieved", dto.ToInstanceResponse(result.Instance))
}

// UpdateInstance handles PATCH /instances/{phone}
func (h *InstanceHandler) UpdateInstance(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	var req dto.UpdateInstanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.WriteError(w, err)
		return
	}

	result, err := h.updateUC.Execute(r.Context(), instanceUC.UpdateRequest{
		Phone:    phone,
		Name:     req.Name,
		Alias:    req.Alias,
		ProxyURL: req.ProxyURL,
	})
	if err != nil {
		dto.WriteError(w, err)
		return
	}

	dto.WriteSuccess(w, http.StatusOK, "instance updated", dto.ToInstanceResponse(result.Instance))
}

// DeleteInstance handles DELETE /instances/{phone}
func (h *InstanceHandler) DeleteInstance(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	var req dto.DeleteInstanceRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.deleteUC.Execute(r.Context(), instanceUC.DeleteRequest{Phone: phone, KeepRecord: req.KeepRecord}); err != nil {
		dto.WriteError(w, err)
		return
	}

	dto.WriteSuccess(w, http.StatusOK, "instance deleted", nil)
}

// StartInstance handles POST /instances/{phone}/start
func (h *InstanceHandler) StartInstance(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	if err := h.startUC.Execute(r.Context(), instanceUC.StartRequest{Phone: phone}); err != nil {
		dto.WriteError(w, err)
		return
	}

	dto.WriteSuccess(w, http.StatusOK, "instance starting", nil)
}

// RestartInstance handles POST /instances/{phone}/restart
func (h *InstanceHandler) RestartInstance(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	if err := h.restartUC.Execute(r.Context(), instanceUC.RestartRequest{Phone: phone}); err != nil {
		dto.WriteError(w, err)
		return
	}

	dto.WriteSuccess(w, http.StatusOK, "instance restarted", nil)
}

// SendText handles POST /instances/{phone}/messages/text
func (h *InstanceHandler) SendText(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	var req dto.SendTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.WriteError(w, err)
		return
	}

	result, err := h.sendTextUC.Execute(r.Context(), instanceUC.SendTextRequest{Phone: phone, To: req.To, Text: req.Text})
	if err != nil {
		dto.WriteError(w, err)
		return
	}

	dto.WriteSuccess(w, http.StatusOK, "message sent", &dto.SendResponse{MessageID: result.MessageID})
}

// SendMedia handles POST /instances/{phone}/messages/media
func (h *InstanceHandler) SendMedia(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	var req dto.SendMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.WriteError(w, err)
		return
	}

	result, err := h.sendMediaUC.Execute(r.Context(), instanceUC.SendMediaRequest{
		Phone:    phone,
		To:       req.To,
		Type:     req.Type,
		URL:      req.URL,
		Caption:  req.Caption,
		Filename: req.Filename,
	})
	if err != nil {
		dto.WriteError(w, err)
		return
	}

	dto.WriteSuccess(w, http.StatusOK, "media sent", &dto.SendResponse{MessageID: result.MessageID})
}

// GroupMetadata handles GET /instances/{phone}/groups/{groupJID}
func (h *InstanceHandler) GroupMetadata(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")
	groupJID := chi.URLParam(r, "groupJID")

	result, err := h.groupMetadataUC.Execute(r.Context(), instanceUC.GroupMetadataRequest{Phone: phone, GroupJID: groupJID})
	if err != nil {
		dto.WriteError(w, err)
		return
	}

	dto.WriteSuccess(w, http.StatusOK, "group metadata retrieved", &dto.GroupMetadataResponse{Metadata: result.Metadata})
}

// PluginStatus handles GET /instances/{phone}/plugins
func (h *InstanceHandler) PluginStatus(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	result, err := h.pluginsUC.Status(r.Context(), instanceUC.PluginStatusRequest{Phone: phone})
	if err != nil {
		dto.WriteError(w, err)
		return
	}

	dto.WriteSuccess(w, http.StatusOK, "plugin status retrieved", &dto.PluginStatusResponse{Status: result.Status})
}

// SetPlugin handles POST /instances/{phone}/plugins/{plugin}
func (h *InstanceHandler) SetPlugin(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")
	plugin := chi.URLParam(r, "plugin")

	var req dto.PluginSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.WriteError(w, err)
		return
	}

	if err := h.pluginsUC.Set(r.Context(), instanceUC.PluginSetRequest{Phone: phone, Plugin: plugin, Enabled: req.Enabled}); err != nil {
		dto.WriteError(w, err)
		return
	}

	dto.WriteSuccess(w, http.StatusOK, "plugin updated", nil)
}

// BulkSetPlugins handles POST /instances/{phone}/plugins
func (h *InstanceHandler) BulkSetPlugins(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	var req dto.PluginBulkSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		dto.WriteError(w, err)
		return
	}

	if err := h.pluginsUC.BulkSet(r.Context(), instanceUC.PluginBulkSetRequest{Phone: phone, Set: req.Set}); err != nil {
		dto.WriteError(w, err)
		return
	}

	dto.WriteSuccess(w, http.StatusOK, "plugins updated", nil)
}

// SyncPlugins handles POST /instances/{phone}/plugins/sync
func (h *InstanceHandler) SyncPlugins(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	if err := h.pluginsUC.Sync(r.Context(), instanceUC.PluginSyncRequest{Phone: phone}); err != nil {
		dto.WriteError(w, err)
		return
	}

	dto.WriteSuccess(w, http.StatusOK, "plugins synced", nil)
}

// parsePagination reads limit/offset query parameters, leaving zero values
// for the use case to apply its own defaults.
func parsePagination(r *http.Request) (limit, offset int) {
	if v := r.URL.Query().Get("limit"); v != "" {
		limit = atoiOrZero(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset = atoiOrZero(v)
	}
	return limit, offset
}

func atoiOrZero(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}
