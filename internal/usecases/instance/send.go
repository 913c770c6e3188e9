package instance

import (
	"context"

	"chatgateway/internal/core"
	"chatgateway/internal/domain/instance"
	"chatgateway/internal/domain/transport"
	"chatgateway/pkg/logger"
	"chatgateway/pkg/validator"
)

// SendTextUseCase sends an outbound text message through the owning
// instance's transport (4.1, 4.5 outbound pipeline).
type SendTextUseCase struct {
	manager   *core.Manager
	logger    logger.Logger
	validator validator.Validator
}

func NewSendTextUseCase(manager *core.Manager, log logger.Logger, v validator.Validator) *SendTextUseCase {
	return &SendTextUseCase{manager: manager, logger: log, validator: v}
}

type SendTextRequest struct {
	Phone string `json:"phone" validate:"required"`
	To    string `json:"to" validate:"required"`
	Text  string `json:"text" validate:"required"`
}

type SendResponse struct {
	MessageID string `json:"message_id"`
}

func (uc *SendTextUseCase) Execute(ctx context.Context, req SendTextRequest) (*SendResponse, error) {
	if err := uc.validator.Validate(req); err != nil {
		uc.logger.ErrorWithError("validation failed for send text", err, logger.Fields{"phone": req.Phone, "to": req.To})
		return nil, err
	}

	phone, err := instance.NewPhone(req.Phone)
	if err != nil {
		return nil, err
	}

	result, err := uc.manager.SendText(ctx, phone, req.To, req.Text)
	if err != nil {
		uc.logger.ErrorWithError("failed to send text message", err, logger.Fields{"phone": req.Phone, "to": req.To})
		return nil, err
	}

	uc.logger.InfoWithFields("text message sent", logger.Fields{
		"phone":      req.Phone,
		"to":         req.To,
		"message_id": result.MessageID,
	})
	return &SendResponse{MessageID: result.MessageID}, nil
}

// SendMediaUseCase sends an outbound media message (image/video/audio/
// document) through the owning instance's transport.
type SendMediaUseCase struct {
	manager   *core.Manager
	logger    logger.Logger
	validator validator.Validator
}

func NewSendMediaUseCase(manager *core.Manager, log logger.Logger, v validator.Validator) *SendMediaUseCase {
	return &SendMediaUseCase{manager: manager, logger: log, validator: v}
}

type SendMediaRequest struct {
	Phone    string `json:"phone" validate:"required"`
	To       string `json:"to" validate:"required"`
	Type     string `json:"type" validate:"required"`
	URL      string `json:"url" validate:"required"`
	Caption  string `json:"caption"`
	Filename string `json:"filename"`
}

func (uc *SendMediaUseCase) Execute(ctx context.Context, req SendMediaRequest) (*SendResponse, error) {
	if err := uc.validator.Validate(req); err != nil {
		uc.logger.ErrorWithError("validation failed for send media", err, logger.Fields{"phone": req.Phone, "to": req.To})
		return nil, err
	}

	phone, err := instance.NewPhone(req.Phone)
	if err != nil {
		return nil, err
	}

	media := transport.Media{
		Type:     req.Type,
		URL:      req.URL,
		Caption:  req.Caption,
		Filename: req.Filename,
	}

	result, err := uc.manager.SendMedia(ctx, phone, req.To, media)
	if err != nil {
		uc.logger.ErrorWithError("failed to send media message", err, logger.Fields{"phone": req.Phone, "to": req.To, "type": req.Type})
		return nil, err
	}

	uc.logger.InfoWithFields("media message sent", logger.Fields{
		"phone":      req.Phone,
		"to":         req.To,
		"type":       req.Type,
		"message_id": result.MessageID,
	})
	return &SendResponse{MessageID: result.MessageID}, nil
}

// GroupMetadataUseCase queries the live transport for group metadata.
type GroupMetadataUseCase struct {
	manager *core.Manager
	logger  logger.Logger
}

func NewGroupMetadataUseCase(manager *core.Manager, log logger.Logger) *GroupMetadataUseCase {
	return &GroupMetadataUseCase{manager: manager, logger: log}
}

type GroupMetadataRequest struct {
	Phone    string `json:"phone" validate:"required"`
	GroupJID string `json:"group_jid" validate:"required"`
}

type GroupMetadataResponse struct {
	Metadata *transport.GroupMetadata `json:"metadata"`
}

func (uc *GroupMetadataUseCase) Execute(ctx context.Context, req GroupMetadataRequest) (*GroupMetadataResponse, error) {
	phone, err := instance.NewPhone(req.Phone)
	if err != nil {
		return nil, err
	}
	metadata, err := uc.manager.GroupMetadata(ctx, phone, req.GroupJID)
	if err != nil {
		uc.logger.ErrorWithError("failed to query group metadata", err, logger.Fields{"phone": req.Phone, "group_jid": req.GroupJID})
		return nil, err
	}
	return &GroupMetadataResponse{Metadata: metadata}, nil
}
