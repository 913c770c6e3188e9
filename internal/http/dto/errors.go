package dto

import (
	"errors"
	"net/http"

	"chatgateway/internal/domain/instance"
	"chatgateway/internal/domain/message"
	"chatgateway/internal/domain/webhook"
	"chatgateway/pkg/apperr"
	"chatgateway/pkg/validator"
)

// MapError maps a domain or validator error to the control API's taxonomy-
// bearing *apperr.Error (7), for a single point of HTTP status/body
// translation across every handler.
func MapError(err error) *apperr.Error {
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case instance.IsNotFoundError(err):
		return apperr.NewNotFound("instance")
	case instance.IsAlreadyExistsError(err):
		return apperr.NewAlreadyExists("instance")
	case instance.IsNotConnectedError(err):
		return apperr.NewNotConnected("")
	}

	switch {
	case errors.Is(err, instance.ErrInvalidPhone),
		errors.Is(err, instance.ErrInvalidName),
		errors.Is(err, instance.ErrInvalidInstanceID),
		errors.Is(err, instance.ErrInvalidProxyURL),
		errors.Is(err, instance.ErrUnsupportedProxyScheme),
		errors.Is(err, instance.ErrInvalidProxyHost),
		errors.Is(err, instance.ErrInvalidStatus),
		errors.Is(err, instance.ErrInvalidTransition):
		return apperr.NewBadInput(err.Error())
	case errors.Is(err, message.ErrMessageNotFound):
		return apperr.NewNotFound("message")
	case errors.Is(err, webhook.ErrSubscriptionNotFound):
		return apperr.NewNotFound("webhook subscription")
	case errors.Is(err, webhook.ErrHistoryNotFound):
		return apperr.NewNotFound("webhook history record")
	}

	if _, ok := err.(validator.ValidationErrors); ok {
		return apperr.NewBadInput(err.Error())
	}
	if _, ok := err.(validator.ValidationError); ok {
		return apperr.NewBadInput(err.Error())
	}

	return apperr.WrapInternal(err, "internal server error")
}

// WriteError writes a mapped error as the control API's standard error
// envelope (6).
func WriteError(w http.ResponseWriter, err error) {
	appErr := MapError(err)
	writeJSON(w, appErr.HTTPStatusCode(), NewErrorResponseWithContext(appErr.Message, appErr.Code, appErr.Details, appErr.Context))
}
