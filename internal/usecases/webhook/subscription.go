// Package webhook implements the control API's webhook subscription and
// delivery-history operations (3, 4.4, 4.5, 6).
package webhook

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"chatgateway/internal/domain/instance"
	"chatgateway/internal/domain/webhook"
	"chatgateway/pkg/logger"
	"chatgateway/pkg/validator"
)

// subscribableEvents are the wire-format event names a subscription may
// target (spec §6's connection.update/message.received/message.sent), plus
// "*" which domain/webhook.Subscription.Matches treats as a catch-all.
var subscribableEvents = []interface{}{"*", "connection.update", "message.received", "message.sent"}

// validateSubscriptionFields checks the domain rules struct tags can't
// express cleanly on an Update request's optional pointer fields: event
// must be a known wire event, target_url must actually be a URL. ozzo
// dereferences non-nil pointers automatically and skips nil ones, so the
// same rules serve both the always-present Create fields and Update's
// optional ones.
func validateSubscriptionFields(event *string, targetURL *string, eventRequired bool) error {
	eventRules := []validation.Rule{validation.In(subscribableEvents...)}
	urlRules := []validation.Rule{is.URL}
	if eventRequired {
		eventRules = append([]validation.Rule{validation.Required}, eventRules...)
		urlRules = append([]validation.Rule{validation.Required}, urlRules...)
	}
	return validation.Errors{
		"event":      validation.Validate(event, eventRules...),
		"target_url": validation.Validate(targetURL, urlRules...),
	}.Filter()
}

// SubscriptionUseCase manages webhook subscription CRUD for an instance.
type SubscriptionUseCase struct {
	instances instance.Repository
	subs      webhook.SubscriptionRepository
	logger    logger.Logger
	validator validator.Validator
}

func NewSubscriptionUseCase(instances instance.Repository, subs webhook.SubscriptionRepository, log logger.Logger, v validator.Validator) *SubscriptionUseCase {
	return &SubscriptionUseCase{instances: instances, subs: subs, logger: log, validator: v}
}

type CreateSubscriptionRequest struct {
	Phone     string `json:"phone" validate:"required"`
	Type      string `json:"type" validate:"required"`
	Event     string `json:"event" validate:"required"`
	TargetURL string `json:"target_url" validate:"required,url"`
	Enabled   bool   `json:"enabled"`
}

type SubscriptionResponse struct {
	Subscription *webhook.Subscription `json:"subscription"`
}

func (uc *SubscriptionUseCase) Create(ctx context.Context, req CreateSubscriptionRequest) (*SubscriptionResponse, error) {
	if err := uc.validator.Validate(req); err != nil {
		uc.logger.ErrorWithError("validation failed for create webhook subscription", err, logger.Fields{"phone": req.Phone})
		return nil, err
	}
	if err := validateSubscriptionFields(&req.Event, &req.TargetURL, true); err != nil {
		uc.logger.ErrorWithError("validation failed for create webhook subscription", err, logger.Fields{"phone": req.Phone})
		return nil, err
	}

	phone, err := instance.NewPhone(req.Phone)
	if err != nil {
		return nil, err
	}
	inst, err := uc.instances.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	sub := webhook.NewSubscription(inst.ID().String(), req.Type, req.Event, req.TargetURL, req.Enabled)
	if err := uc.subs.Create(ctx, sub); err != nil {
		uc.logger.ErrorWithError("failed to create webhook subscription", err, logger.Fields{"phone": req.Phone})
		return nil, err
	}

	uc.logger.InfoWithFields("webhook subscription created", logger.Fields{"subscription_id": sub.ID(), "instance_id": inst.ID().String(), "event": req.Event})
	return &SubscriptionResponse{Subscription: sub}, nil
}

type ListSubscriptionsRequest struct {
	Phone string `json:"phone" validate:"required"`
}

type ListSubscriptionsResponse struct {
	Subscriptions []*webhook.Subscription `json:"subscriptions"`
}

func (uc *SubscriptionUseCase) List(ctx context.Context, req ListSubscriptionsRequest) (*ListSubscriptionsResponse, error) {
	phone, err := instance.NewPhone(req.Phone)
	if err != nil {
		return nil, err
	}
	inst, err := uc.instances.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	subs, err := uc.subs.ListByInstance(ctx, inst.ID().String())
	if err != nil {
		uc.logger.ErrorWithError("failed to list webhook subscriptions", err, logger.Fields{"phone": req.Phone})
		return nil, err
	}
	return &ListSubscriptionsResponse{Subscriptions: subs}, nil
}

type UpdateSubscriptionRequest struct {
	ID        string  `json:"id" validate:"required"`
	Event     *string `json:"event,omitempty"`
	TargetURL *string `json:"target_url,omitempty"`
	Enabled   *bool   `json:"enabled,omitempty"`
}

func (uc *SubscriptionUseCase) Update(ctx context.Context, req UpdateSubscriptionRequest) (*SubscriptionResponse, error) {
	if err := validateSubscriptionFields(req.Event, req.TargetURL, false); err != nil {
		uc.logger.ErrorWithError("validation failed for update webhook subscription", err, logger.Fields{"subscription_id": req.ID})
		return nil, err
	}

	sub, err := uc.subs.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	sub.Update(req.Event, req.TargetURL, req.Enabled)
	if err := uc.subs.Update(ctx, sub); err != nil {
		uc.logger.ErrorWithError("failed to update webhook subscription", err, logger.Fields{"subscription_id": req.ID})
		return nil, err
	}
	uc.logger.InfoWithFields("webhook subscription updated", logger.Fields{"subscription_id": req.ID})
	return &SubscriptionResponse{Subscription: sub}, nil
}

type DeleteSubscriptionRequest struct {
	ID string `json:"id" validate:"required"`
}

func (uc *SubscriptionUseCase) Delete(ctx context.Context, req DeleteSubscriptionRequest) error {
	if err := uc.subs.Delete(ctx, req.ID); err != nil {
		uc.logger.ErrorWithError("failed to delete webhook subscription", err, logger.Fields{"subscription_id": req.ID})
		return err
	}
	uc.logger.InfoWithFields("webhook subscription deleted", logger.Fields{"subscription_id": req.ID})
	return nil
}
