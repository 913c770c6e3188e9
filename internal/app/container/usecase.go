package container

import (
	"fmt"

	"chatgateway/internal/infra/container"
	instanceUC "chatgateway/internal/usecases/instance"
	webhookUC "chatgateway/internal/usecases/webhook"
	"chatgateway/pkg/logger"
)

// useCaseContainer implements UseCaseContainer interface
type useCaseContainer struct {
	instanceUseCases InstanceUseCases
	webhookUseCases  WebhookUseCases
	logger           logger.Logger
	isInitialized    bool
}

// NewUseCaseContainer creates a new use case container
func NewUseCaseContainer(infraContainer *container.Container) (UseCaseContainer, error) {
	uc := &useCaseContainer{
		logger: infraContainer.Logger,
	}

	if err := uc.initialize(infraContainer); err != nil {
		return nil, fmt.Errorf("failed to initialize use case container: %w", err)
	}

	return uc, nil
}

// initialize sets up all use cases
func (uc *useCaseContainer) initialize(infraContainer *container.Container) error {
	log := infraContainer.Logger
	v := infraContainer.Validator
	manager := infraContainer.Manager

	uc.instanceUseCases = InstanceUseCases{
		Create:        instanceUC.NewCreateUseCase(manager, log, v),
		List:          instanceUC.NewListUseCase(manager, log),
		Get:           instanceUC.NewGetUseCase(manager, log),
		Update:        instanceUC.NewUpdateUseCase(manager, log, v),
		Delete:        instanceUC.NewDeleteUseCase(manager, log),
		Start:         instanceUC.NewStartUseCase(manager, log),
		Restart:       instanceUC.NewRestartUseCase(manager, log),
		SendText:      instanceUC.NewSendTextUseCase(manager, log, v),
		SendMedia:     instanceUC.NewSendMediaUseCase(manager, log, v),
		GroupMetadata: instanceUC.NewGroupMetadataUseCase(manager, log),
		Plugins:       instanceUC.NewPluginsUseCase(manager, log),
	}

	uc.webhookUseCases = WebhookUseCases{
		Subscriptions: webhookUC.NewSubscriptionUseCase(infraContainer.InstanceRepo, infraContainer.WebhookSubsRepo, log, v),
		History:       webhookUC.NewHistoryUseCase(infraContainer.InstanceRepo, infraContainer.WebhookHistRepo, log),
	}

	uc.isInitialized = true
	log.Info("use case container initialized successfully")
	return nil
}

// GetInstanceUseCases returns instance use cases
func (uc *useCaseContainer) GetInstanceUseCases() InstanceUseCases {
	return uc.instanceUseCases
}

// GetWebhookUseCases returns webhook use cases
func (uc *useCaseContainer) GetWebhookUseCases() WebhookUseCases {
	return uc.webhookUseCases
}
