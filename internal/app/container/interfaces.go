package container

import (
	"context"

	"chatgateway/internal/http/server"
	"chatgateway/internal/infra/config"
	instanceUC "chatgateway/internal/usecases/instance"
	webhookUC "chatgateway/internal/usecases/webhook"
	"chatgateway/pkg/logger"
)

// Container defines the interface for application containers
type Container interface {
	GetLogger() logger.Logger
	GetConfig() *config.Config
	Health() error
	Close() error
	IsInitialized() bool
}

// UseCaseContainer defines the interface for use case management
type UseCaseContainer interface {
	GetInstanceUseCases() InstanceUseCases
	GetWebhookUseCases() WebhookUseCases
}

// HTTPContainer defines the interface for HTTP layer management
type HTTPContainer interface {
	GetServerManager() *server.ServerManager
	GetServerInfo() server.ServerInfo
	StartServer(ctx context.Context) error
}

// InstanceUseCases groups every instance-scoped control-API use case (4.1-4.3, 6).
type InstanceUseCases struct {
	Create        *instanceUC.CreateUseCase
	List          *instanceUC.ListUseCase
	Get           *instanceUC.GetUseCase
	Update        *instanceUC.UpdateUseCase
	Delete        *instanceUC.DeleteUseCase
	Start         *instanceUC.StartUseCase
	Restart       *instanceUC.RestartUseCase
	SendText      *instanceUC.SendTextUseCase
	SendMedia     *instanceUC.SendMediaUseCase
	GroupMetadata *instanceUC.GroupMetadataUseCase
	Plugins       *instanceUC.PluginsUseCase
}

// WebhookUseCases groups the webhook subscription and history use cases (3, 4.4, 4.5, 6).
type WebhookUseCases struct {
	Subscriptions *webhookUC.SubscriptionUseCase
	History       *webhookUC.HistoryUseCase
}
