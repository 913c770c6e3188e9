package webhook

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("webhook subscription not found")
	ErrHistoryNotFound      = errors.New("webhook history record not found")
)
