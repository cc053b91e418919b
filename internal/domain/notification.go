package domain

import "context"

// NotificationService defines the interface for notification services
type NotificationService interface {
	// SendSuccess sends a success notification with the run summary
	SendSuccess(ctx context.Context, summary *RunSummary) error

	// SendError sends an error notification with error details
	SendError(ctx context.Context, err error) error
}
