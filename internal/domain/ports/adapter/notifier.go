// File: internal/domain/ports/adapter/notifier.go
package adapter

import "context"

// Notifier pushes operator-facing alerts outside the dashboard.
type Notifier interface {
	NotifyNewJobs(ctx context.Context, count int) error
}
