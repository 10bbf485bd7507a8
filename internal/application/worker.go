package application

import "context"

// Worker is a long-running background loop. Start blocks until ctx is canceled.
type Worker interface {
	Start(ctx context.Context)
}
