package storage

import (
	"context"

	"github.com/autopeer-io/guardian/internal/guardian/core"
)

// Provider is the remote archive for evidence and emergency logs.
type Provider interface {
	core.ObjectStore

	// CheckBucket ensures the bucket exists, creating it when missing.
	CheckBucket(ctx context.Context) error
}
