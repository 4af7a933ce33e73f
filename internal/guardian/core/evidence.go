package core

import (
	"context"

	"github.com/autopeer-io/guardian/internal/guardian/core/model"
)

// EvidenceWriter persists anomaly records. Implementations return the
// location of the written record.
type EvidenceWriter interface {
	WriteJammingEvidence(ctx context.Context, ev model.JammingEvidence) (string, error)
	WriteEmergencyLanding(ctx context.Context, rec model.EmergencyLanding) (string, error)
}

// ObjectStore mirrors persisted records to remote storage.
type ObjectStore interface {
	PutFile(ctx context.Context, objectName, filePath, contentType string) error
}
