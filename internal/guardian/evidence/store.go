package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/autopeer-io/guardian/internal/guardian/core"
	"github.com/autopeer-io/guardian/internal/guardian/core/model"
	"github.com/autopeer-io/guardian/pkg/log"
)

var _ core.EvidenceWriter = (*FileStore)(nil)

// FileStore writes evidence and emergency landing logs as indented JSON
// files. When a mirror is configured every written file is also uploaded;
// upload failures are logged and do not fail the write.
type FileStore struct {
	evidenceDir string
	logDir      string
	mirror      core.ObjectStore
	logger      log.Logger
}

// NewFileStore creates a store writing jamming evidence to evidenceDir and
// emergency logs to logDir. mirror may be nil.
func NewFileStore(evidenceDir, logDir string, mirror core.ObjectStore, logger log.Logger) *FileStore {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &FileStore{evidenceDir: evidenceDir, logDir: logDir, mirror: mirror, logger: logger}
}

// WriteJammingEvidence writes <evidenceDir>/jamming_evidence_<unix>.json.
func (s *FileStore) WriteJammingEvidence(ctx context.Context, ev model.JammingEvidence) (string, error) {
	name := fmt.Sprintf("jamming_evidence_%d.json", ev.Event.Timestamp.Unix())
	return s.write(ctx, s.evidenceDir, "evidence", name, ev)
}

// WriteEmergencyLanding writes <logDir>/emergency_<unit>_<unix>.json.
func (s *FileStore) WriteEmergencyLanding(ctx context.Context, rec model.EmergencyLanding) (string, error) {
	name := fmt.Sprintf("emergency_%s_%d.json", rec.UnitID, rec.Timestamp.Unix())
	return s.write(ctx, s.logDir, "logs", name, rec)
}

func (s *FileStore) write(ctx context.Context, dir, prefix, name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, name)
	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}

	if s.mirror != nil {
		object := prefix + "/" + name
		if err := s.mirror.PutFile(ctx, object, path, "application/json"); err != nil {
			s.logger.Error(err, "Failed to mirror record", "path", path, "object", object)
		}
	}
	return path, nil
}

// writeFileAtomic writes data next to path and renames it into place so a
// reader never sees a partial record.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
