package plan

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	perrors "github.com/bdwyertech/go-paludis/pkg/errors"
)

// DefaultPlanFileName is the plan file written when no path is configured
const DefaultPlanFileName = "resolution.plan.json"

// Manager handles plan file operations. Reads and writes hold a lock on a
// sibling .lock file so concurrent runs never see a half written plan.
type Manager struct {
	planPath string
}

// NewManager creates a manager for the default plan file in workDir
func NewManager(workDir string) *Manager {
	return &Manager{planPath: filepath.Join(workDir, DefaultPlanFileName)}
}

// NewManagerWithPath creates a manager for a plan file at a custom path
func NewManagerWithPath(planPath string) *Manager {
	return &Manager{planPath: planPath}
}

// GetPath returns the plan file path
func (m *Manager) GetPath() string {
	return m.planPath
}

func (m *Manager) lockPath() string {
	return m.planPath + ".lock"
}

func (m *Manager) fsError(message string, err error) error {
	return perrors.NewFileSystemError(message, err).WithContext("path", m.planPath)
}

// Exists checks if the plan file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.planPath)
	return err == nil
}

// Load reads and parses the plan file
func (m *Manager) Load() (*Plan, error) {
	if !m.Exists() {
		return nil, m.fsError("plan file does not exist", os.ErrNotExist)
	}

	lock := flock.New(m.lockPath())
	if err := lock.RLock(); err != nil {
		return nil, m.fsError("failed to lock plan file", err)
	}
	defer lock.Unlock()

	data, err := os.ReadFile(m.planPath)
	if err != nil {
		return nil, m.fsError("failed to read plan file", err)
	}

	p, err := FromJSON(data)
	if err != nil {
		return nil, perrors.NewSerialisationError("failed to parse plan file", err).WithContext("path", m.planPath)
	}

	return p, nil
}

// Save writes the plan file
func (m *Manager) Save(p *Plan) error {
	data, err := p.ToJSON()
	if err != nil {
		return perrors.NewSerialisationError("failed to serialize plan", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.planPath), 0755); err != nil {
		return m.fsError("failed to create plan directory", err)
	}

	lock := flock.New(m.lockPath())
	if err := lock.Lock(); err != nil {
		return m.fsError("failed to lock plan file", err)
	}
	defer lock.Unlock()

	tmp := m.planPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return m.fsError("failed to write plan file", err)
	}
	if err := os.Rename(tmp, m.planPath); err != nil {
		os.Remove(tmp)
		return m.fsError("failed to write plan file", err)
	}

	log.Debugf("Saved plan %s with %d jobs to %s", p.ID, p.JobCount(), m.planPath)
	return nil
}

// Remove deletes the plan file and its lock file
func (m *Manager) Remove() error {
	for _, path := range []string{m.planPath, m.lockPath()} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return perrors.NewFileSystemError("failed to remove plan file", err).WithContext("path", path)
		}
	}
	return nil
}

// IsOutdated reports whether the plan was made against repositories whose
// contents have since changed. A missing plan is always outdated.
func (m *Manager) IsOutdated(fingerprint string) (bool, error) {
	if !m.Exists() {
		return true, nil
	}

	p, err := m.Load()
	if err != nil {
		return true, err
	}

	return p.Fingerprint != fingerprint, nil
}

// Validate checks that the plan file is well formed
func (m *Manager) Validate() error {
	if !m.Exists() {
		return m.fsError("plan file does not exist", os.ErrNotExist)
	}

	p, err := m.Load()
	if err != nil {
		return err
	}

	if p.Revision != Revision {
		return perrors.NewValidationError(fmt.Sprintf("unsupported plan revision: %d (expected: %d)", p.Revision, Revision), nil)
	}
	if _, err := uuid.Parse(p.ID); err != nil {
		return perrors.NewValidationError(fmt.Sprintf("invalid plan id %q", p.ID), err)
	}
	if p.Jobs == nil {
		return perrors.NewValidationError(fmt.Sprintf("plan %s has no job lists", p.ID), nil)
	}
	if len(p.Targets) == 0 {
		return perrors.NewValidationError(fmt.Sprintf("plan %s has no targets", p.ID), nil)
	}

	return nil
}

// Backup copies the plan file alongside itself
func (m *Manager) Backup() error {
	if !m.Exists() {
		return m.fsError("no plan file to backup", os.ErrNotExist)
	}

	data, err := os.ReadFile(m.planPath)
	if err != nil {
		return m.fsError("failed to read plan file for backup", err)
	}
	if err := os.WriteFile(m.planPath+".backup", data, 0644); err != nil {
		return m.fsError("failed to write backup file", err)
	}

	return nil
}
