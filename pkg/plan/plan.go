// Package plan stores resolved job lists on disk so that a later run can show
// or execute them without resolving again.
package plan

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/bdwyertech/go-paludis/pkg/resolver"
)

// Revision is the current plan file format
const Revision = 1

// Plan is a saved resolution
type Plan struct {
	Revision     int                `json:"revision"`
	ID           string             `json:"id"`
	GeneratedAt  time.Time          `json:"generated_at"`
	Targets      []string           `json:"targets"`
	Repositories []string           `json:"repositories,omitempty"`
	Fingerprint  string             `json:"fingerprint,omitempty"`
	Jobs         *resolver.JobLists `json:"jobs"`
}

// New creates a plan for the job lists of a resolution
func New(targets []string, jobs *resolver.JobLists) *Plan {
	if jobs == nil {
		jobs = &resolver.JobLists{}
	}
	return &Plan{
		Revision:    Revision,
		ID:          uuid.Must(uuid.NewV7()).String(),
		GeneratedAt: time.Now(),
		Targets:     targets,
		Jobs:        jobs,
	}
}

// ToJSON serializes the plan
func (p *Plan) ToJSON() ([]byte, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(p); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

// FromJSON deserializes a plan
func FromJSON(data []byte) (*Plan, error) {
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// JobCount returns the number of pretend and execute jobs
func (p *Plan) JobCount() int {
	if p.Jobs == nil {
		return 0
	}
	return len(p.Jobs.PretendJobs) + len(p.Jobs.ExecuteJobs)
}

// Fingerprint hashes the contents of repository files, in order. A plan whose
// fingerprint differs from the current one was made against other repositories.
func Fingerprint(paths []string) (string, error) {
	h := xxhash.New()
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read repository %s: %w", path, err)
		}
		_, _ = h.WriteString(path)
		_, _ = h.Write([]byte{0})
		_, _ = h.Write(data)
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}
