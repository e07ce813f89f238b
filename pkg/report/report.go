// Package report turns a resolution into something a person can read: tables,
// JSON, YAML or a template rendered summary.
package report

import (
	"fmt"
	"strings"

	"github.com/bdwyertech/go-paludis/pkg/resolver"
)

// Report is a display friendly copy of a resolution
type Report struct {
	PlanID  string   `json:"plan_id,omitempty" yaml:"plan_id,omitempty"`
	Targets []string `json:"targets" yaml:"targets"`

	Changes       []Entry `json:"changes" yaml:"changes"`
	UnableToMake  []Entry `json:"unable_to_make,omitempty" yaml:"unable_to_make,omitempty"`
	Unconfirmed   []Entry `json:"unconfirmed,omitempty" yaml:"unconfirmed,omitempty"`
	Unorderable   []Entry `json:"unorderable,omitempty" yaml:"unorderable,omitempty"`
	Untaken       []Entry `json:"untaken,omitempty" yaml:"untaken,omitempty"`
	UntakenUnable []Entry `json:"untaken_unable_to_make,omitempty" yaml:"untaken_unable_to_make,omitempty"`

	CycleBreaks []CycleBreakEntry `json:"cycle_breaks,omitempty" yaml:"cycle_breaks,omitempty"`
	PretendJobs []JobEntry        `json:"pretend_jobs" yaml:"pretend_jobs"`
	ExecuteJobs []JobEntry        `json:"execute_jobs" yaml:"execute_jobs"`
}

// Entry describes one decided resolvent
type Entry struct {
	Resolvent     string   `json:"resolvent" yaml:"resolvent"`
	Decision      string   `json:"decision" yaml:"decision"`
	Reasons       []string `json:"reasons,omitempty" yaml:"reasons,omitempty"`
	Confirmations []string `json:"confirmations,omitempty" yaml:"confirmations,omitempty"`
	Unsuitable    []string `json:"unsuitable,omitempty" yaml:"unsuitable,omitempty"`
}

// CycleBreakEntry describes a requirement dropped while ordering
type CycleBreakEntry struct {
	Requirer   string `json:"requirer" yaml:"requirer"`
	Required   string `json:"required" yaml:"required"`
	Properties string `json:"properties" yaml:"properties"`
}

// JobEntry describes one job. Requires holds "number (conditions)" pairs.
type JobEntry struct {
	Number   int      `json:"number" yaml:"number"`
	Job      string   `json:"job" yaml:"job"`
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty"`
	State    string   `json:"state,omitempty" yaml:"state,omitempty"`
}

// Build copies what is worth showing out of a resolution
func Build(targets []string, resolved *resolver.Resolved) *Report {
	r := &Report{
		Targets:       targets,
		Changes:       entries(resolved.TakenChangeOrRemoveDecisions),
		UnableToMake:  entries(resolved.TakenUnableToMakeDecisions),
		Unconfirmed:   entries(resolved.TakenUnconfirmedDecisions),
		Unorderable:   entries(resolved.TakenUnorderableDecisions),
		Untaken:       entries(resolved.UntakenChangeOrRemoveDecisions),
		UntakenUnable: entries(resolved.UntakenUnableToMakeDecisions),
		PretendJobs:   []JobEntry{},
		ExecuteJobs:   []JobEntry{},
	}

	for _, cb := range resolved.CycleBreaks {
		r.CycleBreaks = append(r.CycleBreaks, CycleBreakEntry{
			Requirer:   cb.Requirer.String(),
			Required:   cb.Required.String(),
			Properties: cb.Properties.String(),
		})
	}
	for i, j := range resolved.PretendJobs {
		r.PretendJobs = append(r.PretendJobs, JobEntry{Number: i, Job: j.String()})
	}
	r.ExecuteJobs = executeJobEntries(resolved.ExecuteJobs)

	return r
}

// FromJobLists builds a report holding only jobs, as read back from a plan file
func FromJobLists(targets []string, jobs *resolver.JobLists) *Report {
	r := &Report{Targets: targets, Changes: []Entry{}, PretendJobs: []JobEntry{}, ExecuteJobs: []JobEntry{}}
	if jobs == nil {
		return r
	}
	for i, j := range jobs.PretendJobs {
		r.PretendJobs = append(r.PretendJobs, JobEntry{Number: i, Job: j.String()})
	}
	r.ExecuteJobs = executeJobEntries(jobs.ExecuteJobs)
	return r
}

// HasErrors is true when any taken decision cannot go ahead
func (r *Report) HasErrors() bool {
	return len(r.UnableToMake) > 0 || len(r.Unconfirmed) > 0 || len(r.Unorderable) > 0
}

func executeJobEntries(jobs []resolver.ExecuteJob) []JobEntry {
	result := []JobEntry{}
	for i, j := range jobs {
		entry := JobEntry{Number: i, Job: j.String(), State: string(j.State())}
		for _, req := range j.Requirements() {
			entry.Requires = append(entry.Requires, fmt.Sprintf("%d (%s)", req.JobNumber, req.RequiredIf))
		}
		result = append(result, entry)
	}
	return result
}

func entries(resolutions []*resolver.Resolution) []Entry {
	result := []Entry{}
	for _, res := range resolutions {
		result = append(result, entryFor(res))
	}
	return result
}

func entryFor(res *resolver.Resolution) Entry {
	e := Entry{Resolvent: res.Resolvent.String()}
	if res.Decision != nil {
		e.Decision = res.Decision.String()
	}

	seen := make(map[string]bool)
	for _, c := range res.Constraints.All() {
		reason := c.Reason.String()
		if !seen[reason] {
			seen[reason] = true
			e.Reasons = append(e.Reasons, reason)
		}
	}

	if d, ok := res.Decision.(resolver.ConfirmableDecision); ok {
		for _, c := range d.RequiredConfirmations() {
			e.Confirmations = append(e.Confirmations, c.String())
		}
	}

	if d, ok := res.Decision.(*resolver.UnableToMakeDecision); ok {
		for _, u := range d.UnsuitableCandidates {
			e.Unsuitable = append(e.Unsuitable, unsuitableString(u))
		}
	}

	return e
}

func unsuitableString(u resolver.UnsuitableCandidate) string {
	var notes []string
	for _, m := range u.Masks {
		notes = append(notes, "masked: "+m.String())
	}
	for _, c := range u.UnmetConstraints {
		notes = append(notes, "unmet: "+c.Spec.String())
	}
	if len(notes) == 0 {
		return u.PackageID.String()
	}
	return u.PackageID.String() + " (" + strings.Join(notes, "; ") + ")"
}
