package resolver

import (
	"fmt"
	"strings"

	"github.com/bdwyertech/go-paludis/pkg/paludis"
)

// RequiredIf says when a job requirement applies
type RequiredIf uint8

const (
	// RequiredIfSatisfied: the required job must have succeeded
	RequiredIfSatisfied RequiredIf = 1 << iota
	// RequiredIfIndependent: the required job must have finished, one way or another
	RequiredIfIndependent
	// RequiredIfAlways: the requirement holds even when ignoring failures
	RequiredIfAlways
)

var requiredIfNames = []struct {
	flag RequiredIf
	name string
}{
	{RequiredIfSatisfied, "satisfied"},
	{RequiredIfIndependent, "independent"},
	{RequiredIfAlways, "always"},
}

// Has reports whether a flag is set
func (r RequiredIf) Has(flag RequiredIf) bool {
	return r&flag != 0
}

// Names lists the set flags
func (r RequiredIf) Names() []string {
	var names []string
	for _, n := range requiredIfNames {
		if r.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return names
}

func (r RequiredIf) String() string {
	return strings.Join(r.Names(), "|")
}

// ParseRequiredIf builds a flag set from names
func ParseRequiredIf(names []string) (RequiredIf, error) {
	var r RequiredIf
outer:
	for _, name := range names {
		for _, n := range requiredIfNames {
			if n.name == name {
				r |= n.flag
				continue outer
			}
		}
		return 0, fmt.Errorf("unknown job requirement condition %q", name)
	}
	return r, nil
}

// JobRequirement says one job must wait for another
type JobRequirement struct {
	JobNumber  int
	RequiredIf RequiredIf
}

// JobState is the execution state of a job
type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
	JobSkipped   JobState = "skipped"
)

// Job is one unit of work produced by the orderer
type Job interface {
	String() string
	isJob()
}

// ExecuteJob is a job that changes the system
type ExecuteJob interface {
	Job
	Requirements() []JobRequirement
	State() JobState
	SetState(JobState)
}

// PretendJob checks that an install could go ahead, without changing anything
type PretendJob struct {
	OriginIDSpec              paludis.PackageDepSpec
	DestinationRepositoryName paludis.RepositoryName
	DestinationType           DestinationType
}

// FetchJob downloads whatever an install needs
type FetchJob struct {
	OriginIDSpec    paludis.PackageDepSpec
	JobRequirements []JobRequirement
	JobState        JobState
}

// InstallJob installs one ID, replacing ReplacingSpecs
type InstallJob struct {
	OriginIDSpec              paludis.PackageDepSpec
	DestinationRepositoryName paludis.RepositoryName
	DestinationType           DestinationType
	ReplacingSpecs            []paludis.PackageDepSpec
	WasTarget                 bool
	JobRequirements           []JobRequirement
	JobState                  JobState
}

// UninstallJob removes installed IDs
type UninstallJob struct {
	IDsToRemoveSpecs []paludis.PackageDepSpec
	JobRequirements  []JobRequirement
	JobState         JobState
}

func (*PretendJob) isJob()   {}
func (*FetchJob) isJob()     {}
func (*InstallJob) isJob()   {}
func (*UninstallJob) isJob() {}

func (j *FetchJob) Requirements() []JobRequirement     { return j.JobRequirements }
func (j *InstallJob) Requirements() []JobRequirement   { return j.JobRequirements }
func (j *UninstallJob) Requirements() []JobRequirement { return j.JobRequirements }

func (j *FetchJob) State() JobState     { return j.JobState }
func (j *InstallJob) State() JobState   { return j.JobState }
func (j *UninstallJob) State() JobState { return j.JobState }

func (j *FetchJob) SetState(s JobState)     { j.JobState = s }
func (j *InstallJob) SetState(s JobState)   { j.JobState = s }
func (j *UninstallJob) SetState(s JobState) { j.JobState = s }

func (j *PretendJob) String() string {
	return fmt.Sprintf("pretend %s to %s", j.OriginIDSpec, j.DestinationRepositoryName)
}

func (j *FetchJob) String() string {
	return "fetch " + j.OriginIDSpec.String()
}

func (j *InstallJob) String() string {
	s := fmt.Sprintf("install %s to %s", j.OriginIDSpec, j.DestinationRepositoryName)
	if len(j.ReplacingSpecs) > 0 {
		s += " replacing " + joinSpecs(j.ReplacingSpecs)
	}
	return s
}

func (j *UninstallJob) String() string {
	return "uninstall " + joinSpecs(j.IDsToRemoveSpecs)
}

func joinSpecs(specs []paludis.PackageDepSpec) string {
	parts := make([]string, len(specs))
	for i, s := range specs {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}

func uniqueSpecs(ids []*paludis.PackageID) []paludis.PackageDepSpec {
	specs := make([]paludis.PackageDepSpec, len(ids))
	for i, id := range ids {
		specs[i] = id.UniqueSpec()
	}
	return specs
}
