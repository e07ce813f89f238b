package resolver

import (
	"fmt"

	"github.com/goccy/go-json"

	perrors "github.com/bdwyertech/go-paludis/pkg/errors"
	"github.com/bdwyertech/go-paludis/pkg/paludis"
)

// Serialised objects carry a "_class" member naming their variant. Specs are
// written as strings and parsed again on the way back in; package IDs are written
// by value, without their dependency trees.

type packageIDWire struct {
	Class      string          `json:"_class"`
	Name       string          `json:"name"`
	Version    string          `json:"version"`
	Slot       string          `json:"slot"`
	Repository string          `json:"repository"`
	Installed  bool            `json:"installed,omitempty"`
	Transient  bool            `json:"transient,omitempty"`
	Choices    map[string]bool `json:"choices,omitempty"`
	Masks      []paludis.Mask  `json:"masks,omitempty"`
}

type slotWire struct {
	Class            string `json:"_class"`
	Name             string `json:"name,omitempty"`
	NullMeansUnknown bool   `json:"null_means_unknown,omitempty"`
}

type resolventWire struct {
	Class           string   `json:"_class"`
	DestinationType string   `json:"destination_type"`
	Package         string   `json:"package"`
	Slot            slotWire `json:"slot"`
}

type sanitisedDependencyWire struct {
	Class                string   `json:"_class"`
	Spec                 string   `json:"spec"`
	Labels               []string `json:"labels,omitempty"`
	OriginalSpecAsString string   `json:"original_specification_as_string,omitempty"`
	MetadataKeyRaw       string   `json:"metadata_key_raw,omitempty"`
}

type changeByResolventWire struct {
	Class     string         `json:"_class"`
	PackageID *packageIDWire `json:"package_id"`
	Resolvent resolventWire  `json:"resolvent"`
}

type reasonWire struct {
	Class string `json:"_class"`

	ExtraInformation string `json:"extra_information,omitempty"`

	FromID     *packageIDWire           `json:"from_id,omitempty"`
	FromRes    *resolventWire           `json:"from_resolvent,omitempty"`
	Dependency *sanitisedDependencyWire `json:"sanitised_dependency,omitempty"`
	AlreadyMet string                   `json:"already_met,omitempty"`

	DependentUpon *changeByResolventWire  `json:"dependent_upon,omitempty"`
	BeingRemoved  []changeByResolventWire `json:"ids_and_resolvents_being_removed,omitempty"`

	Explanation          string      `json:"explanation,omitempty"`
	MaybeReasonForPreset *reasonWire `json:"maybe_reason_for_preset,omitempty"`

	SetName      string      `json:"set_name,omitempty"`
	ReasonForSet *reasonWire `json:"reason_for_set,omitempty"`

	OtherResolvent          *resolventWire `json:"other_resolvent,omitempty"`
	ReasonForOtherResolvent *reasonWire    `json:"reason_for_other_resolvent,omitempty"`
}

type constraintWire struct {
	Class            string      `json:"_class"`
	DestinationType  string      `json:"destination_type"`
	NothingIsFineToo bool        `json:"nothing_is_fine_too"`
	Reason           *reasonWire `json:"reason"`
	Spec             string      `json:"spec"`
	Untaken          bool        `json:"untaken"`
	UseExisting      string      `json:"use_existing"`
}

type jobRequirementWire struct {
	Class      string   `json:"_class"`
	JobNumber  int      `json:"job_number"`
	RequiredIf []string `json:"required_if"`
}

type jobWire struct {
	Class string `json:"_class"`

	OriginIDSpec              string   `json:"origin_id_spec,omitempty"`
	DestinationRepositoryName string   `json:"destination_repository_name,omitempty"`
	DestinationType           string   `json:"destination_type,omitempty"`
	ReplacingSpecs            []string `json:"replacing_specs,omitempty"`
	WasTarget                 bool     `json:"was_target,omitempty"`
	IDsToRemoveSpecs          []string `json:"ids_to_remove_specs,omitempty"`

	Requirements []jobRequirementWire `json:"requirements,omitempty"`
	State        string               `json:"state,omitempty"`
}

type jobListsWire struct {
	Class   string    `json:"_class"`
	Pretend []jobWire `json:"pretend_job_list"`
	Execute []jobWire `json:"execute_job_list"`
}

func serialisationError(what string, err error) error {
	return perrors.NewSerialisationError(fmt.Sprintf("cannot deserialise %s", what), err)
}

func expectClass(got, want string) error {
	if got != want {
		return fmt.Errorf("expected _class %q, got %q", want, got)
	}
	return nil
}

// package IDs

func packageIDToWire(id *paludis.PackageID) *packageIDWire {
	if id == nil {
		return nil
	}
	w := &packageIDWire{
		Class:      "PackageID",
		Name:       id.Name.String(),
		Slot:       string(id.Slot),
		Repository: string(id.Repository),
		Installed:  id.Installed,
		Transient:  id.Transient,
		Masks:      id.Masks,
	}
	if id.Version != nil {
		w.Version = id.Version.String()
	}
	if len(id.Choices) > 0 {
		w.Choices = id.Choices
	}
	return w
}

func (w *packageIDWire) packageID() (*paludis.PackageID, error) {
	if w == nil {
		return nil, nil
	}
	if err := expectClass(w.Class, "PackageID"); err != nil {
		return nil, err
	}
	name, err := paludis.NewQualifiedPackageName(w.Name)
	if err != nil {
		return nil, err
	}
	version, err := paludis.NewVersion(w.Version)
	if err != nil {
		return nil, err
	}
	id := &paludis.PackageID{
		Name:       name,
		Version:    version,
		Slot:       paludis.SlotName(w.Slot),
		Repository: paludis.RepositoryName(w.Repository),
		Installed:  w.Installed,
		Transient:  w.Transient,
		Masks:      w.Masks,
	}
	if len(w.Choices) > 0 {
		id.Choices = paludis.Choices(w.Choices)
	}
	return id, nil
}

// resolvents

func resolventToWire(r Resolvent) resolventWire {
	return resolventWire{
		Class:           "Resolvent",
		DestinationType: string(r.DestinationType),
		Package:         r.Package.String(),
		Slot: slotWire{
			Class:            "SlotNameOrNull",
			Name:             string(r.Slot.Name),
			NullMeansUnknown: r.Slot.NullMeansUnknown,
		},
	}
}

func (w *resolventWire) resolvent() (Resolvent, error) {
	if err := expectClass(w.Class, "Resolvent"); err != nil {
		return Resolvent{}, err
	}
	if err := expectClass(w.Slot.Class, "SlotNameOrNull"); err != nil {
		return Resolvent{}, err
	}
	name, err := paludis.NewQualifiedPackageName(w.Package)
	if err != nil {
		return Resolvent{}, err
	}
	dt, err := ParseDestinationType(w.DestinationType)
	if err != nil {
		return Resolvent{}, err
	}
	return Resolvent{
		Package:         name,
		Slot:            SlotNameOrNull{Name: paludis.SlotName(w.Slot.Name), NullMeansUnknown: w.Slot.NullMeansUnknown},
		DestinationType: dt,
	}, nil
}

// sanitised dependencies

func sanitisedDependencyToWire(d paludis.SanitisedDependency) *sanitisedDependencyWire {
	w := &sanitisedDependencyWire{
		Class:                "SanitisedDependency",
		Spec:                 d.Spec.String(),
		OriginalSpecAsString: d.OriginalSpecAsString,
		MetadataKeyRaw:       d.MetadataKeyRaw,
	}
	for _, l := range d.Labels {
		w.Labels = append(w.Labels, string(l))
	}
	return w
}

func (w *sanitisedDependencyWire) dependency() (paludis.SanitisedDependency, error) {
	if err := expectClass(w.Class, "SanitisedDependency"); err != nil {
		return paludis.SanitisedDependency{}, err
	}
	spec, err := paludis.ParsePackageOrBlockDepSpec(w.Spec)
	if err != nil {
		return paludis.SanitisedDependency{}, err
	}
	labels := make([]paludis.DependencyLabel, 0, len(w.Labels))
	for _, s := range w.Labels {
		l, err := paludis.ParseDependencyLabel(s)
		if err != nil {
			return paludis.SanitisedDependency{}, err
		}
		labels = append(labels, l)
	}
	d := paludis.SanitisedDependency{
		Spec:                 spec,
		OriginalSpecAsString: w.OriginalSpecAsString,
		MetadataKeyRaw:       w.MetadataKeyRaw,
	}
	if len(labels) > 0 {
		d.Labels = paludis.NewDependencyLabels(labels...)
	}
	return d, nil
}

// changes by resolvent

func changeByResolventToWire(c ChangeByResolvent) changeByResolventWire {
	return changeByResolventWire{
		Class:     "ChangeByResolvent",
		PackageID: packageIDToWire(c.PackageID),
		Resolvent: resolventToWire(c.Resolvent),
	}
}

func (w *changeByResolventWire) change() (ChangeByResolvent, error) {
	if err := expectClass(w.Class, "ChangeByResolvent"); err != nil {
		return ChangeByResolvent{}, err
	}
	id, err := w.PackageID.packageID()
	if err != nil {
		return ChangeByResolvent{}, err
	}
	r, err := w.Resolvent.resolvent()
	if err != nil {
		return ChangeByResolvent{}, err
	}
	return ChangeByResolvent{PackageID: id, Resolvent: r}, nil
}

// reasons

func reasonToWire(r Reason) (*reasonWire, error) {
	switch reason := r.(type) {
	case nil:
		return nil, nil
	case *TargetReason:
		return &reasonWire{Class: "TargetReason", ExtraInformation: reason.ExtraInformation}, nil
	case *DependencyReason:
		from := resolventToWire(reason.FromResolvent)
		return &reasonWire{
			Class:      "DependencyReason",
			FromID:     packageIDToWire(reason.FromID),
			FromRes:    &from,
			Dependency: sanitisedDependencyToWire(reason.Dependency),
			AlreadyMet: reason.AlreadyMet.String(),
		}, nil
	case *DependentReason:
		upon := changeByResolventToWire(reason.DependentUpon)
		return &reasonWire{Class: "DependentReason", DependentUpon: &upon}, nil
	case *WasUsedByReason:
		w := &reasonWire{Class: "WasUsedByReason"}
		for _, c := range reason.IDsAndResolventsBeingRemoved {
			w.BeingRemoved = append(w.BeingRemoved, changeByResolventToWire(c))
		}
		return w, nil
	case *PresetReason:
		inner, err := reasonToWire(reason.MaybeReasonForPreset)
		if err != nil {
			return nil, err
		}
		return &reasonWire{Class: "PresetReason", Explanation: reason.Explanation, MaybeReasonForPreset: inner}, nil
	case *SetReason:
		inner, err := reasonToWire(reason.ReasonForSet)
		if err != nil {
			return nil, err
		}
		return &reasonWire{Class: "SetReason", SetName: string(reason.SetName), ReasonForSet: inner}, nil
	case *LikeOtherDestinationTypeReason:
		inner, err := reasonToWire(reason.ReasonForOtherResolvent)
		if err != nil {
			return nil, err
		}
		other := resolventToWire(reason.OtherResolvent)
		return &reasonWire{
			Class:                   "LikeOtherDestinationTypeReason",
			OtherResolvent:          &other,
			ReasonForOtherResolvent: inner,
		}, nil
	case *ViaBinaryReason:
		other := resolventToWire(reason.OtherResolvent)
		return &reasonWire{Class: "ViaBinaryReason", OtherResolvent: &other}, nil
	}
	return nil, fmt.Errorf("unknown reason type %T", r)
}

func (w *reasonWire) reason() (Reason, error) {
	if w == nil {
		return nil, nil
	}
	switch w.Class {
	case "TargetReason":
		return &TargetReason{ExtraInformation: w.ExtraInformation}, nil

	case "DependencyReason":
		if w.FromRes == nil || w.Dependency == nil {
			return nil, fmt.Errorf("DependencyReason is missing from_resolvent or sanitised_dependency")
		}
		id, err := w.FromID.packageID()
		if err != nil {
			return nil, err
		}
		from, err := w.FromRes.resolvent()
		if err != nil {
			return nil, err
		}
		dep, err := w.Dependency.dependency()
		if err != nil {
			return nil, err
		}
		met, err := paludis.ParseTribool(w.AlreadyMet)
		if err != nil {
			return nil, err
		}
		return &DependencyReason{FromID: id, FromResolvent: from, Dependency: dep, AlreadyMet: met}, nil

	case "DependentReason":
		if w.DependentUpon == nil {
			return nil, fmt.Errorf("DependentReason is missing dependent_upon")
		}
		upon, err := w.DependentUpon.change()
		if err != nil {
			return nil, err
		}
		return &DependentReason{DependentUpon: upon}, nil

	case "WasUsedByReason":
		r := &WasUsedByReason{}
		for i := range w.BeingRemoved {
			c, err := w.BeingRemoved[i].change()
			if err != nil {
				return nil, err
			}
			r.IDsAndResolventsBeingRemoved = append(r.IDsAndResolventsBeingRemoved, c)
		}
		return r, nil

	case "PresetReason":
		inner, err := w.MaybeReasonForPreset.reason()
		if err != nil {
			return nil, err
		}
		return &PresetReason{Explanation: w.Explanation, MaybeReasonForPreset: inner}, nil

	case "SetReason":
		if w.ReasonForSet == nil {
			return nil, fmt.Errorf("SetReason is missing reason_for_set")
		}
		inner, err := w.ReasonForSet.reason()
		if err != nil {
			return nil, err
		}
		return &SetReason{SetName: paludis.SetName(w.SetName), ReasonForSet: inner}, nil

	case "LikeOtherDestinationTypeReason":
		if w.OtherResolvent == nil || w.ReasonForOtherResolvent == nil {
			return nil, fmt.Errorf("LikeOtherDestinationTypeReason is missing other_resolvent or its reason")
		}
		other, err := w.OtherResolvent.resolvent()
		if err != nil {
			return nil, err
		}
		inner, err := w.ReasonForOtherResolvent.reason()
		if err != nil {
			return nil, err
		}
		return &LikeOtherDestinationTypeReason{OtherResolvent: other, ReasonForOtherResolvent: inner}, nil

	case "ViaBinaryReason":
		if w.OtherResolvent == nil {
			return nil, fmt.Errorf("ViaBinaryReason is missing other_resolvent")
		}
		other, err := w.OtherResolvent.resolvent()
		if err != nil {
			return nil, err
		}
		return &ViaBinaryReason{OtherResolvent: other}, nil
	}
	return nil, fmt.Errorf("unknown reason _class %q", w.Class)
}

// constraints

func constraintToWire(c *Constraint) (*constraintWire, error) {
	reason, err := reasonToWire(c.Reason)
	if err != nil {
		return nil, err
	}
	return &constraintWire{
		Class:            "Constraint",
		DestinationType:  string(c.DestinationType),
		NothingIsFineToo: c.NothingIsFineToo,
		Reason:           reason,
		Spec:             c.Spec.String(),
		Untaken:          c.Untaken,
		UseExisting:      c.UseExisting.String(),
	}, nil
}

func (w *constraintWire) constraint() (*Constraint, error) {
	if err := expectClass(w.Class, "Constraint"); err != nil {
		return nil, err
	}
	if w.Reason == nil {
		return nil, fmt.Errorf("constraint is missing its reason")
	}
	dt, err := ParseDestinationType(w.DestinationType)
	if err != nil {
		return nil, err
	}
	spec, err := paludis.ParsePackageOrBlockDepSpec(w.Spec)
	if err != nil {
		return nil, err
	}
	reason, err := w.Reason.reason()
	if err != nil {
		return nil, err
	}
	ue, err := ParseUseExisting(w.UseExisting)
	if err != nil {
		return nil, err
	}
	return &Constraint{
		DestinationType:  dt,
		Spec:             spec,
		Reason:           reason,
		UseExisting:      ue,
		Untaken:          w.Untaken,
		NothingIsFineToo: w.NothingIsFineToo,
	}, nil
}

// jobs

func jobRequirementToWire(r JobRequirement) jobRequirementWire {
	names := r.RequiredIf.Names()
	if names == nil {
		names = []string{}
	}
	return jobRequirementWire{Class: "JobRequirement", JobNumber: r.JobNumber, RequiredIf: names}
}

func (w *jobRequirementWire) requirement() (JobRequirement, error) {
	if err := expectClass(w.Class, "JobRequirement"); err != nil {
		return JobRequirement{}, err
	}
	if w.JobNumber < 0 {
		return JobRequirement{}, fmt.Errorf("negative job number %d", w.JobNumber)
	}
	ri, err := ParseRequiredIf(w.RequiredIf)
	if err != nil {
		return JobRequirement{}, err
	}
	return JobRequirement{JobNumber: w.JobNumber, RequiredIf: ri}, nil
}

func requirementsToWire(reqs []JobRequirement) []jobRequirementWire {
	result := make([]jobRequirementWire, 0, len(reqs))
	for _, r := range reqs {
		result = append(result, jobRequirementToWire(r))
	}
	return result
}

func requirementsFromWire(ws []jobRequirementWire) ([]JobRequirement, error) {
	var result []JobRequirement
	for i := range ws {
		r, err := ws[i].requirement()
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, nil
}

func specStrings(specs []paludis.PackageDepSpec) []string {
	result := make([]string, 0, len(specs))
	for _, s := range specs {
		result = append(result, s.String())
	}
	return result
}

func parseSpecs(ss []string) ([]paludis.PackageDepSpec, error) {
	var result []paludis.PackageDepSpec
	for _, s := range ss {
		spec, err := paludis.ParsePackageDepSpec(s)
		if err != nil {
			return nil, err
		}
		result = append(result, spec)
	}
	return result, nil
}

func jobToWire(j Job) (jobWire, error) {
	switch job := j.(type) {
	case *PretendJob:
		return jobWire{
			Class:                     "PretendJob",
			OriginIDSpec:              job.OriginIDSpec.String(),
			DestinationRepositoryName: string(job.DestinationRepositoryName),
			DestinationType:           string(job.DestinationType),
		}, nil
	case *FetchJob:
		return jobWire{
			Class:        "FetchJob",
			OriginIDSpec: job.OriginIDSpec.String(),
			Requirements: requirementsToWire(job.JobRequirements),
			State:        string(job.JobState),
		}, nil
	case *InstallJob:
		return jobWire{
			Class:                     "InstallJob",
			OriginIDSpec:              job.OriginIDSpec.String(),
			DestinationRepositoryName: string(job.DestinationRepositoryName),
			DestinationType:           string(job.DestinationType),
			ReplacingSpecs:            specStrings(job.ReplacingSpecs),
			WasTarget:                 job.WasTarget,
			Requirements:              requirementsToWire(job.JobRequirements),
			State:                     string(job.JobState),
		}, nil
	case *UninstallJob:
		return jobWire{
			Class:            "UninstallJob",
			IDsToRemoveSpecs: specStrings(job.IDsToRemoveSpecs),
			Requirements:     requirementsToWire(job.JobRequirements),
			State:            string(job.JobState),
		}, nil
	}
	return jobWire{}, fmt.Errorf("unknown job type %T", j)
}

func parseJobState(s string) (JobState, error) {
	switch st := JobState(s); st {
	case "":
		return JobPending, nil
	case JobPending, JobRunning, JobSucceeded, JobFailed, JobSkipped:
		return st, nil
	}
	return "", fmt.Errorf("unknown job state %q", s)
}

func (w *jobWire) job() (Job, error) {
	switch w.Class {
	case "PretendJob", "FetchJob", "InstallJob", "UninstallJob":
	default:
		return nil, fmt.Errorf("unknown job _class %q", w.Class)
	}

	var origin paludis.PackageDepSpec
	if w.Class != "UninstallJob" {
		var err error
		if origin, err = paludis.ParsePackageDepSpec(w.OriginIDSpec); err != nil {
			return nil, err
		}
	}
	if w.Class == "PretendJob" {
		dt, err := ParseDestinationType(w.DestinationType)
		if err != nil {
			return nil, err
		}
		return &PretendJob{
			OriginIDSpec:              origin,
			DestinationRepositoryName: paludis.RepositoryName(w.DestinationRepositoryName),
			DestinationType:           dt,
		}, nil
	}

	reqs, err := requirementsFromWire(w.Requirements)
	if err != nil {
		return nil, err
	}
	state, err := parseJobState(w.State)
	if err != nil {
		return nil, err
	}

	switch w.Class {
	case "FetchJob":
		return &FetchJob{OriginIDSpec: origin, JobRequirements: reqs, JobState: state}, nil
	case "InstallJob":
		dt, err := ParseDestinationType(w.DestinationType)
		if err != nil {
			return nil, err
		}
		replacing, err := parseSpecs(w.ReplacingSpecs)
		if err != nil {
			return nil, err
		}
		return &InstallJob{
			OriginIDSpec:              origin,
			DestinationRepositoryName: paludis.RepositoryName(w.DestinationRepositoryName),
			DestinationType:           dt,
			ReplacingSpecs:            replacing,
			WasTarget:                 w.WasTarget,
			JobRequirements:           reqs,
			JobState:                  state,
		}, nil
	}
	specs, err := parseSpecs(w.IDsToRemoveSpecs)
	if err != nil {
		return nil, err
	}
	return &UninstallJob{IDsToRemoveSpecs: specs, JobRequirements: reqs, JobState: state}, nil
}

// MarshalReason serialises a reason, including any reasons it wraps
func MarshalReason(r Reason) ([]byte, error) {
	w, err := reasonToWire(r)
	if err != nil {
		return nil, perrors.NewSerialisationError("cannot serialise reason", err)
	}
	return json.Marshal(w)
}

// UnmarshalReason is the inverse of MarshalReason
func UnmarshalReason(data []byte) (Reason, error) {
	var w reasonWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, serialisationError("reason", err)
	}
	r, err := w.reason()
	if err != nil {
		return nil, serialisationError("reason", err)
	}
	return r, nil
}

// MarshalConstraint serialises a constraint
func MarshalConstraint(c *Constraint) ([]byte, error) {
	w, err := constraintToWire(c)
	if err != nil {
		return nil, perrors.NewSerialisationError("cannot serialise constraint", err)
	}
	return json.Marshal(w)
}

// UnmarshalConstraint is the inverse of MarshalConstraint
func UnmarshalConstraint(data []byte) (*Constraint, error) {
	var w constraintWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, serialisationError("constraint", err)
	}
	c, err := w.constraint()
	if err != nil {
		return nil, serialisationError("constraint", err)
	}
	return c, nil
}

// MarshalResolvent serialises a resolvent
func MarshalResolvent(r Resolvent) ([]byte, error) {
	return json.Marshal(resolventToWire(r))
}

// UnmarshalResolvent is the inverse of MarshalResolvent
func UnmarshalResolvent(data []byte) (Resolvent, error) {
	var w resolventWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Resolvent{}, serialisationError("resolvent", err)
	}
	r, err := w.resolvent()
	if err != nil {
		return Resolvent{}, serialisationError("resolvent", err)
	}
	return r, nil
}

// MarshalSanitisedDependency serialises a dependency edge
func MarshalSanitisedDependency(d paludis.SanitisedDependency) ([]byte, error) {
	return json.Marshal(sanitisedDependencyToWire(d))
}

// UnmarshalSanitisedDependency is the inverse of MarshalSanitisedDependency
func UnmarshalSanitisedDependency(data []byte) (paludis.SanitisedDependency, error) {
	var w sanitisedDependencyWire
	if err := json.Unmarshal(data, &w); err != nil {
		return paludis.SanitisedDependency{}, serialisationError("sanitised dependency", err)
	}
	d, err := w.dependency()
	if err != nil {
		return paludis.SanitisedDependency{}, serialisationError("sanitised dependency", err)
	}
	return d, nil
}

// MarshalPackageID serialises an ID by value
func MarshalPackageID(id *paludis.PackageID) ([]byte, error) {
	if id == nil {
		return nil, perrors.NewSerialisationError("cannot serialise a nil package ID", nil)
	}
	return json.Marshal(packageIDToWire(id))
}

// UnmarshalPackageID is the inverse of MarshalPackageID
func UnmarshalPackageID(data []byte) (*paludis.PackageID, error) {
	var w packageIDWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, serialisationError("package ID", err)
	}
	id, err := w.packageID()
	if err != nil {
		return nil, serialisationError("package ID", err)
	}
	return id, nil
}

// MarshalJobRequirement serialises a job requirement
func MarshalJobRequirement(r JobRequirement) ([]byte, error) {
	return json.Marshal(jobRequirementToWire(r))
}

// UnmarshalJobRequirement is the inverse of MarshalJobRequirement
func UnmarshalJobRequirement(data []byte) (JobRequirement, error) {
	var w jobRequirementWire
	if err := json.Unmarshal(data, &w); err != nil {
		return JobRequirement{}, serialisationError("job requirement", err)
	}
	r, err := w.requirement()
	if err != nil {
		return JobRequirement{}, serialisationError("job requirement", err)
	}
	return r, nil
}

// MarshalJob serialises a single job
func MarshalJob(j Job) ([]byte, error) {
	w, err := jobToWire(j)
	if err != nil {
		return nil, perrors.NewSerialisationError("cannot serialise job", err)
	}
	return json.Marshal(w)
}

// UnmarshalJob is the inverse of MarshalJob
func UnmarshalJob(data []byte) (Job, error) {
	var w jobWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, serialisationError("job", err)
	}
	j, err := w.job()
	if err != nil {
		return nil, serialisationError("job", err)
	}
	return j, nil
}

// JobLists is the serialisable part of a Resolved: what to pretend, then what to run
type JobLists struct {
	PretendJobs []*PretendJob
	ExecuteJobs []ExecuteJob
}

// MarshalJSON writes both lists. Requirement job numbers index ExecuteJobs.
func (l *JobLists) MarshalJSON() ([]byte, error) {
	w := jobListsWire{Class: "JobLists", Pretend: []jobWire{}, Execute: []jobWire{}}
	for _, j := range l.PretendJobs {
		jw, err := jobToWire(j)
		if err != nil {
			return nil, perrors.NewSerialisationError("cannot serialise job lists", err)
		}
		w.Pretend = append(w.Pretend, jw)
	}
	for _, j := range l.ExecuteJobs {
		jw, err := jobToWire(j)
		if err != nil {
			return nil, perrors.NewSerialisationError("cannot serialise job lists", err)
		}
		w.Execute = append(w.Execute, jw)
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads lists written by MarshalJSON, checking that every requirement
// refers to an earlier execute job
func (l *JobLists) UnmarshalJSON(data []byte) error {
	var w jobListsWire
	if err := json.Unmarshal(data, &w); err != nil {
		return serialisationError("job lists", err)
	}
	if err := expectClass(w.Class, "JobLists"); err != nil {
		return serialisationError("job lists", err)
	}

	var result JobLists
	for i := range w.Pretend {
		if err := expectClass(w.Pretend[i].Class, "PretendJob"); err != nil {
			return serialisationError("job lists", err)
		}
		j, err := w.Pretend[i].job()
		if err != nil {
			return serialisationError("job lists", err)
		}
		result.PretendJobs = append(result.PretendJobs, j.(*PretendJob))
	}
	for i := range w.Execute {
		j, err := w.Execute[i].job()
		if err != nil {
			return serialisationError("job lists", err)
		}
		ej, ok := j.(ExecuteJob)
		if !ok {
			return serialisationError("job lists", fmt.Errorf("%s is not an execute job", w.Execute[i].Class))
		}
		for _, r := range ej.Requirements() {
			if r.JobNumber >= i {
				return serialisationError("job lists",
					fmt.Errorf("execute job %d requires job %d, which does not come before it", i, r.JobNumber))
			}
		}
		result.ExecuteJobs = append(result.ExecuteJobs, ej)
	}
	*l = result
	return nil
}

// JobLists returns the job lists of a resolution, ready for serialisation
func (r *Resolved) JobLists() *JobLists {
	return &JobLists{PretendJobs: r.PretendJobs, ExecuteJobs: r.ExecuteJobs}
}
