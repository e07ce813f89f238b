package resolver

// CycleBreak records a requirement dropped to make ordering possible
type CycleBreak struct {
	Requirer   Resolvent
	Required   Resolvent
	Properties EdgeProperties
}

// Resolved is the result of a resolution. It is not modified after Resolve returns;
// Resolver.Resolved hands out copies of its slices.
type Resolved struct {
	ResolutionsByResolvent *ResolutionsByResolvent

	PretendJobs []*PretendJob
	ExecuteJobs []ExecuteJob

	// TakenChangeOrRemoveDecisions are in job order
	TakenChangeOrRemoveDecisions   []*Resolution
	TakenUnableToMakeDecisions     []*Resolution
	TakenUnconfirmedDecisions      []*Resolution
	TakenUnorderableDecisions      []*Resolution
	UntakenChangeOrRemoveDecisions []*Resolution
	UntakenUnableToMakeDecisions   []*Resolution

	CycleBreaks []CycleBreak
}

// HasErrors is true when something the user asked for cannot be done as things stand
func (r *Resolved) HasErrors() bool {
	return len(r.TakenUnableToMakeDecisions) > 0 ||
		len(r.TakenUnconfirmedDecisions) > 0 ||
		len(r.TakenUnorderableDecisions) > 0
}

// clone copies the job lists and buckets. Resolutions and jobs themselves are shared.
func (r *Resolved) clone() *Resolved {
	if r == nil {
		return nil
	}
	c := *r
	c.PretendJobs = append([]*PretendJob(nil), r.PretendJobs...)
	c.ExecuteJobs = append([]ExecuteJob(nil), r.ExecuteJobs...)
	c.TakenChangeOrRemoveDecisions = append([]*Resolution(nil), r.TakenChangeOrRemoveDecisions...)
	c.TakenUnableToMakeDecisions = append([]*Resolution(nil), r.TakenUnableToMakeDecisions...)
	c.TakenUnconfirmedDecisions = append([]*Resolution(nil), r.TakenUnconfirmedDecisions...)
	c.TakenUnorderableDecisions = append([]*Resolution(nil), r.TakenUnorderableDecisions...)
	c.UntakenChangeOrRemoveDecisions = append([]*Resolution(nil), r.UntakenChangeOrRemoveDecisions...)
	c.UntakenUnableToMakeDecisions = append([]*Resolution(nil), r.UntakenUnableToMakeDecisions...)
	c.CycleBreaks = append([]CycleBreak(nil), r.CycleBreaks...)
	return &c
}
