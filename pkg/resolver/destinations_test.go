package resolver

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bdwyertech/go-paludis/pkg/paludis"
)

const destinationsYAML = `
name: gentoo
packages:
  - name: app/foo
    version: "1"
    dependencies:
      - spec: app/lib
      - spec: dev/tool
        labels: [build]
  - name: app/lib
    version: "1"
  - name: dev/tool
    version: "1"
`

func destinationFunctions(finder DestinationTypesFinder) ResolverFunctions {
	return ResolverFunctions{
		GetDestinationTypesForFn: finder.DestinationTypesFor,
		FindRepositoryForFn: func(r Resolvent, _ *paludis.PackageID) (paludis.RepositoryName, error) {
			if r.DestinationType == DestinationCreateBinary {
				return "binaries", nil
			}
			return "installed", nil
		},
	}
}

func resolutionAt(t *testing.T, resolutions *ResolutionsByResolvent, name string, dt DestinationType) *Resolution {
	t.Helper()
	for _, res := range resolutions.All() {
		if res.Resolvent.Package.String() == name && res.Resolvent.DestinationType == dt {
			return res
		}
	}
	t.Fatalf("No resolution for %s to %s", name, dt)
	return nil
}

type installTo struct {
	Name        string
	Destination DestinationType
	Repository  paludis.RepositoryName
}

func installDestinations(resolved *Resolved) []installTo {
	var result []installTo
	for _, job := range resolved.ExecuteJobs {
		if install, ok := job.(*InstallJob); ok {
			result = append(result, installTo{
				Name:        install.OriginIDSpec.Name.String(),
				Destination: install.DestinationType,
				Repository:  install.DestinationRepositoryName,
			})
		}
	}
	return result
}

func TestDestinationTypesFinder(t *testing.T) {
	runDep := &DependencyReason{Dependency: paludis.SanitisedDependency{
		Spec:   mustSpec(t, "app/lib"),
		Labels: paludis.DefaultDependencyLabels,
	}}
	buildDep := &DependencyReason{Dependency: paludis.SanitisedDependency{
		Spec:   mustSpec(t, "dev/tool"),
		Labels: paludis.NewDependencyLabels(paludis.LabelBuild),
	}}
	binaries := DestinationTypesFinder{
		TargetDestinationType:          DestinationCreateBinary,
		WantTargetRuntimeDependencies:  true,
		WantDependenciesOnSlash:        true,
		WantRuntimeDependenciesOnSlash: true,
	}

	tests := []struct {
		name   string
		finder DestinationTypesFinder
		reason Reason
		want   []DestinationType
	}{
		{"default target", DefaultDestinationTypesFinder(), &TargetReason{}, []DestinationType{DestinationInstallToSlash}},
		{"default dependency", DefaultDestinationTypesFinder(), runDep, []DestinationType{DestinationInstallToSlash}},
		{"binary target", binaries, &TargetReason{}, []DestinationType{DestinationCreateBinary}},
		{"binary set member", binaries, &SetReason{SetName: "world", ReasonForSet: &TargetReason{}}, []DestinationType{DestinationCreateBinary}},
		{"binary runtime dependency", binaries, runDep, []DestinationType{DestinationCreateBinary, DestinationInstallToSlash}},
		{"binary build dependency", binaries, buildDep, []DestinationType{DestinationInstallToSlash}},
		{"like other destination", binaries,
			&LikeOtherDestinationTypeReason{ReasonForOtherResolvent: runDep},
			[]DestinationType{DestinationCreateBinary, DestinationInstallToSlash}},
		{"dependent", binaries, &DependentReason{}, []DestinationType{DestinationInstallToSlash}},
		{"preset", binaries, &PresetReason{}, nil},
		{"only runtime to slash", DestinationTypesFinder{
			TargetDestinationType:          DestinationInstallToSlash,
			WantRuntimeDependenciesOnSlash: true,
		}, buildDep, nil},
		{"only build to slash", DestinationTypesFinder{
			TargetDestinationType:   DestinationInstallToSlash,
			WantDependenciesOnSlash: true,
		}, buildDep, []DestinationType{DestinationInstallToSlash}},
		{"all dependencies to chroot", DestinationTypesFinder{
			TargetDestinationType:  DestinationInstallToChroot,
			WantTargetDependencies: true,
		}, buildDep, []DestinationType{DestinationInstallToChroot}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.finder.DestinationTypesFor(paludis.PackageDepSpec{}, tt.reason)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DestinationTypesFor() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDependenciesFollowTargetDestination(t *testing.T) {
	env := newTestEnvironment(t, destinationsYAML, emptyInstalledYAML)
	fns := destinationFunctions(DestinationTypesFinder{
		TargetDestinationType:          DestinationCreateBinary,
		WantTargetRuntimeDependencies:  true,
		WantDependenciesOnSlash:        true,
		WantRuntimeDependenciesOnSlash: true,
	})
	resolved := resolveTargets(t, env, fns, "app/foo")

	binaryLib := resolutionAt(t, resolved.ResolutionsByResolvent, "app/lib", DestinationCreateBinary)
	if _, ok := binaryLib.Constraints.All()[0].Reason.(*DependencyReason); !ok {
		t.Errorf("app/lib binary reason = %s, want a dependency", binaryLib.Constraints.All()[0].Reason)
	}

	slashLib := resolutionAt(t, resolved.ResolutionsByResolvent, "app/lib", DestinationInstallToSlash)
	like, ok := slashLib.Constraints.All()[0].Reason.(*LikeOtherDestinationTypeReason)
	if !ok {
		t.Fatalf("app/lib on / reason = %s, want like other destination", slashLib.Constraints.All()[0].Reason)
	}
	if like.OtherResolvent != binaryLib.Resolvent {
		t.Errorf("OtherResolvent = %s, want %s", like.OtherResolvent, binaryLib.Resolvent)
	}
	if !IsTargetReason(&LikeOtherDestinationTypeReason{ReasonForOtherResolvent: &TargetReason{}}) {
		t.Error("a like other destination reason should see through to a target")
	}

	for _, res := range resolved.ResolutionsByResolvent.All() {
		if res.Resolvent.Package.String() == "dev/tool" && res.Resolvent.DestinationType != DestinationInstallToSlash {
			t.Errorf("build dependency dev/tool should only go to /, got %s", res.Resolvent)
		}
	}

	installs := installDestinations(resolved)
	if len(installs) != 4 {
		t.Fatalf("installs = %+v, want 4", installs)
	}
	last := installs[len(installs)-1]
	if diff := cmp.Diff(installTo{"app/foo", DestinationCreateBinary, "binaries"}, last); diff != "" {
		t.Errorf("last install mismatch (-want +got):\n%s", diff)
	}
	if len(resolved.TakenUnableToMakeDecisions) != 0 || len(resolved.TakenUnorderableDecisions) != 0 {
		t.Errorf("unexpected errors: unable %v, unorderable %v",
			resolventNames(resolved.TakenUnableToMakeDecisions), resolventNames(resolved.TakenUnorderableDecisions))
	}
}

func TestNoDependenciesToSlash(t *testing.T) {
	env := newTestEnvironment(t, destinationsYAML, emptyInstalledYAML)
	resolved := resolveTargets(t, env, destinationFunctions(DestinationTypesFinder{
		TargetDestinationType: DestinationInstallToSlash,
	}), "app/foo")

	if diff := cmp.Diff([]string{"app/foo"}, installOrder(resolved)); diff != "" {
		t.Errorf("install order mismatch (-want +got):\n%s", diff)
	}
}

func TestViaBinary(t *testing.T) {
	const repo = `
name: gentoo
packages:
  - name: app/foo
    version: "1"
`
	env := newTestEnvironment(t, repo, emptyInstalledYAML)
	fns := destinationFunctions(DefaultDestinationTypesFinder())
	fns.AlwaysViaBinaryFn = func(_ *Resolution, id *paludis.PackageID) bool {
		return id.Name.String() == "app/foo"
	}
	resolved := resolveTargets(t, env, fns, "app/foo")

	slash := resolutionAt(t, resolved.ResolutionsByResolvent, "app/foo", DestinationInstallToSlash)
	changes, ok := slash.Decision.(*ChangesToMakeDecision)
	if !ok {
		t.Fatalf("app/foo on / decision = %s, want changes to make", slash.Decision)
	}
	if changes.IfViaNewBinaryIn != "binaries" {
		t.Errorf("IfViaNewBinaryIn = %q, want binaries", changes.IfViaNewBinaryIn)
	}

	binary := resolutionAt(t, resolved.ResolutionsByResolvent, "app/foo", DestinationCreateBinary)
	via, ok := binary.Constraints.All()[0].Reason.(*ViaBinaryReason)
	if !ok || via.OtherResolvent != slash.Resolvent {
		t.Errorf("binary reason = %s, want via binary for %s", binary.Constraints.All()[0].Reason, slash.Resolvent)
	}

	want := []installTo{
		{"app/foo", DestinationCreateBinary, "binaries"},
		{"app/foo", DestinationInstallToSlash, "installed"},
	}
	if diff := cmp.Diff(want, installDestinations(resolved)); diff != "" {
		t.Errorf("installs mismatch (-want +got):\n%s", diff)
	}
}
