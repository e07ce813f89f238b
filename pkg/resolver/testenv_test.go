package resolver

import (
	"context"
	"testing"

	"github.com/bdwyertech/go-paludis/pkg/paludis"
	"github.com/bdwyertech/go-paludis/pkg/repository"
)

const emptyInstalledYAML = `
name: installed
installed: true
packages: []
`

func newTestEnvironment(t *testing.T, repos ...string) *repository.Environment {
	t.Helper()
	var rs []*repository.Repository
	for _, data := range repos {
		repo, err := repository.Parse([]byte(data))
		if err != nil {
			t.Fatalf("Failed to parse test repository: %v", err)
		}
		rs = append(rs, repo)
	}
	return repository.NewEnvironment(rs...)
}

// resolveTargets resolves targets with fresh resolver functions and fails the
// test on any error
func resolveTargets(t *testing.T, env Environment, fns ResolverFunctions, targets ...string) *Resolved {
	t.Helper()
	r := New(env, fns)
	for _, target := range targets {
		if err := r.AddTarget(target, ""); err != nil {
			t.Fatalf("AddTarget(%s) error = %v", target, err)
		}
	}
	if err := r.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return r.Resolved()
}

func mustName(t *testing.T, s string) paludis.QualifiedPackageName {
	t.Helper()
	name, err := paludis.NewQualifiedPackageName(s)
	if err != nil {
		t.Fatalf("NewQualifiedPackageName(%s) error = %v", s, err)
	}
	return name
}

func mustSpec(t *testing.T, s string) paludis.PackageOrBlockDepSpec {
	t.Helper()
	spec, err := paludis.ParsePackageOrBlockDepSpec(s)
	if err != nil {
		t.Fatalf("ParsePackageOrBlockDepSpec(%s) error = %v", s, err)
	}
	return spec
}

// installOrder lists the package names of the install jobs, in job order
func installOrder(resolved *Resolved) []string {
	var names []string
	for _, job := range resolved.ExecuteJobs {
		if install, ok := job.(*InstallJob); ok {
			names = append(names, install.OriginIDSpec.Name.String())
		}
	}
	return names
}

func countJobs(resolved *Resolved) (installs, uninstalls, fetches int) {
	for _, job := range resolved.ExecuteJobs {
		switch job.(type) {
		case *InstallJob:
			installs++
		case *UninstallJob:
			uninstalls++
		case *FetchJob:
			fetches++
		}
	}
	return installs, uninstalls, fetches
}

func resolventNames(resolutions []*Resolution) []string {
	names := make([]string, 0, len(resolutions))
	for _, res := range resolutions {
		names = append(names, res.Resolvent.Package.String())
	}
	return names
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func findResolution(t *testing.T, resolutions *ResolutionsByResolvent, name string) *Resolution {
	t.Helper()
	for _, res := range resolutions.All() {
		if res.Resolvent.Package.String() == name {
			return res
		}
	}
	t.Fatalf("No resolution for %s", name)
	return nil
}
