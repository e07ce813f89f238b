package repository

import (
	"testing"

	"github.com/bdwyertech/go-paludis/pkg/paludis"
)

func newTestEnvironment(t *testing.T) *Environment {
	t.Helper()
	gentoo, err := Parse([]byte(gentooYAML))
	if err != nil {
		t.Fatalf("Parse(gentoo) error = %v", err)
	}
	installed, err := Parse([]byte(installedYAML))
	if err != nil {
		t.Fatalf("Parse(installed) error = %v", err)
	}
	return NewEnvironment(gentoo, installed)
}

func TestFindCandidates(t *testing.T) {
	env := newTestEnvironment(t)

	ids := env.FindCandidates(paludis.MustParsePackageDepSpec("app/bar"))
	if len(ids) != 3 {
		t.Fatalf("FindCandidates() returned %d IDs, want 3", len(ids))
	}
	for i, want := range []string{"1", "2", "3"} {
		if ids[i].Version.String() != want {
			t.Errorf("ids[%d] = %s, want version %s", i, ids[i], want)
		}
	}
	if !ids[0].Installed {
		t.Error("app/bar-1 should be installed")
	}

	onlyInstalled := env.FindCandidates(paludis.MustParsePackageDepSpec("app/bar::installed"))
	if len(onlyInstalled) != 1 {
		t.Errorf("::installed should restrict to one ID, got %d", len(onlyInstalled))
	}

	if len(env.InstalledIDs()) != 1 {
		t.Errorf("InstalledIDs() = %d, want 1", len(env.InstalledIDs()))
	}
}

func TestMaskReasons(t *testing.T) {
	env := newTestEnvironment(t)
	ids := env.FindCandidates(paludis.MustParsePackageDepSpec("app/bar"))

	if env.IsMasked(ids[1]) {
		t.Error("app/bar-2 should not be masked")
	}
	if !env.IsMasked(ids[2]) {
		t.Error("app/bar-3 should be masked by keyword")
	}

	env.AddUserMask(paludis.MustParsePackageDepSpec("=app/bar-2"), "broken")
	reasons := env.MaskReasons(ids[1])
	if len(reasons) != 1 || reasons[0].Key != "user" {
		t.Errorf("MaskReasons() = %v, want one user mask", reasons)
	}

	env.AddUserMask(paludis.MustParsePackageDepSpec("app/bar"), "everything")
	if env.IsMasked(ids[0]) {
		t.Error("installed IDs are never masked")
	}
}

func TestResolveSet(t *testing.T) {
	env := newTestEnvironment(t)

	if _, ok := env.ResolveSet("set1"); !ok {
		t.Error("set1 should resolve")
	}
	tree, ok := env.ResolveSet("set1::gentoo")
	if !ok || len(tree.Children) != 2 {
		t.Errorf("set1::gentoo should resolve to two members, got %v", tree)
	}
	if _, ok := env.ResolveSet("set1::installed"); ok {
		t.Error("set1::installed should not resolve")
	}
	if _, ok := env.ResolveSet("nosuchset"); ok {
		t.Error("nosuchset should not resolve")
	}
	if names := env.SetNames(); len(names) != 1 || names[0] != "set1" {
		t.Errorf("SetNames() = %v", names)
	}
}

func TestFindCandidatesCache(t *testing.T) {
	env := newTestEnvironment(t)
	spec := paludis.MustParsePackageDepSpec("app/bar")

	first := env.FindCandidates(spec)
	first[0] = nil
	second := env.FindCandidates(spec)
	if second[0] == nil {
		t.Fatal("callers must not be able to modify cached results")
	}

	extra := NewRepository("overlay", false)
	v, err := paludis.NewVersion("4")
	if err != nil {
		t.Fatalf("NewVersion() error = %v", err)
	}
	extra.AddPackage(&paludis.PackageID{Name: spec.Name, Version: v, Slot: "0"})
	env.AddRepository(extra)

	if got := env.FindCandidates(spec); len(got) != 4 {
		t.Errorf("FindCandidates() after AddRepository = %d IDs, want 4", len(got))
	}
}
