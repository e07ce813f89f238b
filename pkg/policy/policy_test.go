package policy

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/bdwyertech/go-paludis/internal/config"
	perrors "github.com/bdwyertech/go-paludis/pkg/errors"
	"github.com/bdwyertech/go-paludis/pkg/paludis"
	"github.com/bdwyertech/go-paludis/pkg/repository"
	"github.com/bdwyertech/go-paludis/pkg/resolver"
)

const gentooYAML = `
name: gentoo
packages:
  - name: app/foo
    version: "1"
    dependencies:
      - spec: app/docs
        labels: [suggestion]
      - spec: app/extra
        labels: [recommendation]
      - spec: dev/tool
        labels: [build]
  - name: app/docs
    version: "1"
  - name: app/extra
    version: "1"
  - name: dev/tool
    version: "1"
  - name: app/old
    version: "1"
  - name: app/new
    version: "2"
    masks:
      - key: keyword
        description: testing
`

const installedYAML = `
name: installed
installed: true
packages:
  - name: app/old
    version: "2"
`

var sortStrings = cmpopts.SortSlices(func(a, b string) bool { return a < b })

func newTestEnvironment(t *testing.T, repos ...string) *repository.Environment {
	t.Helper()
	var rs []*repository.Repository
	for _, data := range repos {
		repo, err := repository.Parse([]byte(data))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		rs = append(rs, repo)
	}
	return repository.NewEnvironment(rs...)
}

func resolve(t *testing.T, env *repository.Environment, cfg *config.Config, targets ...string) *resolver.Resolved {
	t.Helper()
	p, err := New(env, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	r := resolver.New(env, p.Functions())
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

func names(resolutions []*resolver.Resolution) []string {
	result := make([]string, 0, len(resolutions))
	for _, res := range resolutions {
		result = append(result, res.Resolvent.Package.String())
	}
	return result
}

func TestInterestInSpec(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *config.Config
		wantTaken   []string
		wantUntaken []string
	}{
		{
			name:        "defaults",
			cfg:         config.DefaultConfig(),
			wantTaken:   []string{"app/foo", "app/extra", "dev/tool"},
			wantUntaken: []string{"app/docs"},
		},
		{
			name:        "take suggestions",
			cfg:         &config.Config{TakeSuggestions: config.BoolPtr(true)},
			wantTaken:   []string{"app/foo", "app/docs", "app/extra", "dev/tool"},
			wantUntaken: []string{},
		},
		{
			name:        "leave recommendations",
			cfg:         &config.Config{TakeRecommendations: config.BoolPtr(false)},
			wantTaken:   []string{"app/foo", "dev/tool"},
			wantUntaken: []string{"app/docs", "app/extra"},
		},
		{
			name:        "take and ignore lists",
			cfg:         &config.Config{Take: []string{"app/docs"}, Ignore: []string{"dev/tool"}},
			wantTaken:   []string{"app/foo", "app/docs", "app/extra"},
			wantUntaken: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnvironment(t, gentooYAML, installedYAML)
			resolved := resolve(t, env, tt.cfg, "app/foo")

			var taken []string
			for _, job := range resolved.ExecuteJobs {
				if install, ok := job.(*resolver.InstallJob); ok {
					taken = append(taken, install.OriginIDSpec.Name.String())
				}
			}
			if diff := cmp.Diff(tt.wantTaken, taken, sortStrings); diff != "" {
				t.Errorf("taken mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantUntaken, names(resolved.UntakenChangeOrRemoveDecisions), sortStrings); diff != "" {
				t.Errorf("untaken mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUseExisting(t *testing.T) {
	p, err := New(newTestEnvironment(t, gentooYAML, installedYAML), &config.Config{
		TargetUseExisting:     config.StringPtr("if_same_version"),
		SetUseExisting:        config.StringPtr("only-if-transient"),
		DependencyUseExisting: config.StringPtr("never"),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	spec := paludis.MustParsePackageDepSpec("app/foo")
	tests := []struct {
		reason resolver.Reason
		want   resolver.UseExisting
	}{
		{&resolver.TargetReason{}, resolver.UseExistingIfSameVersion},
		{&resolver.SetReason{SetName: "world", ReasonForSet: &resolver.TargetReason{}}, resolver.UseExistingOnlyIfTransient},
		{&resolver.PresetReason{}, resolver.UseExistingNever},
	}
	for _, tt := range tests {
		if got := p.UseExisting(resolver.Resolvent{}, spec, tt.reason); got != tt.want {
			t.Errorf("UseExisting(%T) = %s, want %s", tt.reason, got, tt.want)
		}
	}
}

func TestPresets(t *testing.T) {
	const repo = `
name: gentoo
packages:
  - name: app/foo
    version: "1"
  - name: app/foo
    version: "2"
`
	env := newTestEnvironment(t, repo, `
name: installed
installed: true
packages: []
`)
	resolved := resolve(t, env, &config.Config{
		Presets:          []string{"<app/foo-2"},
		PermitOldVersion: config.BoolPtr(true),
	}, "app/foo")

	if len(resolved.ExecuteJobs) == 0 {
		t.Fatal("expected jobs")
	}
	var got string
	for _, job := range resolved.ExecuteJobs {
		if install, ok := job.(*resolver.InstallJob); ok {
			got = install.OriginIDSpec.String()
		}
	}
	if got != "=app/foo-1:0::gentoo" {
		t.Errorf("installed %s, want =app/foo-1:0::gentoo", got)
	}
}

func TestConfirmations(t *testing.T) {
	tests := []struct {
		name            string
		cfg             *config.Config
		target          string
		wantUnconfirmed bool
	}{
		{"downgrade refused", &config.Config{}, "=app/old-1", true},
		{"downgrade permitted", &config.Config{PermitDowngrade: config.BoolPtr(true)}, "=app/old-1", false},
		{"masked permitted", &config.Config{Unmask: []string{"app/new"}}, "app/new", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnvironment(t, gentooYAML, installedYAML)
			resolved := resolve(t, env, tt.cfg, tt.target)
			if got := len(resolved.TakenUnconfirmedDecisions) > 0; got != tt.wantUnconfirmed {
				t.Errorf("unconfirmed = %v, want %v", names(resolved.TakenUnconfirmedDecisions), tt.wantUnconfirmed)
			}
		})
	}
}

func TestMaskedWithoutUnmask(t *testing.T) {
	env := newTestEnvironment(t, gentooYAML, installedYAML)
	resolved := resolve(t, env, &config.Config{}, "app/new")

	if diff := cmp.Diff([]string{"app/new"}, names(resolved.TakenUnableToMakeDecisions)); diff != "" {
		t.Errorf("unable to make mismatch (-want +got):\n%s", diff)
	}
}

func TestOrderEarly(t *testing.T) {
	p, err := New(newTestEnvironment(t, gentooYAML, installedYAML), &config.Config{
		Early: []string{"app/docs"},
		Late:  []string{"*"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res := func(name string) *resolver.Resolution {
		return &resolver.Resolution{Resolvent: resolver.NewResolvent(paludis.MustQualifiedPackageName(name), "0", resolver.DestinationInstallToSlash)}
	}
	if got := p.OrderEarly(res("app/docs")); got != paludis.True {
		t.Errorf("OrderEarly(app/docs) = %s, want true", got)
	}
	if got := p.OrderEarly(res("app/foo")); got != paludis.False {
		t.Errorf("OrderEarly(app/foo) = %s, want false", got)
	}
}

func TestFindRepositoryFor(t *testing.T) {
	id := &paludis.PackageID{Name: paludis.MustQualifiedPackageName("app/foo")}

	p, err := New(newTestEnvironment(t, gentooYAML, installedYAML), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if repo, err := p.FindRepositoryFor(resolver.Resolvent{}, id); err != nil || repo != "installed" {
		t.Errorf("FindRepositoryFor() = %s, %v, want installed", repo, err)
	}

	p, err = New(newTestEnvironment(t, gentooYAML), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = p.FindRepositoryFor(resolver.Resolvent{}, id)
	if !perrors.IsKind(err, perrors.ErrorTypeRepository) {
		t.Errorf("FindRepositoryFor() error = %v, want a repository error", err)
	}

	p, err = New(newTestEnvironment(t, gentooYAML, installedYAML), &config.Config{BinaryRepository: config.StringPtr("binaries")})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	binary := resolver.Resolvent{DestinationType: resolver.DestinationCreateBinary}
	if repo, err := p.FindRepositoryFor(binary, id); err != nil || repo != "binaries" {
		t.Errorf("FindRepositoryFor(binary) = %s, %v, want binaries", repo, err)
	}
	chroot := resolver.Resolvent{DestinationType: resolver.DestinationInstallToChroot}
	if _, err := p.FindRepositoryFor(chroot, id); !perrors.IsKind(err, perrors.ErrorTypeRepository) {
		t.Errorf("FindRepositoryFor(chroot) error = %v, want a repository error", err)
	}
}

func TestNewErrors(t *testing.T) {
	env := newTestEnvironment(t, gentooYAML, installedYAML)
	tests := []struct {
		name string
		cfg  *config.Config
	}{
		{"bad spec list", &config.Config{PermitRemove: []string{"not a spec"}}},
		{"bad slot policy", &config.Config{DependencySlots: config.StringPtr("newest")}},
		{"bad use existing", &config.Config{TargetUseExisting: config.StringPtr("sometimes")}},
		{"bad make", &config.Config{Make: config.StringPtr("everything")}},
		{"bad via binary", &config.Config{ViaBinary: []string{"not a spec"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(env, tt.cfg)
			if !perrors.IsKind(err, perrors.ErrorTypeConfiguration) {
				t.Errorf("New() error = %v, want a configuration error", err)
			}
		})
	}
}

func TestDestinations(t *testing.T) {
	runDep := &resolver.DependencyReason{Dependency: paludis.SanitisedDependency{
		Spec:   paludis.MustParsePackageOrBlockDepSpec("app/lib"),
		Labels: paludis.DefaultDependencyLabels,
	}}
	buildDep := &resolver.DependencyReason{Dependency: paludis.SanitisedDependency{
		Spec:   paludis.MustParsePackageOrBlockDepSpec("dev/tool"),
		Labels: paludis.NewDependencyLabels(paludis.LabelBuild),
	}}
	binaries := config.StringPtr("binaries")

	tests := []struct {
		name   string
		cfg    *config.Config
		reason resolver.Reason
		want   []resolver.DestinationType
	}{
		{"install target", &config.Config{}, &resolver.TargetReason{},
			[]resolver.DestinationType{resolver.DestinationInstallToSlash}},
		{"binaries target", &config.Config{Make: binaries, BinaryRepository: binaries}, &resolver.TargetReason{},
			[]resolver.DestinationType{resolver.DestinationCreateBinary}},
		{"binaries runtime dependency", &config.Config{Make: binaries, BinaryRepository: binaries}, runDep,
			[]resolver.DestinationType{resolver.DestinationCreateBinary, resolver.DestinationInstallToSlash}},
		{"binaries without dependencies", &config.Config{Make: binaries, BinaryRepository: binaries, MakeDependencies: config.StringPtr("none")}, runDep,
			[]resolver.DestinationType{resolver.DestinationInstallToSlash}},
		{"chroot all dependencies", &config.Config{Make: config.StringPtr("chroot"), ChrootRepository: config.StringPtr("chroot"), MakeDependencies: config.StringPtr("all")}, buildDep,
			[]resolver.DestinationType{resolver.DestinationInstallToChroot, resolver.DestinationInstallToSlash}},
		{"runtime dependencies to slash", &config.Config{DependenciesToSlash: config.StringPtr("runtime")}, buildDep, nil},
		{"build dependencies to slash", &config.Config{DependenciesToSlash: config.StringPtr("build")}, buildDep,
			[]resolver.DestinationType{resolver.DestinationInstallToSlash}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(newTestEnvironment(t, gentooYAML, installedYAML), tt.cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			got := p.DestinationTypesFor(paludis.PackageDepSpec{}, tt.reason)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DestinationTypesFor() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMakeBinaries(t *testing.T) {
	env := newTestEnvironment(t, gentooYAML, installedYAML)
	resolved := resolve(t, env, &config.Config{
		Make:             config.StringPtr("binaries"),
		BinaryRepository: config.StringPtr("binaries"),
		ViaBinary:        []string{"app/extra"},
	}, "app/foo")

	got := make(map[string][]string)
	for _, job := range resolved.ExecuteJobs {
		if install, ok := job.(*resolver.InstallJob); ok {
			name := install.OriginIDSpec.Name.String()
			got[name] = append(got[name], string(install.DestinationType)+" "+string(install.DestinationRepositoryName))
		}
	}
	want := map[string][]string{
		"app/foo":   {"create_binary binaries"},
		"app/extra": {"create_binary binaries", "install_to_slash installed"},
		"dev/tool":  {"install_to_slash installed"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("installs mismatch (-want +got):\n%s", diff)
	}
}
