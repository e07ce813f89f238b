package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/bdwyertech/go-paludis/internal/config"
	"github.com/bdwyertech/go-paludis/pkg/paludis"
	"github.com/bdwyertech/go-paludis/pkg/plan"
	"github.com/bdwyertech/go-paludis/pkg/repository"
	"github.com/bdwyertech/go-paludis/pkg/resolver"
)

const testRepository = `
name: gentoo
packages:
  - name: app/foo
    version: "1"
    dependencies:
      - spec: app/bar
  - name: app/bar
    version: "1"
sets:
  world: [app/foo]
`

const testInstalled = `
name: installed
installed: true
packages: []
`

func TestFlagOverrides(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("target-slots", "", "")
	flags.Bool("take-suggestions", false, "")
	flags.Bool("permit-downgrade", false, "")
	flags.StringSlice("unmask", nil, "")
	flags.Int("max-restarts", 0, "")

	if err := flags.Parse([]string{"--target-slots=all", "--unmask=app/foo,app/bar", "--max-restarts=0"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	overlay := flagOverrides(flags)
	expected := &config.Config{
		TargetSlots: config.StringPtr("all"),
		Unmask:      []string{"app/foo", "app/bar"},
		MaxRestarts: config.IntPtr(0),
	}
	if *overlay.TargetSlots != "all" || overlay.TakeSuggestions != nil || overlay.PermitDowngrade != nil {
		t.Errorf("flagOverrides() = %+v, want only changed flags", overlay)
	}
	if len(overlay.Unmask) != 2 || overlay.MaxRestarts == nil || *overlay.MaxRestarts != 0 {
		t.Errorf("flagOverrides() = %+v, want %+v", overlay, expected)
	}
}

func TestResolveAndShowPlan(t *testing.T) {
	dir := t.TempDir()
	gentoo := filepath.Join(dir, "gentoo.yaml")
	installed := filepath.Join(dir, "installed.yaml")
	if err := os.WriteFile(gentoo, []byte(testRepository), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(installed, []byte(testInstalled), 0644); err != nil {
		t.Fatal(err)
	}

	configPath := filepath.Join(dir, "config.json")
	planPath := filepath.Join(dir, "plan.json")
	fileConfig := &config.Config{
		Repositories: []string{gentoo, installed},
		PlanPath:     config.StringPtr(planPath),
	}
	if err := fileConfig.Save(configPath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rootCmd.SetArgs([]string{"resolve", "--config", configPath, "--no-color", "--format", "summary", "--write-plan", "world"})
	if err := Execute(); err != nil {
		t.Fatalf("resolve error = %v", err)
	}

	manager := plan.NewManagerWithPath(planPath)
	if err := manager.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	p, err := manager.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(p.Targets) != 1 || p.Targets[0] != "world" {
		t.Errorf("Targets = %v, want [world]", p.Targets)
	}
	if len(p.Jobs.ExecuteJobs) == 0 {
		t.Error("plan should have execute jobs")
	}

	rootCmd.SetArgs([]string{"show-plan", "--config", configPath, "--check", "--format", "json"})
	if err := Execute(); err != nil {
		t.Fatalf("show-plan error = %v", err)
	}

	if err := os.WriteFile(gentoo, []byte(testRepository+"# changed\n"), 0644); err != nil {
		t.Fatal(err)
	}
	rootCmd.SetArgs([]string{"show-plan", "--config", configPath, "--check"})
	if err := Execute(); err == nil {
		t.Error("show-plan --check should fail after a repository changed")
	}
}

func TestResolveUnsatisfiable(t *testing.T) {
	dir := t.TempDir()
	gentoo := filepath.Join(dir, "gentoo.yaml")
	installed := filepath.Join(dir, "installed.yaml")
	if err := os.WriteFile(gentoo, []byte(testRepository), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(installed, []byte(testInstalled), 0644); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(dir, "config.json")
	if err := (&config.Config{Repositories: []string{gentoo, installed}}).Save(configPath); err != nil {
		t.Fatal(err)
	}

	rootCmd.SetArgs([]string{"resolve", "--config", configPath, "--format", "summary", "app/missing"})
	if err := Execute(); err == nil {
		t.Error("resolve should fail for a target with no candidates")
	}
}

func TestWriteGraph(t *testing.T) {
	spec := paludis.MustParsePackageDepSpec("=app/foo-1:0::gentoo")
	p := plan.New([]string{"app/foo"}, &resolver.JobLists{
		ExecuteJobs: []resolver.ExecuteJob{
			&resolver.FetchJob{OriginIDSpec: spec, JobState: resolver.JobPending},
			&resolver.InstallJob{
				OriginIDSpec:              spec,
				DestinationRepositoryName: "installed",
				JobRequirements:           []resolver.JobRequirement{{JobNumber: 0, RequiredIf: resolver.RequiredIfSatisfied}},
				JobState:                  resolver.JobPending,
			},
		},
	})

	tests := []struct {
		format string
		want   []string
	}{
		{"dot", []string{"digraph jobs {", `j0 [label="fetch =app/foo-1:0::gentoo"]`, `j1 -> j0 [label="satisfied"]`}},
		{"text", []string{"1: install =app/foo-1:0::gentoo to installed", "└── 0: fetch =app/foo-1:0::gentoo (satisfied)"}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeGraph(&buf, tt.format, p); err != nil {
				t.Fatalf("writeGraph() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}

	if err := writeGraph(&bytes.Buffer{}, "svg", p); err == nil {
		t.Error("writeGraph() should reject unknown formats")
	}
}

func TestListPackages(t *testing.T) {
	gentoo, err := repository.Parse([]byte(testRepository))
	if err != nil {
		t.Fatal(err)
	}
	installed, err := repository.Parse([]byte(`
name: installed
installed: true
packages:
  - name: app/bar
    version: "0.9"
`))
	if err != nil {
		t.Fatal(err)
	}
	env := repository.NewEnvironment(gentoo, installed)

	tests := []struct {
		name          string
		specs         []string
		installedOnly bool
		want          []string
	}{
		{"everything", nil, false, []string{"app/bar-1::gentoo", "app/foo-1::gentoo", "app/bar-0.9::installed"}},
		{"installed only", nil, true, []string{"app/bar-0.9::installed"}},
		{"by spec", []string{">=app/bar-1"}, false, []string{"app/bar-1::gentoo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var specs []paludis.PackageDepSpec
			for _, s := range tt.specs {
				specs = append(specs, paludis.MustParsePackageDepSpec(s))
			}
			var got []string
			for _, item := range listPackages(env, specs, tt.installedOnly) {
				got = append(got, item.Name+"-"+item.Version+"::"+item.Repository)
			}
			if strings.Join(got, " ") != strings.Join(tt.want, " ") {
				t.Errorf("listPackages() = %v, want %v", got, tt.want)
			}
		})
	}
}
