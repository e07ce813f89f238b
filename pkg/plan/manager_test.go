package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	perrors "github.com/bdwyertech/go-paludis/pkg/errors"
	"github.com/bdwyertech/go-paludis/pkg/paludis"
	"github.com/bdwyertech/go-paludis/pkg/resolver"
)

func testJobs() *resolver.JobLists {
	spec := paludis.MustParsePackageDepSpec("=app/foo-1:0::gentoo")
	return &resolver.JobLists{
		PretendJobs: []*resolver.PretendJob{{
			OriginIDSpec:              spec,
			DestinationRepositoryName: "installed",
			DestinationType:           resolver.DestinationInstallToSlash,
		}},
		ExecuteJobs: []resolver.ExecuteJob{
			&resolver.FetchJob{OriginIDSpec: spec, JobState: resolver.JobPending},
			&resolver.InstallJob{
				OriginIDSpec:              spec,
				DestinationRepositoryName: "installed",
				DestinationType:           resolver.DestinationInstallToSlash,
				WasTarget:                 true,
				JobRequirements:           []resolver.JobRequirement{{JobNumber: 0, RequiredIf: resolver.RequiredIfSatisfied | resolver.RequiredIfAlways}},
				JobState:                  resolver.JobPending,
			},
		},
	}
}

func jobStrings(jobs *resolver.JobLists) []string {
	var result []string
	for _, j := range jobs.PretendJobs {
		result = append(result, j.String())
	}
	for _, j := range jobs.ExecuteJobs {
		result = append(result, j.String())
	}
	return result
}

func TestNewManager(t *testing.T) {
	workDir := "/tmp/test"
	manager := NewManager(workDir)

	expectedPath := filepath.Join(workDir, DefaultPlanFileName)
	if manager.GetPath() != expectedPath {
		t.Errorf("Expected path %s, got %s", expectedPath, manager.GetPath())
	}

	customPath := "/tmp/custom/plan.json"
	if got := NewManagerWithPath(customPath).GetPath(); got != customPath {
		t.Errorf("Expected path %s, got %s", customPath, got)
	}
}

func TestManagerSaveAndLoad(t *testing.T) {
	manager := NewManagerWithPath(filepath.Join(t.TempDir(), "nested", "plan.json"))

	if manager.Exists() {
		t.Error("Plan file should not exist initially")
	}
	if _, err := manager.Load(); err == nil {
		t.Error("Load() should fail for a missing plan")
	}

	original := New([]string{"app/foo"}, testJobs())
	original.Fingerprint = "0123456789abcdef"
	if err := manager.Save(original); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !manager.Exists() {
		t.Fatal("Plan file should exist after saving")
	}

	loaded, err := manager.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.ID != original.ID {
		t.Errorf("ID = %s, want %s", loaded.ID, original.ID)
	}
	if diff := cmp.Diff(original.Targets, loaded.Targets); diff != "" {
		t.Errorf("Targets mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(jobStrings(original.Jobs), jobStrings(loaded.Jobs)); diff != "" {
		t.Errorf("Jobs mismatch (-want +got):\n%s", diff)
	}
	install := loaded.Jobs.ExecuteJobs[1].(*resolver.InstallJob)
	if len(install.JobRequirements) != 1 || !install.JobRequirements[0].RequiredIf.Has(resolver.RequiredIfAlways) {
		t.Errorf("JobRequirements = %+v, want one always requirement", install.JobRequirements)
	}
	if loaded.JobCount() != 3 {
		t.Errorf("JobCount() = %d, want 3", loaded.JobCount())
	}

	if err := manager.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestManagerIsOutdated(t *testing.T) {
	manager := NewManager(t.TempDir())

	outdated, err := manager.IsOutdated("abc")
	if err != nil || !outdated {
		t.Errorf("IsOutdated() = %v, %v for a missing plan, want true", outdated, err)
	}

	p := New([]string{"app/foo"}, testJobs())
	p.Fingerprint = "abc"
	if err := manager.Save(p); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	tests := []struct {
		fingerprint string
		want        bool
	}{
		{"abc", false},
		{"def", true},
	}
	for _, tt := range tests {
		got, err := manager.IsOutdated(tt.fingerprint)
		if err != nil {
			t.Fatalf("IsOutdated() error = %v", err)
		}
		if got != tt.want {
			t.Errorf("IsOutdated(%s) = %v, want %v", tt.fingerprint, got, tt.want)
		}
	}
}

func TestManagerValidate(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantKind perrors.ErrorType
	}{
		{"missing", "", perrors.ErrorTypeFileSystem},
		{"not json", `{"revision": `, perrors.ErrorTypeSerialisation},
		{"bad revision", `{"revision": 9, "id": "0190b6a4-7d3c-7cc1-b0a4-6a2f1e8c4d21", "targets": ["app/foo"], "jobs": {"_class": "JobLists", "pretend_job_list": [], "execute_job_list": []}}`, perrors.ErrorTypeValidation},
		{"bad id", `{"revision": 1, "id": "nope", "targets": ["app/foo"], "jobs": {"_class": "JobLists", "pretend_job_list": [], "execute_job_list": []}}`, perrors.ErrorTypeValidation},
		{"no jobs", `{"revision": 1, "id": "0190b6a4-7d3c-7cc1-b0a4-6a2f1e8c4d21", "targets": ["app/foo"]}`, perrors.ErrorTypeValidation},
		{"no targets", `{"revision": 1, "id": "0190b6a4-7d3c-7cc1-b0a4-6a2f1e8c4d21", "targets": [], "jobs": {"_class": "JobLists", "pretend_job_list": [], "execute_job_list": []}}`, perrors.ErrorTypeValidation},
		{"valid", `{"revision": 1, "id": "0190b6a4-7d3c-7cc1-b0a4-6a2f1e8c4d21", "targets": ["app/foo"], "jobs": {"_class": "JobLists", "pretend_job_list": [], "execute_job_list": []}}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := NewManager(t.TempDir())
			if tt.content != "" {
				if err := os.WriteFile(manager.GetPath(), []byte(tt.content), 0644); err != nil {
					t.Fatalf("WriteFile() error = %v", err)
				}
			}
			err := manager.Validate()
			if tt.wantKind == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !perrors.IsKind(err, tt.wantKind) {
				t.Errorf("Validate() error = %v, want a %s error", err, tt.wantKind)
			}
		})
	}
}

func TestManagerRemoveAndBackup(t *testing.T) {
	manager := NewManager(t.TempDir())

	if err := manager.Backup(); !perrors.IsKind(err, perrors.ErrorTypeFileSystem) {
		t.Errorf("Backup() without a plan error = %v, want a filesystem error", err)
	}
	if err := manager.Remove(); err != nil {
		t.Errorf("Remove() of a missing plan error = %v", err)
	}

	if err := manager.Save(New([]string{"app/foo"}, testJobs())); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := manager.Backup(); err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if _, err := os.Stat(manager.GetPath() + ".backup"); err != nil {
		t.Errorf("backup file missing: %v", err)
	}

	if err := manager.Remove(); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if manager.Exists() {
		t.Error("Plan file should not exist after Remove()")
	}
	if _, err := os.Stat(manager.GetPath() + ".lock"); !os.IsNotExist(err) {
		t.Errorf("lock file should be removed, stat error = %v", err)
	}
}

func TestFingerprint(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	if err := os.WriteFile(a, []byte("name: a\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("name: b\n"), 0644); err != nil {
		t.Fatal(err)
	}

	first, err := Fingerprint([]string{a, b})
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	if len(first) != 16 {
		t.Errorf("Fingerprint() = %q, want 16 hex digits", first)
	}

	again, _ := Fingerprint([]string{a, b})
	if again != first {
		t.Errorf("Fingerprint() is not stable: %s then %s", first, again)
	}

	reordered, _ := Fingerprint([]string{b, a})
	if reordered == first {
		t.Error("Fingerprint() should depend on repository order")
	}

	if err := os.WriteFile(b, []byte("name: b\npackages: []\n"), 0644); err != nil {
		t.Fatal(err)
	}
	changed, _ := Fingerprint([]string{a, b})
	if changed == first {
		t.Error("Fingerprint() should change with file contents")
	}

	if _, err := Fingerprint([]string{filepath.Join(dir, "missing.yaml")}); err == nil {
		t.Error("Fingerprint() should fail for a missing file")
	}
}
