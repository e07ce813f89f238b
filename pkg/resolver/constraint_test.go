package resolver

import (
	"testing"

	"github.com/bdwyertech/go-paludis/pkg/paludis"
)

func testConstraint(t *testing.T, spec string, ue UseExisting, untaken, nothingFine bool) *Constraint {
	t.Helper()
	return &Constraint{
		DestinationType:  DestinationInstallToSlash,
		Spec:             mustSpec(t, spec),
		Reason:           &TargetReason{},
		UseExisting:      ue,
		Untaken:          untaken,
		NothingIsFineToo: nothingFine,
	}
}

func TestConstraintsEmpty(t *testing.T) {
	var cs Constraints

	if !cs.Empty() {
		t.Error("zero Constraints should be empty")
	}
	if got := cs.StrictestUseExisting(); got != UseExistingIfPossible {
		t.Errorf("StrictestUseExisting() = %s, want if_possible", got)
	}
	if !cs.NothingIsFineToo() {
		t.Error("NothingIsFineToo() should be true with no constraints")
	}
	if !cs.AllUntaken() {
		t.Error("AllUntaken() should be true with no constraints")
	}
}

func TestConstraintsMonotonic(t *testing.T) {
	cs := NewConstraints()
	steps := []struct {
		constraint      *Constraint
		wantStrictest   UseExisting
		wantNothingFine bool
		wantAllUntaken  bool
	}{
		{testConstraint(t, "app/foo", UseExistingIfSameVersion, true, true), UseExistingIfSameVersion, true, true},
		{testConstraint(t, "app/foo", UseExistingIfPossible, true, true), UseExistingIfSameVersion, true, true},
		{testConstraint(t, ">=app/foo-1", UseExistingIfSame, false, true), UseExistingIfSame, true, false},
		{testConstraint(t, "app/foo", UseExistingIfPossible, true, false), UseExistingIfSame, false, false},
		{testConstraint(t, "app/foo", UseExistingNever, true, true), UseExistingNever, false, false},
		{testConstraint(t, "app/foo", UseExistingIfPossible, true, true), UseExistingNever, false, false},
	}

	for i, step := range steps {
		cs.Add(step.constraint)
		if got := cs.StrictestUseExisting(); got != step.wantStrictest {
			t.Errorf("step %d: StrictestUseExisting() = %s, want %s", i, got, step.wantStrictest)
		}
		if got := cs.NothingIsFineToo(); got != step.wantNothingFine {
			t.Errorf("step %d: NothingIsFineToo() = %v, want %v", i, got, step.wantNothingFine)
		}
		if got := cs.AllUntaken(); got != step.wantAllUntaken {
			t.Errorf("step %d: AllUntaken() = %v, want %v", i, got, step.wantAllUntaken)
		}
		if cs.Len() != i+1 {
			t.Errorf("step %d: Len() = %d, want %d", i, cs.Len(), i+1)
		}
	}
}

func TestConstraintsOrderIndependent(t *testing.T) {
	all := []*Constraint{
		testConstraint(t, "app/foo", UseExistingIfPossible, true, true),
		testConstraint(t, "app/foo", UseExistingOnlyIfTransient, false, true),
		testConstraint(t, "app/foo", UseExistingIfSame, true, false),
	}
	orders := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}

	for _, order := range orders {
		cs := NewConstraints()
		for _, i := range order {
			cs.Add(all[i])
		}
		if got := cs.StrictestUseExisting(); got != UseExistingOnlyIfTransient {
			t.Errorf("order %v: StrictestUseExisting() = %s, want only_if_transient", order, got)
		}
		if cs.NothingIsFineToo() {
			t.Errorf("order %v: NothingIsFineToo() = true, want false", order)
		}
		if cs.AllUntaken() {
			t.Errorf("order %v: AllUntaken() = true, want false", order)
		}
	}
}

func TestConstraintsClone(t *testing.T) {
	cs := NewConstraints()
	cs.Add(testConstraint(t, "app/foo", UseExistingIfPossible, true, true))

	clone := cs.Clone()
	clone.Add(testConstraint(t, "app/foo", UseExistingNever, false, false))

	if cs.Len() != 1 {
		t.Errorf("original Len() = %d after adding to clone, want 1", cs.Len())
	}
	if cs.StrictestUseExisting() != UseExistingIfPossible || !cs.AllUntaken() || !cs.NothingIsFineToo() {
		t.Error("adding to a clone changed the original's summaries")
	}
	if clone.Len() != 2 || clone.StrictestUseExisting() != UseExistingNever {
		t.Errorf("clone = %d constraints, strictest %s", clone.Len(), clone.StrictestUseExisting())
	}
}

func TestConstraintAllows(t *testing.T) {
	version, err := paludis.NewVersion("2")
	if err != nil {
		t.Fatalf("NewVersion() error = %v", err)
	}
	id := &paludis.PackageID{Name: mustName(t, "app/foo"), Version: version, Slot: "0", Repository: "gentoo"}

	tests := []struct {
		spec string
		want bool
	}{
		{"app/foo", true},
		{">=app/foo-3", false},
		{"app/foo:1", false},
		{"!app/foo", false},
		{"!>=app/foo-3", true},
		{"!!app/bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			c := testConstraint(t, tt.spec, UseExistingIfPossible, false, false)
			if got := c.allows(id); got != tt.want {
				t.Errorf("allows(%s) = %v, want %v", id, got, tt.want)
			}
		})
	}
}

func TestParseUseExisting(t *testing.T) {
	tests := []struct {
		input   string
		want    UseExisting
		wantErr bool
	}{
		{"never", UseExistingNever, false},
		{"only-if-transient", UseExistingOnlyIfTransient, false},
		{"if_same", UseExistingIfSame, false},
		{"IF_SAME_VERSION", UseExistingIfSameVersion, false},
		{"if-possible", UseExistingIfPossible, false},
		{"sometimes", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseUseExisting(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseUseExisting(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseUseExisting(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}
