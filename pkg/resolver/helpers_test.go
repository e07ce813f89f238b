package resolver

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bdwyertech/go-paludis/pkg/paludis"
)

const slottedYAML = `
name: gentoo
packages:
  - name: app/foo
    version: "1"
    slot: "1"
  - name: app/foo
    version: "2"
    slot: "2"
  - name: app/foo
    version: "3"
    slot: "3"
    masks:
      - key: keyword
`

func slotNames(resolvents []Resolvent) []string {
	names := make([]string, 0, len(resolvents))
	for _, r := range resolvents {
		names = append(names, string(r.Slot.Name))
	}
	return names
}

func installedFoo(slots ...string) string {
	yaml := "name: installed\ninstalled: true\npackages:\n"
	for _, s := range slots {
		yaml += "  - name: app/foo\n    version: \"" + s + "\"\n    slot: \"" + s + "\"\n"
	}
	if len(slots) == 0 {
		yaml += "  []\n"
	}
	return yaml
}

func TestResolventsForSlotPreferences(t *testing.T) {
	tests := []struct {
		policy    string
		installed []string
		want      []string
	}{
		{"best", []string{"1"}, []string{"2"}},
		{"installed", []string{"1"}, []string{"1"}},
		{"installed", nil, []string{}},
		{"all", []string{"1"}, []string{"2", "1"}},
		{"all", []string{"1", "2"}, []string{"1", "2"}},
		{"best-or-installed", []string{"1"}, []string{"2"}},
		{"best-or-installed", []string{"1", "2"}, []string{"1", "2"}},
		{"installed-or-best", []string{"1"}, []string{"1"}},
		{"installed-or-best", nil, []string{"2"}},
	}

	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			env := newTestEnvironment(t, slottedYAML, installedFoo(tt.installed...))
			prefs, err := ParseSlotPreferences(tt.policy)
			if err != nil {
				t.Fatalf("ParseSlotPreferences(%s) error = %v", tt.policy, err)
			}

			helper := NewResolventsForHelper(env)
			helper.TargetSlots = prefs
			spec := mustSpec(t, "app/foo").PositiveSpec()
			got := helper.ResolventsFor(spec, &TargetReason{}, []DestinationType{DestinationInstallToSlash})

			if diff := cmp.Diff(tt.want, slotNames(got)); diff != "" {
				t.Errorf("slots with %v installed mismatch (-want +got):\n%s", tt.installed, diff)
			}
		})
	}
}

func TestResolventsForTargetAndOther(t *testing.T) {
	env := newTestEnvironment(t, slottedYAML, installedFoo("1"))
	helper := NewResolventsForHelper(env)
	helper.TargetSlots, _ = ParseSlotPreferences("installed")
	helper.OtherSlots, _ = ParseSlotPreferences("best")
	spec := mustSpec(t, "app/foo").PositiveSpec()
	dts := []DestinationType{DestinationInstallToSlash}

	if got := slotNames(helper.ResolventsFor(spec, &SetReason{SetName: "world", ReasonForSet: &TargetReason{}}, dts)); len(got) != 1 || got[0] != "1" {
		t.Errorf("target slots = %v, want [1]", got)
	}
	if got := slotNames(helper.ResolventsFor(spec, &PresetReason{}, dts)); len(got) != 1 || got[0] != "2" {
		t.Errorf("other slots = %v, want [2]", got)
	}
}

func TestResolventsForMasked(t *testing.T) {
	env := newTestEnvironment(t, slottedYAML, emptyInstalledYAML)
	helper := NewResolventsForHelper(env)
	spec := mustSpec(t, "app/foo").PositiveSpec()
	dts := []DestinationType{DestinationInstallToSlash, DestinationCreateBinary}

	got := helper.ResolventsFor(spec, &TargetReason{}, dts)
	want := []Resolvent{
		NewResolvent(mustName(t, "app/foo"), "2", DestinationInstallToSlash),
		NewResolvent(mustName(t, "app/foo"), "2", DestinationCreateBinary),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resolvents mismatch (-want +got):\n%s", diff)
	}

	helper.PermitMasked = func(id *paludis.PackageID) bool { return id.Version.String() == "3" }
	if got := slotNames(helper.ResolventsFor(spec, &TargetReason{}, dts[:1])); len(got) != 1 || got[0] != "3" {
		t.Errorf("slots with masked permitted = %v, want [3]", got)
	}
}

func TestResolventsForExplicitSlot(t *testing.T) {
	env := newTestEnvironment(t, slottedYAML, emptyInstalledYAML)
	helper := NewResolventsForHelper(env)
	spec := mustSpec(t, "app/foo:1").PositiveSpec()

	got := slotNames(helper.ResolventsFor(spec, &TargetReason{}, []DestinationType{DestinationInstallToSlash}))
	if diff := cmp.Diff([]string{"1"}, got); diff != "" {
		t.Errorf("slots mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSlotPreferences(t *testing.T) {
	for _, policy := range []string{"best", "installed", "all", "best-or-installed", "installed-or-best"} {
		if _, err := ParseSlotPreferences(policy); err != nil {
			t.Errorf("ParseSlotPreferences(%s) error = %v", policy, err)
		}
	}
	for _, policy := range []string{"", "newest", "BEST"} {
		if _, err := ParseSlotPreferences(policy); err == nil {
			t.Errorf("ParseSlotPreferences(%q) should fail", policy)
		}
	}
}
