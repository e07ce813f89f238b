package config

import (
	"reflect"
	"testing"
)

func TestMergeConfigs(t *testing.T) {
	tests := []struct {
		name     string
		base     *Config
		overlay  *Config
		expected *Config
	}{
		{
			name:     "nil base and overlay",
			base:     nil,
			overlay:  nil,
			expected: DefaultConfig(),
		},
		{
			name:     "nil base with overlay",
			base:     nil,
			overlay:  &Config{PlanPath: StringPtr("/overlay/plan.json")},
			expected: &Config{PlanPath: StringPtr("/overlay/plan.json")},
		},
		{
			name:     "base with nil overlay",
			base:     &Config{PlanPath: StringPtr("/base/plan.json"), TakeSuggestions: BoolPtr(true)},
			overlay:  nil,
			expected: &Config{PlanPath: StringPtr("/base/plan.json"), TakeSuggestions: BoolPtr(true)},
		},
		{
			name: "overlay slot policy",
			base: &Config{
				TargetSlots:     StringPtr("best"),
				DependencySlots: StringPtr("best-or-installed"),
				MaxRestarts:     IntPtr(30),
			},
			overlay: &Config{
				TargetSlots: StringPtr("installed"),
			},
			expected: &Config{
				TargetSlots:     StringPtr("installed"),
				DependencySlots: StringPtr("best-or-installed"), // preserved from base
				MaxRestarts:     IntPtr(30),                     // preserved from base
			},
		},
		{
			name: "overlay boolean values",
			base: &Config{
				TakeRecommendations: BoolPtr(true),
				PermitDowngrade:     BoolPtr(true),
			},
			overlay: &Config{
				TakeRecommendations: BoolPtr(false), // explicitly set to false
			},
			expected: &Config{
				TakeRecommendations: BoolPtr(false),
				PermitDowngrade:     BoolPtr(true),
			},
		},
		{
			name: "overlay integer values",
			base: &Config{
				MaxRestarts:    IntPtr(9000),
				MaxRedecisions: IntPtr(100),
				Concurrency:    IntPtr(4),
			},
			overlay: &Config{
				MaxRestarts: IntPtr(0), // explicitly set to 0
				Concurrency: IntPtr(10),
				// MaxRedecisions not set (nil) - should preserve base value
			},
			expected: &Config{
				MaxRestarts:    IntPtr(0),
				MaxRedecisions: IntPtr(100), // preserved from base
				Concurrency:    IntPtr(10),
			},
		},
		{
			name: "overlay string slices",
			base: &Config{
				Repositories: []string{"gentoo.yaml", "installed.yaml"},
				Unmask:       []string{"app/foo"},
			},
			overlay: &Config{
				Repositories: []string{"overlay.yaml", "installed.yaml"},
			},
			expected: &Config{
				Repositories: []string{"overlay.yaml", "installed.yaml"},
				Unmask:       []string{"app/foo"}, // preserved from base
			},
		},
		{
			name: "complete merge scenario",
			base: DefaultConfig(),
			overlay: &Config{
				Repositories:    []string{"gentoo.yaml"},
				TargetSlots:     StringPtr("all"),
				TakeSuggestions: BoolPtr(true),
				PermitRemove:    []string{"app/old"},
				Concurrency:     IntPtr(1),
			},
			expected: func() *Config {
				cfg := DefaultConfig()
				cfg.Repositories = []string{"gentoo.yaml"}
				cfg.TargetSlots = StringPtr("all")
				cfg.TakeSuggestions = BoolPtr(true)
				cfg.PermitRemove = []string{"app/old"}
				cfg.Concurrency = IntPtr(1)
				return cfg
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MergeConfigs(tt.base, tt.overlay)

			if !configsEqual(result, tt.expected) {
				t.Errorf("MergeConfigs() mismatch:\ngot:  %+v\nwant: %+v", result, tt.expected)
			}
		})
	}
}

func TestMergeConfigsLeavesInputsAlone(t *testing.T) {
	base := &Config{TargetSlots: StringPtr("best")}
	overlay := &Config{TargetSlots: StringPtr("installed")}

	MergeConfigs(base, overlay)

	if *base.TargetSlots != "best" {
		t.Errorf("base.TargetSlots = %s, want best", *base.TargetSlots)
	}
}

// configsEqual compares two configs, following pointer fields
func configsEqual(a, b *Config) bool {
	return reflect.DeepEqual(a, b)
}
