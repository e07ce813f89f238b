package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"

	perrors "github.com/bdwyertech/go-paludis/pkg/errors"
)

// Config represents resolver configuration. Every field is optional so that
// files, the environment and flags can be layered; use the getters to read a
// value with its default applied.
type Config struct {
	// Repositories are YAML repository files, in priority order
	Repositories []string `json:"repositories,omitempty"`
	// InstalledRepository receives installs; defaults to the first installed repository
	InstalledRepository *string `json:"installed_repository,omitempty"`

	// Make is what to do with targets: install, binaries or chroot
	Make *string `json:"make,omitempty"`
	// MakeDependencies is which dependencies of targets follow them when Make is
	// not install: auto, runtime, all or none
	MakeDependencies *string `json:"make_dependencies,omitempty"`
	// DependenciesToSlash is which dependencies go to /: all, runtime, build or none
	DependenciesToSlash *string  `json:"dependencies_to_slash,omitempty"`
	BinaryRepository    *string  `json:"binary_repository,omitempty"`
	ChrootRepository    *string  `json:"chroot_repository,omitempty"`
	ViaBinary           []string `json:"via_binary,omitempty"`

	TargetSlots           *string `json:"target_slots,omitempty"`
	DependencySlots       *string `json:"dependency_slots,omitempty"`
	TargetUseExisting     *string `json:"target_use_existing,omitempty"`
	SetUseExisting        *string `json:"set_use_existing,omitempty"`
	DependencyUseExisting *string `json:"dependency_use_existing,omitempty"`

	TakeSuggestions                  *bool    `json:"take_suggestions,omitempty"`
	TakeRecommendations              *bool    `json:"take_recommendations,omitempty"`
	Take                             []string `json:"take,omitempty"`
	Ignore                           []string `json:"ignore,omitempty"`
	FollowInstalledBuildDependencies *bool    `json:"follow_installed_build_dependencies,omitempty"`

	PermitRemove      []string `json:"permit_remove,omitempty"`
	RemoveIfDependent []string `json:"remove_if_dependent,omitempty"`
	PermitDowngrade   *bool    `json:"permit_downgrade,omitempty"`
	PermitOldVersion  *bool    `json:"permit_old_version,omitempty"`
	PermitBreak       []string `json:"permit_break,omitempty"`
	Unmask            []string `json:"unmask,omitempty"`

	Early   []string `json:"early,omitempty"`
	Late    []string `json:"late,omitempty"`
	Presets []string `json:"presets,omitempty"`

	MaxRestarts    *int    `json:"max_restarts,omitempty"`
	MaxRedecisions *int    `json:"max_redecisions,omitempty"`
	Concurrency    *int    `json:"concurrency,omitempty"` // repository files loaded at once
	PlanPath       *string `json:"plan_path,omitempty"`
}

var slotPolicies = map[string]bool{
	"best": true, "installed": true, "all": true, "best-or-installed": true, "installed-or-best": true,
}

var destinationOptions = map[string]map[string]bool{
	"make":                  {"install": true, "binaries": true, "chroot": true},
	"make_dependencies":     {"auto": true, "runtime": true, "all": true, "none": true},
	"dependencies_to_slash": {"all": true, "runtime": true, "build": true, "none": true},
}

var useExistingValues = map[string]bool{
	"never": true, "only_if_transient": true, "if_same": true, "if_same_version": true, "if_possible": true,
}

// Load reads configuration from the first standard location that exists and
// overlays environment variables on top of it
func Load() (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			fileConfig, err := readFile(path)
			if err != nil {
				return nil, perrors.NewConfigurationError(fmt.Sprintf("failed to load config from %s", path), err)
			}
			log.Debugf("Using config file: %s", path)
			cfg = MergeConfigs(cfg, fileConfig)
			break
		}
	}

	cfg = MergeConfigs(cfg, loadFromEnvironment())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a specific file, with defaults and the
// environment applied
func LoadFromFile(path string) (*Config, error) {
	fileConfig, err := readFile(path)
	if err != nil {
		return nil, perrors.NewConfigurationError(fmt.Sprintf("failed to load config from %s", path), err)
	}

	cfg := MergeConfigs(MergeConfigs(DefaultConfig(), fileConfig), loadFromEnvironment())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to disk
func (c *Config) Save(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	for name, value := range map[string]*string{"target_slots": c.TargetSlots, "dependency_slots": c.DependencySlots} {
		if value != nil && !slotPolicies[*value] {
			return perrors.NewConfigurationError(fmt.Sprintf("%s: unknown slot policy %q", name, *value), nil).
				WithSuggestion("Use one of best, installed, all, best-or-installed or installed-or-best")
		}
	}

	for name, value := range map[string]*string{
		"target_use_existing":     c.TargetUseExisting,
		"set_use_existing":        c.SetUseExisting,
		"dependency_use_existing": c.DependencyUseExisting,
	} {
		if value != nil && !useExistingValues[strings.ReplaceAll(*value, "-", "_")] {
			return perrors.NewConfigurationError(fmt.Sprintf("%s: unknown use existing value %q", name, *value), nil)
		}
	}

	for name, value := range map[string]*string{
		"make":                  c.Make,
		"make_dependencies":     c.MakeDependencies,
		"dependencies_to_slash": c.DependenciesToSlash,
	} {
		if value != nil && !destinationOptions[name][*value] {
			return perrors.NewConfigurationError(fmt.Sprintf("%s: unknown value %q", name, *value), nil)
		}
	}
	switch {
	case c.GetMake() == "binaries" && c.GetBinaryRepository() == "":
		return perrors.NewConfigurationError("make binaries needs binary_repository", nil)
	case c.GetMake() == "chroot" && c.GetChrootRepository() == "":
		return perrors.NewConfigurationError("make chroot needs chroot_repository", nil)
	case len(c.ViaBinary) > 0 && c.GetBinaryRepository() == "":
		return perrors.NewConfigurationError("via_binary needs binary_repository", nil)
	}

	if c.MaxRestarts != nil && *c.MaxRestarts < 0 {
		return perrors.NewConfigurationError("max_restarts cannot be negative", nil)
	}

	if c.MaxRedecisions != nil && *c.MaxRedecisions <= 0 {
		return perrors.NewConfigurationError("max_redecisions must be positive", nil)
	}

	if c.Concurrency != nil && *c.Concurrency <= 0 {
		return perrors.NewConfigurationError("concurrency must be positive", nil)
	}

	return nil
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Make:                  StringPtr("install"),
		MakeDependencies:      StringPtr("auto"),
		DependenciesToSlash:   StringPtr("all"),
		TargetSlots:           StringPtr("best-or-installed"),
		DependencySlots:       StringPtr("best-or-installed"),
		TargetUseExisting:     StringPtr("never"),
		SetUseExisting:        StringPtr("if_same"),
		DependencyUseExisting: StringPtr("if_possible"),
		TakeSuggestions:       BoolPtr(false),
		TakeRecommendations:   BoolPtr(true),
		PermitDowngrade:       BoolPtr(false),
		PermitOldVersion:      BoolPtr(false),
		MaxRestarts:           IntPtr(9000),
		MaxRedecisions:        IntPtr(100),
		Concurrency:           IntPtr(4),
		PlanPath:              StringPtr(filepath.Join(".", DefaultPlanFileName)),
	}
}

// DefaultPlanFileName is where `cave resolve --write-plan` puts its plan
const DefaultPlanFileName = "resolution.plan.json"

// MergeConfigs overlays every field set in overlay onto base. Pointers are
// replaced rather than written through, so neither argument is modified and an
// explicit false or zero in overlay wins.
func MergeConfigs(base, overlay *Config) *Config {
	if base == nil && overlay == nil {
		return DefaultConfig()
	}

	result := &Config{}
	if base != nil {
		if err := mergo.Merge(result, base, mergo.WithoutDereference); err != nil {
			log.Warnf("Failed to copy base config: %v", err)
		}
	}
	if overlay != nil {
		if err := mergo.Merge(result, overlay, mergo.WithOverride, mergo.WithoutDereference); err != nil {
			log.Warnf("Failed to merge config overlay: %v", err)
		}
	}
	return result
}

// GetConfigDir returns the user config directory
func GetConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".paludis")
}

// GetDefaultConfigPath returns the default config file path
func GetDefaultConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.json")
}

// getConfigPaths returns possible configuration file paths in order of precedence
func getConfigPaths() []string {
	return []string{
		"./.paludis/config.json",
		GetDefaultConfigPath(),
		"/etc/paludis/config.json",
	}
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetTargetSlots and friends return a value with its default applied

func (c *Config) GetTargetSlots() string {
	return stringOr(c.TargetSlots, *DefaultConfig().TargetSlots)
}

func (c *Config) GetDependencySlots() string {
	return stringOr(c.DependencySlots, *DefaultConfig().DependencySlots)
}

func (c *Config) GetTargetUseExisting() string {
	return stringOr(c.TargetUseExisting, *DefaultConfig().TargetUseExisting)
}

func (c *Config) GetSetUseExisting() string {
	return stringOr(c.SetUseExisting, *DefaultConfig().SetUseExisting)
}

func (c *Config) GetDependencyUseExisting() string {
	return stringOr(c.DependencyUseExisting, *DefaultConfig().DependencyUseExisting)
}

func (c *Config) GetMaxRestarts() int {
	return intOr(c.MaxRestarts, *DefaultConfig().MaxRestarts)
}

func (c *Config) GetMaxRedecisions() int {
	return intOr(c.MaxRedecisions, *DefaultConfig().MaxRedecisions)
}

func (c *Config) GetConcurrency() int {
	return intOr(c.Concurrency, *DefaultConfig().Concurrency)
}

func (c *Config) GetPlanPath() string {
	return stringOr(c.PlanPath, *DefaultConfig().PlanPath)
}

func (c *Config) GetMake() string {
	return stringOr(c.Make, *DefaultConfig().Make)
}

func (c *Config) GetMakeDependencies() string {
	return stringOr(c.MakeDependencies, *DefaultConfig().MakeDependencies)
}

func (c *Config) GetDependenciesToSlash() string {
	return stringOr(c.DependenciesToSlash, *DefaultConfig().DependenciesToSlash)
}

// GetBinaryRepository returns "" when unset
func (c *Config) GetBinaryRepository() string {
	return stringOr(c.BinaryRepository, "")
}

// GetChrootRepository returns "" when unset
func (c *Config) GetChrootRepository() string {
	return stringOr(c.ChrootRepository, "")
}

// GetInstalledRepository returns "" when unset
func (c *Config) GetInstalledRepository() string {
	return stringOr(c.InstalledRepository, "")
}

func stringOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// BoolValue dereferences p, returning false for nil
func BoolValue(p *bool) bool {
	return p != nil && *p
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// IntPtr returns a pointer to i
func IntPtr(i int) *int {
	return &i
}
