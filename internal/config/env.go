package config

import (
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// EnvPrefix starts every environment variable the configuration reads
const EnvPrefix = "PALUDIS_"

// LoadFromEnvironment returns the configuration given by PALUDIS_* variables, or
// nil when none is set to a usable value
func LoadFromEnvironment() *Config {
	return loadFromEnvironment()
}

func loadFromEnvironment() *Config {
	cfg := &Config{}
	set := false

	str := func(name string, dst **string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok && v != "" {
			*dst = StringPtr(v)
			set = true
		}
	}
	list := func(name string, dst *[]string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok && v != "" {
			*dst = splitList(v)
			set = true
		}
	}
	boolean := func(name string, dst **bool) {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok || v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Debugf("Ignoring %s%s=%q: %v", EnvPrefix, name, v, err)
			return
		}
		*dst = BoolPtr(b)
		set = true
	}
	integer := func(name string, min int, dst **int) {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok || v == "" {
			return
		}
		i, err := strconv.Atoi(v)
		if err != nil || i < min {
			log.Debugf("Ignoring %s%s=%q", EnvPrefix, name, v)
			return
		}
		*dst = IntPtr(i)
		set = true
	}

	list("REPOSITORIES", &cfg.Repositories)
	str("INSTALLED_REPOSITORY", &cfg.InstalledRepository)

	str("MAKE", &cfg.Make)
	str("MAKE_DEPENDENCIES", &cfg.MakeDependencies)
	str("DEPENDENCIES_TO_SLASH", &cfg.DependenciesToSlash)
	str("BINARY_REPOSITORY", &cfg.BinaryRepository)
	str("CHROOT_REPOSITORY", &cfg.ChrootRepository)
	list("VIA_BINARY", &cfg.ViaBinary)

	str("TARGET_SLOTS", &cfg.TargetSlots)
	str("DEPENDENCY_SLOTS", &cfg.DependencySlots)
	str("TARGET_USE_EXISTING", &cfg.TargetUseExisting)
	str("SET_USE_EXISTING", &cfg.SetUseExisting)
	str("DEPENDENCY_USE_EXISTING", &cfg.DependencyUseExisting)

	boolean("TAKE_SUGGESTIONS", &cfg.TakeSuggestions)
	boolean("TAKE_RECOMMENDATIONS", &cfg.TakeRecommendations)
	list("TAKE", &cfg.Take)
	list("IGNORE", &cfg.Ignore)
	boolean("FOLLOW_INSTALLED_BUILD_DEPENDENCIES", &cfg.FollowInstalledBuildDependencies)

	list("PERMIT_REMOVE", &cfg.PermitRemove)
	list("REMOVE_IF_DEPENDENT", &cfg.RemoveIfDependent)
	boolean("PERMIT_DOWNGRADE", &cfg.PermitDowngrade)
	boolean("PERMIT_OLD_VERSION", &cfg.PermitOldVersion)
	list("PERMIT_BREAK", &cfg.PermitBreak)
	list("UNMASK", &cfg.Unmask)

	list("EARLY", &cfg.Early)
	list("LATE", &cfg.Late)
	list("PRESETS", &cfg.Presets)

	integer("MAX_RESTARTS", 0, &cfg.MaxRestarts)
	integer("MAX_REDECISIONS", 1, &cfg.MaxRedecisions)
	integer("CONCURRENCY", 1, &cfg.Concurrency)
	str("PLAN_PATH", &cfg.PlanPath)

	if !set {
		return nil
	}
	return cfg
}

// splitList splits a comma separated value, dropping empty entries
func splitList(v string) []string {
	var result []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
