package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/bdwyertech/go-paludis/internal/config"
	"github.com/bdwyertech/go-paludis/pkg/plan"
	"github.com/bdwyertech/go-paludis/pkg/policy"
	"github.com/bdwyertech/go-paludis/pkg/report"
	"github.com/bdwyertech/go-paludis/pkg/resolver"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(resolveCmd)

	f := resolveCmd.Flags()
	f.String("format", "table", "Output format (table, json, yaml, summary)")
	f.String("template", "", "Render the result through a template instead (prefix with @ to read a file)")
	f.Bool("write-plan", false, "Write the job lists to the plan file when resolution succeeds")
	f.String("plan", "", "Plan file path (default: ./"+plan.DefaultPlanFileName+")")
	f.Bool("no-progress", false, "Do not show progress while resolving")

	f.String("target-slots", "", "Slots to consider for targets (best, installed, all, best-or-installed, installed-or-best)")
	f.String("dependency-slots", "", "Slots to consider for dependencies")
	f.String("target-use-existing", "", "When an installed target may be kept (never, only_if_transient, if_same, if_same_version, if_possible)")
	f.String("set-use-existing", "", "When an installed set member may be kept")
	f.String("dependency-use-existing", "", "When an installed dependency may be kept")
	f.Bool("take-suggestions", false, "Take suggested dependencies")
	f.Bool("take-recommendations", true, "Take recommended dependencies")
	f.StringSlice("take", nil, "Always take dependencies on these packages")
	f.StringSlice("ignore", nil, "Never take dependencies on these packages")
	f.Bool("follow-installed-build-dependencies", false, "Follow build dependencies of packages that are already installed")
	f.StringSlice("permit-remove", nil, "Packages that may be uninstalled ('*' for any)")
	f.StringSlice("remove-if-dependent", nil, "Packages to remove when something they depend on is removed")
	f.Bool("permit-downgrade", false, "Permit replacing installed packages with older versions")
	f.Bool("permit-old-version", false, "Permit installing a target that is not the best version")
	f.StringSlice("permit-break", nil, "Installed packages that may be left with unmet dependencies")
	f.StringSlice("unmask", nil, "Masked packages that may be installed")
	f.StringSlice("early", nil, "Packages to order as early as possible")
	f.StringSlice("late", nil, "Packages to order as late as possible")
	f.StringSlice("preset", nil, "Restrict packages to these specs without forcing a change")
	f.String("make", "", "What to do with targets (install, binaries, chroot)")
	f.String("make-dependencies", "", "Which dependencies of targets follow them when not installing (auto, runtime, all, none)")
	f.String("dependencies-to-slash", "", "Which dependencies go to / (all, runtime, build, none)")
	f.String("binary-repository", "", "Repository that binaries are made in")
	f.String("chroot-repository", "", "Repository for installs to a chroot")
	f.StringSlice("via-binary", nil, "Make binaries of these packages and install from them")
	f.Int("max-restarts", 0, "Give up after this many restarts")
	f.Int("max-redecisions", 0, "Give up after changing one decision this many times")
}

var resolveCmd = &cobra.Command{
	Use:   "resolve TARGET [TARGET...]",
	Short: "Work out what needs to be done to install targets",
	Long: `Resolve package specs, blockers or named sets against the configured
repositories and show what would be done.

Targets are package dependency specs (app/foo, >=app/foo-2, app/foo:3),
blockers (!app/bar) or set names (world, system).

The command exits with an error when some target cannot be satisfied, a
decision needs a confirmation that was not given, or jobs cannot be ordered.

Examples:
  cave resolve -r gentoo.yaml -r installed.yaml app/foo
  cave resolve --permit-downgrade =app/foo-1
  cave resolve --format json --write-plan world`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.MergeConfigs(cfg, flagOverrides(cmd.Flags()))
		if err := cfg.Validate(); err != nil {
			return err
		}

		env, err := LoadEnvironment(cmd.Context())
		if err != nil {
			return err
		}

		pol, err := policy.New(env, cfg)
		if err != nil {
			return err
		}

		targets := make([]resolver.Target, 0, len(args))
		for _, arg := range args {
			targets = append(targets, resolver.Target{Spec: arg})
		}

		opts := []resolver.Option{resolver.WithMaxRedecisions(cfg.GetMaxRedecisions())}
		var progress *progressNotifier
		if !viper.GetBool("no-progress") {
			progress = newProgressNotifier()
		}
		if progress != nil {
			opts = append(opts, resolver.WithNotifier(progress))
		}

		log.Infof("Resolving %d targets...", len(targets))
		res, err := resolver.ResolveWithRestarts(cmd.Context(), env, pol.Functions(), targets, cfg.GetMaxRestarts(), opts...)
		if progress != nil {
			progress.Finish()
		}
		if err != nil {
			return fmt.Errorf("resolution failed: %w", err)
		}
		if res.Restarts() > 0 {
			log.Infof("Resolution needed %d restarts", res.Restarts())
		}

		resolved := res.Resolved()
		rep := report.Build(args, resolved)

		if viper.GetBool("write-plan") && !resolved.HasErrors() {
			p, err := writePlan(args, resolved)
			if err != nil {
				return err
			}
			rep.PlanID = p.ID
		}

		if err := writeReport(rep); err != nil {
			return err
		}

		if resolved.HasErrors() {
			return fmt.Errorf("cannot proceed: %d unable to make, %d unconfirmed, %d unorderable",
				len(resolved.TakenUnableToMakeDecisions), len(resolved.TakenUnconfirmedDecisions),
				len(resolved.TakenUnorderableDecisions))
		}
		return nil
	},
}

// writeReport renders a report using --template or --format
func writeReport(rep *report.Report) error {
	if text := viper.GetString("template"); text != "" {
		tmpl, err := report.ParseTemplate(text)
		if err != nil {
			return err
		}
		return report.WriteTemplate(os.Stdout, tmpl, rep)
	}
	return report.Write(os.Stdout, viper.GetString("format"), rep)
}

func planManager() *plan.Manager {
	if path := viper.GetString("plan"); path != "" {
		return plan.NewManagerWithPath(path)
	}
	return plan.NewManagerWithPath(cfg.GetPlanPath())
}

func writePlan(targets []string, resolved *resolver.Resolved) (*plan.Plan, error) {
	manager := planManager()

	fingerprint, err := plan.Fingerprint(cfg.Repositories)
	if err != nil {
		return nil, err
	}

	if manager.Exists() {
		if err := manager.Backup(); err != nil {
			log.Warnf("Failed to back up %s: %v", manager.GetPath(), err)
		}
	}

	p := plan.New(targets, resolved.JobLists())
	p.Repositories = cfg.Repositories
	p.Fingerprint = fingerprint
	if err := manager.Save(p); err != nil {
		return nil, err
	}

	log.Infof("Wrote plan %s to %s", p.ID, manager.GetPath())
	return p, nil
}

// flagOverrides turns the policy flags that were given on the command line
// into a config overlay
func flagOverrides(flags *pflag.FlagSet) *config.Config {
	overlay := &config.Config{}

	strs := map[string]**string{
		"target-slots":            &overlay.TargetSlots,
		"dependency-slots":        &overlay.DependencySlots,
		"target-use-existing":     &overlay.TargetUseExisting,
		"set-use-existing":        &overlay.SetUseExisting,
		"dependency-use-existing": &overlay.DependencyUseExisting,
		"make":                    &overlay.Make,
		"make-dependencies":       &overlay.MakeDependencies,
		"dependencies-to-slash":   &overlay.DependenciesToSlash,
		"binary-repository":       &overlay.BinaryRepository,
		"chroot-repository":       &overlay.ChrootRepository,
	}
	for name, dst := range strs {
		if flags.Changed(name) {
			v, _ := flags.GetString(name)
			*dst = config.StringPtr(v)
		}
	}

	bools := map[string]**bool{
		"take-suggestions":                    &overlay.TakeSuggestions,
		"take-recommendations":                &overlay.TakeRecommendations,
		"follow-installed-build-dependencies": &overlay.FollowInstalledBuildDependencies,
		"permit-downgrade":                    &overlay.PermitDowngrade,
		"permit-old-version":                  &overlay.PermitOldVersion,
	}
	for name, dst := range bools {
		if flags.Changed(name) {
			v, _ := flags.GetBool(name)
			*dst = config.BoolPtr(v)
		}
	}

	lists := map[string]*[]string{
		"take":                &overlay.Take,
		"ignore":              &overlay.Ignore,
		"permit-remove":       &overlay.PermitRemove,
		"remove-if-dependent": &overlay.RemoveIfDependent,
		"permit-break":        &overlay.PermitBreak,
		"unmask":              &overlay.Unmask,
		"early":               &overlay.Early,
		"late":                &overlay.Late,
		"preset":              &overlay.Presets,
		"via-binary":          &overlay.ViaBinary,
	}
	for name, dst := range lists {
		if flags.Changed(name) {
			*dst, _ = flags.GetStringSlice(name)
		}
	}

	ints := map[string]**int{
		"max-restarts":    &overlay.MaxRestarts,
		"max-redecisions": &overlay.MaxRedecisions,
	}
	for name, dst := range ints {
		if flags.Changed(name) {
			v, _ := flags.GetInt(name)
			*dst = config.IntPtr(v)
		}
	}

	return overlay
}
