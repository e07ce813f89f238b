package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/bdwyertech/go-paludis/pkg/plan"
	"github.com/bdwyertech/go-paludis/pkg/report"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(showPlanCmd)

	showPlanCmd.Flags().String("format", "table", "Output format (table, json, yaml, summary)")
	showPlanCmd.Flags().String("plan", "", "Plan file path (default: ./"+plan.DefaultPlanFileName+")")
	showPlanCmd.Flags().Bool("check", false, "Fail if the repositories changed since the plan was written")
}

var showPlanCmd = &cobra.Command{
	Use:   "show-plan",
	Short: "Show a plan written by resolve --write-plan",
	Long: `Read a plan file and show its jobs.

With --check, the repositories the plan was made against are hashed again
and the command fails if any of them changed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager := planManager()
		if err := manager.Validate(); err != nil {
			return err
		}

		p, err := manager.Load()
		if err != nil {
			return err
		}
		log.Debugf("Loaded plan %s generated at %s", p.ID, p.GeneratedAt)

		if viper.GetBool("check") {
			if err := checkPlan(manager, p); err != nil {
				return err
			}
		}

		rep := report.FromJobLists(p.Targets, p.Jobs)
		rep.PlanID = p.ID
		return report.Write(os.Stdout, viper.GetString("format"), rep)
	},
}

func checkPlan(manager *plan.Manager, p *plan.Plan) error {
	repos := p.Repositories
	if len(repos) == 0 {
		repos = cfg.Repositories
	}
	fingerprint, err := plan.Fingerprint(repos)
	if err != nil {
		return err
	}
	outdated, err := manager.IsOutdated(fingerprint)
	if err != nil {
		return err
	}
	if outdated {
		return fmt.Errorf("plan %s is outdated: repositories changed since it was written. Run 'cave resolve --write-plan' again", p.ID)
	}
	log.Info("Plan is up to date")
	return nil
}
