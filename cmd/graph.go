package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bdwyertech/go-paludis/pkg/plan"

	"github.com/spf13/cobra"
)

var graphFormat string

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().StringVarP(&graphFormat, "format", "f", "text", "Output format (dot, text)")
	graphCmd.Flags().String("plan", "", "Plan file path (default: ./"+plan.DefaultPlanFileName+")")
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Display the job requirement graph of a plan",
	Long: `Display the execute jobs of a plan and the jobs each one waits for. The
graph can be output in DOT/Graphviz format or as a text tree.

Examples:
  cave graph                   # Output graph as text (default)
  cave graph --format dot      # Output graph in DOT format`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := planManager().Load()
		if err != nil {
			return fmt.Errorf("failed to load plan: %w", err)
		}
		return writeGraph(os.Stdout, graphFormat, p)
	},
}

func writeGraph(w io.Writer, format string, p *plan.Plan) error {
	if p.Jobs == nil {
		return fmt.Errorf("plan %s has no job lists", p.ID)
	}
	jobs := p.Jobs.ExecuteJobs

	switch strings.ToLower(format) {
	case "dot":
		fmt.Fprintln(w, "digraph jobs {")
		for i, j := range jobs {
			fmt.Fprintf(w, "  j%d [label=%q];\n", i, j.String())
		}
		for i, j := range jobs {
			for _, req := range j.Requirements() {
				fmt.Fprintf(w, "  j%d -> j%d [label=%q];\n", i, req.JobNumber, req.RequiredIf.String())
			}
		}
		fmt.Fprintln(w, "}")
		return nil
	case "text":
		for i, j := range jobs {
			fmt.Fprintf(w, "%d: %s\n", i, j)
			for _, req := range j.Requirements() {
				fmt.Fprintf(w, "  └── %d: %s (%s)\n", req.JobNumber, jobs[req.JobNumber], req.RequiredIf)
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: dot, text)", format)
	}
}
