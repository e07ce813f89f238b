package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/bdwyertech/go-paludis/pkg/paludis"
	"github.com/bdwyertech/go-paludis/pkg/repository"
)

var listCmd = &cobra.Command{
	Use:   "list [SPEC...]",
	Short: "List package IDs in the configured repositories",
	Long: `List every package ID in the configured repositories, with its slot,
repository and masks.

Examples:
  cave list                        # List everything
  cave list --installed            # Only the installed repository
  cave list '>=app/foo-2' app/bar  # IDs matching specs
  cave list --format json          # Show as JSON`,
	RunE: runList,
}

var (
	listFormat    string
	listInstalled bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "Output format (table, json)")
	listCmd.Flags().BoolVar(&listInstalled, "installed", false, "Only list installed packages")
}

// PackageListItem is one row of cave list
type PackageListItem struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Slot       string   `json:"slot"`
	Repository string   `json:"repository"`
	Installed  bool     `json:"installed,omitempty"`
	Masks      []string `json:"masks,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	specs := make([]paludis.PackageDepSpec, 0, len(args))
	for _, arg := range args {
		spec, err := paludis.ParsePackageDepSpec(arg)
		if err != nil {
			return fmt.Errorf("invalid spec '%s': %w", arg, err)
		}
		specs = append(specs, spec)
	}

	env, err := LoadEnvironment(cmd.Context())
	if err != nil {
		return err
	}

	items := listPackages(env, specs, listInstalled)

	switch strings.ToLower(listFormat) {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(items)
	case "table":
		return outputTable(items)
	default:
		return fmt.Errorf("unsupported format: %s (supported: table, json)", listFormat)
	}
}

// listPackages collects IDs matching any of specs, or every ID when specs is
// empty, in repository order
func listPackages(env *repository.Environment, specs []paludis.PackageDepSpec, installedOnly bool) []PackageListItem {
	items := []PackageListItem{}
	for _, repo := range env.Repositories() {
		if installedOnly && !repo.Installed() {
			continue
		}
		for _, id := range repo.AllIDs() {
			if !matchesAny(specs, id) {
				continue
			}
			item := PackageListItem{
				Name:       id.Name.String(),
				Version:    id.Version.String(),
				Slot:       string(id.Slot),
				Repository: string(id.Repository),
				Installed:  id.Installed,
			}
			for _, m := range env.MaskReasons(id) {
				item.Masks = append(item.Masks, m.String())
			}
			items = append(items, item)
		}
	}
	return items
}

func matchesAny(specs []paludis.PackageDepSpec, id *paludis.PackageID) bool {
	if len(specs) == 0 {
		return true
	}
	for _, s := range specs {
		if s.Matches(id) {
			return true
		}
	}
	return false
}

func outputTable(items []PackageListItem) error {
	if len(items) == 0 {
		fmt.Println("No packages found.")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout)
	table.Configure(func(config *tablewriter.Config) {
		config.Row.Alignment.Global = tw.AlignLeft
	})
	table.Header("PACKAGE", "VERSION", "SLOT", "REPOSITORY", "MASKS")

	data := [][]any{}
	for _, item := range items {
		data = append(data, []any{item.Name, item.Version, item.Slot, item.Repository, strings.Join(item.Masks, ", ")})
	}

	table.Bulk(data)
	return table.Render()
}
