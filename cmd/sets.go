package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/bdwyertech/go-paludis/pkg/paludis"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(setsCmd)
}

var setsCmd = &cobra.Command{
	Use:   "sets [SET...]",
	Short: "List named sets or show their members",
	Long: `Without arguments, list every named set defined by the configured
repositories. With arguments, show the members of each named set. A set
name may be restricted to one repository with SET::REPOSITORY.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := LoadEnvironment(cmd.Context())
		if err != nil {
			return err
		}

		table := tablewriter.NewTable(os.Stdout)
		table.Configure(func(config *tablewriter.Config) {
			config.Row.Alignment.Global = tw.AlignLeft
		})

		data := [][]any{}
		if len(args) == 0 {
			names := env.SetNames()
			sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
			if len(names) == 0 {
				fmt.Println("No sets found.")
				return nil
			}
			table.Header("SET", "MEMBERS")
			for _, name := range names {
				tree, _ := env.ResolveSet(name)
				data = append(data, []any{name, len(setMembers(tree))})
			}
			table.Bulk(data)
			return table.Render()
		}

		table.Header("SET", "MEMBER", "KIND")
		for _, arg := range args {
			tree, ok := env.ResolveSet(paludis.SetName(arg))
			if !ok {
				return fmt.Errorf("no set named %s", arg)
			}
			for _, m := range setMembers(tree) {
				data = append(data, []any{arg, m.name, m.kind})
			}
		}
		table.Bulk(data)
		return table.Render()
	},
}

type setMember struct {
	name string
	kind string
}

func setMembers(tree *paludis.SetSpecTree) []setMember {
	var result []setMember
	if tree == nil {
		return result
	}
	for _, child := range tree.Children {
		switch c := child.(type) {
		case *paludis.PackageDepSpec:
			result = append(result, setMember{c.String(), "package"})
		case *paludis.NamedSetDepSpec:
			result = append(result, setMember{string(c.Name), "set"})
		case *paludis.AllDepSpec:
			result = append(result, setMembers(c)...)
		}
	}
	return result
}
