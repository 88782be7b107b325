package cli

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newRulesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the classification rule table in effect",
		Long: `Print the classification rule table as YAML. The output can be edited and passed
back with --rules or the rules_file configuration key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(a.rules); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
