package cmds

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aerialworks/skylaunch/pkg/catalog"
)

func newDescriptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "descriptions",
		Short: "List the built-in launch descriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range catalog.Names() {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
