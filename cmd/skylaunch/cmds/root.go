package cmds

import (
	"github.com/spf13/cobra"
)

func AddCommands(root *cobra.Command) error {
	root.AddCommand(newLaunchCmd())
	root.AddCommand(newPlanCmd())
	root.AddCommand(newArgsCmd())
	root.AddCommand(newDescriptionsCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newDownCmd())
	return nil
}
