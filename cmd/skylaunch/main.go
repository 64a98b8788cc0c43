package main

import (
	"github.com/spf13/cobra"

	"github.com/aerialworks/skylaunch/cmd/skylaunch/cmds"
	"github.com/aerialworks/skylaunch/pkg/logging"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "skylaunch",
	Short:   "skylaunch starts drone middleware nodes from declarative launch descriptions",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := cmd.Root().PersistentFlags().GetString("log-level")
		if err != nil {
			return err
		}
		return logging.Init(level)
	},
}

func main() {
	cmds.AddRootFlags(rootCmd)
	cobra.CheckErr(cmds.AddCommands(rootCmd))
	cobra.CheckErr(rootCmd.Execute())
}
