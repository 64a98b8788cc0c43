package cmds

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <description> [key=value ...]",
		Short: "Resolve a launch description and print the plan without starting anything",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			ctx, plan, err := resolveDescription(name, args[1:])
			if err != nil {
				return err
			}

			out := map[string]any{
				"description": name,
				"arguments":   ctx.Values(),
				"plan":        plan,
			}
			b, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			log.Info().Str("description", name).Int("nodes", len(plan.Nodes)).Msg("plan computed")
			return nil
		},
	}
}
