package cmds

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/aerialworks/skylaunch/pkg/catalog"
)

func newArgsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "args <description>",
		Short: "List the declared arguments of a launch description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			builder, ok := catalog.Get(args[0])
			if !ok {
				return errors.Errorf("unknown description %q (see skylaunch descriptions)", args[0])
			}
			desc := builder()

			b, err := json.MarshalIndent(map[string]any{"arguments": desc.Arguments}, "", "  ")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
}
