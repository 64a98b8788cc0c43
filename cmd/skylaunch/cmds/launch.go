package cmds

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/aerialworks/skylaunch/pkg/catalog"
	"github.com/aerialworks/skylaunch/pkg/events"
	"github.com/aerialworks/skylaunch/pkg/launch"
	"github.com/aerialworks/skylaunch/pkg/registry"
	"github.com/aerialworks/skylaunch/pkg/runner"
	"github.com/aerialworks/skylaunch/pkg/state"
)

func newLaunchCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "launch <description> [key=value ...]",
		Short: "Resolve a launch description and start its nodes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := getRootOptions(cmd)
			if err != nil {
				return err
			}

			if _, err := os.Stat(state.SessionPath(opts.Root)); err == nil {
				if !force {
					return errors.New("session exists; run skylaunch down first or use --force")
				}
				log.Info().Msg("existing session found; stopping first (--force)")
				if err := stopFromSession(cmd.Context(), opts); err != nil {
					return err
				}
			}

			name := args[0]
			_, plan, err := resolveDescription(name, args[1:])
			if err != nil {
				return err
			}

			reg, err := registry.Load(opts.Root, opts.Config)
			if err != nil {
				return err
			}

			bus, err := events.NewInMemoryBus()
			if err != nil {
				return err
			}
			bus.AddHandler("console-reporter", events.LogReporter())

			ctx := cmd.Context()
			busCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			go func() { _ = bus.Run(busCtx) }()
			<-bus.Running()
			defer func() { _ = bus.Close() }()

			run := runner.New(runner.Options{
				Root:            opts.Root,
				ShutdownTimeout: opts.Timeout,
				Bus:             bus,
				Console:         cmd.OutOrStdout(),
			})
			session, err := run.Start(ctx, name, plan, reg)
			if err != nil {
				return err
			}
			if err := state.Save(opts.Root, session); err != nil {
				_ = run.Stop(context.Background(), session)
				return err
			}

			log.Info().
				Str("description", name).
				Str("session", session.ID).
				Int("nodes", len(session.Nodes)).
				Msg("launch complete")

			// Nodes with console output need the launcher alive: their
			// stdout/stderr pipes end here. Stay attached until they exit
			// or we are told to stop, then tear the session down.
			if plan.HasScreenNodes() {
				return attachSession(ctx, opts, run, session)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Stop an existing session before starting")
	return cmd
}

// resolveDescription builds the named description, validates it, and
// resolves it against the command-line overrides.
func resolveDescription(name string, overrideArgs []string) (*launch.Context, launch.Plan, error) {
	builder, ok := catalog.Get(name)
	if !ok {
		return nil, launch.Plan{}, errors.Errorf("unknown description %q (see skylaunch descriptions)", name)
	}
	desc := builder()
	if err := desc.Validate(); err != nil {
		return nil, launch.Plan{}, errors.Wrapf(err, "description %q", name)
	}

	overrides, err := launch.ParseOverrides(overrideArgs)
	if err != nil {
		return nil, launch.Plan{}, err
	}
	ctx, err := launch.NewContext(desc, overrides)
	if err != nil {
		return nil, launch.Plan{}, err
	}
	plan, err := desc.Resolve(ctx)
	if err != nil {
		return nil, launch.Plan{}, err
	}
	return ctx, plan, nil
}

// attachSession blocks until every node has exited or a stop signal
// arrives, then tears the session down. Exit info is flushed before
// returning so status can still report how the nodes ended.
func attachSession(ctx context.Context, opts rootOptions, run *runner.Runner, session *state.Session) error {
	log.Info().Str("session", session.ID).Msg("attached to session; press ctrl-c to stop")

	sigCtx, stopNotify := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopNotify()

	done := make(chan struct{})
	go func() {
		_ = run.WaitNodes(context.Background())
		close(done)
	}()

	select {
	case <-sigCtx.Done():
		log.Info().Msg("stop requested; terminating nodes")
		stopCtx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
		_ = run.Stop(stopCtx, session)
		cancel()

		waitCtx, cancelWait := context.WithTimeout(context.Background(), opts.Timeout)
		_ = run.WaitNodes(waitCtx)
		cancelWait()
	case <-done:
		log.Info().Msg("all nodes exited")
	}

	return state.Remove(opts.Root)
}

func stopFromSession(ctx context.Context, opts rootOptions) error {
	session, err := state.Load(opts.Root)
	if err != nil {
		return err
	}
	run := runner.New(runner.Options{Root: opts.Root, ShutdownTimeout: opts.Timeout})
	stopCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	_ = run.Stop(stopCtx, session)
	return state.Remove(opts.Root)
}
