package cmds

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/aerialworks/skylaunch/pkg/proc"
	"github.com/aerialworks/skylaunch/pkg/state"
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true)
	styleMuted   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	styleRunning = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	styleDead    = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
)

func newStatusCmd() *cobra.Command {
	var tailLines int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show status of the launched nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := getRootOptions(cmd)
			if err != nil {
				return err
			}
			session, err := state.Load(opts.Root)
			if err != nil {
				return err
			}

			pids := make([]int, 0, len(session.Nodes))
			for _, n := range session.Nodes {
				pids = append(pids, n.PID)
			}
			stats := proc.ReadAllStats(pids)

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, styleTitle.Render("session "+session.ID)+
				styleMuted.Render(" ("+session.Description+", started "+session.CreatedAt.Format("2006-01-02 15:04:05")+")"))

			for _, n := range session.Nodes {
				alive := state.ProcessAlive(n.PID)

				label := styleDead.Render("dead")
				detail := ""
				var exit *state.ExitInfo
				if alive {
					label = styleRunning.Render("running")
					if st, ok := stats[n.PID]; ok {
						detail = styleMuted.Render(fmt.Sprintf(" cpu=%.1f%% mem=%.1fMB threads=%d", st.CPUPercent, st.MemoryMB, st.Threads))
					}
				} else {
					exit = readExitInfo(n)
					if exit == nil {
						// The launcher is gone and never got to record the
						// exit; capture what is still observable.
						exit = state.SynthesizeExitInfo(n, tailLines)
					}
					switch {
					case exit.ExitCode != nil:
						detail = styleMuted.Render(fmt.Sprintf(" exit_code=%d", *exit.ExitCode))
					case exit.Signal != "":
						detail = styleMuted.Render(" signal=" + exit.Signal)
					case exit.Error != "":
						detail = styleMuted.Render(" " + exit.Error)
					}
				}

				ns := n.Namespace
				if ns == "" {
					ns = "/"
				}
				_, _ = fmt.Fprintf(out, "  %-24s %-12s pid=%-8d %s%s\n",
					n.Name, label, n.PID, styleMuted.Render("ns="+ns), detail)

				if !alive && tailLines > 0 {
					lines := exit.StderrTail
					if len(lines) == 0 && n.StderrLog != "" {
						if tailed, err := state.TailLines(n.StderrLog, tailLines, 2<<20); err == nil {
							lines = tailed
						}
					}
					if len(lines) > tailLines {
						lines = lines[len(lines)-tailLines:]
					}
					if len(lines) > 0 {
						_, _ = fmt.Fprintln(out, styleMuted.Render("    stderr tail:"))
						for _, l := range lines {
							_, _ = fmt.Fprintln(out, styleMuted.Render("      "+strings.TrimRight(l, "\r")))
						}
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&tailLines, "tail-lines", 25, "How many stderr lines to show for dead nodes")
	return cmd
}

func readExitInfo(n state.NodeRecord) *state.ExitInfo {
	if n.ExitInfo == "" {
		return nil
	}
	if _, err := os.Stat(n.ExitInfo); err != nil {
		return nil
	}
	info, err := state.ReadExitInfo(n.ExitInfo)
	if err != nil {
		return nil
	}
	return info
}
