package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"vibe2apk/internal/preflight"
)

// stdoutIsTerminal reports whether cmd.OutOrStdout() is an interactive
// terminal, grounded on the teacher's cmd/spindle status_render.go
// isatty.IsTerminal/IsCygwinTerminal check, used to suppress ANSI color
// codes when status is piped or redirected.
func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// newStatusCommand runs every preflight check (directory access, the
// external-tool toolchain contract, Android SDK, Java) and renders the
// result as a table, without starting any server.
func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the host is ready to run vibe2apk",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			runCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			colorize := stdoutIsTerminal()
			results := preflight.RunAll(runCtx, cfg)
			rows := make([][]string, 0, len(results))
			failed := 0
			for _, r := range results {
				status := "ok"
				if !r.Passed {
					status = "missing"
					failed++
				}
				if colorize {
					if r.Passed {
						status = color.GreenString(status)
					} else {
						status = color.RedString(status)
					}
				}
				rows = append(rows, []string{r.Name, status, r.Detail})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderStatusTable([]string{"Check", "Status", "Detail"}, rows))
			if failed > 0 {
				return fmt.Errorf("%d preflight check(s) failed", failed)
			}
			return nil
		},
	}
}
