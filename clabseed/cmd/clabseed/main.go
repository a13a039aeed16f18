// Copyright 2025 The Frey Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/freyproject/clabseed/clabseed/sync"
	"github.com/freyproject/clabseed/pkg/clab"
	"github.com/freyproject/clabseed/pkg/log"
	"github.com/freyproject/clabseed/pkg/private/serrors"
	"github.com/freyproject/clabseed/private/app"
	"github.com/freyproject/clabseed/private/app/flag"
	"github.com/freyproject/clabseed/private/netbox"
	"github.com/freyproject/clabseed/private/reconcile"
)

func main() {
	executable := filepath.Base(os.Args[0])
	cmd := newRoot(executable)
	cmd.AddCommand(
		newVersion(),
	)
	// Errors are printed in main, see
	// https://github.com/spf13/cobra/issues/340.
	cmd.SilenceErrors = true

	err := cmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	if code := app.ExitCode(err); code < 0 {
		os.Exit(1)
	} else if code != 0 {
		os.Exit(code)
	}
}

func newRoot(executable string) *cobra.Command {
	var envFlags flag.NetBoxEnvironment
	var flags struct {
		logLevel          string
		noSSLVerify       bool
		skipConfigContext bool
	}

	cmd := &cobra.Command{
		Use:   executable + " [flags] <topology-file>",
		Short: "Seed a NetBox instance from a containerlab topology",
		Long: `'clabseed' reads a containerlab topology file and populates a NetBox
instance with the sites, devices, interfaces, cables, management addresses
and config contexts it describes.

Every object is matched by its natural key before it is created, so the
command can be re-run against the same instance without creating
duplicates. Failures on individual objects are reported and skipped;
the run only aborts when a precondition fails, such as an unreachable
NetBox instance.

The NetBox instance is selected with the --url flag or the ` + flag.EnvURL + `
environment variable. The API token is read from ` + flag.EnvAPIToken + `.`,
		Example: fmt.Sprintf(`  %[1]s evpn-lab.clab.yml
  %[1]s --url https://netbox.example.org --no-ssl-verify evpn-lab.clab.yml`,
			executable),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.SetupLog(flags.logLevel); err != nil {
				return err
			}
			defer log.Flush()
			defer log.HandlePanic()
			if err := envFlags.LoadExternalVars(); err != nil {
				return err
			}
			cmd.SilenceUsage = true

			topo, err := clab.Load(args[0])
			if err != nil {
				return serrors.Wrap("loading topology", err, "file", args[0])
			}
			inv, err := netbox.NewClient(netbox.Config{
				URL:                envFlags.URL(),
				Token:              envFlags.Token(),
				InsecureSkipVerify: flags.noSSLVerify,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(),
				os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx = log.CtxWith(ctx, log.Root())

			report, err := sync.Run(ctx, topo, inv, sync.Config{
				SkipConfigContext: flags.skipConfigContext,
			})
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), report)
			// Per-object failures are already isolated and logged; the exit
			// code only distinguishes precondition failures from completion.
			if n := report.Failed(); n > 0 {
				color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(),
					"Synchronization complete, %d objects failed\n", n)
				return nil
			}
			color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(),
				"Synchronization complete")
			return nil
		},
	}
	envFlags.Register(cmd.Flags())
	cmd.Flags().StringVar(&flags.logLevel, "log.level", "info", app.LogLevelUsage)
	cmd.Flags().BoolVar(&flags.noSSLVerify, "no-ssl-verify", false,
		"Skip TLS certificate verification")
	cmd.Flags().BoolVar(&flags.skipConfigContext, "skip-config-context", false,
		"Do not compose and attach config contexts")

	return cmd
}

// printSummary writes the per-kind outcome counts of the run.
func printSummary(w io.Writer, report *reconcile.Report) {
	rows := [][]string{}
	for _, kind := range report.Kinds() {
		rows = append(rows, []string{
			kind,
			strconv.Itoa(report.Count(kind, reconcile.OutcomeCreated)),
			strconv.Itoa(report.Count(kind, reconcile.OutcomeFound)),
			strconv.Itoa(report.Count(kind, reconcile.OutcomeSkipped)),
			strconv.Itoa(report.Count(kind, reconcile.OutcomeFailed)),
		})
	}
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"KIND", "CREATED", "FOUND", "SKIPPED", "FAILED"})
	table.AppendBulk(rows)
	table.Render()
}
