package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/felipe-louzas/sqlworkbench-sub007/internal/database"
	"github.com/felipe-louzas/sqlworkbench-sub007/internal/engine"
	"github.com/felipe-louzas/sqlworkbench-sub007/internal/lexer"
)

type cmdRun struct {
	global *cmdGlobal

	flagMaxRows          int
	flagTimeout          int
	flagNoSavepoints     bool
	flagIgnoreDropErrors bool
	flagQuiet            bool
	flagAbortOnError     bool
}

func (c *cmdRun) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [script.sql ...]",
		Short: "Execute the statements of one or more SQL scripts",
		Long: `Execute the statements of one or more SQL scripts.

Reads from standard input when no file is given or the file is "-".
Each statement runs in its own savepoint so a failure never poisons
the surrounding transaction. The exit status is non-zero when any
statement failed.`,
		RunE: c.run,
	}

	cmd.Flags().IntVar(&c.flagMaxRows, "max-rows", 0, "Row limit for query results, 0 for unlimited")
	cmd.Flags().IntVar(&c.flagTimeout, "timeout", 0, "Per-statement timeout in seconds")
	cmd.Flags().BoolVar(&c.flagNoSavepoints, "no-savepoints", false, "Disable per-statement savepoints")
	cmd.Flags().BoolVar(&c.flagIgnoreDropErrors, "ignore-drop-errors", false, "Treat failed DROP statements as successes")
	cmd.Flags().BoolVarP(&c.flagQuiet, "quiet", "q", false, "Suppress messages for ignored directives")
	cmd.Flags().BoolVar(&c.flagAbortOnError, "abort-on-error", false, "Stop at the first failed statement")

	return cmd
}

func (c *cmdRun) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	h, profile, err := c.global.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()

	settings := profile.EngineSettings()
	c.applyFlags(cmd, &settings)

	ec := engine.NewContext(h, settings, nil)
	runner := engine.NewRunner()

	// Ctrl-C cancels the running statement, not the whole session.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			ec.RequestCancel(ctx)
		}
	}()

	if len(args) == 0 {
		args = []string{"-"}
	}

	var failed int
	for _, name := range args {
		script, err := readScript(name)
		if err != nil {
			return err
		}

		statements := lexer.SplitStatements(script)
		logrus.WithFields(logrus.Fields{"script": name, "statements": len(statements)}).Debug("running script")

		for _, stmt := range statements {
			res, err := runner.Run(ctx, ec, stmt.Text)
			if err != nil {
				return fmt.Errorf("run aborted: %w", err)
			}

			printResult(cmd.OutOrStdout(), res)

			if !res.Success {
				failed++
				if c.flagAbortOnError {
					return fmt.Errorf("%d statement(s) failed", failed)
				}
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d statement(s) failed", failed)
	}
	return nil
}

func (c *cmdRun) applyFlags(cmd *cobra.Command, settings *engine.Settings) {
	if cmd.Flags().Changed("max-rows") {
		settings.MaxRows = c.flagMaxRows
	}
	if cmd.Flags().Changed("timeout") {
		settings.Timeout = time.Duration(c.flagTimeout) * time.Second
	}
	if c.flagNoSavepoints {
		settings.UseSavepoints = false
	}
	if c.flagIgnoreDropErrors {
		settings.IgnoreDropErrors = true
	}
	if c.flagQuiet {
		settings.QuietIgnored = true
	}
}

func readScript(name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(data), nil
}

func printResult(w io.Writer, res *engine.Result) {
	if res.Table != nil {
		renderTable(w, res.Table)
	}
	for _, msg := range res.Messages {
		fmt.Fprintln(w, msg)
	}
	if res.Error != nil && res.Error.Offset >= 0 {
		fmt.Fprintf(w, "Error position: offset %d", res.Error.Offset)
		if res.Error.Line >= 0 {
			fmt.Fprintf(w, " (line %d, column %d)", res.Error.Line, res.Error.Column)
		}
		fmt.Fprintln(w)
	}
}

func renderTable(w io.Writer, tbl *database.Table) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(tbl.Columns)
	table.AppendBulk(tbl.Rows)
	table.Render()
	if tbl.Truncated {
		fmt.Fprintln(w, "(result truncated by row limit)")
	}
}
