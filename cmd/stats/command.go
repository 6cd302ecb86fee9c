package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgard/statsbot/internal/database"
	"github.com/edgard/statsbot/internal/logger"
	"github.com/edgard/statsbot/internal/stats"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type cliOptions struct {
	dbPath   string
	timezone string
	out      string
	callerID int64
	logLevel string
}

type rootCommand struct {
	cmd    *cobra.Command
	opts   cliOptions
	stdout io.Writer
	stderr io.Writer
	code   int
}

func newRootCommand(stdout, stderr io.Writer) *rootCommand {
	rc := &rootCommand{stdout: stdout, stderr: stderr}
	rc.cmd = &cobra.Command{
		Use:           "stats [flags] <statistic> [statistic flags]",
		Short:         "Run a chat statistic against a chat log database",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rc.execute(cmd.Context(), args)
		},
	}

	fs := rc.cmd.Flags()
	// everything after the statistic name belongs to the statistic
	fs.SetInterspersed(false)
	fs.StringVar(&rc.opts.dbPath, "db", "statsbot.db", "path to the chat log database")
	fs.StringVar(&rc.opts.timezone, "tz", "Etc/UTC", "IANA timezone used for dates")
	fs.StringVar(&rc.opts.out, "out", "stats.png", "where to write the chart, if any")
	fs.Int64Var(&rc.opts.callerID, "caller", 0, "user id that -me refers to")
	fs.StringVar(&rc.opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rc.cmd.SetOut(stdout)
	rc.cmd.SetErr(stderr)
	return rc
}

func (rc *rootCommand) run(ctx context.Context, args []string) int {
	rc.cmd.SetArgs(args)
	if err := rc.cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(rc.stderr, "error:", err)
		if rc.code == exitOK {
			rc.code = exitError
		}
	}
	return rc.code
}

func (rc *rootCommand) execute(ctx context.Context, args []string) error {
	log := logger.New(rc.stderr, rc.opts.logLevel, false)

	loc, err := time.LoadLocation(rc.opts.timezone)
	if err != nil {
		rc.code = exitUsage
		return fmt.Errorf("invalid timezone: %w", err)
	}
	if _, err := os.Stat(database.ExtractDBNameFromPath(rc.opts.dbPath)); err != nil {
		return fmt.Errorf("cannot open database: %w", err)
	}

	db, err := database.NewDB(rc.opts.dbPath, 2)
	if err != nil {
		return err
	}
	defer database.CloseDB(db)

	runner, err := stats.NewRunner(ctx, log, db, loc)
	if err != nil {
		return err
	}

	res, err := runner.Execute(ctx, args, caller(runner, rc.opts.callerID))
	if err != nil {
		return err
	}
	return rc.print(res)
}

func (rc *rootCommand) print(res stats.Result) error {
	switch res.Kind {
	case stats.KindUsage:
		fmt.Fprintln(rc.stderr, res.Message)
		rc.code = exitUsage
		return nil
	case stats.KindNoData:
		fmt.Fprintln(rc.stdout, res.Message)
		return nil
	}

	if res.HasText() {
		fmt.Fprintln(rc.stdout, res.Text)
	}
	if res.HasImage() {
		if rc.opts.out == "" {
			return errors.New("the statistic produced a chart but -out is empty")
		}
		if err := os.WriteFile(rc.opts.out, res.Image, 0o644); err != nil {
			return fmt.Errorf("failed to write chart: %w", err)
		}
		fmt.Fprintln(rc.stdout, "chart written to", rc.opts.out)
	}
	return nil
}

// caller resolves -me against the identity snapshot. Unknown ids still work,
// they are just shown by number.
func caller(r *stats.Runner, id int64) stats.Identity {
	if u, ok := r.Users()[id]; ok {
		return u
	}
	name := strconv.FormatInt(id, 10)
	return stats.Identity{ID: id, Username: name, DisplayName: name}
}
