package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshp123/hive-heat/internal/config"
)

// InputError is a bad command-line argument. It is raised before any
// config or network access.
type InputError struct {
	Arg string
	Err error
}

func (e *InputError) Error() string {
	if e.Arg == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("invalid temperature %q: %v", e.Arg, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// LogoutError reports a trailing logout failure after the main operation
// already succeeded.
type LogoutError struct {
	Err error
}

func (e *LogoutError) Error() string {
	return fmt.Sprintf("operation completed but logout failed: %v", e.Err)
}

func (e *LogoutError) Unwrap() error {
	return e.Err
}

type options struct {
	configDir string
	json      bool
	logout    bool
	verbose   bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(nil).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "hive-heat: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func newRootCmd(httpClient *http.Client) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "hive-heat [target-celsius]",
		Short: "Show the Hive heating status, or set a new target temperature",
		Long: `With no argument, prints the measured and target temperature of the
account's heating device. With one numeric argument, sets the target.

Credentials are read from conf.toml in the config directory; the session
token is cached next to it so repeated runs do not log in again.

A negative target must follow --, as in: hive-heat -- -1`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 1 {
				return &InputError{Err: fmt.Errorf("expected at most one argument, got %d", len(args))}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args, cmd.OutOrStdout(), httpClient)
		},
	}

	cmd.SetFlagErrorFunc(flagError)

	flags := cmd.Flags()
	flags.StringVar(&opts.configDir, "config-dir", "", "config directory (default ~/"+config.DirName+")")
	flags.BoolVar(&opts.json, "json", false, "print JSON instead of text")
	flags.BoolVar(&opts.logout, "logout", false, "log the session out when done (forces a login next run)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging on stderr")
	return cmd
}

func parseTarget(arg string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	if err != nil {
		return 0, &InputError{Arg: arg, Err: errors.New("not a number")}
	}
	return value, nil
}

// flagError turns pflag failures into usage errors. pflag reads a leading
// negative number as a cluster of shorthand flags.
func flagError(_ *cobra.Command, err error) error {
	msg := err.Error()
	if i := strings.LastIndex(msg, " in "); i >= 0 {
		arg := msg[i+len(" in "):]
		if _, perr := strconv.ParseFloat(arg, 64); perr == nil {
			return &InputError{Err: fmt.Errorf("%s looks like a flag; use hive-heat -- %s", arg, arg)}
		}
	}
	return &InputError{Err: err}
}

func exitCode(err error) int {
	var inputErr *InputError
	var cfgErr *config.Error
	if errors.As(err, &inputErr) || errors.As(err, &cfgErr) {
		return 2
	}
	return 1
}
