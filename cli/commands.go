package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alexchoi0/blueprint/drivers"
	"github.com/alexchoi0/blueprint/executor"
	"github.com/alexchoi0/blueprint/internal/blueperr"
)

// Exit codes per the external-interfaces contract.
const (
	ExitSuccess      = 0
	ExitScriptError  = 1
	ExitExecFailure  = 2
	ExitCancellation = 3
)

// fixtureFile is the YAML shape accepted by run/check/inspect: just a
// scenario selector today, since plan-file serialization is out of scope
// (SPEC_FULL.md §6) and every fixture is a built-in Go-constructed plan.
type fixtureFile struct {
	Scenario    string `yaml:"scenario"`
	Concurrency int    `yaml:"concurrency"`
}

func loadFixture(path string) (Fixture, fixtureFile, error) {
	var ff fixtureFile
	b, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, ff, fmt.Errorf("reading fixture %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &ff); err != nil {
		return Fixture{}, ff, fmt.Errorf("parsing fixture %s: %w", path, err)
	}
	f, ok := Lookup(ff.Scenario)
	if !ok {
		return Fixture{}, ff, suggestScenario(ff.Scenario)
	}
	return f, ff, nil
}

func suggestScenario(name string) error {
	candidates := Names()
	sort.Strings(candidates)
	ranked := fuzzy.RankFindFold(name, candidates)
	if len(ranked) > 0 {
		return blueperr.NewScriptError("unknown scenario %q, did you mean %q?", name, ranked[0].Target)
	}
	return blueperr.NewScriptError("unknown scenario %q (known: %s)", name, strings.Join(candidates, ", "))
}

// NewRootCommand builds the blueprint CLI, grounded on the teacher pack's
// cobra harness (runtime/cli/harness.go): a small root command wrapping a
// handful of RunE-based subcommands, no generated-command plumbing needed
// since this CLI drives fixed built-in fixtures rather than a compiled
// script.
func NewRootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "blueprint",
		Short:         "Two-phase plan/execute engine reference CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug-level structured logging")

	logger := func() zerolog.Logger {
		if verbose {
			return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		}
		return zerolog.Nop()
	}

	root.AddCommand(
		newCheckCommand(),
		newSchemaCommand(),
		newCompileCommand(),
		newRunCommand(logger),
		newExecCommand(logger),
		newInspectCommand(),
	)
	return root
}

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <fixture.yaml>",
		Short: "Validate that a fixture builds a well-formed plan without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, _, err := loadFixture(args[0])
			if err != nil {
				return err
			}
			if _, err := f.Build(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s builds a valid plan\n", f.Name)
			return nil
		},
	}
}

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the static shape of every available fixture",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := Names()
			sort.Strings(names)
			for _, n := range names {
				f, _ := Lookup(n)
				fmt.Fprintln(cmd.OutOrStdout(), Describe(f))
			}
			return nil
		},
	}
}

func newCompileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <fixture.yaml>",
		Short: "Emit a plan file to disk (out of scope)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return blueperr.NewScriptError("compile: plan serialization is out of scope")
		},
	}
}

func newRunCommand(logger func() zerolog.Logger) *cobra.Command {
	var timeoutSeconds float64
	cmd := &cobra.Command{
		Use:   "run <fixture.yaml>",
		Short: "Build and execute a fixture's plan to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFixture(cmd, args[0], timeoutSeconds, logger())
		},
	}
	cmd.Flags().Float64Var(&timeoutSeconds, "timeout", 0, "plan-level context deadline in seconds, 0 for none")
	return cmd
}

func newExecCommand(logger func() zerolog.Logger) *cobra.Command {
	cmd := newRunCommand(logger)
	cmd.Use = "exec <fixture.yaml>"
	cmd.Short = "Alias of run"
	return cmd
}

func runFixture(cmd *cobra.Command, path string, timeoutSeconds float64, logger zerolog.Logger) error {
	f, ff, err := loadFixture(path)
	if err != nil {
		return err
	}
	p, err := f.Build()
	if err != nil {
		return err
	}

	// executor.Run rejects context.Background() directly (internal/invariant
	// requires a cancellable parent), so always derive one even when no
	// --timeout was requested.
	var ctx context.Context
	var cancel context.CancelFunc
	if timeoutSeconds > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), time.Duration(timeoutSeconds*float64(time.Second)))
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	defer cancel()

	cfg := executor.Config{
		Concurrency: ff.Concurrency,
		Logger:      logger,
		Stdout:      cmd.OutOrStdout(),
		Stderr:      cmd.ErrOrStderr(),
	}
	result, err := executor.Run(ctx, p, drivers.Default(), cfg)
	if err != nil {
		return err
	}

	if len(result.Failed) > 0 {
		for _, failure := range result.Failed {
			fmt.Fprintln(cmd.ErrOrStderr(), failure.Error())
			var cancelled *blueperr.Cancelled
			if errors.As(failure, &cancelled) {
				return exitError{code: ExitCancellation, err: failure}
			}
		}
		return exitError{code: ExitExecFailure, err: result.Failed[0]}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s completed in %s\n", f.Name, result.Duration)
	for id, v := range result.Roots {
		fmt.Fprintf(cmd.OutOrStdout(), "root %d: %v\n", id, v)
	}
	return nil
}

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <fixture.yaml>",
		Short: "Pretty-print a fixture's compiled plan as a tree and DOT graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, _, err := loadFixture(args[0])
			if err != nil {
				return err
			}
			p, err := f.Build()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.Tree())
			fmt.Fprintln(cmd.OutOrStdout(), p.DOT())
			fmt.Fprintf(cmd.OutOrStdout(), "hash: %s\n", p.Hash())
			return nil
		},
	}
}

// exitError carries the process exit code alongside the underlying error,
// so main can translate it without the cli package depending on os.Exit
// directly.
type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string { return e.err.Error() }
func (e exitError) Unwrap() error { return e.err }

// ExitCode classifies err into one of the contract's exit codes. A plain
// ScriptError (including one raised before any node ever runs) is 1; an
// exitError from runFixture carries its own code; anything else defaults to
// the execution-failure code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	var scriptErr *blueperr.ScriptError
	if errors.As(err, &scriptErr) {
		return ExitScriptError
	}
	return ExitExecFailure
}
