package terminal

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"e2e_harness/infrastructure/config"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	engine     string
	headed     bool
}

// NewRootCommand - builds the CLI writing reports to out and logs to logs
func NewRootCommand(out, logs io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "e2e_harness",
		Short:         "Browser driven end-to-end checks for Wikipedia",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default is ./e2e.yaml)")
	root.PersistentFlags().StringVar(&opts.engine, "engine", "", "rendering engine: playwright or static")
	root.PersistentFlags().BoolVar(&opts.headed, "headed", false, "show the browser window")

	root.AddCommand(
		newLoginCommand(opts, out, logs),
		newRunCommand(opts, out, logs),
		newListCommand(opts, out, logs),
	)
	return root
}

func (o *rootOptions) open(logs io.Writer) (*TerminalInterface, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}
	if o.engine != "" {
		cfg.Browser.Engine = o.engine
	}
	if o.headed {
		cfg.Browser.Headless = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return NewTerminalInterface(cfg, logs)
}

func newLoginCommand(opts *rootOptions, out, logs io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session for later runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ti, err := opts.open(logs)
			if err != nil {
				return err
			}
			defer ti.Close()

			phase, err := ti.Login(cmd.Context())
			fmt.Fprintf(out, "session: %s\n", phase)
			return err
		},
	}
}

func newRunCommand(opts *rootOptions, out, logs io.Writer) *cobra.Command {
	var (
		format string
		params map[string]string
	)
	cmd := &cobra.Command{
		Use:   "run [scenario or tag...]",
		Short: "Run scenarios and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			ti, err := opts.open(logs)
			if err != nil {
				return err
			}
			defer ti.Close()

			report, runErr := ti.Run(cmd.Context(), args, params)
			if report == nil {
				return runErr
			}
			if err := PrintReport(out, report, format); err != nil {
				return err
			}
			if runErr != nil {
				return runErr
			}
			if !report.Passed() {
				return fmt.Errorf("%w: %v", errSuiteFailed, report.Err())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", "yaml", "report format: yaml or json")
	cmd.Flags().StringToStringVarP(&params, "param", "p", nil, "scenario parameter override, e.g. -p expected_user=Alice")
	return cmd
}

func newListCommand(opts *rootOptions, out, logs io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ti, err := opts.open(logs)
			if err != nil {
				return err
			}
			defer ti.Close()
			return PrintCatalog(out, ti.Catalog())
		},
	}
}

// Execute runs the CLI and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
