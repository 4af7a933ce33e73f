package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	cliflag "k8s.io/component-base/cli/flag"
	"k8s.io/component-base/cli/globalflag"
)

// RunFunc is the body of the root command, called after the options are
// loaded, completed and validated.
type RunFunc func() error

// Option customizes an App.
type Option func(*App)

// App is a cobra root command bound to a NamedFlagSetOptions value.
type App struct {
	name        string
	shortDesc   string
	description string
	run         RunFunc
	options     NamedFlagSetOptions
	args        cobra.PositionalArgs
	commands    []*cobra.Command
	silence     bool

	cmd *cobra.Command
}

// WithOptions binds the command's option set.
func WithOptions(opts NamedFlagSetOptions) Option {
	return func(a *App) { a.options = opts }
}

// WithRunFunc sets the function executed by the root command.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.run = run }
}

// WithDescription sets the long description shown by --help.
func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

// WithSilence suppresses cobra's usage and error printing.
func WithSilence() Option {
	return func(a *App) { a.silence = true }
}

// WithValidArgs sets the positional argument validator.
func WithValidArgs(args cobra.PositionalArgs) Option {
	return func(a *App) { a.args = args }
}

// WithDefaultValidArgs rejects any positional argument.
func WithDefaultValidArgs() Option {
	return func(a *App) {
		a.args = func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if len(arg) > 0 {
					return fmt.Errorf("%q does not take any arguments, got %q", cmd.CommandPath(), args)
				}
			}
			return nil
		}
	}
}

// WithCommands attaches subcommands. They run after the shared options
// have been loaded, so they can use the same configuration file.
func WithCommands(cmds ...*cobra.Command) Option {
	return func(a *App) { a.commands = append(a.commands, cmds...) }
}

// NewApp builds the application and its cobra command tree.
func NewApp(name string, shortDesc string, opts ...Option) *App {
	a := &App{
		name:      name,
		shortDesc: shortDesc,
	}
	for _, o := range opts {
		o(a)
	}
	a.buildCommand()
	return a
}

// Command returns the root cobra command.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Run executes the root command and exits the process on failure.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.name,
		Short:         a.shortDesc,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: a.silence,
		Args:          a.args,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true

	if a.run != nil {
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			return a.runCommand()
		}
	}

	var namedFlagSets cliflag.NamedFlagSets
	if a.options != nil {
		namedFlagSets = a.options.Flags()
	}
	globalflag.AddGlobalFlags(namedFlagSets.FlagSet("global"), cmd.Name())
	addConfigFlag(a.name, namedFlagSets.FlagSet("global"))

	fs := cmd.PersistentFlags()
	for _, f := range namedFlagSets.FlagSets {
		fs.AddFlagSet(f)
	}

	for _, sub := range a.commands {
		if sub.PreRunE == nil {
			sub.PreRunE = func(*cobra.Command, []string) error {
				return a.loadOptions()
			}
		}
		cmd.AddCommand(sub)
	}

	a.cmd = cmd
}

func (a *App) runCommand() error {
	if err := a.loadOptions(); err != nil {
		return err
	}
	return a.run()
}

// loadOptions layers the config file and environment over the flag defaults.
func (a *App) loadOptions() error {
	if a.options == nil {
		return nil
	}
	if err := viper.BindPFlags(a.cmd.PersistentFlags()); err != nil {
		return err
	}
	if err := viper.Unmarshal(a.options); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := a.options.Complete(); err != nil {
		return err
	}
	return a.options.Validate()
}
