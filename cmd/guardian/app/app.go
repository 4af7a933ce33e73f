package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/guardian/cmd/guardian/app/options"
	"github.com/autopeer-io/guardian/pkg/app"
	"github.com/autopeer-io/guardian/pkg/log"
)

const (
	commandName = "guardian"
	commandDesc = `The guardian supervises a fleet of unmanned units. It returns units
home when their battery runs low, watches the communication link for
jamming, applies countermeasures and dispatches alerts to subscribers.`
)

func NewApp() *app.App {
	opts := options.NewGuardianOptions()
	application := app.NewApp(
		commandName,
		"Launch the fleet safety guardian",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
		app.WithCommands(newUnitsCommand(opts)),
	)
	return application
}

func run(opts *options.GuardianOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer func() { _ = log.Sync() }()
		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		g, err := cfg.NewGuardian(ctx)
		if err != nil {
			return fmt.Errorf("failed to create guardian: %w", err)
		}

		return g.Run(ctx)
	}
}
