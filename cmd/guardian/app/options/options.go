package options

import (
	"fmt"
	"os"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/guardian/internal/guardian"
	"github.com/autopeer-io/guardian/pkg/app"
	"github.com/autopeer-io/guardian/pkg/log"
	"github.com/autopeer-io/guardian/pkg/options"
)

type GuardianOptions struct {
	HttpOptions    *options.HttpOptions    `json:"http" mapstructure:"http"`
	MqttOptions    *options.MqttOptions    `json:"mqtt" mapstructure:"mqtt"`
	S3Options      *options.S3Options      `json:"s3" mapstructure:"s3"`
	FleetOptions   *options.FleetOptions   `json:"fleet" mapstructure:"fleet"`
	JammingOptions *options.JammingOptions `json:"jamming" mapstructure:"jamming"`
	Log            *log.Options            `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*GuardianOptions)(nil)

func NewGuardianOptions() *GuardianOptions {
	o := &GuardianOptions{
		HttpOptions:    options.NewHttpOptions(),
		MqttOptions:    options.NewMqttOptions(),
		S3Options:      options.NewS3Options(),
		FleetOptions:   options.NewFleetOptions(),
		JammingOptions: options.NewJammingOptions(),
		Log:            log.NewOptions(),
	}

	return o
}

func (o *GuardianOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.S3Options.AddFlags(fss.FlagSet("s3"))
	o.FleetOptions.AddFlags(fss.FlagSet("fleet"))
	o.JammingOptions.AddFlags(fss.FlagSet("jamming"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

// Complete derives a per-host MQTT client id when none is configured.
func (o *GuardianOptions) Complete() error {
	if o.MqttOptions.ClientID == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("failed to derive mqtt client id: %w", err)
		}
		o.MqttOptions.ClientID = "guardian-" + hostname
	}
	return nil
}

func (o *GuardianOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.S3Options.Validate()...)
	errs = append(errs, o.FleetOptions.Validate()...)
	errs = append(errs, o.JammingOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *GuardianOptions) Config() (*guardian.Config, error) {
	return &guardian.Config{
		HttpOptions:    o.HttpOptions,
		MqttOptions:    o.MqttOptions,
		S3Options:      o.S3Options,
		FleetOptions:   o.FleetOptions,
		JammingOptions: o.JammingOptions,
	}, nil
}
