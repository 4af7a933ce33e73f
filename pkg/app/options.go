package app

import (
	cliflag "k8s.io/component-base/cli/flag"
)

// NamedFlagSetOptions is implemented by every command's option set. The
// application binds the flag sets, merges the config file over them and
// then calls Complete and Validate in that order.
type NamedFlagSetOptions interface {
	// Flags returns the option flags grouped by section.
	Flags() cliflag.NamedFlagSets

	// Complete fills in fields derived from other fields.
	Complete() error

	// Validate returns an aggregate of every invalid field.
	Validate() error
}
