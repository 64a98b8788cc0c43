// Package catalog registers the built-in launch descriptions by name.
package catalog

import (
	"sort"

	"github.com/aerialworks/skylaunch/pkg/launch"
)

// Builder constructs a launch description. Builders are pure: invoking one
// twice yields structurally identical descriptions.
type Builder func() launch.Description

var builders = map[string]Builder{
	"basic_state_estimator": BasicStateEstimator,
}

// Get returns the builder registered under name.
func Get(name string) (Builder, bool) {
	b, ok := builders[name]
	return b, ok
}

// Names lists the registered description names, sorted.
func Names() []string {
	out := make([]string, 0, len(builders))
	for name := range builders {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
