package browser

import (
	"errors"
	"fmt"
)

// IsEnabled reports whether browser mode is on. A browser section without an
// explicit enabled flag counts as enabled.
func (c Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Validate checks the provider, every instance and instance name uniqueness.
// All problems are reported together.
func (c Config) Validate() error {
	return c.validate(normalizeProvider(c.Provider))
}

func (c Config) validate(providerName string) error {
	if _, ok := providers[providerName]; !ok {
		return fmt.Errorf("%w: %q (want one of %v)", ErrUnknownProvider, c.Provider, Providers())
	}
	if c.IsEnabled() && len(c.Instances) == 0 {
		return ErrNoInstances
	}

	var errs []error
	seen := make(map[string]int, len(c.Instances))
	for i, instance := range c.Instances {
		if err := instance.validate(providerName); err != nil {
			errs = append(errs, fmt.Errorf("instances[%d]: %w", i, err))
			continue
		}
		name := instance.InstanceName()
		if first, ok := seen[name]; ok {
			errs = append(errs, fmt.Errorf("instances[%d]: %w: %q already used by instances[%d]", i, ErrDuplicateInstance, name, first))
			continue
		}
		seen[name] = i
	}
	return errors.Join(errs...)
}

func (i InstanceConfig) validate(providerName string) error {
	if i.Browser == "" {
		return ErrInstanceBrowserRequired
	}
	return checkBrowser(providerName, i.Browser)
}
