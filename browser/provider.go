package browser

import (
	"fmt"
	"slices"
	"sort"
)

// Known providers.
const (
	ProviderPlaywright  = "playwright"
	ProviderWebdriverIO = "webdriverio"
	ProviderPreview     = "preview"
)

type provider struct {
	browsers []string
	headless bool
}

var providers = map[string]provider{
	ProviderPlaywright:  {browsers: []string{"chromium", "firefox", "webkit"}, headless: true},
	ProviderWebdriverIO: {browsers: []string{"chrome", "firefox", "edge", "safari"}, headless: true},
	ProviderPreview:     {headless: false},
}

// Providers lists the known provider names, sorted.
func Providers() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SupportedBrowsers lists the browsers a provider can drive. A nil result
// means any browser is accepted.
func SupportedBrowsers(name string) ([]string, error) {
	p, ok := providers[normalizeProvider(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return slices.Clone(p.browsers), nil
}

// SupportsHeadless reports whether the provider can run without a window.
func SupportsHeadless(name string) bool {
	return providers[normalizeProvider(name)].headless
}

func normalizeProvider(name string) string {
	if name == "" {
		return ProviderPreview
	}
	return name
}

func checkBrowser(providerName, browserName string) error {
	p, ok := providers[providerName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, providerName)
	}
	if p.browsers == nil || slices.Contains(p.browsers, browserName) {
		return nil
	}
	return fmt.Errorf("%w: %q is not available with %s (want one of %v)",
		ErrUnsupportedBrowser, browserName, providerName, p.browsers)
}
