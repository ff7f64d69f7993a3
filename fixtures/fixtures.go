// Package fixtures embeds the headless precedence scenarios, one file per
// document format, together with the value each one must resolve to.
package fixtures

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
)

//go:embed scenarios
var files embed.FS

// Extensions lists the formats every scenario is available in.
var Extensions = []string{".jsonc", ".yaml", ".hcl"}

// Scenario is one precedence case.
type Scenario struct {
	Name        string
	Description string
	// GlobalHeadless and InstanceHeadless describe what the documents set.
	GlobalHeadless   *bool
	InstanceHeadless *bool
	// Expect maps instance name to its effective headless value.
	Expect map[string]bool
}

// Scenarios returns the scenarios in a stable order.
func Scenarios() []Scenario {
	yes := true
	return []Scenario{
		{
			Name:             "headless-both",
			Description:      "headless set on the browser section and on the instance",
			GlobalHeadless:   &yes,
			InstanceHeadless: &yes,
			Expect:           map[string]bool{"chromium": true},
		},
		{
			Name:           "headless-browser",
			Description:    "headless set only on the browser section",
			GlobalHeadless: &yes,
			Expect:         map[string]bool{"chromium": true},
		},
		{
			Name:             "headless-instance",
			Description:      "headless set only on the instance",
			InstanceHeadless: &yes,
			Expect:           map[string]bool{"chromium": true},
		},
	}
}

// Lookup finds a scenario by name.
func Lookup(name string) (Scenario, bool) {
	for _, scenario := range Scenarios() {
		if scenario.Name == name {
			return scenario, true
		}
	}
	return Scenario{}, false
}

// File returns the embedded path of the scenario in the given format.
func (s Scenario) File(ext string) string {
	return path.Join("scenarios", s.Name+ext)
}

// Read returns the raw document of the scenario in the given format.
func (s Scenario) Read(ext string) ([]byte, error) {
	if !slices.Contains(Extensions, ext) {
		return nil, fmt.Errorf("fixtures: no %q variant of %s", ext, s.Name)
	}
	return files.ReadFile(s.File(ext))
}

// FS exposes the embedded scenario files.
func FS() fs.FS {
	return files
}
