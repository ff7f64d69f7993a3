// Package browser resolves the effective per-instance configuration of a
// browser test run. Each instance is layered over the global browser section,
// which is layered over provider defaults, so an instance setting always wins
// and an unset instance setting inherits the global one.
package browser

// Config is the global browser section of a test configuration
// (test.browser).
type Config struct {
	Enabled   *bool            `json:"enabled,omitempty"`
	Provider  string           `json:"provider,omitempty" enum:"playwright,webdriverio,preview" description:"Browser provider; empty selects preview"`
	Headless  *bool            `json:"headless,omitempty" description:"Run every instance without a visible window unless the instance says otherwise"`
	Viewport  *Viewport        `json:"viewport,omitempty"`
	Launch    *LaunchOptions   `json:"launch,omitempty"`
	Instances []InstanceConfig `json:"instances,omitempty"`

	// SnapshotID identifies the document the config was loaded from. It is
	// attached to the browser and instance layers for provenance.
	SnapshotID string `json:"-"`
}

// InstanceConfig is one entry of test.browser.instances.
type InstanceConfig struct {
	Browser  string         `json:"browser" description:"Browser engine, e.g. chromium"`
	Name     string         `json:"name,omitempty" description:"Unique instance name; defaults to the browser"`
	Headless *bool          `json:"headless,omitempty"`
	Viewport *Viewport      `json:"viewport,omitempty"`
	Launch   *LaunchOptions `json:"launch,omitempty"`
}

// Viewport is the page size requested for an instance.
type Viewport struct {
	Width  *int `json:"width,omitempty" minimum:"1"`
	Height *int `json:"height,omitempty" minimum:"1"`
}

// LaunchOptions are passed through to the provider when it starts a browser.
type LaunchOptions struct {
	Args    []string `json:"args,omitempty" yaml:"args,omitempty"`
	Channel string   `json:"channel,omitempty" yaml:"channel,omitempty"`
	SlowMo  *float64 `json:"slowMo,omitempty" yaml:"slowMo,omitempty" minimum:"0"`
	Timeout *float64 `json:"timeout,omitempty" yaml:"timeout,omitempty" minimum:"0"`
}

// Settings is the snapshot held by every scope layer. Nil pointers and empty
// strings mean unset.
type Settings struct {
	Provider string         `json:"provider,omitempty"`
	Browser  string         `json:"browser,omitempty"`
	Headless *bool          `json:"headless,omitempty"`
	Viewport *Viewport      `json:"viewport,omitempty"`
	Launch   *LaunchOptions `json:"launch,omitempty"`
}

// Size is a resolved viewport.
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Effective is the fully resolved configuration of one instance.
type Effective struct {
	Name           string            `json:"name" yaml:"name"`
	Browser        string            `json:"browser" yaml:"browser"`
	Provider       string            `json:"provider" yaml:"provider"`
	Headless       bool              `json:"headless" yaml:"headless"`
	HeadlessSource string            `json:"headlessSource" yaml:"headlessSource"`
	Viewport       Size              `json:"viewport" yaml:"viewport"`
	Launch         LaunchOptions     `json:"launch" yaml:"launch"`
	SnapshotIDs    map[string]string `json:"snapshotIds,omitempty" yaml:"snapshotIds,omitempty"`
}

// Resolution holds one Effective per instance, in declaration order.
type Resolution struct {
	Provider  string      `json:"provider" yaml:"provider"`
	Instances []Effective `json:"instances" yaml:"instances"`
}

// Instance returns the effective configuration of the named instance.
func (r Resolution) Instance(name string) (Effective, bool) {
	for _, instance := range r.Instances {
		if instance.Name == name {
			return instance, true
		}
	}
	return Effective{}, false
}

// InstanceName returns the name an instance is addressed by.
func (i InstanceConfig) InstanceName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Browser
}

// Bool returns a pointer to v, for building configs in code.
func Bool(v bool) *bool { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
