package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/goliatone/go-browser-opts/browser"
)

// HCL documents use blocks for nesting and label instances by browser:
//
//	test {
//	  browser {
//	    provider = "playwright"
//	    instance "chromium" {
//	      headless = true
//	    }
//	  }
//	}
//
// Content around the browser block belongs to the runner and is skipped
// unless the load is strict. The browser block itself is always decoded
// strictly.
type hclBrowser struct {
	Enabled   *bool         `hcl:"enabled,optional"`
	Provider  *string       `hcl:"provider,optional"`
	Headless  *bool         `hcl:"headless,optional"`
	Viewport  *hclViewport  `hcl:"viewport,block"`
	Launch    *hclLaunch    `hcl:"launch,block"`
	Instances []hclInstance `hcl:"instance,block"`
}

type hclInstance struct {
	Browser  string       `hcl:"browser,label"`
	Name     *string      `hcl:"name,optional"`
	Headless *bool        `hcl:"headless,optional"`
	Viewport *hclViewport `hcl:"viewport,block"`
	Launch   *hclLaunch   `hcl:"launch,block"`
}

type hclViewport struct {
	Width  *int `hcl:"width,optional"`
	Height *int `hcl:"height,optional"`
}

type hclLaunch struct {
	Args    []string `hcl:"args,optional"`
	Channel *string  `hcl:"channel,optional"`
	SlowMo  *float64 `hcl:"slow_mo,optional"`
	Timeout *float64 `hcl:"timeout,optional"`
}

func parseHCL(data []byte, source string, strict bool) (browser.Config, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, hclFilename(source))
	if diags.HasErrors() {
		return browser.Config{}, fmt.Errorf("config: parsing %s: %w", source, diags)
	}
	test, err := hclSection(file.Body, "test", source, strict)
	if err != nil || test == nil {
		return browser.Config{}, missingSection(err, source)
	}
	block, err := hclSection(test.Body, "browser", source, strict)
	if err != nil || block == nil {
		return browser.Config{}, missingSection(err, source)
	}

	var section hclBrowser
	if diags := gohcl.DecodeBody(block.Body, nil, &section); diags.HasErrors() {
		return browser.Config{}, fmt.Errorf("config: parsing %s: %w", source, diags)
	}
	return section.toConfig(), nil
}

// hclSection returns the single block called name in body, or nil when there
// is none. Strict loads reject every other attribute and block in body.
func hclSection(body hcl.Body, name, source string, strict bool) (*hcl.Block, error) {
	schema := &hcl.BodySchema{Blocks: []hcl.BlockHeaderSchema{{Type: name}}}
	var (
		content *hcl.BodyContent
		diags   hcl.Diagnostics
	)
	if strict {
		content, diags = body.Content(schema)
	} else {
		content, _, diags = body.PartialContent(schema)
	}
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: parsing %s: %w", source, diags)
	}
	switch len(content.Blocks) {
	case 0:
		return nil, nil
	case 1:
		return content.Blocks[0], nil
	}
	return nil, fmt.Errorf("config: %s: %d %q blocks, want one", source, len(content.Blocks), name)
}

func missingSection(err error, source string) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", ErrMissingBrowserSection, source)
}

// hclparse only needs a name for diagnostics.
func hclFilename(source string) string {
	if strings.HasSuffix(source, ".hcl") {
		return source
	}
	return source + ".hcl"
}

func (b hclBrowser) toConfig() browser.Config {
	cfg := browser.Config{
		Enabled:  b.Enabled,
		Headless: b.Headless,
		Viewport: b.Viewport.toViewport(),
		Launch:   b.Launch.toLaunch(),
	}
	if b.Provider != nil {
		cfg.Provider = *b.Provider
	}
	for _, instance := range b.Instances {
		converted := browser.InstanceConfig{
			Browser:  instance.Browser,
			Headless: instance.Headless,
			Viewport: instance.Viewport.toViewport(),
			Launch:   instance.Launch.toLaunch(),
		}
		if instance.Name != nil {
			converted.Name = *instance.Name
		}
		cfg.Instances = append(cfg.Instances, converted)
	}
	return cfg
}

func (v *hclViewport) toViewport() *browser.Viewport {
	if v == nil {
		return nil
	}
	return &browser.Viewport{Width: v.Width, Height: v.Height}
}

func (l *hclLaunch) toLaunch() *browser.LaunchOptions {
	if l == nil {
		return nil
	}
	out := &browser.LaunchOptions{Args: l.Args, SlowMo: l.SlowMo, Timeout: l.Timeout}
	if l.Channel != nil {
		out.Channel = *l.Channel
	}
	return out
}
