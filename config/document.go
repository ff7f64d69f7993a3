package config

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-browser-opts/browser"
	"github.com/goliatone/go-browser-opts/internal/hydrate"
)

func parseJSONC(data []byte, source string, strict bool) (browser.Config, error) {
	var document map[string]any
	if err := json.Unmarshal(jsonc.ToJSON(data), &document); err != nil {
		return browser.Config{}, fmt.Errorf("config: parsing %s: %w", source, err)
	}
	return decodeSection(document, hydrate.Context{Source: source, Format: string(FormatJSONC)}, strict)
}

func parseYAML(data []byte, source string, strict bool) (browser.Config, error) {
	var document map[string]any
	if err := yaml.Unmarshal(data, &document); err != nil {
		return browser.Config{}, fmt.Errorf("config: parsing %s: %w", source, err)
	}
	return decodeSection(document, hydrate.Context{Source: source, Format: string(FormatYAML)}, strict)
}

func decodeSection(document map[string]any, ctx hydrate.Context, strict bool) (browser.Config, error) {
	if document == nil {
		return browser.Config{}, fmt.Errorf("%w: %s is empty", ErrMissingBrowserSection, ctx.Source)
	}
	options := []hydrate.DecoderOption[browser.Config]{
		hydrate.WithPreHook[browser.Config](browserSection),
	}
	if strict {
		options = append(options, hydrate.WithDisallowUnknownFields[browser.Config]())
	}
	cfg, err := hydrate.NewDecoder(options...).Decode(ctx, document)
	if err != nil {
		return browser.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// browserSection narrows a whole document to test.browser.
func browserSection(ctx hydrate.Context, document map[string]any) (map[string]any, error) {
	test, ok := document["test"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no test section", ErrMissingBrowserSection, ctx.Source)
	}
	section, ok := test["browser"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingBrowserSection, ctx.Source)
	}
	return section, nil
}
