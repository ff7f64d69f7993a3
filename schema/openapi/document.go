package openapi

import (
	"fmt"
	"strings"
)

// settings shape the published document.
type settings struct {
	openAPI     string
	title       string
	version     string
	description string
	path        string
	method      string
	summary     string
	contentType string
	component   string
}

func defaultSettings() settings {
	return settings{
		openAPI:     "3.0.3",
		title:       "Browser Test Configuration",
		version:     "1.0.0",
		path:        "/browser-config",
		method:      "post",
		contentType: "application/json",
		component:   "BrowserConfig",
	}
}

// GeneratorOption adjusts the published document. Empty arguments keep the
// defaults unless noted.
type GeneratorOption func(*settings)

// WithOpenAPIVersion sets the openapi field. Default 3.0.3.
func WithOpenAPIVersion(version string) GeneratorOption {
	return func(s *settings) { setIfAny(&s.openAPI, version) }
}

// WithInfo fills the info block.
func WithInfo(title, version, description string) GeneratorOption {
	return func(s *settings) {
		setIfAny(&s.title, title)
		setIfAny(&s.version, version)
		setIfAny(&s.description, description)
	}
}

// WithOperation sets the single operation that takes the configuration as
// its request body. The summary is always replaced.
func WithOperation(path, method, summary string) GeneratorOption {
	return func(s *settings) {
		setIfAny(&s.path, path)
		setIfAny(&s.method, strings.ToLower(method))
		s.summary = strings.TrimSpace(summary)
	}
}

func WithContentType(contentType string) GeneratorOption {
	return func(s *settings) { setIfAny(&s.contentType, contentType) }
}

// WithRootComponent names the component holding the root schema.
func WithRootComponent(name string) GeneratorOption {
	return func(s *settings) { setIfAny(&s.component, name) }
}

func setIfAny(field *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*field = value
	}
}

func applySettings(options []GeneratorOption) settings {
	s := defaultSettings()
	for _, option := range options {
		if option != nil {
			option(&s)
		}
	}
	return s
}

func (s settings) validate() error {
	switch {
	case s.openAPI == "":
		return fmt.Errorf("openapi: document version is required")
	case s.title == "" || s.version == "":
		return fmt.Errorf("openapi: info title and version are required")
	case !strings.HasPrefix(s.path, "/"):
		return fmt.Errorf("openapi: path %q must start with /", s.path)
	}
	return nil
}

func (s settings) document(root map[string]any) (map[string]any, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	operation := map[string]any{
		"operationId": s.method + ":" + s.path,
		"requestBody": map[string]any{
			"required": true,
			"content": map[string]any{
				s.contentType: map[string]any{
					"schema": map[string]any{"$ref": "#/components/schemas/" + s.component},
				},
			},
		},
		"responses": map[string]any{
			"204": map[string]any{"description": "OK"},
		},
	}
	if s.summary != "" {
		operation["summary"] = s.summary
	}
	info := map[string]any{"title": s.title, "version": s.version}
	if s.description != "" {
		info["description"] = s.description
	}

	return map[string]any{
		"openapi": s.openAPI,
		"info":    info,
		"paths": map[string]any{
			s.path: map[string]any{s.method: operation},
		},
		"components": map[string]any{
			"schemas": map[string]any{s.component: root},
		},
	}, nil
}
