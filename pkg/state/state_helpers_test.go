package state_test

import "errors"

type settings struct {
	Provider string `json:"provider,omitempty"`
	Headless *bool  `json:"headless,omitempty"`
	Channel  string `json:"channel,omitempty"`
}

func (s settings) Validate() error {
	if s.Provider == "unknown" {
		return errors.New("provider is not supported")
	}
	return nil
}

func boolPtr(v bool) *bool { return &v }
