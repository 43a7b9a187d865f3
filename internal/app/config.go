package app

import "errors"

// Config holds everything an App instance needs to run one workflow session.
type Config struct {
	WorkflowPath string // workflow .hcl file
	Prompt       string // prompt text, mutually optional with InputPath
	InputPath    string // file whose contents feed the pipeline directly

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	Watch           bool // reload toggles on workflow file edits
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkflowPath == "" {
		return nil, errors.New("WorkflowPath is a required configuration field and cannot be empty")
	}
	if cfg.Prompt == "" && cfg.InputPath == "" {
		return nil, errors.New("either a prompt or an input file is required")
	}
	if cfg.Prompt != "" && cfg.InputPath != "" {
		return nil, errors.New("a prompt and an input file are mutually exclusive")
	}
	return &cfg, nil
}
