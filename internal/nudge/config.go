package nudge

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy controls when and how often invite nudges go out.
type Policy struct {
	// WaitAfterInvite is how long after a person's invite anchor before the
	// first nudge is eligible.
	WaitAfterInvite time.Duration `yaml:"wait_after_invite"`

	// RepeatWindow is the minimum gap between nudges to the same person. A
	// person already nudged inside this window is skipped, which makes a
	// scheduler run safe to repeat.
	RepeatWindow time.Duration `yaml:"repeat_window"`

	// MaxPerRun caps the number of messages sent in one scheduler pass.
	// Zero means no cap.
	MaxPerRun int `yaml:"max_per_run"`

	// MessageTemplate is the SMS body. %s is replaced with the event name.
	MessageTemplate string `yaml:"message_template"`
}

// DefaultPolicy returns the policy used when no config file is given.
func DefaultPolicy() Policy {
	return Policy{
		WaitAfterInvite: 48 * time.Hour,
		RepeatWindow:    72 * time.Hour,
		MaxPerRun:       100,
		MessageTemplate: "Reminder: you have unanswered assignments for %s. Please respond when you can.",
	}
}

// LoadPolicy reads a YAML policy file, filling unset fields from defaults.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("reading nudge policy: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parsing nudge policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Validate checks the policy for nonsensical values.
func (p Policy) Validate() error {
	if p.WaitAfterInvite <= 0 {
		return fmt.Errorf("wait_after_invite must be positive")
	}
	if p.RepeatWindow <= 0 {
		return fmt.Errorf("repeat_window must be positive")
	}
	if p.MaxPerRun < 0 {
		return fmt.Errorf("max_per_run cannot be negative")
	}
	if p.MessageTemplate == "" {
		return fmt.Errorf("message_template cannot be empty")
	}
	return nil
}
