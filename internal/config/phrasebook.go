package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"herald/internal/session"
)

var ErrEmptyActivation = errors.New("empty activation phrase")

// Phrasebook overrides the built-in wording and timeouts:
//
//	activation: [hey herald, computer]
//	greeting: "At your service."
//	timeouts:
//	  active: 6s
type Phrasebook struct {
	Activation []string `yaml:"activation"`
	Greeting   string   `yaml:"greeting"`
	Farewell   string   `yaml:"farewell"`
	Persona    string   `yaml:"persona"`
	Timeouts   Timeouts `yaml:"timeouts"`
}

type Timeouts struct {
	Passive     time.Duration `yaml:"passive"`
	Active      time.Duration `yaml:"active"`
	PhraseLimit time.Duration `yaml:"phrase_limit"`
	Handler     time.Duration `yaml:"handler"`
	Bridge      time.Duration `yaml:"bridge"`
}

func LoadPhrasebook(path string) (*Phrasebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read phrasebook %s: %w", path, err)
	}

	pb, err := ParsePhrasebook(data)
	if err != nil {
		return nil, fmt.Errorf("parse phrasebook %s: %w", path, err)
	}
	return pb, nil
}

func ParsePhrasebook(data []byte) (*Phrasebook, error) {
	var pb Phrasebook
	if err := yaml.Unmarshal(data, &pb); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	for i, p := range pb.Activation {
		if strings.TrimSpace(p) == "" {
			return nil, fmt.Errorf("activation[%d]: %w", i, ErrEmptyActivation)
		}
	}
	if pb.Timeouts.Passive < 0 || pb.Timeouts.Active < 0 || pb.Timeouts.PhraseLimit < 0 ||
		pb.Timeouts.Handler < 0 || pb.Timeouts.Bridge < 0 {
		return nil, errors.New("timeouts must not be negative")
	}

	return &pb, nil
}

// ActivationPhrases returns the phrasebook's phrases, or the defaults.
func (pb *Phrasebook) ActivationPhrases() []string {
	if pb == nil || len(pb.Activation) == 0 {
		return session.DefaultActivationPhrases()
	}
	return pb.Activation
}

// Apply copies the non-zero timeouts onto cfg.
func (pb *Phrasebook) Apply(cfg session.Config) session.Config {
	if pb == nil {
		return cfg
	}
	if pb.Timeouts.Passive > 0 {
		cfg.PassiveTimeout = pb.Timeouts.Passive
	}
	if pb.Timeouts.Active > 0 {
		cfg.ActiveTimeout = pb.Timeouts.Active
	}
	if pb.Timeouts.PhraseLimit > 0 {
		cfg.PhraseLimit = pb.Timeouts.PhraseLimit
	}
	return cfg
}
