// Package workflow defines the workflow definition format and its
// validation rules. Definitions are authored as YAML and stored verbatim;
// the engine parses them again at execution time.
package workflow

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Step kinds understood by the engine.
const (
	StepKindLog      = "log"
	StepKindSleep    = "sleep"
	StepKindHTTP     = "http"
	StepKindApproval = "approval"
)

// MaxSleep bounds the sleep step so a definition cannot park a worker
// indefinitely.
const MaxSleep = 5 * time.Minute

// Duration decodes Go duration strings ("30s", "2m") from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Step is a single unit of work inside a definition.
type Step struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`

	// log
	Message string `yaml:"message,omitempty"`

	// sleep
	Duration Duration `yaml:"duration,omitempty"`

	// http
	URL string `yaml:"url,omitempty"`
	// Integration optionally names an enabled integration whose base URL
	// is prefixed to URL.
	Integration string `yaml:"integration,omitempty"`
}

// Definition is a parsed, validated workflow definition.
type Definition struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Parse decodes and validates a YAML definition.
func Parse(raw []byte) (Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(strings.NewReader(string(raw)))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return Definition{}, fmt.Errorf("decode definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// Validate checks structural invariants: a name, at least one step, unique
// step names, known kinds, and kind-specific fields.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("definition name required")
	}
	if len(d.Steps) == 0 {
		return fmt.Errorf("definition %q: at least one step required", d.Name)
	}

	seen := make(map[string]struct{}, len(d.Steps))
	for i, step := range d.Steps {
		name := strings.TrimSpace(step.Name)
		if name == "" {
			return fmt.Errorf("definition %q: step %d has no name", d.Name, i+1)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("definition %q: duplicate step name %q", d.Name, name)
		}
		seen[name] = struct{}{}

		if err := step.validate(); err != nil {
			return fmt.Errorf("definition %q: step %q: %w", d.Name, name, err)
		}
	}
	return nil
}

func (s Step) validate() error {
	switch s.Kind {
	case StepKindLog:
		if strings.TrimSpace(s.Message) == "" {
			return fmt.Errorf("log step requires a message")
		}
	case StepKindSleep:
		if s.Duration.Std() <= 0 {
			return fmt.Errorf("sleep step requires a positive duration")
		}
		if s.Duration.Std() > MaxSleep {
			return fmt.Errorf("sleep duration %s exceeds the %s maximum", s.Duration.Std(), MaxSleep)
		}
	case StepKindHTTP:
		target := strings.TrimSpace(s.URL)
		if target == "" {
			return fmt.Errorf("http step requires a url")
		}
		if strings.TrimSpace(s.Integration) != "" {
			// Relative against the integration base URL; only the path
			// shape is checkable here.
			if strings.Contains(target, "://") {
				return fmt.Errorf("http step with an integration takes a relative url")
			}
			return nil
		}
		u, err := url.Parse(target)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("http step url %q is not absolute", target)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("http step url scheme %q is not supported", u.Scheme)
		}
	case StepKindApproval:
		// Message is optional; a bare approval gate is fine.
	case "":
		return fmt.Errorf("step kind required")
	default:
		return fmt.Errorf("unknown step kind %q", s.Kind)
	}
	return nil
}
