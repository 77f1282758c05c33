package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// DefaultMethod is used when a script line names no generation method.
const DefaultMethod = "text_video"

// Line is one script entry producing one clip.
type Line struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	Prompt   string  `json:"prompt,omitempty"`
	Method   string  `json:"method,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Subtitle string  `json:"subtitle,omitempty"`
}

// EffectivePrompt returns the generation prompt, preferring an explicit
// prompt over the raw script text.
func (l Line) EffectivePrompt() string {
	if prompt := strings.TrimSpace(l.Prompt); prompt != "" {
		return prompt
	}
	return strings.TrimSpace(l.Text)
}

// EffectiveMethod returns the generation method name.
func (l Line) EffectiveMethod() string {
	if method := strings.TrimSpace(l.Method); method != "" {
		return method
	}
	return DefaultMethod
}

// Script is a project's ordered clip list.
type Script struct {
	Project string `json:"project"`
	Lines   []Line `json:"script"`
}

// LoadScript reads and validates a project script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	var script Script
	if err := json.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := script.Validate(); err != nil {
		return nil, err
	}
	return &script, nil
}

// Validate checks structural requirements: a project name, at least one
// line, unique non-empty line ids, and a prompt or text per line.
func (s *Script) Validate() error {
	if strings.TrimSpace(s.Project) == "" {
		return fmt.Errorf("script: missing project name")
	}
	if len(s.Lines) == 0 {
		return fmt.Errorf("script: no lines")
	}
	seen := make(map[string]struct{}, len(s.Lines))
	for i, line := range s.Lines {
		id := strings.TrimSpace(line.ID)
		if id == "" {
			return fmt.Errorf("script: line %d has no id", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("script: duplicate line id %q", id)
		}
		seen[id] = struct{}{}
		if line.EffectivePrompt() == "" {
			return fmt.Errorf("script: line %q has neither prompt nor text", id)
		}
		if line.Duration < 0 {
			return fmt.Errorf("script: line %q has negative duration", id)
		}
	}
	return nil
}
