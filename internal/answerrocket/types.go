// Package answerrocket is the client boundary to an AnswerRocket instance.
//
// Responses are decoded into the plain structs below and validated once, so
// the rest of the program never has to probe vendor objects for optional
// fields. The Client interface is what the MCP server depends on; HTTPClient
// is the production implementation.
package answerrocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// optionalValue marks a skill parameter that may be omitted.
const optionalValue = "[optional]"

var (
	// ErrNotFound is returned when a copilot or skill does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidResponse is returned when a response fails validation.
	ErrInvalidResponse = errors.New("invalid response")
)

// Client is the subset of the AnswerRocket API used to publish skills.
type Client interface {
	Ping(ctx context.Context) error
	GetCopilot(ctx context.Context, copilotID string) (*Copilot, error)
	GetCopilotSkill(ctx context.Context, copilotID, skillID string) (*Skill, error)
	RunSkill(ctx context.Context, copilotID, skillName string, params map[string]any) (*SkillResult, error)
}

// Copilot is a published copilot and the ids of its skills.
type Copilot struct {
	ID          string   `json:"copilotId"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SkillIDs    []string `json:"copilotSkillIds"`
}

func (c *Copilot) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: copilot has no id", ErrInvalidResponse)
	}
	ids := c.SkillIDs[:0]
	for _, id := range c.SkillIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	c.SkillIDs = ids
	return nil
}

// DisplayName is the copilot name, or its id when unnamed.
func (c *Copilot) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// SkillParameter is one input of a skill.
type SkillParameter struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	LLMDescription    string   `json:"llmDescription"`
	Value             string   `json:"value"`
	IsMulti           bool     `json:"isMulti"`
	ConstrainedValues []string `json:"constrainedValues"`
}

// Required reports whether callers must supply the parameter.
func (p SkillParameter) Required() bool {
	return !strings.EqualFold(strings.TrimSpace(p.Value), optionalValue)
}

// Doc is the description shown to tool callers.
func (p SkillParameter) Doc() string {
	if p.LLMDescription != "" {
		return p.LLMDescription
	}
	return p.Description
}

// Skill is a runnable copilot skill.
type Skill struct {
	ID                  string           `json:"copilotSkillId"`
	Name                string           `json:"name"`
	Description         string           `json:"description"`
	DetailedDescription string           `json:"detailedDescription"`
	SchedulingOnly      bool             `json:"schedulingOnly"`
	Parameters          []SkillParameter `json:"parameters"`
}

// Validate checks the skill id and drops parameters that have no name or no
// value, as those cannot be exposed as tool inputs.
func (s *Skill) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: skill has no id", ErrInvalidResponse)
	}
	params := s.Parameters[:0]
	for _, p := range s.Parameters {
		if p.Name == "" || p.Value == "" {
			continue
		}
		params = append(params, p)
	}
	s.Parameters = params
	return nil
}

// Summary prefers the detailed description.
func (s *Skill) Summary() string {
	if s.DetailedDescription != "" {
		return s.DetailedDescription
	}
	return s.Description
}

// SkillResult is the outcome of running a skill.
type SkillResult struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Code    json.RawMessage `json:"code,omitempty"`
}

// ErrorMessage is the failure reason of an unsuccessful result.
func (r *SkillResult) ErrorMessage() string {
	if r.Error != "" {
		return r.Error
	}
	return "unknown error occurred"
}
