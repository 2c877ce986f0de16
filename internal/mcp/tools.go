package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"arcopilot/internal/answerrocket"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// maxSummaryLength bounds the skill text appended to a tool description.
const maxSummaryLength = 200

// SkillTool is a skill published as an MCP tool.
type SkillTool struct {
	Name  string
	Skill *answerrocket.Skill
}

// ToolName derives a tool name from a skill name: lowercase, characters
// outside [a-z0-9_] replaced by underscores, edges trimmed. A name that
// sanitizes to nothing becomes skill_<id>.
func ToolName(skillName, skillID string) string {
	if name := sanitize(skillName); name != "" {
		return name
	}
	return strings.TrimRight("skill_"+sanitize(skillID), "_")
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

// uniqueName appends _2, _3... until name is unused.
func uniqueName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[candidate]; n++ {
		candidate = name + "_" + strconv.Itoa(n)
	}
	used[candidate] = true
	return candidate
}

// ToolDescription is the text shown to tool callers for a skill.
func ToolDescription(skill *answerrocket.Skill) string {
	summary := []rune(strings.TrimSpace(skill.Summary()))
	if len(summary) > maxSummaryLength {
		summary = append(summary[:maxSummaryLength], []rune("...")...)
	}
	return strings.TrimSpace(fmt.Sprintf("Execute the %s skill. %s", skill.Name, string(summary)))
}

// BuildTool converts a skill into an mcp-go tool definition.
func BuildTool(name string, skill *answerrocket.Skill) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(ToolDescription(skill)),
		mcp.WithTitleAnnotation(skill.Name),
		mcp.WithOpenWorldHintAnnotation(true),
	}

	for _, p := range skill.Parameters {
		var props []mcp.PropertyOption
		if doc := p.Doc(); doc != "" {
			props = append(props, mcp.Description(doc))
		}
		if p.Required() {
			props = append(props, mcp.Required())
		}

		if p.IsMulti {
			items := map[string]any{"type": "string"}
			if len(p.ConstrainedValues) > 0 {
				items["enum"] = p.ConstrainedValues
			}
			props = append(props, mcp.Items(items))
			opts = append(opts, mcp.WithArray(p.Name, props...))
			continue
		}

		if len(p.ConstrainedValues) > 0 {
			props = append(props, mcp.Enum(p.ConstrainedValues...))
		}
		opts = append(opts, mcp.WithString(p.Name, props...))
	}

	return mcp.NewTool(name, opts...)
}

// ValidateArguments checks args against the skill parameters and returns the
// values to send. Missing required parameters and values outside a
// constrained set are errors. Multi-value parameters always become lists and
// arguments the skill does not declare are dropped.
func ValidateArguments(params []answerrocket.SkillParameter, args map[string]any) (map[string]any, error) {
	validated := make(map[string]any, len(params))

	for _, p := range params {
		raw, ok := args[p.Name]
		if !ok || raw == nil {
			if p.Required() {
				return nil, fmt.Errorf("missing required parameter: %s", p.Name)
			}
			continue
		}

		if p.IsMulti {
			values := toStrings(raw)
			if len(p.ConstrainedValues) > 0 {
				var invalid []string
				for _, v := range values {
					if !slices.Contains(p.ConstrainedValues, v) {
						invalid = append(invalid, v)
					}
				}
				if len(invalid) > 0 {
					return nil, fmt.Errorf("invalid values for %s: %v. Allowed values: %v", p.Name, invalid, p.ConstrainedValues)
				}
			}
			validated[p.Name] = values
			continue
		}

		value := toString(raw)
		if len(p.ConstrainedValues) > 0 && !slices.Contains(p.ConstrainedValues, value) {
			return nil, fmt.Errorf("invalid value for %s: %s. Allowed values: %v", p.Name, value, p.ConstrainedValues)
		}
		validated[p.Name] = value
	}

	return validated, nil
}

func toStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, toString(item))
		}
		return out
	default:
		return []string{toString(v)}
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

type toolSuccess struct {
	Success        bool            `json:"success"`
	Data           json.RawMessage `json:"data"`
	Code           json.RawMessage `json:"code,omitempty"`
	SkillName      string          `json:"skill_name"`
	SkillID        string          `json:"skill_id"`
	ParametersUsed map[string]any  `json:"parameters_used"`
}

type toolFailure struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	SkillName string `json:"skill_name"`
	SkillID   string `json:"skill_id"`
}

// handler runs the skill behind tool. Failures are reported to the caller as
// tool errors rather than protocol errors.
func (s *Server) handler(tool SkillTool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		defer s.logger.LogPerformance("tool "+tool.Name, start)

		fail := func(msg string) (*mcp.CallToolResult, error) {
			s.logger.Warn("Skill call failed", "tool", tool.Name, "error", msg)
			body, _ := json.Marshal(toolFailure{
				Error:     msg,
				SkillName: tool.Skill.Name,
				SkillID:   tool.Skill.ID,
			})
			return mcp.NewToolResultError(string(body)), nil
		}

		params, err := ValidateArguments(tool.Skill.Parameters, request.GetArguments())
		if err != nil {
			return fail(err.Error())
		}

		s.logger.LogUserAction("run_skill", tool.Skill.Name)
		result, err := s.client.RunSkill(ctx, s.config.CopilotID, tool.Skill.Name, params)
		if err != nil {
			return fail(err.Error())
		}
		if !result.Success {
			return fail(result.ErrorMessage())
		}

		data := result.Data
		if len(data) == 0 {
			data = json.RawMessage("null")
		}
		body, err := json.Marshal(toolSuccess{
			Success:        true,
			Data:           data,
			Code:           result.Code,
			SkillName:      tool.Skill.Name,
			SkillID:        tool.Skill.ID,
			ParametersUsed: params,
		})
		if err != nil {
			return fail(fmt.Sprintf("failed to encode skill result: %v", err))
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}
