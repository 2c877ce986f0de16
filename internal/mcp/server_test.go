package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"arcopilot/internal/answerrocket"
	"arcopilot/internal/config"
	"arcopilot/internal/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runCall struct {
	CopilotID string
	SkillName string
	Params    map[string]any
}

// fakeClient serves canned copilots and skills.
type fakeClient struct {
	pingErr    error
	copilot    *answerrocket.Copilot
	copilotErr error
	skills     map[string]*answerrocket.Skill
	skillErrs  map[string]error
	result     *answerrocket.SkillResult
	runErr     error

	mu   sync.Mutex
	runs []runCall
}

func (f *fakeClient) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeClient) GetCopilot(ctx context.Context, copilotID string) (*answerrocket.Copilot, error) {
	if f.copilotErr != nil {
		return nil, f.copilotErr
	}
	return f.copilot, nil
}

func (f *fakeClient) GetCopilotSkill(ctx context.Context, copilotID, skillID string) (*answerrocket.Skill, error) {
	if err := f.skillErrs[skillID]; err != nil {
		return nil, err
	}
	if s, ok := f.skills[skillID]; ok {
		return s, nil
	}
	return nil, answerrocket.ErrNotFound
}

func (f *fakeClient) RunSkill(ctx context.Context, copilotID, skillName string, params map[string]any) (*answerrocket.SkillResult, error) {
	f.mu.Lock()
	f.runs = append(f.runs, runCall{copilotID, skillName, params})
	f.mu.Unlock()
	if f.runErr != nil {
		return nil, f.runErr
	}
	return f.result, nil
}

func salesClient() *fakeClient {
	return &fakeClient{
		copilot: &answerrocket.Copilot{
			ID:       "cp-1",
			Name:     "Sales",
			SkillIDs: []string{"s1", "s2", "s3", "s4", "s5"},
		},
		skills: map[string]*answerrocket.Skill{
			"s1": {
				ID:          "s1",
				Name:        "Revenue Report",
				Description: "Revenue by region",
				Parameters: []answerrocket.SkillParameter{
					{Name: "region", Value: "EMEA", Description: "Sales region", ConstrainedValues: []string{"EMEA", "APAC"}},
					{Name: "metrics", Value: "[optional]", LLMDescription: "Metrics to include", IsMulti: true},
				},
			},
			"s2": {ID: "s2", Name: "Nightly Export", SchedulingOnly: true},
			"s3": {ID: "s3", Name: "revenue-report", Description: "duplicate name"},
			// s4 fails to load
			"s5": {ID: "s5", Name: "Forecast"},
		},
		skillErrs: map[string]error{"s4": errors.New("boom")},
		result:    &answerrocket.SkillResult{Success: true, Data: json.RawMessage(`{"total": 42}`)},
	}
}

func newTestServer(t *testing.T, client answerrocket.Client) (*Server, *bytes.Buffer) {
	t.Helper()
	logger, logs := logging.NewTestLogger()
	cfg := &config.Config{URL: "https://ar.example.com", CopilotID: "cp-1", Token: "tok"}
	return NewServer(cfg, client, logger, "1.2.3"), logs
}

func TestNewServer(t *testing.T) {
	cfg := &config.Config{CopilotID: "cp"}
	logger, _ := logging.NewTestLogger()
	client := &fakeClient{}

	s := NewServer(cfg, client, logger, "dev")
	require.NotNil(t, s)
	assert.Same(t, cfg, s.config)
	assert.Same(t, logger, s.logger)
	assert.Nil(t, s.mcpServer, "MCP server should not exist until Initialize")
	assert.Empty(t, s.Tools())
}

func TestInitialize_RegistersToolsInOrder(t *testing.T) {
	s, logs := newTestServer(t, salesClient())

	require.NoError(t, s.Initialize(context.Background()))
	assert.Contains(t, logs.String(), "Failed to load skill")

	var names []string
	for _, tool := range s.Tools() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"revenue_report", "revenue_report_2", "forecast"}, names)
	assert.Equal(t, "Sales", s.Copilot().Name)
}

func TestInitialize_PingFailure(t *testing.T) {
	client := salesClient()
	client.pingErr = errors.New("connection refused")
	s, _ := newTestServer(t, client)

	err := s.Initialize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot connect to AnswerRocket at https://ar.example.com")
}

func TestInitialize_CopilotNotFound(t *testing.T) {
	client := salesClient()
	client.copilotErr = answerrocket.ErrNotFound
	s, _ := newTestServer(t, client)

	err := s.Initialize(context.Background())
	require.ErrorIs(t, err, answerrocket.ErrNotFound)
	assert.Contains(t, err.Error(), "copilot cp-1 not found")
}

func TestInitialize_NoClient(t *testing.T) {
	s, _ := newTestServer(t, nil)
	assert.Error(t, s.Initialize(context.Background()))
}

func TestInitialize_CancelledContext(t *testing.T) {
	s, _ := newTestServer(t, salesClient())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Initialize(ctx), context.Canceled)
}

func TestServe_RequiresInitialize(t *testing.T) {
	s, _ := newTestServer(t, salesClient())
	err := s.Serve(context.Background(), strings.NewReader(""), &strings.Builder{})
	assert.EqualError(t, err, "server not initialized")
	assert.NoError(t, s.Stop())
}

func TestToolName(t *testing.T) {
	tests := []struct {
		name, skill, id, want string
	}{
		{"spaces", "Revenue Report", "x", "revenue_report"},
		{"dashes", "year-over-year", "x", "year_over_year"},
		{"punctuation trimmed", "  (Q&A) ", "x", "q_a"},
		{"digits kept", "Top 10", "x", "top_10"},
		{"unicode replaced", "Résumé", "x", "r_sum"},
		{"empty falls back to id", "", "ab-12", "skill_ab_12"},
		{"symbols only", "!!!", "7f3e", "skill_7f3e"},
		{"nothing usable", "", "", "skill"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToolName(tt.skill, tt.id))
		})
	}
}

func TestUniqueName(t *testing.T) {
	used := map[string]bool{}
	assert.Equal(t, "a", uniqueName("a", used))
	assert.Equal(t, "a_2", uniqueName("a", used))
	assert.Equal(t, "a_3", uniqueName("a", used))
	assert.Equal(t, "b", uniqueName("b", used))
}

func TestToolDescription(t *testing.T) {
	assert.Equal(t, "Execute the Forecast skill.", ToolDescription(&answerrocket.Skill{Name: "Forecast"}))
	assert.Equal(t, "Execute the Forecast skill. Detailed.",
		ToolDescription(&answerrocket.Skill{Name: "Forecast", Description: "Plain.", DetailedDescription: "Detailed."}))

	long := strings.Repeat("é", 250)
	got := ToolDescription(&answerrocket.Skill{Name: "X", Description: long})
	assert.Equal(t, "Execute the X skill. "+strings.Repeat("é", 200)+"...", got)
}

func TestBuildTool_Schema(t *testing.T) {
	client := salesClient()
	tool := BuildTool("revenue_report", client.skills["s1"])

	assert.Equal(t, "revenue_report", tool.Name)
	assert.Equal(t, "Execute the Revenue Report skill. Revenue by region", tool.Description)
	assert.Equal(t, "object", tool.InputSchema.Type)
	assert.Equal(t, []string{"region"}, tool.InputSchema.Required)

	region, ok := tool.InputSchema.Properties["region"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", region["type"])
	assert.Equal(t, "Sales region", region["description"])
	assert.Equal(t, []string{"EMEA", "APAC"}, region["enum"])

	metrics, ok := tool.InputSchema.Properties["metrics"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "array", metrics["type"])
	assert.Equal(t, "Metrics to include", metrics["description"])
	assert.Equal(t, map[string]any{"type": "string"}, metrics["items"])
}

func TestBuildTool_ConstrainedMulti(t *testing.T) {
	tool := BuildTool("t", &answerrocket.Skill{Name: "T", Parameters: []answerrocket.SkillParameter{
		{Name: "regions", Value: "x", IsMulti: true, ConstrainedValues: []string{"EMEA", "APAC"}},
	}})

	regions := tool.InputSchema.Properties["regions"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "string", "enum": []string{"EMEA", "APAC"}}, regions["items"])
	assert.Equal(t, []string{"regions"}, tool.InputSchema.Required)
}

func TestValidateArguments(t *testing.T) {
	params := []answerrocket.SkillParameter{
		{Name: "region", Value: "EMEA", ConstrainedValues: []string{"EMEA", "APAC"}},
		{Name: "metrics", Value: "[optional]", IsMulti: true, ConstrainedValues: []string{"revenue", "margin"}},
		{Name: "tags", Value: "[optional]", IsMulti: true},
		{Name: "note", Value: "[optional]"},
	}

	tests := []struct {
		name    string
		args    map[string]any
		want    map[string]any
		wantErr string
	}{
		{
			name: "required only",
			args: map[string]any{"region": "APAC"},
			want: map[string]any{"region": "APAC"},
		},
		{
			name: "multi wraps scalar",
			args: map[string]any{"region": "EMEA", "metrics": "revenue", "tags": "q1"},
			want: map[string]any{"region": "EMEA", "metrics": []string{"revenue"}, "tags": []string{"q1"}},
		},
		{
			name: "multi list from json",
			args: map[string]any{"region": "EMEA", "metrics": []any{"revenue", "margin"}},
			want: map[string]any{"region": "EMEA", "metrics": []string{"revenue", "margin"}},
		},
		{
			name: "unknown arguments dropped",
			args: map[string]any{"region": "EMEA", "extra": 1},
			want: map[string]any{"region": "EMEA"},
		},
		{
			name: "non string scalar",
			args: map[string]any{"region": "EMEA", "note": 3.5},
			want: map[string]any{"region": "EMEA", "note": "3.5"},
		},
		{
			name:    "missing required",
			args:    map[string]any{"note": "x"},
			wantErr: "missing required parameter: region",
		},
		{
			name:    "null counts as missing",
			args:    map[string]any{"region": nil},
			wantErr: "missing required parameter: region",
		},
		{
			name:    "constrained scalar",
			args:    map[string]any{"region": "LATAM"},
			wantErr: "invalid value for region: LATAM. Allowed values: [EMEA APAC]",
		},
		{
			name:    "constrained multi",
			args:    map[string]any{"region": "EMEA", "metrics": []any{"revenue", "churn", "nps"}},
			wantErr: "invalid values for metrics: [churn nps]. Allowed values: [revenue margin]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateArguments(params, tt.args)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func callTool(t *testing.T, s *Server, name string, args map[string]any) (*mcp.CallToolResult, map[string]any) {
	t.Helper()
	var tool *SkillTool
	for i := range s.Tools() {
		if s.Tools()[i].Name == name {
			tool = &s.Tools()[i]
		}
	}
	require.NotNil(t, tool, "tool %s not registered", name)

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := s.handler(*tool)(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Content, 1)

	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &body))
	return res, body
}

func TestHandler_Success(t *testing.T) {
	client := salesClient()
	s, _ := newTestServer(t, client)
	require.NoError(t, s.Initialize(context.Background()))

	res, body := callTool(t, s, "revenue_report", map[string]any{"region": "EMEA", "metrics": "revenue"})
	assert.False(t, res.IsError)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"total": float64(42)}, body["data"])
	assert.Equal(t, "Revenue Report", body["skill_name"])
	assert.Equal(t, "s1", body["skill_id"])
	assert.Equal(t, map[string]any{"region": "EMEA", "metrics": []any{"revenue"}}, body["parameters_used"])

	require.Len(t, client.runs, 1)
	assert.Equal(t, runCall{"cp-1", "Revenue Report", map[string]any{"region": "EMEA", "metrics": []string{"revenue"}}}, client.runs[0])
}

func TestHandler_Failures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*fakeClient)
		args    map[string]any
		wantErr string
		wantRun bool
	}{
		{
			name:    "invalid arguments",
			args:    map[string]any{},
			wantErr: "missing required parameter: region",
		},
		{
			name:    "client error",
			setup:   func(c *fakeClient) { c.runErr = errors.New("timeout") },
			args:    map[string]any{"region": "EMEA"},
			wantErr: "timeout",
			wantRun: true,
		},
		{
			name:    "unsuccessful result",
			setup:   func(c *fakeClient) { c.result = &answerrocket.SkillResult{Error: "quota exceeded"} },
			args:    map[string]any{"region": "EMEA"},
			wantErr: "quota exceeded",
			wantRun: true,
		},
		{
			name:    "unsuccessful result without message",
			setup:   func(c *fakeClient) { c.result = &answerrocket.SkillResult{} },
			args:    map[string]any{"region": "EMEA"},
			wantErr: "unknown error occurred",
			wantRun: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := salesClient()
			if tt.setup != nil {
				tt.setup(client)
			}
			s, _ := newTestServer(t, client)
			require.NoError(t, s.Initialize(context.Background()))

			res, body := callTool(t, s, "revenue_report", tt.args)
			assert.True(t, res.IsError)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantErr, body["error"])
			assert.Equal(t, "Revenue Report", body["skill_name"])
			assert.Equal(t, "s1", body["skill_id"])
			assert.Equal(t, tt.wantRun, len(client.runs) == 1)
		})
	}
}

func TestHandleMessage_ToolsList(t *testing.T) {
	s, _ := newTestServer(t, salesClient())
	require.NoError(t, s.Initialize(context.Background()))

	resp := s.mcpServer.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	var names []string
	for _, tool := range decoded.Result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"revenue_report", "revenue_report_2", "forecast"}, names)
}
