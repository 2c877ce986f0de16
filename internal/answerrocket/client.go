package answerrocket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"arcopilot/internal/logging"

	"github.com/google/uuid"
)

const (
	DefaultGraphQLPath = "/api/sdk/graphql"
	DefaultTimeout     = 30 * time.Second

	// maxErrorBody caps how much of a failed response is quoted in errors.
	maxErrorBody = 512
)

const (
	pingQuery = `query Ping { ping }`

	copilotQuery = `query GetCopilotInfo($copilotId: UUID!, $usePublishedVersion: Boolean) {
  getCopilotInfo(copilotId: $copilotId, usePublishedVersion: $usePublishedVersion) {
    copilotId name description copilotSkillIds
  }
}`

	skillQuery = `query GetCopilotSkill($copilotId: UUID!, $copilotSkillId: UUID!, $usePublishedVersion: Boolean) {
  getCopilotSkill(copilotId: $copilotId, copilotSkillId: $copilotSkillId, usePublishedVersion: $usePublishedVersion) {
    copilotSkillId name description detailedDescription schedulingOnly
    parameters { name description llmDescription value isMulti constrainedValues }
  }
}`

	runSkillMutation = `mutation RunCopilotSkill($copilotId: UUID!, $skillName: String!, $parameters: JSON) {
  runCopilotSkill(copilotId: $copilotId, skillName: $skillName, parameters: $parameters) {
    success data error code
  }
}`
)

// HTTPClient talks GraphQL over HTTP to an AnswerRocket instance.
type HTTPClient struct {
	httpClient *http.Client
	endpoint   string
	token      string
	logger     *logging.AppLogger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client for the instance at baseURL. An empty
// graphqlPath or a non-positive timeout selects the defaults.
func NewHTTPClient(baseURL, graphqlPath, token string, timeout time.Duration, logger *logging.AppLogger) *HTTPClient {
	if graphqlPath == "" {
		graphqlPath = DefaultGraphQLPath
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.GetDefault()
	}
	return &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(graphqlPath, "/"),
		token:      token,
		logger:     logger,
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// do posts one GraphQL operation and decodes its data into out.
func (c *HTTPClient) do(ctx context.Context, operation, query string, vars map[string]any, out any) error {
	start := time.Now()
	requestID := uuid.NewString()

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", operation, err)
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", operation, err)
	}

	c.logger.Debug("GraphQL request",
		"operation", operation,
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned %d: %s", operation, resp.StatusCode, truncateBody(respData))
	}

	var gr graphQLResponse
	if err := json.Unmarshal(respData, &gr); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidResponse, operation, err)
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, len(gr.Errors))
		for i, e := range gr.Errors {
			msgs[i] = e.Message
		}
		return fmt.Errorf("%s failed: %s", operation, strings.Join(msgs, "; "))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("%w: %s data: %v", ErrInvalidResponse, operation, err)
	}
	return nil
}

func truncateBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}

// Ping checks that the instance is reachable and the token is accepted.
func (c *HTTPClient) Ping(ctx context.Context) error {
	var data struct {
		Ping *json.RawMessage `json:"ping"`
	}
	if err := c.do(ctx, "ping", pingQuery, nil, &data); err != nil {
		return err
	}
	if data.Ping == nil {
		return fmt.Errorf("%w: empty ping", ErrInvalidResponse)
	}
	return nil
}

func (c *HTTPClient) GetCopilot(ctx context.Context, copilotID string) (*Copilot, error) {
	var data struct {
		Copilot *Copilot `json:"getCopilotInfo"`
	}
	vars := map[string]any{"copilotId": copilotID, "usePublishedVersion": true}
	if err := c.do(ctx, "getCopilotInfo", copilotQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.Copilot == nil {
		return nil, fmt.Errorf("copilot %s: %w", copilotID, ErrNotFound)
	}
	if err := data.Copilot.Validate(); err != nil {
		return nil, err
	}
	return data.Copilot, nil
}

func (c *HTTPClient) GetCopilotSkill(ctx context.Context, copilotID, skillID string) (*Skill, error) {
	var data struct {
		Skill *Skill `json:"getCopilotSkill"`
	}
	vars := map[string]any{
		"copilotId":           copilotID,
		"copilotSkillId":      skillID,
		"usePublishedVersion": true,
	}
	if err := c.do(ctx, "getCopilotSkill", skillQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.Skill == nil {
		return nil, fmt.Errorf("skill %s: %w", skillID, ErrNotFound)
	}
	if err := data.Skill.Validate(); err != nil {
		return nil, err
	}
	return data.Skill, nil
}

func (c *HTTPClient) RunSkill(ctx context.Context, copilotID, skillName string, params map[string]any) (*SkillResult, error) {
	var data struct {
		Result *SkillResult `json:"runCopilotSkill"`
	}
	if params == nil {
		params = map[string]any{}
	}
	vars := map[string]any{
		"copilotId":  copilotID,
		"skillName":  skillName,
		"parameters": params,
	}
	if err := c.do(ctx, "runCopilotSkill", runSkillMutation, vars, &data); err != nil {
		return nil, err
	}
	if data.Result == nil {
		return nil, fmt.Errorf("%w: empty skill result", ErrInvalidResponse)
	}
	return data.Result, nil
}
