package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"arcopilot/internal/answerrocket"
	"arcopilot/internal/config"
	"arcopilot/internal/logging"

	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// skillFetchLimit bounds concurrent skill lookups during Initialize.
const skillFetchLimit = 4

// Server represents an MCP server instance using mcp-go
type Server struct {
	config  *config.Config
	client  answerrocket.Client
	logger  *logging.AppLogger
	version string

	copilot   *answerrocket.Copilot
	tools     []SkillTool
	mcpServer *server.MCPServer

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewServer creates a new MCP server instance. Nothing is fetched until
// Initialize is called.
func NewServer(cfg *config.Config, client answerrocket.Client, logger *logging.AppLogger, version string) *Server {
	if logger == nil {
		logger = logging.GetDefault()
	}
	return &Server{
		config:  cfg,
		client:  client,
		logger:  logger,
		version: version,
	}
}

// Initialize checks connectivity, loads the copilot and registers one tool
// per runnable skill.
func (s *Server) Initialize(ctx context.Context) error {
	start := time.Now()
	defer s.logger.LogPerformance("mcp initialize", start)

	if s.client == nil {
		return fmt.Errorf("answerrocket client not configured")
	}

	s.logger.Info("Initializing MCP server", "url", s.config.URL, "copilot", s.config.CopilotID)

	if err := s.client.Ping(ctx); err != nil {
		return fmt.Errorf("cannot connect to AnswerRocket at %s: %w", s.config.URL, err)
	}

	copilot, err := s.client.GetCopilot(ctx, s.config.CopilotID)
	if err != nil {
		if errors.Is(err, answerrocket.ErrNotFound) {
			return fmt.Errorf("copilot %s not found: %w", s.config.CopilotID, err)
		}
		return fmt.Errorf("failed to load copilot %s: %w", s.config.CopilotID, err)
	}
	s.copilot = copilot

	skills, err := s.fetchSkills(ctx, copilot.SkillIDs)
	if err != nil {
		return err
	}

	s.mcpServer = server.NewMCPServer(
		copilot.DisplayName()+" Assistant",
		s.version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	used := make(map[string]bool, len(skills))
	s.tools = s.tools[:0]
	for _, skill := range skills {
		tool := SkillTool{
			Name:  uniqueName(ToolName(skill.Name, skill.ID), used),
			Skill: skill,
		}
		s.mcpServer.AddTool(BuildTool(tool.Name, skill), s.handler(tool))
		s.tools = append(s.tools, tool)
		s.logger.Debug("Registered skill tool", "tool", tool.Name, "skill", skill.Name, "params", len(skill.Parameters))
	}

	if len(s.tools) == 0 {
		s.logger.Warn("Copilot has no runnable skills", "copilot", copilot.DisplayName())
	}
	s.logger.Info("MCP server ready", "copilot", copilot.DisplayName(), "tools", len(s.tools))
	return nil
}

// fetchSkills loads every skill concurrently and returns the runnable ones in
// the copilot's order. Individual failures are logged and skipped.
func (s *Server) fetchSkills(ctx context.Context, ids []string) ([]*answerrocket.Skill, error) {
	results := make([]*answerrocket.Skill, len(ids))

	var g errgroup.Group
	g.SetLimit(skillFetchLimit)
	for i, id := range ids {
		g.Go(func() error {
			skill, err := s.client.GetCopilotSkill(ctx, s.config.CopilotID, id)
			if err != nil {
				s.logger.Warn("Failed to load skill", "skill_id", id, "error", err)
				return nil
			}
			if skill.SchedulingOnly {
				s.logger.Debug("Skipping scheduling-only skill", "skill", skill.Name)
				return nil
			}
			results[i] = skill
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("skill loading interrupted: %w", err)
	}

	skills := make([]*answerrocket.Skill, 0, len(results))
	for _, skill := range results {
		if skill != nil {
			skills = append(skills, skill)
		}
	}
	return skills, nil
}

// Tools returns the registered tools in registration order.
func (s *Server) Tools() []SkillTool {
	return s.tools
}

// Copilot returns the copilot loaded by Initialize.
func (s *Server) Copilot() *answerrocket.Copilot {
	return s.copilot
}

// Start serves MCP over stdin/stdout until ctx is done or stdin closes.
func (s *Server) Start(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve serves MCP over the given streams.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	if s.mcpServer == nil {
		return fmt.Errorf("server not initialized")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(s.logger.StandardLog())

	s.logger.Info("Serving MCP over stdio", "tools", len(s.tools))
	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the MCP server
func (s *Server) Stop() error {
	s.logger.Info("Stopping MCP server")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return nil
}
