// Package mcp publishes the skills of one AnswerRocket copilot as Model
// Context Protocol tools, using mcp-go (github.com/mark3labs/mcp-go).
//
// # Startup
//
// Initialize pings the instance, loads the configured copilot and fetches its
// skills concurrently. Skills that fail to load are logged and left out, as
// are scheduling-only skills. Tools keep the copilot's skill order.
//
// # Tools
//
// Each tool is named after its skill (lowercased, with anything outside
// [a-z0-9_] replaced by underscores) and repeated names get numeric suffixes.
// Skill parameters become string properties, or string arrays for
// multi-value parameters, with constrained values published as enums.
//
// Arguments are validated before the skill runs. A failed call is returned
// as a tool error whose text is a JSON object:
//
//	{"success": false, "error": "...", "skill_name": "...", "skill_id": "..."}
//
// # Usage
//
// The server is started as a subprocess by an MCP-capable assistant:
//
//	arcopilot serve
//
// It reads JSON-RPC requests from stdin and writes responses to stdout until
// stdin closes or the process is interrupted. Logs never go to stdout.
package mcp
