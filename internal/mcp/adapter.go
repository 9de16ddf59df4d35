package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"standin/internal/tool"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolAdapter exposes a remote MCP tool through the local Tool interface
// under a server-namespaced name.
type ToolAdapter struct {
	client         *Client
	mcpTool        *mcp.Tool
	namespacedName string // e.g. "calendar_list_events"
}

func NewToolAdapter(client *Client, mcpTool *mcp.Tool) *ToolAdapter {
	return &ToolAdapter{
		client:         client,
		mcpTool:        mcpTool,
		namespacedName: fmt.Sprintf("%s_%s", client.Name(), mcpTool.Name),
	}
}

func (a *ToolAdapter) Name() string {
	return a.namespacedName
}

func (a *ToolAdapter) Description() string {
	desc := a.mcpTool.Description
	if desc == "" {
		desc = fmt.Sprintf("MCP tool from %s server", a.client.Name())
	}
	return fmt.Sprintf("%s\n\n[MCP Server: %s]", desc, a.client.Name())
}

func (a *ToolAdapter) Parameters() map[string]any {
	emptySchema := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}

	if a.mcpTool.InputSchema == nil {
		return emptySchema
	}

	// The SDK exposes the input schema as `any`; round-trip through JSON
	// to get the map form the completion API expects.
	schemaBytes, err := json.Marshal(a.mcpTool.InputSchema)
	if err != nil {
		return emptySchema
	}

	var schema map[string]any
	if err := json.Unmarshal(schemaBytes, &schema); err != nil {
		return emptySchema
	}
	return schema
}

func (a *ToolAdapter) Execute(ctx context.Context, params json.RawMessage) (*tool.Result, error) {
	var args map[string]any
	if err := json.Unmarshal(params, &args); err != nil {
		return &tool.Result{
			Success: false,
			Error:   fmt.Sprintf("invalid parameters: %v", err),
		}, nil
	}

	result, err := a.client.CallTool(ctx, a.mcpTool.Name, args)
	if err != nil {
		return &tool.Result{
			Success: false,
			Error:   fmt.Sprintf("MCP tool execution failed: %v", err),
		}, nil
	}

	content := formatContent(result.Content)
	if result.IsError {
		if content == "" {
			content = "MCP tool returned an error"
		}
		return &tool.Result{
			Success: false,
			Error:   content,
		}, nil
	}

	return &tool.Result{
		Success: true,
		Output:  content,
	}, nil
}

// formatContent flattens an MCP content array to text. Non-text content is
// summarized; the persona conversation only carries text.
func formatContent(content []mcp.Content) string {
	var parts []string
	for _, item := range content {
		switch c := item.(type) {
		case *mcp.TextContent:
			parts = append(parts, c.Text)
		default:
			data, err := json.Marshal(item)
			if err != nil {
				parts = append(parts, fmt.Sprintf("[unsupported content type: %T]", item))
			} else {
				parts = append(parts, string(data))
			}
		}
	}
	return strings.Join(parts, "\n")
}
