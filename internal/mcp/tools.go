package mcp

import (
	"context"
	"encoding/json"
	"errors"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/breakwatch/internal/analysis"
)

// ToolDefinition describes a callable tool.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	ReadOnly    bool           `json:"-"`
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func integerProp(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

func boundedIntegerProp(description string, minimum, maximum int) map[string]any {
	prop := integerProp(description)
	prop["minimum"] = minimum
	prop["maximum"] = maximum
	return prop
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func emptySchema() map[string]any {
	return objectSchema(map[string]any{})
}

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	historyFilter := map[string]any{
		"badge_code": stringProp("Case-insensitive substring of the badge code"),
		"day":        stringProp("Calendar day YYYY-MM-DD in the server time zone"),
	}
	identityFields := map[string]any{
		"name":         stringProp("Person's display name"),
		"external_ref": stringProp("External reference, digits only (e.g. payroll number)"),
		"badge_code":   stringProp("Badge code; unique ignoring case"),
	}
	updateFields := map[string]any{"id": stringProp("Identity ID")}
	for k, v := range identityFields {
		updateFields[k] = v
	}

	return []ToolDefinition{
		// Scans
		{
			Name:        "record_scan",
			Description: "Record one badge scan. Timestamp defaults to now; status defaults to success",
			InputSchema: objectSchema(map[string]any{
				"badge_code": stringProp("Badge code as read"),
				"timestamp":  stringProp("RFC 3339 or YYYY-MM-DD HH:MM[:SS] in the server time zone"),
				"status": map[string]any{
					"type":        "string",
					"enum":        []string{"success", "error"},
					"description": "Reader outcome",
				},
			}, "badge_code"),
		},
		{
			Name:        "list_scans",
			Description: "List recorded scans newest first, optionally filtered by badge and day",
			InputSchema: objectSchema(map[string]any{
				"badge_code": historyFilter["badge_code"],
				"day":        historyFilter["day"],
				"limit":      integerProp("Maximum number of scans"),
				"offset":     integerProp("Number of scans to skip"),
			}),
			ReadOnly: true,
		},
		{
			Name:        "clear_scans",
			Description: "Delete the entire scan history. Identities and sync settings are kept",
			InputSchema: emptySchema(),
		},

		// Identities
		{
			Name:        "register_identity",
			Description: "Register a person and the badge they carry",
			InputSchema: objectSchema(identityFields, "name", "external_ref", "badge_code"),
		},
		{
			Name:        "update_identity",
			Description: "Replace the name, external reference and badge of an identity",
			InputSchema: objectSchema(updateFields, "id", "name", "external_ref", "badge_code"),
		},
		{
			Name:        "delete_identity",
			Description: "Delete an identity. Its scans stay in the history",
			InputSchema: objectSchema(map[string]any{"id": stringProp("Identity ID")}, "id"),
		},
		{
			Name:        "get_identity",
			Description: "Get an identity by ID or by badge code",
			InputSchema: objectSchema(map[string]any{
				"id":         stringProp("Identity ID"),
				"badge_code": stringProp("Badge code, matched ignoring case"),
			}),
			ReadOnly: true,
		},
		{
			Name:        "list_identities",
			Description: "List identities by name, optionally filtered by a search over name, reference and badge",
			InputSchema: objectSchema(map[string]any{"search": stringProp("Substring to match")}),
			ReadOnly:    true,
		},

		// Analysis
		{
			Name:        "analyze",
			Description: "Compute per-person, per-day interval records with observations",
			InputSchema: objectSchema(historyFilter),
			ReadOnly:    true,
		},
		{
			Name:        "get_dashboard",
			Description: "Get long breaks, daily trend, interval distribution and summary figures",
			InputSchema: objectSchema(map[string]any{
				"trend_days": boundedIntegerProp("Days in the trend window (default from server config)", 0, analysis.MaxTrendDays),
			}),
			ReadOnly: true,
		},

		// Export and restore
		{
			Name:        "export_report",
			Description: "Export the analysis report document as JSON",
			InputSchema: emptySchema(),
			ReadOnly:    true,
		},
		{
			Name:        "export_long_breaks_csv",
			Description: "Export long breaks as CSV",
			InputSchema: emptySchema(),
			ReadOnly:    true,
		},
		{
			Name:        "export_history_csv",
			Description: "Export the scan history as CSV, optionally filtered",
			InputSchema: objectSchema(historyFilter),
			ReadOnly:    true,
		},
		{
			Name:        "export_backup",
			Description: "Export a full backup document with scans, identities and sync settings",
			InputSchema: emptySchema(),
			ReadOnly:    true,
		},
		{
			Name:        "restore_backup",
			Description: "Restore a backup document. Sections present in the document replace local data; a malformed document changes nothing",
			InputSchema: objectSchema(map[string]any{
				"document": map[string]any{
					"type":        []string{"object", "string"},
					"description": "Backup document, as an object or JSON text",
				},
			}, "document"),
		},

		// Sync
		{
			Name:        "get_sync_config",
			Description: "Get the remote sync settings",
			InputSchema: emptySchema(),
			ReadOnly:    true,
		},
		{
			Name:        "configure_sync",
			Description: "Set the remote sync endpoint and schedule",
			InputSchema: objectSchema(map[string]any{
				"endpoint_url":  stringProp("http(s) URL of the remote backup document"),
				"auto_sync":     map[string]any{"type": "boolean", "description": "Push on a schedule"},
				"sync_interval": integerProp("Minutes between automatic pushes (at least 1)"),
			}, "endpoint_url"),
		},
		{
			Name:        "set_auto_sync",
			Description: "Enable or disable scheduled pushes",
			InputSchema: objectSchema(map[string]any{
				"enabled": map[string]any{"type": "boolean", "description": "Whether to push on a schedule"},
			}, "enabled"),
		},
		{
			Name:        "disconnect_sync",
			Description: "Forget the remote endpoint and stop scheduled pushes",
			InputSchema: emptySchema(),
		},
		{
			Name:        "sync_push",
			Description: "Upload a backup document to the remote endpoint now",
			InputSchema: emptySchema(),
		},
		{
			Name:        "sync_pull",
			Description: "Download the remote backup document and restore it. Local sync settings are kept",
			InputSchema: emptySchema(),
		},

		// Activity
		{
			Name:        "get_recent_activity",
			Description: "Get recent activity entries, newest first",
			InputSchema: objectSchema(map[string]any{
				"type":       stringProp("Activity type to filter by"),
				"badge_code": stringProp("Badge code to filter by"),
				"subject_id": stringProp("Identity or event ID to filter by"),
				"limit":      integerProp("Maximum number of activity entries"),
				"offset":     integerProp("Number of entries to skip"),
			}),
			ReadOnly: true,
		},
		{
			Name:        "ping",
			Description: "Check that the server is alive",
			InputSchema: emptySchema(),
			ReadOnly:    true,
		},
	}
}

// ToolNames lists the dispatchable methods in catalog order.
func ToolNames() []string {
	catalog := buildToolCatalog()
	names := make([]string, len(catalog))
	for i, def := range catalog {
		names[i] = def.Name
	}
	return names
}

func registerTools(server *sdkmcp.Server, handler *Handler) {
	for _, def := range buildToolCatalog() {
		name := def.Name
		tool := &sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}
		if def.ReadOnly {
			tool.Annotations = &sdkmcp.ToolAnnotations{ReadOnlyHint: true}
		}
		server.AddTool(tool, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			var args json.RawMessage
			if req != nil && req.Params != nil {
				args = req.Params.Arguments
			}
			result, err := handler.Handle(ctx, name, args)
			if err != nil {
				return toolError(err)
			}
			return toolResult(result)
		})
	}
}

func toolResult(v any) (*sdkmcp.CallToolResult, error) {
	if csv, ok := v.(CSVResponse); ok {
		return &sdkmcp.CallToolResult{
			Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: csv.Content}},
		}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil
}

// toolError reports domain failures inside the result so the client sees
// the error code and recovery hint. Anything unmapped is a protocol error.
func toolError(err error) (*sdkmcp.CallToolResult, error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return nil, err
	}
	data, mErr := json.Marshal(apiErr)
	if mErr != nil {
		return nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		IsError: true,
	}, nil
}
