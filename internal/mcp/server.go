// Package mcp exposes the form filling service as Model Context Protocol
// tools, served over streamable HTTP at /mcp.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"go-formfill/internal/formfill"
	"go-formfill/internal/links"
)

const (
	ServerName    = "go-formfill"
	ServerVersion = "1.0.0"
)

// Server represents the MCP server instance
type Server struct {
	service   *formfill.Service
	signer    *links.Signer
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(svc *formfill.Service, signer *links.Signer) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if signer == nil {
		return nil, fmt.Errorf("signer cannot be nil")
	}

	s := &Server{
		service: svc,
		signer:  signer,
		mcpServer: server.NewMCPServer(
			ServerName,
			ServerVersion,
			server.WithToolCapabilities(false),
		),
	}
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	listTemplatesTool := mcp.NewTool(
		"list_templates",
		mcp.WithDescription("List the PDF form templates available for filling"),
	)
	s.mcpServer.AddTool(listTemplatesTool, s.handleListTemplates)

	listDatasetsTool := mcp.NewTool(
		"list_datasets",
		mcp.WithDescription("List CSV datasets, optionally only those matching a template"),
		mcp.WithString("template",
			mcp.Description("Template file name; only datasets named after it are listed"),
		),
	)
	s.mcpServer.AddTool(listDatasetsTool, s.handleListDatasets)

	fieldsTool := mcp.NewTool(
		"template_fields",
		mcp.WithDescription("List the form fields of a template with their types and options"),
		mcp.WithString("template",
			mcp.Required(),
			mcp.Description("Template file name, e.g. w9.pdf"),
		),
	)
	s.mcpServer.AddTool(fieldsTool, s.handleTemplateFields)

	fillTool := mcp.NewTool(
		"fill_template",
		mcp.WithDescription("Fill a template with one CSV row and return a download link for the result"),
		mcp.WithString("template",
			mcp.Required(),
			mcp.Description("Template file name"),
		),
		mcp.WithString("csv",
			mcp.Required(),
			mcp.Description("CSV dataset file name; its columns must be template field names"),
		),
		mcp.WithNumber("row",
			mcp.Description("Zero-based data row to fill (default 0)"),
		),
	)
	s.mcpServer.AddTool(fillTool, s.handleFillTemplate)
}

// Handler returns the streamable HTTP transport for mounting on a router.
func (s *Server) Handler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcpServer, server.WithEndpointPath("/mcp"))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleListTemplates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := s.service.ListTemplates()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string][]string{"templates": names})
}

func (s *Server) handleListDatasets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	template := request.GetString("template", "")
	var (
		names []string
		err   error
	)
	if template == "" {
		names, err = s.service.ListDatasets()
	} else {
		names, err = s.service.MatchingDatasets(template)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string][]string{"csvs": names})
}

func (s *Server) handleTemplateFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	template, err := request.RequireString("template")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fields, err := s.service.Fields(ctx, template)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("template %s: %v", template, err)), nil
	}
	return jsonResult(map[string]any{"template": template, "fields": fields})
}

func (s *Server) handleFillTemplate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	template, err := request.RequireString("template")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	csv, err := request.RequireString("csv")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	row := request.GetInt("row", 0)

	res, err := s.service.Fill(ctx, formfill.FillRequest{Template: template, CSV: csv, Rows: []int{row}})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := s.service.WriteOutput(res)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := s.signer.Path(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Filled %s with row %d of %s.\n", template, row, csv)
	fmt.Fprintf(&b, "Download: %s\n", path)
	fmt.Fprintf(&b, "The link expires with the stored output.\n")
	return mcp.NewToolResultText(b.String()), nil
}
