// Package mcpserver exposes the session operations as MCP tools over stdio.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/kolah/apilens/internal/docs"
	"github.com/kolah/apilens/internal/service"
)

const serverInstructions = `apilens MCP server: loads an OpenAPI (3.x) or Swagger (2.0) document into a session and answers questions about it.

Workflow: call initialize_session with a file path or URL, keep the returned session id, then use list_endpoints, get_endpoint_details, get_tags and get_components to explore. Sessions survive restarts; list_sessions shows them.

Output formats: raw (JSON), compact (default, one line per item), structured (labeled text), markdown. Set a per-session default with set_output_format or pass format on any call.

Errors come back as {"error": true, "message": "..."}.`

type Options struct {
	Name    string
	Version string
	// DocsFormat applies when generate_documentation omits doc_format.
	DocsFormat docs.Format
}

type Server struct {
	svc  *service.Service
	opts Options
	log  *zap.Logger
}

func New(svc *service.Service, opts Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Name == "" {
		opts.Name = "apilens"
	}
	if opts.DocsFormat == "" {
		opts.DocsFormat = docs.FormatMarkdown
	}
	return &Server{
		svc:  svc,
		opts: opts,
		log:  log.With(zap.String("component", "mcpserver")),
	}
}

// MCP builds the protocol server with every tool registered.
func (s *Server) MCP() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{Name: s.opts.Name, Version: s.opts.Version},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	s.registerAllTools(server)
	return server
}

// Run serves over stdio and blocks until the client disconnects or ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("serving MCP over stdio")
	return s.MCP().Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "initialize_session",
		Description: "Load an OpenAPI 3.x or Swagger 2.0 document from a file path or http(s) URL and open a session for it. Returns the session id with the document's title, version and endpoint, tag and schema counts. The source type is inferred from the location unless source_type is given.",
	}, s.handleInitializeSession)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_session_info",
		Description: "Describe an open session: document title, version, base URL, source, timestamps, output format and counts.",
	}, s.handleSessionInfo)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_endpoints",
		Description: "List the endpoints of a session's document in path order. Filter by tags (any match) and HTTP methods (case-insensitive).",
	}, s.handleListEndpoints)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_endpoint_details",
		Description: "Show one operation: parameters, request body, responses and optionally security and examples. Schemas are expanded to three levels; deeper or recursive references are shown by name. Use response_status_codes to keep only some responses.",
	}, s.handleEndpointDetails)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_tags",
		Description: "List the document's tags with their descriptions. Declared tags come first, followed by tags only used on operations.",
	}, s.handleTags)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_components",
		Description: "List reusable components. component_type selects one section (schemas, responses, parameters, requestBodies, securitySchemes, ...); omit it for all sections.",
	}, s.handleComponents)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_session",
		Description: "Close a session and delete it from the session index.",
	}, s.handleRemoveSession)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_output_format",
		Description: "Set the default output format of a session: raw, compact, structured or markdown. The setting is persisted with the session.",
	}, s.handleSetOutputFormat)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_output_format",
		Description: "Show the output format a session currently uses.",
	}, s.handleOutputFormat)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_documentation",
		Description: "Write standalone Markdown or HTML documentation for a session's document to output_dir. Endpoints are grouped by tag unless group_by_tag is false. Returns the written path and size.",
	}, s.handleGenerateDocumentation)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_sessions",
		Description: "List every known session, including ones persisted by earlier runs.",
	}, s.handleListSessions)
}

// textResult wraps rendered output as a tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// errResult carries the JSON error payload.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: service.Payload(err)}},
	}
}

// call runs op with panic recovery and maps its outcome to a tool result.
func (s *Server) call(tool string, op func() (string, error)) (*mcp.CallToolResult, any, error) {
	out, err := service.Safe(op)
	if err != nil {
		if service.KindOf(err) == service.KindInternal {
			s.log.Error("tool failed", zap.String("tool", tool), zap.Error(err))
		} else {
			s.log.Debug("tool returned error", zap.String("tool", tool), zap.Error(err))
		}
		return errResult(err), nil, nil
	}
	return textResult(out), nil, nil
}
