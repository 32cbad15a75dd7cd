package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kolah/apilens/internal/docs"
	"github.com/kolah/apilens/internal/query"
	"github.com/kolah/apilens/internal/service"
)

type initializeInput struct {
	Source     string `json:"source"                jsonschema:"File path or http(s) URL of the OpenAPI document"`
	SourceType string `json:"source_type,omitempty" jsonschema:"file or url; inferred from source when omitted"`
	Format     string `json:"format,omitempty"      jsonschema:"Default output format for the session: raw, compact, structured, markdown"`
}

func (s *Server) handleInitializeSession(ctx context.Context, _ *mcp.CallToolRequest, in initializeInput) (*mcp.CallToolResult, any, error) {
	return s.call("initialize_session", func() (string, error) {
		return s.svc.InitializeSession(ctx, service.InitializeRequest{
			Source:     in.Source,
			SourceType: in.SourceType,
			Format:     in.Format,
		})
	})
}

type sessionInput struct {
	SessionID string `json:"session_id"       jsonschema:"Session id returned by initialize_session"`
	Format    string `json:"format,omitempty" jsonschema:"Output format for this call: raw, compact, structured, markdown"`
}

func (s *Server) handleSessionInfo(ctx context.Context, _ *mcp.CallToolRequest, in sessionInput) (*mcp.CallToolResult, any, error) {
	return s.call("get_session_info", func() (string, error) {
		return s.svc.SessionInfo(ctx, in.SessionID, in.Format)
	})
}

func (s *Server) handleTags(ctx context.Context, _ *mcp.CallToolRequest, in sessionInput) (*mcp.CallToolResult, any, error) {
	return s.call("get_tags", func() (string, error) {
		return s.svc.Tags(ctx, in.SessionID, in.Format)
	})
}

func (s *Server) handleRemoveSession(ctx context.Context, _ *mcp.CallToolRequest, in sessionInput) (*mcp.CallToolResult, any, error) {
	return s.call("remove_session", func() (string, error) {
		return s.svc.RemoveSession(ctx, in.SessionID, in.Format)
	})
}

func (s *Server) handleOutputFormat(ctx context.Context, _ *mcp.CallToolRequest, in sessionInput) (*mcp.CallToolResult, any, error) {
	return s.call("get_output_format", func() (string, error) {
		return s.svc.OutputFormat(ctx, in.SessionID, in.Format)
	})
}

type listEndpointsInput struct {
	SessionID string   `json:"session_id"        jsonschema:"Session id returned by initialize_session"`
	Tags      []string `json:"tags,omitempty"    jsonschema:"Keep endpoints carrying any of these tags"`
	Methods   []string `json:"methods,omitempty" jsonschema:"Keep endpoints with these HTTP methods"`
	Format    string   `json:"format,omitempty"  jsonschema:"Output format for this call: raw, compact, structured, markdown"`
}

func (s *Server) handleListEndpoints(ctx context.Context, _ *mcp.CallToolRequest, in listEndpointsInput) (*mcp.CallToolResult, any, error) {
	return s.call("list_endpoints", func() (string, error) {
		return s.svc.ListEndpoints(ctx, in.SessionID, query.Filter{Tags: in.Tags, Methods: in.Methods}, in.Format)
	})
}

type endpointDetailsInput struct {
	SessionID           string   `json:"session_id"                      jsonschema:"Session id returned by initialize_session"`
	Path                string   `json:"path"                            jsonschema:"Path template exactly as in the document, e.g. /pets/{id}"`
	Method              string   `json:"method"                          jsonschema:"HTTP method, case-insensitive"`
	IncludeParameters   *bool    `json:"include_parameters,omitempty"    jsonschema:"Include parameters (default true)"`
	IncludeRequestBody  *bool    `json:"include_request_body,omitempty"  jsonschema:"Include the request body (default true)"`
	IncludeResponses    *bool    `json:"include_responses,omitempty"     jsonschema:"Include responses (default true)"`
	IncludeSecurity     *bool    `json:"include_security,omitempty"      jsonschema:"Include security requirements (default false)"`
	IncludeExamples     *bool    `json:"include_examples,omitempty"      jsonschema:"Include examples (default false)"`
	IncludeSchemas      *bool    `json:"include_schemas,omitempty"       jsonschema:"Include schemas (default true)"`
	ResponseStatusCodes []string `json:"response_status_codes,omitempty" jsonschema:"Only show these response codes"`
	Format              string   `json:"format,omitempty"                jsonschema:"Output format for this call: raw, compact, structured, markdown"`
}

func (in endpointDetailsInput) options() query.Options {
	opts := query.DefaultOptions()
	set(&opts.IncludeParameters, in.IncludeParameters)
	set(&opts.IncludeRequestBody, in.IncludeRequestBody)
	set(&opts.IncludeResponses, in.IncludeResponses)
	set(&opts.IncludeSecurity, in.IncludeSecurity)
	set(&opts.IncludeExamples, in.IncludeExamples)
	set(&opts.IncludeSchemas, in.IncludeSchemas)
	opts.ResponseStatusCodes = in.ResponseStatusCodes
	return opts
}

func (s *Server) handleEndpointDetails(ctx context.Context, _ *mcp.CallToolRequest, in endpointDetailsInput) (*mcp.CallToolResult, any, error) {
	return s.call("get_endpoint_details", func() (string, error) {
		return s.svc.EndpointDetails(ctx, in.SessionID, in.Path, in.Method, in.options(), in.Format)
	})
}

type componentsInput struct {
	SessionID     string `json:"session_id"               jsonschema:"Session id returned by initialize_session"`
	ComponentType string `json:"component_type,omitempty" jsonschema:"Component section such as schemas or securitySchemes; all sections when omitted"`
	Format        string `json:"format,omitempty"         jsonschema:"Output format for this call: raw, compact, structured, markdown"`
}

func (s *Server) handleComponents(ctx context.Context, _ *mcp.CallToolRequest, in componentsInput) (*mcp.CallToolResult, any, error) {
	return s.call("get_components", func() (string, error) {
		return s.svc.Components(ctx, in.SessionID, in.ComponentType, in.Format)
	})
}

type setFormatInput struct {
	SessionID string `json:"session_id" jsonschema:"Session id returned by initialize_session"`
	Format    string `json:"format"     jsonschema:"raw, compact, structured or markdown"`
}

func (s *Server) handleSetOutputFormat(ctx context.Context, _ *mcp.CallToolRequest, in setFormatInput) (*mcp.CallToolResult, any, error) {
	return s.call("set_output_format", func() (string, error) {
		return s.svc.SetOutputFormat(ctx, in.SessionID, in.Format)
	})
}

type generateDocsInput struct {
	SessionID         string `json:"session_id"                   jsonschema:"Session id returned by initialize_session"`
	DocFormat         string `json:"doc_format,omitempty"         jsonschema:"markdown or html"`
	OutputDir         string `json:"output_dir,omitempty"         jsonschema:"Directory to write into; the configured docs directory when omitted"`
	Filename          string `json:"filename,omitempty"           jsonschema:"File name; derived from the document title when omitted. The extension is fixed to match doc_format"`
	IncludeTOC        *bool  `json:"include_toc,omitempty"        jsonschema:"Include a table of contents (default true)"`
	GroupByTag        *bool  `json:"group_by_tag,omitempty"       jsonschema:"Group endpoints by tag (default true)"`
	IncludeComponents *bool  `json:"include_components,omitempty" jsonschema:"Include a components section (default true)"`
	IncludeExamples   *bool  `json:"include_examples,omitempty"   jsonschema:"Include examples (default false)"`
	IncludeSecurity   *bool  `json:"include_security,omitempty"   jsonschema:"Include security requirements (default true)"`
	Format            string `json:"format,omitempty"             jsonschema:"Output format of the confirmation message"`
}

func (s *Server) handleGenerateDocumentation(ctx context.Context, _ *mcp.CallToolRequest, in generateDocsInput) (*mcp.CallToolResult, any, error) {
	return s.call("generate_documentation", func() (string, error) {
		opts := docs.DefaultOptions()
		opts.Format = s.opts.DocsFormat
		if in.DocFormat != "" {
			f, err := docs.ParseFormat(in.DocFormat)
			if err != nil {
				return "", &service.Error{Kind: service.KindInvalidArgument, Message: err.Error(), Err: err}
			}
			opts.Format = f
		}
		opts.Filename = in.Filename
		set(&opts.IncludeTOC, in.IncludeTOC)
		set(&opts.GroupByTag, in.GroupByTag)
		set(&opts.IncludeComponents, in.IncludeComponents)
		set(&opts.IncludeExamples, in.IncludeExamples)
		set(&opts.IncludeSecurity, in.IncludeSecurity)

		return s.svc.GenerateDocumentation(ctx, in.SessionID, service.DocsRequest{
			Options:   opts,
			OutputDir: in.OutputDir,
		}, in.Format)
	})
}

type listSessionsInput struct {
	Format string `json:"format,omitempty" jsonschema:"Output format for this call: raw, compact, structured, markdown"`
}

func (s *Server) handleListSessions(ctx context.Context, _ *mcp.CallToolRequest, in listSessionsInput) (*mcp.CallToolResult, any, error) {
	return s.call("list_sessions", func() (string, error) {
		return s.svc.ListSessions(ctx, in.Format)
	})
}

func set(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
