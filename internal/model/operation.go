package model

import (
	"github.com/kolah/apilens/internal/document"
	"github.com/kolah/apilens/internal/schema"
)

type Method string

const (
	MethodGet     Method = "get"
	MethodPost    Method = "post"
	MethodPut     Method = "put"
	MethodDelete  Method = "delete"
	MethodPatch   Method = "patch"
	MethodHead    Method = "head"
	MethodOptions Method = "options"
	MethodTrace   Method = "trace"
)

// Methods is the canonical enumeration order.
var Methods = []Method{
	MethodGet,
	MethodPost,
	MethodPut,
	MethodDelete,
	MethodPatch,
	MethodHead,
	MethodOptions,
	MethodTrace,
}

type ParameterLocation string

const (
	LocationPath   ParameterLocation = "path"
	LocationQuery  ParameterLocation = "query"
	LocationHeader ParameterLocation = "header"
	LocationCookie ParameterLocation = "cookie"
)

type EndpointSummary struct {
	Path        string   `json:"path"`
	Method      Method   `json:"method"`
	OperationID string   `json:"operationId,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Deprecated  bool     `json:"deprecated,omitempty"`
}

// EndpointDetail holds only the sections the caller asked for; excluded
// sections stay nil and are omitted from every rendering.
type EndpointDetail struct {
	EndpointSummary
	Parameters  []Parameter           `json:"parameters,omitempty"`
	RequestBody *RequestBody          `json:"requestBody,omitempty"`
	Responses   []Response            `json:"responses,omitempty"`
	Security    []SecurityRequirement `json:"security,omitempty"`

	// Resolver looks up referenced schemas when a renderer expands them.
	Resolver schema.Resolver `json:"-"`
}

type Parameter struct {
	Name        string            `json:"name"`
	In          ParameterLocation `json:"in"`
	Required    bool              `json:"required"`
	Deprecated  bool              `json:"deprecated,omitempty"`
	Type        string            `json:"type,omitempty"`
	Description string            `json:"description,omitempty"`
	Schema      *document.Node    `json:"schema,omitempty"`
	Example     *document.Node    `json:"example,omitempty"`
}

type RequestBody struct {
	Required    bool           `json:"required"`
	Description string         `json:"description,omitempty"`
	ContentType string         `json:"contentType,omitempty"`
	Schema      *document.Node `json:"schema,omitempty"`
	Examples    *document.Node `json:"examples,omitempty"`
}

type Response struct {
	StatusCode  string         `json:"statusCode"`
	Description string         `json:"description,omitempty"`
	ContentType string         `json:"contentType,omitempty"`
	Schema      *document.Node `json:"schema,omitempty"`
	Examples    *document.Node `json:"examples,omitempty"`
}

// SecurityRequirement is one alternative of an operation's security list;
// every scheme in it applies together.
type SecurityRequirement struct {
	Schemes []SecurityScheme `json:"schemes"`
}

type SecurityScheme struct {
	Name   string   `json:"name"`
	Scopes []string `json:"scopes"`
}
