// Package loader fetches specification documents from files or URLs, parses
// them and inlines their references when the document allows it.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pb33f/libopenapi"
	"github.com/pb33f/libopenapi/datamodel"
	"go.uber.org/zap"

	"github.com/kolah/apilens/internal/document"
)

type SourceType string

const (
	SourceFile SourceType = "file"
	SourceURL  SourceType = "url"
)

// Source says where a document came from. It is enough to load it again.
type Source struct {
	Location string     `json:"source"`
	Type     SourceType `json:"sourceType"`
}

// DetectSource treats http and https locations as URLs and everything else as
// a file path.
func DetectSource(location string) Source {
	l := strings.ToLower(location)
	if strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://") {
		return Source{Location: location, Type: SourceURL}
	}
	return Source{Location: location, Type: SourceFile}
}

// ParseError is returned when a document cannot be read or is not a valid
// specification.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse spec %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

const maxDocumentSize = 64 << 20

type Options struct {
	Timeout time.Duration
	// InlineRefs lets libopenapi inline documents that reference other files
	// or URLs. Documents whose references are all local are kept as written so
	// component names stay visible.
	InlineRefs bool
	// AllowPrivateURLs lifts the private address block on URL sources.
	AllowPrivateURLs bool
	// HTTPClient overrides the client built from the other options.
	HTTPClient *http.Client
}

func DefaultOptions() Options {
	return Options{
		Timeout:    30 * time.Second,
		InlineRefs: true,
	}
}

type Result struct {
	Spec     *document.Spec
	Version  string
	Warnings []string
	RawData  []byte
}

type Loader struct {
	opts   Options
	client *http.Client
	log    *zap.Logger
}

func New(opts Options, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	client := opts.HTTPClient
	if client == nil {
		client = newHTTPClient(opts.Timeout, opts.AllowPrivateURLs)
	}
	return &Loader{
		opts:   opts,
		client: client,
		log:    log.With(zap.String("component", "loader")),
	}
}

// Load reads, parses and dereferences a document. Any failure to produce a
// usable document is a *ParseError; a failed dereference is not.
func (l *Loader) Load(ctx context.Context, src Source) (*Result, error) {
	data, err := l.fetch(ctx, src)
	if err != nil {
		return nil, &ParseError{Source: src.Location, Err: err}
	}

	root, err := document.Parse(data)
	if err != nil {
		return nil, &ParseError{Source: src.Location, Err: err}
	}
	if !root.IsMap() {
		return nil, &ParseError{Source: src.Location, Err: errors.New("document is not a mapping")}
	}
	version := root.Str("openapi")
	if version == "" {
		version = root.Str("swagger")
	}
	if version == "" {
		return nil, &ParseError{Source: src.Location, Err: errors.New("missing openapi or swagger version field")}
	}

	result := &Result{Version: version, RawData: data}
	if !l.opts.InlineRefs || !hasExternalRefs(root) {
		result.Spec = document.NewSpec(root, false)
		return result, nil
	}

	inlined, err := l.dereference(data, src)
	if err != nil {
		l.log.Warn("dereference failed, using raw document",
			zap.String("source", src.Location),
			zap.String("version", version),
			zap.Error(err),
		)
		result.Warnings = append(result.Warnings, fmt.Sprintf("references left unresolved: %v", err))
		result.Spec = document.NewSpec(root, false)
		return result, nil
	}
	result.Spec = document.NewSpec(inlined, true)
	return result, nil
}

// hasExternalRefs reports whether any $ref points outside the document.
func hasExternalRefs(n *document.Node) bool {
	switch {
	case n.IsMap():
		for key, v := range n.Pairs() {
			if key == "$ref" && v.IsScalar() && !strings.HasPrefix(v.String(), "#") {
				return true
			}
			if hasExternalRefs(v) {
				return true
			}
		}
	case n.IsSeq():
		for _, v := range n.Items() {
			if hasExternalRefs(v) {
				return true
			}
		}
	}
	return false
}

func (l *Loader) fetch(ctx context.Context, src Source) ([]byte, error) {
	switch src.Type {
	case SourceURL:
		return l.fetchURL(ctx, src.Location)
	case SourceFile, "":
		data, err := os.ReadFile(src.Location)
		if err != nil {
			return nil, fmt.Errorf("reading spec file: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unknown source type %q", src.Type)
	}
}

func (l *Loader) fetchURL(ctx context.Context, location string) ([]byte, error) {
	if l.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.opts.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml, text/yaml, */*")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching spec: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching spec: unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return data, nil
}

// dereference inlines references with libopenapi. Only 3.x documents are
// supported; Swagger 2.0 always takes the raw path.
func (l *Loader) dereference(data []byte, src Source) (root *document.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			root, err = nil, fmt.Errorf("dereference panicked: %v", r)
		}
	}()

	doc, err := libopenapi.NewDocumentWithConfiguration(data, documentConfig(src))
	if err != nil {
		return nil, fmt.Errorf("parsing OpenAPI document: %w", err)
	}

	version := doc.GetVersion()
	if !strings.HasPrefix(version, "3.") {
		return nil, fmt.Errorf("unsupported version for inlining: %s", version)
	}

	model, err := doc.BuildV3Model()
	if err != nil {
		return nil, fmt.Errorf("building OpenAPI model: %w", err)
	}
	if model == nil {
		return nil, errors.New("building OpenAPI model: no model produced")
	}

	rendered, err := model.Model.RenderInline()
	if err != nil {
		return nil, fmt.Errorf("rendering inline document: %w", err)
	}
	return document.Parse(rendered)
}

func documentConfig(src Source) *datamodel.DocumentConfiguration {
	if src.Type == SourceURL {
		base, err := url.Parse(src.Location)
		if err != nil {
			return &datamodel.DocumentConfiguration{}
		}
		base.Path = pathDir(base.Path)
		return &datamodel.DocumentConfiguration{
			BaseURL:               base,
			AllowRemoteReferences: true,
		}
	}
	cfg := &datamodel.DocumentConfiguration{AllowFileReferences: true}
	if abs, err := filepath.Abs(src.Location); err == nil {
		cfg.BasePath = filepath.Dir(abs)
	}
	return cfg
}

func pathDir(p string) string {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return ""
	}
	return p[:i]
}
