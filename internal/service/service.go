// Package service exposes the session operations as text-in, text-out calls.
// Every result is rendered in the per-call format, else the session's format,
// else the configured default.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kolah/apilens/internal/docs"
	"github.com/kolah/apilens/internal/loader"
	"github.com/kolah/apilens/internal/model"
	"github.com/kolah/apilens/internal/query"
	"github.com/kolah/apilens/internal/render"
	"github.com/kolah/apilens/internal/session"
)

type Config struct {
	DefaultFormat render.Format
	DocsDir       string
}

type Service struct {
	store *session.Store
	docs  *docs.Generator
	cfg   Config
	log   *zap.Logger
}

func New(store *session.Store, gen *docs.Generator, cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.DefaultFormat == "" {
		cfg.DefaultFormat = render.DefaultFormat
	}
	if cfg.DocsDir == "" {
		cfg.DocsDir = "."
	}
	return &Service{
		store: store,
		docs:  gen,
		cfg:   cfg,
		log:   log.With(zap.String("component", "service")),
	}
}

// renderer picks the per-call format when given, else the session's.
func (s *Service) renderer(sess *session.Session, override string) render.Renderer {
	if override != "" {
		return render.For(override)
	}
	if sess != nil && sess.OutputFormat != "" {
		return render.For(string(sess.OutputFormat))
	}
	return render.For(string(s.cfg.DefaultFormat))
}

func (s *Service) session(ctx context.Context, id string) (*session.Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalidArgument(errors.New("session id is required"))
	}
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, sessionError(id, err)
	}
	return sess, nil
}

// InitializeRequest describes a document to load. SourceType is inferred from
// the location when empty.
type InitializeRequest struct {
	Source     string
	SourceType string
	Format     string
}

func (s *Service) InitializeSession(ctx context.Context, req InitializeRequest) (string, error) {
	location := strings.TrimSpace(req.Source)
	if location == "" {
		return "", invalidArgument(errors.New("source is required"))
	}
	src := loader.DetectSource(location)
	switch strings.ToLower(req.SourceType) {
	case "":
	case string(loader.SourceFile):
		src.Type = loader.SourceFile
	case string(loader.SourceURL):
		src.Type = loader.SourceURL
	default:
		return "", invalidArgument(fmt.Errorf("unknown source type %q (valid: file, url)", req.SourceType))
	}

	var format render.Format
	if req.Format != "" {
		f, err := render.ParseFormat(req.Format)
		if err != nil {
			return "", invalidArgument(err)
		}
		format = f
	}

	sess, err := s.store.Initialize(ctx, src, format)
	if err != nil {
		s.log.Info("initialize failed", zap.String("source", location), zap.Error(err))
		return "", loadError(err)
	}
	return s.renderer(sess, "").SessionInfo(sessionInfo(sess)), nil
}

func (s *Service) SessionInfo(ctx context.Context, id, format string) (string, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return "", err
	}
	return s.renderer(sess, format).SessionInfo(sessionInfo(sess)), nil
}

func (s *Service) ListEndpoints(ctx context.Context, id string, filter query.Filter, format string) (string, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return "", err
	}
	return s.renderer(sess, format).EndpointList(query.ListEndpoints(sess.Spec, filter)), nil
}

func (s *Service) EndpointDetails(ctx context.Context, id, path, method string, opts query.Options, format string) (string, error) {
	if path == "" || method == "" {
		return "", invalidArgument(errors.New("path and method are required"))
	}
	sess, err := s.session(ctx, id)
	if err != nil {
		return "", err
	}
	d := query.EndpointDetails(sess.Spec, path, method, opts)
	if d == nil {
		return "", notFound("Endpoint not found: %s %s", strings.ToUpper(method), path)
	}
	return s.renderer(sess, format).EndpointDetail(d), nil
}

func (s *Service) Tags(ctx context.Context, id, format string) (string, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return "", err
	}
	return s.renderer(sess, format).TagList(model.TagList{Tags: query.Tags(sess.Spec)}), nil
}

func (s *Service) Components(ctx context.Context, id, typ, format string) (string, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return "", err
	}
	return s.renderer(sess, format).Components(query.Components(sess.Spec, typ)), nil
}

func (s *Service) RemoveSession(ctx context.Context, id, format string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", invalidArgument(errors.New("session id is required"))
	}
	if !s.store.Remove(ctx, id) {
		return "", notFound("Session not found: %s", id)
	}
	return s.renderer(nil, format).Success(fmt.Sprintf("Session %s removed", id)), nil
}

func (s *Service) SetOutputFormat(ctx context.Context, id, name string) (string, error) {
	f, err := render.ParseFormat(name)
	if err != nil {
		return "", invalidArgument(err)
	}
	if err := s.store.SetOutputFormat(ctx, id, f); err != nil {
		return "", sessionError(id, err)
	}
	return render.For(string(f)).Success(fmt.Sprintf("Output format set to %s", f)), nil
}

func (s *Service) OutputFormat(ctx context.Context, id, format string) (string, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return "", err
	}
	return s.renderer(sess, format).Success(fmt.Sprintf("Output format: %s", sess.OutputFormat)), nil
}

func (s *Service) ListSessions(ctx context.Context, format string) (string, error) {
	var list model.SessionList
	for _, sess := range s.store.List(ctx) {
		list.Sessions = append(list.Sessions, sessionInfo(sess))
	}
	return s.renderer(nil, format).SessionList(list), nil
}

// DocsRequest configures GenerateDocumentation. OutputDir defaults to the
// configured docs directory.
type DocsRequest struct {
	Options   docs.Options
	OutputDir string
}

func (s *Service) GenerateDocumentation(ctx context.Context, id string, req DocsRequest, format string) (string, error) {
	if name := strings.TrimSpace(req.Options.Filename); name != "" && !filepath.IsLocal(name) {
		return "", invalidArgument(fmt.Errorf("filename %q must be a relative path inside the output directory", name))
	}
	sess, err := s.session(ctx, id)
	if err != nil {
		return "", err
	}

	out, err := s.docs.Generate(sess.Spec, sessionInfo(sess), req.Options)
	if err != nil {
		return "", internal("generating documentation", err)
	}

	dir := req.OutputDir
	if dir == "" {
		dir = s.cfg.DocsDir
	}
	path := filepath.Join(dir, out.Filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", internal("creating output directory", err)
	}
	if err := os.WriteFile(path, []byte(out.Content), 0o644); err != nil {
		return "", internal("writing documentation", err)
	}

	s.log.Info("documentation written",
		zap.String("session_id", id),
		zap.String("path", path),
		zap.Int("bytes", len(out.Content)),
	)
	return s.renderer(sess, format).Success(fmt.Sprintf("Documentation written to %s (%d bytes)", path, len(out.Content))), nil
}

func sessionInfo(sess *session.Session) model.SessionInfo {
	info := sess.Spec.Info()
	stats := query.Count(sess.Spec)
	return model.SessionInfo{
		ID:             sess.ID,
		Title:          info.Title,
		Version:        info.Version,
		Description:    info.Description,
		OpenAPIVersion: sess.Spec.Version(),
		BaseURL:        sess.Spec.BaseURL(),
		Source:         sess.Source.Location,
		SourceType:     string(sess.Source.Type),
		CreatedAt:      sess.CreatedAt,
		LastAccessed:   sess.LastAccessed,
		OutputFormat:   string(sess.OutputFormat),
		EndpointCount:  stats.Endpoints,
		TagCount:       stats.Tags,
		SchemaCount:    stats.Schemas,
		Dereferenced:   sess.Spec.Dereferenced,
	}
}
