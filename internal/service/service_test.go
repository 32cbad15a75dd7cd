package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kolah/apilens/internal/docs"
	"github.com/kolah/apilens/internal/loader"
	"github.com/kolah/apilens/internal/model"
	"github.com/kolah/apilens/internal/query"
	"github.com/kolah/apilens/internal/session"
	"github.com/kolah/apilens/internal/templates"
)

const petsDoc = `openapi: 3.0.3
info:
  title: Pets
  version: 1.0.0
tags:
  - name: pets
paths:
  /pets:
    get:
      tags: [pets]
      summary: List pets
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: array
                items: {$ref: '#/components/schemas/Pet'}
    post:
      tags: [pets]
      summary: Create a pet
      requestBody:
        content:
          application/json:
            schema: {$ref: '#/components/schemas/Pet'}
      responses:
        "201": {description: created}
  /pets/{id}:
    get:
      tags: [pets]
      parameters:
        - {name: id, in: path, required: true, schema: {type: string}}
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema: {$ref: '#/components/schemas/Pet'}
components:
  schemas:
    Pet:
      type: object
      properties:
        name: {type: string}
`

type fixture struct {
	svc      *Service
	specPath string
	docsDir  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	specPath := filepath.Join(dir, "pets.yaml")
	require.NoError(t, os.WriteFile(specPath, []byte(petsDoc), 0o644))

	opts := loader.DefaultOptions()
	opts.AllowPrivateURLs = true
	l := loader.New(opts, zap.NewNop())
	store := session.New(context.Background(), l, session.NewFileIndex(filepath.Join(dir, "config")))

	engine, err := templates.NewDefault("")
	require.NoError(t, err)
	docsDir := filepath.Join(dir, "docs")
	svc := New(store, docs.NewGenerator(engine), Config{DocsDir: docsDir}, zap.NewNop())
	return &fixture{svc: svc, specPath: specPath, docsDir: docsDir}
}

func sessionID(t *testing.T, rawInfo string) string {
	t.Helper()
	var info model.SessionInfo
	require.NoError(t, json.Unmarshal([]byte(rawInfo), &info))
	require.NotEmpty(t, info.ID)
	return info.ID
}

func TestInitializeSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.InitializeSession(ctx, InitializeRequest{Source: f.specPath, Format: "json"})
	require.NoError(t, err)

	var info model.SessionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "Pets", info.Title)
	assert.Equal(t, "file", info.SourceType)
	assert.Equal(t, "raw", info.OutputFormat)
	assert.Equal(t, 3, info.EndpointCount)
	assert.Equal(t, 1, info.TagCount)
	assert.Equal(t, 1, info.SchemaCount)

	out, err = f.svc.InitializeSession(ctx, InitializeRequest{Source: f.specPath})
	require.NoError(t, err)
	assert.Contains(t, out, "| Pets v1.0.0 | 3 endpoints, 1 tags, 1 schemas | compact")
}

func TestInitializeErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.InitializeSession(ctx, InitializeRequest{Source: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Equal(t, KindParseError, KindOf(err))

	_, err = f.svc.InitializeSession(ctx, InitializeRequest{})
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	_, err = f.svc.InitializeSession(ctx, InitializeRequest{Source: f.specPath, SourceType: "ftp"})
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	_, err = f.svc.InitializeSession(ctx, InitializeRequest{Source: f.specPath, Format: "yaml"})
	assert.Equal(t, KindInvalidArgument, KindOf(err))
}

func TestInitializeFromURL(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(petsDoc))
	}))
	t.Cleanup(srv.Close)

	out, err := f.svc.InitializeSession(context.Background(), InitializeRequest{Source: srv.URL + "/openapi.yaml", Format: "raw"})
	require.NoError(t, err)
	var info model.SessionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "url", info.SourceType)
}

func TestListEndpointsAndDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out, err := f.svc.InitializeSession(ctx, InitializeRequest{Source: f.specPath, Format: "raw"})
	require.NoError(t, err)
	id := sessionID(t, out)

	list, err := f.svc.ListEndpoints(ctx, id, query.Filter{}, "compact")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"GET /pets - List pets [pets]",
		"POST /pets - Create a pet [pets]",
		"GET /pets/{id} [pets]",
	}, strings.Split(list, "\n"))

	list, err = f.svc.ListEndpoints(ctx, id, query.Filter{Methods: []string{"post"}}, "compact")
	require.NoError(t, err)
	assert.Equal(t, "POST /pets - Create a pet [pets]", list)

	list, err = f.svc.ListEndpoints(ctx, id, query.Filter{Tags: []string{"nope"}}, "markdown")
	require.NoError(t, err)
	assert.Equal(t, "No endpoints found.", list)

	detail, err := f.svc.EndpointDetails(ctx, id, "/pets", "get", query.DefaultOptions(), "compact")
	require.NoError(t, err)
	assert.Contains(t, detail, "responses: 200 Pet[]")

	_, err = f.svc.EndpointDetails(ctx, id, "/pets", "delete", query.DefaultOptions(), "")
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.EqualError(t, err, "Endpoint not found: DELETE /pets")
}

func TestDefaultLoaderKeepsComponentNames(t *testing.T) {
	dir := t.TempDir()
	specPath := filepath.Join(dir, "pets.yaml")
	require.NoError(t, os.WriteFile(specPath, []byte(petsDoc), 0o644))
	store := session.New(context.Background(), loader.New(loader.DefaultOptions(), zap.NewNop()), session.NewFileIndex(dir))
	svc := New(store, docs.NewGenerator(nil), Config{}, zap.NewNop())
	ctx := context.Background()

	out, err := svc.InitializeSession(ctx, InitializeRequest{Source: specPath, Format: "raw"})
	require.NoError(t, err)
	id := sessionID(t, out)

	detail, err := svc.EndpointDetails(ctx, id, "/pets", "get", query.DefaultOptions(), "compact")
	require.NoError(t, err)
	assert.Contains(t, detail, "responses: 200 Pet[]")
	assert.NotContains(t, detail, "object[]")

	detail, err = svc.EndpointDetails(ctx, id, "/pets", "post", query.DefaultOptions(), "compact")
	require.NoError(t, err)
	assert.Contains(t, detail, "body: application/json Pet")
}

func TestFormatPrecedence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out, err := f.svc.InitializeSession(ctx, InitializeRequest{Source: f.specPath, Format: "raw"})
	require.NoError(t, err)
	id := sessionID(t, out)

	tags, err := f.svc.Tags(ctx, id, "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"tags": ["pets"]}`, tags, "session format applies")

	tags, err = f.svc.Tags(ctx, id, "compact")
	require.NoError(t, err)
	assert.Equal(t, "pets", tags, "per-call format wins")

	tags, err = f.svc.Tags(ctx, id, "bogus")
	require.NoError(t, err)
	assert.Equal(t, "pets", tags, "unknown per-call format falls back to compact")

	_, err = f.svc.SetOutputFormat(ctx, id, "md")
	require.NoError(t, err)
	current, err := f.svc.OutputFormat(ctx, id, "compact")
	require.NoError(t, err)
	assert.Equal(t, "OK: Output format: markdown", current)

	tags, err = f.svc.Tags(ctx, id, "")
	require.NoError(t, err)
	assert.Contains(t, tags, "# Tags (1)")

	_, err = f.svc.SetOutputFormat(ctx, id, "yaml")
	assert.Equal(t, KindInvalidArgument, KindOf(err))
	_, err = f.svc.SetOutputFormat(ctx, "missing", "raw")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestComponents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out, err := f.svc.InitializeSession(ctx, InitializeRequest{Source: f.specPath, Format: "raw"})
	require.NoError(t, err)
	id := sessionID(t, out)

	comps, err := f.svc.Components(ctx, id, "schemas", "compact")
	require.NoError(t, err)
	assert.Equal(t, "schemas: Pet", comps)

	comps, err = f.svc.Components(ctx, id, "examples", "compact")
	require.NoError(t, err)
	assert.Equal(t, "No components found.", comps)
}

func TestUnknownSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	calls := map[string]func() (string, error){
		"info":       func() (string, error) { return f.svc.SessionInfo(ctx, "missing", "") },
		"endpoints":  func() (string, error) { return f.svc.ListEndpoints(ctx, "missing", query.Filter{}, "") },
		"tags":       func() (string, error) { return f.svc.Tags(ctx, "missing", "") },
		"components": func() (string, error) { return f.svc.Components(ctx, "missing", "", "") },
		"remove":     func() (string, error) { return f.svc.RemoveSession(ctx, "missing", "") },
		"format":     func() (string, error) { return f.svc.OutputFormat(ctx, "missing", "") },
		"docs": func() (string, error) {
			return f.svc.GenerateDocumentation(ctx, "missing", DocsRequest{Options: docs.DefaultOptions()}, "")
		},
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			_, err := call()
			require.Error(t, err)
			assert.Equal(t, KindNotFound, KindOf(err))
			assert.JSONEq(t, `{"error": true, "message": "Session not found: missing"}`, Payload(err))
		})
	}
}

func TestRemoveSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out, err := f.svc.InitializeSession(ctx, InitializeRequest{Source: f.specPath, Format: "raw"})
	require.NoError(t, err)
	id := sessionID(t, out)

	msg, err := f.svc.RemoveSession(ctx, id, "compact")
	require.NoError(t, err)
	assert.Equal(t, "OK: Session "+id+" removed", msg)

	_, err = f.svc.RemoveSession(ctx, id, "")
	assert.Equal(t, KindNotFound, KindOf(err))
	_, err = f.svc.SessionInfo(ctx, id, "")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestListSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.ListSessions(ctx, "compact")
	require.NoError(t, err)
	assert.Equal(t, "No sessions found.", out)

	raw, err := f.svc.InitializeSession(ctx, InitializeRequest{Source: f.specPath, Format: "raw"})
	require.NoError(t, err)
	id := sessionID(t, raw)

	out, err = f.svc.ListSessions(ctx, "compact")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, id+" | Pets"))
}

func TestGenerateDocumentation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	raw, err := f.svc.InitializeSession(ctx, InitializeRequest{Source: f.specPath, Format: "raw"})
	require.NoError(t, err)
	id := sessionID(t, raw)

	msg, err := f.svc.GenerateDocumentation(ctx, id, DocsRequest{Options: docs.DefaultOptions()}, "compact")
	require.NoError(t, err)
	path := filepath.Join(f.docsDir, "pets.md")
	assert.True(t, strings.HasPrefix(msg, "OK: Documentation written to "+path), msg)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Pets")

	opts := docs.DefaultOptions()
	opts.Format = docs.FormatHTML
	opts.Filename = "reference.md"
	outDir := t.TempDir()
	_, err = f.svc.GenerateDocumentation(ctx, id, DocsRequest{Options: opts, OutputDir: outDir}, "")
	require.NoError(t, err)
	data, err = os.ReadFile(filepath.Join(outDir, "reference.html"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "<!DOCTYPE html>")
}

func TestGenerateDocumentationRejectsEscapingFilenames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	raw, err := f.svc.InitializeSession(ctx, InitializeRequest{Source: f.specPath, Format: "raw"})
	require.NoError(t, err)
	id := sessionID(t, raw)

	parent := t.TempDir()
	outDir := filepath.Join(parent, "site")
	for _, name := range []string{"../escape.md", "guides/../../escape.md", filepath.Join(parent, "abs.md")} {
		t.Run(name, func(t *testing.T) {
			opts := docs.DefaultOptions()
			opts.Filename = name
			_, err := f.svc.GenerateDocumentation(ctx, id, DocsRequest{Options: opts, OutputDir: outDir}, "")
			assert.Equal(t, KindInvalidArgument, KindOf(err))
		})
	}
	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is written outside or inside the output dir")

	opts := docs.DefaultOptions()
	opts.Filename = "guides/pets.md"
	_, err = f.svc.GenerateDocumentation(ctx, id, DocsRequest{Options: opts, OutputDir: outDir}, "")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "guides", "pets.md"))
	assert.NoError(t, err)
}

func TestSafeRecoversPanics(t *testing.T) {
	out, err := Safe(func() (string, error) {
		panic("boom")
	})
	assert.Empty(t, out)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.JSONEq(t, `{"error": true, "message": "internal error: boom"}`, Payload(err))

	out, err = Safe(func() (string, error) { return "fine", nil })
	require.NoError(t, err)
	assert.Equal(t, "fine", out)
}
