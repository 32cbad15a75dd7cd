package loader

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kolah/apilens/internal/document"
)

const openapi3 = `openapi: 3.0.3
info:
  title: Pets
  version: 1.0.0
paths:
  /pets:
    get:
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
components:
  schemas:
    Pet:
      type: object
      properties:
        name:
          type: string
`

const swagger2 = `swagger: "2.0"
info:
  title: Legacy
  version: "1"
paths: {}
definitions:
  Item:
    $ref: 'item.yaml'
`

func writeSpec(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDetectSource(t *testing.T) {
	tests := []struct {
		location string
		want     SourceType
	}{
		{"https://example.com/openapi.yaml", SourceURL},
		{"HTTP://example.com/spec.json", SourceURL},
		{"./openapi.yaml", SourceFile},
		{"/abs/path/spec.json", SourceFile},
		{"ftp://example.com/spec", SourceFile},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectSource(tt.location).Type)
		})
	}
}

const externalRefDoc = `openapi: 3.0.3
info:
  title: Split
  version: 1.0.0
paths:
  /pets:
    get:
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: 'pet.yaml'
`

const petSchema = `type: object
properties:
  name:
    type: string
`

func TestLoadKeepsLocalRefsByDefault(t *testing.T) {
	path := writeSpec(t, "openapi.yaml", openapi3)
	l := New(DefaultOptions(), zap.NewNop())

	res, err := l.Load(context.Background(), DetectSource(path))
	require.NoError(t, err)
	assert.Equal(t, "3.0.3", res.Version)
	assert.Equal(t, "Pets", res.Spec.Info().Title)
	assert.False(t, res.Spec.Dereferenced)
	assert.Empty(t, res.Warnings)

	schema := res.Spec.Root.Path("paths", "/pets", "get", "responses", "200", "content", "application/json", "schema")
	assert.Equal(t, "#/components/schemas/Pet", schema.Str("$ref"))
}

func TestLoadInlinesExternalRefs(t *testing.T) {
	path := writeSpec(t, "openapi.yaml", externalRefDoc)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "pet.yaml"), []byte(petSchema), 0o644))

	res, err := New(DefaultOptions(), zap.NewNop()).Load(context.Background(), DetectSource(path))
	require.NoError(t, err)
	assert.True(t, res.Spec.Dereferenced)
	assert.Empty(t, res.Warnings)

	schema := res.Spec.Root.Path("paths", "/pets", "get", "responses", "200", "content", "application/json", "schema")
	require.NotNil(t, schema)
	assert.False(t, schema.Has("$ref"))
	assert.Equal(t, "object", schema.Str("type"))
}

func TestHasExternalRefs(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want bool
	}{
		{"local only", openapi3, false},
		{"file ref", externalRefDoc, true},
		{"ref in sequence", "allOf:\n  - $ref: 'https://example.com/a.yaml'\n", true},
		{"no refs", "a: {b: [1, 2]}\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := document.Parse([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.want, hasExternalRefs(root))
		})
	}
}

func TestLoadKeepsRawRefsWhenInliningDisabled(t *testing.T) {
	path := writeSpec(t, "openapi.yaml", openapi3)
	opts := DefaultOptions()
	opts.InlineRefs = false

	res, err := New(opts, nil).Load(context.Background(), DetectSource(path))
	require.NoError(t, err)
	assert.False(t, res.Spec.Dereferenced)
	schema := res.Spec.Root.Path("paths", "/pets", "get", "responses", "200", "content", "application/json", "schema")
	assert.Equal(t, "#/components/schemas/Pet", schema.Str("$ref"))
}

func TestLoadSwagger2FallsBackToRaw(t *testing.T) {
	path := writeSpec(t, "swagger.yaml", swagger2)

	res, err := New(DefaultOptions(), zap.NewNop()).Load(context.Background(), DetectSource(path))
	require.NoError(t, err)
	assert.Equal(t, "2.0", res.Version)
	assert.False(t, res.Spec.Dereferenced)
	assert.NotEmpty(t, res.Warnings)
	assert.True(t, res.Spec.IsSwagger2())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "openapi: [unclosed"},
		{"not a mapping", "- a\n- b\n"},
		{"no version", "info: {title: x}\n"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSpec(t, "bad.yaml", tt.content)
			_, err := New(DefaultOptions(), nil).Load(context.Background(), DetectSource(path))
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, path, pe.Source)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := New(DefaultOptions(), nil).Load(context.Background(), DetectSource(filepath.Join(t.TempDir(), "nope.yaml")))
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
}

func TestLoadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/openapi.yaml":
			w.Header().Set("Content-Type", "application/yaml")
			_, _ = w.Write([]byte(openapi3))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	opts := DefaultOptions()
	opts.AllowPrivateURLs = true
	l := New(opts, zap.NewNop())

	res, err := l.Load(context.Background(), DetectSource(srv.URL+"/openapi.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Pets", res.Spec.Info().Title)

	_, err = l.Load(context.Background(), DetectSource(srv.URL+"/missing.yaml"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, err.Error(), "404")
}

func TestLoadURLBlocksPrivateAddresses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(openapi3))
	}))
	t.Cleanup(srv.Close)

	_, err := New(DefaultOptions(), nil).Load(context.Background(), DetectSource(srv.URL+"/openapi.yaml"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, err.Error(), "blocked")
}

func TestIsBlockedIP(t *testing.T) {
	tests := []struct {
		ip      string
		blocked bool
	}{
		{"127.0.0.1", true},
		{"10.0.0.1", true},
		{"192.168.1.1", true},
		{"169.254.1.1", true},
		{"::1", true},
		{"0.0.0.0", true},
		{"fd00::1", true},
		{"8.8.8.8", false},
		{"93.184.216.34", false},
	}
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			ip := net.ParseIP(tt.ip)
			require.NotNil(t, ip)
			assert.Equal(t, tt.blocked, isBlockedIP(ip))
		})
	}
}
