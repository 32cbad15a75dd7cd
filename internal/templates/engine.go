// Package templates renders HTML pages from embedded templates. A custom
// directory may override any embedded template by file name.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

//go:embed html/*.tmpl
var builtin embed.FS

const embeddedRoot = "html/"

type Engine interface {
	Execute(name string, data any) (string, error)
}

type HTMLEngine struct {
	templates *template.Template
	funcs     template.FuncMap
	embedded  fs.FS
	customDir string
}

// NewDefault loads the built-in page templates plus any overrides found in
// customDir.
func NewDefault(customDir string) (*HTMLEngine, error) {
	return NewEngine(builtin, customDir, nil)
}

func NewEngine(embedded fs.FS, customDir string, funcs template.FuncMap) (*HTMLEngine, error) {
	e := &HTMLEngine{
		embedded:  embedded,
		customDir: customDir,
		funcs:     mergeFuncs(funcs),
	}
	if err := e.load(); err != nil {
		return nil, err
	}
	return e, nil
}

func mergeFuncs(extra template.FuncMap) template.FuncMap {
	funcs := template.FuncMap{
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
	}
	for k, v := range extra {
		funcs[k] = v
	}
	return funcs
}

func (e *HTMLEngine) load() error {
	e.templates = template.New("").Funcs(e.funcs)

	err := fs.WalkDir(e.embedded, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".tmpl") {
			return nil
		}
		content, err := fs.ReadFile(e.embedded, path)
		if err != nil {
			return fmt.Errorf("reading embedded template %s: %w", path, err)
		}
		name := strings.TrimPrefix(path, embeddedRoot)
		if _, err := e.templates.New(name).Parse(string(content)); err != nil {
			return fmt.Errorf("parsing embedded template %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading embedded templates: %w", err)
	}

	if e.customDir != "" {
		err = filepath.WalkDir(e.customDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".tmpl") {
				return nil
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading custom template %s: %w", path, err)
			}
			relPath, _ := filepath.Rel(e.customDir, path)
			if _, err := e.templates.New(filepath.ToSlash(relPath)).Parse(string(content)); err != nil {
				return fmt.Errorf("parsing custom template %s: %w", path, err)
			}
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("loading custom templates: %w", err)
		}
	}

	return nil
}

func (e *HTMLEngine) Execute(name string, data any) (string, error) {
	tmpl := e.templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("template not found: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template %s: %w", name, err)
	}

	return buf.String(), nil
}
