package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kolah/apilens/internal/config"
	"github.com/kolah/apilens/internal/docs"
	"github.com/kolah/apilens/internal/loader"
	"github.com/kolah/apilens/internal/logging"
	"github.com/kolah/apilens/internal/render"
	"github.com/kolah/apilens/internal/service"
	"github.com/kolah/apilens/internal/session"
	"github.com/kolah/apilens/internal/templates"
)

// app holds everything a command needs once configuration is loaded.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	svc     *service.Service
	closers []func() error
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log}
	a.closers = append(a.closers, func() error {
		_ = log.Sync()
		return nil
	})

	index, err := a.index()
	if err != nil {
		_ = a.close()
		return nil, err
	}

	defaultFormat, err := render.ParseFormat(cfg.Output.DefaultFormat)
	if err != nil {
		_ = a.close()
		return nil, err
	}

	l := loader.New(loader.Options{
		Timeout:          cfg.Loader.Timeout,
		InlineRefs:       cfg.Loader.InlineRefs,
		AllowPrivateURLs: cfg.Loader.AllowPrivateURLs,
	}, log)

	store := session.New(cmd.Context(), l, index,
		session.WithLogger(log),
		session.WithStaleAfter(cfg.Session.StaleAfter),
		session.WithDefaultFormat(defaultFormat),
	)

	engine, err := templates.NewDefault(cfg.Templates.Dir)
	if err != nil {
		_ = a.close()
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	a.svc = service.New(store, docs.NewGenerator(engine), service.Config{
		DefaultFormat: defaultFormat,
		DocsDir:       cfg.Docs.OutputDir,
	}, log)
	return a, nil
}

func (a *app) index() (session.Index, error) {
	switch a.cfg.Index.Backend {
	case "redis":
		rc := a.cfg.Index.Redis
		client := redis.NewClient(&redis.Options{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
		})
		a.closers = append(a.closers, client.Close)
		a.log.Debug("using redis session index", zap.String("addr", rc.Addr), zap.String("key", rc.Key))
		return session.NewRedisIndex(client, rc.Key), nil
	case "file", "":
		idx := session.NewFileIndex(a.cfg.ConfigDir)
		a.log.Debug("using file session index", zap.String("path", idx.Path()))
		return idx, nil
	default:
		return nil, fmt.Errorf("invalid index backend: %s (valid: file, redis)", a.cfg.Index.Backend)
	}
}

func (a *app) close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// run loads the app, runs op and prints its output. The per-call --format
// flag overrides the session and configured formats.
func run(cmd *cobra.Command, op func(ctx context.Context, a *app, format string) (string, error)) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	format, _ := cmd.Flags().GetString("format")
	out, err := service.Safe(func() (string, error) {
		return op(cmd.Context(), a, format)
	})
	if err != nil {
		if service.KindOf(err) == service.KindInternal {
			a.log.Error("command failed", zap.String("command", cmd.CommandPath()), zap.Error(err))
		}
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}
