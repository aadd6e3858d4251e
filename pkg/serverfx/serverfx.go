package serverfx

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeydtaylor/ppdb-gateway/pkg/bundlefx"
	"github.com/joeydtaylor/ppdb-gateway/pkg/core"
	"github.com/joeydtaylor/ppdb-gateway/pkg/handlers"
	"github.com/joeydtaylor/ppdb-gateway/pkg/manifest"
	"github.com/joeydtaylor/ppdb-gateway/pkg/middleware/logger"
	"github.com/joeydtaylor/ppdb-gateway/pkg/storage"
	"github.com/joeydtaylor/ppdb-gateway/pkg/store"
	"github.com/joeydtaylor/ppdb-gateway/pkg/transport/httpx"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Options allow per-deployment env keys/defaults without code duplication.
type Options struct {
	Service         string // "ppdb"
	ManifestEnv     string // e.g. "PPDB_MANIFEST"
	DefaultManifest string // e.g. "manifest.toml"
	TLSCertEnv      string // e.g. "SSL_SERVER_CERTIFICATE"
	TLSKeyEnv       string // e.g. "SSL_SERVER_KEY"
}

const connectTimeout = 10 * time.Second

// ---- Manifest ----

func provideManifest(opts Options, log *zap.Logger) (manifest.Config, error) {
	path := envOr(opts.ManifestEnv, opts.DefaultManifest)
	cfg, err := manifest.Load(path)
	if err != nil {
		return manifest.Config{}, fmt.Errorf("manifest %s: %w", path, err)
	}
	log.Info("manifest loaded",
		zap.String("path", path),
		zap.String("prefix", cfg.API.Prefix),
		zap.String("database", string(cfg.Database.Driver)),
		zap.String("storage", string(cfg.Storage.Type)),
	)
	return cfg, nil
}

// ---- Collaborators ----

func provideStore(lc fx.Lifecycle, cfg manifest.Config, log *zap.Logger) (store.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	var (
		st  store.Store
		err error
	)
	switch cfg.Database.Driver {
	case manifest.DriverPostgres:
		st, err = store.NewPostgres(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
	default:
		if dir := sqliteDir(cfg.Database.DSN); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		st, err = store.NewSQLite(ctx, cfg.Database.DSN)
	}
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			log.Info("store closing", zap.String("driver", string(cfg.Database.Driver)))
			return st.Close()
		},
	})
	return st, nil
}

// sqliteDir is the parent directory of a file DSN, or "" for memory DSNs.
func sqliteDir(dsn string) string {
	p := strings.TrimPrefix(dsn, "file:")
	p, _, _ = strings.Cut(p, "?")
	if p == "" || strings.HasPrefix(p, ":memory:") {
		return ""
	}
	if d := filepath.Dir(p); d != "." {
		return d
	}
	return ""
}

func provideBucket(cfg manifest.Config) (storage.Bucket, error) {
	sc := cfg.Storage
	switch sc.Type {
	case manifest.StorageS3:
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		s3c := storage.S3Config{Bucket: sc.Bucket, PublicBaseURL: sc.PublicBaseURL}
		if sc.S3 != nil {
			s3c.Region = sc.S3.Region
			s3c.Endpoint = sc.S3.EndpointURL
			s3c.UsePathStyle = sc.S3.UsePathStyle
			s3c.AccessKeyID = sc.S3.AccessKeyID
			s3c.SecretAccessKey = sc.S3.SecretAccessKey
		}
		return storage.NewS3(ctx, s3c)
	default:
		return storage.NewDisk(sc.Disk.Root, sc.PublicBaseURL)
	}
}

type dispatcherDeps struct {
	fx.In

	Cfg    manifest.Config
	Store  store.Store
	Bucket storage.Bucket
	Log    *zap.Logger
}

func provideDispatcher(d dispatcherDeps) (*core.Dispatcher, error) {
	reg := core.NewRegistry()
	if err := handlers.Register(reg, handlers.Deps{
		Store:       d.Store,
		Bucket:      d.Bucket,
		Log:         d.Log,
		Export:      d.Cfg.Export,
		ProxyTables: d.Cfg.Proxy.Tables,
	}); err != nil {
		return nil, err
	}
	disp, err := core.NewDispatcher(reg,
		core.Classifier{Prefix: d.Cfg.API.Prefix, Entrypoint: d.Cfg.API.Entrypoint},
		core.WithLogger(d.Log),
		core.WithMaxBody(d.Cfg.API.MaxBodyBytes),
		core.WithDefaultAllowHeaders(d.Cfg.API.AllowHeaders...),
	)
	if err != nil {
		return nil, err
	}
	d.Log.Info("actions registered", zap.Strings("actions", reg.Actions()))
	return disp, nil
}

// ---- Router ----

type routerDeps struct {
	fx.In

	Cfg        manifest.Config
	Dispatcher *core.Dispatcher
	LogMW      *logger.Middleware
	Metrics    http.Handler `name:"metrics"`
	R          httpx.Router
	Log        *zap.Logger
}

func provideRouter(d routerDeps) (http.Handler, error) {
	logger.AddBodyLogPaths(d.Cfg.Log.BodyPaths...)
	return core.BuildRouter(d.Cfg, core.BuildDeps{
		Dispatcher: d.Dispatcher,
		LogMW:      d.LogMW,
		Log:        d.Log,
		Metrics:    d.Metrics,
		Router:     d.R,
	})
}

// ---- Server lifecycle ----

type serverDeps struct {
	fx.In
	Opts   Options
	Cfg    manifest.Config
	Logger *zap.Logger
	App    http.Handler `name:"app"`
}

func ms(n, def int) time.Duration {
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Millisecond
}

func registerHooks(lc fx.Lifecycle, d serverDeps) {
	addr := d.Cfg.Server.Listen
	cert := os.Getenv(d.Opts.TLSCertEnv)
	key := os.Getenv(d.Opts.TLSKeyEnv)

	srv := &http.Server{
		Addr:         addr,
		Handler:      d.App,
		ReadTimeout:  ms(d.Cfg.Server.ReadTimeoutMS, 15_000),
		WriteTimeout: ms(d.Cfg.Server.WriteTimeoutMS, 30_000),
		IdleTimeout:  ms(d.Cfg.Server.IdleTimeoutMS, 60_000),
		TLSConfig:    &tls.Config{MinVersion: tls.VersionTLS13, MaxVersion: tls.VersionTLS13},
	}
	useTLS := fileExists(cert) && fileExists(key)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if useTLS {
				d.Logger.Info("server starting (TLS)",
					zap.String("service", d.Opts.Service),
					zap.String("addr", addr),
					zap.String("cert", cert),
				)
				go func() {
					if err := srv.ListenAndServeTLS(cert, key); err != nil && err != http.ErrServerClosed {
						d.Logger.Fatal("server failed", zap.Error(err))
					}
				}()
				return nil
			}
			d.Logger.Info("server starting (PLAINTEXT)",
				zap.String("service", d.Opts.Service),
				zap.String("addr", addr),
			)
			srv.TLSConfig = nil
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					d.Logger.Fatal("server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.Logger.Info("server stopping", zap.String("service", d.Opts.Service))
			return srv.Shutdown(ctx)
		},
	})
}

// ---- Public Fx module ----

func Module(opts Options) fx.Option {
	return fx.Options(
		fx.Supply(opts),

		// Loggers, access log, named metrics handler
		bundlefx.Module,

		// Router implementation
		fx.Provide(httpx.NewChi),

		fx.Provide(
			provideManifest,
			provideStore,
			provideBucket,
			provideDispatcher,
		),

		// Router (named "app")
		fx.Provide(
			fx.Annotate(
				provideRouter,
				fx.ResultTags(`name:"app"`),
			),
		),

		fx.Invoke(registerHooks),
	)
}

// ---- helpers ----

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func envOr(k, def string) string {
	if k == "" {
		return def
	}
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
