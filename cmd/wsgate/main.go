package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/e-zhydzetski/wsgate/internal/config"
	"github.com/e-zhydzetski/wsgate/pkg/gateway"
	"github.com/e-zhydzetski/wsgate/pkg/token"
	"github.com/e-zhydzetski/wsgate/pkg/xhttp"
	"github.com/e-zhydzetski/wsgate/pkg/xlog"
	"github.com/e-zhydzetski/wsgate/pkg/xwebsocket"
)

// opCheckToken lets a client verify its token; a pong also refreshes the session.
const opCheckToken = gateway.OpUser

type sessionStore interface {
	token.Provider
	Issue(ctx context.Context, tok string) (token.Session, error)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := xlog.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newSessionStore(cfg)
	if err != nil {
		return err
	}
	sess, err := store.Issue(ctx, cfg.SessionToken)
	if err != nil {
		return err
	}
	if cfg.SessionToken == "" {
		// generated tokens are shown once to the operator and never logged
		fmt.Fprintf(os.Stdout, "session token: %s\n", sess.Token)
	}
	log.Info().Bool("generated", cfg.SessionToken == "").Int("expire_minutes", cfg.TokenExpireMinutes).Msg("session issued")

	reg := buildRegistry(store, cfg, log)
	factory := gateway.NewSessionFactory(reg, gateway.WithLogger(log))

	g, ctx := errgroup.WithContext(ctx)
	addr, err := serve(ctx, g, cfg, factory)
	if err != nil {
		return err
	}
	log.Info().Str("addr", addr).Str("path", cfg.WSPath).Str("mode", cfg.ServerMode).
		Interface("operations", reg.Operations()).Msg("gateway started")

	err = g.Wait()
	log.Info().Msg("gateway stopped")
	return err
}

func newSessionStore(cfg *config.Config) (sessionStore, error) {
	if cfg.SessionStore != config.StoreRedis {
		return token.NewMemoryStore(time.Now), nil
	}
	options, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return token.NewRedisStore(redis.NewClient(options), cfg.RedisSessionKey, time.Now), nil
}

// buildRegistry is the only place handlers are registered; the registry is frozen before serving.
func buildRegistry(provider token.Provider, cfg *config.Config, log zerolog.Logger) *gateway.Registry {
	guard := gateway.NewAuthGuard(provider, cfg.TokenExpiry(), gateway.WithGuardLogger(log))
	return gateway.RegisterBuiltins(gateway.NewRegistryBuilder()).
		Register(opCheckToken, guard.Wrap(gateway.Ping)).
		Build()
}

func serve(ctx context.Context, g *errgroup.Group, cfg *config.Config, factory xwebsocket.WSSessionFactoryFunc) (string, error) {
	opts := []xwebsocket.ServerOption{
		xwebsocket.WithPath(cfg.WSPath),
		xwebsocket.WithWriteTimeout(cfg.WriteTimeout),
	}

	if cfg.ServerMode == config.ModeRaw {
		server, err := xwebsocket.StartSimpleServer(ctx, g, cfg.ListenAddr, factory, opts...)
		if err != nil {
			return "", err
		}
		return server.Addr(), nil
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.WSPath, xwebsocket.NewHandler(ctx, factory, opts...))
	mux.Handle("/healthz", xhttp.Health())
	server, err := xhttp.StartServer(ctx, g, cfg.ListenAddr, xhttp.AllowAllCORS()(mux),
		xhttp.WithReadHeaderTimeout(10*time.Second),
	)
	if err != nil {
		return "", err
	}
	return server.Addr(), nil
}
