package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/example/community-forum/config"
	"github.com/example/community-forum/database"
	"github.com/example/community-forum/modules/activity"
	"github.com/example/community-forum/modules/auth"
	"github.com/example/community-forum/modules/forum"
	"github.com/example/community-forum/modules/web"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults to $"+config.EnvConfigPath+")")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Revocations live in Redis when configured so they survive restarts.
	var revoker auth.TokenRevoker = auth.NewMemoryTokenRevoker()
	if cfg.Redis.Addr != "" {
		redisRevoker := auth.NewRedisTokenRevoker(cfg.Redis.Addr, cfg.Redis.Password)
		if err := redisRevoker.Ping(context.Background()); err != nil {
			log.Fatalf("Failed to connect to Redis at %s: %v", cfg.Redis.Addr, err)
		}
		revoker = redisRevoker
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	activityModule, err := activity.NewModule(registry, logger)
	if err != nil {
		log.Fatalf("Failed to create activity module: %v", err)
	}
	authModule := auth.NewModule(db, auth.JWTConfig{
		SecretKey:       cfg.Session.SecretKey,
		Issuer:          cfg.Session.Issuer,
		SessionDuration: cfg.Session.TTL,
	}, revoker, logger)
	forumModule := forum.NewModule(db, logger)
	webModule, err := web.NewModule(web.Config{
		Addr:         cfg.HTTPAddr,
		CookieName:   cfg.Session.CookieName,
		CookieSecure: cfg.Session.CookieSecure,
	}, forumModule.Service(), registry, logger)
	if err != nil {
		log.Fatalf("Failed to create web module: %v", err)
	}

	// Independent modules first, then the ones depending on them.
	for _, m := range []mono.Module{activityModule, authModule, forumModule, webModule} {
		if err := app.Register(m); err != nil {
			log.Fatalf("Failed to register %s module: %v", m.Name(), err)
		}
	}

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	logger.Info("Community forum started",
		"addr", cfg.HTTPAddr,
		"database", cfg.Database.Driver,
		"redis", cfg.Redis.Addr != "")
	logger.Info("Press Ctrl+C to shutdown gracefully")

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				logger.Info("Graceful shutdown initiated")
				if err := app.Stop(ctx); err != nil {
					return err
				}
				return database.Close(db)
			},
		},
	)

	exitCode := <-wait
	logger.Info("Application exited", "code", exitCode)
	os.Exit(exitCode)
}
