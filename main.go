package main

import (
	"CaseLink/bot"
	"CaseLink/impl/core"
	"CaseLink/internal/config"
	"CaseLink/internal/database"
	"CaseLink/internal/http-server/api"
	"CaseLink/internal/lib/fileurl"
	"CaseLink/internal/lib/logger"
	"CaseLink/internal/lib/sl"
	"CaseLink/internal/service/auth"
	"CaseLink/internal/service/presence"
	"CaseLink/internal/service/twilio"
	"CaseLink/internal/ws"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	if conf.Telegram.Enabled {
		tgBot, err := bot.NewTgBot(conf.Telegram.BotName, conf.Telegram.ApiKey, conf.Telegram.AdminId, lg)
		if err != nil {
			lg.Error("failed to initialize telegram bot", sl.Err(err))
		} else {
			lg = logger.SetupTelegramHandler(lg, tgBot, slog.LevelWarn)
			lg.With(
				slog.String("bot_name", conf.Telegram.BotName),
			).Info("telegram alerts enabled")
		}
	}

	lg.Info("starting caselink", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.With(
			sl.Err(err),
		).Error("mongo client")
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Close(closeCtx)
	}()
	lg.With(
		slog.String("host", conf.Mongo.Host),
		slog.String("port", conf.Mongo.Port),
		slog.String("user", conf.Mongo.User),
		slog.String("database", conf.Mongo.Database),
	).Info("mongo client initialized")

	authService := auth.NewAuthService(conf.Jwt.Secret, conf.Jwt.Issuer, lg)
	authService.SetRepository(db)

	twilioService := twilio.NewTwilioService(conf, lg)
	if !twilioService.Configured() {
		lg.Warn("twilio credentials not set, whatsapp sending disabled")
	}

	handler := core.New(lg)
	handler.SetRepository(db)
	handler.SetFileStorage(db, fileurl.NewSigner(conf.Files.Secret, conf.Files.TTL))
	handler.SetGateway(twilioService)

	hub := ws.NewHub(lg, conf.Ws.HubBuffer, conf.Ws.SendBuffer)
	hub.SetHandler(handler)
	handler.SetPublisher(hub)
	handler.SetPresence(hub)

	if conf.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     conf.Redis.Addr,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		if err = rdb.Ping(ctx).Err(); err != nil {
			lg.With(
				slog.String("addr", conf.Redis.Addr),
				sl.Err(err),
			).Error("redis unavailable, running single instance")
		} else {
			ps := presence.NewPresenceService(rdb, lg)
			hub.SetPresence(ps)
			hub.SetRelay(rdb, conf.Redis.Channel)
			handler.SetPresence(ps)
			lg.With(
				slog.String("addr", conf.Redis.Addr),
				slog.String("channel", conf.Redis.Channel),
			).Info("redis relay and presence enabled")
		}
		defer rdb.Close()
	}

	go hub.Run(ctx)

	go func() {
		if err := api.New(conf, lg, handler, hub, twilioService); err != nil {
			lg.Error("server error", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")
}
