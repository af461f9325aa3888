package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/park285/parlor-bot/internal/botbuilder"
	"github.com/park285/parlor-bot/internal/chat"
	appcfg "github.com/park285/parlor-bot/internal/config"
	"github.com/park285/parlor-bot/internal/discordbot"
	"github.com/park285/parlor-bot/internal/irisfast"
	"github.com/park285/parlor-bot/internal/obslog"
	"github.com/park285/parlor-bot/internal/router"
	"go.uber.org/zap"
)

func main() {
	// .env는 선택 사항
	_ = godotenv.Load()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger, err := obslog.Init(obslog.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Console: cfg.Log.Console,
		ToFile:  cfg.Log.ToFile,
		File:    cfg.Log.File,
		Caller:  cfg.Log.Caller,
	})
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	deps, err := botbuilder.New(cfg, logger)
	if err != nil {
		logger.Fatal("bot_init_error", zap.Error(err))
	}
	defer deps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// scope별 도착 순서대로 처리, WS/gateway 루프는 막지 않는다
	dispatcher := router.NewDispatcher(deps.Router.Handle, logger)
	dispatch := func(ev chat.Event, out chat.Outbox) { dispatcher.Submit(ctx, ev, out) }

	var closers []func()
	if cfg.Enabled(appcfg.TransportIris) {
		closeIris, err := startIris(ctx, cfg, logger, dispatch)
		if err != nil {
			logger.Fatal("iris_start_error", zap.Error(err))
		}
		closers = append(closers, closeIris)
	}
	if cfg.Enabled(appcfg.TransportDiscord) {
		bot, err := discordbot.New(discordbot.Options{
			BotToken: cfg.DiscordBotToken,
			Prefix:   cfg.BotPrefix,
			Handle:   cfg.BotHandle,
			Logger:   logger,
		})
		if err != nil {
			logger.Fatal("discord_init_error", zap.Error(err))
		}
		if err := bot.Start(func(ev chat.Event) { dispatch(ev, bot) }); err != nil {
			logger.Fatal("discord_start_error", zap.Error(err))
		}
		closers = append(closers, func() { _ = bot.Close() })
	}

	deps.Janitor.Start()
	logger.Info("bot_started", zap.Strings("transports", cfg.Transports), zap.String("handle", cfg.BotHandle))

	<-ctx.Done()
	logger.Info("bot_stopping")
	deps.Janitor.Stop()
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	dispatcher.Wait()
}

func startIris(ctx context.Context, cfg *appcfg.AppConfig, logger *zap.Logger, dispatch func(chat.Event, chat.Outbox)) (func(), error) {
	headers := irisfast.AuthHeaders(cfg.XUserID, cfg.XUserEmail, cfg.XSessionID)
	client := irisfast.NewClient(cfg.IrisBaseURL, irisfast.WithHeaderProvider(headers))

	ws := irisfast.NewWebSocket(cfg.IrisWSURL, 5, logger)
	ws.SetHeaderProvider(headers)
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("iris_ws_state", zap.String("state", string(state)))
	})

	out := irisfast.NewOutbox(irisfast.NewEgress(cfg.IrisEgress, client, ws, logger), cfg.IrisSeeMoreHeader)
	ws.OnMessage(func(msg *irisfast.Message) {
		if msg == nil {
			return
		}
		// room filter: if AllowedRooms configured and msg.Room not in list → ignore
		if len(cfg.AllowedRooms) > 0 && !roomAllowed(cfg.AllowedRooms, msg.Room) {
			logger.Debug("iris_room_ignored", zap.String("room", msg.Room))
			return
		}
		ev, ok := irisfast.ToEvent(msg, cfg.BotPrefix)
		if !ok {
			return
		}
		dispatch(ev, out)
	})

	var ingress irisfast.WSClient = ws
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := ingress.Connect(cctx); err != nil {
		return nil, err
	}
	return func() { _ = ingress.Close(context.Background()) }, nil
}

func roomAllowed(allowed []string, room string) bool {
	for _, r := range allowed {
		if r == room {
			return true
		}
	}
	return false
}
