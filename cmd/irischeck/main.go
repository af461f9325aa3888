package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/park285/parlor-bot/internal/irisfast"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	baseURL := strings.TrimSpace(os.Getenv("IRIS_BASE_URL"))
	wsURL := strings.TrimSpace(os.Getenv("IRIS_WS_URL"))
	prefix := strings.TrimSpace(os.Getenv("BOT_PREFIX"))
	if prefix == "" {
		prefix = "/"
	}
	if baseURL == "" {
		log.Fatal("IRIS_BASE_URL is required")
	}

	headers := irisfast.AuthHeaders(os.Getenv("X_USER_ID"), os.Getenv("X_USER_EMAIL"), os.Getenv("X_SESSION_ID"))
	client := irisfast.NewClient(baseURL,
		irisfast.WithHeaderProvider(headers),
		irisfast.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cfg, err := client.GetConfig(ctx)
	if err != nil {
		log.Printf("/config error: %v", err)
	} else {
		log.Printf("/config ok: bot=%s port=%d polling=%d rate=%d endpoint=%s", cfg.BotName, cfg.Port, cfg.PollingSpeed, cfg.MessageRate, cfg.WebserverEndpoint)
	}

	if wsURL == "" {
		log.Println("IRIS_WS_URL not set; skipping WS check")
		return
	}

	logger, _ := zap.NewDevelopment()
	ws := irisfast.NewWebSocket(wsURL, 1, logger)
	ws.SetHeaderProvider(headers)
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		log.Printf("WS state: %s", state)
	})
	ws.OnMessage(func(msg *irisfast.Message) {
		ev, ok := irisfast.ToEvent(msg, prefix)
		if !ok {
			return
		}
		fmt.Printf("event scope=%s chat=%s user=%s name=%q command=%q text=%q\n",
			ev.Scope, ev.ScopeID(), ev.UserID, ev.DisplayName(), ev.Command, ev.Text)
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		log.Printf("WS connect error: %v", err)
		return
	}

	// 잠시 관찰 후 종료
	t := time.NewTimer(10 * time.Second)
	<-t.C

	_ = ws.Close(context.Background())
}
