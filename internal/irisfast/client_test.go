package irisfast

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync/atomic"
	"testing"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func newTestClient(t *testing.T, handler fasthttp.RequestHandler) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })

	c := NewClient("http://iris.local", WithHeaderProvider(AuthHeaders("u1", "", "s1")))
	c.http.Dial = func(string) (net.Conn, error) { return ln.Dial() }
	return c
}

func TestSendTextPostsReply(t *testing.T) {
	var got ReplyRequest
	var userHeader string
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		userHeader = string(ctx.Request.Header.Peek("X-User-Id"))
		_ = json.Unmarshal(ctx.PostBody(), &got)
		ctx.SetStatusCode(fasthttp.StatusOK)
	})
	if err := c.SendText(context.Background(), "room-1", "hola"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if got.Type != "text" || got.Room != "room-1" || got.Data != "hola" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if userHeader != "u1" {
		t.Fatalf("auth header missing: %q", userHeader)
	}
}

func TestReplyIsNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		atomic.AddInt32(&calls, 1)
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
	})
	if err := c.SendText(context.Background(), "r", "x"); err == nil {
		t.Fatalf("expected error")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("reply retried %d times", n)
	}
}

func TestGetConfigRetriesOn5xx(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		if atomic.AddInt32(&calls, 1) < 2 {
			ctx.SetStatusCode(fasthttp.StatusBadGateway)
			return
		}
		ctx.SetContentType("application/json")
		_, _ = ctx.WriteString(`{"bot_name":"parlor","bot_http_port":3000}`)
	})
	cfg, err := c.GetConfig(context.Background())
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if cfg.BotName != "parlor" || cfg.Port != 3000 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("expected one retry, got %d calls", n)
	}
}

func TestGetConfigStopsOnClientError(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		atomic.AddInt32(&calls, 1)
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		_, _ = ctx.WriteString("denied")
	})
	_, err := c.GetConfig(context.Background())
	var se *StatusError
	if !errors.As(err, &se) || se.Code != fasthttp.StatusUnauthorized || se.Body != "denied" {
		t.Fatalf("expected 401 status error, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("client error retried: %d calls", n)
	}
}

func TestCanceledContextSkipsRequest(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) { atomic.AddInt32(&calls, 1) })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.SendImage(ctx, "r", "aGk="); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("request sent with canceled context")
	}
}
