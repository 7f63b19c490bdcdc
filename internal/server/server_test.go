package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"
)

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func testServer() *Server {
	logger := slog.New(slog.NewTextHandler(discardWriter{}, nil))
	return New(http.NewServeMux(), 0, time.Second, time.Second, time.Second, logger)
}

func TestGracefulShutdown_ComponentsRunInReverseOrder(t *testing.T) {
	srv := testServer()

	var order []string
	srv.OnShutdown("first", func(ctx context.Context) error {
		order = append(order, "first")
		return nil
	})
	srv.OnShutdown("second", func(ctx context.Context) error {
		order = append(order, "second")
		return nil
	})

	if err := srv.gracefulShutdown(); err != nil {
		t.Fatalf("gracefulShutdown() error: %v", err)
	}

	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Errorf("shutdown order = %v, want [second first]", order)
	}
}

func TestGracefulShutdown_AggregatesErrors(t *testing.T) {
	srv := testServer()

	errFirst := errors.New("redis close failed")
	srv.OnShutdown("redis", func(ctx context.Context) error {
		return errFirst
	})

	ran := false
	srv.OnShutdown("worker", func(ctx context.Context) error {
		ran = true
		return nil
	})

	err := srv.gracefulShutdown()
	if !errors.Is(err, errFirst) {
		t.Fatalf("gracefulShutdown() error = %v, want to wrap %v", err, errFirst)
	}
	if !ran {
		t.Error("a failing component stopped the remaining shutdowns")
	}
}
