package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"expenses/internal/config"
	"expenses/internal/log"
)

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&config.Config{LogLevel: "warn", LogFormat: "json"}, log.ComponentWorker, &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"component":"worker"`) {
		t.Errorf("unexpected output: %s", out)
	}
}

type fakeServer struct {
	listenErr error
	stop      chan struct{}
	shutdowns int
}

func (f *fakeServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	f.shutdowns++
	close(f.stop)
	return nil
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv := &fakeServer{stop: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, srv, "test", log.Discard()) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return")
	}
	if srv.shutdowns != 1 {
		t.Errorf("expected one shutdown, got %d", srv.shutdowns)
	}
}

func TestServeReportsListenError(t *testing.T) {
	srv := &fakeServer{listenErr: errors.New("address already in use")}
	err := Serve(context.Background(), srv, "api", log.Discard())
	if err == nil || err.Error() != "api: address already in use" {
		t.Errorf("Serve() error = %v", err)
	}
	if srv.shutdowns != 0 {
		t.Error("a server that never started should not be shut down")
	}
}
