package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"CBDesk/pkg/config"
	xhttp "CBDesk/pkg/http"
	applogger "CBDesk/pkg/logger"
)

func TestApp_RunStopsOnContextCancel(t *testing.T) {
	cfg := config.Default()
	log := applogger.Nop()
	srv := xhttp.NewServer(log, nil,
		xhttp.WithHost("127.0.0.1"),
		xhttp.WithPort(0),
		xhttp.WithMetrics(false, 0),
		xhttp.WithTimeouts(time.Second, time.Second, time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- New(cfg, log, srv).Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
