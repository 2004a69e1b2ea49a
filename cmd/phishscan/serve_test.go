package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/phishscan/internal/config"
	"github.com/nao1215/phishscan/internal/server"
)

func TestNewServeCmd(t *testing.T) {
	t.Parallel()

	cmd := NewServeCmd()
	for _, name := range []string{"addr", "request-timeout", "batch", "log-file", "offline", "save", "failure-policy"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
	if got := cmd.Flags().Lookup("addr").DefValue; got != server.DefaultAddr {
		t.Errorf("addr default = %q, want %q", got, server.DefaultAddr)
	}
}

func TestServeCmd(t *testing.T) {
	t.Parallel()

	t.Run("stops when context is cancelled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var stdout, stderr bytes.Buffer
		cmd := NewRootCmd()
		cmd.SetOut(&stdout)
		cmd.SetErr(&stderr)
		cmd.SetArgs([]string{"serve", "--offline", "--addr", "127.0.0.1:0", "--save", "--db-dir", t.TempDir()})

		done := make(chan error, 1)
		go func() { done <- cmd.ExecuteContext(ctx) }()

		time.Sleep(200 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("unexpected error: %v\n%s", err, stderr.String())
			}
		case <-time.After(15 * time.Second):
			t.Fatal("server did not stop")
		}
		if !strings.Contains(stderr.String(), "listening on 127.0.0.1:0") {
			t.Errorf("expected startup line, got %q", stderr.String())
		}
	})

	t.Run("rejects conflicting transports", func(t *testing.T) {
		t.Parallel()

		_, _, err := executeCommand(t, "serve", "--offline", "--proxy", "127.0.0.1:9050")
		if !errors.Is(err, config.ErrConflictingTransports) {
			t.Errorf("expected ErrConflictingTransports, got %v", err)
		}
	})

	t.Run("rejects arguments", func(t *testing.T) {
		t.Parallel()

		if _, _, err := executeCommand(t, "serve", "http://a.test"); err == nil {
			t.Error("expected error for positional argument")
		}
	})
}
