package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServe_InvalidAddr(t *testing.T) {
	b := newBackend(t)
	cmd := &ServeCommand{Addr: "not-an-addr", globals: &GlobalFlags{}}

	err := cmd.run(context.Background(), testEnv(b.URL))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid listen address")
}

func TestServe_StopsOnCancel(t *testing.T) {
	b := newBackend(t)
	cmd := &ServeCommand{Addr: "127.0.0.1:0", globals: &GlobalFlags{}}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	out := captureOutput(t, func() {
		go func() { errCh <- cmd.run(ctx, testEnv(b.URL)) }()
		time.Sleep(100 * time.Millisecond)
		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Error("serve did not stop")
		}
	})
	assert.Contains(t, out, "Dashboard: http://127.0.0.1:0")
}
