// Package testing holds helpers shared by package tests. Importing it switches
// the binaries into test mode so nothing dials real infrastructure.
package testing

import (
	"io"
	"log/slog"
	"os"
	"sync"
	stdtesting "testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("STOREFRONT_TEST_MODE", "1")
	})
}

func init() {
	ensureTestMode()
}

// Redis starts an in-process Redis and returns a client closed at test end.
func Redis(tb stdtesting.TB) (*redis.Client, *miniredis.Miniredis) {
	tb.Helper()
	mr := miniredis.RunT(tb)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tb.Cleanup(func() { _ = client.Close() })
	return client, mr
}

// Logger returns a logger that drops everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
