package testserver

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/breakwatch/internal/app"
	"github.com/rpggio/breakwatch/internal/sqlite"
	"github.com/rpggio/breakwatch/internal/syncer"
	"github.com/rpggio/breakwatch/internal/transport"
	"github.com/stretchr/testify/require"
)

// Clock is the fixed time every test server runs at: 2024-03-10 18:00 UTC.
var Clock = time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)

type TestServer struct {
	Server    *httptest.Server
	DB        *sqlite.DB
	App       *app.App
	Transport *syncer.MemoryTransport
}

// New starts the full HTTP surface over a private in-memory database. Days
// are derived in UTC and sync documents stay in memory.
func New(t *testing.T) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	memory := syncer.NewMemoryTransport()
	a := app.New(db, app.Options{
		Location:  time.UTC,
		Transport: memory,
		Now:       func() time.Time { return Clock },
	})

	server := httptest.NewServer(transport.NewServer(a.HTTPConfig()))

	ts := &TestServer{
		Server:    server,
		DB:        db,
		App:       a,
		Transport: memory,
	}

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}
