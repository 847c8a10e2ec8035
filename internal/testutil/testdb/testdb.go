//go:build integration

package testdb

import (
	"context"
	"errors"
	"time"

	"aquajudge/internal/platform/db"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

type DBHandle struct {
	Postgres *db.Postgres
	cancel   func()
	stop     func(context.Context) error
}

func (h *DBHandle) Close() {
	if h.Postgres != nil {
		_ = h.Postgres.Close()
	}
	if h.stop != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.stop(ctx)
	}
	if h.cancel != nil {
		h.cancel()
	}
}

// Start boots a throwaway postgres:17-alpine container and applies the
// embedded migrations.
func Start(ctx context.Context) (*DBHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)

	pg, err := postgres.RunContainer(ctx,
		tc.WithImage("postgres:17-alpine"),
		postgres.WithDatabase("aquajudge"),
		postgres.WithUsername("aquajudge"),
		postgres.WithPassword("aquajudge"),
	)
	if err != nil {
		cancel()
		return nil, err
	}

	uri, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pg.Terminate(ctx)
		cancel()
		return nil, err
	}

	conn, err := waitReady(ctx, uri)
	if err != nil {
		_ = pg.Terminate(ctx)
		cancel()
		return nil, err
	}
	if err := conn.Migrate(ctx); err != nil {
		_ = conn.Close()
		_ = pg.Terminate(ctx)
		cancel()
		return nil, err
	}

	return &DBHandle{
		Postgres: conn,
		cancel:   cancel,
		stop:     pg.Terminate,
	}, nil
}

func waitReady(ctx context.Context, uri string) (*db.Postgres, error) {
	dead := time.Now().Add(20 * time.Second)
	for time.Now().Before(dead) {
		if conn, err := db.Connect(ctx, uri); err == nil {
			return conn, nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return nil, errors.New("db not ready")
}
