package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rxportal/patientkit/pkg/config"
	"github.com/rxportal/patientkit/pkg/httpserver"
	"github.com/rxportal/patientkit/pkg/kvstore"
	mongokv "github.com/rxportal/patientkit/pkg/mongo"
	"github.com/rxportal/patientkit/pkg/pg"
	rediskv "github.com/rxportal/patientkit/pkg/redis"
	"github.com/rxportal/patientkit/pkg/s3kv"
)

// backend is an opened store with its readiness check and release func.
type backend struct {
	store kvstore.Store
	check *httpserver.Check
	close func(context.Context) error
}

func noClose(context.Context) error { return nil }

// openStore connects the driver named in cfg.StoreDriver. Backend settings
// are loaded with loadOpts.
func openStore(ctx context.Context, cfg Config, log *slog.Logger, loadOpts ...config.Option) (*backend, error) {
	switch cfg.StoreDriver {
	case DriverMemory, "":
		return &backend{store: kvstore.NewMemoryStore(), close: noClose}, nil

	case DriverFile:
		fs, err := kvstore.NewFileStore(cfg.StoreFile)
		if err != nil {
			return nil, errors.Join(ErrOpenStore, err)
		}
		return &backend{store: fs, close: noClose}, nil

	case DriverRedis:
		var rc rediskv.Config
		if err := config.Load(&rc, loadOpts...); err != nil {
			return nil, errors.Join(ErrOpenStore, err)
		}
		client, err := rediskv.Connect(ctx, rc)
		if err != nil {
			return nil, errors.Join(ErrOpenStore, err)
		}
		return &backend{
			store: rediskv.NewStore(client, rc),
			check: &httpserver.Check{Name: "redis", Fn: rediskv.Healthcheck(client)},
			close: func(context.Context) error { return client.Close() },
		}, nil

	case DriverPostgres:
		var pc pg.Config
		if err := config.Load(&pc, loadOpts...); err != nil {
			return nil, errors.Join(ErrOpenStore, err)
		}
		pool, err := pg.Connect(ctx, pc)
		if err != nil {
			return nil, errors.Join(ErrOpenStore, err)
		}
		if cfg.MigrateOnStart {
			if err := pg.Migrate(ctx, pool, pc, log); err != nil {
				pool.Close()
				return nil, errors.Join(ErrOpenStore, err)
			}
		}
		return &backend{
			store: pg.NewStore(pool),
			check: &httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)},
			close: func(context.Context) error { pool.Close(); return nil },
		}, nil

	case DriverMongo:
		var mc mongokv.Config
		if err := config.Load(&mc, loadOpts...); err != nil {
			return nil, errors.Join(ErrOpenStore, err)
		}
		db, err := mongokv.NewWithDatabase(ctx, mc)
		if err != nil {
			return nil, errors.Join(ErrOpenStore, err)
		}
		return &backend{
			store: mongokv.NewStore(db.Collection(mc.Collection)),
			check: &httpserver.Check{Name: "mongo", Fn: mongokv.Healthcheck(db.Client())},
			close: db.Client().Disconnect,
		}, nil

	case DriverS3:
		var sc s3kv.Config
		if err := config.Load(&sc, loadOpts...); err != nil {
			return nil, errors.Join(ErrOpenStore, err)
		}
		st, err := s3kv.New(ctx, sc)
		if err != nil {
			return nil, errors.Join(ErrOpenStore, err)
		}
		return &backend{
			store: st,
			check: &httpserver.Check{Name: "s3", Fn: st.Healthcheck()},
			close: noClose,
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.StoreDriver)
}
