package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"medform/internal/cache"
	"medform/internal/config"
	"medform/internal/engine"
	"medform/internal/repository"
	"medform/internal/service"
)

const connectTimeout = 5 * time.Second

// App opens backing stores on first use and builds the services on top of
// them. Commands that only need a subset of the stores never connect to the
// rest.
type App struct {
	Config *config.Config
	Logger zerolog.Logger

	mongoClient *mongo.Client
	redisClient *redis.Client
	sqliteDB    *sql.DB
	responses   repository.ResponseRepository
	specs       *service.SpecService
}

// New creates an App for cfg
func New(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger}
}

// Mongo returns the configured database, connecting on first call
func (a *App) Mongo(ctx context.Context) (*mongo.Database, error) {
	if a.mongoClient == nil {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(a.Config.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("connect to mongo: %w", err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := client.Ping(pingCtx, nil); err != nil {
			client.Disconnect(ctx)
			return nil, fmt.Errorf("ping mongo: %w", err)
		}
		a.mongoClient = client
		a.Logger.Info().Str("db", a.Config.MongoDB).Msg("connected to mongo")
	}
	return a.mongoClient.Database(a.Config.MongoDB), nil
}

// Redis returns the session store client, connecting on first call
func (a *App) Redis(ctx context.Context) (*redis.Client, error) {
	if a.redisClient == nil {
		client := redis.NewClient(&redis.Options{
			Addr: strings.TrimPrefix(a.Config.RedisAddr, "redis://"),
		})

		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		a.redisClient = client
		a.Logger.Info().Str("addr", a.Config.RedisAddr).Msg("connected to redis")
	}
	return a.redisClient, nil
}

// Responses returns the response store selected by STORE_DRIVER
func (a *App) Responses(ctx context.Context) (repository.ResponseRepository, error) {
	if a.responses != nil {
		return a.responses, nil
	}

	switch a.Config.StoreDriver {
	case config.StoreSQLite:
		db, err := repository.OpenSQLite(a.Config.SQLitePath)
		if err != nil {
			return nil, err
		}
		repo, err := repository.NewSQLiteResponseRepository(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.sqliteDB = db
		a.responses = repo
		a.Logger.Info().Str("path", a.Config.SQLitePath).Msg("opened sqlite response store")
	default:
		db, err := a.Mongo(ctx)
		if err != nil {
			return nil, err
		}
		a.responses = repository.NewResponseRepository(db)
	}
	return a.responses, nil
}

// SpecRepo returns the published specification store
func (a *App) SpecRepo(ctx context.Context) (repository.SpecRepo, error) {
	db, err := a.Mongo(ctx)
	if err != nil {
		return nil, err
	}
	return repository.NewSpecRepo(db), nil
}

// Specs returns the specification service with the active version loaded
func (a *App) Specs(ctx context.Context) (*service.SpecService, error) {
	if a.specs != nil {
		return a.specs, nil
	}

	var repo repository.SpecRepo
	if a.Config.SpecSource == config.SpecSourceMongo {
		r, err := a.SpecRepo(ctx)
		if err != nil {
			return nil, err
		}
		repo = r
	}

	specs := service.NewSpecService(a.Config.SpecSource, a.Config.SpecPath, a.Config.ExpectedQuestionnaireID, repo, a.Logger)
	if _, err := specs.Load(ctx); err != nil {
		return nil, err
	}
	a.specs = specs
	return specs, nil
}

// Submitter returns the sink selected by SUBMIT_SINK
func (a *App) Submitter(ctx context.Context) (engine.Submitter, error) {
	if a.Config.SubmitSink == config.SinkSupabase {
		return service.NewSupabaseClient(a.Config.SupabaseURL, a.Config.SupabaseKey, a.Config.SupabaseTable, a.Logger), nil
	}
	responses, err := a.Responses(ctx)
	if err != nil {
		return nil, err
	}
	return service.NewStoreSubmitter(responses), nil
}

// SessionCache returns the Redis-backed session store
func (a *App) SessionCache(ctx context.Context) (cache.SessionCache, error) {
	client, err := a.Redis(ctx)
	if err != nil {
		return nil, err
	}
	return cache.NewSessionCache(client, a.Config.SessionTTL), nil
}

// Close releases every connection that was opened
func (a *App) Close(ctx context.Context) {
	if a.redisClient != nil {
		a.redisClient.Close()
	}
	if a.sqliteDB != nil {
		a.sqliteDB.Close()
	}
	if a.mongoClient != nil {
		a.mongoClient.Disconnect(ctx)
	}
}
