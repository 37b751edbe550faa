package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/aupe5089/socialcademy/config"
	"github.com/aupe5089/socialcademy/httpapi"
	"github.com/aupe5089/socialcademy/logging"
	"github.com/aupe5089/socialcademy/mainloop"
	"github.com/aupe5089/socialcademy/posts"
	"github.com/aupe5089/socialcademy/posts/inmemoryimpl"
	"github.com/aupe5089/socialcademy/posts/mongoimpl"
	"github.com/aupe5089/socialcademy/posts/redisimpl"
	"github.com/aupe5089/socialcademy/viewmodel"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type repository interface {
	posts.Repository
	posts.Pinger
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("failed to run", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	repo, closeRepo, err := newRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	loop := mainloop.New()
	stopLoop := loop.Start(ctx)
	defer stopLoop()

	vm := viewmodel.NewPostsViewModel(repo, loop, logger)
	unsubscribe := vm.Subscribe(func(state viewmodel.PostsState) {
		logger.Debug("posts state changed", zap.Stringer("state", state.State()))
	})
	defer unsubscribe()
	vm.FetchPosts(ctx)

	srv := httpapi.NewServer(cfg.HTTPAddr, vm, repo, logger)
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("storage_mode", string(cfg.StorageMode)))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

func newRepository(ctx context.Context, cfg config.Config) (repository, func(), error) {
	noop := func() {}

	switch cfg.StorageMode {
	case config.StorageStub:
		return posts.StubRepository{}, noop, nil
	case config.StorageInMemory:
		return inmemoryimpl.NewInMemoryRepository(), noop, nil
	}

	mongoRepo, err := mongoimpl.Connect(ctx, cfg.MongoURL, cfg.MongoDBName)
	if err != nil {
		return nil, nil, err
	}
	closeMongo := func() { _ = mongoRepo.Close(context.Background()) }
	if cfg.StorageMode == config.StorageMongo {
		return mongoRepo, closeMongo, nil
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
	closeAll := func() {
		_ = redisClient.Close()
		closeMongo()
	}
	return redisimpl.NewRedisRepository(redisClient, mongoRepo, cfg.CacheTTL), closeAll, nil
}
