package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/lopushok9/whatbird/adapters/events"
	"github.com/lopushok9/whatbird/adapters/signature"
	"github.com/lopushok9/whatbird/adapters/store"
	"github.com/lopushok9/whatbird/adapters/tokenizer"
	"github.com/lopushok9/whatbird/config"
	"github.com/lopushok9/whatbird/ports"
	"github.com/lopushok9/whatbird/service"
	httptransport "github.com/lopushok9/whatbird/transport/http"
)

// app holds the wired server and everything that must be closed on shutdown
type app struct {
	service *service.AuthService
	router  *gin.Engine
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	identities, refresh, err := openStore(ctx, a, cfg)
	if err != nil {
		return nil, err
	}

	var publisher message.Publisher
	wmLogger := watermill.NewStdLogger(false, false)

	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		redisClient := redis.NewClient(opts)
		a.closers = append(a.closers, redisClient.Close)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("failed to reach Redis: %w", err)
		}

		refresh = store.NewRedisRefreshStore(redisClient)

		redisPublisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: redisClient,
			},
			wmLogger,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis publisher: %w", err)
		}
		a.closers = append(a.closers, redisPublisher.Close)
		publisher = redisPublisher
		logger.Info("using redis for refresh tokens and events")
	} else {
		pubSub := gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
		a.closers = append(a.closers, pubSub.Close)
		publisher = pubSub
	}

	tok, err := tokenizer.NewJWTTokenizer([]byte(cfg.JWT.Secret), ports.SystemClock{},
		tokenizer.WithLeeway(cfg.Auth.ClockSkew))
	if err != nil {
		return nil, err
	}

	a.service = service.NewAuthService(
		tok,
		identities,
		refresh,
		events.NewWatermillPublisher(publisher, cfg.Events.TopicPrefix),
		[]ports.SignatureVerifier{signature.NewSolana(), signature.NewEthereum()},
		service.WithLogger(logger),
		service.WithAppName(cfg.Auth.AppName),
		service.WithChallengeWindow(cfg.Auth.ChallengeWindow),
		service.WithClockSkew(cfg.Auth.ClockSkew),
		service.WithAccessTTL(cfg.JWT.AccessTTL),
		service.WithRefreshTTL(cfg.JWT.RefreshTTL),
	)

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	a.router = httptransport.SetupRouter(a.service, httptransport.RouterConfig{
		Cookies: httptransport.CookieConfig{
			Domain: cfg.Server.CookieDomain,
			Secure: cfg.Production(),
		},
		Logger: logger,
	})

	return a, nil
}

func openStore(ctx context.Context, a *app, cfg *config.Config) (ports.IdentityStore, ports.RefreshStore, error) {
	switch cfg.Store.Driver {
	case config.DriverBolt:
		s, err := store.NewBoltStore(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, s, nil

	case config.DriverPostgres:
		s, err := store.NewPostgresStoreFromDSN(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func() error {
			s.Close()
			return nil
		})
		return s, s, nil

	default:
		s := store.NewMemoryStore()
		return s, s, nil
	}
}
