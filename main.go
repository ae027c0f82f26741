package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Ramsey-B/aster/config"
	"github.com/Ramsey-B/aster/internal/repositories/album"
	"github.com/Ramsey-B/aster/internal/repositories/artist"
	"github.com/Ramsey-B/aster/internal/repositories/descriptor"
	"github.com/Ramsey-B/aster/internal/repositories/descriptorasoc"
	"github.com/Ramsey-B/aster/internal/repositories/friendship"
	"github.com/Ramsey-B/aster/internal/repositories/listen"
	"github.com/Ramsey-B/aster/internal/repositories/user"
	"github.com/Ramsey-B/aster/pkg/associations"
	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/dispatcher"
	"github.com/Ramsey-B/aster/pkg/kafka"
	"github.com/Ramsey-B/aster/pkg/middleware"
	"github.com/Ramsey-B/aster/pkg/processor"
	"github.com/Ramsey-B/aster/pkg/redis"
	"github.com/Ramsey-B/aster/pkg/resolver"
	"github.com/Ramsey-B/aster/pkg/routes/dlq"
	"github.com/Ramsey-B/aster/pkg/routes/health"
	"github.com/Ramsey-B/aster/pkg/startup"
	"github.com/Ramsey-B/aster/pkg/tracing"
	"github.com/Ramsey-B/aster/pkg/tracing/exporters"
)

const version = "0.1.0"

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := buildZapLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync() //nolint:errcheck
	logger := zapadapter.NewZapEctoLogger(zapLogger, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		otlpCfg := exporters.DefaultOTLPConfig()
		otlpCfg.Endpoint = cfg.OTLPEndpoint
		otlpCfg.Protocol = cfg.OTLPProtocol
		otlpCfg.Insecure = cfg.OTLPInsecure

		shutdown, err := tracing.InitProvider(ctx, tracing.ProviderConfig{
			ServiceName: cfg.AppName,
			OTLP:        otlpCfg,
		})
		if err != nil {
			logger.WithError(err).Error("Failed to initialize tracing")
			os.Exit(1)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				logger.WithError(err).Warn("Failed to flush spans")
			}
		}()
	}

	app := &application{cfg: cfg, logger: logger}

	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	boot.AddDependency(app.databaseDependency())
	boot.AddDependency(app.redisDependency())
	boot.AddDependency(app.dispatcherDependency())
	boot.AddDependency(app.httpDependency())

	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Error("Startup failed")
		os.Exit(1)
	}
	app.health.SetReady(true)
	logger.Infof("%s is running on port %d", cfg.AppName, cfg.Port)

	<-ctx.Done()
	logger.Info("Shutdown signal received")
	app.health.SetReady(false)

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := boot.Stop(stopCtx); err != nil {
		logger.WithError(err).Error("Shutdown failed")
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}

func buildZapLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.PrettyLogs {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// application holds the handles startup dependencies wire up as they come
// online.
type application struct {
	cfg    config.Config
	logger ectologger.Logger

	db         database.DB
	redis      *redis.Client
	deadLetter *redis.DeadLetterQueue
	producer   *kafka.Producer
	dispatch   *dispatcher.Dispatcher
	health     *health.Checker
	echo       *echo.Echo
}

// dependency adapts start/stop funcs to startup.StartupDependency
type dependency struct {
	name      string
	dependsOn []string
	start     func(ctx context.Context) error
	stop      func(ctx context.Context) error
}

func (d *dependency) GetName() string                 { return d.name }
func (d *dependency) DependsOn() []string             { return d.dependsOn }
func (d *dependency) Start(ctx context.Context) error { return d.start(ctx) }
func (d *dependency) Stop(ctx context.Context) error {
	if d.stop == nil {
		return nil
	}
	return d.stop(ctx)
}

func (a *application) databaseDependency() startup.StartupDependency {
	return &dependency{
		name: "database",
		start: func(ctx context.Context) error {
			db, err := database.Connect(database.ConnectConfig{
				Driver:          a.cfg.DatabaseDriver,
				Host:            a.cfg.DatabaseHost,
				Port:            a.cfg.DatabasePort,
				UserName:        a.cfg.DatabaseUserName,
				Password:        a.cfg.DatabasePassword,
				Name:            a.cfg.DatabaseName,
				SSLMode:         a.cfg.DatabaseSSLMode,
				MaxOpenConns:    a.cfg.DatabaseMaxOpenConns,
				MaxIdleConns:    a.cfg.DatabaseMaxIdleConns,
				ConnMaxLifetime: a.cfg.DatabaseConnMaxLifetime,
				MigrationFolder: a.cfg.DatabaseMigrationFolderPath,
			}, a.logger)
			if err != nil {
				return err
			}
			a.db = db
			return nil
		},
		stop: func(ctx context.Context) error {
			if a.db == nil {
				return nil
			}
			return a.db.Close()
		},
	}
}

func (a *application) redisDependency() startup.StartupDependency {
	return &dependency{
		name: "redis",
		start: func(ctx context.Context) error {
			client, err := redis.NewClient(redis.Config{
				Host:     a.cfg.RedisHost,
				Port:     a.cfg.RedisPort,
				Password: a.cfg.RedisPassword,
				DB:       a.cfg.RedisDB,
			}, a.logger)
			if err != nil {
				return err
			}
			a.redis = client
			a.deadLetter = redis.NewDeadLetterQueue(client, a.cfg.DLQStream, a.logger)
			return nil
		},
		stop: func(ctx context.Context) error {
			if a.redis == nil {
				return nil
			}
			return a.redis.Close()
		},
	}
}

func (a *application) dispatcherDependency() startup.StartupDependency {
	return &dependency{
		name:      "dispatcher",
		dependsOn: []string{"database", "redis"},
		start: func(ctx context.Context) error {
			users := user.NewRepository(a.db, a.logger)
			artists := artist.NewRepository(a.db, a.logger)
			albums := album.NewRepository(a.db, a.logger)
			descriptors := descriptor.NewRepository(a.db, a.logger)
			friendships := friendship.NewRepository(a.db, a.logger)
			listens := listen.NewRepository(a.db, a.logger)
			asocs := descriptorasoc.NewRepository(a.db, a.logger)

			res := resolver.NewResolver(users, artists, a.logger)
			writer := associations.NewWriter(friendships, listens, descriptors, asocs, a.logger)

			var events processor.EventPublisher
			if a.cfg.KafkaOutputEnabled {
				a.producer = kafka.NewProducer(kafka.ProducerConfig{
					Brokers:      a.cfg.KafkaBrokers,
					Topic:        a.cfg.KafkaOutputTopic,
					BatchSize:    a.cfg.KafkaBatchSize,
					BatchTimeout: time.Duration(a.cfg.KafkaBatchTimeout) * time.Millisecond,
					RequiredAcks: a.cfg.KafkaRequiredAcks,
					Compression:  a.cfg.KafkaCompression,
				}, a.logger)
				events = a.producer
			}

			userProc := processor.NewUserProcessor(a.db, res, writer, events, a.logger)
			artistProc := processor.NewArtistProcessor(a.db, res, writer, albums, events, a.logger)

			attempts := redis.NewAttemptTracker(a.redis, a.cfg.AttemptTrackingTTL, a.logger)

			userConsumer := kafka.NewConsumer(kafka.ConsumerConfig{
				Brokers:             a.cfg.KafkaBrokers,
				Topic:               a.cfg.KafkaUsersTopic,
				ConsumerGroup:       a.cfg.KafkaUsersConsumerGroup,
				MaxDeliveryAttempts: int64(a.cfg.MaxDeliveryAttempts),
			}, a.logger, userProc.Handle, attempts, a.deadLetter)

			artistConsumer := kafka.NewConsumer(kafka.ConsumerConfig{
				Brokers:             a.cfg.KafkaBrokers,
				Topic:               a.cfg.KafkaArtistsTopic,
				ConsumerGroup:       a.cfg.KafkaArtistsConsumerGroup,
				MaxDeliveryAttempts: int64(a.cfg.MaxDeliveryAttempts),
			}, a.logger, artistProc.Handle, attempts, a.deadLetter)

			a.dispatch = dispatcher.NewDispatcher(a.logger, userConsumer, artistConsumer)
			return a.dispatch.Start(ctx)
		},
		stop: func(ctx context.Context) error {
			if a.dispatch != nil {
				if err := a.dispatch.Stop(ctx); err != nil {
					return err
				}
			}
			if a.producer != nil {
				return a.producer.Close()
			}
			return nil
		},
	}
}

func (a *application) httpDependency() startup.StartupDependency {
	return &dependency{
		name:      "http",
		dependsOn: []string{"database", "redis"},
		start: func(ctx context.Context) error {
			e := echo.New()
			e.HideBanner = true
			e.HidePort = true
			e.Use(middleware.Context())
			e.Use(middleware.Logger(a.logger))
			e.HTTPErrorHandler = middleware.Error(a.logger)

			a.health = health.NewChecker(health.PingerFunc(a.db.PingContext), a.redis, version)
			a.health.RegisterRoutes(e)
			dlq.NewRoutes(a.deadLetter).RegisterRoutes(e)
			e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

			a.echo = e
			go func() {
				if err := e.Start(fmt.Sprintf(":%d", a.cfg.Port)); err != nil && err != http.ErrServerClosed {
					a.logger.WithError(err).Error("HTTP server stopped unexpectedly")
				}
			}()
			return nil
		},
		stop: func(ctx context.Context) error {
			if a.echo == nil {
				return nil
			}
			return a.echo.Shutdown(ctx)
		},
	}
}
