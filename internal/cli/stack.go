package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/aretw0/bartender"
	"github.com/aretw0/bartender/internal/config"
	"github.com/aretw0/bartender/internal/logging"
	"github.com/aretw0/bartender/pkg/adapters/catalog"
	"github.com/aretw0/bartender/pkg/adapters/classifier"
	"github.com/aretw0/bartender/pkg/adapters/events"
	"github.com/aretw0/bartender/pkg/adapters/file"
	"github.com/aretw0/bartender/pkg/adapters/images"
	"github.com/aretw0/bartender/pkg/adapters/loam"
	"github.com/aretw0/bartender/pkg/adapters/memory"
	redisstore "github.com/aretw0/bartender/pkg/adapters/redis"
	"github.com/aretw0/bartender/pkg/adapters/sqlstore"
	"github.com/aretw0/bartender/pkg/domain"
	"github.com/aretw0/bartender/pkg/observability"
	"github.com/aretw0/bartender/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// Stack is a fully wired bot together with the resources it owns.
type Stack struct {
	Config config.Config
	Logger *slog.Logger
	Bot    *bartender.Bot

	Store   ports.Store
	Catalog ports.Catalog

	// Repository is the in-process catalog; nil when the catalog is remote.
	Repository *catalog.Repository

	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	// Orders is nil when the events driver is "none".
	Orders *events.Publisher
	// Subscriber reads back what Orders publishes; nil when Orders is nil.
	Subscriber message.Subscriber

	closers []func() error
}

// NewLogger builds the process logger from cfg, writing to w.
func NewLogger(cfg config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewWithFormat(w, level, cfg.LogFormat), nil
}

// Build wires every adapter named by cfg. A nil logger is derived from cfg
// and writes to stderr. On error, whatever was already opened is closed.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *Stack, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		if logger, err = NewLogger(cfg, os.Stderr); err != nil {
			return nil, err
		}
	}

	s := &Stack{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	// 1. Persistence
	var locker ports.DistributedLocker
	if s.Store, locker, err = s.openStore(cfg.Store); err != nil {
		return nil, err
	}

	// 2. Catalog
	if s.Catalog, err = s.openCatalog(cfg.Catalog); err != nil {
		return nil, err
	}

	// 3. Metrics
	s.Registry = prometheus.NewRegistry()
	s.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if s.Metrics, err = observability.NewMetrics(s.Registry); err != nil {
		return nil, err
	}

	// 4. Phrasebook
	texts, err := loadPhrasebook(ctx, cfg.Phrasebook)
	if err != nil {
		return nil, err
	}

	clf, err := newClassifier(cfg.Classifier)
	if err != nil {
		return nil, err
	}

	opts := []bartender.Option{
		bartender.WithStore(s.Store),
		bartender.WithCatalog(s.Catalog),
		bartender.WithClassifier(clf),
		bartender.WithLogger(logger),
		bartender.WithPhrasebook(texts),
		bartender.WithLifecycleHooks(domain.ComposeHooks(
			observability.LogHooks(logger),
			s.Metrics.Hooks(),
		)),
		bartender.WithTurnTimeout(cfg.Engine.TurnTimeout),
		bartender.WithAutoRestart(cfg.Engine.AutoRestart),
		bartender.WithMaxRetries(cfg.Engine.MaxRetries),
		bartender.WithMaxAttempts(cfg.Engine.MaxAttempts),
	}
	if cfg.Engine.Seed != 0 {
		opts = append(opts, bartender.WithSeed(cfg.Engine.Seed))
	}
	if locker != nil {
		opts = append(opts, bartender.WithLocker(locker))
	}
	if cfg.Images.Endpoint != "" {
		opts = append(opts, bartender.WithImageSearcher(images.NewBingSearcher(cfg.Images.Endpoint, cfg.Images.APIKey)))
	}

	// 5. Events
	if err := s.openEvents(cfg.Events); err != nil {
		return nil, err
	}
	if s.Orders != nil {
		opts = append(opts, bartender.WithOrderPublisher(s.Orders))
	}

	if s.Bot, err = bartender.New(opts...); err != nil {
		return nil, fmt.Errorf("error initializing bot: %w", err)
	}
	logger.Debug("bot ready",
		"store", cfg.Store.Driver,
		"events", cfg.Events.Driver,
		"remote_catalog", cfg.Catalog.URL != "",
		"remote_classifier", cfg.Classifier.Endpoint != "",
	)
	return s, nil
}

func (s *Stack) onClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// Close releases every resource in reverse order of acquisition.
func (s *Stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}

func (s *Stack) openStore(cfg config.StoreConfig) (ports.Store, ports.DistributedLocker, error) {
	switch cfg.Driver {
	case config.StoreMemory:
		return memory.NewStore(), nil, nil
	case config.StoreFile:
		return file.New(cfg.Path), nil, nil
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store := redisstore.NewFromClient(client,
			redisstore.WithPrefix(cfg.Prefix),
			redisstore.WithTTL(cfg.TTL),
		)
		s.onClose(store.Close)
		if cfg.DistributedLock {
			return store, redisstore.NewLocker(client, cfg.Prefix), nil
		}
		return store, nil, nil
	case config.StoreSQLite, config.StorePostgres:
		driver := sqlstore.DriverSQLite
		if cfg.Driver == config.StorePostgres {
			driver = sqlstore.DriverPostgres
		}
		store, err := sqlstore.Open(driver, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		s.onClose(store.Close)
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func (s *Stack) openCatalog(cfg config.CatalogConfig) (ports.Catalog, error) {
	if cfg.URL != "" {
		return catalog.NewClient(cfg.URL,
			catalog.WithTimeout(cfg.Timeout),
			catalog.WithRetryMax(cfg.RetryMax),
			catalog.WithClientLogger(s.Logger),
		), nil
	}

	var err error
	if cfg.DataDir != "" {
		s.Repository, err = catalog.LoadFS(os.DirFS(cfg.DataDir))
	} else {
		s.Repository, err = catalog.LoadSample()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return s.Repository, nil
}

func (s *Stack) openEvents(cfg config.EventsConfig) error {
	switch cfg.Driver {
	case "", config.EventsNone:
		return nil
	case config.EventsGoChannel:
		bus := events.NewGoChannel(s.Logger, false)
		s.onClose(bus.Close)
		s.Orders = events.NewPublisher(bus, events.WithTopic(cfg.Topic))
		s.Subscriber = bus
		return nil
	case config.EventsRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		s.onClose(client.Close)
		pub, err := events.NewRedisStream(client, s.Logger)
		if err != nil {
			return fmt.Errorf("failed to create order publisher: %w", err)
		}
		s.onClose(pub.Close)
		sub, err := events.NewRedisStreamSubscriber(client, "bartender", "", s.Logger)
		if err != nil {
			return fmt.Errorf("failed to create order subscriber: %w", err)
		}
		s.onClose(sub.Close)
		s.Orders = events.NewPublisher(pub, events.WithTopic(cfg.Topic))
		s.Subscriber = sub
		return nil
	default:
		return fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
}

func newClassifier(cfg config.ClassifierConfig) (ports.Classifier, error) {
	if cfg.Endpoint != "" {
		return classifier.NewRemote(cfg.Endpoint,
			classifier.WithAPIKey(cfg.APIKey),
			classifier.WithMinScore(cfg.MinScore),
			classifier.WithHTTPTimeout(cfg.Timeout),
		), nil
	}
	if len(cfg.Rules) == 0 {
		return classifier.NewRegex(), nil
	}
	rules, err := classifier.ParseRules(cfg.Order, cfg.Rules)
	if err != nil {
		return nil, fmt.Errorf("invalid classifier rules: %w", err)
	}
	return classifier.NewRegex(rules...), nil
}

// loadPhrasebook layers the inline texts over the Loam document, if any.
// Remaining gaps are filled by the bot's defaults.
func loadPhrasebook(ctx context.Context, cfg config.PhrasebookConfig) (domain.Phrasebook, error) {
	if cfg.Dir == "" {
		return cfg.Texts, nil
	}
	loader, err := loam.Open(cfg.Dir)
	if err != nil {
		return domain.Phrasebook{}, err
	}
	doc, err := loader.Load(ctx, cfg.Document)
	if err != nil {
		return domain.Phrasebook{}, err
	}
	return cfg.Texts.Merge(doc), nil
}
