package main

import (
	"context"
	"fmt"
	"time"

	"StockSentinel/internal/collector"
	"StockSentinel/internal/config"
	"StockSentinel/internal/events"
	"StockSentinel/internal/logger"
	"StockSentinel/internal/metrics"
	"StockSentinel/internal/model"
	"StockSentinel/internal/notifier"
	"StockSentinel/internal/recorder"
	"StockSentinel/internal/scheduler"
	"StockSentinel/internal/strategy"
	"StockSentinel/internal/watchlist"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// app holds the long-lived dependencies shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    recorder.Store
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	redis    *redis.Client
}

func newApp(cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: log, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)

	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn("init sqlite recorder failed, using in-memory store", zap.Error(err))
			a.store = recorder.NewMemoryStore()
		} else {
			a.store = sr
		}
	} else {
		a.store = recorder.NewMemoryStore()
	}

	if cfg.Events.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Events.RedisAddr,
			Password: cfg.Events.RedisPassword,
		})
	}
	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		a.redis.Close()
	}
	a.store.Close()
	a.logger.Sync()
}

func (a *app) watchlistSource() watchlist.Source {
	if a.cfg.Watchlist.Source == "store" {
		return &watchlist.StoreSource{Store: a.store}
	}
	return &watchlist.CSVSource{Path: a.cfg.Watchlist.CSVPath}
}

func (a *app) fetcher(ctx context.Context, src watchlist.Source) (collector.Fetcher, error) {
	switch a.cfg.DataSource.Provider {
	case "rest":
		return collector.NewRESTFetcher(a.cfg.DataSource.BaseURL, a.cfg.DataSource.APIKey, a.cfg.Proxy), nil
	case "static":
		items, err := src.Load(ctx)
		if err != nil {
			return nil, err
		}
		return demoFetcher(items), nil
	default:
		return collector.NewYahooFetcher(a.cfg.Proxy), nil
	}
}

// demoFetcher serves synthetic uptrends for dry runs without network access.
func demoFetcher(items []model.WatchItem) *collector.StaticFetcher {
	f := collector.NewStaticFetcher()
	end := time.Now().UTC().Truncate(24 * time.Hour)
	for i, it := range items {
		swing := 0.005 + 0.005*float64(i%5)
		f.Series[it.Symbol] = collector.GenerateBars(260, 50+float64(i%40)*5, 0.002*float64(i%4), swing, end)
	}
	return f
}

func (a *app) rule() strategy.Rule {
	return strategy.Rule{
		TrendWindows: a.cfg.Rule.TrendWindows,
		RSILower:     a.cfg.Rule.RSILower,
		RSIUpper:     a.cfg.Rule.RSIUpper,
	}
}

// publishers returns the event sinks for a run. When broker is set the run
// happens in the serving process: with Redis configured the listener relays
// events into the broker, so the run publishes to Redis only.
func (a *app) publishers(broker *events.Broker) events.Publisher {
	var pubs events.MultiPublisher
	switch {
	case a.redis != nil:
		pubs = append(pubs, events.NewRedisPublisher(a.redis, a.cfg.Events.RedisChannel))
	case broker != nil:
		pubs = append(pubs, broker)
	}
	if a.cfg.Events.WebhookURL != "" {
		pubs = append(pubs, events.NewWebhookPublisher(a.cfg.Events.WebhookURL, a.cfg.Events.WebhookToken, a.logger))
	}
	if len(pubs) == 0 {
		return nil
	}
	return pubs
}

func (a *app) telegram() *notifier.TelegramNotifier {
	if !a.cfg.TelegramEnabled() {
		return nil
	}
	return notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy, a.logger)
}

func (a *app) scheduler(ctx context.Context, broker *events.Broker, tg *notifier.TelegramNotifier) (*scheduler.Scheduler, error) {
	src := a.watchlistSource()
	fetcher, err := a.fetcher(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("init fetcher: %w", err)
	}
	a.logger.Info("data source", zap.String("provider", fetcher.Name()))

	col := collector.NewCollector(fetcher, a.logger)
	col.Windows = a.cfg.Indicators.Windows
	col.Rule = a.rule()
	col.Days = a.cfg.DataSource.Days
	col.Workers = a.cfg.DataSource.Workers
	col.Metrics = a.metrics

	s := scheduler.NewScheduler(ctx, col, src, a.store, a.logger)
	s.ArtifactPath = a.cfg.ArtifactPath
	s.Metrics = a.metrics
	s.Digest = notifier.DigestOptions{SiteURL: a.cfg.Server.SiteURL, Rule: col.Rule}
	if pub := a.publishers(broker); pub != nil {
		s.Publisher = pub
	}
	if tg != nil {
		s.Messenger = tg
	}
	if a.cfg.MailEnabled() {
		m, err := notifier.NewMailer(notifier.SMTPConfig{
			Host:     a.cfg.SMTP.Host,
			Port:     a.cfg.SMTP.Port,
			Username: a.cfg.SMTP.Username,
			Password: a.cfg.SMTP.Password,
			From:     a.cfg.SMTP.From,
		}, a.store, a.logger)
		if err != nil {
			return nil, err
		}
		s.Mailer = m
	}
	return s, nil
}
