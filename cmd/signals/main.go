package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"SignalFusion/internal/api"
	"SignalFusion/internal/collector"
	"SignalFusion/internal/config"
	"SignalFusion/internal/engine"
	"SignalFusion/internal/httpclient"
	"SignalFusion/internal/logger"
	"SignalFusion/internal/metrics"
	"SignalFusion/internal/notifier"
	"SignalFusion/internal/recorder"
	"SignalFusion/internal/scheduler"
	"SignalFusion/internal/sentiment"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	defaultPath := config.DefaultPath
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	configPath := flag.String("config", defaultPath, "config file path")
	once := flag.Bool("once", false, "generate signals for all symbols, print JSON and exit")
	symbol := flag.String("symbol", "", "with -once, generate a single symbol")
	news := flag.Bool("news", true, "include news sentiment")
	flag.Parse()

	if err := run(*configPath, *once, *symbol, *news); err != nil {
		log.Fatal().Err(err).Msg("SignalFusion exited")
	}
}

func run(configPath string, once bool, symbol string, includeNews bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logger.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}
	log.Info().Str("config", configPath).Msg("SignalFusion starting")

	httpOpts := collector.HTTPOptions{
		ProxyURL:       cfg.Proxy,
		RequestTimeout: cfg.DataSource.Timeout,
		MaxRetryTime:   cfg.DataSource.MaxRetryTime,
	}
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "rest":
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, httpOpts)
	case "mock":
		fetcher = &collector.MockFetcher{Price: cfg.DataSource.MockPrice}
	default:
		fetcher = collector.NewYahooFetcher(httpOpts)
	}
	log.Info().Str("data_source", fetcher.Name()).Msg("Bar feed ready")
	feed := collector.NewCollector(fetcher, cfg.DataSource.Timeout)

	var classifier engine.SentimentClassifier
	if !cfg.Sentiment.Disabled {
		source := sentiment.NewRSSSource(sentiment.RSSOptions{
			FeedURL:        cfg.Sentiment.FeedURL,
			SearchTerms:    cfg.SearchTerms(),
			MaxHeadlines:   cfg.Sentiment.MaxHeadlines,
			RequestsPerSec: cfg.Sentiment.RequestsPerSec,
			Client:         httpclient.New(cfg.Proxy, cfg.Sentiment.HeadlineTimeout),
		})
		c := sentiment.NewClassifier(source, sentiment.Options{
			LLM: sentiment.LLMOptions{
				APIKey:  cfg.Sentiment.APIKey,
				BaseURL: cfg.Sentiment.BaseURL,
				Model:   cfg.Sentiment.Model,
			},
			HeadlineTimeout:   cfg.Sentiment.HeadlineTimeout,
			ClassifierTimeout: cfg.Sentiment.ClassifierTimeout,
		})
		log.Info().Strs("providers", c.Providers()).Msg("Sentiment classifier ready")
		classifier = c
	} else {
		log.Info().Msg("Sentiment disabled, signals are technical-only")
	}

	rec := metrics.New()
	instruments := make([]engine.Instrument, 0, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		instruments = append(instruments, engine.Instrument{Symbol: s.Symbol, FeedSymbol: s.Feed, DisplayName: s.DisplayName})
	}
	eng, err := engine.New(feed, classifier, engine.Options{
		Instruments: instruments,
		Calibration: cfg.Calibration,
		Concurrency: cfg.Concurrency,
		Observer:    rec,
	})
	if err != nil {
		return fmt.Errorf("init engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if once {
		return printOnce(ctx, eng, symbol, includeNews)
	}

	var store recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("Init sqlite recorder failed, using noop")
		} else {
			store = sr
		}
	}
	defer store.Close()

	var sink notifier.Notifier
	if cfg.Discord.WebhookURL != "" {
		sink = notifier.NewDiscordNotifier(cfg.Discord.WebhookURL, cfg.Discord.Username, cfg.Proxy)
	} else {
		log.Info().Msg("No Discord webhook configured, notifications disabled")
	}

	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}
	sched, err := scheduler.New(ctx, eng, sink, store, scheduler.Options{
		Spec:        cfg.Schedule.Cron,
		Location:    loc,
		IncludeNews: includeNews,
		Observer:    rec,
	})
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Schedule.RunOnStart {
		log.Info().Msg("RUN_ON_START enabled, executing signal batch now")
		go func() {
			if _, err := sched.RunNow(ctx); err != nil {
				log.Warn().Err(err).Msg("Startup run failed")
			}
		}()
	}

	if !cfg.Server.Disabled {
		srv := api.NewServer(cfg.Server.Addr, api.NewSignalHandler(eng, store, sched), rec.Handler())
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("HTTP shutdown failed")
			}
		}()
	}

	log.Info().Msg("SignalFusion is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Info().Msg("Shutdown signal received, stopping...")
	return nil
}

func printOnce(ctx context.Context, eng *engine.Engine, symbol string, includeNews bool) error {
	var symbols []string
	if symbol != "" {
		symbols = []string{symbol}
	}
	results := eng.GenerateAll(ctx, symbols, includeNews)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			log.Error().Err(r.Err).Str("symbol", r.Symbol).Msg("Signal unavailable")
			continue
		}
		if err := enc.Encode(r.Signal); err != nil {
			return fmt.Errorf("encode signal: %w", err)
		}
	}
	if failed == len(results) {
		return fmt.Errorf("no signal generated for %d symbol(s)", failed)
	}
	return nil
}
