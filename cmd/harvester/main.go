package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adda-Baaj/portco-news/internal/config"
	"github.com/Adda-Baaj/portco-news/internal/harvest"
	"github.com/Adda-Baaj/portco-news/internal/logger"
	"github.com/Adda-Baaj/portco-news/pkg/cache"
	"github.com/Adda-Baaj/portco-news/pkg/feed"
	"github.com/Adda-Baaj/portco-news/pkg/httpclient"
	"github.com/Adda-Baaj/portco-news/pkg/publishers"
	"github.com/Adda-Baaj/portco-news/pkg/sheet"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "harvester: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("PORTCO_CONFIG_FILE"))
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg.Cache)
	if err != nil {
		return err
	}
	results, err := cache.New(store, cfg.Cache.TTL, cache.WithLogger(log))
	if err != nil {
		_ = store.Close()
		return err
	}
	defer func() { _ = results.Close() }()

	client := httpclient.NewRestyClientWithOptions(httpclient.Options{
		Timeout:            cfg.HTTP.Timeout,
		InsecureSkipVerify: cfg.Feed.InsecureSkipVerify,
	})
	feedIngestor := feed.NewIngestor(cfg.Feed.URL, client, log)
	sheetIngestor := sheet.NewIngestor(sheet.Config{
		SpreadsheetID:   cfg.Sheet.ID,
		CredentialsJSON: cfg.Sheet.CredentialsJSON,
		CredentialsFile: cfg.Sheet.CredentialsFile,
	}, log)

	var routes []publishers.Route
	if cfg.Publishers.File != "" {
		pubCfgs, err := publishers.LoadConfigs(cfg.Publishers.File)
		if err != nil {
			return err
		}
		routes, err = publishers.BuildAll(ctx, publishers.DefaultRegistry(), pubCfgs, log)
		if err != nil {
			return err
		}
	}

	runner := harvest.NewRunner(
		harvest.NewLiveFeed(feedIngestor),
		cache.NewCachedSheet(sheetIngestor, results),
		routes,
		log,
	)

	log.InfoObj("harvester starting", "harvester_start", map[string]any{
		"feed_url":       feedIngestor.URL(),
		"spreadsheet_id": sheetIngestor.SpreadsheetID(),
		"cache_backend":  cfg.Cache.Backend,
		"cache_ttl":      results.TTL().String(),
		"interval":       cfg.Run.Interval.String(),
		"publishers":     len(routes),
	})

	runner.Run(ctx, cfg.Run.Interval, refreshSignals(ctx))
	return nil
}

func openStore(cfg config.CacheConfig) (cache.Store, error) {
	if cfg.Backend == config.CacheBackendBolt {
		return cache.OpenBoltStore(cfg.Path)
	}
	return cache.NewMemoryStore(10 * time.Minute), nil
}

// refreshSignals turns SIGHUP into explicit refresh requests.
func refreshSignals(ctx context.Context) <-chan struct{} {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)

	out := make(chan struct{})
	go func() {
		defer signal.Stop(hup)
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				select {
				case out <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
