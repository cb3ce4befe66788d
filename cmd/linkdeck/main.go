// cmd/linkdeck/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linkdeck/internal/adapters/api"
	"linkdeck/internal/adapters/output"
	"linkdeck/internal/adapters/store/sqlite"
	"linkdeck/internal/core/domain"
	"linkdeck/internal/core/ports"
	"linkdeck/internal/core/usecases"
	"linkdeck/internal/platform/config"
	"linkdeck/internal/platform/httpclient"
	"linkdeck/internal/platform/logx"
)

var (
	// Set with -ldflags at build time.
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// 1. Centralized config: defaults, ENV, flags.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: configuration load failed: %v\n", err)
		os.Exit(2)
	}

	if cfg.PrintVersion {
		fmt.Printf("linkdeck %s (commit %s, built %s)\n", version, commit, date)
		return
	}

	if cfg.ProfileID == "" {
		fmt.Fprintln(os.Stderr, "Error: profile id is required")
		fmt.Fprintln(os.Stderr, "Usage: linkdeck -p <profile-id>")
		fmt.Fprintln(os.Stderr, "Try: linkdeck -h for help")
		os.Exit(2)
	}

	// 2. Shared logger.
	logger := logx.New()

	logger.Info("linkdeck starting",
		"version", version,
		"profile", cfg.ProfileID,
		"api", cfg.APIBaseURL,
		"watch", cfg.Watch,
	)

	// 3. Context and signals for clean shutdown.
	ctx, cancel := rootContextWithSignals(cfg.Timeout())
	defer cancel()

	// 4. Platform catalog.
	catalog, err := loadCatalog(cfg)
	if err != nil {
		logger.Err(err, "phase", "catalog")
		os.Exit(2)
	}

	// 5. API client.
	httpCfg := httpclient.DefaultConfig()
	httpCfg.UserAgent = "linkdeck/" + version
	apiClient := api.New(httpclient.New(httpCfg, logger), cfg.APIBaseURL, catalog, logger)

	// 6. Local snapshot cache. Failure degrades to no cache, never aborts.
	var store ports.Store
	if cfg.StorePath != "" {
		s, err := sqlite.New(cfg.StorePath)
		if err != nil {
			logger.Warn("snapshot cache unavailable", "path", cfg.StorePath, "error", err.Error())
		} else {
			store = s
			defer s.Close()
		}
	}

	notifier := output.NewNotifier(os.Stdout)
	renderer := output.NewTableRenderer(os.Stdout, cfg.NoTable)

	// 7. Core services. The conflict and ingestable hooks close over the
	// sync service, created last.
	var syncSvc *usecases.SuggestionSync

	manager := usecases.NewManager(usecases.ManagerOptions{
		Catalog:        catalog,
		MaxSocialLinks: cfg.MaxSocialLinks,
		AddDelay:       cfg.AddDelay(),
		Logger:         logger,
		API:            apiClient,
		ProfileID:      cfg.ProfileID,
	})

	saver := usecases.NewSaver(usecases.SaverOptions{
		API:       apiClient,
		Store:     store,
		Notifier:  notifier,
		Logger:    logger,
		Catalog:   catalog,
		ProfileID: cfg.ProfileID,
		Debounce:  cfg.Debounce(),
		Manager:   manager,
		OnConflict: func() {
			go func() {
				if err := syncSvc.Sync(ctx); err != nil && ctx.Err() == nil {
					logger.Warn("post-conflict resync failed", "error", err.Error())
				}
			}()
		},
		OnIngestable: func() {
			syncSvc.ArmRefreshWindow(ctx)
		},
	})
	defer saver.Close()

	syncSvc = usecases.NewSuggestionSync(usecases.SyncOptions{
		API:           apiClient,
		Manager:       manager,
		Saver:         saver,
		Notifier:      notifier,
		Logger:        logger,
		ProfileID:     cfg.ProfileID,
		FastInterval:  cfg.FastPoll(),
		SlowInterval:  cfg.SlowPoll(),
		RefreshWindow: cfg.RefreshWindow(),
	})

	// 8. Initial load, with the cached snapshot as offline fallback.
	if err := loadInitial(ctx, cfg, apiClient, store, manager, saver, logger); err != nil {
		logger.Err(err, "phase", "load")
		os.Exit(1)
	}

	// Persistence watches the collection only after the initial state is in
	// place, so the load itself never echoes back as a save.
	manager.Subscribe(saver.Debounced)

	// 9. Render.
	if !cfg.NoTable {
		renderer.Header(cfg.ProfileID)
		renderer.Links(manager.Links())
		renderer.Suggestions(manager.Suggested())
	}

	// 10. Watch mode keeps the suggestion poller running until interrupted.
	if cfg.Watch {
		go syncSvc.Run(ctx)

		manager.Subscribe(func(links []domain.Link) {
			if !cfg.NoTable {
				renderer.Links(links)
			}
		})

		<-ctx.Done()
		logger.Info("shutting down")
	}

	// 11. Flush any pending save before exit.
	saver.Flush()

	logger.Info("linkdeck finished")
}

// loadCatalog returns the configured catalog file or the built-in table.
func loadCatalog(cfg config.Config) (*domain.Catalog, error) {
	if cfg.CatalogPath == "" {
		return domain.DefaultCatalog(), nil
	}
	return domain.LoadCatalog(cfg.CatalogPath)
}

// loadInitial seeds the manager and saver from the server, falling back to
// the local snapshot when the service is unreachable.
func loadInitial(
	ctx context.Context,
	cfg config.Config,
	apiClient *api.Client,
	store ports.Store,
	manager *usecases.Manager,
	saver *usecases.Saver,
	logger logx.Logger,
) error {
	links, err := apiClient.FetchLinks(ctx, cfg.ProfileID)
	if err == nil {
		active, suggested := splitByState(links)
		manager.SetLinks(active)
		manager.SetSuggested(suggested)
		saver.SetVersion(domain.MaxVersion(links))

		if store != nil {
			if serr := store.SaveSnapshot(ctx, cfg.ProfileID, active, saver.Version()); serr != nil {
				logger.Warn("snapshot write failed", "error", serr.Error())
			}
		}
		return nil
	}

	if store == nil {
		return err
	}

	cached, version, cerr := store.LoadSnapshot(ctx, cfg.ProfileID)
	if cerr != nil {
		return err
	}

	logger.Warn("service unreachable, rendering cached snapshot",
		"error", err.Error(),
		"version", version,
	)
	manager.SetLinks(cached)
	saver.SetVersion(version)
	return nil
}

// splitByState separates confirmed links from pending suggestions.
func splitByState(links []domain.Link) (active, suggested []domain.Link) {
	for i := range links {
		if links[i].IsSuggestion() {
			suggested = append(suggested, links[i])
			continue
		}
		active = append(active, links[i])
	}
	return active, suggested
}

// rootContextWithSignals builds the root context, cancelled by SIGINT or
// SIGTERM and optionally bounded by the global timeout.
func rootContextWithSignals(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx := context.Background()
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sig:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sig)
	}()

	return ctx, cancel
}
