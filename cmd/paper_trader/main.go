package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"paper_trading/internal/api"
	"paper_trading/internal/config"
	"paper_trading/internal/ledger"
	"paper_trading/internal/logger"
	"paper_trading/internal/market"
	"paper_trading/internal/market/alpaca"
	"paper_trading/internal/storage"
	"paper_trading/internal/storage/sqlstore"
	"paper_trading/internal/telegram"
	"paper_trading/internal/watcher"
)

const LogFile = "paper_trader.log"
const VersionFile = "version.latest"

func main() {
	cfg := config.Load()
	version := readVersion()

	logger.Setup(LogFile, cfg.MaxLogSizeMB, cfg.MaxLogBackups)
	logger.SetLevel(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("CRITICAL: Could not open %s store: %v", cfg.StoreDriver, err)
	}
	defer closeStore()

	marketProvider := market.NewThrottled(alpaca.NewProvider(cfg.DataFeed), cfg.MarketRatePerMin)
	clock := func() time.Time { return time.Now().In(cfg.Location) }

	l := ledger.New(store, marketProvider, ledger.WithClock(clock))
	if err := l.Load(ctx); err != nil {
		log.Fatalf("CRITICAL: Could not load user record: %v", err)
	}

	tg := telegram.NewClient(cfg.TelegramBotToken, cfg.TelegramChatID)
	w := watcher.New(cfg, l, marketProvider, tg)
	if cfg.TelegramEnabled() {
		go tg.StartListener(ctx, w.HandleCommand, w.HandleCallback)
	} else {
		log.Println("Warning: Telegram credentials missing, chat commands and notifications disabled")
	}

	srv := api.NewServer(cfg.HTTPAddr, l, marketProvider, clock)
	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("[API] server stopped: %v", err)
			cancel()
		}
	}()

	log.Printf("Paper Trader %s Initialized (store: %s)", version, cfg.StoreDriver)
	log.Printf("Refresh Interval: %d mins", cfg.RefreshIntervalMins)
	w.SendStartupNotification(version)

	w.Poll(ctx) // Run once immediately on start

	ticker := time.NewTicker(cfg.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⚠️ Paper Trader Shutting Down: System signal received.")
			shutdown(srv, w)
			return
		case <-ticker.C:
			next := clock().Add(cfg.RefreshInterval())
			logger.Debugf("Next refresh scheduled for: %s", next.Format("2006-01-02 15:04:05 MST"))
			w.Poll(ctx)
		}
	}
}

func shutdown(srv *api.Server, w *watcher.Watcher) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[API] shutdown: %v", err)
	}
	w.SendShutdownNotification()
}

// openStore picks the persistence backend named by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Println("Warning: memory store selected, state is lost on exit")
		return storage.NewMemoryStore(), noop, nil
	case config.DriverSQLite:
		s, err := sqlstore.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.DriverPostgres:
		s, err := sqlstore.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.DriverFile:
		return storage.NewFileStore(cfg.StateFile), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func readVersion() string {
	version, err := os.ReadFile(VersionFile)
	if err != nil {
		return "v0.0.0-dev"
	}
	return strings.TrimSpace(string(version))
}
