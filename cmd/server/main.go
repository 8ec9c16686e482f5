package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"github.com/pavel13595/Baranchik-Inventory/config"
	"github.com/pavel13595/Baranchik-Inventory/internal/delivery/rest"
	"github.com/pavel13595/Baranchik-Inventory/internal/delivery/telegram"
	"github.com/pavel13595/Baranchik-Inventory/internal/domain/entity"
	"github.com/pavel13595/Baranchik-Inventory/internal/domain/repository"
	"github.com/pavel13595/Baranchik-Inventory/internal/infrastructure/connectivity"
	"github.com/pavel13595/Baranchik-Inventory/internal/infrastructure/export"
	"github.com/pavel13595/Baranchik-Inventory/internal/infrastructure/metrics"
	"github.com/pavel13595/Baranchik-Inventory/internal/infrastructure/sheets"
	"github.com/pavel13595/Baranchik-Inventory/internal/infrastructure/storage"
	"github.com/pavel13595/Baranchik-Inventory/internal/usecase"
	"github.com/pavel13595/Baranchik-Inventory/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger.Init()
	logger.InfoLogger.Println("starting inventory service")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	time.Local = cfg.Location

	if err := run(cfg); err != nil {
		log.Fatalf("stopped with error: %v", err)
	}
	logger.InfoLogger.Println("stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	store := storage.Open(storage.Options{
		Driver:   cfg.StoreDriver,
		Path:     cfg.StorePath,
		Postgres: storage.PostgresOptions{
			DSN:          cfg.PostgresDSN,
			AdminDSN:     cfg.PostgresAdminDSN,
			ConnectTries: cfg.PostgresConnectTries,
			ConnectDelay: cfg.PostgresConnectDelay,
		},
	})
	defer store.Close()

	var (
		observer repository.ConnectivityObserver
		prober   *connectivity.Prober
	)
	if cfg.ProbeURL != "" {
		prober = connectivity.NewProber(cfg.ProbeURL, cfg.ProbeInterval)
		observer = prober
	} else {
		observer = connectivity.NewManual(true)
	}

	var (
		syncer     repository.RemoteSyncer
		sheetStore repository.SheetStore
	)
	if cfg.SheetsEnabled() {
		client, err := sheets.NewClient(ctx, cfg.ServiceAccountFile, cfg.SpreadsheetID, cfg.Location)
		if err != nil {
			logger.ErrorLogger.Printf("google sheets disabled: %v", err)
		} else {
			syncer = client
			sheetStore = client
			logger.InfoLogger.Println("google sheets client ready")
		}
	}

	var bot *tgbotapi.BotAPI
	if !isEmptyOrDisabled(cfg.TelegramToken) {
		b, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			logger.ErrorLogger.Printf("telegram disabled: %v", err)
		} else {
			bot = b
			logger.InfoLogger.Printf("telegram bot ready: @%s", bot.Self.UserName)
		}
	}

	var sharer repository.Sharer
	if bot != nil && cfg.TelegramExportChatID != 0 {
		sharer = export.NewTelegramSharer(bot, cfg.TelegramExportChatID)
	}

	inventory := usecase.NewInventoryUseCase(ctx, usecase.InventoryDeps{
		Store:         store,
		Connectivity:  observer,
		Syncer:        syncer,
		SpreadsheetID: cfg.SpreadsheetID,
		User:          entity.User{ID: cfg.UserID, Name: cfg.UserName},
		DefaultCity:   cfg.DefaultCity,
		Metrics:       m,
	})
	defer inventory.Close()

	exporter := usecase.NewExportUseCase(usecase.ExportDeps{
		Brand:      cfg.BrandName,
		Location:   cfg.Location,
		Downloader: export.NewFileDownloader(cfg.ExportDir),
		Sharer:     sharer,
		Linker:     export.TelegramLinker{},
		Metrics:    m,
	})

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: rest.NewRouter(rest.Deps{
			Inventory:      inventory,
			Export:         exporter,
			Sheets:         sheetStore,
			Metrics:        m,
			AllowedOrigins: cfg.AllowedOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoLogger.Printf("http listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if prober != nil {
		g.Go(func() error { return prober.Run(gctx) })
	}

	if bot != nil {
		if sheetStore == nil {
			logger.WarnLogger.Println("telegram intake disabled: google sheets is not configured")
		} else {
			handler := telegram.NewBotHandler(bot, sheetStore, m)
			g.Go(func() error { return handler.Start(gctx) })
		}
	}

	return g.Wait()
}

func isEmptyOrDisabled(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	return strings.EqualFold(value, "disabled")
}
