package main

import (
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/viicttorhugo/invest-botnuvem/internal/config"
	"github.com/viicttorhugo/invest-botnuvem/internal/model"
	"github.com/viicttorhugo/invest-botnuvem/internal/notifier"
	"github.com/viicttorhugo/invest-botnuvem/internal/quote"
	"github.com/viicttorhugo/invest-botnuvem/internal/recorder"
	"github.com/viicttorhugo/invest-botnuvem/internal/scheduler"
	"github.com/viicttorhugo/invest-botnuvem/internal/session"
	"github.com/viicttorhugo/invest-botnuvem/internal/strategy"
	"github.com/viicttorhugo/invest-botnuvem/internal/venue"
	"github.com/viicttorhugo/invest-botnuvem/internal/venue/deriv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] botnuvem starting...")

	_ = godotenv.Load()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		log.Fatalf("[FATAL] engine config: %v", err)
	}

	// Init venue connector
	var connector venue.Connector
	if cfg.Venue.PaperMode {
		log.Println("[INFO] paper mode: trades settle against a synthetic quote source")
		connector = &venue.PaperConnector{Venue: venue.NewPaper(&quote.MockSource{BasePrice: 1.08})}
	} else {
		connector = deriv.NewConnector(deriv.Config{
			Endpoint: cfg.Venue.Endpoint,
			AppID:    cfg.Venue.AppID,
			Currency: cfg.Venue.Currency,
		})
	}

	// Init Telegram notifier
	tn := notifier.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	// Init recorder
	var rec recorder.Recorder
	if sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath); err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		rec = recorder.NewNoopRecorder()
	} else {
		rec = sr
		defer sr.Close()
	}

	// One shared model across the configured instruments.
	names := make([]string, 0, len(engineCfg.Instruments))
	for name := range engineCfg.Instruments {
		names = append(names, name)
	}
	sort.Strings(names)
	models := strategy.NewStaticProvider(nil, names)

	registry := session.NewRegistry(engineCfg, session.Deps{
		Connector: connector,
		Models:    models,
		Notifier:  tn,
		Recorder:  rec,
	})

	// Init scheduler
	sched := scheduler.NewScheduler(registry, tn, rec)
	if err := sched.RegisterAll(cfg.Schedule.DigestCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start the configured account's session
	creds := model.Credentials{VenueToken: cfg.Account.VenueToken}
	if err := registry.Start(cfg.Account.UserID, creds, cfg.AccountParams()); err != nil {
		log.Fatalf("[FATAL] start session %s: %v", cfg.Account.UserID, err)
	}
	log.Printf("[INFO] session %s started", cfg.Account.UserID)

	// Optional: digest immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing digest now")
		go sched.RunDigestNow()
	}

	log.Println("[INFO] botnuvem is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	registry.StopAll()
	log.Println("[INFO] botnuvem stopped")
}
