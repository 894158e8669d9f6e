package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aleksandr-bogdanov/whendoist/internal/bot"
	"github.com/aleksandr-bogdanov/whendoist/internal/config"
	"github.com/aleksandr-bogdanov/whendoist/internal/repository"
	"github.com/aleksandr-bogdanov/whendoist/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.TelegramToken == "" {
		log.Fatalf("config: TELEGRAM_TOKEN is required")
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	domainRepo := repository.NewDomainRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	instanceRepo := repository.NewInstanceRepository(db)

	domainSvc := service.NewDomainService(domainRepo)
	taskSvc := service.NewTaskService(taskRepo, domainRepo, instanceRepo)
	agendaSvc := service.NewAgendaService(taskRepo, instanceRepo)
	materializeSvc := service.NewMaterializeService(taskRepo, instanceRepo, cfg.HorizonDays)

	telegramBot, err := bot.New(cfg.TelegramToken, userRepo, domainSvc, taskSvc, agendaSvc, &cfg)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	materialize := func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := materializeSvc.Run(jobCtx, time.Now()); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("materialize: %v", err)
		}
	}

	scheduler := service.NewSchedulerService(loc)
	if _, err := scheduler.ScheduleDaily("agenda broadcast", cfg.AgendaTime, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := telegramBot.SendAgendas(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("agenda broadcast: %v", err)
		}
	}); err != nil {
		log.Fatalf("schedule agenda broadcast: %v", err)
	}
	if _, err := scheduler.ScheduleEvery("materialize occurrences", time.Duration(cfg.MaterializeEvery)*time.Hour, materialize); err != nil {
		log.Fatalf("schedule materialize: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Fill occurrence slots once at startup so a fresh install has an
	// agenda before the first cron tick.
	materialize()

	log.Println("Whendoist bot started.")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
