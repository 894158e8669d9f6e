package main

import (
	"context"
	"fmt"

	"github.com/aleksandr-bogdanov/whendoist/internal/config"
	"github.com/aleksandr-bogdanov/whendoist/internal/model"
	"github.com/aleksandr-bogdanov/whendoist/internal/repository"
	"github.com/aleksandr-bogdanov/whendoist/internal/service"
)

// env is the shared wiring every subcommand needs: config, store, services.
type env struct {
	cfg       config.Config
	users     *repository.UserRepository
	tasks     *repository.TaskRepository
	instances *repository.InstanceRepository
	domains   *repository.DomainRepository
	close     func()
}

func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	db, err := repository.NewDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	closeDB := func() {}
	if sqlDB, err := db.DB(); err == nil {
		closeDB = func() { sqlDB.Close() }
	}

	return &env{
		cfg:       cfg,
		users:     repository.NewUserRepository(db),
		tasks:     repository.NewTaskRepository(db),
		instances: repository.NewInstanceRepository(db),
		domains:   repository.NewDomainRepository(db),
		close:     closeDB,
	}, nil
}

func (e *env) agendaService() *service.AgendaService {
	return service.NewAgendaService(e.tasks, e.instances)
}

func (e *env) materializeService() *service.MaterializeService {
	return service.NewMaterializeService(e.tasks, e.instances, e.cfg.HorizonDays)
}

func (e *env) findUser(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := e.users.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("user with telegram id %d: %w", telegramID, err)
	}
	return user, nil
}
