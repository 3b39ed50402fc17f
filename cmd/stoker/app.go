package main

import (
	"fmt"

	"stoker/internal/auth"
	"stoker/internal/codeassist"
	"stoker/internal/config"
	"stoker/internal/credstore"
	"stoker/internal/logging"
	"stoker/internal/scheduler"
	"stoker/internal/warmup"
)

// app wires the long-lived pieces of a command invocation together.
type app struct {
	cfg          config.Config
	schedule     *scheduler.Schedule
	gateway      *codeassist.Client
	auth         *auth.Client
	pipeline     *warmup.Pipeline
	refreshToken string
}

// buildSchedule derives the daily schedule from validated configuration.
func buildSchedule(cfg config.Config) (*scheduler.Schedule, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	hour, minute, err := config.ParseTimeOfDay(cfg.TriggerTime)
	if err != nil {
		return nil, err
	}
	return scheduler.NewSchedule(hour, minute, loc, cfg.QuotaCycle)
}

func buildApp(cfg config.Config) (*app, error) {
	sched, err := buildSchedule(cfg)
	if err != nil {
		return nil, err
	}

	refreshToken, err := credstore.NewStore().Resolve(cfg.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("resolve refresh token: %w (set STOKER_REFRESH_TOKEN or run `stoker credential set`)", err)
	}

	authClient := auth.NewClient(cfg.ProbeTimeout, logging.NewComponentLogger("auth"))
	gateway := codeassist.NewClient(codeassist.Config{
		ProbeTimeout:   cfg.ProbeTimeout,
		TriggerTimeout: cfg.TriggerTimeout,
		Logger:         logging.NewComponentLogger("codeassist"),
	})
	pipeline := warmup.NewPipeline(authClient, gateway, refreshToken, cfg.WarmThreshold, logging.NewComponentLogger("warmup"))

	return &app{
		cfg:          cfg,
		schedule:     sched,
		gateway:      gateway,
		auth:         authClient,
		pipeline:     pipeline,
		refreshToken: refreshToken,
	}, nil
}

func (a *app) notifier() scheduler.Notifier {
	if a.cfg.Lark.Enabled() {
		return scheduler.NewLarkNotifier(a.cfg.Lark.AppID, a.cfg.Lark.AppSecret, a.cfg.Lark.ChatID, logging.NewComponentLogger("notifier"))
	}
	return scheduler.NopNotifier{}
}

func (a *app) scheduler() *scheduler.Scheduler {
	return scheduler.New(scheduler.Config{
		Schedule:      a.schedule,
		Cooldown:      a.cfg.Cooldown,
		NotifyTimeout: a.cfg.NotifyTimeout,
	}, a.pipeline, a.notifier(), logging.NewComponentLogger("scheduler"))
}
