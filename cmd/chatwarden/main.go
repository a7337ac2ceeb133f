package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/chatwarden/internal/bot"
	"github.com/iamwavecut/chatwarden/internal/config"
	"github.com/iamwavecut/chatwarden/internal/db/sqlite"
	"github.com/iamwavecut/chatwarden/internal/event"
	handlers "github.com/iamwavecut/chatwarden/internal/handlers/chat"
	"github.com/iamwavecut/chatwarden/internal/infra"
	"github.com/iamwavecut/chatwarden/internal/infrastructure/telegram"
	"github.com/iamwavecut/chatwarden/internal/lifecycle"
	"github.com/iamwavecut/chatwarden/internal/moderation"
	"github.com/iamwavecut/chatwarden/internal/observability"
)

func main() {
	cfg := config.Get()
	log.SetFormatter(&config.CwFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.Level(cfg.LogLevel))

	ctx, cancelFunc := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancelFunc()

	if err := observability.Init(ctx, cfg.MetricsAddr); err != nil {
		log.WithError(err).Fatalln("cant initialize observability")
	}
	observability.Logger.Info("starting chatwarden")

	infra.GoRecoverable(-1, "process_updates", func() {
		botAPI, err := api.NewBotAPI(cfg.TelegramAPIToken)
		if err != nil {
			log.WithError(err).Errorln("cant initialize bot api")
			time.Sleep(1 * time.Second)
			log.Fatalln("exiting")
		}
		if log.Level(cfg.LogLevel) == log.TraceLevel {
			botAPI.Debug = true
		}
		defer botAPI.StopReceivingUpdates()

		dbClient, err := sqlite.NewSQLiteClient(ctx, infra.GetWorkDir(), "bot.db")
		if err != nil {
			log.WithError(err).Fatalln("cant initialize storage")
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				log.WithError(err).Error("cant close storage")
			}
		}()

		service := bot.NewService(botAPI, dbClient)
		operations := telegram.NewOperations(botAPI)

		event.Subscribe(event.TypeModerationLog, func(e event.Queueable) {
			logEvent, ok := e.(*event.ModerationLog)
			if !ok || logEvent.Entry == nil {
				e.Drop()
				return
			}
			entry := logEvent.Entry
			log.WithFields(log.Fields{
				"chat_id":  entry.ChatID,
				"user_id":  entry.UserID,
				"actor_id": entry.ActorID,
				"action":   entry.Action,
				"category": entry.Category,
				"source":   entry.Source,
				"reason":   entry.Reason,
			}).Info("moderation action")
			e.Process()
		})
		defer event.RunWorker()()
		notifier := event.Notifier{}

		registry := moderation.NewRegistry()
		policyCache := moderation.NewPolicyCache(dbClient)
		executor := moderation.NewExecutor(operations, dbClient, notifier)
		ladder := moderation.NewWarningLadder(dbClient, policyCache, executor, notifier)
		pipeline := moderation.NewPipeline(registry, policyCache, policyCache, service, operations, ladder, notifier)
		antiFlood := moderation.NewAntiFlood(policyCache, executor, operations)

		runtime := lifecycle.NewRuntime(antiFlood)
		if err := runtime.Start(ctx); err != nil {
			log.WithError(err).Fatalln("cant start background components")
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := runtime.Stop(stopCtx); err != nil {
				log.WithError(err).Error("cant stop background components")
			}
		}()

		bot.RegisterUpdateHandler("moderator", handlers.NewModerator(service, pipeline, antiFlood, ladder, executor, operations))

		updateConfig := api.NewUpdate(0)
		updateConfig.Timeout = 60
		updateProcessor := bot.NewUpdateProcessor(service)

		updateChan, errorChan := bot.GetUpdatesChans(ctx, botAPI, updateConfig)

		for {
			select {
			case err := <-errorChan:
				log.WithError(err).Fatalln("bot api get updates error")
			case update := <-updateChan:
				if err := updateProcessor.Process(ctx, &update); err != nil {
					log.WithError(err).Errorln("cant process update")
				}
			case <-ctx.Done():
				log.WithError(ctx.Err()).Errorln("no more updates")
				return
			}
		}
	})

	select {
	case <-infra.MonitorExecutable(ctx):
		log.Errorln("executable file was modified")
	case <-ctx.Done():
	}
	os.Exit(0)
}
