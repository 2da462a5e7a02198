// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт хранилище, леджер, обработчики,
// машину диалогов и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"dachacoin.ru/telegram-bot/internal/audit"
	"dachacoin.ru/telegram-bot/internal/bot"
	"dachacoin.ru/telegram-bot/internal/config"
	"dachacoin.ru/telegram-bot/internal/dialog"
	"dachacoin.ru/telegram-bot/internal/features/admin"
	"dachacoin.ru/telegram-bot/internal/features/economy"
	"dachacoin.ru/telegram-bot/internal/jobs"
	"dachacoin.ru/telegram-bot/internal/storage"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	Ledger    *economy.Ledger
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	loc := cfg.Location()

	// === 1. Хранилище и снимок экономики ===
	store, err := storage.NewStore(cfg.DataFile, cfg.BackupDir)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации хранилища: %w", err)
	}

	snap, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки снимка: %w", err)
	}

	// === 2. Леджер и аудит ===
	ledger := economy.NewLedger(snap, store, loc)
	auditLog := audit.New(cfg.AuditLogFile, loc)

	// === 3. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// Примитив отправки для рассылок и плановых уведомлений
	send := func(userID int64, text string) error {
		_, err := botAPI.Send(tgbotapi.NewMessage(userID, text))
		return err
	}

	// === 4. Машина диалогов и сервисы ===
	dialogs := dialog.NewMachine()
	adminService := admin.NewService(ledger, auditLog, store, send, cfg.AdminIDs)

	// === 5. Обработчики ===
	economyHandler := economy.NewHandler(ledger, dialogs, auditLog, botAPI)
	adminHandler := admin.NewHandler(adminService, dialogs, botAPI)

	// === 6. Собираем бота ===
	b := bot.New(botAPI, cfg, dialogs, economyHandler, adminHandler, adminService)

	// === 7. Планировщик бэкапов ===
	scheduler := jobs.NewScheduler(adminService, cfg)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		Ledger:    ledger,
		BotAPI:    botAPI,
	}, nil
}
