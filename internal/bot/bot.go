// Package bot содержит главный модуль бота — запуск polling, маршрутизацию
// апдейтов и остановку. Каждый апдейт обрабатывается синхронно: к моменту
// выхода из обработчика мутация уже применена и записана на диск.
package bot

import (
	"context"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"dachacoin.ru/telegram-bot/internal/bot/middleware"
	"dachacoin.ru/telegram-bot/internal/config"
	"dachacoin.ru/telegram-bot/internal/dialog"
	"dachacoin.ru/telegram-bot/internal/features/admin"
	"dachacoin.ru/telegram-bot/internal/features/economy"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	rateLimiter *middleware.RateLimiter
	dialogs     *dialog.Machine

	economyHandler *economy.Handler
	adminHandler   *admin.Handler
	adminService   *admin.Service

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
	// ждём завершения обработчиков при остановке: начатая мутация
	// не обрывается посередине
	wg sync.WaitGroup
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	dialogs *dialog.Machine,
	economyHandler *economy.Handler,
	adminHandler *admin.Handler,
	adminService *admin.Service,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:            api,
		cfg:            cfg,
		rateLimiter:    middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		dialogs:        dialogs,
		economyHandler: economyHandler,
		adminHandler:   adminHandler,
		adminService:   adminService,
		inflight:       make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
// Возвращается после остановки контекста, когда все начатые
// обработчики завершили работу.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			b.rateLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				b.wg.Wait()
				b.rateLimiter.Close()
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			b.wg.Add(1)
			go func(upd tgbotapi.Update) {
				defer b.wg.Done()
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.From == nil || update.Message.Text == "" {
		return
	}

	message := update.Message

	// Логируем входящее
	middleware.LogMessage(message)

	// Rate limiting
	if !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	if message.IsCommand() {
		b.routeCommand(ctx, chatID, userID, message.Command())
		return
	}

	b.routeText(ctx, chatID, userID, message.Text)
}

// handleCallback маршрутизирует нажатие кнопки.
// Админ-кнопки отличаются префиксом admin_ в callback data.
func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.From == nil || query.Message == nil {
		return
	}

	middleware.LogCallback(query)

	if !b.rateLimiter.Allow(query.From.ID) {
		log.WithField("user_id", query.From.ID).Debug("rate limited")
		return
	}

	if strings.HasPrefix(query.Data, admin.CallbackPrefix) {
		b.adminHandler.HandleCallback(ctx, query)
		return
	}
	b.economyHandler.HandleCallback(ctx, query)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, cmd string) {
	log.WithField("cmd", cmd).Debug("routing command")

	switch cmd {
	case "start":
		b.economyHandler.HandleStart(ctx, chatID, userID)
	case "admin":
		b.adminHandler.HandleAdminCommand(ctx, chatID, userID)
	default:
		b.sendMessage(chatID, "Используйте кнопки.")
	}
}

// routeText разбирает свободный текст по ожидаемому состоянию диалога.
// Состояние потребляется ровно один раз; операторские состояния
// разбираются раньше игровых, и список операторов перепроверяется —
// оператор тоже игрок с тем же ID.
func (b *Bot) routeText(ctx context.Context, chatID, userID int64, text string) {
	state := b.dialogs.Consume(userID)

	switch {
	case state.IsOperator():
		if !b.adminService.IsAdmin(userID) {
			// Операторское состояние у не-оператора: список сменился
			// между шагами диалога. Текст считаем нераспознанным.
			b.sendMessage(chatID, "Используйте кнопки.")
			return
		}
		b.adminHandler.HandleStateText(ctx, chatID, userID, state, strings.TrimSpace(text))

	case state == dialog.StateAwaitingPromo:
		b.economyHandler.HandlePromoText(ctx, chatID, userID, strings.TrimSpace(text))

	default:
		b.sendMessage(chatID, "Используйте кнопки.")
	}
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
