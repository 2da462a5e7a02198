// Package admin — handlers.go обрабатывает админ-панель.
// Панель работает через inline-кнопки; действия, которым нужен
// дополнительный текст (выдача, рассылка, промокоды), ставят состояние
// диалога и ждут следующее сообщение оператора.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"dachacoin.ru/telegram-bot/internal/common"
	"dachacoin.ru/telegram-bot/internal/dialog"
)

// logTailBytes — сколько байт аудит-лога показываем оператору.
const logTailBytes = 2000

// Callback-токены админ-панели. Префикс admin_ отделяет их
// от игровых кнопок при маршрутизации.
const (
	CallbackPrefix = "admin_"

	cbGive        = "admin_give"
	cbBroadcast   = "admin_broadcast"
	cbCreatePromo = "admin_create_promo"
	cbDeletePromo = "admin_delete_promo"
	cbList        = "admin_list"
	cbLogs        = "admin_logs"
	cbBackup      = "admin_backup"
)

// Handler обрабатывает команды и кнопки админ-панели.
type Handler struct {
	service *Service
	dialogs *dialog.Machine
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик админ-панели.
func NewHandler(service *Service, dialogs *dialog.Machine, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{
		service: service,
		dialogs: dialogs,
		bot:     bot,
	}
}

// panelMenu — клавиатура админ-панели.
func panelMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("💵 Выдать коины", cbGive)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📨 Рассылка", cbBroadcast)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🎁 Создать промо", cbCreatePromo)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить промо", cbDeletePromo)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📋 Игроки", cbList)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📄 Логи", cbLogs)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔄 Ручной бэкап", cbBackup)),
	)
}

// HandleAdminCommand обрабатывает /admin — показывает панель операторам.
func (h *Handler) HandleAdminCommand(ctx context.Context, chatID int64, userID int64) {
	if !h.service.IsAdmin(userID) {
		h.sendMessage(chatID, "❌ Доступ запрещён.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, "🔐 Админ-панель")
	msg.ReplyMarkup = panelMenu()
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки админ-панели")
	}
}

// HandleCallback обрабатывает нажатие кнопки админ-панели.
func (h *Handler) HandleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	userID := query.From.ID
	chatID := query.Message.Chat.ID

	if !h.service.IsAdmin(userID) {
		h.answerAlert(query, "❌ Доступ запрещён.")
		return
	}
	h.answer(query)

	switch query.Data {
	case cbGive:
		h.dialogs.Begin(userID, dialog.StateAwaitingGive)
		h.sendMessage(chatID, "Введите: ID сумма\nПример: 123456789 100")

	case cbBroadcast:
		h.dialogs.Begin(userID, dialog.StateAwaitingBroadcast)
		h.sendMessage(chatID, "Введите текст рассылки:")

	case cbCreatePromo:
		h.dialogs.Begin(userID, dialog.StateAwaitingPromoCreate)
		h.sendMessage(chatID, "Введите: ИМЯ СУММА ЛИМИТ\nПример: НОВЫЙГОД 100 5")

	case cbDeletePromo:
		h.dialogs.Begin(userID, dialog.StateAwaitingPromoDelete)
		h.sendMessage(chatID, h.promoListPrompt(userID))

	case cbList:
		h.handleList(chatID, userID)

	case cbLogs:
		h.handleLogs(chatID, userID)

	case cbBackup:
		h.handleBackup(chatID, userID)

	default:
		h.sendMessage(chatID, "❌ Неизвестная команда.")
	}
}

// HandleStateText обрабатывает текст оператора для потреблённого
// состояния диалога. Список операторов уже перепроверен маршрутизацией,
// сервис перепроверит его ещё раз.
func (h *Handler) HandleStateText(ctx context.Context, chatID int64, userID int64, state dialog.State, text string) {
	switch state {
	case dialog.StateAwaitingGive:
		h.handleGiveText(chatID, userID, text)
	case dialog.StateAwaitingBroadcast:
		h.handleBroadcastText(chatID, userID, text)
	case dialog.StateAwaitingPromoCreate:
		h.handlePromoCreateText(chatID, userID, text)
	case dialog.StateAwaitingPromoDelete:
		h.handlePromoDeleteText(chatID, userID, text)
	default:
		h.sendMessage(chatID, "Используйте кнопки.")
	}
}

// handleGiveText — выдача коинов по строке "ID сумма".
func (h *Handler) handleGiveText(chatID int64, userID int64, text string) {
	req, err := ParseGive(text)
	if err != nil {
		h.sendMessage(chatID, parseHint(err))
		return
	}

	newBalance, err := h.service.Grant(userID, req.TargetID, req.Amount)
	if err != nil {
		log.WithError(err).Error("Ошибка выдачи коинов")
		h.sendMessage(chatID, "❌ Ошибка выдачи коинов")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"✅ Выдано %s пользователю %d\nНовый баланс: %s",
		common.FormatBalance(req.Amount), req.TargetID, common.FormatAmount(newBalance),
	))
}

// handleBroadcastText — рассылка всем известным игрокам.
func (h *Handler) handleBroadcastText(chatID int64, userID int64, text string) {
	delivered, err := h.service.Broadcast(userID, text)
	if err != nil {
		log.WithError(err).Error("Ошибка рассылки")
		h.sendMessage(chatID, "❌ Ошибка рассылки")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("📬 Рассылка: %d доставлено", delivered))
}

// handlePromoCreateText — создание промокода по строке "ИМЯ СУММА ЛИМИТ".
func (h *Handler) handlePromoCreateText(chatID int64, userID int64, text string) {
	req, err := ParsePromoCreate(text)
	if err != nil {
		h.sendMessage(chatID, parseHint(err))
		return
	}

	switch err := h.service.CreatePromo(userID, req.Name, req.Reward, req.Limit); {
	case errors.Is(err, common.ErrDuplicatePromoName):
		h.sendMessage(chatID, "⚠️ Промокод с таким именем уже есть.")
	case err != nil:
		log.WithError(err).Error("Ошибка создания промокода")
		h.sendMessage(chatID, "❌ Ошибка создания промокода")
	default:
		h.sendMessage(chatID, fmt.Sprintf(
			"✅ Промокод '%s' создан: %s (лимит: %d)",
			req.Name, common.FormatAmount(req.Reward), req.Limit,
		))
	}
}

// handlePromoDeleteText — удаление промокода по имени.
func (h *Handler) handlePromoDeleteText(chatID int64, userID int64, text string) {
	name, err := ParsePromoDelete(text)
	if err != nil {
		h.sendMessage(chatID, parseHint(err))
		return
	}

	switch err := h.service.DeletePromo(userID, name); {
	case errors.Is(err, common.ErrPromoNotFound):
		h.sendMessage(chatID, "❌ Промокод не найден.")
	case err != nil:
		log.WithError(err).Error("Ошибка удаления промокода")
		h.sendMessage(chatID, "❌ Ошибка удаления промокода")
	default:
		h.sendMessage(chatID, fmt.Sprintf("🗑 Промокод '%s' удалён.", name))
	}
}

// promoListPrompt строит подсказку со списком промокодов
// для шага удаления.
func (h *Handler) promoListPrompt(userID int64) string {
	promos, err := h.service.ListPromos(userID)
	if err != nil || len(promos) == 0 {
		return "Доступные промокоды:\nНет\n\nВведите имя промокода для удаления:"
	}

	var sb strings.Builder
	sb.WriteString("Доступные промокоды:\n")
	for _, p := range promos {
		sb.WriteString(fmt.Sprintf("• %s — %s (использовано: %d/%d)\n",
			p.Name, common.FormatAmount(p.Reward), p.Used, p.Limit))
	}
	sb.WriteString("\nВведите имя промокода для удаления:")
	return sb.String()
}

// handleList отправляет список игроков с балансами.
func (h *Handler) handleList(chatID int64, userID int64) {
	players, err := h.service.ListPlayers(userID)
	if err != nil {
		log.WithError(err).Error("Ошибка списка игроков")
		h.sendMessage(chatID, "❌ Ошибка списка игроков")
		return
	}

	if len(players) == 0 {
		h.sendMessage(chatID, "📋 Игроки:\nНет игроков")
		return
	}

	var sb strings.Builder
	sb.WriteString("📋 Игроки:\n")
	for _, p := range players {
		sb.WriteString(fmt.Sprintf("ID %d: %s\n", p.ActorID, p.Balance.StringFixed(1)))
	}
	h.sendMessage(chatID, sb.String())
}

// handleLogs отправляет хвост аудит-лога.
func (h *Handler) handleLogs(chatID int64, userID int64) {
	logs, err := h.service.ReadRecentLogs(userID, logTailBytes)
	if err != nil {
		log.WithError(err).Error("Ошибка чтения логов")
		h.sendMessage(chatID, "❌ Ошибка чтения логов")
		return
	}
	if logs == "" {
		logs = "Логи пусты."
	}
	h.sendMessage(chatID, fmt.Sprintf("📄 Логи:\n\n%s", logs))
}

// handleBackup создаёт бэкап по требованию.
func (h *Handler) handleBackup(chatID int64, userID int64) {
	if _, err := h.service.ForceBackup(userID); err != nil {
		log.WithError(err).Error("Ошибка ручного бэкапа")
		h.sendMessage(chatID, "❌ Ошибка создания бэкапа")
		return
	}
	h.sendMessage(chatID, "✅ Бэкап создан вручную!")
}

// answer подтверждает нажатие кнопки.
func (h *Handler) answer(query *tgbotapi.CallbackQuery) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.WithError(err).Debug("Не удалось подтвердить callback")
	}
}

// answerAlert подтверждает нажатие кнопки всплывающим алертом.
func (h *Handler) answerAlert(query *tgbotapi.CallbackQuery, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallbackWithAlert(query.ID, text)); err != nil {
		log.WithError(err).Debug("Не удалось подтвердить callback")
	}
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
