// Package economy — handlers.go обрабатывает игровое меню:
// клик, профиль, магазин, промокод, ежедневная награда.
// Всё взаимодействие идёт через inline-кнопки; свободный текст
// ожидается только после нажатия «Промокод».
package economy

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"dachacoin.ru/telegram-bot/internal/audit"
	"dachacoin.ru/telegram-bot/internal/common"
	"dachacoin.ru/telegram-bot/internal/dialog"
)

// Callback-токены игрового меню.
const (
	cbClick     = "click"
	cbProfile   = "profile"
	cbPromo     = "promo"
	cbShop      = "shop"
	cbDaily     = "daily"
	cbBack      = "back"
	cbBuyPrefix = "buy_"
)

// Handler обрабатывает игровые команды и кнопки.
type Handler struct {
	ledger   *Ledger
	dialogs  *dialog.Machine
	auditLog *audit.Log
	bot      *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик игрового меню.
func NewHandler(ledger *Ledger, dialogs *dialog.Machine, auditLog *audit.Log, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{
		ledger:   ledger,
		dialogs:  dialogs,
		auditLog: auditLog,
		bot:      bot,
	}
}

// mainMenu — главное меню дачи.
func mainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⛏ Клик!", cbClick)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📊 Профиль", cbProfile)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🎁 Промокод", cbPromo)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🛒 Магазин", cbShop)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📅 Ежедневная награда", cbDaily)),
	)
}

// shopMenu — меню магазина, строится из каталога улучшений.
func shopMenu() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, u := range Catalog() {
		label := fmt.Sprintf("%s — %s 🪙", u.Name, u.Price.StringFixed(1))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbBuyPrefix+u.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbBack),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// HandleStart обрабатывает /start: регистрирует счёт, начисляет
// накопившийся пассивный доход и показывает главное меню.
func (h *Handler) HandleStart(ctx context.Context, chatID int64, userID int64) {
	h.ledger.GetOrCreateAccount(userID)

	passive := h.ledger.SettlePassiveIncome(userID)
	if passive.IsPositive() {
		h.sendMessage(chatID, fmt.Sprintf("💰 Получено от пассива: %s", common.FormatBalance(passive)))
	}

	msg := tgbotapi.NewMessage(chatID, "Добро пожаловать на дачу! 🌿")
	msg.ReplyMarkup = mainMenu()
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки меню")
	}
}

// HandleCallback обрабатывает нажатие кнопки игрового меню.
func (h *Handler) HandleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	userID := query.From.ID
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	data := query.Data

	switch {
	case data == cbClick:
		h.answer(query, "")
		delta := h.ledger.ApplyClick(userID)
		balance := h.ledger.Balance(userID)
		h.editMessage(chatID, messageID, fmt.Sprintf(
			"Вы получили %s %s!\nБаланс: %s",
			common.FormatAmount(delta), common.PluralizeCoins(delta),
			common.FormatAmount(balance),
		), mainMenu())

	case data == cbProfile:
		h.answer(query, "")
		acc := h.ledger.GetOrCreateAccount(userID)
		back := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbBack)),
		)
		h.editMessage(chatID, messageID, fmt.Sprintf(
			"👤 Профиль:\nБаланс: %s", common.FormatBalance(acc.Balance),
		), back)

	case data == cbPromo:
		h.answer(query, "")
		h.dialogs.Begin(userID, dialog.StateAwaitingPromo)
		h.sendMessage(chatID, "Введите промокод:")
		if _, err := h.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
			log.WithError(err).Debug("Не удалось удалить сообщение меню")
		}

	case data == cbShop:
		h.answer(query, "")
		h.editMessage(chatID, messageID, "🛒 Магазин:", shopMenu())

	case data == cbDaily:
		reward, err := h.ledger.ClaimDailyReward(userID)
		if errors.Is(err, common.ErrDailyAlreadyClaimed) {
			h.answerAlert(query, "Вы уже получили награду!")
			return
		}
		h.answerAlert(query, fmt.Sprintf("🎉 Получено %s!", common.FormatBalance(reward)))

	case data == cbBack:
		h.answer(query, "")
		h.editMessage(chatID, messageID, "Меню дачи 🌿", mainMenu())

	case len(data) > len(cbBuyPrefix) && data[:len(cbBuyPrefix)] == cbBuyPrefix:
		h.handleBuy(query, chatID, messageID, userID, data[len(cbBuyPrefix):])

	default:
		h.answerAlert(query, "❌ Неизвестная команда")
	}
}

// handleBuy обрабатывает покупку товара в магазине.
func (h *Handler) handleBuy(query *tgbotapi.CallbackQuery, chatID int64, messageID int, userID int64, upgradeID string) {
	err := h.ledger.PurchaseUpgrade(userID, upgradeID)
	switch {
	case errors.Is(err, common.ErrUnknownUpgrade):
		h.answerAlert(query, "❌ Товар не найден")
		return
	case errors.Is(err, common.ErrInsufficientFunds):
		h.answerAlert(query, "❌ Не хватает средств!")
		return
	case err != nil:
		log.WithError(err).Error("Ошибка покупки")
		h.answerAlert(query, "❌ Ошибка покупки")
		return
	}

	upgrade, _ := UpgradeByID(upgradeID)
	h.answer(query, fmt.Sprintf("✅ Куплено: %s", upgrade.Name))
	h.editMessage(chatID, messageID, "🛒 Магазин:", shopMenu())
}

// HandlePromoText обрабатывает текст промокода после нажатия «Промокод».
// Состояние диалога уже потреблено вызывающим кодом.
func (h *Handler) HandlePromoText(ctx context.Context, chatID int64, userID int64, code string) {
	reward, err := h.ledger.RedeemPromo(userID, code)
	switch {
	case errors.Is(err, common.ErrPromoNotFound):
		h.sendMessage(chatID, "❌ Неверный промокод.")
	case errors.Is(err, common.ErrPromoLimitReached):
		h.sendMessage(chatID, "❌ Лимит активаций исчерпан.")
	case errors.Is(err, common.ErrPromoAlreadyRedeemed):
		h.sendMessage(chatID, "⚠️ Вы уже использовали этот промокод.")
	case err != nil:
		log.WithError(err).Error("Ошибка активации промокода")
		h.sendMessage(chatID, "❌ Ошибка активации промокода")
	default:
		h.sendMessage(chatID, fmt.Sprintf(
			"🎉 Промокод '%s' активирован! Получено: %s.",
			code, common.FormatBalance(reward),
		))
		h.auditLog.System(fmt.Sprintf("игрок %d активировал '%s'", userID, code))
	}
}

// answer подтверждает нажатие кнопки (без алерта).
func (h *Handler) answer(query *tgbotapi.CallbackQuery, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(query.ID, text)); err != nil {
		log.WithError(err).Debug("Не удалось подтвердить callback")
	}
}

// answerAlert подтверждает нажатие кнопки всплывающим алертом.
func (h *Handler) answerAlert(query *tgbotapi.CallbackQuery, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallbackWithAlert(query.ID, text)); err != nil {
		log.WithError(err).Debug("Не удалось подтвердить callback")
	}
}

// editMessage редактирует текст и клавиатуру сообщения.
func (h *Handler) editMessage(chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	if _, err := h.bot.Send(edit); err != nil {
		log.WithError(err).Debug("Не удалось отредактировать сообщение")
	}
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
