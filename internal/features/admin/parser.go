// Package admin — parser.go разбирает свободный текст операторских
// диалогов в типизированные запросы. Каждому ожидаемому состоянию —
// свой парсер; при ошибке возвращается ValidationError с подсказкой
// формата, а диалог сбрасывается вызывающим кодом.
package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ValidationError — некорректный ввод оператора.
// Hint отправляется оператору как подсказка формата.
type ValidationError struct {
	Hint string
}

func (e *ValidationError) Error() string {
	return e.Hint
}

// parseHint возвращает подсказку оператору по ошибке разбора.
// Парсеры возвращают *ValidationError, но любая другая ошибка
// тоже должна остановить обработку, а не пройти дальше.
func parseHint(err error) string {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Hint
	}
	return "❌ Некорректный ввод"
}

// GiveRequest — разобранный запрос «выдать коины».
type GiveRequest struct {
	TargetID int64
	Amount   decimal.Decimal
}

// ParseGive разбирает строку "ID сумма".
func ParseGive(text string) (GiveRequest, error) {
	parts := strings.Fields(strings.TrimSpace(text))
	if len(parts) != 2 {
		return GiveRequest{}, &ValidationError{Hint: "❌ Ошибка. Формат: ID сумма"}
	}

	targetID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return GiveRequest{}, &ValidationError{Hint: "❌ Ошибка. Формат: ID сумма"}
	}

	amount, err := decimal.NewFromString(parts[1])
	if err != nil || amount.IsNegative() {
		return GiveRequest{}, &ValidationError{Hint: "❌ Сумма должна быть неотрицательным числом"}
	}

	return GiveRequest{TargetID: targetID, Amount: amount}, nil
}

// PromoCreateRequest — разобранный запрос «создать промокод».
type PromoCreateRequest struct {
	Name   string
	Reward decimal.Decimal
	Limit  int
}

// ParsePromoCreate разбирает строку "ИМЯ СУММА ЛИМИТ".
func ParsePromoCreate(text string) (PromoCreateRequest, error) {
	hint := "❌ Формат: ИМЯ СУММА ЛИМИТ\nПример: СУПЕР 50 3"

	parts := strings.Fields(strings.TrimSpace(text))
	if len(parts) != 3 {
		return PromoCreateRequest{}, &ValidationError{Hint: hint}
	}

	reward, err := decimal.NewFromString(parts[1])
	if err != nil || reward.IsNegative() {
		return PromoCreateRequest{}, &ValidationError{Hint: hint}
	}

	limit, err := strconv.Atoi(parts[2])
	if err != nil || limit <= 0 {
		return PromoCreateRequest{}, &ValidationError{Hint: hint}
	}

	return PromoCreateRequest{Name: parts[0], Reward: reward, Limit: limit}, nil
}

// ParsePromoDelete разбирает имя промокода для удаления.
func ParsePromoDelete(text string) (string, error) {
	name := strings.TrimSpace(text)
	if name == "" {
		return "", &ValidationError{Hint: "❌ Введите имя промокода"}
	}
	return name, nil
}
