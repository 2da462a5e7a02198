// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование сумм, работа с временем.
package common

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PluralizeCoins возвращает правильную форму слова «Дача-коин» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "Дача-коин" (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "Дача-коина" (2, 3, 4, 22, ...)
//   - Остальные случаи → "Дача-коинов" (0, 5-20, 25-30, 100, ...)
//
// Для дробных сумм (0.050 коина и т.п.) всегда используется родительный падеж.
func PluralizeCoins(amount decimal.Decimal) string {
	if !amount.Equal(amount.Truncate(0)) {
		return "Дача-коина"
	}

	n := amount.Abs().IntPart()
	lastDigit := n % 10
	lastTwoDigits := n % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "Дача-коин"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "Дача-коина"
	}
	return "Дача-коинов"
}

// FormatAmount форматирует сумму с тремя знаками после запятой.
// Пример: FormatAmount(decimal 0.05) → "0.050"
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(3)
}

// FormatBalance форматирует баланс в читабельную строку.
// Пример: FormatBalance(150.050) → "150.050 Дача-коинов"
func FormatBalance(balance decimal.Decimal) string {
	return fmt.Sprintf("%s %s", FormatAmount(balance), PluralizeCoins(balance))
}

// FormatDateTime форматирует время в формат "2006-01-02 15:04:05".
// Используется для записей аудит-лога и имён бэкапов.
func FormatDateTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
