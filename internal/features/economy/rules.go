// Package economy — rules.go содержит чистые вычисления правил игры:
// множитель клика, ставка пассивного дохода, прошедшие целые минуты.
// Функции не трогают состояние и не требуют блокировок.
package economy

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClickMultiplier считает доход за один клик:
// базовая ставка плюс сумма эффектов всех кликовых улучшений.
func ClickMultiplier(owned map[string]int) decimal.Decimal {
	total := BaseClickRate
	for _, u := range catalog {
		if u.Effect != EffectClick {
			continue
		}
		count := owned[u.ID]
		if count > 0 {
			total = total.Add(u.Value.Mul(decimal.NewFromInt(int64(count))))
		}
	}
	return total
}

// PassiveRatePerMinute считает пассивный доход в минуту
// по всем улучшениям класса passive.
func PassiveRatePerMinute(owned map[string]int) decimal.Decimal {
	total := decimal.Zero
	for _, u := range catalog {
		if u.Effect != EffectPassive {
			continue
		}
		count := owned[u.ID]
		if count > 0 {
			total = total.Add(u.Value.Mul(decimal.NewFromInt(int64(count))))
		}
	}
	return total
}

// WholeMinutes возвращает число ЦЕЛЫХ минут между двумя моментами.
// Неполная минута отбрасывается и не переносится на следующий расчёт —
// грубая поминутная политика начисления сохранена намеренно.
func WholeMinutes(from, to time.Time) int64 {
	if to.Before(from) {
		return 0
	}
	return int64(to.Sub(from) / time.Minute)
}
