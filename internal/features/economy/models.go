// Package economy управляет игровой валютой «Дача-коины».
// models.go описывает каталог улучшений и игровые константы.
package economy

import "github.com/shopspring/decimal"

// EffectClass — класс эффекта улучшения.
type EffectClass string

const (
	// EffectClick — добавка к доходу за клик
	EffectClick EffectClass = "click"
	// EffectPassive — пассивный доход в минуту
	EffectPassive EffectClass = "passive"
)

// Upgrade — товар магазина. Каталог вшит в код и неизменяем во время работы.
type Upgrade struct {
	ID     string          // Ключ в снимке ("shovel", "fishing_rod", ...)
	Name   string          // Отображаемое имя
	Price  decimal.Decimal // Цена в Дача-коинах
	Effect EffectClass     // На что влияет
	Value  decimal.Decimal // Размер эффекта за одну штуку
}

// Игровые константы.
var (
	// BaseClickRate — доход за клик без улучшений. Нижняя граница:
	// даже с пустым инвентарём клик приносит именно столько.
	BaseClickRate = decimal.RequireFromString("0.050")
	// DailyReward — фиксированная ежедневная награда
	DailyReward = decimal.RequireFromString("10.0")
)

// catalog — товары магазина в порядке отображения.
var catalog = []Upgrade{
	{
		ID:     "shovel",
		Name:   "Лопата",
		Price:  decimal.RequireFromString("100.0"),
		Effect: EffectClick,
		Value:  decimal.RequireFromString("0.010"),
	},
	{
		ID:     "fishing_rod",
		Name:   "Удочка",
		Price:  decimal.RequireFromString("200.0"),
		Effect: EffectPassive,
		Value:  decimal.RequireFromString("1.0"),
	},
	{
		ID:     "greenhouse",
		Name:   "Теплица",
		Price:  decimal.RequireFromString("500.0"),
		Effect: EffectClick,
		Value:  decimal.RequireFromString("0.050"),
	},
}

// Catalog возвращает товары магазина в порядке отображения.
func Catalog() []Upgrade {
	return catalog
}

// UpgradeByID ищет товар по ключу.
func UpgradeByID(id string) (Upgrade, bool) {
	for _, u := range catalog {
		if u.ID == id {
			return u, true
		}
	}
	return Upgrade{}, false
}
