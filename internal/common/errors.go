// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки экономики (клики, магазин, выдача)
var (
	// ErrInsufficientFunds — недостаточно коинов на счёте
	ErrInsufficientFunds = errors.New("недостаточно Дача-коинов на счёте")
	// ErrUnknownUpgrade — товар с таким id отсутствует в каталоге
	ErrUnknownUpgrade = errors.New("товар не найден")
	// ErrInvalidAmount — некорректная сумма (отрицательная или не число)
	ErrInvalidAmount = errors.New("сумма должна быть неотрицательной")
)

// Ошибки промокодов
var (
	// ErrPromoNotFound — промокод не существует
	ErrPromoNotFound = errors.New("промокод не найден")
	// ErrPromoLimitReached — лимит активаций промокода исчерпан
	ErrPromoLimitReached = errors.New("лимит активаций исчерпан")
	// ErrPromoAlreadyRedeemed — игрок уже активировал этот промокод
	ErrPromoAlreadyRedeemed = errors.New("вы уже использовали этот промокод")
	// ErrDuplicatePromoName — промокод с таким именем уже есть
	ErrDuplicatePromoName = errors.New("промокод с таким именем уже существует")
)

// Ошибки ежедневной награды
var (
	// ErrDailyAlreadyClaimed — награда за сегодня уже получена
	ErrDailyAlreadyClaimed = errors.New("награда за сегодня уже получена")
)

// Ошибки админки
var (
	// ErrNotAdmin — пользователь не входит в список операторов
	ErrNotAdmin = errors.New("у вас нет прав администратора")
)
