// Package admin — service.go реализует привилегированные операции
// оператора: выдача коинов, рассылка, управление промокодами, список
// игроков, чтение логов, ручной бэкап. Доступ перепроверяется по
// статическому списку операторов в каждой операции — маршрутизации
// выше по стеку здесь не доверяют.
package admin

import (
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"dachacoin.ru/telegram-bot/internal/audit"
	"dachacoin.ru/telegram-bot/internal/common"
	"dachacoin.ru/telegram-bot/internal/features/economy"
)

// Sender отправляет сообщение пользователю. Реализуется транспортом;
// таймаут на получателя — забота транспорта.
type Sender func(userID int64, text string) error

// Backuper создаёт бэкап снимка. Реализуется storage.Store.
type Backuper interface {
	Backup() (string, error)
}

// Service — консоль оператора.
type Service struct {
	ledger   *economy.Ledger
	auditLog *audit.Log
	backuper Backuper
	send     Sender
	admins   map[int64]bool
}

// NewService создаёт консоль с вшитым списком операторов.
func NewService(ledger *economy.Ledger, auditLog *audit.Log, backuper Backuper, send Sender, adminIDs []int64) *Service {
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Service{
		ledger:   ledger,
		auditLog: auditLog,
		backuper: backuper,
		send:     send,
		admins:   admins,
	}
}

// IsAdmin проверяет членство в списке операторов.
func (s *Service) IsAdmin(userID int64) bool {
	return s.admins[userID]
}

// Grant начисляет коины указанному игроку. Счёт создаётся при
// необходимости. Возвращает новый баланс игрока.
func (s *Service) Grant(adminID, targetID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !s.IsAdmin(adminID) {
		return decimal.Zero, common.ErrNotAdmin
	}

	newBalance, err := s.ledger.Grant(targetID, amount)
	if err != nil {
		return decimal.Zero, err
	}

	s.auditLog.Admin(adminID, fmt.Sprintf("выдал %s → %d", common.FormatAmount(amount), targetID))
	return newBalance, nil
}

// Broadcast рассылает текст всем известным игрокам.
// Доставка best-effort: сбой на одном получателе считается
// недоставкой и не прерывает остальных. Возвращает число доставленных.
func (s *Service) Broadcast(adminID int64, text string) (int, error) {
	if !s.IsAdmin(adminID) {
		return 0, common.ErrNotAdmin
	}

	delivered := 0
	for _, p := range s.ledger.ListPlayers() {
		if err := s.send(p.ActorID, fmt.Sprintf("📢 Рассылка:\n%s", text)); err != nil {
			log.WithError(err).WithField("user_id", p.ActorID).Debug("Рассылка: получатель недоступен")
			continue
		}
		delivered++
	}

	s.auditLog.Admin(adminID, fmt.Sprintf("рассылка: %s", text))
	return delivered, nil
}

// CreatePromo добавляет промокод в каталог.
func (s *Service) CreatePromo(adminID int64, name string, reward decimal.Decimal, limit int) error {
	if !s.IsAdmin(adminID) {
		return common.ErrNotAdmin
	}

	if err := s.ledger.CreatePromo(name, reward, limit); err != nil {
		return err
	}

	s.auditLog.Admin(adminID, fmt.Sprintf("создал промокод '%s' на %s, лимит %d",
		name, common.FormatAmount(reward), limit))
	return nil
}

// DeletePromo удаляет промокод из каталога.
func (s *Service) DeletePromo(adminID int64, name string) error {
	if !s.IsAdmin(adminID) {
		return common.ErrNotAdmin
	}

	if err := s.ledger.DeletePromo(name); err != nil {
		return err
	}

	s.auditLog.Admin(adminID, fmt.Sprintf("удалил промокод '%s'", name))
	return nil
}

// ListPlayers возвращает всех игроков с балансами.
func (s *Service) ListPlayers(adminID int64) ([]economy.PlayerBalance, error) {
	if !s.IsAdmin(adminID) {
		return nil, common.ErrNotAdmin
	}
	return s.ledger.ListPlayers(), nil
}

// ListPromos возвращает каталог промокодов.
func (s *Service) ListPromos(adminID int64) ([]economy.PromoInfo, error) {
	if !s.IsAdmin(adminID) {
		return nil, common.ErrNotAdmin
	}
	return s.ledger.Promos(), nil
}

// ReadRecentLogs возвращает последние maxBytes байт аудит-лога.
func (s *Service) ReadRecentLogs(adminID int64, maxBytes int) (string, error) {
	if !s.IsAdmin(adminID) {
		return "", common.ErrNotAdmin
	}
	return s.auditLog.Tail(maxBytes)
}

// ForceBackup создаёт бэкап по требованию оператора.
func (s *Service) ForceBackup(adminID int64) (string, error) {
	if !s.IsAdmin(adminID) {
		return "", common.ErrNotAdmin
	}

	path, err := s.backuper.Backup()
	if err != nil {
		return "", err
	}

	s.auditLog.Admin(adminID, fmt.Sprintf("бэкап создан: %s", path))
	return path, nil
}

// SystemBackup создаёт плановый бэкап от имени SYSTEM.
// Используется планировщиком.
func (s *Service) SystemBackup() (string, error) {
	path, err := s.backuper.Backup()
	if err != nil {
		return "", err
	}

	s.auditLog.System(fmt.Sprintf("бэкап создан: %s", path))
	return path, nil
}
