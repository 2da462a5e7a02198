// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание бэкапов: один раз вскоре после
// старта и затем с фиксированным интервалом (по умолчанию 24 часа).
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"dachacoin.ru/telegram-bot/internal/config"
	"dachacoin.ru/telegram-bot/internal/features/admin"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron         *cron.Cron
	console      *admin.Service
	initialDelay time.Duration
	interval     time.Duration
	initialTimer *time.Timer
}

// NewScheduler создаёт планировщик задач в часовом поясе приложения.
func NewScheduler(console *admin.Service, cfg *config.Config) *Scheduler {
	c := cron.New(cron.WithLocation(cfg.Location()))

	return &Scheduler{
		cron:         c,
		console:      console,
		initialDelay: cfg.BackupInitialDelay,
		interval:     cfg.BackupInterval,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Первый бэкап вскоре после старта
	s.initialTimer = time.AfterFunc(s.initialDelay, s.runBackup)

	// Регулярные бэкапы
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.runBackup); err != nil {
		log.WithError(err).Error("[CRON] Не удалось запланировать бэкапы")
	}

	s.cron.Start()
	log.WithField("interval", s.interval.String()).Info("Планировщик задач запущен")
}

// runBackup создаёт плановый бэкап от имени SYSTEM.
func (s *Scheduler) runBackup() {
	log.Info("[CRON] Плановый бэкап")
	path, err := s.console.SystemBackup()
	if err != nil {
		log.WithError(err).Error("[CRON] Ошибка бэкапа")
		return
	}
	log.WithField("path", path).Info("[CRON] Бэкап создан")
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	if s.initialTimer != nil {
		s.initialTimer.Stop()
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
