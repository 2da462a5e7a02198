// Package audit ведёт append-only журнал привилегированных действий.
// Каждая строка: [2006-01-02 15:04:05] актор: описание действия.
// Журнал человекочитаемый; операторам доступен только хвост
// (последние N байт), структурных запросов нет.
package audit

import (
	"bytes"
	"fmt"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"dachacoin.ru/telegram-bot/internal/common"
)

// SystemActor — актор для событий, инициированных не оператором
// (плановые бэкапы, активации промокодов).
const SystemActor = "SYSTEM"

// Log пишет записи аудита в файл.
type Log struct {
	mu   sync.Mutex
	path string
	loc  *time.Location
}

// New создаёт журнал аудита. Файл создаётся при первой записи.
func New(path string, loc *time.Location) *Log {
	return &Log{path: path, loc: loc}
}

// Admin записывает действие оператора.
func (l *Log) Admin(adminID int64, action string) {
	l.record(fmt.Sprintf("Админ %d", adminID), action)
}

// System записывает системное событие (актор SYSTEM).
func (l *Log) System(action string) {
	l.record(SystemActor, action)
}

// record добавляет одну строку в журнал.
// Ошибка записи логируется и не прерывает вызвавшую операцию.
func (l *Log) record(actor, action string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("[%s] %s: %s\n",
		common.FormatDateTime(time.Now().In(l.loc)), actor, action)

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.WithError(err).Error("Не удалось открыть аудит-лог")
		return
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		log.WithError(err).Error("Не удалось записать в аудит-лог")
	}
}

// Tail возвращает хвост журнала размером не больше maxBytes.
// Срез по байтам может разрезать строку (и кириллический символ)
// посередине, поэтому начатая не с начала строка отбрасывается —
// если после неё есть хотя бы одна целая. Если журнала ещё нет —
// пустая строка без ошибки.
func (l *Log) Tail(maxBytes int) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	raw, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("ошибка чтения аудит-лога: %w", err)
	}

	if len(raw) > maxBytes {
		raw = raw[len(raw)-maxBytes:]
		if i := bytes.IndexByte(raw, '\n'); i >= 0 && i+1 < len(raw) {
			raw = raw[i+1:]
		}
	}
	return string(raw), nil
}
