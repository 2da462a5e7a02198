package middleware

import (
	"sync"
	"time"
)

// RateLimiter ограничивает частоту событий на игрока (кликов, нажатий
// кнопок, сообщений) алгоритмом скользящего окна. Кликер без лимита —
// приглашение для автокликеров.
type RateLimiter struct {
	mu     sync.Mutex
	events map[int64][]time.Time
	limit  int
	window time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		events: make(map[int64][]time.Time),
		limit:  limit,
		window: window,
		stopCh: make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Close останавливает фоновую горутину очистки.
// Его надо вызывать на shutdown (иначе cleanup будет жить вечно).
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow сообщает, можно ли обработать очередное событие актора.
func (rl *RateLimiter) Allow(actorID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	recent := rl.recentLocked(actorID, now)

	if len(recent) >= rl.limit {
		rl.events[actorID] = recent
		return false
	}

	rl.events[actorID] = append(recent, now)
	return true
}

// recentLocked отбрасывает события, выпавшие из окна. Вызывается под rl.mu.
func (rl *RateLimiter) recentLocked(actorID int64, now time.Time) []time.Time {
	cutoff := now.Add(-rl.window)
	var recent []time.Time
	for _, t := range rl.events[actorID] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	return recent
}

// cleanup периодически выметает акторов без свежих событий,
// чтобы карта не росла бесконечно.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := time.Now()
			for actorID := range rl.events {
				recent := rl.recentLocked(actorID, now)
				if len(recent) == 0 {
					delete(rl.events, actorID)
				} else {
					rl.events[actorID] = recent
				}
			}
			rl.mu.Unlock()
		}
	}
}
