package notification_service

import (
	"sync"
	"time"

	"racket-club-bot/internal/models"
)

// CooldownGuard хранит окно повтора рассылки по каждой серии.
// Проверка и запись нового окна идут одним шагом под мьютексом,
// иначе два одновременных нажатия кнопки "объявить" оба пройдут
// проверку и рассылка уйдёт дважды.
//
// Истечение проверяется лениво при чтении, периодическая чистка -
// только сборка мусора.
type CooldownGuard struct {
	mu       sync.Mutex
	expiries map[int64]time.Time
	now      func() time.Time
}

func NewCooldownGuard() *CooldownGuard {
	return &CooldownGuard{
		expiries: make(map[int64]time.Time),
		now:      time.Now,
	}
}

// TryAcquire атомарно проверяет окно и открывает новое.
// nil = рассылка разрешена; *models.CooldownActiveError = отказ
// с остатком ожидания.
func (g *CooldownGuard) TryAcquire(seriesID int64, window time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if expiry, ok := g.expiries[seriesID]; ok && now.Before(expiry) {
		return &models.CooldownActiveError{Remaining: expiry.Sub(now)}
	}

	g.expiries[seriesID] = now.Add(window)
	return nil
}

// Remaining - остаток окна; 0, если окно не открыто или истекло
func (g *CooldownGuard) Remaining(seriesID int64) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	expiry, ok := g.expiries[seriesID]
	if !ok {
		return 0
	}
	remaining := expiry.Sub(g.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Sweep удаляет истёкшие записи, возвращает число удалённых
func (g *CooldownGuard) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	removed := 0
	for seriesID, expiry := range g.expiries {
		if !now.Before(expiry) {
			delete(g.expiries, seriesID)
			removed++
		}
	}
	return removed
}
