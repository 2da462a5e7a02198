package economy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClickMultiplier(t *testing.T) {
	// Без улучшений — базовая ставка
	assert.Equal(t, "0.050", ClickMultiplier(nil).StringFixed(3))

	// Лопата даёт +0.010, теплица +0.050; удочка на клик не влияет
	owned := map[string]int{"shovel": 2, "greenhouse": 1, "fishing_rod": 3}
	assert.Equal(t, "0.120", ClickMultiplier(owned).StringFixed(3))
}

func TestPassiveRatePerMinute(t *testing.T) {
	assert.True(t, PassiveRatePerMinute(nil).IsZero())

	owned := map[string]int{"fishing_rod": 2, "shovel": 5}
	assert.Equal(t, "2.000", PassiveRatePerMinute(owned).StringFixed(3))
}

func TestWholeMinutes(t *testing.T) {
	from := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, int64(0), WholeMinutes(from, from))
	assert.Equal(t, int64(0), WholeMinutes(from, from.Add(59*time.Second)))
	assert.Equal(t, int64(1), WholeMinutes(from, from.Add(90*time.Second)))
	assert.Equal(t, int64(10), WholeMinutes(from, from.Add(10*time.Minute+59*time.Second)))
	// Время назад — не начисляем
	assert.Equal(t, int64(0), WholeMinutes(from, from.Add(-time.Minute)))
}

func TestCatalogConsistency(t *testing.T) {
	seen := make(map[string]bool)
	for _, u := range Catalog() {
		assert.False(t, seen[u.ID], "дубликат id в каталоге: %s", u.ID)
		seen[u.ID] = true
		assert.True(t, u.Price.IsPositive())
		assert.True(t, u.Value.IsPositive())
	}

	_, ok := UpgradeByID("shovel")
	assert.True(t, ok)
	_, ok = UpgradeByID("nonexistent")
	assert.False(t, ok)
}
