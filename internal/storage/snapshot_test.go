package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "data.json"), filepath.Join(dir, "backups"))
	require.NoError(t, err)
	return store
}

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	store := newTestStore(t)

	snap, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, snap.Balances)
	assert.Empty(t, snap.ActivePromocodes)
	// Карты инициализированы — писать можно сразу
	snap.Balances[1] = decimal.RequireFromString("1.0")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	snap := NewEmptySnapshot()
	snap.Balances[100] = decimal.RequireFromString("150.050")
	snap.Upgrades[100] = map[string]int{"shovel": 1, "greenhouse": 2}
	snap.PassiveLast[100] = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	snap.UsedPromocodes[100] = map[string]bool{"DEDACHA": true}
	snap.ActivePromocodes["DEDACHA"] = &Promo{
		Reward: decimal.RequireFromString("50.0"),
		Limit:  5,
		Used:   3,
	}
	snap.DailyRewards[100] = "2026-08-28"

	require.NoError(t, store.Save(snap))

	loaded, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, "150.050", loaded.Balances[100].StringFixed(3))
	assert.Equal(t, map[string]int{"shovel": 1, "greenhouse": 2}, loaded.Upgrades[100])
	assert.True(t, loaded.PassiveLast[100].Equal(snap.PassiveLast[100]))
	assert.True(t, loaded.UsedPromocodes[100]["DEDACHA"])
	require.Contains(t, loaded.ActivePromocodes, "DEDACHA")
	assert.Equal(t, "50.000", loaded.ActivePromocodes["DEDACHA"].Reward.StringFixed(3))
	assert.Equal(t, 5, loaded.ActivePromocodes["DEDACHA"].Limit)
	assert.Equal(t, 3, loaded.ActivePromocodes["DEDACHA"].Used)
	assert.Equal(t, "2026-08-28", loaded.DailyRewards[100])
}

func TestSaveOverwritesFully(t *testing.T) {
	store := newTestStore(t)

	snap := NewEmptySnapshot()
	snap.Balances[1] = decimal.RequireFromString("5.0")
	require.NoError(t, store.Save(snap))

	delete(snap.Balances, 1)
	snap.Balances[2] = decimal.RequireFromString("7.0")
	require.NoError(t, store.Save(snap))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.NotContains(t, loaded.Balances, int64(1))
	assert.Equal(t, "7.000", loaded.Balances[2].StringFixed(3))
}

func TestLoadCorruptFileQuarantined(t *testing.T) {
	dir := t.TempDir()
	dataFile := filepath.Join(dir, "data.json")
	store, err := NewStore(dataFile, filepath.Join(dir, "backups"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(dataFile, []byte("{обрезанный json"), 0o644))

	// Повреждённый файл не роняет загрузку
	snap, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, snap.Balances)

	// Оригинал отложен для разбора
	quarantined, err := os.ReadFile(dataFile + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "{обрезанный json", string(quarantined))

	// Самого файла данных больше нет
	_, err = os.Stat(dataFile)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadEmptyFileReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	dataFile := filepath.Join(dir, "data.json")
	store, err := NewStore(dataFile, filepath.Join(dir, "backups"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(dataFile, nil, 0o644))

	snap, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, snap.Balances)
}

func TestBackupCreatesTimestampedCopy(t *testing.T) {
	dir := t.TempDir()
	dataFile := filepath.Join(dir, "data.json")
	backupDir := filepath.Join(dir, "backups")
	store, err := NewStore(dataFile, backupDir)
	require.NoError(t, err)

	snap := NewEmptySnapshot()
	snap.Balances[1] = decimal.RequireFromString("3.0")
	require.NoError(t, store.Save(snap))

	path, err := store.Backup()
	require.NoError(t, err)
	assert.Contains(t, path, "backup_")

	original, err := os.ReadFile(dataFile)
	require.NoError(t, err)
	copied, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, copied)
}

func TestBackupWithoutDataFile(t *testing.T) {
	store := newTestStore(t)

	// Файла данных ещё нет — бэкапится пустой документ
	path, err := store.Backup()
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}

func TestLoadPartialDocumentInitializesInnerMaps(t *testing.T) {
	dir := t.TempDir()
	dataFile := filepath.Join(dir, "data.json")
	store, err := NewStore(dataFile, filepath.Join(dir, "backups"))
	require.NoError(t, err)

	// У игрока есть баланс, но нет записей об улучшениях и промокодах;
	// у второго улучшения записаны явным null
	doc := `{
        "balances": {"1": "5", "2": "7"},
        "upgrades": {"2": null},
        "used_promocodes": {"2": null},
        "active_promocodes": {"X": {"reward": "50", "limit": 5, "used": 0}}
    }`
	require.NoError(t, os.WriteFile(dataFile, []byte(doc), 0o644))

	snap, err := store.Load()
	require.NoError(t, err)

	for _, id := range []int64{1, 2} {
		require.NotNil(t, snap.Upgrades[id], "upgrades игрока %d", id)
		require.NotNil(t, snap.UsedPromocodes[id], "used_promocodes игрока %d", id)
		// Внутренние карты пригодны для записи
		snap.Upgrades[id]["shovel"]++
		snap.UsedPromocodes[id]["X"] = true
	}
}

func TestReferralFieldsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dataFile := filepath.Join(dir, "data.json")
	store, err := NewStore(dataFile, filepath.Join(dir, "backups"))
	require.NoError(t, err)

	// Зарезервированные поля из документа сохраняются как есть
	doc := `{"balances": {}, "referrals": {"1": [2, 3]}, "referral_count": {"1": 2}}`
	require.NoError(t, os.WriteFile(dataFile, []byte(doc), 0o644))

	snap, err := store.Load()
	require.NoError(t, err)
	require.NoError(t, store.Save(snap))

	reloaded, err := store.Load()
	require.NoError(t, err)
	assert.JSONEq(t, `{"1": [2, 3]}`, string(reloaded.Referrals))
	assert.JSONEq(t, `{"1": 2}`, string(reloaded.ReferralCount))
}
