package economy

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dachacoin.ru/telegram-bot/internal/common"
	"dachacoin.ru/telegram-bot/internal/storage"
)

// memSaver считает сохранения и умеет имитировать сбой диска.
type memSaver struct {
	mu    sync.Mutex
	saves int
	fail  bool
}

func (s *memSaver) Save(*storage.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.fail {
		return errors.New("диск недоступен")
	}
	return nil
}

func newTestLedger() (*Ledger, *memSaver) {
	saver := &memSaver{}
	l := NewLedger(storage.NewEmptySnapshot(), saver, time.UTC)
	return l, saver
}

func TestClickPurchaseScenario(t *testing.T) {
	l, _ := newTestLedger()
	const actor int64 = 1

	// Первый клик без улучшений — ровно базовая ставка
	delta := l.ApplyClick(actor)
	assert.Equal(t, "0.050", delta.StringFixed(3))
	assert.Equal(t, "0.050", l.Balance(actor).StringFixed(3))

	// Лопата стоит 100.0 — на балансе 0.050
	err := l.PurchaseUpgrade(actor, "shovel")
	require.ErrorIs(t, err, common.ErrInsufficientFunds)
	assert.Equal(t, "0.050", l.Balance(actor).StringFixed(3))
	assert.Zero(t, l.GetOrCreateAccount(actor).Upgrades["shovel"])

	// Оператор выдаёт 150.0
	newBalance, err := l.Grant(actor, decimal.RequireFromString("150.0"))
	require.NoError(t, err)
	assert.Equal(t, "150.050", newBalance.StringFixed(3))

	// Теперь покупка проходит
	require.NoError(t, l.PurchaseUpgrade(actor, "shovel"))
	assert.Equal(t, "50.050", l.Balance(actor).StringFixed(3))
	assert.Equal(t, 1, l.GetOrCreateAccount(actor).Upgrades["shovel"])

	// Клик с лопатой: 0.050 + 0.010
	delta = l.ApplyClick(actor)
	assert.Equal(t, "0.060", delta.StringFixed(3))
	assert.Equal(t, "50.110", l.Balance(actor).StringFixed(3))
}

func TestPurchaseUnknownUpgrade(t *testing.T) {
	l, _ := newTestLedger()

	err := l.PurchaseUpgrade(1, "tractor")
	assert.ErrorIs(t, err, common.ErrUnknownUpgrade)
	assert.Equal(t, "0.000", l.Balance(1).StringFixed(3))
}

func TestSeededPromo(t *testing.T) {
	l, _ := newTestLedger()

	promos := l.Promos()
	require.Len(t, promos, 1)
	assert.Equal(t, "DEDACHA", promos[0].Name)
	assert.Equal(t, "50.000", promos[0].Reward.StringFixed(3))
	assert.Equal(t, 5, promos[0].Limit)
	assert.Zero(t, promos[0].Used)
}

func TestSeedSkippedForExistingEconomy(t *testing.T) {
	snap := storage.NewEmptySnapshot()
	snap.Balances[42] = decimal.RequireFromString("1.0")

	l := NewLedger(snap, &memSaver{}, time.UTC)
	assert.Empty(t, l.Promos())
}

func TestPromoLimitAcrossActors(t *testing.T) {
	l, _ := newTestLedger()

	// Пять разных игроков активируют DEDACHA (лимит 5)
	for actor := int64(1); actor <= 5; actor++ {
		reward, err := l.RedeemPromo(actor, "DEDACHA")
		require.NoError(t, err)
		assert.Equal(t, "50.000", reward.StringFixed(3))
		assert.Equal(t, "50.000", l.Balance(actor).StringFixed(3))
	}
	assert.Equal(t, 5, l.Promos()[0].Used)

	// Шестому — отказ без изменения баланса
	_, err := l.RedeemPromo(6, "DEDACHA")
	assert.ErrorIs(t, err, common.ErrPromoLimitReached)
	assert.Equal(t, "0.000", l.Balance(6).StringFixed(3))
	assert.Equal(t, 5, l.Promos()[0].Used)
}

func TestPromoRedeemTwiceSameActor(t *testing.T) {
	l, _ := newTestLedger()

	_, err := l.RedeemPromo(1, "DEDACHA")
	require.NoError(t, err)

	_, err = l.RedeemPromo(1, "DEDACHA")
	assert.ErrorIs(t, err, common.ErrPromoAlreadyRedeemed)
	// Начисление не задвоилось
	assert.Equal(t, "50.000", l.Balance(1).StringFixed(3))
	assert.Equal(t, 1, l.Promos()[0].Used)
}

func TestPromoNotFound(t *testing.T) {
	l, _ := newTestLedger()

	_, err := l.RedeemPromo(1, "НЕСУЩЕСТВУЕТ")
	assert.ErrorIs(t, err, common.ErrPromoNotFound)
}

func TestPromoConcurrentRedemptionsRespectLimit(t *testing.T) {
	l, _ := newTestLedger()
	require.NoError(t, l.CreatePromo("ГОНКА", decimal.RequireFromString("10.0"), 5))

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for actor := int64(1); actor <= 20; actor++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if _, err := l.RedeemPromo(id, "ГОНКА"); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(actor)
	}
	wg.Wait()

	assert.Equal(t, 5, successes)
	for _, p := range l.Promos() {
		if p.Name == "ГОНКА" {
			assert.Equal(t, 5, p.Used)
		}
	}
}

func TestCreateDeletePromo(t *testing.T) {
	l, _ := newTestLedger()

	require.NoError(t, l.CreatePromo("НОВЫЙГОД", decimal.RequireFromString("100.0"), 3))
	assert.ErrorIs(t, l.CreatePromo("НОВЫЙГОД", decimal.RequireFromString("1.0"), 1),
		common.ErrDuplicatePromoName)

	require.NoError(t, l.DeletePromo("НОВЫЙГОД"))
	assert.ErrorIs(t, l.DeletePromo("НОВЫЙГОД"), common.ErrPromoNotFound)
}

func TestCreatePromoValidatesArguments(t *testing.T) {
	l, _ := newTestLedger()

	assert.ErrorIs(t, l.CreatePromo("X", decimal.RequireFromString("-1"), 3), common.ErrInvalidAmount)
	assert.ErrorIs(t, l.CreatePromo("X", decimal.RequireFromString("1"), 0), common.ErrInvalidAmount)
}

func TestDailyRewardOncePerDay(t *testing.T) {
	l, _ := newTestLedger()
	current := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }

	reward, err := l.ClaimDailyReward(1)
	require.NoError(t, err)
	assert.Equal(t, "10.000", reward.StringFixed(3))

	// Вторая попытка в тот же день
	_, err = l.ClaimDailyReward(1)
	assert.ErrorIs(t, err, common.ErrDailyAlreadyClaimed)
	assert.Equal(t, "10.000", l.Balance(1).StringFixed(3))

	// Наступили новые календарные сутки
	current = current.Add(13 * time.Hour)
	_, err = l.ClaimDailyReward(1)
	require.NoError(t, err)
	assert.Equal(t, "20.000", l.Balance(1).StringFixed(3))
}

func TestPassiveIncomeTruncatesToWholeMinutes(t *testing.T) {
	l, _ := newTestLedger()
	current := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }

	const actor int64 = 1
	l.GetOrCreateAccount(actor) // чекпоинт = current

	// Одна удочка: 1.0 коина в минуту
	_, err := l.Grant(actor, decimal.RequireFromString("200.0"))
	require.NoError(t, err)
	require.NoError(t, l.PurchaseUpgrade(actor, "fishing_rod"))
	balanceAfterPurchase := l.Balance(actor)

	// 90 секунд: зачтена 1 минута, 30 секунд отброшено
	current = current.Add(90 * time.Second)
	income := l.SettlePassiveIncome(actor)
	assert.Equal(t, "1.000", income.StringFixed(3))

	// Ещё 90 секунд от НОВОГО чекпоинта: снова ровно 1 минута —
	// остаток не накапливается и не двоится
	current = current.Add(90 * time.Second)
	income = l.SettlePassiveIncome(actor)
	assert.Equal(t, "1.000", income.StringFixed(3))

	assert.Equal(t,
		balanceAfterPurchase.Add(decimal.RequireFromString("2.0")).StringFixed(3),
		l.Balance(actor).StringFixed(3))
}

func TestPassiveIncomeZeroElapsed(t *testing.T) {
	l, _ := newTestLedger()
	current := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }

	l.GetOrCreateAccount(1)

	current = current.Add(30 * time.Second)
	income := l.SettlePassiveIncome(1)
	assert.True(t, income.IsZero())
	// Чекпоинт всё равно сдвинут на «сейчас»
	assert.Equal(t, current, l.GetOrCreateAccount(1).PassiveCheckpoint)
}

func TestPassiveIncomeFirstTouchInitializesCheckpoint(t *testing.T) {
	l, _ := newTestLedger()
	current := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }

	// Счёта ещё нет — первый вызов только ставит чекпоинт
	income := l.SettlePassiveIncome(7)
	assert.True(t, income.IsZero())
	assert.Equal(t, current, l.GetOrCreateAccount(7).PassiveCheckpoint)
}

func TestGrantRejectsNegative(t *testing.T) {
	l, _ := newTestLedger()

	_, err := l.Grant(1, decimal.RequireFromString("-5"))
	assert.ErrorIs(t, err, common.ErrInvalidAmount)
}

func TestGrantAutoCreatesAccount(t *testing.T) {
	l, _ := newTestLedger()

	newBalance, err := l.Grant(99, decimal.RequireFromString("7.5"))
	require.NoError(t, err)
	assert.Equal(t, "7.500", newBalance.StringFixed(3))

	players := l.ListPlayers()
	require.Len(t, players, 1)
	assert.Equal(t, int64(99), players[0].ActorID)
}

func TestGetOrCreateAccountIdempotent(t *testing.T) {
	l, saver := newTestLedger()

	l.GetOrCreateAccount(1)
	savesAfterCreate := saver.saves

	acc := l.GetOrCreateAccount(1)
	assert.True(t, acc.Balance.IsZero())
	assert.Empty(t, acc.Upgrades)
	// Повторный вызов не пишет на диск
	assert.Equal(t, savesAfterCreate, saver.saves)
}

func TestPersistFailureKeepsMutationInMemory(t *testing.T) {
	l, saver := newTestLedger()
	saver.fail = true

	delta := l.ApplyClick(1)
	assert.Equal(t, "0.050", delta.StringFixed(3))
	// Мутация применена несмотря на сбой диска; следующий успешный
	// Save унесёт её на диск
	assert.Equal(t, "0.050", l.Balance(1).StringFixed(3))
}

// partialSnapshot собирает снимок, где у игрока есть баланс,
// но нет внутренних карт улучшений и промокодов — так выглядит
// прочитанный документ с несовпадающими наборами ключей.
func partialSnapshot(actor int64, balance string) *storage.Snapshot {
	snap := storage.NewEmptySnapshot()
	snap.Balances[actor] = decimal.RequireFromString(balance)
	return snap
}

func TestRedeemPromoOnPartialAccountState(t *testing.T) {
	snap := partialSnapshot(1, "5.0")
	snap.ActivePromocodes["X"] = &storage.Promo{
		Reward: decimal.RequireFromString("50.0"),
		Limit:  5,
	}
	l := NewLedger(snap, &memSaver{}, time.UTC)

	reward, err := l.RedeemPromo(1, "X")
	require.NoError(t, err)
	assert.Equal(t, "50.000", reward.StringFixed(3))

	// Все три эффекта применились вместе
	assert.Equal(t, "55.000", l.Balance(1).StringFixed(3))
	assert.Equal(t, 1, l.Promos()[0].Used)
	assert.Equal(t, []string{"X"}, l.GetOrCreateAccount(1).RedeemedPromos)
}

func TestPurchaseUpgradeOnPartialAccountState(t *testing.T) {
	l := NewLedger(partialSnapshot(1, "500.0"), &memSaver{}, time.UTC)

	require.NoError(t, l.PurchaseUpgrade(1, "shovel"))
	assert.Equal(t, "400.000", l.Balance(1).StringFixed(3))
	assert.Equal(t, 1, l.GetOrCreateAccount(1).Upgrades["shovel"])
}

func TestListPlayersSorted(t *testing.T) {
	l, _ := newTestLedger()

	for _, id := range []int64{30, 10, 20} {
		l.GetOrCreateAccount(id)
	}

	players := l.ListPlayers()
	require.Len(t, players, 3)
	assert.Equal(t, int64(10), players[0].ActorID)
	assert.Equal(t, int64(20), players[1].ActorID)
	assert.Equal(t, int64(30), players[2].ActorID)
}
