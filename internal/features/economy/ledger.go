// Package economy — ledger.go содержит Ledger: единственного владельца
// всех счетов игроков и каталога промокодов. Все мутации проходят через
// него под одним мьютексом (одна мутация общего состояния за раз) и
// сразу после применения полностью перезаписывают снимок на диске.
//
// Сбой записи на диск не откатывает и не портит состояние в памяти:
// мутация остаётся применённой, ошибка громко логируется, а следующая
// успешная запись донесёт её на диск.
package economy

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"dachacoin.ru/telegram-bot/internal/common"
	"dachacoin.ru/telegram-bot/internal/storage"
)

// dateLayout — формат календарной даты ежедневной награды.
const dateLayout = "2006-01-02"

// Saver сохраняет снимок экономики. Реализуется storage.Store.
type Saver interface {
	Save(*storage.Snapshot) error
}

// Account — копия состояния счёта игрока на момент вызова.
type Account struct {
	Balance           decimal.Decimal
	Upgrades          map[string]int
	PassiveCheckpoint time.Time
	RedeemedPromos    []string
	LastDailyReward   string // "" если награда ещё не получалась
}

// PlayerBalance — пара (игрок, баланс) для списка игроков.
type PlayerBalance struct {
	ActorID int64
	Balance decimal.Decimal
}

// PromoInfo — промокод каталога для отображения оператору.
type PromoInfo struct {
	Name   string
	Reward decimal.Decimal
	Limit  int
	Used   int
}

// Ledger — авторитетное хранилище счетов и промокодов.
type Ledger struct {
	mu    sync.Mutex
	snap  *storage.Snapshot
	store Saver
	loc   *time.Location

	// подменяется в тестах
	now func() time.Time
}

// NewLedger создаёт Ledger поверх загруженного снимка.
// В свежую экономику (нет ни игроков, ни промокодов) засевается
// стартовый промокод DEDACHA, как в первой версии игры.
func NewLedger(snap *storage.Snapshot, store Saver, loc *time.Location) *Ledger {
	if len(snap.Balances) == 0 && len(snap.ActivePromocodes) == 0 {
		snap.ActivePromocodes["DEDACHA"] = &storage.Promo{
			Reward: decimal.RequireFromString("50.0"),
			Limit:  5,
		}
	}

	return &Ledger{
		snap:  snap,
		store: store,
		loc:   loc,
		now:   time.Now,
	}
}

// persist перезаписывает снимок на диске. Вызывается под l.mu.
func (l *Ledger) persist() {
	if err := l.store.Save(l.snap); err != nil {
		log.WithError(err).Error("Снимок не записан на диск — мутация применена только в памяти")
	}
}

// ensureAccount инициализирует счёт, если его ещё нет. Вызывается под l.mu.
// Возвращает true, если счёт был создан.
// У существующего счёта досоздаёт внутренние карты: снимок мог быть
// прочитан из документа, где у игрока есть баланс, но нет записей об
// улучшениях или промокодах.
func (l *Ledger) ensureAccount(actorID int64) bool {
	if _, ok := l.snap.Balances[actorID]; ok {
		if l.snap.Upgrades[actorID] == nil {
			l.snap.Upgrades[actorID] = make(map[string]int)
		}
		if l.snap.UsedPromocodes[actorID] == nil {
			l.snap.UsedPromocodes[actorID] = make(map[string]bool)
		}
		return false
	}
	l.snap.Balances[actorID] = decimal.Zero
	l.snap.Upgrades[actorID] = make(map[string]int)
	l.snap.PassiveLast[actorID] = l.now()
	l.snap.UsedPromocodes[actorID] = make(map[string]bool)
	return true
}

// GetOrCreateAccount идемпотентно возвращает счёт игрока,
// создавая его при первом обращении (баланс 0, пустой инвентарь,
// чекпоинт пассива = сейчас).
func (l *Ledger) GetOrCreateAccount(actorID int64) Account {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ensureAccount(actorID) {
		l.persist()
	}
	return l.accountCopy(actorID)
}

// accountCopy собирает копию счёта. Вызывается под l.mu.
func (l *Ledger) accountCopy(actorID int64) Account {
	acc := Account{
		Balance:           l.snap.Balances[actorID],
		Upgrades:          make(map[string]int, len(l.snap.Upgrades[actorID])),
		PassiveCheckpoint: l.snap.PassiveLast[actorID],
		LastDailyReward:   l.snap.DailyRewards[actorID],
	}
	for id, count := range l.snap.Upgrades[actorID] {
		acc.Upgrades[id] = count
	}
	for name := range l.snap.UsedPromocodes[actorID] {
		acc.RedeemedPromos = append(acc.RedeemedPromos, name)
	}
	sort.Strings(acc.RedeemedPromos)
	return acc
}

// ApplyClick начисляет игроку доход за один клик и возвращает начисление.
func (l *Ledger) ApplyClick(actorID int64) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensureAccount(actorID)
	delta := ClickMultiplier(l.snap.Upgrades[actorID])
	l.snap.Balances[actorID] = l.snap.Balances[actorID].Add(delta)
	l.persist()
	return delta
}

// SettlePassiveIncome начисляет пассивный доход за целые минуты,
// прошедшие с последнего расчёта, и сдвигает чекпоинт на «сейчас».
// Неполная минута отбрасывается. Если чекпоинта ещё не было,
// он инициализируется и возвращается 0.
func (l *Ledger) SettlePassiveIncome(actorID int64) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	last, ok := l.snap.PassiveLast[actorID]
	if !ok {
		l.snap.PassiveLast[actorID] = now
		l.persist()
		return decimal.Zero
	}

	minutes := WholeMinutes(last, now)
	income := PassiveRatePerMinute(l.snap.Upgrades[actorID]).
		Mul(decimal.NewFromInt(minutes))

	if income.IsPositive() {
		l.snap.Balances[actorID] = l.snap.Balances[actorID].Add(income)
	}
	l.snap.PassiveLast[actorID] = now
	l.persist()
	return income
}

// PurchaseUpgrade покупает улучшение: списывает цену и увеличивает
// счётчик владения — атомарно, либо целиком, либо никак.
func (l *Ledger) PurchaseUpgrade(actorID int64, upgradeID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	upgrade, ok := UpgradeByID(upgradeID)
	if !ok {
		return common.ErrUnknownUpgrade
	}

	l.ensureAccount(actorID)
	balance := l.snap.Balances[actorID]
	if balance.LessThan(upgrade.Price) {
		return common.ErrInsufficientFunds
	}

	l.snap.Balances[actorID] = balance.Sub(upgrade.Price)
	l.snap.Upgrades[actorID][upgradeID]++
	l.persist()
	return nil
}

// Grant начисляет игроку сумму от имени оператора.
// Отрицательные суммы запрещены. Счёт создаётся автоматически.
// Возвращает новый баланс.
func (l *Ledger) Grant(actorID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, common.ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensureAccount(actorID)
	l.snap.Balances[actorID] = l.snap.Balances[actorID].Add(amount)
	l.persist()
	return l.snap.Balances[actorID], nil
}

// RedeemPromo активирует промокод для игрока.
// Порядок проверок фиксирован: существование → общий лимит → повторная
// активация этим игроком. Три эффекта успешной активации (счётчик
// использований, отметка у игрока, начисление) применяются вместе.
// Возвращает сумму начисления.
func (l *Ledger) RedeemPromo(actorID int64, name string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	promo, ok := l.snap.ActivePromocodes[name]
	if !ok {
		return decimal.Zero, common.ErrPromoNotFound
	}
	if promo.Used >= promo.Limit {
		return decimal.Zero, common.ErrPromoLimitReached
	}

	l.ensureAccount(actorID)
	if l.snap.UsedPromocodes[actorID][name] {
		return decimal.Zero, common.ErrPromoAlreadyRedeemed
	}

	promo.Used++
	l.snap.UsedPromocodes[actorID][name] = true
	l.snap.Balances[actorID] = l.snap.Balances[actorID].Add(promo.Reward)
	l.persist()
	return promo.Reward, nil
}

// ClaimDailyReward выдаёт фиксированную ежедневную награду —
// не чаще одного раза за календарные сутки (в часовом поясе приложения).
func (l *Ledger) ClaimDailyReward(actorID int64) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := l.now().In(l.loc).Format(dateLayout)
	if l.snap.DailyRewards[actorID] == today {
		return decimal.Zero, common.ErrDailyAlreadyClaimed
	}

	l.ensureAccount(actorID)
	l.snap.Balances[actorID] = l.snap.Balances[actorID].Add(DailyReward)
	l.snap.DailyRewards[actorID] = today
	l.persist()
	return DailyReward, nil
}

// CreatePromo добавляет промокод в каталог.
func (l *Ledger) CreatePromo(name string, reward decimal.Decimal, limit int) error {
	if reward.IsNegative() || limit <= 0 {
		return common.ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.snap.ActivePromocodes[name]; ok {
		return common.ErrDuplicatePromoName
	}

	l.snap.ActivePromocodes[name] = &storage.Promo{Reward: reward, Limit: limit}
	l.persist()
	return nil
}

// DeletePromo удаляет промокод из каталога.
// Отметки об уже состоявшихся активациях у игроков сохраняются.
func (l *Ledger) DeletePromo(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.snap.ActivePromocodes[name]; !ok {
		return common.ErrPromoNotFound
	}

	delete(l.snap.ActivePromocodes, name)
	l.persist()
	return nil
}

// Balance возвращает текущий баланс игрока (0 для незарегистрированных).
func (l *Ledger) Balance(actorID int64) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snap.Balances[actorID]
}

// ListPlayers возвращает всех игроков с балансами,
// отсортированных по ID для стабильного вывода.
func (l *Ledger) ListPlayers() []PlayerBalance {
	l.mu.Lock()
	defer l.mu.Unlock()

	players := make([]PlayerBalance, 0, len(l.snap.Balances))
	for id, balance := range l.snap.Balances {
		players = append(players, PlayerBalance{ActorID: id, Balance: balance})
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ActorID < players[j].ActorID })
	return players
}

// Promos возвращает каталог промокодов, отсортированный по имени.
func (l *Ledger) Promos() []PromoInfo {
	l.mu.Lock()
	defer l.mu.Unlock()

	promos := make([]PromoInfo, 0, len(l.snap.ActivePromocodes))
	for name, p := range l.snap.ActivePromocodes {
		promos = append(promos, PromoInfo{
			Name:   name,
			Reward: p.Reward,
			Limit:  p.Limit,
			Used:   p.Used,
		})
	}
	sort.Slice(promos, func(i, j int) bool { return promos[i].Name < promos[j].Name })
	return promos
}

// Flush принудительно записывает снимок на диск.
// Вызывается при остановке процесса, чтобы последняя завершённая
// мутация гарантированно оказалась на диске.
func (l *Ledger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Save(l.snap); err != nil {
		return fmt.Errorf("финальная запись снимка: %w", err)
	}
	return nil
}
