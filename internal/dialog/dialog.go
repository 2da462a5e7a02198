// Package dialog хранит эфемерное состояние диалога для каждого актора:
// какая команда ожидает следующего текстового сообщения именно от него.
// Telegram доставляет свободный текст и нажатия кнопок одним потоком без
// привязки к предыдущему запросу, поэтому привязку держим здесь.
//
// Состояния живут только в памяти: рестарт процесса молча сбрасывает
// незавершённые диалоги, это известное ограничение.
package dialog

import "sync"

// State — вариант ожидаемого ввода.
type State int

const (
	// StateNone — диалог не ожидается, свободный текст не распознаётся
	StateNone State = iota
	// StateAwaitingPromo — игрок вводит промокод
	StateAwaitingPromo
	// StateAwaitingGive — оператор вводит "ID сумма"
	StateAwaitingGive
	// StateAwaitingBroadcast — оператор вводит текст рассылки
	StateAwaitingBroadcast
	// StateAwaitingPromoCreate — оператор вводит "ИМЯ СУММА ЛИМИТ"
	StateAwaitingPromoCreate
	// StateAwaitingPromoDelete — оператор вводит имя промокода
	StateAwaitingPromoDelete
)

// IsOperator сообщает, относится ли состояние к операторскому диалогу.
// Операторские состояния разбираются раньше игровых: оператор — тоже
// игрок с тем же ID.
func (s State) IsOperator() bool {
	switch s {
	case StateAwaitingGive, StateAwaitingBroadcast,
		StateAwaitingPromoCreate, StateAwaitingPromoDelete:
		return true
	}
	return false
}

// Machine — потокобезопасная карта состояний по ID актора.
type Machine struct {
	mu     sync.Mutex
	states map[int64]State
}

// NewMachine создаёт пустую машину состояний.
func NewMachine() *Machine {
	return &Machine{states: make(map[int64]State)}
}

// Begin устанавливает ожидаемое состояние для актора.
// Предыдущее незавершённое состояние перезаписывается: у актора не может
// быть двух диалогов одновременно, побеждает последний.
func (m *Machine) Begin(actorID int64, state State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if state == StateNone {
		delete(m.states, actorID)
		return
	}
	m.states[actorID] = state
}

// Consume атомарно читает и сбрасывает состояние актора.
// Повторный вызов без промежуточного Begin возвращает StateNone:
// каждое состояние потребляется ровно один раз.
func (m *Machine) Consume(actorID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.states[actorID]
	if !ok {
		return StateNone
	}
	delete(m.states, actorID)
	return state
}
