package dialog

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsumeWithoutBegin(t *testing.T) {
	m := NewMachine()
	assert.Equal(t, StateNone, m.Consume(1))
}

func TestBeginConsumeExactlyOnce(t *testing.T) {
	m := NewMachine()

	m.Begin(1, StateAwaitingPromo)
	assert.Equal(t, StateAwaitingPromo, m.Consume(1))
	// Повторное потребление без нового Begin — пусто
	assert.Equal(t, StateNone, m.Consume(1))
}

func TestBeginOverwritesPending(t *testing.T) {
	m := NewMachine()

	// У актора не может быть двух диалогов: побеждает последний
	m.Begin(1, StateAwaitingPromo)
	m.Begin(1, StateAwaitingGive)
	assert.Equal(t, StateAwaitingGive, m.Consume(1))
	assert.Equal(t, StateNone, m.Consume(1))
}

func TestBeginNoneClears(t *testing.T) {
	m := NewMachine()

	m.Begin(1, StateAwaitingBroadcast)
	m.Begin(1, StateNone)
	assert.Equal(t, StateNone, m.Consume(1))
}

func TestActorsIndependent(t *testing.T) {
	m := NewMachine()

	m.Begin(1, StateAwaitingPromo)
	m.Begin(2, StateAwaitingGive)

	assert.Equal(t, StateAwaitingGive, m.Consume(2))
	assert.Equal(t, StateAwaitingPromo, m.Consume(1))
}

func TestIsOperator(t *testing.T) {
	operator := []State{
		StateAwaitingGive, StateAwaitingBroadcast,
		StateAwaitingPromoCreate, StateAwaitingPromoDelete,
	}
	for _, s := range operator {
		assert.True(t, s.IsOperator())
	}
	assert.False(t, StateNone.IsOperator())
	assert.False(t, StateAwaitingPromo.IsOperator())
}

func TestConcurrentConsumeSingleWinner(t *testing.T) {
	m := NewMachine()
	m.Begin(1, StateAwaitingPromo)

	var wg sync.WaitGroup
	var mu sync.Mutex
	consumed := 0

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.Consume(1) != StateNone {
				mu.Lock()
				consumed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, consumed)
}
