package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ofisentinel/sentinel/internal/model"
)

// S5. Dedup: same (symbol, type) admitted at t=0; a second candidate at
// t=1s is dropped; one at t=6s is admitted.
func TestDedupGate_S5(t *testing.T) {
	g := NewDedupGate()
	base := time.Unix(0, 0)

	assert.True(t, g.Admit("BTCUSDT", model.SignalStrongBuy, base))
	assert.False(t, g.Admit("BTCUSDT", model.SignalStrongBuy, base.Add(1*time.Second)))
	assert.True(t, g.Admit("BTCUSDT", model.SignalStrongBuy, base.Add(6*time.Second)))
}

func TestDedupGate_DifferentTypesIndependent(t *testing.T) {
	g := NewDedupGate()
	now := time.Now()

	assert.True(t, g.Admit("BTCUSDT", model.SignalStrongBuy, now))
	assert.True(t, g.Admit("BTCUSDT", model.SignalStrongSell, now))
}

func TestDedupGate_DifferentSymbolsIndependent(t *testing.T) {
	g := NewDedupGate()
	now := time.Now()

	assert.True(t, g.Admit("BTCUSDT", model.SignalBuy, now))
	assert.True(t, g.Admit("ETHUSDT", model.SignalBuy, now))
}
