package journal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	rec := sampleRecord("01HQXKZ3V8M5N2ABCDEF", "WIN", 0.85)
	result := FormatTradeOrg(rec)

	assert.True(t, strings.HasPrefix(result, "** WIN CALL EURUSD (01HQXKZ3)\n"))

	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":TRADE_ID: 01HQXKZ3V8M5N2ABCDEF")
	assert.Contains(t, result, ":ASSET: EURUSD")
	assert.Contains(t, result, ":DIRECTION: CALL")
	assert.Contains(t, result, ":INSTRUMENT: binary")
	assert.Contains(t, result, ":STAKE: 1.00")
	assert.Contains(t, result, ":ENTRY_PRICE: 1.09500")
	assert.Contains(t, result, ":OPEN_TIME: 2024-01-02T03:04:05Z")
	assert.Contains(t, result, ":SETTLE_TIME: 2024-01-02T03:05:07Z")
	assert.Contains(t, result, ":OUTCOME: WIN")
	assert.Contains(t, result, ":PROFIT: 0.85")
	assert.Contains(t, result, ":END:")

	assert.Contains(t, result, "*** Setup\n- RSI 20.1, ADX 22.5, Stoch %K 15.0, ATR 0.00042, trend UP")
	assert.Contains(t, result, "*** Review")
}

func TestFormatTradeOrgShortID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   string
		want string
	}{
		{"short", "T1", "(T1)"},
		{"exact", "12345678", "(12345678)"},
		{"long", "123456789", "(12345678)"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := FormatTradeOrg(sampleRecord(tt.id, "LOSS", -1))
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", FormatTradesOrg(nil))

	out := FormatTradesOrg([]TradeRecord{
		sampleRecord("A", "WIN", 0.85),
		sampleRecord("B", "LOSS", -1),
	})
	assert.Equal(t, 2, strings.Count(out, ":PROPERTIES:"))
	assert.Contains(t, out, "* Summary: 2 trades, 1 wins, 1 losses, win rate 50.0%, pnl -0.15")
}
