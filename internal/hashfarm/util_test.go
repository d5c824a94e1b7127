package hashfarm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, 0.00, RoundFloat(0.0027, 2))
	assert.Equal(t, 0.01, RoundFloat(0.005, 2))
	assert.Equal(t, 0.14, RoundFloat(4000.0/28800.0, 2))
	assert.Equal(t, 5.00, RoundFloat(100*0.05, 2))
	assert.Equal(t, 2.50, RoundFloat(100*0.025, 2))
	assert.Equal(t, -1.23, RoundFloat(-1.234, 2))
	assert.Equal(t, 123.0, RoundFloat(123.4, 0))
}

func TestEscapeMarkdownV2(t *testing.T) {
	assert.Equal(t, `1000\.50`, EscapeMarkdownV2("1000.50"))
	assert.Equal(t, `rig\_1000`, EscapeMarkdownV2("rig_1000"))
	assert.Equal(t, "plain text", EscapeMarkdownV2("plain text"))
}
