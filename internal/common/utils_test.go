package common

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToFloat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"float", 23.5, 23.5, true},
		{"zero", 0.0, 0, true},
		{"int", 7, 7, true},
		{"numeric string", " 41.2 ", 41.2, true},
		{"json number", json.Number("12.25"), 12.25, true},
		{"garbage string", "warm", 0, false},
		{"nan string", "NaN", 0, false},
		{"inf string", "+Inf", 0, false},
		{"bool", true, 0, false},
		{"nil", nil, 0, false},
		{"object", map[string]any{"v": 1}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFloat(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 28.4, Round1(28.43))
	assert.Equal(t, 28.5, Round1(28.46))
	assert.Equal(t, -3.1, Round1(-3.14))
}
