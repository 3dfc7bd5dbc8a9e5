package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	opts := Options{"similarity_threshold": 0.7, "preserve_rhyme": true}

	first := DeriveKey("Shake it off, shake it off", opts)
	second := DeriveKey("Shake it off, shake it off", opts)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64) // sha-256 hex
}

func TestDeriveKey_NormalizesCaseAndWhitespace(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
	}{
		{"case", "Shake It Off", "shake it off"},
		{"leading whitespace", "  shake it off", "shake it off"},
		{"trailing whitespace", "shake it off  \n", "shake it off"},
		{"both", "  SHAKE IT OFF  ", "shake it off"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, DeriveKey(tt.a, nil), DeriveKey(tt.b, nil))
		})
	}
}

func TestDeriveKey_OptionOrderIndependent(t *testing.T) {
	// Maps have no order, but the canonical serialization must not depend
	// on construction order either.
	a := Options{}
	a["risk"] = "HIGH"
	a["depth"] = "standard"

	b := Options{}
	b["depth"] = "standard"
	b["risk"] = "HIGH"

	assert.Equal(t, DeriveKey("lyrics", a), DeriveKey("lyrics", b))
}

func TestDeriveKey_NilOptionsEqualsEmpty(t *testing.T) {
	assert.Equal(t, DeriveKey("lyrics", nil), DeriveKey("lyrics", Options{}))
}

func TestDeriveKey_DistinguishesInputs(t *testing.T) {
	base := DeriveKey("shake it off", Options{"risk": "HIGH"})

	assert.NotEqual(t, base, DeriveKey("shake it up", Options{"risk": "HIGH"}))
	assert.NotEqual(t, base, DeriveKey("shake it off", Options{"risk": "LOW"}))
	assert.NotEqual(t, base, DeriveKey("shake it off", nil))
}
