package format

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrency(t *testing.T) {
	assert.Equal(t, "380 000 Ar", Currency(380000, "Ar"))
	assert.Equal(t, "1 234 568 Ar", Currency(1234567.6, ""))
	assert.Equal(t, "0 Ar", Currency(0, "Ar"))
	assert.Equal(t, "-2 500 €", Currency(-2500, "€"))
}

func TestRatio(t *testing.T) {
	assert.Equal(t, "37,5", Ratio(37.5))
	assert.Equal(t, "4,3", Ratio(4.26))
	assert.Equal(t, "0,0", Ratio(0))
	assert.Equal(t, "1 200,0", Ratio(1200))
}

func TestNonFiniteValuesRenderAsZero(t *testing.T) {
	assert.Equal(t, "0", Integer(math.NaN()))
	assert.Equal(t, "0,0", Ratio(math.Inf(1)))
	assert.Equal(t, "0 %", Percent(math.Inf(-1)))
}

func TestValue(t *testing.T) {
	tests := []struct {
		kind Kind
		v    float64
		want string
	}{
		{KindCurrency, 15000, "15 000 Ar"},
		{KindRatio, 2.26, "2,3"},
		{KindInteger, 1999.6, "2 000"},
		{KindPercent, 33.4, "33 %"},
		{KindDistance, 12500, "12 500 km"},
		{KindVolume, 42.26, "42,3 L"},
		{"unknown", 3, "3"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, Value(tt.kind, tt.v, "Ar"))
		})
	}
}

func TestSignedPercent(t *testing.T) {
	assert.Equal(t, "+100,0 %", SignedPercent(100))
	assert.Equal(t, "-50,0 %", SignedPercent(-50))
	assert.Equal(t, "0,0 %", SignedPercent(0))
}
