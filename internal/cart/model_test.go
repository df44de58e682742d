package cart

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTime() time.Time {
	return time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)
}

func TestPriceUnmarshal(t *testing.T) {
	tests := map[string]struct {
		raw  string
		want float64
	}{
		"number":         {`12.5`, 12.5},
		"integer":        {`7`, 7},
		"numeric string": {`"9.99"`, 9.99},
		"junk string":    {`"bad"`, 0},
		"null":           {`null`, 0},
		"object":         {`{"amount":3}`, 0},
		"bool":           {`true`, 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var p Price
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &p))
			assert.InDelta(t, tt.want, p.Value(), 1e-9)
		})
	}
}

func TestCartIndexOf(t *testing.T) {
	c := Cart{{ProductID: "a"}, {ProductID: "b"}}
	assert.Equal(t, 0, c.IndexOf("a"))
	assert.Equal(t, 1, c.IndexOf("b"))
	assert.Equal(t, -1, c.IndexOf("z"))
}

func TestCloneIsIndependent(t *testing.T) {
	c := Cart{{ProductID: "a", Quantity: 1}}
	cp := c.Clone()
	cp[0].Quantity = 99
	assert.Equal(t, 1, c[0].Quantity)
}

func TestPlaceholderLine(t *testing.T) {
	l := PlaceholderLine("42", 3, testTime())
	assert.Equal(t, "42", l.ProductID)
	assert.Equal(t, PlaceholderTitle, l.Title)
	assert.Zero(t, l.Price.Value())
	assert.Equal(t, 3, l.Quantity)
	assert.Equal(t, OriginAPI, l.Origin)
}
