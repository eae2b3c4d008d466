package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrice(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"peso sign", "₱500 at the door", "500", true},
		{"php prefix", "PHP 1,500 w/ 2 drinks", "1500", true},
		{"p prefix", "P300 presale", "300", true},
		{"labeled presale", "500 presale / 800 door", "500", true},
		{"reversed label", "Damage: 300", "300", true},
		{"free entry", "FREE ENTRY before 11PM", "0", true},
		{"libre", "libre! basta sumayaw", "0", true},
		{"decimal", "₱499.50 early bird", "499.50", true},
		{"no price", "lineup drop tomorrow", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Price(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
