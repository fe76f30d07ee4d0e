package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCents(t *testing.T) {
	cases := map[int64]string{
		149999: "$1499.99",
		0:      "$0.00",
		5:      "$0.05",
		50:     "$0.50",
		100:    "$1.00",
		130:    "$1.30",
		-250:   "-$2.50",
	}
	for cents, want := range cases {
		assert.Equal(t, want, FormatCents(cents), "cents=%d", cents)
	}
}
