package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	cases := map[string]string{
		"José PÉREZ":  "jose perez",
		"  Ação  ":    "acao",
		"MÜLLER GmbH": "muller gmbh",
		"":            "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Fold(in), in)
	}
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("perez", "Ana", "José Pérez"))
	assert.True(t, Contains("", "cualquier"))
	assert.False(t, Contains("gomez", "Ana", "José Pérez"))
	assert.True(t, Contains("ANA@", "ana@x.com"))
}
