package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, l := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if l == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(l), &m))
		out = append(out, m)
	}
	return out
}

func TestNew_CamposDeServicioComponenteYTenant(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "info", Service: "crm-api", Out: &buf})

	l.Component("pipeline").Tenant("m-1").Info().Msg("lead movido")

	got := lines(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "crm-api", got[0]["service"])
	assert.Equal(t, "pipeline", got[0]["component"])
	assert.Equal(t, "m-1", got[0]["tenant"])
	assert.Equal(t, "info", got[0]["level"])
}

func TestNew_NivelInvalidoUsaInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "ruidoso", Out: &buf})

	l.Debug().Msg("no sale")
	l.Info().Msg("sí sale")

	got := lines(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "sí sale", got[0]["message"])
	_, hasService := got[0]["service"]
	assert.False(t, hasService)
}

func TestNew_NivelSinDistinguirMayusculas(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: " DEBUG ", Out: &buf})
	l.Debug().Msg("visible")
	assert.Len(t, lines(t, &buf), 1)
}
