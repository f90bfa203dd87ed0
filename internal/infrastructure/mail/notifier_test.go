package mail

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/pkg/config"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func newTestNotifier(d *fakeDialer) *LeadNotifier {
	n := NewLeadNotifier(config.SMTPConfig{Host: "smtp.local", Port: 25, From: "crm@local"})
	n.dialer = d
	return n
}

// ────────────────────────────────────────────────────────────────────────────
// LeadNotifier
// ────────────────────────────────────────────────────────────────────────────

func TestNotifyNewLead_ArmaCorreo(t *testing.T) {
	d := &fakeDialer{}
	lead := &entity.Lead{
		Name: "Ana <script>", Email: "ana@x.com", Phone: "+573001112233",
		Value: decimal.NewFromInt(1500), Source: "Webhook #w-1", Tags: []string{"vip", "web"},
	}

	err := newTestNotifier(d).NotifyNewLead(context.Background(), &entity.Profile{Name: "Marta", Email: "marta@x.com"}, lead)
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	m := d.sent[0]
	assert.Equal(t, []string{"marta@x.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Nuevo lead: Ana <script>"}, m.GetHeader("Subject"))

	body, err := newTestNotifier(&fakeDialer{}).render(&entity.Profile{Name: "Marta"}, lead)
	require.NoError(t, err)
	assert.Contains(t, body, "Hola Marta,")
	assert.Contains(t, body, "Webhook #w-1")
	assert.Contains(t, body, "vip, web")
	assert.NotContains(t, body, "<script>")
}

func TestNotifyNewLead_SinDestinatario(t *testing.T) {
	d := &fakeDialer{}
	err := newTestNotifier(d).NotifyNewLead(context.Background(), &entity.Profile{}, &entity.Lead{})
	assert.Error(t, err)
	assert.Empty(t, d.sent)
}

func TestNotifyNewLead_ErrorSMTP(t *testing.T) {
	d := &fakeDialer{err: errors.New("connection refused")}
	err := newTestNotifier(d).NotifyNewLead(context.Background(), &entity.Profile{Email: "m@x.com"}, &entity.Lead{Name: "Ana"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
