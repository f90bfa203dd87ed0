package webhook_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/crm-api/internal/application/apptest"
	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/ports"
	"github.com/jhoicas/crm-api/internal/application/team"
	"github.com/jhoicas/crm-api/internal/application/webhook"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Relay
// ──────────────────────────────────────────────────────────────────────────────

func TestRelay_ArmaSobre(t *testing.T) {
	pub := &apptest.Publisher{}
	uc := webhook.NewRelayUseCase(pub, logger.Nop())
	uc.SetNow(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	env, err := uc.Relay(context.Background(), webhook.Fields{"event": "sale.completed", "userId": "m-1", "leadId": "l-1", "extra": "x"})
	require.NoError(t, err)
	assert.Equal(t, "sale.completed", env.Event)
	assert.Equal(t, "2025-03-01T12:00:00.000Z", env.Timestamp)
	assert.Equal(t, "l-1", env.Data["leadId"])
	assert.Equal(t, "m-1", env.Data["userId"])
	assert.Equal(t, "x", env.Data["extra"])
	assert.Equal(t, []string{"sale.completed"}, pub.Events())
	assert.False(t, env.Internal())
}

func TestRelay_CamposRequeridos(t *testing.T) {
	pub := &apptest.Publisher{}
	uc := webhook.NewRelayUseCase(pub, logger.Nop())
	_, err := uc.Relay(context.Background(), webhook.Fields{"leadId": "l-1"})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"event", "userId"}, ve.Fields)
	assert.Empty(t, pub.Events())
}

func TestRelay_FalloDelPublicador(t *testing.T) {
	uc := webhook.NewRelayUseCase(&apptest.Publisher{Err: apptest.ErrStore}, logger.Nop())
	_, err := uc.Relay(context.Background(), webhook.Fields{"event": "user.action", "userId": "m-1"})
	assert.True(t, errors.Is(err, domain.ErrPersistence))
}

// ──────────────────────────────────────────────────────────────────────────────
// Configuración
// ──────────────────────────────────────────────────────────────────────────────

var (
	cfgMaster = &entity.Principal{ProfileID: "m-1", Role: entity.RoleMaster}
	cfgUser   = &entity.Principal{ProfileID: "u-1", Role: entity.RoleUser, MasterAccountID: "m-1"}
)

func newConfig(seed ...*entity.Lead) (*webhook.ConfigUseCase, *apptest.Webhooks) {
	profiles := apptest.NewProfiles(
		&entity.Profile{ID: "m-1", Role: entity.RoleMaster, IsActive: true},
		&entity.Profile{ID: "u-1", Role: entity.RoleUser, MasterAccountID: "m-1", IsActive: true},
	)
	ids := apptest.NewIdentities()
	teamUC := team.NewTeamUseCase(profiles, ids, &apptest.Tx{Identities: ids, Profiles: profiles}, logger.Nop(), 0)
	hooks := apptest.NewWebhooks()
	return webhook.NewConfigUseCase(hooks, apptest.NewLeads(seed...), teamUC, "https://crm.example.com/"), hooks
}

func TestConfig_IncomingGeneraURL(t *testing.T) {
	uc, _ := newConfig()
	w, err := uc.Create(context.Background(), cfgMaster, dto.CreateWebhookRequest{Name: "Formulario", Type: entity.WebhookIncoming})
	require.NoError(t, err)
	assert.Equal(t, "https://crm.example.com/webhook-lead?webhook_id="+w.ID+"&user_id=m-1", w.URL)
	assert.True(t, w.IsActive)
	assert.Equal(t, "POST", w.Method)

	id, err := uuid.Parse(w.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version(), "ids ordenados por tiempo")
}

func TestConfig_Validaciones(t *testing.T) {
	uc, _ := newConfig()
	ctx := context.Background()

	_, err := uc.Create(ctx, cfgUser, dto.CreateWebhookRequest{Name: "X", Type: entity.WebhookIncoming})
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))

	_, err = uc.Create(ctx, cfgMaster, dto.CreateWebhookRequest{Name: "X", Type: entity.WebhookOutgoing})
	assert.True(t, errors.Is(err, domain.ErrValidation), "outgoing sin destino")

	_, err = uc.Create(ctx, cfgMaster, dto.CreateWebhookRequest{Name: "X", Type: entity.WebhookOutgoing, DestinationURL: "ftp://x"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = uc.Create(ctx, cfgMaster, dto.CreateWebhookRequest{Name: "X", Type: entity.WebhookOutgoing, DestinationURL: "https://hooks.example.com/a", Events: []string{"lead.created"}})
	assert.True(t, errors.Is(err, domain.ErrValidation), "evento de otro tipo")
}

func TestConfig_ListConConteoYToggle(t *testing.T) {
	uc, _ := newConfig(
		&entity.Lead{ID: "l-1", OwnerUserID: "m-1", AssignedTo: "m-1", Source: "Webhook #wh-1"},
		&entity.Lead{ID: "l-2", OwnerUserID: "m-1", AssignedTo: "m-1", Source: "Webhook #wh-1"},
		&entity.Lead{ID: "l-3", OwnerUserID: "u-1", AssignedTo: "u-1", Source: "Manual"},
	)
	ctx := context.Background()

	counts, err := uc.ReceivedCounts(ctx, cfgMaster)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"wh-1": 2}, counts)

	w, err := uc.Create(ctx, cfgMaster, dto.CreateWebhookRequest{Name: "Zapier", Type: entity.WebhookOutgoing, DestinationURL: "https://hooks.example.com/a"})
	require.NoError(t, err)

	w, err = uc.SetActive(ctx, cfgMaster, w.ID, false)
	require.NoError(t, err)
	assert.False(t, w.IsActive)

	list, err := uc.List(ctx, cfgUser)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].IsActive)

	require.NoError(t, uc.Delete(ctx, cfgMaster, w.ID))
	_, err = uc.SetActive(ctx, cfgMaster, w.ID, true)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// ──────────────────────────────────────────────────────────────────────────────
// Entrega
// ──────────────────────────────────────────────────────────────────────────────

type fakeSender struct {
	urls []string
	fail map[string]bool
}

func (s *fakeSender) Send(_ context.Context, w *entity.Webhook, _ ports.Envelope) error {
	if s.fail[w.ID] {
		return errors.New("HTTP 500")
	}
	s.urls = append(s.urls, w.URL)
	return nil
}

func TestDeliver_SoloActivosSuscritos(t *testing.T) {
	profiles := apptest.NewProfiles(
		&entity.Profile{ID: "m-1", Role: entity.RoleMaster},
		&entity.Profile{ID: "u-1", Role: entity.RoleUser, MasterAccountID: "m-1"},
	)
	hooks := apptest.NewWebhooks(
		&entity.Webhook{ID: "a", OwnerID: "m-1", Type: entity.WebhookOutgoing, URL: "https://a", IsActive: true},
		&entity.Webhook{ID: "b", OwnerID: "m-1", Type: entity.WebhookOutgoing, URL: "https://b", IsActive: true, Events: []string{"sale.completed"}},
		&entity.Webhook{ID: "c", OwnerID: "m-1", Type: entity.WebhookOutgoing, URL: "https://c", IsActive: false},
		&entity.Webhook{ID: "d", OwnerID: "m-2", Type: entity.WebhookOutgoing, URL: "https://d", IsActive: true},
		&entity.Webhook{ID: "e", OwnerID: "m-1", Type: entity.WebhookIncoming, URL: "https://e", IsActive: true},
	)
	sender := &fakeSender{}
	uc := webhook.NewDeliveryUseCase(hooks, profiles, sender, logger.Nop())

	env := ports.NewInternalEnvelope("lead.status.changed", time.Now(), map[string]any{"userId": "u-1"})
	n, err := uc.Deliver(context.Background(), env)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"https://a"}, sender.urls)
}

func TestDeliver_ReuneErrores(t *testing.T) {
	profiles := apptest.NewProfiles(&entity.Profile{ID: "m-1", Role: entity.RoleMaster})
	hooks := apptest.NewWebhooks(
		&entity.Webhook{ID: "a", OwnerID: "m-1", Type: entity.WebhookOutgoing, URL: "https://a", IsActive: true},
		&entity.Webhook{ID: "b", OwnerID: "m-1", Type: entity.WebhookOutgoing, URL: "https://b", IsActive: true},
	)
	sender := &fakeSender{fail: map[string]bool{"a": true}}
	uc := webhook.NewDeliveryUseCase(hooks, profiles, sender, logger.Nop())

	n, err := uc.Deliver(context.Background(), ports.NewInternalEnvelope("user.action", time.Now(), map[string]any{"userId": "m-1"}))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "webhook a")
	assert.Equal(t, 1, n)
}

func TestDeliver_DescartaSobresDelRelayPublico(t *testing.T) {
	profiles := apptest.NewProfiles(&entity.Profile{ID: "m-1", Role: entity.RoleMaster})
	hooks := apptest.NewWebhooks(
		&entity.Webhook{ID: "a", OwnerID: "m-1", Type: entity.WebhookOutgoing, URL: "https://a", IsActive: true},
	)
	sender := &fakeSender{}
	uc := webhook.NewDeliveryUseCase(hooks, profiles, sender, logger.Nop())

	pub := &apptest.Publisher{}
	relay := webhook.NewRelayUseCase(pub, logger.Nop())
	env, err := relay.Relay(context.Background(), webhook.Fields{
		"event":  "sale.completed",
		"userId": "m-1",
		"origin": ports.OriginInternal,
	})
	require.NoError(t, err)

	n, err := uc.Deliver(context.Background(), env)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, sender.urls)
}
