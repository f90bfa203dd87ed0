package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/crm-api/internal/application/apptest"
	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/leads"
	"github.com/jhoicas/crm-api/internal/application/pipeline"
	"github.com/jhoicas/crm-api/internal/application/settings"
	"github.com/jhoicas/crm-api/internal/application/team"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/infrastructure/memory"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var (
	master = &entity.Principal{ProfileID: "m-1", Role: entity.RoleMaster}
	ana    = &entity.Principal{ProfileID: "u-1", Role: entity.RoleUser, MasterAccountID: "m-1"}
	otro   = &entity.Principal{ProfileID: "m-2", Role: entity.RoleMaster}
)

type fixture struct {
	uc        *pipeline.MoveUseCase
	view      *leads.LeadUseCase
	leads     *apptest.Leads
	board     *memory.BoardCache
	publisher *apptest.Publisher
	settings  *settings.SettingsUseCase
}

func newFixture() fixture {
	profiles := apptest.NewProfiles(
		&entity.Profile{ID: "m-1", Role: entity.RoleMaster, IsActive: true},
		&entity.Profile{ID: "u-1", Role: entity.RoleUser, MasterAccountID: "m-1", IsActive: true},
		&entity.Profile{ID: "m-2", Role: entity.RoleMaster, IsActive: true},
	)
	identities := apptest.NewIdentities()
	teamUC := team.NewTeamUseCase(profiles, identities, &apptest.Tx{Identities: identities, Profiles: profiles}, logger.Nop(), 0)
	repo := apptest.NewLeads(
		&entity.Lead{ID: "l-1", Name: "Ana", Status: entity.LeadStatusNew, AssignedTo: "u-1", OwnerUserID: "m-1"},
		&entity.Lead{ID: "l-2", Name: "Beto", Status: entity.LeadStatusContacted, AssignedTo: "m-1", OwnerUserID: "m-1"},
	)
	board := memory.NewBoardCache(time.Minute)
	settingsUC := settings.NewSettingsUseCase(apptest.NewSettings())
	view := leads.NewLeadUseCase(repo, &apptest.Feedback{}, teamUC, settingsUC, board, "CO", logger.Nop())
	pub := &apptest.Publisher{}
	return fixture{
		uc:        pipeline.NewMoveUseCase(repo, board, view, settingsUC, pub, logger.Nop()),
		view:      view,
		leads:     repo,
		board:     board,
		publisher: pub,
		settings:  settingsUC,
	}
}

func statusOf(t *testing.T, f fixture, id string) string {
	t.Helper()
	l, err := f.leads.GetByID(context.Background(), id)
	require.NoError(t, err)
	return l.Status
}

func boardStatus(t *testing.T, f fixture, id string) string {
	t.Helper()
	list, ok, err := f.board.Load(context.Background(), "m-1")
	require.NoError(t, err)
	require.True(t, ok)
	for _, l := range list {
		if l.ID == id {
			return l.Status
		}
	}
	return ""
}

// ──────────────────────────────────────────────────────────────────────────────
// Casos
// ──────────────────────────────────────────────────────────────────────────────

func TestMoveLead_NoMasterNoCambiaNada(t *testing.T) {
	f := newFixture()
	_, err := f.uc.MoveLead(context.Background(), ana, dto.MoveLeadRequest{LeadID: "l-1", FromStatus: "new", ToStatus: "won"})
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
	assert.Equal(t, entity.LeadStatusNew, statusOf(t, f, "l-1"))
	assert.Empty(t, f.publisher.Events())
}

func TestMoveLead_NoOp(t *testing.T) {
	f := newFixture()
	res, err := f.uc.MoveLead(context.Background(), master, dto.MoveLeadRequest{LeadID: "l-1", FromStatus: "new", ToStatus: "new", FromIndex: 2, ToIndex: 2})
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Zero(t, f.leads.ListCalls)
}

func TestMoveLead_DestinoPersonalizadoRechazado(t *testing.T) {
	f := newFixture()
	_, err := f.uc.MoveLead(context.Background(), master, dto.MoveLeadRequest{LeadID: "l-1", FromStatus: "new", ToStatus: "custom-1"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestMoveLead_LeadDeOtroEquipo(t *testing.T) {
	f := newFixture()
	_, err := f.uc.MoveLead(context.Background(), otro, dto.MoveLeadRequest{LeadID: "l-1", FromStatus: "new", ToStatus: "won"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestMoveLead_OKConMensajeYEvento(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.view.Board(ctx, master, dto.LeadFilter{})
	require.NoError(t, err)

	res, err := f.uc.MoveLead(ctx, master, dto.MoveLeadRequest{LeadID: "l-1", FromStatus: "new", ToStatus: "won"})
	require.NoError(t, err)
	assert.Equal(t, "Lead movido a Ganado", res.Message)
	assert.Equal(t, entity.LeadStatusWon, statusOf(t, f, "l-1"))
	assert.Equal(t, entity.LeadStatusWon, boardStatus(t, f, "l-1"))
	assert.Equal(t, []string{pipeline.EventLeadStatusChanged}, f.publisher.Events())
	assert.True(t, f.publisher.Envelopes[0].Internal())
	assert.Equal(t, "m-1", f.publisher.Envelopes[0].UserID())
}

func TestMoveLead_UsaNombreConfigurado(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	name := "Clientes"
	_, err := f.settings.UpdateStage(ctx, master, "won", &name, nil)
	require.NoError(t, err)

	res, err := f.uc.MoveLead(ctx, master, dto.MoveLeadRequest{LeadID: "l-2", FromStatus: "contacted", ToStatus: "won"})
	require.NoError(t, err)
	assert.Equal(t, "Lead movido a Clientes", res.Message)
}

func TestMoveLead_FalloDePersistenciaRecargaLaVista(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.view.Board(ctx, master, dto.LeadFilter{})
	require.NoError(t, err)
	callsBefore := f.leads.ListCalls

	f.leads.UpdateStatusErr = apptest.ErrStore
	_, err = f.uc.MoveLead(ctx, master, dto.MoveLeadRequest{LeadID: "l-1", FromStatus: "new", ToStatus: "won"})

	var pe *domain.PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.True(t, pe.Recoverable)
	assert.ErrorIs(t, err, apptest.ErrStore)

	// La vista vuelve al estado del servidor por recarga, no por deshacer el parche.
	assert.Equal(t, callsBefore+1, f.leads.ListCalls)
	assert.Equal(t, entity.LeadStatusNew, boardStatus(t, f, "l-1"))
	assert.Empty(t, f.publisher.Events())
}

func TestMoveLead_FalloDelPublicadorNoAfectaElMovimiento(t *testing.T) {
	f := newFixture()
	f.publisher.Err = errors.New("broker caído")
	res, err := f.uc.MoveLead(context.Background(), master, dto.MoveLeadRequest{LeadID: "l-1", FromStatus: "new", ToStatus: "lost"})
	require.NoError(t, err)
	assert.Equal(t, "Lead movido a Perdido", res.Message)
}
