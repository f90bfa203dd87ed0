package leads_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/crm-api/internal/application/apptest"
	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/leads"
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
	beto   = &entity.Principal{ProfileID: "u-2", Role: entity.RoleUser, MasterAccountID: "m-1"}
	otro   = &entity.Principal{ProfileID: "m-2", Role: entity.RoleMaster}
)

type fixture struct {
	uc    *leads.LeadUseCase
	leads *apptest.Leads
	board *memory.BoardCache
}

func newFixture(seed ...*entity.Lead) fixture {
	profiles := apptest.NewProfiles(
		&entity.Profile{ID: "m-1", Name: "Master", Role: entity.RoleMaster, IsActive: true},
		&entity.Profile{ID: "u-1", Name: "Ana", Role: entity.RoleUser, MasterAccountID: "m-1", IsActive: true},
		&entity.Profile{ID: "u-2", Name: "Beto", Role: entity.RoleUser, MasterAccountID: "m-1", IsActive: true},
		&entity.Profile{ID: "m-2", Name: "Otro", Role: entity.RoleMaster, IsActive: true},
	)
	identities := apptest.NewIdentities()
	teamUC := team.NewTeamUseCase(profiles, identities, &apptest.Tx{Identities: identities, Profiles: profiles}, logger.Nop(), 5*time.Minute)
	repo := apptest.NewLeads(seed...)
	board := memory.NewBoardCache(time.Minute)
	uc := leads.NewLeadUseCase(repo, &apptest.Feedback{}, teamUC, settings.NewSettingsUseCase(apptest.NewSettings()), board, "CO", logger.Nop())
	return fixture{uc: uc, leads: repo, board: board}
}

func seedLeads() []*entity.Lead {
	return []*entity.Lead{
		{ID: "l-1", Name: "José Pérez", Email: "jose@x.com", Status: entity.LeadStatusNew, AssignedTo: "u-1", OwnerUserID: "m-1", Tags: []string{"vip"}},
		{ID: "l-2", Name: "María", Email: "maria@x.com", Status: entity.LeadStatusWon, AssignedTo: "u-2", OwnerUserID: "u-2"},
		{ID: "l-3", Name: "Carlos", Email: "carlos@x.com", Status: entity.LeadStatusContacted, AssignedTo: "m-1", OwnerUserID: "m-1"},
		{ID: "l-9", Name: "Ajeno", Email: "ajeno@x.com", Status: entity.LeadStatusNew, AssignedTo: "m-2", OwnerUserID: "m-2"},
	}
}

func ids(list []*entity.Lead) []string {
	out := make([]string, 0, len(list))
	for _, l := range list {
		out = append(out, l.ID)
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Visibilidad
// ──────────────────────────────────────────────────────────────────────────────

func TestList_MasterVeTodoSuEquipo(t *testing.T) {
	f := newFixture(seedLeads()...)
	list, err := f.uc.List(context.Background(), master, dto.LeadFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"l-1", "l-2", "l-3"}, ids(list))
}

func TestList_UserSoloAsignadosOPropios(t *testing.T) {
	f := newFixture(seedLeads()...)
	for _, p := range []*entity.Principal{ana, beto} {
		list, err := f.uc.List(context.Background(), p, dto.LeadFilter{})
		require.NoError(t, err)
		for _, l := range list {
			assert.True(t, l.AssignedTo == p.ProfileID || l.OwnerUserID == p.ProfileID, "lead %s visible para %s", l.ID, p.ProfileID)
		}
	}
}

func TestList_SinSesionVacio(t *testing.T) {
	f := newFixture(seedLeads()...)
	list, err := f.uc.List(context.Background(), nil, dto.LeadFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestList_BusquedaSinTildes(t *testing.T) {
	f := newFixture(seedLeads()...)
	list, err := f.uc.List(context.Background(), master, dto.LeadFilter{Search: "jose perez"})
	require.NoError(t, err)
	assert.Equal(t, []string{"l-1"}, ids(list))
}

func TestGet_OtroEquipoEsNotFound(t *testing.T) {
	f := newFixture(seedLeads()...)
	_, err := f.uc.Get(context.Background(), otro, "l-1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = f.uc.Get(context.Background(), ana, "l-2")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// ──────────────────────────────────────────────────────────────────────────────
// Alta y edición
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_ForzaNewYDuenio(t *testing.T) {
	f := newFixture()
	lead, err := f.uc.Create(context.Background(), ana, dto.CreateLeadRequest{
		Name: "Ana Cliente", Email: "c@x.com", Phone: "300 123 4567", Value: decimal.NewFromInt(100), Tags: []string{"a", "a", " b "},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatusNew, lead.Status)
	assert.Equal(t, "u-1", lead.OwnerUserID)
	assert.Equal(t, "u-1", lead.AssignedTo)
	assert.Equal(t, leads.SourceManual, lead.Source)
	assert.Equal(t, "+573001234567", lead.Phone)
	assert.Equal(t, []string{"a", "b"}, lead.Tags)
}

func TestCreate_Validaciones(t *testing.T) {
	f := newFixture()
	_, err := f.uc.Create(context.Background(), master, dto.CreateLeadRequest{Name: "", Email: ""})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"name", "email"}, ve.Fields)

	_, err = f.uc.Create(context.Background(), ana, dto.CreateLeadRequest{Name: "X", Email: "x@x.com", AssignedTo: "u-2"})
	assert.True(t, errors.Is(err, domain.ErrValidation), "un user solo puede asignarse a sí mismo")

	_, err = f.uc.Create(context.Background(), master, dto.CreateLeadRequest{Name: "X", Email: "x@x.com", Value: decimal.NewFromInt(-1)})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestCreate_ErrorDePersistencia(t *testing.T) {
	f := newFixture()
	f.leads.CreateErr = apptest.ErrStore
	_, err := f.uc.Create(context.Background(), master, dto.CreateLeadRequest{Name: "X", Email: "x@x.com"})
	var pe *domain.PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.ErrorIs(t, err, apptest.ErrStore)
}

func TestUpdate_StatusSoloMaster(t *testing.T) {
	f := newFixture(seedLeads()...)
	won := entity.LeadStatusWon
	_, err := f.uc.Update(context.Background(), ana, "l-1", dto.UpdateLeadRequest{Status: &won})
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))

	stored, _ := f.leads.GetByID(context.Background(), "l-1")
	assert.Equal(t, entity.LeadStatusNew, stored.Status)

	lead, err := f.uc.Update(context.Background(), master, "l-1", dto.UpdateLeadRequest{Status: &won})
	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatusWon, lead.Status)
}

func TestTags_AgregarYQuitarVuelveAlOriginal(t *testing.T) {
	f := newFixture(seedLeads()...)
	ctx := context.Background()

	lead, err := f.uc.AddTag(ctx, ana, "l-1", "caliente")
	require.NoError(t, err)
	assert.Equal(t, []string{"vip", "caliente"}, lead.Tags)

	lead, err = f.uc.AddTag(ctx, ana, "l-1", "caliente")
	require.NoError(t, err)
	assert.Equal(t, []string{"vip", "caliente"}, lead.Tags)

	lead, err = f.uc.RemoveTag(ctx, ana, "l-1", "caliente")
	require.NoError(t, err)
	assert.Equal(t, []string{"vip"}, lead.Tags)
}

// ──────────────────────────────────────────────────────────────────────────────
// Masivas
// ──────────────────────────────────────────────────────────────────────────────

func TestBulkAssign_IgnoraLeadsAjenos(t *testing.T) {
	f := newFixture(seedLeads()...)
	res, err := f.uc.BulkAssign(context.Background(), master, dto.BulkAssignRequest{LeadIDs: []string{"l-1", "l-3", "l-9"}, AssignedTo: "u-2"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Affected)

	ajeno, _ := f.leads.GetByID(context.Background(), "l-9")
	assert.Equal(t, "m-2", ajeno.AssignedTo)
}

func TestBulk_NoMasterRechazado(t *testing.T) {
	f := newFixture(seedLeads()...)
	_, err := f.uc.BulkDelete(context.Background(), ana, dto.BulkDeleteRequest{LeadIDs: []string{"l-1"}})
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
	err = f.uc.Delete(context.Background(), ana, "l-1")
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
}

func TestBulkDelete(t *testing.T) {
	f := newFixture(seedLeads()...)
	res, err := f.uc.BulkDelete(context.Background(), master, dto.BulkDeleteRequest{LeadIDs: []string{"l-2", "l-2", "l-9"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Affected)
}

// ──────────────────────────────────────────────────────────────────────────────
// Comentarios y tablero
// ──────────────────────────────────────────────────────────────────────────────

func TestFeedback(t *testing.T) {
	f := newFixture(seedLeads()...)
	ctx := context.Background()
	_, err := f.uc.AddFeedback(ctx, ana, "l-1", "Llamar el lunes")
	require.NoError(t, err)
	_, err = f.uc.AddFeedback(ctx, ana, "l-1", "  ")
	assert.True(t, errors.Is(err, domain.ErrValidation))

	list, err := f.uc.ListFeedback(ctx, master, "l-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "u-1", list[0].UserID)
}

func TestBoard_AgrupaPorStatusYUsaCache(t *testing.T) {
	f := newFixture(seedLeads()...)
	ctx := context.Background()

	cols, err := f.uc.Board(ctx, master, dto.LeadFilter{})
	require.NoError(t, err)
	require.Len(t, cols, 6)
	assert.Len(t, cols[0].Leads, 1) // new
	assert.Len(t, cols[1].Leads, 1) // contacted
	assert.Len(t, cols[4].Leads, 1) // won

	_, err = f.uc.Board(ctx, ana, dto.LeadFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.leads.ListCalls, "la segunda lectura sale de la vista del equipo")

	cols, err = f.uc.Board(ctx, ana, dto.LeadFilter{})
	require.NoError(t, err)
	total := 0
	for _, c := range cols {
		total += len(c.Leads)
	}
	assert.Equal(t, 1, total)
}
