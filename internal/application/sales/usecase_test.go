package sales_test

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
	"github.com/jhoicas/crm-api/internal/application/sales"
	"github.com/jhoicas/crm-api/internal/application/team"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var (
	master = &entity.Principal{ProfileID: "m-1", Role: entity.RoleMaster}
	ana    = &entity.Principal{ProfileID: "u-1", Role: entity.RoleUser, MasterAccountID: "m-1"}
)

func newUseCase(seed ...*entity.Sale) (*sales.SaleUseCase, *apptest.Sales, *apptest.Publisher) {
	profiles := apptest.NewProfiles(
		&entity.Profile{ID: "m-1", Role: entity.RoleMaster, IsActive: true},
		&entity.Profile{ID: "u-1", Role: entity.RoleUser, MasterAccountID: "m-1", IsActive: true},
		&entity.Profile{ID: "m-2", Role: entity.RoleMaster, IsActive: true},
	)
	ids := apptest.NewIdentities()
	teamUC := team.NewTeamUseCase(profiles, ids, &apptest.Tx{Identities: ids, Profiles: profiles}, logger.Nop(), 0)
	repo := apptest.NewSales(seed...)
	pub := &apptest.Publisher{}
	return sales.NewSaleUseCase(repo, teamUC, pub, "CO", logger.Nop()), repo, pub
}

func sale(id, user, status string, value int64) *entity.Sale {
	return &entity.Sale{ID: id, UserID: user, Status: status, Value: decimal.NewFromInt(value), CustomerName: "C " + id, Product: "Plan " + id}
}

func validRequest() dto.SaleRequest {
	return dto.SaleRequest{CustomerName: "Ana", CustomerEmail: "ana@x.com", Product: "Plan Pro", Value: decimal.NewFromInt(100)}
}

// ──────────────────────────────────────────────────────────────────────────────
// Registro y edición
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordSale_AsignaAutorYFecha(t *testing.T) {
	uc, _, pub := newUseCase()
	s, err := uc.RecordSale(context.Background(), ana, validRequest())
	require.NoError(t, err)
	assert.Equal(t, "u-1", s.UserID)
	assert.Equal(t, entity.SaleStatusCompleted, s.Status)
	assert.False(t, s.CompletedAt.IsZero())
	assert.Equal(t, []string{sales.EventSaleCompleted}, pub.Events())
	assert.True(t, pub.Envelopes[0].Internal())
	assert.Equal(t, "m-1", pub.Envelopes[0].UserID())
}

func TestRecordSale_Validacion(t *testing.T) {
	uc, _, _ := newUseCase()
	in := validRequest()
	in.Value = decimal.Zero
	in.Product = ""
	_, err := uc.RecordSale(context.Background(), ana, in)
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"product", "value"}, ve.Fields)
}

func TestUpdateSale_ConservaCompletedAtYAutor(t *testing.T) {
	original := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	s := sale("s-1", "u-1", entity.SaleStatusEntry, 50)
	s.CompletedAt = original
	uc, _, pub := newUseCase(s)

	in := validRequest()
	in.Status = entity.SaleStatusCompleted
	got, err := uc.UpdateSale(context.Background(), master, "s-1", in)
	require.NoError(t, err)
	assert.Equal(t, original, got.CompletedAt)
	assert.Equal(t, "u-1", got.UserID)
	assert.Equal(t, []string{sales.EventSaleCompleted}, pub.Events())
}

func TestUpdateSale_UserNoEditaAjenas(t *testing.T) {
	uc, _, _ := newUseCase(sale("s-1", "m-1", entity.SaleStatusCompleted, 10))
	_, err := uc.UpdateSale(context.Background(), ana, "s-1", validRequest())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// ──────────────────────────────────────────────────────────────────────────────
// Borrado y agregación
// ──────────────────────────────────────────────────────────────────────────────

func TestDeleteSale_SoloMaster(t *testing.T) {
	uc, repo, _ := newUseCase(sale("s-1", "u-1", entity.SaleStatusCompleted, 10))
	ctx := context.Background()

	err := uc.DeleteSale(ctx, ana, "s-1")
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))

	require.NoError(t, uc.DeleteSale(ctx, master, "s-1"))

	gone, _ := repo.GetByID(ctx, "s-1")
	assert.Nil(t, gone)
	teamView, err := uc.ListSales(ctx, master, dto.SaleFilter{})
	require.NoError(t, err)
	assert.Empty(t, teamView)
	own, err := uc.ListSales(ctx, ana, dto.SaleFilter{})
	require.NoError(t, err)
	assert.Empty(t, own)
}

func TestListSales_UnionDeParticiones(t *testing.T) {
	uc, _, _ := newUseCase(
		sale("s-1", "m-1", entity.SaleStatusCompleted, 10),
		sale("s-2", "u-1", entity.SaleStatusEntry, 20),
		sale("s-3", "m-2", entity.SaleStatusCompleted, 30),
	)
	ctx := context.Background()

	all, err := uc.ListSales(ctx, master, dto.SaleFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := uc.ListSales(ctx, ana, dto.SaleFilter{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "s-2", own[0].ID)

	filtered, err := uc.ListSales(ctx, master, dto.SaleFilter{UserID: "m-2"})
	require.NoError(t, err)
	assert.Empty(t, filtered, "no se filtra por autores de otro equipo")
}

func TestComputeTotals_NoMezclaRealizadoYAbonos(t *testing.T) {
	got := sales.ComputeTotals([]*entity.Sale{
		sale("a", "m-1", entity.SaleStatusCompleted, 100),
		sale("b", "m-1", entity.SaleStatusCompleted, 100),
		sale("c", "m-1", entity.SaleStatusEntry, 50),
	})
	assert.True(t, decimal.NewFromInt(200).Equal(got.RealizedRevenue))
	assert.True(t, decimal.NewFromInt(50).Equal(got.PendingEntries))
	assert.True(t, decimal.NewFromInt(250).Equal(got.CombinedTotal))
	assert.Equal(t, 3, got.Count)
	assert.Equal(t, "83.33", got.AverageTicket.StringFixed(2))
}

func TestComputeTotals_SinVentas(t *testing.T) {
	got := sales.ComputeTotals(nil)
	assert.True(t, got.AverageTicket.IsZero())
	assert.Zero(t, got.Count)
}
