// Package sales implementa el libro de ventas del equipo. Cada autor es una partición y la
// vista del master es la unión de las particiones de su equipo, calculada al leer.
package sales

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/ports"
	"github.com/jhoicas/crm-api/internal/application/team"
	"github.com/jhoicas/crm-api/internal/domain"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
	"github.com/jhoicas/crm-api/pkg/logger"
	"github.com/jhoicas/crm-api/pkg/phone"
	"github.com/jhoicas/crm-api/pkg/textnorm"
)

// EventSaleCompleted evento saliente de una venta realizada.
const EventSaleCompleted = "sale.completed"

// SaleUseCase casos de uso del libro de ventas.
type SaleUseCase struct {
	sales     repository.SaleRepository
	team      *team.TeamUseCase
	publisher ports.EventPublisher
	region    string
	log       *logger.Logger
	now       func() time.Time
}

// NewSaleUseCase construye el caso de uso. publisher puede ser nil.
func NewSaleUseCase(sales repository.SaleRepository, teamUC *team.TeamUseCase, publisher ports.EventPublisher, region string, log *logger.Logger) *SaleUseCase {
	return &SaleUseCase{
		sales:     sales,
		team:      teamUC,
		publisher: publisher,
		region:    region,
		log:       log.Component("sales"),
		now:       time.Now,
	}
}

// RecordSale registra una venta a nombre del principal.
func (uc *SaleUseCase) RecordSale(ctx context.Context, p *entity.Principal, in dto.SaleRequest) (*entity.Sale, error) {
	if !p.IsAuthenticated() {
		return nil, domain.ErrUnauthorized
	}
	if err := validate(in); err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	now := uc.now()
	s := &entity.Sale{
		ID:          id.String(),
		CompletedAt: now,
		UserID:      p.ProfileID,
		CreatedAt:   now,
	}
	uc.apply(s, in)
	s.UpdatedAt = now
	if err := uc.sales.Create(ctx, s); err != nil {
		return nil, &domain.PersistenceError{Op: "registrar venta", Err: err}
	}
	if s.Status == entity.SaleStatusCompleted {
		uc.publishCompleted(ctx, p, s)
	}
	return s, nil
}

// UpdateSale edita una venta. Conserva autor y fecha de cierre originales.
// Un user solo edita las suyas; el master, las de su equipo.
func (uc *SaleUseCase) UpdateSale(ctx context.Context, p *entity.Principal, id string, in dto.SaleRequest) (*entity.Sale, error) {
	s, err := uc.visible(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := validate(in); err != nil {
		return nil, err
	}
	wasCompleted := s.Status == entity.SaleStatusCompleted
	uc.apply(s, in)
	s.UpdatedAt = uc.now()
	if err := uc.sales.Update(ctx, s); err != nil {
		return nil, &domain.PersistenceError{Op: "actualizar venta", Err: err}
	}
	if !wasCompleted && s.Status == entity.SaleStatusCompleted {
		uc.publishCompleted(ctx, p, s)
	}
	return s, nil
}

// DeleteSale borra una venta del equipo. Solo master.
func (uc *SaleUseCase) DeleteSale(ctx context.Context, p *entity.Principal, id string) error {
	if !p.IsMaster() {
		return domain.ErrPermissionDenied
	}
	if _, err := uc.visible(ctx, p, id); err != nil {
		return err
	}
	if err := uc.sales.Delete(ctx, id); err != nil {
		return &domain.PersistenceError{Op: "eliminar venta", Err: err}
	}
	return nil
}

// ListSales ventas del alcance del principal, filtradas por autor y búsqueda.
func (uc *SaleUseCase) ListSales(ctx context.Context, p *entity.Principal, f dto.SaleFilter) ([]*entity.Sale, error) {
	authors, err := uc.team.ScopeIDs(ctx, p)
	if err != nil {
		return nil, err
	}
	if f.UserID != "" {
		if !containsID(authors, f.UserID) {
			return []*entity.Sale{}, nil
		}
		authors = []string{f.UserID}
	}
	if len(authors) == 0 {
		return []*entity.Sale{}, nil
	}
	list, err := uc.sales.ListByAuthors(ctx, authors)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "listar ventas", Err: err}
	}
	search := strings.TrimSpace(f.Search)
	out := make([]*entity.Sale, 0, len(list))
	for _, s := range list {
		if search != "" && !textnorm.Contains(search, s.CustomerName, s.CustomerEmail, s.Product) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// Totals agregados del listado filtrado.
func (uc *SaleUseCase) Totals(ctx context.Context, p *entity.Principal, f dto.SaleFilter) (dto.SaleTotals, error) {
	list, err := uc.ListSales(ctx, p, f)
	if err != nil {
		return dto.SaleTotals{}, err
	}
	return ComputeTotals(list), nil
}

// ComputeTotals realizado (completed) y abonos (entry) por separado; el ticket promedio usa
// explícitamente el total combinado sobre la cantidad de registros.
func ComputeTotals(list []*entity.Sale) dto.SaleTotals {
	t := dto.SaleTotals{RealizedRevenue: decimal.Zero, PendingEntries: decimal.Zero, AverageTicket: decimal.Zero}
	for _, s := range list {
		switch s.Status {
		case entity.SaleStatusCompleted:
			t.RealizedRevenue = t.RealizedRevenue.Add(s.Value)
		case entity.SaleStatusEntry:
			t.PendingEntries = t.PendingEntries.Add(s.Value)
		}
		t.Count++
	}
	t.CombinedTotal = t.RealizedRevenue.Add(t.PendingEntries)
	if t.Count > 0 {
		t.AverageTicket = t.CombinedTotal.Div(decimal.NewFromInt(int64(t.Count))).Round(2)
	}
	return t
}

func validate(in dto.SaleRequest) error {
	var missing []string
	if strings.TrimSpace(in.CustomerName) == "" {
		missing = append(missing, "customerName")
	}
	if strings.TrimSpace(in.CustomerEmail) == "" {
		missing = append(missing, "customerEmail")
	}
	if strings.TrimSpace(in.Product) == "" {
		missing = append(missing, "product")
	}
	if !in.Value.IsPositive() {
		missing = append(missing, "value")
	}
	if len(missing) > 0 {
		return domain.NewValidationError("campos requeridos", missing...)
	}
	switch in.Status {
	case "", entity.SaleStatusEntry, entity.SaleStatusCompleted:
		return nil
	default:
		return domain.NewValidationError("status inválido", "status")
	}
}

func (uc *SaleUseCase) apply(s *entity.Sale, in dto.SaleRequest) {
	s.CustomerName = strings.TrimSpace(in.CustomerName)
	s.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	s.CustomerPhone = phone.Normalize(in.CustomerPhone, uc.region)
	s.Product = strings.TrimSpace(in.Product)
	s.Value = in.Value
	s.Status = in.Status
	if s.Status == "" {
		s.Status = entity.SaleStatusCompleted
	}
	s.Tags = entity.UniqueTags(in.Tags)
	s.AppointmentDate = in.AppointmentDate
	s.Notes = in.Notes
}

func (uc *SaleUseCase) visible(ctx context.Context, p *entity.Principal, id string) (*entity.Sale, error) {
	authors, err := uc.team.ScopeIDs(ctx, p)
	if err != nil {
		return nil, err
	}
	s, err := uc.sales.GetByID(ctx, id)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "obtener venta", Err: err}
	}
	if s == nil || !containsID(authors, s.UserID) || !s.VisibleTo(p) {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (uc *SaleUseCase) publishCompleted(ctx context.Context, p *entity.Principal, s *entity.Sale) {
	if uc.publisher == nil {
		return
	}
	env := ports.NewInternalEnvelope(EventSaleCompleted, uc.now(), map[string]any{
		"userId":   p.TenantID(),
		"saleId":   s.ID,
		"saleData": dto.FromSale(s),
	})
	if err := uc.publisher.Publish(ctx, env); err != nil {
		uc.log.Warn().Err(err).Str("sale_id", s.ID).Msg("no se pudo publicar la venta")
	}
}

func containsID(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
