package analytics

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/team"
	"github.com/jhoicas/crm-api/internal/domain/entity"
	"github.com/jhoicas/crm-api/internal/domain/repository"
)

// ReportUseCase arma el reporte del principal.
//
// Fuente de datos: repositorios de leads y ventas (solo lectura), con el alcance del equipo.
type ReportUseCase struct {
	leads repository.LeadRepository
	sales repository.SaleRepository
	team  *team.TeamUseCase
	now   func() time.Time
}

// NewReportUseCase construye el caso de uso.
func NewReportUseCase(leads repository.LeadRepository, sales repository.SaleRepository, teamUC *team.TeamUseCase) *ReportUseCase {
	return &ReportUseCase{leads: leads, sales: sales, team: teamUC, now: time.Now}
}

// Report consulta leads y ventas en paralelo y los pliega con Compute.
func (uc *ReportUseCase) Report(ctx context.Context, p *entity.Principal) (*dto.AnalyticsReport, error) {
	scope, err := uc.team.ScopeIDs(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(scope) == 0 {
		r := Compute(nil, nil, uc.now())
		return &r, nil
	}

	var (
		leadList []*entity.Lead
		saleList []*entity.Sale
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := uc.leads.List(gctx, repository.LeadQuery{ScopeIDs: scope})
		if err != nil {
			return fmt.Errorf("analytics: leads: %w", err)
		}
		for _, l := range list {
			if l.VisibleTo(p) {
				leadList = append(leadList, l)
			}
		}
		return nil
	})
	g.Go(func() error {
		list, err := uc.sales.ListByAuthors(gctx, scope)
		if err != nil {
			return fmt.Errorf("analytics: ventas: %w", err)
		}
		saleList = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := Compute(leadList, saleList, uc.now())
	return &r, nil
}
