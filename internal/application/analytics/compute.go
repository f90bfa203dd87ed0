// Package analytics calcula los KPIs del equipo sobre leads y ventas ya filtrados por alcance.
package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/crm-api/internal/application/dto"
	"github.com/jhoicas/crm-api/internal/application/sales"
	"github.com/jhoicas/crm-api/internal/domain/entity"
)

const (
	monthsInSeries = 6
	topProducts    = 5
)

// Compute es una función pura: no consulta nada, solo pliega las dos listas.
func Compute(leads []*entity.Lead, saleList []*entity.Sale, now time.Time) dto.AnalyticsReport {
	totals := sales.ComputeTotals(saleList)
	return dto.AnalyticsReport{
		TotalLeads:     len(leads),
		TotalSales:     len(saleList),
		LeadsByStatus:  byStatus(leads),
		ConversionRate: conversionRate(leads),
		TotalRevenue:   totals.RealizedRevenue,
		TotalEntries:   totals.PendingEntries,
		AverageTicket:  totals.AverageTicket,
		Monthly:        monthlySeries(saleList, now),
		TopProducts:    rankProducts(saleList),
	}
}

// byStatus cantidades por estado en orden canónico; los estados sin leads no aparecen.
func byStatus(leads []*entity.Lead) []dto.StatusCount {
	counts := make(map[string]int, len(entity.LeadStatuses))
	for _, l := range leads {
		counts[l.Status]++
	}
	out := make([]dto.StatusCount, 0, len(entity.LeadStatuses))
	for _, s := range entity.LeadStatuses {
		if n := counts[s]; n > 0 {
			out = append(out, dto.StatusCount{Status: s, Count: n})
		}
	}
	return out
}

// conversionRate porcentaje de leads ganados. 0 sin leads.
func conversionRate(leads []*entity.Lead) float64 {
	if len(leads) == 0 {
		return 0
	}
	won := 0
	for _, l := range leads {
		if l.Status == entity.LeadStatusWon {
			won++
		}
	}
	return float64(won) / float64(len(leads)) * 100
}

// monthlySeries últimos seis meses calendario (el actual incluido), del más viejo al más nuevo.
// Una venta cae en el mes cuyo mes y año locales coinciden con su fecha de cierre.
func monthlySeries(list []*entity.Sale, now time.Time) []dto.MonthlyPoint {
	loc := now.Location()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -(monthsInSeries - 1), 0)

	points := make([]dto.MonthlyPoint, monthsInSeries)
	for i := range points {
		m := first.AddDate(0, i, 0)
		points[i] = dto.MonthlyPoint{Month: monthNames[m.Month()-1], Year: m.Year(), Revenue: decimal.Zero, Entries: decimal.Zero}
	}
	for _, s := range list {
		at := s.CompletedAt.In(loc)
		for i := range points {
			if monthNames[at.Month()-1] != points[i].Month || at.Year() != points[i].Year {
				continue
			}
			points[i].Sales++
			switch s.Status {
			case entity.SaleStatusCompleted:
				points[i].Revenue = points[i].Revenue.Add(s.Value)
			case entity.SaleStatusEntry:
				points[i].Entries = points[i].Entries.Add(s.Value)
			}
			break
		}
	}
	return points
}

// rankProducts top 5 por cantidad de ventas; los empates conservan el orden de aparición.
func rankProducts(list []*entity.Sale) []dto.ProductCount {
	idx := map[string]int{}
	var out []dto.ProductCount
	for _, s := range list {
		if i, ok := idx[s.Product]; ok {
			out[i].Count++
			continue
		}
		idx[s.Product] = len(out)
		out = append(out, dto.ProductCount{Product: s.Product, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > topProducts {
		out = out[:topProducts]
	}
	if out == nil {
		out = []dto.ProductCount{}
	}
	return out
}

var monthNames = [...]string{
	"Ene", "Feb", "Mar", "Abr", "May", "Jun",
	"Jul", "Ago", "Sep", "Oct", "Nov", "Dic",
}
