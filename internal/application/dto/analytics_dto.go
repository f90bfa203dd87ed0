package dto

import "github.com/shopspring/decimal"

// StatusCount cantidad de leads en un estado (solo se reportan los distintos de cero).
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// MonthlyPoint punto de la serie de los últimos 6 meses.
type MonthlyPoint struct {
	Month   string          `json:"month"`
	Year    int             `json:"year"`
	Sales   int             `json:"sales"`
	Revenue decimal.Decimal `json:"revenue"` // completed
	Entries decimal.Decimal `json:"entries"` // entry
}

// ProductCount producto y cantidad de ventas.
type ProductCount struct {
	Product string `json:"product"`
	Count   int    `json:"count"`
}

// AnalyticsReport KPIs del equipo.
type AnalyticsReport struct {
	TotalLeads     int             `json:"totalLeads"`
	TotalSales     int             `json:"totalSales"`
	LeadsByStatus  []StatusCount   `json:"leadsByStatus"`
	ConversionRate float64         `json:"conversionRate"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
	TotalEntries   decimal.Decimal `json:"totalEntries"`
	AverageTicket  decimal.Decimal `json:"averageTicket"`
	Monthly        []MonthlyPoint  `json:"monthly"`
	TopProducts    []ProductCount  `json:"topProducts"`
}
