package http

import (
	"encoding/json"
	"net/http"

	"github.com/myron98980/halloween-party-app/internal/app"
)

// SummaryProvider exposes the live dashboard counters.
type SummaryProvider interface {
	Summary() app.Summary
}

// HandleDashboard returns the handler for the aggregated sales view.
func HandleDashboard(provider SummaryProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary := provider.Summary()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(dashboardResponse{
			TicketsVIP:     summary.TicketsVIP,
			TicketsGeneral: summary.TicketsGeneral,
			TotalVendidos:  summary.TotalVendidos,
			Pagados:        summary.Pagados,
			PorPagar:       summary.PorPagar,
			Gratis:         summary.Gratis,
			TotalRecaudado: summary.TotalRecaudado,
		})
	}
}

type dashboardResponse struct {
	TicketsVIP     int `json:"ticketsVip"`
	TicketsGeneral int `json:"ticketsGeneral"`
	TotalVendidos  int `json:"totalVendidos"`
	Pagados        int `json:"pagados"`
	PorPagar       int `json:"porPagar"`
	Gratis         int `json:"gratis"`
	TotalRecaudado int `json:"totalRecaudado"`
}
