package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "github.com/lucbra21/audaxIndex/internal/errors"
	"github.com/lucbra21/audaxIndex/internal/services"
)

// KPIHandler serves the KPI tables and the views derived from them
type KPIHandler struct {
	queries      KPIQueries
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewKPIHandler creates a new KPI handler
func NewKPIHandler(queries KPIQueries, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *KPIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &KPIHandler{
		queries:      queries,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "kpi")),
	}
}

// RegisterRoutes adds the KPI routes to an /api router
func (h *KPIHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tables/{name}", h.GetTable)
	r.Get("/rankings", h.GetRankings)
	r.Get("/kpis/{kpi}/stats", h.GetStats)
	r.Get("/teams", h.GetTeams)
	r.Route("/teams/{team}", func(r chi.Router) {
		r.Get("/profile", h.GetTeamProfile)
		r.Get("/matches", h.GetTeamMatches)
	})
	r.Get("/matches/{id}/comparison", h.GetComparison)
}

// GetTable handles GET /api/tables/{name}
func (h *KPIHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	table, err := h.queries.Table(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, table)
}

// GetRankings handles GET /api/rankings?kpi=gpi
func (h *KPIHandler) GetRankings(w http.ResponseWriter, r *http.Request) {
	kpi := r.URL.Query().Get("kpi")
	if kpi == "" {
		kpi = "gpi"
	}
	ranking, err := h.queries.Rankings(r.Context(), kpi)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, ranking)
}

// GetStats handles GET /api/kpis/{kpi}/stats
func (h *KPIHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queries.Stats(r.Context(), chi.URLParam(r, "kpi"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, stats)
}

// GetTeams handles GET /api/teams
func (h *KPIHandler) GetTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.queries.Teams(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"teams": teams, "count": len(teams)})
}

// GetTeamProfile handles GET /api/teams/{team}/profile
func (h *KPIHandler) GetTeamProfile(w http.ResponseWriter, r *http.Request) {
	team, ok := h.team(w, r)
	if !ok {
		return
	}
	profile, err := h.queries.TeamProfile(r.Context(), team)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, profile)
}

// GetTeamMatches handles GET /api/teams/{team}/matches
func (h *KPIHandler) GetTeamMatches(w http.ResponseWriter, r *http.Request) {
	team, ok := h.team(w, r)
	if !ok {
		return
	}
	matches, err := h.queries.TeamMatches(r.Context(), team)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, matches)
}

// GetComparison handles GET /api/matches/{id}/comparison
func (h *KPIHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	comparison, err := h.queries.Comparison(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, comparison)
}

// team decodes the {team} parameter; names contain spaces and accents
func (h *KPIHandler) team(w http.ResponseWriter, r *http.Request) (string, bool) {
	team, err := url.PathUnescape(chi.URLParam(r, "team"))
	if err != nil || team == "" {
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameter("team", "team must be a URL-encoded team name"))
		return "", false
	}
	return team, true
}

// fail maps service errors to API errors
func (h *KPIHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var missing *services.TableMissingError
	if errors.As(err, &missing) {
		h.logger.InfoContext(r.Context(), "table requested before generation",
			slog.String("table", missing.Table),
			slog.String("request_id", middleware.GetReqID(r.Context())))
		err = apierrors.TableNotFoundError(missing.Table)
	}
	h.errorHandler.HandleError(w, r, err)
}
