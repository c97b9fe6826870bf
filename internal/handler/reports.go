package handler

import (
	"net/http"
	"strconv"

	"github.com/matesxs/deeptown-event-tracker/internal/model"
	"github.com/matesxs/deeptown-event-tracker/internal/service"
	"github.com/matesxs/deeptown-event-tracker/pkg/eventweek"
)

// ReportHandler serves the read-only participation and statistics endpoints.
type ReportHandler struct {
	reports *service.ReportService
	stats   *service.StatisticsService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *service.ReportService, stats *service.StatisticsService) *ReportHandler {
	return &ReportHandler{reports: reports, stats: stats}
}

// ListGuilds handles GET /v1/guilds
func (h *ReportHandler) ListGuilds(w http.ResponseWriter, r *http.Request) {
	guilds, err := h.reports.ListGuilds(r.Context())
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, guilds)
}

// EventWeeks handles GET /v1/events
func (h *ReportHandler) EventWeeks(w http.ResponseWriter, r *http.Request) {
	weeks, err := h.reports.EventWeeks(r.Context())
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, weeks)
}

// GuildMembers handles GET /v1/guilds/{guildId}/members
func (h *ReportHandler) GuildMembers(w http.ResponseWriter, r *http.Request) {
	guildID, ok := pathID(w, r, "guildId")
	if !ok {
		return
	}

	report, err := h.reports.GuildMembers(r.Context(), guildID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, report)
}

// GuildParticipation handles GET /v1/guilds/{guildId}/participation
func (h *ReportHandler) GuildParticipation(w http.ResponseWriter, r *http.Request) {
	guildID, ok := pathID(w, r, "guildId")
	if !ok {
		return
	}
	week, ok := queryWeek(w, r)
	if !ok {
		return
	}

	report, err := h.reports.GuildParticipation(r.Context(), guildID, week, queryBool(r, "nonzero"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, report)
}

// Leaderboard handles GET /v1/guilds/{guildId}/leaderboard
func (h *ReportHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	guildID, ok := pathID(w, r, "guildId")
	if !ok {
		return
	}
	week, ok := queryWeek(w, r)
	if !ok {
		return
	}

	orderBy := service.LeaderboardByAmount
	switch r.URL.Query().Get("by") {
	case "", "participation", service.LeaderboardByAmount:
	case service.LeaderboardByLevel:
		orderBy = service.LeaderboardByLevel
	default:
		WriteError(w, model.NewBadRequestError("by must be 'participation' or 'level'"))
		return
	}

	report, err := h.reports.Leaderboard(r.Context(), guildID, week, orderBy)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, report)
}

// PlayerParticipation handles GET /v1/players/{playerId}/participation
func (h *ReportHandler) PlayerParticipation(w http.ResponseWriter, r *http.Request) {
	playerID, ok := pathID(w, r, "playerId")
	if !ok {
		return
	}

	report, err := h.reports.PlayerParticipation(r.Context(), playerID,
		queryBool(r, "current_guild"), queryBool(r, "nonzero"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, report)
}

// DailyStats handles GET /v1/stats/daily
func (h *ReportHandler) DailyStats(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			WriteError(w, model.NewBadRequestError("days must be a positive integer"))
			return
		}
		days = parsed
	}

	stats, err := h.stats.RecentDaily(r.Context(), days)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, stats)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, model.NewBadRequestError(name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}

// queryWeek reads optional year and week parameters. Both must be given
// together; absent means the current event week.
func queryWeek(w http.ResponseWriter, r *http.Request) (*eventweek.ID, bool) {
	rawYear := r.URL.Query().Get("year")
	rawWeek := r.URL.Query().Get("week")
	if rawYear == "" && rawWeek == "" {
		return nil, true
	}

	year, errY := strconv.Atoi(rawYear)
	week, errW := strconv.Atoi(rawWeek)
	if errY != nil || errW != nil || week < 1 || week > 53 {
		WriteError(w, model.NewBadRequestError("year and week must be given together as integers"))
		return nil, false
	}
	return &eventweek.ID{Year: year, Week: week}, true
}

func queryBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}
