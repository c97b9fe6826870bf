package handler

import (
	"net/http"

	"github.com/matesxs/deeptown-event-tracker/internal/model"
	"github.com/matesxs/deeptown-event-tracker/internal/service"
)

// AdminHandler serves the token-guarded operational endpoints.
type AdminHandler struct {
	sync     *service.SyncService
	importer *service.ImportService
	admin    *service.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(sync *service.SyncService, importer *service.ImportService, admin *service.AdminService) *AdminHandler {
	return &AdminHandler{sync: sync, importer: importer, admin: admin}
}

// TriggerSyncRequest is the body of POST /v1/admin/sync. An empty body or
// empty guild id list requests a full sync.
type TriggerSyncRequest struct {
	GuildIDs []int64 `json:"guild_ids"`
}

// TriggerSync handles POST /v1/admin/sync. The run happens in the
// background; the response carries the run id to poll.
func (h *AdminHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	var req TriggerSyncRequest
	if r.ContentLength > 0 {
		if err := DecodeJSON(r, &req); err != nil {
			WriteError(w, model.NewBadRequestError("invalid request body: "+err.Error()))
			return
		}
	}

	var runID string
	var err error
	if len(req.GuildIDs) == 0 {
		runID, err = h.sync.StartFullSync(r.Context())
	} else {
		runID, err = h.sync.StartSync(r.Context(), req.GuildIDs)
	}
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusAccepted, map[string]string{"run_id": runID})
}

// SyncStatus handles GET /v1/admin/sync/{runId}
func (h *AdminHandler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("runId")
	if runID == "" {
		WriteError(w, model.NewBadRequestError("runId is required"))
		return
	}

	report, err := h.sync.Status(runID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, report)
}

// ImportCSV handles POST /v1/admin/import. The body is the raw CSV stream.
func (h *AdminHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Body == nil || r.ContentLength == 0 {
		WriteError(w, model.NewBadRequestError("request body must contain CSV data"))
		return
	}

	report, err := h.importer.ImportCSV(r.Context(), r.Body)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, report)
}

// DeleteGuild handles DELETE /v1/admin/guilds/{guildId}
func (h *AdminHandler) DeleteGuild(w http.ResponseWriter, r *http.Request) {
	guildID, ok := pathID(w, r, "guildId")
	if !ok {
		return
	}

	if err := h.admin.DeleteGuild(r.Context(), guildID); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Blacklist handles POST /v1/admin/blacklist/{kind}/{id}
func (h *AdminHandler) Blacklist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.admin.Blacklist(r.Context(), r.PathValue("kind"), id); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, map[string]string{"status": "blacklisted"})
}

// Unblacklist handles DELETE /v1/admin/blacklist/{kind}/{id}
func (h *AdminHandler) Unblacklist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.admin.Unblacklist(r.Context(), r.PathValue("kind"), id); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, map[string]string{"status": "removed"})
}

// PurgeParticipation handles DELETE /v1/admin/guilds/{guildId}/participation.
// Unlike the report endpoints the event week is required here; purging the
// implicit current week by accident would be hard to undo.
func (h *AdminHandler) PurgeParticipation(w http.ResponseWriter, r *http.Request) {
	guildID, ok := pathID(w, r, "guildId")
	if !ok {
		return
	}
	week, ok := queryWeek(w, r)
	if !ok {
		return
	}
	if week == nil {
		WriteError(w, model.NewBadRequestError("year and week are required"))
		return
	}

	removed, err := h.admin.PurgeParticipation(r.Context(), guildID, *week)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteData(w, http.StatusOK, map[string]int{"removed": removed})
}
