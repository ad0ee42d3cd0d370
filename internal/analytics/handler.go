package analytics

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	internal "github.com/frahmantamala/user-directory/internal"
	"github.com/frahmantamala/user-directory/internal/transport"
	"github.com/frahmantamala/user-directory/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Repo Repository
}

func NewHandler(repo Repository) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Repo:        repo,
	}
}

func (h *Handler) DepartmentStats(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Repo.DepartmentStats(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"departments": rows})
}

func (h *Handler) UserActivityReport(w http.ResponseWriter, r *http.Request) {
	since, err := parseTimeParam(r, "since", time.Now().AddDate(0, 0, -30))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	rows, repoErr := h.Repo.UserActivityReport(r.Context(), since)
	if repoErr != nil {
		h.HandleServiceError(w, repoErr)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": rows})
}

func (h *Handler) MonthlyUserGrowth(w http.ResponseWriter, r *http.Request) {
	start, err := parseTimeParam(r, "start", time.Now().AddDate(-1, 0, 0))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	end, err := parseTimeParam(r, "end", time.Now())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	rows, repoErr := h.Repo.MonthlyUserGrowth(r.Context(), start, end)
	if repoErr != nil {
		h.HandleServiceError(w, repoErr)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"months": rows})
}

func (h *Handler) DepartmentMembers(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("departments")
	var names []string
	for _, name := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	if len(names) == 0 {
		h.HandleServiceError(w, internal.NewValidationFieldError(
			"departments", "at least one department name is required", internal.ErrCodeValidationFailed))
		return
	}

	rows, err := h.Repo.ActiveUsersInDepartments(r.Context(), names)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": rows})
}

func parseTimeParam(r *http.Request, key string, fallback time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, internal.NewValidationFieldError(
			key, key+" must be an RFC3339 timestamp", internal.ErrCodeValidationFailed)
	}
	return t, nil
}
