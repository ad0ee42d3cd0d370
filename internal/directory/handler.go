package directory

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/user-directory/internal/transport"
	"github.com/frahmantamala/user-directory/pkg/logger"
)

type ServiceAPI interface {
	SearchUsersByName(ctx context.Context, term string) ([]UserSearchRow, error)
	GetUsersByDepartment(ctx context.Context, departmentName, sortOrder string) ([]DepartmentUserRow, error)
	BulkAssignDepartment(ctx context.Context, params BulkDepartmentParams) (int64, error)
	BulkSetActive(ctx context.Context, params BulkActiveParams) (int64, error)
	InactiveUsersReport(ctx context.Context) ([]InactiveUserRow, error)
	ExportUsersPaginated(ctx context.Context, page PageParams) ([]UserExportRow, error)
	CreateUser(ctx context.Context, params CreateUserParams) (int64, error)
	TransferUserBetweenDepartments(ctx context.Context, params TransferParams) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")

	rows, err := h.Service.SearchUsersByName(r.Context(), term)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": rows})
}

func (h *Handler) ListDepartmentUsers(w http.ResponseWriter, r *http.Request) {
	departmentName := chi.URLParam(r, "name")
	sortOrder := r.URL.Query().Get("sort")

	rows, err := h.Service.GetUsersByDepartment(r.Context(), departmentName, sortOrder)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": rows})
}

func (h *Handler) BulkAssignDepartment(w http.ResponseWriter, r *http.Request) {
	var params BulkDepartmentParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.Logger.Error("BulkAssignDepartment: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	affected, err := h.Service.BulkAssignDepartment(r.Context(), params)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]int64{"updated": affected})
}

func (h *Handler) BulkSetActive(w http.ResponseWriter, r *http.Request) {
	var params BulkActiveParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.Logger.Error("BulkSetActive: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	affected, err := h.Service.BulkSetActive(r.Context(), params)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]int64{"updated": affected})
}

func (h *Handler) InactiveUsersReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.InactiveUsersReport(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": rows})
}

func (h *Handler) ExportUsers(w http.ResponseWriter, r *http.Request) {
	page := PageParams{
		Offset: queryInt(r, "offset", 0),
		Limit:  queryInt(r, "limit", 100),
	}

	rows, err := h.Service.ExportUsersPaginated(r.Context(), page)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"offset": page.Offset,
		"limit":  page.Limit,
		"users":  rows,
	})
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var params CreateUserParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.Logger.Error("CreateUser: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.Service.CreateUser(r.Context(), params)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateUser: user created", "user_id", id)
	h.WriteJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) TransferUser(w http.ResponseWriter, r *http.Request) {
	var params TransferParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.Logger.Error("TransferUser: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.TransferUserBetweenDepartments(r.Context(), params); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "transferred"})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1 // invalid input fails PageParams validation downstream
	}
	return v
}
