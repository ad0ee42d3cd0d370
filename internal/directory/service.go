package directory

import (
	"context"
	"log/slog"
	"strings"

	internal "github.com/frahmantamala/user-directory/internal"
	"github.com/frahmantamala/user-directory/internal/core/events"
)

// Service fronts a Store with input validation, logging and event
// publication. It holds no state across calls.
type Service struct {
	store  Store
	bus    *events.EventBus
	logger *slog.Logger
}

func NewService(store Store, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		bus:    bus,
		logger: logger,
	}
}

func (s *Service) SearchUsersByName(ctx context.Context, term string) ([]UserSearchRow, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, internal.NewValidationFieldError("q", "search term is required", internal.ErrCodeValidationFailed)
	}

	rows, err := s.store.SearchUsersByName(ctx, term)
	if err != nil {
		s.logger.Error("user search failed", "error", err)
		return nil, err
	}
	return rows, nil
}

func (s *Service) GetUsersByDepartment(ctx context.Context, departmentName, sortOrder string) ([]DepartmentUserRow, error) {
	if strings.TrimSpace(departmentName) == "" {
		return nil, internal.NewValidationFieldError("department", "department name is required", internal.ErrCodeValidationFailed)
	}

	rows, err := s.store.GetUsersByDepartment(ctx, departmentName, sortOrder)
	if err != nil {
		s.logger.Error("department listing failed", "department", departmentName, "error", err)
		return nil, err
	}
	return rows, nil
}

func (s *Service) BulkAssignDepartment(ctx context.Context, params BulkDepartmentParams) (int64, error) {
	if err := params.Validate(); err != nil {
		return 0, err
	}

	affected, err := s.store.BulkAssignDepartment(ctx, params.UserIDs, params.DepartmentID)
	if err != nil {
		s.logger.Error("bulk department update failed",
			"department_id", params.DepartmentID, "user_count", len(params.UserIDs), "error", err)
		return 0, err
	}

	s.logger.Info("bulk department update",
		"department_id", params.DepartmentID, "requested", len(params.UserIDs), "affected", affected)
	return affected, nil
}

func (s *Service) BulkSetActive(ctx context.Context, params BulkActiveParams) (int64, error) {
	affected, err := s.store.BulkSetActive(ctx, params.UserIDs, params.Active)
	if err != nil {
		s.logger.Error("bulk status update failed",
			"active", params.Active, "user_count", len(params.UserIDs), "error", err)
		return 0, err
	}

	s.logger.Info("bulk status update",
		"active", params.Active, "requested", len(params.UserIDs), "affected", affected)
	return affected, nil
}

func (s *Service) InactiveUsersReport(ctx context.Context) ([]InactiveUserRow, error) {
	rows, err := s.store.InactiveUsersReport(ctx)
	if err != nil {
		s.logger.Error("inactive user report failed", "error", err)
		return nil, err
	}
	return rows, nil
}

func (s *Service) ExportUsersPaginated(ctx context.Context, page PageParams) ([]UserExportRow, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.store.ExportUsersPaginated(ctx, page.Offset, page.Limit)
	if err != nil {
		s.logger.Error("user export failed", "offset", page.Offset, "limit", page.Limit, "error", err)
		return nil, err
	}
	return rows, nil
}

func (s *Service) CreateUser(ctx context.Context, params CreateUserParams) (int64, error) {
	if err := params.Validate(); err != nil {
		s.logger.Warn("user creation rejected", "error", err)
		return 0, err
	}

	id, err := s.store.CreateUser(ctx, params)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.Type != internal.ErrorTypeInternal {
			s.logger.Warn("user creation rejected", "reason", appErr.Code)
		} else {
			s.logger.Error("user creation failed", "error", err)
		}
		return 0, err
	}

	s.logger.Info("user created", "user_id", id, "department_id", params.DepartmentID)
	if s.bus != nil {
		s.bus.Publish(ctx, events.NewUserCreatedEvent(id, strings.ToLower(strings.TrimSpace(params.Email)), params.DepartmentID))
	}
	return id, nil
}

func (s *Service) TransferUserBetweenDepartments(ctx context.Context, params TransferParams) error {
	if err := params.Validate(); err != nil {
		s.logger.Warn("transfer rejected", "error", err)
		return err
	}

	if err := s.store.TransferUserBetweenDepartments(ctx, params.UserID, params.FromDepartmentID, params.ToDepartmentID); err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.Type != internal.ErrorTypeInternal {
			s.logger.Warn("transfer rejected", "user_id", params.UserID, "reason", appErr.Code)
		} else {
			s.logger.Error("transfer failed", "user_id", params.UserID, "error", err)
		}
		return err
	}

	s.logger.Info("user transferred",
		"user_id", params.UserID,
		"from_department_id", params.FromDepartmentID,
		"to_department_id", params.ToDepartmentID)
	if s.bus != nil {
		s.bus.Publish(ctx, events.NewUserTransferredEvent(params.UserID, params.FromDepartmentID, params.ToDepartmentID))
	}
	return nil
}
