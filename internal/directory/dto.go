package directory

import (
	errors "github.com/frahmantamala/user-directory/internal"
	"github.com/frahmantamala/user-directory/internal/core/common/validation"
)

// CreateUserParams is the input for user creation. Name trimming and email
// lower-casing happen in the store, not here; validation only rejects.
type CreateUserParams struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	DepartmentID int64  `json:"department_id"`
}

func (p CreateUserParams) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("first_name", p.FirstName).Required().MaxLength(100)
	v.Field("last_name", p.LastName).Required().MaxLength(100)
	v.Field("email", p.Email).Required().MaxLength(255).Email()
	v.Field("department_id", p.DepartmentID).Required().Positive()
	return v.Validate()
}

type TransferParams struct {
	UserID           int64 `json:"user_id"`
	FromDepartmentID int64 `json:"from_department_id"`
	ToDepartmentID   int64 `json:"to_department_id"`
}

func (p TransferParams) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("user_id", p.UserID).Required().Positive()
	v.Field("from_department_id", p.FromDepartmentID).Required().Positive()
	v.Field("to_department_id", p.ToDepartmentID).Required().Positive()
	return v.Validate()
}

type BulkDepartmentParams struct {
	UserIDs      []int64 `json:"user_ids"`
	DepartmentID int64   `json:"department_id"`
}

func (p BulkDepartmentParams) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("department_id", p.DepartmentID).Required().Positive()
	return v.Validate()
}

type BulkActiveParams struct {
	UserIDs []int64 `json:"user_ids"`
	Active  bool    `json:"active"`
}

// PageParams bounds the export query. MaxPageSize keeps a single page from
// degenerating into a full-table fetch.
type PageParams struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

const MaxPageSize = 1000

func (p PageParams) Validate() *errors.AppError {
	if p.Offset < 0 {
		return errors.NewValidationFieldError("offset", "offset must not be negative", errors.ErrCodeInvalidPage)
	}
	if p.Limit <= 0 {
		return errors.NewValidationFieldError("limit", "limit must be positive", errors.ErrCodeInvalidPage)
	}
	if p.Limit > MaxPageSize {
		return errors.NewValidationFieldError("limit", "limit exceeds the maximum page size", errors.ErrCodeInvalidPage)
	}
	return nil
}
