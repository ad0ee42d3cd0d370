package directory

import (
	"context"
	"strings"
	"time"
)

// Result limits and the inactivity cutoff used by the report query.
const (
	SearchResultLimit   = 100
	InactiveReportLimit = 1000
	InactiveCutoffDays  = 90
)

// SortOrder is the only caller-supplied token that ends up in query text,
// which is why it is a closed enumeration rather than a string.
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// NormalizeSortOrder maps a raw token onto the allow-list. Anything that is
// not a case-insensitive match for ASC or DESC falls back to ascending.
func NormalizeSortOrder(raw string) SortOrder {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(SortDesc):
		return SortDesc
	default:
		return SortAsc
	}
}

// UserSearchRow is one hit of the name search.
type UserSearchRow struct {
	ID             int64   `json:"id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Email          string  `json:"email"`
	Active         bool    `json:"active"`
	DepartmentName *string `json:"department_name,omitempty"`
}

// DepartmentUserRow is one row of the department-scoped listing.
type DepartmentUserRow struct {
	ID             int64  `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Active         bool   `json:"active"`
	DepartmentName string `json:"department_name"`
	DepartmentCode string `json:"department_code"`
}

// InactiveUserRow is one row of the inactive-user report.
type InactiveUserRow struct {
	ID             int64      `json:"id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email"`
	CreatedDate    time.Time  `json:"created_date"`
	LastLoginDate  *time.Time `json:"last_login_date,omitempty"`
	DepartmentName *string    `json:"department_name,omitempty"`
}

// AuthCredentials carries exactly the fields the authentication lookup is
// allowed to expose. PasswordHash is for the caller's timing-safe compare;
// this layer never inspects it.
type AuthCredentials struct {
	ID                  int64      `json:"id"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	Active              bool       `json:"active"`
	FailedLoginAttempts int        `json:"failed_login_attempts"`
	AccountLockedUntil  *time.Time `json:"account_locked_until,omitempty"`
	LastLoginDate       *time.Time `json:"last_login_date,omitempty"`
}

// UserExportRow is one row of the paginated export.
type UserExportRow struct {
	ID             int64      `json:"id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email"`
	Active         bool       `json:"active"`
	CreatedDate    time.Time  `json:"created_date"`
	DepartmentName *string    `json:"department_name,omitempty"`
	LastLoginDate  *time.Time `json:"last_login_date,omitempty"`
}

// Store is the data-access contract. Two strategies implement it: the
// parameterized postgres.Repository, which is the canonical one, and
// postgres.LegacyRepository, a string-building fixture retained so security
// tests have something concrete to reject. Callers other than tests must
// only ever be handed the canonical strategy.
type Store interface {
	// SearchUsersByName returns active users whose first or last name
	// contains term (case-insensitive), ordered by last then first name,
	// capped at SearchResultLimit. The implementation adds the wildcards;
	// the caller's term is bound as plain data.
	SearchUsersByName(ctx context.Context, term string) ([]UserSearchRow, error)

	// GetUsersByDepartment lists active users of the named department with
	// its metadata, ordered by last name in the requested direction. The
	// sort token is normalized against the allow-list, never interpolated
	// as given.
	GetUsersByDepartment(ctx context.Context, departmentName, sortOrder string) ([]DepartmentUserRow, error)

	// BulkAssignDepartment moves the given active users into departmentID
	// with a single set-valued command and returns the affected row count.
	// An empty id set returns 0 without touching storage.
	BulkAssignDepartment(ctx context.Context, userIDs []int64, departmentID int64) (int64, error)

	// BulkSetActive flips the active flag for the given users in one
	// command. Empty id set returns 0 without touching storage.
	BulkSetActive(ctx context.Context, userIDs []int64, active bool) (int64, error)

	// InactiveUsersReport returns inactive users whose last login is older
	// than the cutoff or who never logged in (NULL last login is included
	// regardless of creation date), newest logins first with nulls last,
	// capped at InactiveReportLimit.
	InactiveUsersReport(ctx context.Context) ([]InactiveUserRow, error)

	// GetUserForAuthentication fetches the credential fields for an active
	// user by case-insensitive email. The boolean is false when no such
	// user exists; that is not an error. Locked accounts are still
	// returned; lockout policy belongs to the caller.
	GetUserForAuthentication(ctx context.Context, email string) (AuthCredentials, bool, error)

	// ExportUsersPaginated returns one page of export rows ordered by id.
	ExportUsersPaginated(ctx context.Context, offset, limit int) ([]UserExportRow, error)

	// CreateUser inserts a new active user after trimming names and
	// lower-casing the email. Fails with a validation error when the
	// department is missing or inactive and with a conflict error when the
	// email already exists case-insensitively. Returns the new id.
	CreateUser(ctx context.Context, params CreateUserParams) (int64, error)

	// TransferUserBetweenDepartments moves a user and writes the audit row
	// in one transaction; neither write survives without the other.
	TransferUserBetweenDepartments(ctx context.Context, userID, fromDepartmentID, toDepartmentID int64) error

	// RecordLoginSuccess stamps last_login_date and clears the failure
	// counters for the user.
	RecordLoginSuccess(ctx context.Context, userID int64) error

	// RecordLoginFailure increments the failure counter and, when
	// lockedUntil is non-nil, sets the lockout timestamp.
	RecordLoginFailure(ctx context.Context, userID int64, lockedUntil *time.Time) error
}
