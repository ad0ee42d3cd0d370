package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	internal "github.com/frahmantamala/user-directory/internal"
	datamodel "github.com/frahmantamala/user-directory/internal/core/datamodel/directory"
	"github.com/frahmantamala/user-directory/internal/directory"
)

// Repository is the canonical directory.Store: every caller value travels
// as a bound parameter, collections bind through gorm's IN expansion, and
// the transfer runs inside a scoped transaction.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ directory.Store = (*Repository)(nil)

// escapeLike neutralizes LIKE metacharacters so a search term only ever
// means substring matching. Queries using it must declare ESCAPE '\'.
func escapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}

func (r *Repository) SearchUsersByName(ctx context.Context, term string) ([]directory.UserSearchRow, error) {
	query := `
		SELECT u.id, u.first_name, u.last_name, u.email, u.active, d.name AS department_name
		FROM users u
		LEFT JOIN departments d ON u.department_id = d.id
		WHERE (LOWER(u.first_name) LIKE LOWER(@pattern) ESCAPE '\'
		       OR LOWER(u.last_name) LIKE LOWER(@pattern) ESCAPE '\')
		AND u.active = TRUE
		ORDER BY u.last_name, u.first_name
		LIMIT @limit
	`

	rows := make([]directory.UserSearchRow, 0)
	err := r.db.WithContext(ctx).Raw(query, map[string]interface{}{
		"pattern": "%" + escapeLike(term) + "%",
		"limit":   directory.SearchResultLimit,
	}).Scan(&rows).Error
	if err != nil {
		return nil, internal.NewInternalError("could not search users", err)
	}
	return rows, nil
}

func (r *Repository) GetUsersByDepartment(ctx context.Context, departmentName, sortOrder string) ([]directory.DepartmentUserRow, error) {
	// The sort token is the one piece of caller input that lands in query
	// text; NormalizeSortOrder guarantees it is one of two fixed literals.
	order := directory.NormalizeSortOrder(sortOrder)

	query := fmt.Sprintf(`
		SELECT u.id, u.first_name, u.last_name, u.email, u.active,
		       d.name AS department_name, d.code AS department_code
		FROM users u
		INNER JOIN departments d ON u.department_id = d.id
		WHERE d.name = @departmentName
		AND u.active = TRUE
		ORDER BY u.last_name %s, u.first_name ASC
	`, order)

	rows := make([]directory.DepartmentUserRow, 0)
	err := r.db.WithContext(ctx).Raw(query, map[string]interface{}{
		"departmentName": departmentName,
	}).Scan(&rows).Error
	if err != nil {
		return nil, internal.NewInternalError("could not list department users", err)
	}
	return rows, nil
}

func (r *Repository) BulkAssignDepartment(ctx context.Context, userIDs []int64, departmentID int64) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}

	res := r.db.WithContext(ctx).Exec(`
		UPDATE users
		SET department_id = ?, last_modified_date = CURRENT_TIMESTAMP
		WHERE id IN ?
		AND active = TRUE
	`, departmentID, userIDs)
	if res.Error != nil {
		return 0, internal.NewInternalError("could not update user departments", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *Repository) BulkSetActive(ctx context.Context, userIDs []int64, active bool) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}

	res := r.db.WithContext(ctx).Exec(`
		UPDATE users
		SET active = ?, last_modified_date = CURRENT_TIMESTAMP
		WHERE id IN ?
	`, active, userIDs)
	if res.Error != nil {
		return 0, internal.NewInternalError("could not update user status", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *Repository) InactiveUsersReport(ctx context.Context) ([]directory.InactiveUserRow, error) {
	cutoff := time.Now().AddDate(0, 0, -directory.InactiveCutoffDays)

	query := `
		SELECT u.id, u.first_name, u.last_name, u.email, u.created_date,
		       u.last_login_date, d.name AS department_name
		FROM users u
		LEFT JOIN departments d ON u.department_id = d.id
		WHERE u.active = FALSE
		AND (u.last_login_date IS NULL OR u.last_login_date < @cutoff)
		ORDER BY u.last_login_date DESC NULLS LAST, u.created_date DESC
		LIMIT @limit
	`

	rows := make([]directory.InactiveUserRow, 0)
	err := r.db.WithContext(ctx).Raw(query, map[string]interface{}{
		"cutoff": cutoff,
		"limit":  directory.InactiveReportLimit,
	}).Scan(&rows).Error
	if err != nil {
		return nil, internal.NewInternalError("could not build inactive user report", err)
	}
	return rows, nil
}

func (r *Repository) GetUserForAuthentication(ctx context.Context, email string) (directory.AuthCredentials, bool, error) {
	query := `
		SELECT id, email, password_hash, active, failed_login_attempts,
		       account_locked_until, last_login_date
		FROM users
		WHERE LOWER(email) = LOWER(@email)
		AND active = TRUE
	`

	var creds directory.AuthCredentials
	var passwordHash sql.NullString

	row := r.db.WithContext(ctx).Raw(query, map[string]interface{}{"email": email}).Row()
	err := row.Scan(&creds.ID, &creds.Email, &passwordHash, &creds.Active,
		&creds.FailedLoginAttempts, &creds.AccountLockedUntil, &creds.LastLoginDate)
	if errors.Is(err, sql.ErrNoRows) {
		return directory.AuthCredentials{}, false, nil
	}
	if err != nil {
		return directory.AuthCredentials{}, false, internal.NewInternalError("could not look up credentials", err)
	}

	creds.PasswordHash = passwordHash.String
	return creds, true, nil
}

func (r *Repository) ExportUsersPaginated(ctx context.Context, offset, limit int) ([]directory.UserExportRow, error) {
	query := `
		SELECT u.id, u.first_name, u.last_name, u.email, u.active,
		       u.created_date, u.last_login_date, d.name AS department_name
		FROM users u
		LEFT JOIN departments d ON u.department_id = d.id
		ORDER BY u.id
		LIMIT @limit OFFSET @offset
	`

	rows := make([]directory.UserExportRow, 0)
	err := r.db.WithContext(ctx).Raw(query, map[string]interface{}{
		"limit":  limit,
		"offset": offset,
	}).Scan(&rows).Error
	if err != nil {
		return nil, internal.NewInternalError("could not export users", err)
	}
	return rows, nil
}

func (r *Repository) CreateUser(ctx context.Context, params directory.CreateUserParams) (int64, error) {
	firstName := strings.TrimSpace(params.FirstName)
	lastName := strings.TrimSpace(params.LastName)
	email := strings.ToLower(strings.TrimSpace(params.Email))

	var createdID int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var deptCount int64
		err := tx.Raw(`SELECT COUNT(*) FROM departments WHERE id = @id AND active = TRUE`,
			map[string]interface{}{"id": params.DepartmentID}).Scan(&deptCount).Error
		if err != nil {
			return internal.NewInternalError("could not verify department", err)
		}
		if deptCount == 0 {
			return internal.NewValidationError(
				fmt.Sprintf("department %d does not exist or is inactive", params.DepartmentID),
				internal.ErrCodeDepartmentNotFound)
		}

		var emailCount int64
		err = tx.Raw(`SELECT COUNT(*) FROM users WHERE LOWER(email) = @email`,
			map[string]interface{}{"email": email}).Scan(&emailCount).Error
		if err != nil {
			return internal.NewInternalError("could not verify email uniqueness", err)
		}
		if emailCount > 0 {
			return internal.NewConflictError("a user with this email already exists", internal.ErrCodeDuplicateEmail)
		}

		now := time.Now()
		user := &datamodel.User{
			FirstName:        firstName,
			LastName:         lastName,
			Email:            email,
			Active:           true,
			DepartmentID:     &params.DepartmentID,
			CreatedDate:      now,
			LastModifiedDate: now,
		}
		if err := tx.Create(user).Error; err != nil {
			return internal.NewInternalError("could not create user", err)
		}
		createdID = user.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return createdID, nil
}

func (r *Repository) TransferUserBetweenDepartments(ctx context.Context, userID, fromDepartmentID, toDepartmentID int64) error {
	createdBy := internal.UserIDFromContext(ctx)
	if createdBy == "" {
		createdBy = "SYSTEM"
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inSource int64
		err := tx.Raw(`
			SELECT COUNT(*) FROM users
			WHERE id = @userID AND department_id = @fromID AND active = TRUE
		`, map[string]interface{}{"userID": userID, "fromID": fromDepartmentID}).Scan(&inSource).Error
		if err != nil {
			return internal.NewInternalError("could not verify user department", err)
		}
		if inSource == 0 {
			return internal.NewValidationError(
				"user is not active in the stated source department",
				internal.ErrCodeUserNotInDepartment)
		}

		var destCount int64
		err = tx.Raw(`SELECT COUNT(*) FROM departments WHERE id = @id AND active = TRUE`,
			map[string]interface{}{"id": toDepartmentID}).Scan(&destCount).Error
		if err != nil {
			return internal.NewInternalError("could not verify destination department", err)
		}
		if destCount == 0 {
			return internal.NewValidationError(
				"destination department does not exist or is inactive",
				internal.ErrCodeDepartmentInactive)
		}

		res := tx.Exec(`
			UPDATE users
			SET department_id = @toID, last_modified_date = CURRENT_TIMESTAMP
			WHERE id = @userID
		`, map[string]interface{}{"toID": toDepartmentID, "userID": userID})
		if res.Error != nil {
			return internal.NewInternalError("could not update user department", res.Error)
		}

		// Audit row rides the same transaction: if this insert fails the
		// department update above rolls back with it.
		transfer := &datamodel.DepartmentTransfer{
			UserID:           userID,
			FromDepartmentID: fromDepartmentID,
			ToDepartmentID:   toDepartmentID,
			TransferDate:     time.Now(),
			CreatedBy:        createdBy,
		}
		if err := tx.Create(transfer).Error; err != nil {
			return internal.NewInternalError("could not record department transfer", err)
		}
		return nil
	})
}

func (r *Repository) RecordLoginSuccess(ctx context.Context, userID int64) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE users
		SET last_login_date = CURRENT_TIMESTAMP,
		    failed_login_attempts = 0,
		    account_locked_until = NULL,
		    last_modified_date = CURRENT_TIMESTAMP
		WHERE id = @id
	`, map[string]interface{}{"id": userID})
	if res.Error != nil {
		return internal.NewInternalError("could not record login", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	}
	return nil
}

func (r *Repository) RecordLoginFailure(ctx context.Context, userID int64, lockedUntil *time.Time) error {
	var res *gorm.DB
	if lockedUntil != nil {
		res = r.db.WithContext(ctx).Exec(`
			UPDATE users
			SET failed_login_attempts = failed_login_attempts + 1,
			    account_locked_until = @until,
			    last_modified_date = CURRENT_TIMESTAMP
			WHERE id = @id
		`, map[string]interface{}{"until": *lockedUntil, "id": userID})
	} else {
		res = r.db.WithContext(ctx).Exec(`
			UPDATE users
			SET failed_login_attempts = failed_login_attempts + 1,
			    last_modified_date = CURRENT_TIMESTAMP
			WHERE id = @id
		`, map[string]interface{}{"id": userID})
	}
	if res.Error != nil {
		return internal.NewInternalError("could not record login failure", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	}
	return nil
}
