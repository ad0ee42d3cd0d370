package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/user-directory/internal/directory"
)

// LegacyRepository is the retained negative fixture: it satisfies the same
// directory.Store contract as Repository but builds every statement by
// string concatenation, issues one command per element in bulk operations,
// writes the transfer and its audit row without a shared transaction, and
// leaks raw query text in its errors. It exists so security-oriented tests
// have a concrete failing strategy to demonstrate against. Nothing outside
// tests may construct it.
type LegacyRepository struct {
	db *gorm.DB
}

func NewLegacyRepository(db *gorm.DB) *LegacyRepository {
	return &LegacyRepository{db: db}
}

var _ directory.Store = (*LegacyRepository)(nil)

func (r *LegacyRepository) SearchUsersByName(ctx context.Context, term string) ([]directory.UserSearchRow, error) {
	// Defect: term is spliced straight into the statement.
	query := "SELECT u.id, u.first_name, u.last_name, u.email, u.active, d.name AS department_name " +
		"FROM users u LEFT JOIN departments d ON u.department_id = d.id " +
		"WHERE u.first_name LIKE '%" + term + "%' OR u.last_name LIKE '%" + term + "%'"

	rows := make([]directory.UserSearchRow, 0)
	if err := r.db.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("search query %q failed: %w", query, err)
	}
	return rows, nil
}

func (r *LegacyRepository) GetUsersByDepartment(ctx context.Context, departmentName, sortOrder string) ([]directory.DepartmentUserRow, error) {
	// Defect: both the department name and the sort token go in unchecked.
	query := "SELECT u.id, u.first_name, u.last_name, u.email, u.active, " +
		"d.name AS department_name, d.code AS department_code " +
		"FROM users u JOIN departments d ON u.department_id = d.id " +
		"WHERE d.name = '" + departmentName + "' " +
		"ORDER BY u.last_name " + sortOrder

	rows := make([]directory.DepartmentUserRow, 0)
	if err := r.db.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("department query %q failed: %w", query, err)
	}
	return rows, nil
}

func (r *LegacyRepository) BulkAssignDepartment(ctx context.Context, userIDs []int64, departmentID int64) (int64, error) {
	// Defect: one statement per user instead of a single set-valued command.
	var affected int64
	for _, userID := range userIDs {
		query := fmt.Sprintf(
			"UPDATE users SET department_id = %d, last_modified_date = CURRENT_TIMESTAMP WHERE id = %d",
			departmentID, userID)
		res := r.db.WithContext(ctx).Exec(query)
		if res.Error != nil {
			return affected, fmt.Errorf("update %q failed: %w", query, res.Error)
		}
		affected += res.RowsAffected
	}
	return affected, nil
}

func (r *LegacyRepository) BulkSetActive(ctx context.Context, userIDs []int64, active bool) (int64, error) {
	var affected int64
	for _, userID := range userIDs {
		query := fmt.Sprintf(
			"UPDATE users SET active = %t, last_modified_date = CURRENT_TIMESTAMP WHERE id = %d",
			active, userID)
		res := r.db.WithContext(ctx).Exec(query)
		if res.Error != nil {
			return affected, fmt.Errorf("update %q failed: %w", query, res.Error)
		}
		affected += res.RowsAffected
	}
	return affected, nil
}

func (r *LegacyRepository) InactiveUsersReport(ctx context.Context) ([]directory.InactiveUserRow, error) {
	// Defect: unbounded result set, cutoff baked into the text.
	cutoff := time.Now().AddDate(0, 0, -directory.InactiveCutoffDays)
	query := "SELECT u.id, u.first_name, u.last_name, u.email, u.created_date, " +
		"u.last_login_date, d.name AS department_name " +
		"FROM users u LEFT JOIN departments d ON u.department_id = d.id " +
		"WHERE u.active = FALSE AND (u.last_login_date IS NULL OR u.last_login_date < '" +
		cutoff.Format("2006-01-02 15:04:05") + "') " +
		"ORDER BY u.created_date DESC"

	rows := make([]directory.InactiveUserRow, 0)
	if err := r.db.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("report query %q failed: %w", query, err)
	}
	return rows, nil
}

func (r *LegacyRepository) GetUserForAuthentication(ctx context.Context, email string) (directory.AuthCredentials, bool, error) {
	// Defect: email is interpolated and the row is fetched without the
	// active filter, so disabled accounts still resolve.
	query := "SELECT id, email, password_hash, active, failed_login_attempts, " +
		"account_locked_until, last_login_date FROM users WHERE email = '" + email + "'"

	var creds directory.AuthCredentials
	var passwordHash sql.NullString

	row := r.db.WithContext(ctx).Raw(query).Row()
	err := row.Scan(&creds.ID, &creds.Email, &passwordHash, &creds.Active,
		&creds.FailedLoginAttempts, &creds.AccountLockedUntil, &creds.LastLoginDate)
	if errors.Is(err, sql.ErrNoRows) {
		return directory.AuthCredentials{}, false, nil
	}
	if err != nil {
		return directory.AuthCredentials{}, false, fmt.Errorf("auth query %q failed: %w", query, err)
	}

	creds.PasswordHash = passwordHash.String
	return creds, true, nil
}

func (r *LegacyRepository) ExportUsersPaginated(ctx context.Context, offset, limit int) ([]directory.UserExportRow, error) {
	// Defect: ignores the page bounds, pulls the whole table and slices in
	// memory.
	query := "SELECT u.id, u.first_name, u.last_name, u.email, u.active, " +
		"u.created_date, u.last_login_date, d.name AS department_name " +
		"FROM users u LEFT JOIN departments d ON u.department_id = d.id ORDER BY u.id"

	all := make([]directory.UserExportRow, 0)
	if err := r.db.WithContext(ctx).Raw(query).Scan(&all).Error; err != nil {
		return nil, fmt.Errorf("export query %q failed: %w", query, err)
	}

	if offset >= len(all) {
		return []directory.UserExportRow{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *LegacyRepository) CreateUser(ctx context.Context, params directory.CreateUserParams) (int64, error) {
	// Defect: no validation, no normalization, no uniqueness or department
	// checks, values interpolated into the insert.
	query := fmt.Sprintf(
		"INSERT INTO users (first_name, last_name, email, department_id, active, created_date, last_modified_date) "+
			"VALUES ('%s', '%s', '%s', %d, TRUE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)",
		params.FirstName, params.LastName, params.Email, params.DepartmentID)

	if err := r.db.WithContext(ctx).Exec(query).Error; err != nil {
		return 0, fmt.Errorf("insert %q failed: %w", query, err)
	}

	var id int64
	lookup := "SELECT id FROM users WHERE email = '" + params.Email + "' ORDER BY id DESC"
	if err := r.db.WithContext(ctx).Raw(lookup).Row().Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup %q failed: %w", lookup, err)
	}
	return id, nil
}

func (r *LegacyRepository) TransferUserBetweenDepartments(ctx context.Context, userID, fromDepartmentID, toDepartmentID int64) error {
	// Defect: two related writes with no shared transaction. When the
	// audit insert fails the department update stays committed.
	update := fmt.Sprintf(
		"UPDATE users SET department_id = %d, last_modified_date = CURRENT_TIMESTAMP WHERE id = %d",
		toDepartmentID, userID)
	if err := r.db.WithContext(ctx).Exec(update).Error; err != nil {
		return fmt.Errorf("update %q failed: %w", update, err)
	}

	logInsert := fmt.Sprintf(
		"INSERT INTO department_transfers (user_id, from_department_id, to_department_id, transfer_date, created_by) "+
			"VALUES (%d, %d, %d, CURRENT_TIMESTAMP, 'SYSTEM')",
		userID, fromDepartmentID, toDepartmentID)
	if err := r.db.WithContext(ctx).Exec(logInsert).Error; err != nil {
		return fmt.Errorf("insert %q failed: %w", logInsert, err)
	}
	return nil
}

func (r *LegacyRepository) RecordLoginSuccess(ctx context.Context, userID int64) error {
	query := fmt.Sprintf(
		"UPDATE users SET last_login_date = CURRENT_TIMESTAMP, failed_login_attempts = 0, "+
			"account_locked_until = NULL WHERE id = %d", userID)
	if err := r.db.WithContext(ctx).Exec(query).Error; err != nil {
		return fmt.Errorf("update %q failed: %w", query, err)
	}
	return nil
}

func (r *LegacyRepository) RecordLoginFailure(ctx context.Context, userID int64, lockedUntil *time.Time) error {
	query := fmt.Sprintf(
		"UPDATE users SET failed_login_attempts = failed_login_attempts + 1 WHERE id = %d", userID)
	if lockedUntil != nil {
		query = fmt.Sprintf(
			"UPDATE users SET failed_login_attempts = failed_login_attempts + 1, "+
				"account_locked_until = '%s' WHERE id = %d",
			lockedUntil.Format("2006-01-02 15:04:05"), userID)
	}
	if err := r.db.WithContext(ctx).Exec(query).Error; err != nil {
		return fmt.Errorf("update %q failed: %w", query, err)
	}
	return nil
}
