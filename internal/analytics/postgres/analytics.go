package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	internal "github.com/frahmantamala/user-directory/internal"
	"github.com/frahmantamala/user-directory/internal/analytics"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

var _ analytics.Repository = (*Repository)(nil)

func (r *Repository) DepartmentStats(ctx context.Context) ([]analytics.DepartmentStatsRow, error) {
	query := `
		WITH department_stats AS (
			SELECT
				d.id,
				d.name,
				COUNT(u.id) AS total_users,
				COUNT(CASE WHEN u.active = TRUE THEN 1 END) AS active_users,
				COUNT(CASE WHEN u.last_login_date > CURRENT_DATE - INTERVAL '30 days' THEN 1 END) AS recent_active_users,
				AVG(EXTRACT(EPOCH FROM (CURRENT_TIMESTAMP - u.created_date))/86400) AS avg_tenure_days
			FROM departments d
			LEFT JOIN users u ON d.id = u.department_id
			WHERE d.active = TRUE
			GROUP BY d.id, d.name
		)
		SELECT
			ds.*,
			CASE
				WHEN ds.total_users > 0
				THEN ROUND((ds.active_users::numeric / ds.total_users) * 100, 2)
				ELSE 0
			END AS active_percentage,
			CASE
				WHEN ds.active_users > 0
				THEN ROUND((ds.recent_active_users::numeric / ds.active_users) * 100, 2)
				ELSE 0
			END AS recent_activity_percentage
		FROM department_stats ds
		ORDER BY ds.active_users DESC, ds.name
	`

	rows := make([]analytics.DepartmentStatsRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, internal.NewInternalError("could not compute department stats", err)
	}
	return rows, nil
}

func (r *Repository) UserActivityReport(ctx context.Context, since time.Time) ([]analytics.ActivityReportRow, error) {
	query := `
		SELECT
			u.id,
			u.first_name,
			u.last_name,
			u.email,
			u.last_login_date,
			d.name AS department_name,
			RANK() OVER (PARTITION BY d.id ORDER BY u.last_login_date DESC) AS login_rank,
			COUNT(*) OVER (PARTITION BY d.id) AS dept_user_count
		FROM users u
		JOIN departments d ON u.department_id = d.id
		WHERE u.active = TRUE
		AND u.last_login_date >= :since
		ORDER BY d.name, login_rank
	`

	nstmt, err := r.db.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, internal.NewInternalError("could not prepare activity report", err)
	}
	defer nstmt.Close()

	rows := make([]analytics.ActivityReportRow, 0)
	if err := nstmt.SelectContext(ctx, &rows, map[string]interface{}{"since": since}); err != nil {
		return nil, internal.NewInternalError("could not build activity report", err)
	}
	return rows, nil
}

func (r *Repository) MonthlyUserGrowth(ctx context.Context, start, end time.Time) ([]analytics.MonthlyGrowthRow, error) {
	query := `
		SELECT
			DATE_TRUNC('month', u.created_date) AS month,
			COUNT(*) AS new_users,
			COUNT(CASE WHEN u.active = TRUE THEN 1 END) AS active_new_users
		FROM users u
		WHERE u.created_date >= :start
		AND u.created_date < :end
		GROUP BY DATE_TRUNC('month', u.created_date)
		ORDER BY month
	`

	nstmt, err := r.db.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, internal.NewInternalError("could not prepare growth report", err)
	}
	defer nstmt.Close()

	rows := make([]analytics.MonthlyGrowthRow, 0)
	args := map[string]interface{}{"start": start, "end": end}
	if err := nstmt.SelectContext(ctx, &rows, args); err != nil {
		return nil, internal.NewInternalError("could not build growth report", err)
	}
	return rows, nil
}

func (r *Repository) ActiveUsersInDepartments(ctx context.Context, departmentNames []string) ([]analytics.DepartmentMemberRow, error) {
	if len(departmentNames) == 0 {
		return []analytics.DepartmentMemberRow{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT u.id, u.first_name, u.last_name, u.email, d.name AS department_name
		FROM users u
		JOIN departments d ON u.department_id = d.id
		WHERE d.name IN (?)
		AND u.active = TRUE
		ORDER BY d.name, u.last_name, u.first_name
	`, departmentNames)
	if err != nil {
		return nil, internal.NewInternalError("could not expand department filter", err)
	}

	rows := make([]analytics.DepartmentMemberRow, 0)
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, internal.NewInternalError("could not list department members", err)
	}
	return rows, nil
}
