package analytics

import (
	"context"
	"time"
)

// DepartmentStatsRow aggregates per-department headcount and activity.
type DepartmentStatsRow struct {
	DepartmentID             int64    `db:"id" json:"department_id"`
	Name                     string   `db:"name" json:"name"`
	TotalUsers               int64    `db:"total_users" json:"total_users"`
	ActiveUsers              int64    `db:"active_users" json:"active_users"`
	RecentActiveUsers        int64    `db:"recent_active_users" json:"recent_active_users"`
	AvgTenureDays            *float64 `db:"avg_tenure_days" json:"avg_tenure_days,omitempty"`
	ActivePercentage         float64  `db:"active_percentage" json:"active_percentage"`
	RecentActivityPercentage float64  `db:"recent_activity_percentage" json:"recent_activity_percentage"`
}

// ActivityReportRow ranks users by recency of login within their department.
type ActivityReportRow struct {
	UserID         int64      `db:"id" json:"user_id"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	Email          string     `db:"email" json:"email"`
	LastLoginDate  *time.Time `db:"last_login_date" json:"last_login_date,omitempty"`
	DepartmentName string     `db:"department_name" json:"department_name"`
	LoginRank      int64      `db:"login_rank" json:"login_rank"`
	DeptUserCount  int64      `db:"dept_user_count" json:"dept_user_count"`
}

type MonthlyGrowthRow struct {
	Month          time.Time `db:"month" json:"month"`
	NewUsers       int64     `db:"new_users" json:"new_users"`
	ActiveNewUsers int64     `db:"active_new_users" json:"active_new_users"`
}

// DepartmentMemberRow is a slim listing row for the IN-filtered lookup.
type DepartmentMemberRow struct {
	UserID         int64  `db:"id" json:"user_id"`
	FirstName      string `db:"first_name" json:"first_name"`
	LastName       string `db:"last_name" json:"last_name"`
	Email          string `db:"email" json:"email"`
	DepartmentName string `db:"department_name" json:"department_name"`
}

// Repository is the read-only reporting contract. Queries behind it are
// Postgres-dialect and never mutate state.
type Repository interface {
	DepartmentStats(ctx context.Context) ([]DepartmentStatsRow, error)
	UserActivityReport(ctx context.Context, since time.Time) ([]ActivityReportRow, error)
	MonthlyUserGrowth(ctx context.Context, start, end time.Time) ([]MonthlyGrowthRow, error)
	ActiveUsersInDepartments(ctx context.Context, departmentNames []string) ([]DepartmentMemberRow, error)
}
