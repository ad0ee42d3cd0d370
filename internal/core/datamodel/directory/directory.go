package directory

import "time"

// User mirrors the users table. Column names are shared with the raw
// queries in the repository packages, so renames here must be mirrored there.
type User struct {
	ID                  int64      `gorm:"primaryKey"`
	FirstName           string     `gorm:"column:first_name;not null"`
	LastName            string     `gorm:"column:last_name;not null"`
	Email               string     `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash        string     `gorm:"column:password_hash"`
	Active              bool       `gorm:"column:active;default:true"`
	DepartmentID        *int64     `gorm:"column:department_id"`
	FailedLoginAttempts int        `gorm:"column:failed_login_attempts;default:0"`
	AccountLockedUntil  *time.Time `gorm:"column:account_locked_until"`
	LastLoginDate       *time.Time `gorm:"column:last_login_date"`
	CreatedDate         time.Time  `gorm:"column:created_date"`
	LastModifiedDate    time.Time  `gorm:"column:last_modified_date"`
}

func (User) TableName() string {
	return "users"
}

type Department struct {
	ID               int64     `gorm:"primaryKey"`
	Name             string    `gorm:"column:name;uniqueIndex;not null"`
	Code             string    `gorm:"column:code;uniqueIndex;not null;size:10"`
	Description      string    `gorm:"column:description"`
	Active           bool      `gorm:"column:active;default:true"`
	CreatedDate      time.Time `gorm:"column:created_date"`
	LastModifiedDate time.Time `gorm:"column:last_modified_date"`
}

func (Department) TableName() string {
	return "departments"
}

type Role struct {
	ID               int64     `gorm:"primaryKey"`
	Name             string    `gorm:"column:name;uniqueIndex;not null"`
	Description      string    `gorm:"column:description"`
	Active           bool      `gorm:"column:active;default:true"`
	CreatedDate      time.Time `gorm:"column:created_date"`
	LastModifiedDate time.Time `gorm:"column:last_modified_date"`
}

func (Role) TableName() string {
	return "roles"
}

type UserRole struct {
	UserID       int64     `gorm:"column:user_id;primaryKey"`
	RoleID       int64     `gorm:"column:role_id;primaryKey"`
	AssignedDate time.Time `gorm:"column:assigned_date"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

// DepartmentTransfer is the audit record written alongside a transfer.
// Rows are insert-only; nothing in this layer updates or deletes them.
type DepartmentTransfer struct {
	ID               int64     `gorm:"primaryKey"`
	UserID           int64     `gorm:"column:user_id;not null"`
	FromDepartmentID int64     `gorm:"column:from_department_id;not null"`
	ToDepartmentID   int64     `gorm:"column:to_department_id;not null"`
	TransferDate     time.Time `gorm:"column:transfer_date"`
	CreatedBy        string    `gorm:"column:created_by"`
}

func (DepartmentTransfer) TableName() string {
	return "department_transfers"
}
