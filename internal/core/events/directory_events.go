package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeUserCreated     = "directory.user.created"
	EventTypeUserTransferred = "directory.user.transferred"
)

func NewUserCreatedEvent(userID int64, email string, departmentID int64) Event {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      EventTypeUserCreated,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"user_id":       userID,
			"email":         email,
			"department_id": departmentID,
		},
	}
}

func NewUserTransferredEvent(userID, fromDepartmentID, toDepartmentID int64) Event {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      EventTypeUserTransferred,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"user_id":            userID,
			"from_department_id": fromDepartmentID,
			"to_department_id":   toDepartmentID,
		},
	}
}
