package model

import "github.com/google/uuid"

type UserRole string

const (
	UserRoleAdmin   UserRole = "ADMIN"
	UserRoleManager UserRole = "MANAGER"
	UserRoleViewer  UserRole = "VIEWER"
)

type Principal struct {
	UserID uuid.UUID
	OrgID  uuid.UUID
	Role   UserRole
}

func (p Principal) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}

func (p Principal) IsManager() bool {
	return p.Role == UserRoleManager
}

func (p Principal) IsViewer() bool {
	return p.Role == UserRoleViewer
}

func (p Principal) CanManage() bool {
	return p.IsAdmin() || p.IsManager()
}

func (p Principal) CanRead() bool {
	return p.CanManage() || p.IsViewer()
}
