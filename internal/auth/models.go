package auth

import "time"

// Session and User are owned by the central auth service; this service
// only reads them to authorize staff.
type Session struct {
	SessionID string    `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"not null;unique" json:"-"`
	ExpiresAt time.Time `gorm:"not null"`
}

type User struct {
	UserID   string `gorm:"primaryKey" json:"user_id"`
	Username string `json:"username"`
	Role     string `gorm:"default:'user'" json:"role"`
}

func (Session) TableName() string { return "app_auth.sessions" }
func (User) TableName() string    { return "app_auth.users" }

type MeResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	IsAdmin  bool   `json:"is_admin"`
}
