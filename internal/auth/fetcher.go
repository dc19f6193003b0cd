package auth

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/utils"
)

var ErrUnknownUser = errors.New("unknown user")

// SessionInfo implements middleware.SessionFetcher and middleware.RoleFetcher.
type SessionInfo struct {
	db *gorm.DB
}

func NewSessionInfo(db *gorm.DB) SessionInfo {
	return SessionInfo{db: db}
}

func (si SessionInfo) FindSessionByID(ctx context.Context, id string) (utils.SessionData, error) {
	var session Session

	err := si.db.WithContext(ctx).First(&session, "session_id = ?", id).Error
	if err != nil {
		return utils.SessionData{}, fmt.Errorf("find session: %w", err)
	}

	return utils.SessionData{
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (si SessionInfo) FindUser(ctx context.Context, userID string) (User, error) {
	var user User
	err := si.db.WithContext(ctx).First(&user, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrUnknownUser
	}
	if err != nil {
		return User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (si SessionInfo) FindRole(ctx context.Context, userID string) (string, error) {
	user, err := si.FindUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}
