package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/httputil"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/middleware"
	"github.com/fuyudunniam-spec/E-MAKTAB-MANAJEMEN-PESANTREN-V1-sub012/internal/utils"
)

// UserFinder is the part of SessionInfo the handlers need.
type UserFinder interface {
	middleware.SessionFetcher
	FindUser(ctx context.Context, userID string) (User, error)
}

// SetupRoutes exposes who the current staff member is, so the finance UI can
// hide admin-only actions.
func SetupRoutes(users UserFinder) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(users))
	r.Get("/me", MeHandler(users))
	return r
}

func MeHandler(users UserFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := utils.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
			return
		}

		user, err := users.FindUser(r.Context(), userID)
		if errors.Is(err, ErrUnknownUser) {
			http.Error(w, "Couldn't find user", http.StatusNotFound)
			return
		}
		if err != nil {
			httputil.WriteError(w, r, err)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, MeResponse{
			UserID:   user.UserID,
			Username: user.Username,
			Role:     user.Role,
			IsAdmin:  user.Role == "admin",
		})
	}
}
