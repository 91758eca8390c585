package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/releasedesk/internal/users"
	"github.com/angelmondragon/releasedesk/pkg/logger"
)

type contextKey string

const ctxProfile contextKey = "profile"

// ProfileSource yields the profile requests act as.
type ProfileSource interface {
	Current() users.Profile
}

// CurrentUser attaches the active profile to every request. The dashboard
// has a single user, so there is nothing to authenticate.
func CurrentUser(source ProfileSource, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile := source.Current()
			ctx := WithProfile(r.Context(), profile)
			if logg != nil {
				ctx = logg.WithUserID(ctx, profile.ID)
				ctx = logg.WithActorRole(ctx, profile.Role.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithProfile injects the acting profile into the context.
func WithProfile(ctx context.Context, profile users.Profile) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxProfile, profile)
}

// ProfileFromContext returns the acting profile and whether one was set.
func ProfileFromContext(ctx context.Context) (users.Profile, bool) {
	if ctx == nil {
		return users.Profile{}, false
	}
	p, ok := ctx.Value(ctxProfile).(users.Profile)
	return p, ok
}

func UserIDFromContext(ctx context.Context) string {
	p, _ := ProfileFromContext(ctx)
	return p.ID
}

func RoleFromContext(ctx context.Context) string {
	p, _ := ProfileFromContext(ctx)
	return p.Role.String()
}
