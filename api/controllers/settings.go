package controllers

import (
	"net/http"

	"github.com/angelmondragon/releasedesk/api/responses"
	"github.com/angelmondragon/releasedesk/api/validators"
	"github.com/angelmondragon/releasedesk/internal/users"
	pkgerrors "github.com/angelmondragon/releasedesk/pkg/errors"
	"github.com/angelmondragon/releasedesk/pkg/logger"
)

func SettingsProfile(store *users.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profile store unavailable"))
			return
		}
		responses.WriteSuccess(w, store.Current())
	}
}

// SettingsUpdateProfile replaces the current user's name, email and role.
func SettingsUpdateProfile(store *users.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profile store unavailable"))
			return
		}

		var req users.ProfileUpdate
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := store.Update(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}
