package controllers

import (
	"net/http"

	"github.com/angelmondragon/releasedesk/api/responses"
	"github.com/angelmondragon/releasedesk/internal/releases"
)

// CatalogOptions lists the genres, languages, territories and album types
// offered by the submission form.
func CatalogOptions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, releases.Catalog())
	}
}
