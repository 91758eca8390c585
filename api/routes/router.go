package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/releasedesk/api/controllers"
	"github.com/angelmondragon/releasedesk/api/middleware"
	"github.com/angelmondragon/releasedesk/internal/export"
	"github.com/angelmondragon/releasedesk/internal/intake"
	"github.com/angelmondragon/releasedesk/internal/releases"
	"github.com/angelmondragon/releasedesk/internal/review"
	"github.com/angelmondragon/releasedesk/internal/submission"
	"github.com/angelmondragon/releasedesk/internal/users"
	"github.com/angelmondragon/releasedesk/pkg/config"
	"github.com/angelmondragon/releasedesk/pkg/enums"
	"github.com/angelmondragon/releasedesk/pkg/logger"
	"github.com/angelmondragon/releasedesk/pkg/metrics"
	pkgredis "github.com/angelmondragon/releasedesk/pkg/redis"
)

// NewRouter wires every HTTP route. idempotencyStore may be nil, in which
// case Idempotency-Key headers are ignored.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	readiness map[string]controllers.Pinger,
	idempotencyStore pkgredis.IdempotencyStore,
	profiles *users.Store,
	releaseService releases.Service,
	wizardService submission.Service,
	reviewService review.Service,
	intakeLimits intake.Limits,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	idempotent := middleware.Idempotency(idempotencyStore, logg)
	exportLoc, err := cfg.Export.Location()
	if err != nil {
		exportLoc = time.UTC
		if logg != nil {
			ctx := logg.WithFields(context.Background(), map[string]any{
				"timezone": cfg.Export.Timezone,
				"error":    err.Error(),
			})
			logg.Warn(ctx, "export timezone unresolved; rendering exports in UTC")
		}
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CurrentUser(profiles, logg))

		r.Get("/catalog/options", controllers.CatalogOptions())

		r.Route("/releases", func(r chi.Router) {
			r.Get("/", controllers.ListReleases(releaseService, logg))
			r.Get("/stats", controllers.ReleaseStats(releaseService, logg))
			r.Get("/export", controllers.ExportReleases(releaseService, controllers.ExportOptions{
				FieldSet: export.FieldSetDashboard,
				Location: exportLoc,
			}, logg))
			r.Get("/{releaseId}", controllers.GetRelease(releaseService, logg))
			r.Delete("/{releaseId}", controllers.DeleteRelease(releaseService, logg))
		})

		r.Route("/wizards", func(r chi.Router) {
			r.With(idempotent).Post("/", controllers.StartWizard(wizardService, logg))
			r.Get("/{wizardId}", controllers.GetWizard(wizardService, logg))
			r.Delete("/{wizardId}", controllers.DiscardWizard(wizardService, logg))
			r.Post("/{wizardId}/audio", controllers.AttachWizardAsset(wizardService, enums.AssetKindAudio, intakeLimits, logg))
			r.Post("/{wizardId}/artwork", controllers.AttachWizardAsset(wizardService, enums.AssetKindArtwork, intakeLimits, logg))
			r.Put("/{wizardId}/metadata", controllers.SetWizardMetadata(wizardService, logg))
			r.With(idempotent).Post("/{wizardId}/identifiers/{kind}", controllers.GenerateWizardIdentifier(wizardService, logg))
			r.Post("/{wizardId}/next", controllers.NextWizardStep(wizardService, logg))
			r.Post("/{wizardId}/back", controllers.PreviousWizardStep(wizardService, logg))
			r.With(idempotent).Post("/{wizardId}/commit", controllers.CommitWizard(wizardService, logg))
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/profile", controllers.SettingsProfile(profiles, logg))
			r.Put("/profile", controllers.SettingsUpdateProfile(profiles, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.CurrentUser(profiles, logg))
		r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))

		r.Route("/releases", func(r chi.Router) {
			r.Get("/", controllers.AdminListReleases(releaseService, logg))
			r.Get("/stats", controllers.AdminReleaseStats(releaseService, logg))
			r.Get("/export", controllers.ExportReleases(releaseService, controllers.ExportOptions{
				FieldSet:      export.FieldSetAdmin,
				Location:      exportLoc,
				DefaultStatus: controllers.AdminQueueDefaultStatus,
			}, logg))
			r.With(idempotent).Post("/{releaseId}/approve", controllers.AdminApproveRelease(reviewService, logg))
			r.With(idempotent).Post("/{releaseId}/reject", controllers.AdminRejectRelease(reviewService, logg))
			r.With(idempotent).Post("/{releaseId}/distribute", controllers.AdminDistributeRelease(reviewService, logg))
		})
	})

	return r
}
