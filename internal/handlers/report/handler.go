package report

import (
	"net/http"

	"fleet/infras/otel"
	"fleet/internal/domains/report/model/dto"
	"fleet/internal/domains/report/service"
	"fleet/shared/constant"
	"fleet/shared/validator"
	"fleet/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Report
	otel    otel.Otel
}

func New(service service.Report, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/reports", func(routerGroup chi.Router) {
		routerGroup.Get("/summary", handler.GetSummary)
		routerGroup.Post("/export", handler.ExportBackup)
		routerGroup.Post("/restore", handler.RestoreBackup)
	})
}

// GetSummary returns the dashboard totals and the most recent bookings.
func (handler *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetSummary")
	defer scope.End()

	summary, err := handler.service.Summary(ctx)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get summary")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, summary)
}

// ExportBackup dumps the caller's collections to a snapshot, optionally
// uploading it to the backup bucket.
func (handler *Handler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ExportBackup")
	defer scope.End()

	export, err := handler.service.Export(ctx)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to export backup")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Backup exported successfully")

	response.WithJSON(w, http.StatusOK, export)
}

// RestoreBackup replaces the caller's collections with a snapshot.
func (handler *Handler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".RestoreBackup")
	defer scope.End()

	snapshot := dto.Snapshot{}
	if err := validator.Validate(r.Body, &snapshot); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Restore(ctx, snapshot); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to restore backup")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Backup restored successfully")

	response.WithMessage(w, http.StatusOK, "Backup restored successfully")
}
