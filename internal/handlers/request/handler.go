package request

import (
	"net/http"

	"fleet/infras/otel"
	"fleet/internal/domains/request/model"
	"fleet/internal/domains/request/model/dto"
	"fleet/internal/domains/request/service"
	"fleet/shared"
	"fleet/shared/constant"
	gDto "fleet/shared/dto"
	"fleet/shared/failure"
	"fleet/shared/validator"
	"fleet/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Request
	otel    otel.Otel
}

func New(service service.Request, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/requests", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.GetRequests)
		routerGroup.Get("/{id}", handler.GetRequestByID)
		routerGroup.Post("/{id}/approve", handler.ApproveRequest)
		routerGroup.Post("/{id}/reject", handler.RejectRequest)
	})
}

// PublicRouter exposes the unauthenticated submission endpoint. The owner
// whose vehicle is being requested comes from the URL.
func (handler *Handler) PublicRouter(router chi.Router) {
	router.Post("/{owner}/requests", handler.SubmitRequest)
}

// SubmitRequest records a booking request from a prospective client.
func (handler *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SubmitRequest")
	defer scope.End()

	owner := chi.URLParam(r, constant.RequestParamOwner)

	req := dto.SubmitRequestRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	request, err := handler.service.Submit(ctx, owner, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to submit booking request")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking request submitted successfully")

	response.WithJSON(w, http.StatusCreated, request)
}

// GetRequests lists the owner's request queue, optionally filtered by
// status.
func (handler *Handler) GetRequests(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetRequests")
	defer scope.End()

	owner, _ := ctx.Value(constant.ContextKeyOwner).(string)
	if owner == "" {
		response.WithError(w, failure.Unauthorized("unauthorized"))

		return
	}

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	filterGroup := shared.FilterByOwner(owner, model.TableName)

	if status := r.URL.Query().Get(model.FieldStatus); status != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldStatus,
			Operator: gDto.FilterOperatorEq,
			Value:    status,
			Table:    model.TableName,
		})
	}

	requests, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking requests")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking requests retrieved successfully")

	response.WithJSON(w, http.StatusOK, requests)
}

func (handler *Handler) GetRequestByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetRequestByID")
	defer scope.End()

	request, err := handler.service.Get(ctx, chi.URLParam(r, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking request by ID")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, request)
}

// ApproveRequest turns a pending request into a booking. The body may
// override the requested client name, dates, and set the amount paid.
func (handler *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ApproveRequest")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.ApproveRequestRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Approve(ctx, id, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to approve booking request")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking request approved successfully")

	response.WithMessage(w, http.StatusOK, "Booking request approved successfully")
}

func (handler *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".RejectRequest")
	defer scope.End()

	if err := handler.service.Reject(ctx, chi.URLParam(r, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to reject booking request")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking request rejected successfully")

	response.WithMessage(w, http.StatusOK, "Booking request rejected successfully")
}
