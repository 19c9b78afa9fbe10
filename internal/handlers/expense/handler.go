package expense

import (
	"net/http"
	"strconv"

	"fleet/infras/otel"
	"fleet/internal/domains/expense/model"
	"fleet/internal/domains/expense/model/dto"
	"fleet/internal/domains/expense/service"
	"fleet/shared"
	"fleet/shared/constant"
	gDto "fleet/shared/dto"
	"fleet/shared/failure"
	"fleet/shared/validator"
	"fleet/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

const requestParamVehicleID = "vehicle_id"

type Handler struct {
	service service.Expense
	otel    otel.Otel
}

func New(service service.Expense, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/expenses", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateExpense)
		routerGroup.Get("/", handler.GetExpenses)
		routerGroup.Get("/{id}", handler.GetExpenseByID)
		routerGroup.Delete("/{id}", handler.DeleteExpense)
	})
}

func (handler *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateExpense")
	defer scope.End()

	req := dto.CreateExpenseRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	expense, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create expense")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Expense created successfully")

	response.WithJSON(w, http.StatusCreated, expense)
}

// GetExpenses lists the caller's expenses with optional vehicle and type
// filters.
func (handler *Handler) GetExpenses(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetExpenses")
	defer scope.End()

	owner, _ := ctx.Value(constant.ContextKeyOwner).(string)
	if owner == "" {
		response.WithError(w, failure.Unauthorized("unauthorized"))

		return
	}

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	filterGroup := shared.FilterByOwner(owner, model.TableName)

	if vehicleID := r.URL.Query().Get(requestParamVehicleID); vehicleID != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldVehicleID,
			Operator: gDto.FilterOperatorEq,
			Value:    vehicleID,
			Table:    model.TableName,
		})
	}

	if expenseType := r.URL.Query().Get(model.FieldType); expenseType != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldType,
			Operator: gDto.FilterOperatorEq,
			Value:    expenseType,
			Table:    model.TableName,
		})
	}

	expenses, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get expenses")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Expenses retrieved successfully")

	response.WithJSON(w, http.StatusOK, expenses)
}

func (handler *Handler) GetExpenseByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetExpenseByID")
	defer scope.End()

	id, err := strconv.ParseInt(chi.URLParam(r, constant.RequestParamID), 10, 64)
	if err != nil {
		response.WithError(w, failure.BadRequestFromString("id must be an integer"))

		return
	}

	expense, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get expense by ID")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, expense)
}

func (handler *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteExpense")
	defer scope.End()

	id, err := strconv.ParseInt(chi.URLParam(r, constant.RequestParamID), 10, 64)
	if err != nil {
		response.WithError(w, failure.BadRequestFromString("id must be an integer"))

		return
	}

	if err := handler.service.Delete(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete expense")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Expense deleted successfully")

	response.WithMessage(w, http.StatusOK, "Expense deleted successfully")
}
