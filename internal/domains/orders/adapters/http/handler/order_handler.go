package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Apurer/repairshop-api/internal/domains/orders/adapters/http/mapper"
	"github.com/Apurer/repairshop-api/internal/domains/orders/application"
	ordertypes "github.com/Apurer/repairshop-api/internal/domains/orders/application/types"
	"github.com/Apurer/repairshop-api/internal/domains/orders/domain"
	"github.com/Apurer/repairshop-api/internal/domains/orders/ports"
	"github.com/Apurer/repairshop-api/internal/shared/actor"
	apierrors "github.com/Apurer/repairshop-api/internal/shared/errors"
)

// HeaderIdempotencyKey lets clients retry intake and payments safely.
const HeaderIdempotencyKey = "Idempotency-Key"

// OrderAPI wires HTTP transport with the orders bounded context.
type OrderAPI struct {
	service   ports.Service
	responder *apierrors.ChainedResponder
}

func NewOrderAPI(service ports.Service, responder *apierrors.ChainedResponder) *OrderAPI {
	if responder == nil {
		responder = apierrors.NewChainedResponder("", ProblemFor)
	}
	return &OrderAPI{service: service, responder: responder}
}

// Register mounts the order routes on group.
func (api *OrderAPI) Register(group gin.IRoutes) {
	group.POST("/orders", api.CreateOrder)
	group.GET("/orders", api.ListOrders)
	group.GET("/orders/:orderId", api.GetOrder)
	group.PATCH("/orders/:orderId", api.UpdateOrder)
	group.POST("/orders/:orderId/transition", api.Transition)
	group.POST("/orders/:orderId/items", api.AddItem)
	group.GET("/orders/:orderId/items", api.ListItems)
	group.DELETE("/orders/:orderId/items/:itemId", api.RemoveItem)
	group.GET("/orders/:orderId/total", api.OrderTotal)
	group.GET("/orders/:orderId/ledger", api.LedgerSummary)
	group.POST("/orders/:orderId/payments", api.RegisterPayment)
	group.GET("/orders/:orderId/payments", api.ListPayments)
	group.POST("/orders/:orderId/warranty", api.CreateWarrantyOrder)
}

// Post /v1/orders
func (api *OrderAPI) CreateOrder(c *gin.Context) {
	a, ok := api.actor(c)
	if !ok {
		return
	}
	var payload mapper.CreateOrder
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.BindingFailed(c, err)
		return
	}
	input := mapper.ToCreateInput(payload)
	input.IdempotencyKey = c.GetHeader(HeaderIdempotencyKey)
	order, err := api.service.CreateOrder(c.Request.Context(), a, input)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapper.FromOrder(order))
}

// Get /v1/orders?status=repair&status=qa&limit=50
func (api *OrderAPI) ListOrders(c *gin.Context) {
	a, ok := api.actor(c)
	if !ok {
		return
	}
	input := ordertypes.ListOrdersInput{Statuses: c.QueryArray("status")}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			api.responder.BadRequest(c, "limit must be a non-negative integer")
			return
		}
		input.Limit = limit
	}
	orders, err := api.service.ListOrders(c.Request.Context(), a, input)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromOrders(orders))
}

// Get /v1/orders/:orderId
func (api *OrderAPI) GetOrder(c *gin.Context) {
	a, orderID, ok := api.actorAndOrder(c)
	if !ok {
		return
	}
	order, err := api.service.GetOrder(c.Request.Context(), a, orderID)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromOrder(order))
}

// Patch /v1/orders/:orderId
func (api *OrderAPI) UpdateOrder(c *gin.Context) {
	a, orderID, ok := api.actorAndOrder(c)
	if !ok {
		return
	}
	var payload mapper.UpdateOrder
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.BindingFailed(c, err)
		return
	}
	if payload.Diagnosis == nil && payload.AssignedTechnicianID == nil {
		api.responder.BadRequest(c, "nothing to update")
		return
	}
	order, err := api.service.UpdateDetails(c.Request.Context(), a, orderID, ordertypes.UpdateDetailsInput{
		Diagnosis:            payload.Diagnosis,
		AssignedTechnicianID: payload.AssignedTechnicianID,
	})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromOrder(order))
}

// Post /v1/orders/:orderId/transition
func (api *OrderAPI) Transition(c *gin.Context) {
	a, orderID, ok := api.actorAndOrder(c)
	if !ok {
		return
	}
	var payload mapper.Transition
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.BindingFailed(c, err)
		return
	}
	result, err := api.service.Transition(c.Request.Context(), a, orderID, domain.Status(payload.Status))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromTransition(result))
}

// Post /v1/orders/:orderId/items
func (api *OrderAPI) AddItem(c *gin.Context) {
	a, orderID, ok := api.actorAndOrder(c)
	if !ok {
		return
	}
	var payload mapper.AddItem
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.BindingFailed(c, err)
		return
	}
	item, err := api.service.AddItem(c.Request.Context(), a, ordertypes.AddItemInput{
		OrderID:   orderID,
		ProductID: payload.ProductID,
		Quantity:  payload.Quantity,
		UnitPrice: payload.UnitPrice,
	})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapper.FromLineItem(item))
}

// Get /v1/orders/:orderId/items
func (api *OrderAPI) ListItems(c *gin.Context) {
	a, orderID, ok := api.actorAndOrder(c)
	if !ok {
		return
	}
	items, err := api.service.ListItems(c.Request.Context(), a, orderID)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromLineItems(items))
}

// Delete /v1/orders/:orderId/items/:itemId
func (api *OrderAPI) RemoveItem(c *gin.Context) {
	a, orderID, ok := api.actorAndOrder(c)
	if !ok {
		return
	}
	itemID, ok := api.uuidParam(c, "itemId")
	if !ok {
		return
	}
	if err := api.service.RemoveItem(c.Request.Context(), a, itemID, orderID); err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get /v1/orders/:orderId/total
func (api *OrderAPI) OrderTotal(c *gin.Context) {
	a, orderID, ok := api.actorAndOrder(c)
	if !ok {
		return
	}
	total, err := api.service.OrderTotal(c.Request.Context(), a, orderID)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.Total{OrderID: orderID, Total: total})
}

// Get /v1/orders/:orderId/ledger
func (api *OrderAPI) LedgerSummary(c *gin.Context) {
	a, orderID, ok := api.actorAndOrder(c)
	if !ok {
		return
	}
	summary, err := api.service.LedgerSummary(c.Request.Context(), a, orderID)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromSummary(summary))
}

// Post /v1/orders/:orderId/payments
func (api *OrderAPI) RegisterPayment(c *gin.Context) {
	a, orderID, ok := api.actorAndOrder(c)
	if !ok {
		return
	}
	var payload mapper.RegisterPayment
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.BindingFailed(c, err)
		return
	}
	payment, err := api.service.RegisterPayment(c.Request.Context(), a, ordertypes.RegisterPaymentInput{
		OrderID: orderID,
		Amount:  payload.Amount,
		Method:  domain.PaymentMethod(payload.Method),
		Note:    payload.Note,

		IdempotencyKey: c.GetHeader(HeaderIdempotencyKey),
	})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapper.FromPayment(payment))
}

// Get /v1/orders/:orderId/payments
func (api *OrderAPI) ListPayments(c *gin.Context) {
	a, orderID, ok := api.actorAndOrder(c)
	if !ok {
		return
	}
	payments, err := api.service.ListPayments(c.Request.Context(), a, orderID)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromPayments(payments))
}

// Post /v1/orders/:orderId/warranty
func (api *OrderAPI) CreateWarrantyOrder(c *gin.Context) {
	a, orderID, ok := api.actorAndOrder(c)
	if !ok {
		return
	}
	order, err := api.service.CreateWarrantyOrder(c.Request.Context(), a, orderID)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapper.FromOrder(order))
}

func (api *OrderAPI) actor(c *gin.Context) (domain.Actor, bool) {
	a, ok := actor.From(c)
	if !ok {
		api.responder.Respond(c, apierrors.ErrUnauthorized.WithDetail(actor.ErrMissingActor.Error()))
		return domain.Actor{}, false
	}
	return a, true
}

func (api *OrderAPI) actorAndOrder(c *gin.Context) (domain.Actor, uuid.UUID, bool) {
	a, ok := api.actor(c)
	if !ok {
		return domain.Actor{}, uuid.Nil, false
	}
	orderID, ok := api.uuidParam(c, "orderId")
	return a, orderID, ok
}

func (api *OrderAPI) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		api.responder.BadRequest(c, name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// ProblemFor maps orders errors to problem details.
func ProblemFor(err error) (apierrors.ProblemDetail, bool) {
	var transition *domain.TransitionError
	switch {
	case errors.As(err, &transition):
		allowed := make([]string, 0, 2)
		for _, next := range transition.From.AllowedNext() {
			allowed = append(allowed, string(next))
		}
		return apierrors.ErrInvalidState.
			WithDetail(err.Error()).
			WithExtension("from", string(transition.From)).
			WithExtension("to", string(transition.To)).
			WithExtension("allowed", allowed), true
	case errors.Is(err, domain.ErrInvalidTransition):
		return apierrors.ErrInvalidState.WithDetail(err.Error()), true
	case errors.Is(err, domain.ErrOrderNotFound):
		return apierrors.NewNotFoundProblem("order", err.Error()), true
	case errors.Is(err, domain.ErrProductNotFound):
		return apierrors.NewNotFoundProblem("product", err.Error()), true
	case errors.Is(err, domain.ErrLineItemNotFound):
		return apierrors.NewNotFoundProblem("lineItem", err.Error()), true
	case errors.Is(err, domain.ErrOrderMismatch):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	case errors.Is(err, ports.ErrIdempotencyConflict):
		return apierrors.ErrConflict.WithDetail(err.Error()).WithExtension("header", HeaderIdempotencyKey), true
	case errors.Is(err, application.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, application.ErrPersistence):
		return apierrors.ErrUnavailable.WithDetail("the order store is unavailable, retry later"), true
	default:
		return apierrors.ProblemDetail{}, false
	}
}
