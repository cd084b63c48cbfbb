package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shailum17/BazaarBuddy-sub000/internal/middleware"
	"github.com/shailum17/BazaarBuddy-sub000/internal/model"
	"github.com/shailum17/BazaarBuddy-sub000/internal/service/order"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/utils"
)

// OrderHandler order HTTP handler
type OrderHandler struct {
	orderService order.Service
}

// NewOrderHandler creates an order handler
func NewOrderHandler(orderService order.Service) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func actorFrom(c *gin.Context) (order.Actor, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.Error(c, utils.CodeUnauthorized, "Unauthorized")
		return order.Actor{}, false
	}
	role, ok := middleware.GetUserRole(c)
	if !ok {
		utils.Error(c, utils.CodeUnauthorized, "Unauthorized")
		return order.Actor{}, false
	}
	return order.Actor{ID: userID, Role: role}, true
}

// CreateOrder creates one single-supplier order
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req order.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, "Invalid request body: "+err.Error())
		return
	}

	created, err := h.orderService.CreateOrder(c.Request.Context(), actor, &req)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, created)
}

// Checkout splits a cart by supplier and creates one order per group
func (h *OrderHandler) Checkout(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req order.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.orderService.Checkout(c.Request.Context(), actor, &req)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, result)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason,omitempty"`
}

// UpdateStatus moves an order along its lifecycle
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	orderNo := c.Param("order_no")
	if orderNo == "" {
		utils.Error(c, utils.CodeInvalidParam, "Missing order_no parameter")
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.orderService.Transition(c.Request.Context(), actor, orderNo, model.OrderStatus(req.Status), req.Reason)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, updated)
}

type rateOrderRequest struct {
	Rating int     `json:"rating" binding:"required"`
	Review *string `json:"review,omitempty"`
}

// Rate records a one-time rating on a delivered order
func (h *OrderHandler) Rate(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	orderNo := c.Param("order_no")
	if orderNo == "" {
		utils.Error(c, utils.CodeInvalidParam, "Missing order_no parameter")
		return
	}

	var req rateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.CodeInvalidParam, "Invalid request body: "+err.Error())
		return
	}

	if err := h.orderService.AddRating(c.Request.Context(), actor, orderNo, req.Rating, req.Review); err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, nil)
}

// GetOrder fetches one order by order number
func (h *OrderHandler) GetOrder(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	orderNo := c.Param("order_no")
	if orderNo == "" {
		utils.Error(c, utils.CodeInvalidParam, "Missing order_no parameter")
		return
	}

	found, err := h.orderService.GetByOrderNo(c.Request.Context(), actor, orderNo)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, found)
}

// ListOrders lists the caller's orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), actor, page, pageSize)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.SuccessPageResponse(c, orders, total, page, pageSize)
}
