package handlers

import (
	"net/http"

	"golang-storefront-backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CartHandler struct {
	cartService CartServiceInterface
}

func NewCartHandler(cartService CartServiceInterface) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

// RegisterRoutes registers the routes for cart management
func (h *CartHandler) RegisterRoutes(router *gin.RouterGroup, authMiddleware *middleware.AuthMiddleware) {
	// All cart routes require authentication
	cart := router.Group("/cart", authMiddleware.AuthRequired())
	{
		// Get the user's cart
		cart.GET("", h.GetCart)
		// Add item to cart (merge-add)
		cart.POST("/items", h.AddToCart)
		// Set absolute quantity for an item
		cart.PUT("/items/:product_id", h.SetQuantity)
		// Remove item from cart
		cart.DELETE("/items/:product_id", h.RemoveItem)
	}
}

type AddToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type SetQuantityRequest struct {
	// Pointer so that an explicit 0 (remove) survives binding.
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	snapshot, err := h.cartService.GetCart(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "Failed to get cart")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (h *CartHandler) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	snapshot, err := h.cartService.AddToCart(c.Request.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		respondServiceError(c, err, "Failed to add item to cart")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (h *CartHandler) SetQuantity(c *gin.Context) {
	var req SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	productID := c.Param("product_id")
	snapshot, err := h.cartService.SetQuantity(c.Request.Context(), userID, productID, *req.Quantity)
	if err != nil {
		respondServiceError(c, err, "Failed to update cart item")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	productID := c.Param("product_id")
	snapshot, err := h.cartService.RemoveItem(c.Request.Context(), userID, productID)
	if err != nil {
		respondServiceError(c, err, "Failed to remove item from cart")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// currentUserID pulls the authenticated user's ID out of the request
// context. On failure it writes the 401 response itself.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw := middleware.GetUserID(c)
	if raw == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "Unauthorized",
			Message: "User ID not found",
		})
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "Unauthorized",
			Message: "Invalid user ID",
		})
		return uuid.Nil, false
	}

	return userID, true
}
