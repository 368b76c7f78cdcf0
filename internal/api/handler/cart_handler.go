package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mesavista/storefront-core/internal/api/metrics"
	"github.com/mesavista/storefront-core/internal/api/middleware"
	"github.com/mesavista/storefront-core/internal/core/domain"
	"github.com/mesavista/storefront-core/internal/core/ports"
)

// CartHandler exposes the cart state machine over the BFF API.
type CartHandler struct {
	runtimes Runtimes
}

func NewCartHandler(runtimes Runtimes) *CartHandler {
	return &CartHandler{runtimes: runtimes}
}

type addItemRequest struct {
	DishID              int64   `json:"dish_id" validate:"required"`
	Name                string  `json:"name" validate:"required"`
	UnitPrice           float64 `json:"unit_price" validate:"gte=0"`
	SpecialInstructions string  `json:"special_instructions"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type cartResponse struct {
	Lines          []domain.CartLine `json:"lines"`
	TotalItemCount int               `json:"total_item_count"`
	TotalPrice     float64           `json:"total_price"`
}

func (h *CartHandler) cart(c echo.Context) ports.CartService {
	return h.runtimes.Get(c.Request().Context(), middleware.SessionID(c)).Cart
}

func renderCart(c echo.Context, cart ports.CartService, status int) error {
	lines := cart.Lines()
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return c.JSON(status, cartResponse{
		Lines:          lines,
		TotalItemCount: cart.TotalItemCount(),
		TotalPrice:     cart.TotalPrice(),
	})
}

// GetCart returns the lines and derived totals.
func (h *CartHandler) GetCart(c echo.Context) error {
	return renderCart(c, h.cart(c), http.StatusOK)
}

// AddItem adds one unit of a dish, merging into an existing line when the
// (dish, instructions) identity matches.
func (h *CartHandler) AddItem(c echo.Context) error {
	var req addItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	cart := h.cart(c)
	dish := domain.Dish{ID: req.DishID, Name: req.Name, Price: req.UnitPrice}
	if err := cart.Add(dish, req.SpecialInstructions); err != nil {
		return err
	}
	metrics.CartMutationsTotal.WithLabelValues("add").Inc()
	return renderCart(c, cart, http.StatusCreated)
}

// UpdateQuantity sets the quantity for a dish; zero or less removes it.
func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	dishID, err := dishIDParam(c)
	if err != nil {
		return err
	}
	var req updateQuantityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	cart := h.cart(c)
	if err := cart.UpdateQuantity(dishID, req.Quantity); err != nil {
		return err
	}
	metrics.CartMutationsTotal.WithLabelValues("update_quantity").Inc()
	return renderCart(c, cart, http.StatusOK)
}

// RemoveItem drops every line for the dish, regardless of instructions.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	dishID, err := dishIDParam(c)
	if err != nil {
		return err
	}

	cart := h.cart(c)
	if err := cart.Remove(dishID); err != nil {
		return err
	}
	metrics.CartMutationsTotal.WithLabelValues("remove").Inc()
	return renderCart(c, cart, http.StatusOK)
}

// ClearCart empties the cart, as after a confirmed order.
func (h *CartHandler) ClearCart(c echo.Context) error {
	cart := h.cart(c)
	if err := cart.Clear(); err != nil {
		return err
	}
	metrics.CartMutationsTotal.WithLabelValues("clear").Inc()
	return renderCart(c, cart, http.StatusOK)
}

func dishIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("dish_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid dish id")
	}
	return id, nil
}
