package ports

import "github.com/mesavista/storefront-core/internal/core/domain"

// CartService owns the ordered cart line list. Every mutation persists the
// full list synchronously before returning, so a reload never silently drops
// items. Totals are recomputed on read, never cached.
type CartService interface {
	// Lines returns a copy of the current lines in insertion order.
	Lines() []domain.CartLine
	TotalItemCount() int
	TotalPrice() float64

	// Add merges into an existing line when (dish, instructions) matches,
	// otherwise appends a new line with quantity 1.
	Add(dish domain.Dish, specialInstructions string) error
	// Remove drops all lines for the dish, regardless of instructions.
	Remove(dishID int64) error
	// UpdateQuantity sets the quantity on every line of the dish; a quantity
	// of zero or less behaves as Remove.
	UpdateQuantity(dishID int64, quantity int) error
	// Clear empties the cart.
	Clear() error

	// Subscribe returns a channel receiving the line list after every
	// mutation, plus a cancel func that releases the subscription.
	Subscribe() (<-chan []domain.CartLine, func())
}
