package domain

import "fmt"

// Dish is the purchasable item the cart references. Only the fields the cart
// needs are carried; the full dish record lives upstream.
type Dish struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// noInstructions is the normalized form of "no special instructions" used in
// the line identity key, so a nil/empty instruction always hashes the same.
const noInstructions = "none"

// CartLine is one distinct purchasable line. Two lines with the same dish but
// different special instructions are distinct lines, not merged.
type CartLine struct {
	DishID              int64   `json:"dish_id"`
	Name                string  `json:"name"`
	UnitPrice           float64 `json:"unit_price"`
	Quantity            int     `json:"quantity"`
	SpecialInstructions string  `json:"special_instructions,omitempty"`
}

// Key returns the identity key of the line: (dish, normalized instructions).
func (l CartLine) Key() string {
	return LineKey(l.DishID, l.SpecialInstructions)
}

// LineKey builds the identity key used to decide whether two cart additions
// are "the same line". Empty instructions normalize to "none".
func LineKey(dishID int64, instructions string) string {
	if instructions == "" {
		instructions = noInstructions
	}
	return fmt.Sprintf("%d|%s", dishID, instructions)
}

// TotalItemCount returns the summed quantity across lines.
func TotalItemCount(lines []CartLine) int {
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	return total
}

// TotalPrice returns the summed line subtotals across lines.
func TotalPrice(lines []CartLine) float64 {
	total := 0.0
	for _, l := range lines {
		total += l.UnitPrice * float64(l.Quantity)
	}
	return total
}
