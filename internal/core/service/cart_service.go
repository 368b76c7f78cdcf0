package service

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/mesavista/storefront-core/internal/core/domain"
	"github.com/mesavista/storefront-core/internal/core/ports"
)

// CartService is the cart state machine. The cart is usable while anonymous;
// it is exposed independently of auth.
//
// One mutex covers line mutation plus persistence, so two concurrent
// mutations are atomic with respect to each other and the store always holds
// a cart that existed in memory at some point.
type CartService struct {
	store ports.SessionStore
	log   zerolog.Logger

	mu      sync.Mutex
	lines   []domain.CartLine
	subs    map[int]chan []domain.CartLine
	nextSub int
}

// NewCartService rebuilds the cart from the session store. A corrupt stored
// cart has already been treated as absent (and cleared) by the store.
func NewCartService(store ports.SessionStore, log zerolog.Logger) *CartService {
	return &CartService{
		store: store,
		log:   log,
		lines: store.LoadCart(),
		subs:  make(map[int]chan []domain.CartLine),
	}
}

// Lines returns a copy of the current lines in insertion order.
func (c *CartService) Lines() []domain.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneLines(c.lines)
}

// TotalItemCount is recomputed on read, never cached.
func (c *CartService) TotalItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.TotalItemCount(c.lines)
}

// TotalPrice is recomputed on read, never cached.
func (c *CartService) TotalPrice() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.TotalPrice(c.lines)
}

// Add increments the line matching (dish, instructions) or appends a new line
// with quantity 1. Two lines with the same dish but different instructions
// stay distinct.
func (c *CartService) Add(dish domain.Dish, specialInstructions string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := domain.LineKey(dish.ID, specialInstructions)
	merged := false
	for i := range c.lines {
		if c.lines[i].Key() == key {
			c.lines[i].Quantity++
			merged = true
			break
		}
	}
	if !merged {
		c.lines = append(c.lines, domain.CartLine{
			DishID:              dish.ID,
			Name:                dish.Name,
			UnitPrice:           dish.Price,
			Quantity:            1,
			SpecialInstructions: specialInstructions,
		})
	}

	c.log.Debug().Int64("dish_id", dish.ID).Bool("merged", merged).Msg("cart add")
	return c.persistLocked()
}

// Remove drops every line for the dish, regardless of instructions. The
// asymmetry with Add (instruction-specific add, dish-wide remove) is the
// documented behaviour and is deliberate.
func (c *CartService) Remove(dishID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(dishID)
}

func (c *CartService) removeLocked(dishID int64) error {
	kept := c.lines[:0]
	for _, l := range c.lines {
		if l.DishID != dishID {
			kept = append(kept, l)
		}
	}
	c.lines = kept
	return c.persistLocked()
}

// UpdateQuantity sets the quantity on every line of the dish. A quantity of
// zero or less behaves as Remove.
func (c *CartService) UpdateQuantity(dishID int64, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if quantity <= 0 {
		return c.removeLocked(dishID)
	}
	for i := range c.lines {
		if c.lines[i].DishID == dishID {
			c.lines[i].Quantity = quantity
		}
	}
	return c.persistLocked()
}

// Clear empties the cart, as after a confirmed order.
func (c *CartService) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = nil
	return c.persistLocked()
}

// Subscribe registers a listener notified with the line list after every
// mutation. Sends are non-blocking.
func (c *CartService) Subscribe() (<-chan []domain.CartLine, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan []domain.CartLine, 8)
	c.subs[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// persistLocked serializes the full line list synchronously with the state
// change, then notifies subscribers. A failed write keeps the in-memory state
// and surfaces the error to the caller.
func (c *CartService) persistLocked() error {
	err := c.store.SaveCart(c.lines)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to persist cart")
	}
	for _, ch := range c.subs {
		select {
		case ch <- cloneLines(c.lines):
		default:
		}
	}
	return err
}

func cloneLines(lines []domain.CartLine) []domain.CartLine {
	if len(lines) == 0 {
		return nil
	}
	out := make([]domain.CartLine, len(lines))
	copy(out, lines)
	return out
}
