package service

import (
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mesavista/storefront-core/internal/core/domain"
	"github.com/mesavista/storefront-core/internal/infrastructure/store"
)

var (
	margherita = domain.Dish{ID: 1, Name: "Margherita", Price: 8.5}
	carbonara  = domain.Dish{ID: 2, Name: "Carbonara", Price: 11}
)

func newTestCart(t *testing.T) (*CartService, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return NewCartService(mem, zerolog.Nop()), mem
}

func TestCartService_Add_MergesIdenticalLines(t *testing.T) {
	cart, _ := newTestCart(t)

	if err := cart.Add(margherita, ""); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := cart.Add(margherita, ""); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	lines := cart.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected one merged line, got %d", len(lines))
	}
	if lines[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", lines[0].Quantity)
	}
}

func TestCartService_Add_DistinctInstructions(t *testing.T) {
	cart, _ := newTestCart(t)

	_ = cart.Add(margherita, "")
	_ = cart.Add(margherita, "no onions")

	lines := cart.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected two distinct lines, got %d", len(lines))
	}
	for _, l := range lines {
		if l.Quantity != 1 {
			t.Fatalf("expected quantity 1 on each line, got %d", l.Quantity)
		}
	}
}

func TestCartService_Remove_IsDishWide(t *testing.T) {
	cart, _ := newTestCart(t)

	// Add is instruction-specific, remove is dish-wide.
	_ = cart.Add(margherita, "")
	_ = cart.Add(margherita, "no onions")
	_ = cart.Add(carbonara, "")

	if err := cart.Remove(margherita.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	lines := cart.Lines()
	if len(lines) != 1 || lines[0].DishID != carbonara.ID {
		t.Fatalf("expected only the carbonara line to survive, got %+v", lines)
	}
}

func TestCartService_UpdateQuantity(t *testing.T) {
	cart, _ := newTestCart(t)
	_ = cart.Add(margherita, "")

	if err := cart.UpdateQuantity(margherita.ID, 5); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got := cart.Lines()[0].Quantity; got != 5 {
		t.Fatalf("expected quantity 5, got %d", got)
	}

	// Zero or less behaves as remove.
	if err := cart.UpdateQuantity(margherita.ID, 0); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if len(cart.Lines()) != 0 {
		t.Fatalf("expected empty cart after quantity 0")
	}
}

func TestCartService_TotalsAlwaysConsistent(t *testing.T) {
	cart, _ := newTestCart(t)

	check := func() {
		lines := cart.Lines()
		if cart.TotalItemCount() != domain.TotalItemCount(lines) {
			t.Fatalf("item count diverged from lines")
		}
		if cart.TotalPrice() != domain.TotalPrice(lines) {
			t.Fatalf("total price diverged from lines")
		}
	}

	check()
	_ = cart.Add(margherita, "")
	check()
	_ = cart.Add(margherita, "extra cheese")
	check()
	_ = cart.Add(carbonara, "")
	check()
	_ = cart.UpdateQuantity(carbonara.ID, 4)
	check()
	_ = cart.Remove(margherita.ID)
	check()
	_ = cart.Clear()
	check()

	if cart.TotalItemCount() != 0 || cart.TotalPrice() != 0 {
		t.Fatalf("cleared cart must have zero totals")
	}
}

func TestCartService_PersistsAcrossReload(t *testing.T) {
	mem := store.NewMemory()
	cart := NewCartService(mem, zerolog.Nop())

	_ = cart.Add(margherita, "")
	_ = cart.Add(margherita, "no onions")
	_ = cart.Add(carbonara, "")
	_ = cart.Add(carbonara, "")

	// Simulate a reload: a fresh state machine over the same store.
	reloaded := NewCartService(mem, zerolog.Nop())
	if !reflect.DeepEqual(cart.Lines(), reloaded.Lines()) {
		t.Fatalf("reloaded cart differs:\n  before: %+v\n  after:  %+v", cart.Lines(), reloaded.Lines())
	}
}

func TestCartService_CorruptStoredCartTreatedAsEmpty(t *testing.T) {
	mem := store.NewMemory()
	mem.SetRaw("cart", []byte("{definitely not json"))

	cart := NewCartService(mem, zerolog.Nop())
	if len(cart.Lines()) != 0 {
		t.Fatalf("corrupt cart must load as empty, got %+v", cart.Lines())
	}
	// The corrupt record was cleared; a second load stays empty.
	if got := mem.LoadCart(); got != nil {
		t.Fatalf("corrupt record should have been cleared, got %+v", got)
	}
}

func TestCartService_NotifiesSubscribers(t *testing.T) {
	cart, _ := newTestCart(t)

	ch, cancel := cart.Subscribe()
	defer cancel()

	_ = cart.Add(margherita, "")

	select {
	case lines := <-ch:
		if len(lines) != 1 || lines[0].DishID != margherita.ID {
			t.Fatalf("unexpected notification payload: %+v", lines)
		}
	default:
		t.Fatalf("expected a change notification after add")
	}
}
