package store

import (
	"reflect"
	"testing"

	"github.com/mesavista/storefront-core/internal/core/domain"
)

func TestMemory_SessionRoundTrip(t *testing.T) {
	m := NewMemory()

	user := &domain.User{ID: 7, Username: "bob", IsAdmin: true}
	if err := m.SaveSession("sk-9", user); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	key, got, ok := m.LoadSession()
	if !ok || key != "sk-9" || !reflect.DeepEqual(got, user) {
		t.Fatalf("round trip failed: key=%q user=%+v ok=%v", key, got, ok)
	}

	if err := m.ClearSession(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, _, ok := m.LoadSession(); ok {
		t.Fatalf("session should be gone after clear")
	}
}

func TestMemory_KeyWithoutUserIsValid(t *testing.T) {
	m := NewMemory()
	// Login persists the key before the confirmed user snapshot exists.
	_ = m.SaveSession("sk-early", nil)

	key, user, ok := m.LoadSession()
	if !ok || key != "sk-early" || user != nil {
		t.Fatalf("expected key-only session, got key=%q user=%+v ok=%v", key, user, ok)
	}
}

func TestMemory_CorruptUserClearsSession(t *testing.T) {
	m := NewMemory()
	_ = m.SaveSession("sk-1", nil)
	m.SetRaw("user_data", []byte("###"))

	if _, _, ok := m.LoadSession(); ok {
		t.Fatalf("corrupt user snapshot must read as absent")
	}
	// The whole session record was cleared, not just skipped.
	if _, _, ok := m.LoadSession(); ok {
		t.Fatalf("corrupt session must stay cleared")
	}
}

func TestMemory_SaveCartEmptyClears(t *testing.T) {
	m := NewMemory()
	_ = m.SaveCart([]domain.CartLine{{DishID: 1, Quantity: 1}})
	_ = m.SaveCart(nil)

	if got := m.LoadCart(); got != nil {
		t.Fatalf("expected empty cart, got %+v", got)
	}
}
