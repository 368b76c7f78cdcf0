package store

import (
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mesavista/storefront-core/internal/core/domain"
)

func newRedisStore(t *testing.T, ns string) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, ns, time.Hour, zerolog.Nop()), mr
}

func TestRedis_SessionRoundTrip(t *testing.T) {
	s, _ := newRedisStore(t, "browser-1")

	user := &domain.User{ID: 42, Username: "alice", IsCustomer: true}
	if err := s.SaveSession("sk-1", user); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	key, got, ok := s.LoadSession()
	if !ok || key != "sk-1" || !reflect.DeepEqual(got, user) {
		t.Fatalf("round trip failed: key=%q user=%+v ok=%v", key, got, ok)
	}

	if err := s.ClearSession(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, _, ok := s.LoadSession(); ok {
		t.Fatalf("session should be gone after clear")
	}
}

func TestRedis_CartRoundTrip(t *testing.T) {
	s, _ := newRedisStore(t, "browser-1")

	lines := []domain.CartLine{
		{DishID: 1, Name: "Margherita", UnitPrice: 8.5, Quantity: 2},
		{DishID: 2, Name: "Carbonara", UnitPrice: 11, Quantity: 1, SpecialInstructions: "extra pepper"},
	}
	if err := s.SaveCart(lines); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if got := s.LoadCart(); !reflect.DeepEqual(got, lines) {
		t.Fatalf("cart differs:\n  want %+v\n  got  %+v", lines, got)
	}

	if err := s.SaveCart(nil); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if got := s.LoadCart(); got != nil {
		t.Fatalf("expected empty cart, got %+v", got)
	}
}

func TestRedis_NamespacesAreIsolated(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	a := NewRedis(client, "browser-a", time.Hour, zerolog.Nop())
	b := NewRedis(client, "browser-b", time.Hour, zerolog.Nop())

	_ = a.SaveSession("sk-a", nil)
	if _, _, ok := b.LoadSession(); ok {
		t.Fatalf("namespaces must not leak into each other")
	}
}

func TestRedis_CorruptUserClearsSession(t *testing.T) {
	s, mr := newRedisStore(t, "browser-1")

	_ = s.SaveSession("sk-1", nil)
	mr.Set("storefront:session:browser-1:user_data", "!!not json!!")

	if _, _, ok := s.LoadSession(); ok {
		t.Fatalf("corrupt user snapshot must read as absent")
	}
	if mr.Exists("storefront:session:browser-1:session_key") {
		t.Fatalf("corrupt session must be cleared from redis")
	}
}

func TestRedis_CorruptCartCleared(t *testing.T) {
	s, mr := newRedisStore(t, "browser-1")

	mr.Set("storefront:session:browser-1:cart", "{broken")
	if got := s.LoadCart(); got != nil {
		t.Fatalf("corrupt cart must load as empty, got %+v", got)
	}
	if mr.Exists("storefront:session:browser-1:cart") {
		t.Fatalf("corrupt cart record must be deleted")
	}
}
