package layout

import (
	"context"
	"testing"

	"github.com/matzehuels/astra/pkg/cache"
)

func TestStorePositions(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()
	s := NewStore(c, nil, nil)
	nodes := []string{"a", "b", "c"}

	pos, hit, err := s.Positions(ctx, "h1", nodes, "a")
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}
	if hit {
		t.Error("first call should miss")
	}
	if len(pos) != 3 {
		t.Errorf("len(pos) = %d", len(pos))
	}

	again, hit, err := s.Positions(ctx, "h1", nodes, "a")
	if err != nil || !hit {
		t.Fatalf("second call: hit=%v err=%v, want a hit", hit, err)
	}
	if again["b"] != pos["b"] {
		t.Error("cached positions differ")
	}

	if _, hit, _ := s.Positions(ctx, "h1", nodes, "b"); hit {
		t.Error("a different center should miss")
	}
}

func TestStoreObserveInvalidates(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()
	s := NewStore(c, nil, nil)
	nodes := []string{"a", "b"}

	s.Positions(ctx, "old", nodes, "a")
	s.Positions(ctx, "old", nodes, "b")
	s.Positions(ctx, "other", nodes, "a")

	changed, err := s.Observe(ctx, "old", "old")
	if err != nil || changed {
		t.Fatalf("Observe(same) = %v, %v", changed, err)
	}
	if _, hit, _ := s.Positions(ctx, "old", nodes, "a"); !hit {
		t.Fatal("same hash must keep its layout")
	}

	changed, err = s.Observe(ctx, "old", "new")
	if err != nil || !changed {
		t.Fatalf("Observe(changed) = %v, %v", changed, err)
	}
	for _, center := range []string{"a", "b"} {
		key := cache.NewDefaultKeyer().LayoutKey("old", cache.LayoutKeyOpts{Center: center, Radius: DefaultRadius})
		if _, ok, _ := c.Get(ctx, key); ok {
			t.Errorf("layout for center %s survived invalidation", center)
		}
	}
	if _, hit, _ := s.Positions(ctx, "other", nodes, "a"); !hit {
		t.Error("unrelated hash was invalidated")
	}
}

func TestStoreObserveFirstFile(t *testing.T) {
	s := NewStore(cache.NewMemoryCache(), nil, nil)
	if changed, err := s.Observe(context.Background(), "", "h"); changed || err != nil {
		t.Errorf("Observe with no previous = %v, %v", changed, err)
	}
}

func TestStoreSharedFileCache(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	nodes := []string{"a", "b"}

	c1, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	NewStore(c1, nil, nil).Positions(ctx, "h", nodes, "a")

	// A second process sees the layout and can invalidate it.
	c2, _ := cache.NewFileCache(dir)
	s2 := NewStore(c2, nil, nil)
	if _, hit, _ := s2.Positions(ctx, "h", nodes, "a"); !hit {
		t.Fatal("layout not shared through the file cache")
	}
	if changed, _ := s2.Observe(ctx, "h", "h2"); !changed {
		t.Error("Observe should report the invalidation")
	}
	if _, hit, _ := s2.Positions(ctx, "h", nodes, "a"); hit {
		t.Error("layout survived invalidation")
	}
}

func TestStoreStaleNodeSet(t *testing.T) {
	ctx := context.Background()
	s := NewStore(cache.NewMemoryCache(), nil, nil)
	s.Positions(ctx, "h", []string{"a", "b"}, "a")

	pos, hit, err := s.Positions(ctx, "h", []string{"a", "b", "c"}, "a")
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("a cached layout missing nodes must not be returned")
	}
	if _, ok := pos["c"]; !ok {
		t.Error("recomputed layout lacks the new node")
	}
}

func TestStoreNullCache(t *testing.T) {
	s := NewStore(nil, nil, nil)
	pos, hit, err := s.Positions(context.Background(), "h", []string{"a"}, "a")
	if err != nil || hit || len(pos) != 1 {
		t.Errorf("Positions = %v, %v, %v", pos, hit, err)
	}
}
