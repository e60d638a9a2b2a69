package cart

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/levelup_storefront/internal/events"
	"github.com/Skotchmaster/levelup_storefront/internal/storage"
	"github.com/Skotchmaster/levelup_storefront/internal/storage/storagetest"
)

func newTestStore(t *testing.T) (*Store, *storagetest.Memory) {
	t.Helper()
	mem := storagetest.NewMemory()
	return NewStore(storage.Scoped(mem, "dev"), events.New()), mem
}

func TestLoad_EmptyOnMissingOrCorrupt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, mem := newTestStore(t)

	assert.Equal(t, []LineItem{}, s.Load(ctx))

	mem.Put("dev", Key, "{not json")
	assert.Equal(t, []LineItem{}, s.Load(ctx))

	mem.Put("dev", Key, "null")
	assert.Equal(t, []LineItem{}, s.Load(ctx))

	mem.GetErr = errors.New("disk gone")
	assert.Equal(t, []LineItem{}, s.Load(ctx))
}

func TestAdd_DistinctCodesAppendInOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.Add(ctx, Product{Code: "A1", Name: "Catan", Price: 29990, Images: []string{"catan.png", "b.png"}}, 1)
	s.Add(ctx, Product{Code: "B2", Name: "Mouse", Price: 49990, Image: "mouse.png"}, 1)
	items := s.Add(ctx, Product{Code: "C3", Name: "Polera", Price: 14990}, 1)

	require.Len(t, items, 3)
	assert.Equal(t, []string{"A1", "B2", "C3"}, []string{items[0].Code, items[1].Code, items[2].Code})
	assert.Equal(t, "catan.png", items[0].Image)
	assert.Equal(t, "mouse.png", items[1].Image)
	assert.Equal(t, 3, Count(items))
	assert.Equal(t, items, s.Load(ctx))
}

func TestAdd_ExistingCodeIncrementsByOneIgnoringQty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)

	p := Product{Code: "A1", Name: "Catan", Price: 29990}
	s.Add(ctx, p, 1)
	s.Add(ctx, Product{Code: "B2", Price: 100}, 1)
	items := s.Add(ctx, p, 5)

	require.Len(t, items, 2)
	assert.Equal(t, "A1", items[0].Code)
	assert.Equal(t, 2, items[0].Qty)
	assert.Equal(t, 3, Count(items))
}

func TestAdd_SnapshotsProductAtFirstAdd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.Add(ctx, Product{Code: "A1", Name: "Old", Price: 1000}, 1)
	items := s.Add(ctx, Product{Code: "A1", Name: "New", Price: 2000}, 1)

	assert.Equal(t, "Old", items[0].Name)
	assert.Equal(t, 1000.0, items[0].Price)
}

func TestSetQty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  any
		want int
	}{
		{name: "five", raw: 5, want: 5},
		{name: "zero", raw: 0, want: 1},
		{name: "negative", raw: -3, want: 1},
		{name: "float from json", raw: 4.0, want: 4},
		{name: "numeric string", raw: " 7 ", want: 7},
		{name: "non numeric string", raw: "abc", want: 1},
		{name: "empty string", raw: "", want: 1},
		{name: "nil", raw: nil, want: 1},
		{name: "json number", raw: json.Number("3"), want: 3},
		{name: "bool", raw: true, want: 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			s, _ := newTestStore(t)
			s.Add(ctx, Product{Code: "A1", Price: 10}, 1)
			s.Add(ctx, Product{Code: "B2", Price: 10}, 1)

			items := s.SetQty(ctx, "A1", tt.raw)
			assert.Equal(t, tt.want, items[0].Qty)
			assert.Equal(t, 1, items[1].Qty)
		})
	}
}

func TestSetQty_UnknownCodeIsNoop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)
	before := s.Add(ctx, Product{Code: "A1", Price: 10}, 1)

	assert.Equal(t, before, s.SetQty(ctx, "ZZ", 9))
}

func TestRemove_IsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestStore(t)
	s.Add(ctx, Product{Code: "A1", Price: 10}, 1)
	s.Add(ctx, Product{Code: "B2", Price: 20}, 1)

	items := s.Remove(ctx, "A1")
	require.Len(t, items, 1)
	assert.Equal(t, "B2", items[0].Code)

	assert.Equal(t, items, s.Remove(ctx, "A1"))
	assert.Equal(t, items, s.Remove(ctx, "nope"))
}

func TestClear_ThenTotalIsZero(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, mem := newTestStore(t)
	s.Add(ctx, Product{Code: "A1", Price: 10}, 1)

	items := s.Clear(ctx)
	assert.Empty(t, items)
	assert.Zero(t, Total(s.Load(ctx)))
	raw, ok := mem.Raw("dev", Key)
	require.True(t, ok)
	assert.Equal(t, "[]", raw)
}

func TestMutations_SurviveStorageWriteFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, mem := newTestStore(t)
	mem.SetErr = errors.New("quota exceeded")

	items := s.Add(ctx, Product{Code: "A1", Price: 10}, 1)
	require.Len(t, items, 1)
	assert.Empty(t, s.Load(ctx))

	assert.Error(t, s.persist(ctx, items))
	assert.NotPanics(t, func() { s.Persist(ctx, items) })
}

func TestMutations_PublishCartEvents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	bus := events.New()
	s := NewStore(storage.Scoped(storagetest.NewMemory(), "dev-9"), bus)

	var got []events.Event
	bus.Subscribe(events.TopicCart, func(_ context.Context, ev events.Event) { got = append(got, ev) })

	s.Add(ctx, Product{Code: "A1", Price: 10}, 1)
	s.Clear(ctx)

	require.Len(t, got, 2)
	assert.Equal(t, "dev-9", got[0].Scope)
	assert.Len(t, got[0].Payload.([]LineItem), 1)
	assert.Empty(t, got[1].Payload.([]LineItem))
}

func TestCount_DefaultsMissingQty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, mem := newTestStore(t)
	mem.Put("dev", Key, `[{"code":"A1","price":1000},{"code":"B2","price":500,"qty":3}]`)

	items := s.Load(ctx)
	assert.Equal(t, 4, Count(items))
	assert.Equal(t, 2500.0, Total(items))
}
