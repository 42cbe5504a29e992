package cart

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evermart/storefront/internal/storage"
)

func snapshot(price int64) Snapshot {
	return Snapshot{
		Name:    "test product",
		Price:   decimal.NewFromInt(price),
		Stock:   100,
		Slug:    "test-product",
		TaxRate: decimal.NewFromFloat(0.18),
	}
}

func persistedLines(t *testing.T, store storage.Store) []Line {
	t.Helper()
	raw, err := store.Get(context.Background(), storage.KeyCart)
	require.NoError(t, err)
	lines := []Line{}
	require.NoError(t, json.Unmarshal(raw, &lines))
	return lines
}

func TestAddMergesSameProductAndVariant(t *testing.T) {
	c := context.Background()
	mem := storage.NewMemoryStore()
	cart := NewStore(mem)
	productID := uuid.New()
	variant := &Variant{Size: "M", Color: "blue"}

	first, err := cart.Add(c, AddItem{
		ProductID: productID,
		Quantity:  2,
		Variant:   variant,
		Snapshot:  snapshot(10),
	})
	require.NoError(t, err)

	second, err := cart.Add(c, AddItem{
		ProductID: productID,
		Quantity:  3,
		Variant:   &Variant{Size: "M", Color: "blue"},
		Snapshot:  snapshot(10),
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, cart.Lines(), 1)
	assert.EqualValues(t, 5, second.Quantity)
	assert.True(t, second.LineTotal.Equal(decimal.NewFromInt(50)))
	assert.EqualValues(t, 5, cart.Count())
	assert.True(t, cart.Subtotal().Equal(decimal.NewFromInt(50)))
}

func TestAddDistinctIdentityAppendsLines(t *testing.T) {
	c := context.Background()
	cart := NewStore(storage.NewMemoryStore())
	productID := uuid.New()

	_, err := cart.Add(c, AddItem{ProductID: productID, Quantity: 1, Snapshot: snapshot(10)})
	require.NoError(t, err)

	// Same product, different variant: must not merge.
	_, err = cart.Add(c, AddItem{
		ProductID: productID,
		Quantity:  1,
		Variant:   &Variant{Size: "L", Color: "red"},
		Snapshot:  snapshot(10),
	})
	require.NoError(t, err)

	_, err = cart.Add(c, AddItem{ProductID: uuid.New(), Quantity: 1, Snapshot: snapshot(20)})
	require.NoError(t, err)

	assert.Len(t, cart.Lines(), 3)
	assert.EqualValues(t, 3, cart.Count())
	assert.True(t, cart.Subtotal().Equal(decimal.NewFromInt(40)))
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	c := context.Background()
	cart := NewStore(storage.NewMemoryStore())

	_, err := cart.Add(c, AddItem{ProductID: uuid.New(), Quantity: 0, Snapshot: snapshot(10)})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Empty(t, cart.Lines())
}

func TestAggregatesHoldAfterEveryOperation(t *testing.T) {
	c := context.Background()
	cart := NewStore(storage.NewMemoryStore())

	check := func() {
		var wantCount int32
		wantSubtotal := decimal.Zero
		for _, line := range cart.Lines() {
			wantCount += line.Quantity
			wantSubtotal = wantSubtotal.Add(line.Snapshot.Price.Mul(decimal.NewFromInt32(line.Quantity)))
			assert.True(t, line.LineTotal.Equal(line.Snapshot.Price.Mul(decimal.NewFromInt32(line.Quantity))))
		}
		assert.Equal(t, wantCount, cart.Count())
		assert.True(t, wantSubtotal.Equal(cart.Subtotal()))
	}

	lineA, err := cart.Add(c, AddItem{ProductID: uuid.New(), Quantity: 2, Snapshot: snapshot(10)})
	require.NoError(t, err)
	check()

	lineB, err := cart.Add(c, AddItem{ProductID: uuid.New(), Quantity: 1, Snapshot: snapshot(25)})
	require.NoError(t, err)
	check()

	require.NoError(t, cart.UpdateQuantity(c, lineA.ID, 7))
	check()

	require.NoError(t, cart.Remove(c, lineB.ID))
	check()

	require.NoError(t, cart.Clear(c))
	check()
}

func TestUpdateQuantity(t *testing.T) {
	c := context.Background()
	cart := NewStore(storage.NewMemoryStore())

	line, err := cart.Add(c, AddItem{ProductID: uuid.New(), Quantity: 2, Snapshot: snapshot(10)})
	require.NoError(t, err)

	require.NoError(t, cart.UpdateQuantity(c, line.ID, 5))
	assert.EqualValues(t, 5, cart.Lines()[0].Quantity)
	assert.True(t, cart.Lines()[0].LineTotal.Equal(decimal.NewFromInt(50)))

	// Zero quantity removes the line.
	require.NoError(t, cart.UpdateQuantity(c, line.ID, 0))
	assert.Empty(t, cart.Lines())

	assert.ErrorIs(t, cart.UpdateQuantity(c, line.ID, -1), ErrInvalidQuantity)

	// Unknown line is a no-op.
	require.NoError(t, cart.UpdateQuantity(c, uuid.New(), 3))
	assert.Empty(t, cart.Lines())
}

func TestRemoveUnknownLineIsNoop(t *testing.T) {
	c := context.Background()
	cart := NewStore(storage.NewMemoryStore())

	_, err := cart.Add(c, AddItem{ProductID: uuid.New(), Quantity: 2, Snapshot: snapshot(10)})
	require.NoError(t, err)

	require.NoError(t, cart.Remove(c, uuid.New()))
	assert.Len(t, cart.Lines(), 1)
	assert.EqualValues(t, 2, cart.Count())
}

func TestMutationsPersistSynchronously(t *testing.T) {
	c := context.Background()
	mem := storage.NewMemoryStore()
	cart := NewStore(mem)

	line, err := cart.Add(c, AddItem{ProductID: uuid.New(), Quantity: 2, Snapshot: snapshot(10)})
	require.NoError(t, err)
	assert.Len(t, persistedLines(t, mem), 1)

	require.NoError(t, cart.UpdateQuantity(c, line.ID, 4))
	assert.EqualValues(t, 4, persistedLines(t, mem)[0].Quantity)

	require.NoError(t, cart.Clear(c))
	assert.Empty(t, persistedLines(t, mem))
	assert.EqualValues(t, 0, cart.Count())
	assert.True(t, cart.Subtotal().IsZero())
}

func TestLoadRestoresPersistedCart(t *testing.T) {
	c := context.Background()
	mem := storage.NewMemoryStore()

	first := NewStore(mem)
	_, err := first.Add(c, AddItem{ProductID: uuid.New(), Quantity: 3, Snapshot: snapshot(15)})
	require.NoError(t, err)

	second := NewStore(mem)
	require.NoError(t, second.Load(c))
	assert.Len(t, second.Lines(), 1)
	assert.EqualValues(t, 3, second.Count())
	assert.True(t, second.Subtotal().Equal(decimal.NewFromInt(45)))
}

func TestSnapshotPriceIsNotResynced(t *testing.T) {
	c := context.Background()
	cart := NewStore(storage.NewMemoryStore())
	productID := uuid.New()

	_, err := cart.Add(c, AddItem{ProductID: productID, Quantity: 1, Snapshot: snapshot(10)})
	require.NoError(t, err)

	// A later add of the same product with a new catalog price merges into
	// the existing line and keeps the add-time price.
	merged, err := cart.Add(c, AddItem{ProductID: productID, Quantity: 1, Snapshot: snapshot(99)})
	require.NoError(t, err)
	assert.True(t, merged.Snapshot.Price.Equal(decimal.NewFromInt(10)))
	assert.True(t, merged.LineTotal.Equal(decimal.NewFromInt(20)))
}
