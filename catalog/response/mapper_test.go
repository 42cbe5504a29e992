package response

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCartSnapshot(t *testing.T) {
	compareAt := decimal.NewFromInt(60)
	product := Product{
		ID:             uuid.New(),
		Name:           "sneaker",
		Slug:           "sneaker",
		Price:          decimal.NewFromInt(40),
		CompareAtPrice: &compareAt,
		TaxRate:        decimal.NewFromFloat(0.18),
		Stock:          7,
		Images:         []string{"a.jpg"},
	}

	snapshot := product.CartSnapshot()

	assert.Equal(t, "sneaker", snapshot.Name)
	assert.True(t, snapshot.Price.Equal(decimal.NewFromInt(40)))
	assert.NotNil(t, snapshot.CompareAtPrice)
	assert.True(t, snapshot.CompareAtPrice.Equal(compareAt))
	assert.Equal(t, []string{"a.jpg"}, snapshot.Images)
	assert.EqualValues(t, 7, snapshot.Stock)
	assert.Equal(t, "sneaker", snapshot.Slug)
}
