package cart

import (
	"context"
	"net/url"
	"testing"

	"github.com/aretw0/cartwise/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCart(t *testing.T) {
	sel := []domain.Selection{
		{Item: "milk", ProductOption: domain.ProductOption{Name: "Great Value Milk", Price: 3.68}},
		{Item: "bread", ProductOption: domain.ProductOption{Name: "Wonder Bread & Co", Price: 2.98}},
	}

	raw, err := NewURLBuilder("").BuildCart(context.Background(), sel)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "walmart.com", u.Host)
	assert.Equal(t, "/cart", u.Path)
	assert.Equal(t, []string{"Great Value Milk", "Wonder Bread & Co"}, u.Query()["item"])
	assert.Equal(t, "6.66", u.Query().Get("total"))
}

func TestBuildCart_KeepsBaseQuery(t *testing.T) {
	raw, err := NewURLBuilder("https://shop.test/checkout?ref=cartwise").BuildCart(context.Background(), nil)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "cartwise", u.Query().Get("ref"))
	assert.Equal(t, "0.00", u.Query().Get("total"))
}

func TestBuildCart_BadBase(t *testing.T) {
	_, err := NewURLBuilder("://nope").BuildCart(context.Background(), nil)
	assert.Error(t, err)
}
