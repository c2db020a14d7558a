package tracking

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_IdentifierPrecedence(t *testing.T) {
	raw := RawEvent{
		Name:  EventViewContent,
		Value: 19.99,
		Items: []RawItem{
			{ProductID: "P-1", SKU: "SKU-1", ID: "42", Quantity: 1, Price: 19.99},
		},
	}

	event, err := Normalize(raw)

	require.NoError(t, err)
	assert.Equal(t, []string{"P-1"}, event.ContentIDs)
}

func TestNormalize_FallsBackToSKUThenID(t *testing.T) {
	event, err := Normalize(RawEvent{
		Name:  EventViewContent,
		Value: 5,
		Items: []RawItem{{SKU: "SKU-9", ID: "42", Quantity: 1, Price: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, "SKU-9", event.PrimaryContentID())

	event, err = Normalize(RawEvent{
		Name:  EventViewContent,
		Value: 5,
		Items: []RawItem{{ID: "42", Quantity: 1, Price: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, "42", event.PrimaryContentID())
}

func TestNormalize_RejectsNonFiniteValue(t *testing.T) {
	for _, value := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Normalize(RawEvent{
			Name:  EventViewContent,
			Value: value,
			Items: []RawItem{{ID: "42", Quantity: 1, Price: 5}},
		})

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "value", vErr.Field)
	}
}

func TestNormalize_ProductScopedRequiresContentID(t *testing.T) {
	_, err := Normalize(RawEvent{
		Name:  EventAddToCart,
		Value: 10,
	})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "items", vErr.Field)
}

func TestNormalize_SearchNeedsNoContent(t *testing.T) {
	event, err := Normalize(RawEvent{
		Name:        EventSearch,
		SearchTerm:  "blue socks",
		ResultCount: 7,
	})

	require.NoError(t, err)
	assert.Equal(t, "blue socks", event.SearchTerm)
	assert.Equal(t, 7, event.ResultCount)
	assert.Empty(t, event.ContentIDs)
}

func TestNormalize_CheckoutLineItemsValidated(t *testing.T) {
	cases := []struct {
		name  string
		item  RawItem
		field string
	}{
		{"missing id", RawItem{Quantity: 1, Price: 10}, "items.id"},
		{"zero quantity", RawItem{ID: "X", Quantity: 0, Price: 10}, "items.quantity"},
		{"negative price", RawItem{ID: "X", Quantity: 1, Price: -1}, "items.price"},
		{"nan price", RawItem{ID: "X", Quantity: 1, Price: math.NaN()}, "items.price"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(RawEvent{
				Name:  EventInitiateCheckout,
				Value: 10,
				Items: []RawItem{tc.item},
			})

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestNormalize_AttachesHashedMatchParams(t *testing.T) {
	event, err := Normalize(RawEvent{
		Name:  EventPurchase,
		Value: 100,
		Items: []RawItem{{ID: "X", Quantity: 1, Price: 100}},
		User:  &User{Email: " Jane@Example.com "},
	})

	require.NoError(t, err)
	require.NotNil(t, event.Match)
	assert.Equal(t, HashUser(User{Email: "jane@example.com"}).Email, event.Match.Email)
	assert.Empty(t, event.Match.Phone)
}

func TestHashUser_Deterministic(t *testing.T) {
	a := HashUser(User{Email: "jane@example.com", Phone: "+15551234"})
	b := HashUser(User{Email: "JANE@example.COM ", Phone: "+15551234"})

	assert.Equal(t, a, b)
	assert.Len(t, a.Email, 64)
}
