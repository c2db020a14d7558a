package tracking

import "math"

// Normalize canonicalizes a raw e-commerce event into a platform-agnostic
// payload. It returns a ValidationError when the payload is malformed;
// invalid events are dropped by the caller and never reach an adapter.
//
// Rules:
//   - item identifier precedence: product_id > sku > id
//   - the currency token is canonicalized via NormalizeCurrency (never fails)
//   - value must be a finite number
//   - product-scoped events need at least one content id
//   - checkout and purchase events need id, quantity and price on every line
func Normalize(raw RawEvent) (NormalizedEvent, error) {
	if math.IsNaN(raw.Value) || math.IsInf(raw.Value, 0) {
		return NormalizedEvent{}, newValidationError(string(raw.Name), "value", "must be a finite number")
	}

	event := NormalizedEvent{
		Name:        raw.Name,
		Currency:    NormalizeCurrency(raw.Currency),
		Value:       raw.Value,
		OrderID:     raw.OrderID,
		SearchTerm:  raw.SearchTerm,
		ResultCount: raw.ResultCount,
		Metadata:    raw.Metadata,
	}

	lineItemsRequired := raw.Name == EventInitiateCheckout || raw.Name == EventPurchase

	for _, item := range raw.Items {
		id := item.Identifier()
		if lineItemsRequired {
			switch {
			case id == "":
				return NormalizedEvent{}, newValidationError(string(raw.Name), "items.id", "is required on every line item")
			case item.Quantity <= 0:
				return NormalizedEvent{}, newValidationError(string(raw.Name), "items.quantity", "must be positive")
			case math.IsNaN(item.Price) || math.IsInf(item.Price, 0) || item.Price < 0:
				return NormalizedEvent{}, newValidationError(string(raw.Name), "items.price", "must be a non-negative finite number")
			}
		}
		if id == "" {
			continue
		}
		event.ContentIDs = append(event.ContentIDs, id)
		event.Contents = append(event.Contents, Content{
			ID:       id,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	if raw.Name.ProductScoped() && len(event.ContentIDs) == 0 {
		return NormalizedEvent{}, newValidationError(string(raw.Name), "items", "must contain at least one content id")
	}

	if raw.User != nil {
		match := HashUser(*raw.User)
		event.Match = &match
	}

	return event, nil
}
