package domain

// CartStorageKey is the durable storage key shared by every storefront context.
const CartStorageKey = "cartItems"

type CartEntry struct {
	Name     string  `json:"name,omitempty"`
	Price    float64 `json:"price,omitempty"`
	Size     string  `json:"size,omitempty"`
	Image    string  `json:"image,omitempty"`
	Quantity int     `json:"quantity"`
}

// CartItems maps product id to its cart entry. A nil map means "not loaded",
// an empty one is a loaded, empty cart.
type CartItems map[string]CartEntry

func (c CartItems) Clone() CartItems {
	out := make(CartItems, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Count is the badge number shown in the navigation chrome.
func (c CartItems) Count() int {
	total := 0
	for _, e := range c {
		total += e.Quantity
	}
	return total
}

// CartChange is a storage mutation announced to the other contexts.
type CartChange struct {
	Key      string `json:"key"`
	Value    string `json:"value"`  // Raw JSON as written to storage, empty when cleared
	Origin   string `json:"origin"` // Context that produced the write
	Sequence uint64 `json:"sequence"`
}
