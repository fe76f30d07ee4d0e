package checkout

import (
	"encoding/json"
	"fmt"

	"github.com/odyssey-erp/storefront/internal/shared"
)

// CartSessionKey stores the encoded cart in the shopper session.
const CartSessionKey = "cart"

// MaxLineQuantity caps a single cart line.
const MaxLineQuantity = 999

// Line is one product and quantity in a cart or quote request.
type Line struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,min=1,max=999"`
}

// Cart keeps lines in insertion order, at most one line per product.
type Cart struct {
	lines []Line
}

// LoadCart decodes the cart from the session. A missing cart is empty.
func LoadCart(sess *shared.Session) (*Cart, error) {
	cart := &Cart{}
	if sess == nil {
		return cart, nil
	}
	raw := sess.Get(CartSessionKey)
	if raw == "" {
		return cart, nil
	}
	if err := json.Unmarshal([]byte(raw), &cart.lines); err != nil {
		return &Cart{}, fmt.Errorf("checkout: decode cart: %w", err)
	}
	return cart, nil
}

// Save encodes the cart into the session.
func (c *Cart) Save(sess *shared.Session) error {
	if sess == nil {
		return nil
	}
	if len(c.lines) == 0 {
		sess.Delete(CartSessionKey)
		return nil
	}
	payload, err := json.Marshal(c.lines)
	if err != nil {
		return fmt.Errorf("checkout: encode cart: %w", err)
	}
	sess.Set(CartSessionKey, string(payload))
	return nil
}

// Add increases the quantity of productID, creating the line when needed.
func (c *Cart) Add(productID int64, quantity int) {
	if quantity < 1 {
		return
	}
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines[i].Quantity = min(c.lines[i].Quantity+quantity, MaxLineQuantity)
			return
		}
	}
	c.lines = append(c.lines, Line{ProductID: productID, Quantity: min(quantity, MaxLineQuantity)})
}

// SetQuantity replaces the quantity of an existing line. Zero or less removes it.
func (c *Cart) SetQuantity(productID int64, quantity int) {
	if quantity < 1 {
		c.Remove(productID)
		return
	}
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines[i].Quantity = min(quantity, MaxLineQuantity)
			return
		}
	}
}

// Remove drops the line for productID if present.
func (c *Cart) Remove(productID int64) {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// Lines returns a copy of the cart lines.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len reports the number of distinct products.
func (c *Cart) Len() int {
	return len(c.lines)
}
