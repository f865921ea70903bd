package catalog

import (
	"fmt"

	"github.com/proxuthanh99yd/jenho-rest-api/internal/apperr"
)

// ErrOutOfStock is returned when the requested quantity cannot be served.
var ErrOutOfStock = apperr.Conflict("out_of_stock", "product out of stock")

// Allows reports whether s can serve qty units. Unmanaged stock only needs
// the in-stock flag.
func (s Stock) Allows(qty int) bool {
	if !s.InStock {
		return false
	}
	if !s.Managed {
		return true
	}
	return qty <= s.Quantity
}

// IsAvailable reports whether qty units of the target selected by
// variationID are available. Unknown variations are unavailable.
func IsAvailable(p Product, variationID int64, qty int) bool {
	t, err := Resolve(p, variationID)
	if err != nil {
		return false
	}
	return t.Stock.Allows(qty)
}

// CheckStock is the error-returning form of IsAvailable.
func CheckStock(p Product, variationID int64, qty int) error {
	t, err := Resolve(p, variationID)
	if err != nil {
		return err
	}
	return CheckTarget(t, qty)
}

// CheckTarget validates qty against an already resolved target.
func CheckTarget(t Target, qty int) error {
	if t.Stock.Allows(qty) {
		return nil
	}
	return ErrOutOfStock.WithMessage(fmt.Sprintf("%s is out of stock for quantity %d", t.Name, qty))
}
