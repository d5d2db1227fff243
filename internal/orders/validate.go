package orders

import "fmt"

// ValidateCreateInput: cek bentuk input sebelum menyentuh DB. Stok & harga
// tetap divalidasi terhadap DB di CreateOrder.
func ValidateCreateInput(customer CustomerInfo, items []ItemInput) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: items empty", ErrInvalidInput)
	}
	if customer.Name == "" || customer.Email == "" || customer.Phone == "" {
		return fmt.Errorf("%w: customer name, email and phone are required", ErrInvalidInput)
	}
	for _, it := range items {
		if it.ProductID == "" {
			return fmt.Errorf("%w: product_id is required", ErrInvalidInput)
		}
		if it.Quantity < 1 {
			return fmt.Errorf("%w: quantity must be >= 1 for product %s", ErrInvalidInput, it.ProductID)
		}
	}
	return nil
}
