package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// register struct-level validation for CheckoutRequest for rules that
	// span multiple fields.
	v.RegisterStructValidation(checkoutStructValidation, CheckoutRequest{})

	return v
}

// checkoutStructValidation enforces cross-field checkout rules: cash on
// delivery needs a courier contact phone on the shipping address.
func checkoutStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CheckoutRequest)

	if req.PaymentMethod == "CASH_ON_DELIVERY" && req.ShippingAddress.Phone == "" {
		sl.ReportError(req.ShippingAddress.Phone, "shipping_address.phone", "Phone", "required_for_cod", "")
	}
}
