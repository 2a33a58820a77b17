package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopflow/storefront/internal/checkout"
	"github.com/shopflow/storefront/internal/orders"
	"github.com/shopflow/storefront/internal/payment"
	"github.com/shopflow/storefront/internal/validation"
)

// CustomerHeader carries the caller's identity. Session issuance is out of
// scope; the pipeline takes identity as explicit input.
const CustomerHeader = "X-Customer-Id"

// HandlerConfig groups dependencies for the checkout routes.
type HandlerConfig struct {
	Checkout *checkout.Service
}

// RegisterCheckoutRoutes registers the checkout, confirmation and webhook routes.
func RegisterCheckoutRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()

	r.POST("/checkout", func(c *gin.Context) {
		ctx := c.Request.Context()

		customerID := c.GetHeader(CustomerHeader)
		if customerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + CustomerHeader + " header", "code": checkout.CodeValidationFailed})
			return
		}

		var req validation.CheckoutRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		input := checkout.CheckoutInput{
			CustomerID:      customerID,
			Method:          orders.PaymentMethod(req.PaymentMethod),
			ShippingAddress: toAddress(req.ShippingAddress),
			CartDiscount:    req.CartDiscount,
			Tax:             req.Tax,
			Shipping:        req.Shipping,
			CorrelationID:   c.GetHeader("X-Request-Id"),
		}
		if req.BillingAddress != nil {
			billing := toAddress(*req.BillingAddress)
			input.BillingAddress = &billing
		}

		result, err := cfg.Checkout.Checkout(ctx, input)
		if err != nil {
			writeError(c, err)
			return
		}

		c.Header("Location", "/orders/"+result.OrderID)
		c.JSON(http.StatusCreated, result)
	})

	r.POST("/checkout/confirm", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.ConfirmPaymentRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		order, err := cfg.Checkout.ConfirmClientPayment(ctx, req.IntentID, req.PaymentID, req.Signature)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, orderResponse(order))
	})

	r.POST("/checkout/:orderId/cod-confirm", func(c *gin.Context) {
		ctx := c.Request.Context()

		customerID := c.GetHeader(CustomerHeader)
		if customerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + CustomerHeader + " header", "code": checkout.CodeValidationFailed})
			return
		}

		order, err := cfg.Checkout.ConfirmCashCollected(ctx, customerID, c.Param("orderId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, orderResponse(order))
	})

	r.POST("/webhooks/payment", func(c *gin.Context) {
		ctx := c.Request.Context()

		body, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body", "code": checkout.CodeValidationFailed})
			return
		}

		if err := cfg.Checkout.HandleWebhook(ctx, body, c.GetHeader(payment.SignatureHeader)); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
	})

	r.GET("/orders/:orderId", func(c *gin.Context) {
		ctx := c.Request.Context()

		customerID := c.GetHeader(CustomerHeader)
		if customerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + CustomerHeader + " header", "code": checkout.CodeValidationFailed})
			return
		}

		order, err := cfg.Checkout.GetOrder(ctx, customerID, c.Param("orderId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, orderResponse(order))
	})
}

func toAddress(a validation.AddressPayload) orders.Address {
	return orders.Address{
		Name:       a.Name,
		Street:     a.Street,
		City:       a.City,
		Region:     a.Region,
		Country:    a.Country,
		PostalCode: a.PostalCode,
		Phone:      a.Phone,
	}
}

func orderResponse(o *orders.Order) gin.H {
	resp := gin.H{
		"order_id":       o.OrderID,
		"status":         o.Status,
		"payment_method": o.PaymentMethod,
		"payment_status": o.PaymentStatus,
		"subtotal":       o.Subtotal,
		"discount":       o.Discount,
		"tax":            o.Tax,
		"shipping":       o.Shipping,
		"total":          o.Total,
		"currency":       o.Currency,
	}
	if o.GatewayIntentID != "" {
		resp["gateway_intent_id"] = o.GatewayIntentID
	}
	if o.GatewayPaymentID != "" {
		resp["gateway_payment_id"] = o.GatewayPaymentID
	}
	if o.ConfirmedAt != nil {
		resp["confirmed_at"] = o.ConfirmedAt
	}
	return resp
}

// writeError maps pipeline errors onto HTTP statuses and the stable
// {error, code} body.
func writeError(c *gin.Context, err error) {
	var ce *checkout.Error
	if !errors.As(err, &ce) {
		log.Printf("handlers: unclassified error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": checkout.CodePersistence})
		return
	}

	status := http.StatusInternalServerError
	switch ce.Code {
	case checkout.CodeValidationFailed, checkout.CodeEmptyCart:
		status = http.StatusBadRequest
	case checkout.CodeNotFound:
		status = http.StatusNotFound
	case checkout.CodeDeliveryUnavailable:
		status = http.StatusUnprocessableEntity
	case checkout.CodeInsufficientStock:
		status = http.StatusConflict
	case checkout.CodeSignatureMismatch:
		status = http.StatusUnauthorized
	case checkout.CodePaymentGateway:
		status = http.StatusBadGateway
	}

	if status >= 500 {
		log.Printf("handlers: %s: %v", ce.Code, err)
	}
	c.JSON(status, gin.H{"error": ce.Message, "code": ce.Code})
}
