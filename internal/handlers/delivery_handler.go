package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopflow/storefront/internal/checkout"
	"github.com/shopflow/storefront/internal/delivery"
)

// RegisterDeliveryRoutes registers the delivery-eligibility probe. A
// location no zone covers is a normal `eligible: false` answer, not an
// error; only store access failures produce an error body.
func RegisterDeliveryRoutes(r *gin.Engine, resolver *delivery.Resolver) {
	r.GET("/delivery/eligibility", func(c *gin.Context) {
		ctx := c.Request.Context()

		country := c.Query("country")
		if country == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "country is required", "code": checkout.CodeValidationFailed})
			return
		}

		zone, err := resolver.Resolve(ctx, delivery.Location{
			Country: country,
			Region:  c.Query("region"),
			City:    c.Query("city"),
		})
		if errors.Is(err, delivery.ErrNotEligible) {
			c.JSON(http.StatusOK, gin.H{"eligible": false})
			return
		}
		if err != nil {
			log.Printf("handlers: resolve eligibility: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "zone lookup failed", "code": checkout.CodePersistence})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"eligible": true,
			"zone_id":  zone.ZoneID,
			"country":  zone.Country,
			"region":   zone.Region,
			"city":     zone.City,
		})
	})
}
