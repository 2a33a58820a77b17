package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config carries everything the api and worker binaries read from the
// environment. Table names default to the conventional names so local runs
// against dynamodb-local need no setup beyond AWS_ENDPOINT_OVERRIDE.
type Config struct {
	ProductsTable      string `mapstructure:"PRODUCTS_TABLE"`
	CartsTable         string `mapstructure:"CARTS_TABLE"`
	CartLinesTable     string `mapstructure:"CART_LINES_TABLE"`
	OrdersTable        string `mapstructure:"ORDERS_TABLE"`
	OrderLinesTable    string `mapstructure:"ORDER_LINES_TABLE"`
	DeliveryZonesTable string `mapstructure:"DELIVERY_ZONES_TABLE"`

	FulfillmentQueueURL string `mapstructure:"FULFILLMENT_QUEUE_URL"`
	MetricsNamespace    string `mapstructure:"METRICS_NAMESPACE"`

	GatewayBaseURL      string `mapstructure:"PAYMENT_GATEWAY_URL"`
	GatewayAPISecret    string `mapstructure:"PAYMENT_GATEWAY_API_SECRET"`
	GatewayHookSecret   string `mapstructure:"PAYMENT_GATEWAY_WEBHOOK_SECRET"`
	Currency            string `mapstructure:"CURRENCY"`
	ShippingFlatFee     int64  `mapstructure:"SHIPPING_FLAT_FEE"`
	TaxFlatFee          int64  `mapstructure:"TAX_FLAT_FEE"`
}

var envKeys = []string{
	"PRODUCTS_TABLE",
	"CARTS_TABLE",
	"CART_LINES_TABLE",
	"ORDERS_TABLE",
	"ORDER_LINES_TABLE",
	"DELIVERY_ZONES_TABLE",
	"FULFILLMENT_QUEUE_URL",
	"METRICS_NAMESPACE",
	"PAYMENT_GATEWAY_URL",
	"PAYMENT_GATEWAY_API_SECRET",
	"PAYMENT_GATEWAY_WEBHOOK_SECRET",
	"CURRENCY",
	"SHIPPING_FLAT_FEE",
	"TAX_FLAT_FEE",
}

// Load reads the config from the environment via viper.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("PRODUCTS_TABLE", "products")
	v.SetDefault("CARTS_TABLE", "carts")
	v.SetDefault("CART_LINES_TABLE", "cart_lines")
	v.SetDefault("ORDERS_TABLE", "orders")
	v.SetDefault("ORDER_LINES_TABLE", "order_lines")
	v.SetDefault("DELIVERY_ZONES_TABLE", "delivery_zones")
	v.SetDefault("METRICS_NAMESPACE", "Storefront/Checkout")
	v.SetDefault("CURRENCY", "USD")
	v.SetDefault("SHIPPING_FLAT_FEE", 0)
	v.SetDefault("TAX_FLAT_FEE", 0)

	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
