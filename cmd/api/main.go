package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/shopflow/storefront/internal/aws"
	"github.com/shopflow/storefront/internal/cart"
	"github.com/shopflow/storefront/internal/catalog"
	"github.com/shopflow/storefront/internal/checkout"
	"github.com/shopflow/storefront/internal/config"
	"github.com/shopflow/storefront/internal/delivery"
	"github.com/shopflow/storefront/internal/handlers"
	"github.com/shopflow/storefront/internal/inventory"
	"github.com/shopflow/storefront/internal/orders"
	"github.com/shopflow/storefront/internal/payment"
	"github.com/shopflow/storefront/internal/pricing"
)

const gatewayTimeout = 10 * time.Second

func setupRouter(svc *checkout.Service, resolver *delivery.Resolver) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterCheckoutRoutes(r, handlers.HandlerConfig{Checkout: svc})
	handlers.RegisterDeliveryRoutes(r, resolver)

	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	productStore := catalog.NewStore(clients.DynamoDB, cfg.ProductsTable)
	cartStore := cart.NewStore(clients.DynamoDB, cfg.CartsTable, cfg.CartLinesTable)
	orderStore := orders.NewStore(clients.DynamoDB, cfg.OrdersTable, cfg.OrderLinesTable)
	zoneStore := delivery.NewStore(clients.DynamoDB, cfg.DeliveryZonesTable)
	resolver := delivery.NewResolver(zoneStore)

	svc := checkout.NewService(checkout.ServiceConfig{
		Carts:     cartStore,
		Orders:    orderStore,
		Pricer:    pricing.NewEngine(productStore),
		Zones:     resolver,
		Inventory: inventory.NewCoordinator(productStore),
		Gateway:   payment.NewClient(cfg.GatewayBaseURL, gatewayTimeout),
		Verifier:  payment.NewVerifier(cfg.GatewayAPISecret, cfg.GatewayHookSecret),
		Publisher: aws.NewPublisher(clients.SQS, cfg.FulfillmentQueueURL),
		Metrics:   aws.NewMetricsEmitter(clients.CloudWatch, cfg.MetricsNamespace),
		Currency:  cfg.Currency,
	})

	r := setupRouter(svc, resolver)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		addr := ":8080"
		log.Printf("running local server on %s", addr)
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
