package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/eventhive-services/common/config"
	"github.com/eventhive-services/common/db"
	"github.com/eventhive-services/common/idempotency"
	"github.com/eventhive-services/common/jwt"
	"github.com/eventhive-services/common/logger"
	"github.com/eventhive-services/services/booking-lambda/handler"
)

// For AWS Lambda deployment
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config: %v", err)
	}
	if err := db.InitDB(cfg); err != nil {
		logger.Fatal("database: %v", err)
	}
	jwt.SetSecret(cfg.JWTSecret)

	var idem idempotency.Store
	if cfg.RedisURL != "" {
		client, err := idempotency.NewRedisClient(cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis: %v", err)
		}
		idem = idempotency.NewRedisStore(client, cfg.IdempotencyTTL)
	}

	bookingHandler, err := handler.NewBookingHandlerFromDB(cfg, db.GetDB(), idem)
	if err != nil {
		logger.Fatal("booking handler: %v", err)
	}

	lambda.Start(bookingHandler.Route)
}
