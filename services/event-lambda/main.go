package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/eventhive-services/common/config"
	"github.com/eventhive-services/common/db"
	"github.com/eventhive-services/common/jwt"
	"github.com/eventhive-services/common/logger"
	"github.com/eventhive-services/services/event-lambda/handler"
	"github.com/eventhive-services/services/event-lambda/repository"
	"github.com/eventhive-services/services/event-lambda/usecase"
)

// For AWS Lambda deployment
// This file is used when deploying to AWS Lambda
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config: %v", err)
	}
	if err := db.InitDB(cfg); err != nil {
		logger.Fatal("database: %v", err)
	}
	jwt.SetSecret(cfg.JWTSecret)

	repo := repository.NewEventRepository(db.GetDB())
	eventHandler := handler.NewEventHandler(usecase.NewEventUseCase(repo))

	// Lambda handler for API Gateway events
	lambda.Start(eventHandler.Route)
}
