package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/awmpietro/golang-vehicle-diagnosis/internal/app"
	"github.com/awmpietro/golang-vehicle-diagnosis/internal/config"
	"github.com/awmpietro/golang-vehicle-diagnosis/internal/logging"
	"github.com/awmpietro/golang-vehicle-diagnosis/internal/transport/lambdatransport"
)

func main() {
	cfg := config.Load()
	logger := logging.Must(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	svc, closeFn, err := app.Build(cfg, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer closeFn()

	h := lambdatransport.NewHandler(svc, logger)

	lambda.Start(h.Diagnose)
}
