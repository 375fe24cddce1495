package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hvaldes/tienda_api/internal/config"
	"github.com/hvaldes/tienda_api/internal/files"
	"github.com/hvaldes/tienda_api/internal/httpserver"
	"github.com/hvaldes/tienda_api/internal/logging"
	"github.com/hvaldes/tienda_api/internal/mercadopago"
	"github.com/hvaldes/tienda_api/internal/mykafka"
	"github.com/hvaldes/tienda_api/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger := logging.New(cfg.LOG_LEVEL)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(initCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var producer *mykafka.Producer
	if brokers := cfg.KafkaBrokers(); len(brokers) > 0 {
		producer = mykafka.NewProducer(brokers)
		defer producer.Close()
	}

	var gateway service.Gateway
	if cfg.MP_ACCESS_TOKEN != "" {
		gateway = mercadopago.NewClient(cfg.MP_ACCESS_TOKEN)
	} else {
		logger.Warn("MP_ACCESS_TOKEN not set, checkout runs without gateway redirect")
	}

	checkoutSvc := &service.CheckoutService{
		DB:        db,
		Gateway:   gateway,
		NotifyURL: cfg.APP_BASE_URL + "/api/checkout/webhook",
		Log:       logger,
	}
	orderSvc := &service.OrderService{
		DB:  db,
		Log: logger,
	}
	if producer != nil {
		checkoutSvc.Producer = producer
		orderSvc.Producer = producer
	}

	e := echo.New()
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	httpserver.Register(e, &httpserver.Deps{
		Checkout:  &httpserver.CheckoutHTTP{Svc: checkoutSvc},
		Order:     &httpserver.OrderHTTP{Svc: orderSvc, Files: files.NewStore(cfg.UPLOAD_DIR, "/uploads")},
		JWTSecret: []byte(cfg.JWT_SECRET),
		UploadDir: cfg.UPLOAD_DIR,
	})

	go func() {
		if err := e.Start(":" + cfg.SERVER_PORT); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}
}
