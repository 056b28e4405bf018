package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/winnerbanjo/nile-collective/internal/config"
	"github.com/winnerbanjo/nile-collective/internal/httpx"
	kafkax "github.com/winnerbanjo/nile-collective/internal/kafka"
	"github.com/winnerbanjo/nile-collective/internal/notify"
	"github.com/winnerbanjo/nile-collective/internal/orders"
	"github.com/winnerbanjo/nile-collective/internal/paystack"
	"github.com/winnerbanjo/nile-collective/internal/postgres"
	"github.com/winnerbanjo/nile-collective/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Notification producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, notify.Topic, 1024)
	prod.Start(ctx)

	// Lifecycle service
	svc := &orders.Service{
		Orders:   &orders.Repo{DB: db},
		Stock:    &orders.StockRepo{DB: db},
		Verifier: paystack.NewClient(cfg.PaystackBaseURL, cfg.PaystackSecretKey),
		Notify:   &notify.KafkaDispatcher{Producer: prod, Service: cfg.ServiceName},
	}

	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{Service: svc, Redis: rdb}
	oh.Register(router)
	ph := &httpx.ProductsHandler{
		Products: &orders.ProductRepo{DB: db},
		Reviews:  &orders.ReviewRepo{DB: db},
	}
	ph.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close() // flush queued notifications, then close the writer
	prod.WaitClosed()
}
