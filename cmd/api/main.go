package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/satriohadi/go-record-store/internal/config"
	"github.com/satriohadi/go-record-store/internal/httpx"
	kafkax "github.com/satriohadi/go-record-store/internal/kafka"
	"github.com/satriohadi/go-record-store/internal/orders"
	"github.com/satriohadi/go-record-store/internal/payment"
	"github.com/satriohadi/go-record-store/internal/pickup"
	"github.com/satriohadi/go-record-store/internal/postgres"
	"github.com/satriohadi/go-record-store/internal/reconcile"
	"github.com/satriohadi/go-record-store/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
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

	// Kafka producers, satu per topic
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	pCreated.Start(ctx)
	pPaid := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPaid, 1024)
	pPaid.Start(ctx)
	pCancel := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCancelled, 1024)
	pCancel.Start(ctx)
	pPickedUp := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPickedUp, 1024)
	pPickedUp.Start(ctx)

	repo := &orders.Repo{DB: db}
	gateway := payment.NewClient(cfg.MidtransBaseURL, cfg.MidtransServerKey)

	router := httpx.NewRouter()
	staff := httpx.RequireStaff(cfg.StaffTokens)

	oh := &httpx.OrdersHandler{
		Store:    repo,
		Gateway:  gateway,
		Producer: pCreated,
		Redis:    rdb,
		Service:  cfg.ServiceName,
		Logger:   logger,
	}
	oh.Register(router, staff)

	wh := &httpx.WebhookHandler{Reconciler: &reconcile.Service{
		Store:          repo,
		Redis:          rdb,
		ProducerPaid:   pPaid,
		ProducerCancel: pCancel,
		ServerKey:      cfg.MidtransServerKey,
		ServiceName:    cfg.ServiceName,
		Logger:         logger,
	}}
	wh.Register(router)

	ph := &httpx.PickupHandler{Service: &pickup.Service{
		Store:       repo,
		Redis:       rdb,
		Producer:    pPickedUp,
		ServiceName: cfg.ServiceName,
		Logger:      logger,
	}}
	ph.Register(router, staff)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	cancel() // stop producer loops, flush sisa pesan
	for _, p := range []*kafkax.Producer{pCreated, pPaid, pCancel, pPickedUp} {
		p.WaitClosed()
	}
}
