package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/winnerbanjo/nile-collective/internal/config"
	kafkax "github.com/winnerbanjo/nile-collective/internal/kafka"
	"github.com/winnerbanjo/nile-collective/internal/notify"
	"github.com/winnerbanjo/nile-collective/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	mailer := &notify.Mailer{
		Sender:     notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.StoreEmail),
		Redis:      rdb,
		StoreName:  cfg.StoreName,
		AdminEmail: cfg.AdminEmail,
	}

	group := getenv("MAILER_GROUP", "storefront-mailer")
	workers := mustAtoi(os.Getenv("MAILER_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, notify.Topic, workers)

	go func() {
		log.Printf("mailer consumer started: group=%s topic=%s workers=%d", group, notify.Topic, workers)
		if err := cons.Start(ctx, mailer.Handle); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down mailer...")
	cancel()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}
