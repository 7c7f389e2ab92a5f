package main

import (
	"context"
	"flag"
	"log/slog"
	"memochat/app/config"
	"memochat/app/server"
	"memochat/app/service/fixtures"
	"memochat/app/service/replay"
	"memochat/app/service/session"
	"memochat/app/service/workflow"
	"memochat/app/util/mylog"
	"os"
	"os/signal"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
	"github.com/samber/do"
)

func main() {
	replayName := flag.String("replay", "", "replay a bundled example conversation and exit")
	flag.Parse()

	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	_ = godotenv.Load()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, session.NewStore)
	do.Provide(di, fixtures.New)
	do.Provide(di, workflow.New)
	do.Provide(di, replay.New)
	do.Provide(di, server.New)

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	if *replayName != "" {
		if err = do.MustInvoke[*replay.Service](di).Run(appCtx, *replayName); err != nil {
			log.Fatalf("replay failed: %v", err)
		}
		return
	}

	slog.Info("Service started")

	if err = do.MustInvoke[*server.Server](di).Run(appCtx); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
