package server

import (
	"context"
	"errors"
	"log/slog"
	"memochat/app/config"
	"memochat/app/service/fixtures"
	"memochat/app/service/workflow"

	_ "embed"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

//go:embed index.html
var indexPage []byte

type Server struct {
	cfg         *config.Config
	workflowSvc *workflow.Service
	fixturesSvc *fixtures.Service

	app *fiber.App
}

func New(di *do.Injector) (*Server, error) {
	s := &Server{
		cfg:         do.MustInvoke[*config.Config](di),
		workflowSvc: do.MustInvoke[*workflow.Service](di),
		fixturesSvc: do.MustInvoke[*fixtures.Service](di),
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Get("/", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.Send(indexPage)
	})

	api := app.Group("/api")
	api.Post("/chat", s.handleChat)
	api.Get("/state/:thread", s.handleGetState)
	api.Delete("/state/:thread", s.handleResetState)
	api.Get("/examples", s.handleListExamples)
	api.Post("/examples/:name", s.handleLoadExample)

	s.app = app

	return s, nil
}

// Run serves HTTP until the context is cancelled, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		slog.Info("HTTP server listening", "addr", s.cfg.Server.Listen)
		return s.app.Listen(s.cfg.Server.Listen)
	})

	group.Go(func() error {
		<-ctx.Done()
		return s.app.Shutdown()
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
