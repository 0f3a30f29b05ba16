package api

import (
	"errors"
	"fmt"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Trendyol/go-dispatch/chain"
	"github.com/Trendyol/go-dispatch/command"
	"github.com/Trendyol/go-dispatch/config"
	"github.com/Trendyol/go-dispatch/logger"
	"github.com/Trendyol/go-dispatch/mediator"
	"github.com/Trendyol/go-dispatch/metric"
	"github.com/Trendyol/go-dispatch/models"
	"github.com/Trendyol/go-dispatch/observer"
)

// Registry resolves named instances served by the API.
type Registry interface {
	Subject(name string) (*observer.Subject[string], bool)
	Mediator(name string) (*mediator.Hub, bool)
	Chain(name string) (*chain.Chain[string], bool)
	Invoker(name string) (*command.Invoker, bool)
	Snapshot() models.RegistrySnapshot
}

type API interface {
	Listen() error
	Shutdown() error
	UnregisterMetricCollectors()
}

type api struct {
	registry   Registry
	app        *fiber.App
	config     *config.Dispatch
	registerer *metric.Registerer
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func (s *api) Listen() error {
	logger.Log.Info("api starting on port %d", s.config.API.Port)

	err := s.app.Listen(fmt.Sprintf(":%d", s.config.API.Port))
	if err != nil {
		logger.Log.Error("api cannot start on port %d, err: %v", s.config.API.Port, err)
		return err
	}

	logger.Log.Info("api stopped")
	return nil
}

func (s *api) Shutdown() error {
	err := s.app.Shutdown()
	if err != nil {
		logger.Log.Error("error while api cannot be shutdown, err: %v", err)
	}
	return err
}

func (s *api) UnregisterMetricCollectors() {
	s.registerer.UnregisterAll()
}

func (s *api) status(c *fiber.Ctx) error {
	return c.SendString("OK")
}

func (s *api) snapshot(c *fiber.Ctx) error {
	return c.JSON(s.registry.Snapshot())
}

func (s *api) notify(c *fiber.Ctx) error {
	subject, ok := s.registry.Subject(c.Params("name"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "subject not found")
	}

	var req models.NotifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid request body")
	}

	subject.SetState(req.Payload)

	return c.JSON(fiber.Map{"observers": subject.Len()})
}

func (s *api) perform(c *fiber.Ctx) error {
	hub, ok := s.registry.Mediator(c.Params("name"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "mediator not found")
	}

	err := hub.Perform(c.Params("component"), c.Params("action"))
	if errors.Is(err, mediator.ErrUnknownComponent) || errors.Is(err, mediator.ErrUnknownAction) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return err
	}

	return c.SendString("OK")
}

func (s *api) handle(c *fiber.Ctx) error {
	ch, ok := s.registry.Chain(c.Params("name"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "chain not found")
	}

	var req models.ChainRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid request body")
	}

	result := ch.Handle(req.Request)

	return c.JSON(fiber.Map{
		"outcome":  result.Outcome.String(),
		"handler":  result.Handler,
		"position": result.Position,
	})
}

func (s *api) press(c *fiber.Ctx) error {
	invoker, ok := s.registry.Invoker(c.Params("name"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "invoker not found")
	}

	return c.JSON(fiber.Map{"executed": invoker.PressButton()})
}

func (s *api) undo(c *fiber.Ctx) error {
	invoker, ok := s.registry.Invoker(c.Params("name"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "invoker not found")
	}

	return c.JSON(fiber.Map{"undone": invoker.UndoButton()})
}

// NewAPI registers collectors on reg and serves gatherer on the metric path.
func NewAPI(
	config *config.Dispatch,
	registry Registry,
	collectors []prometheus.Collector,
	reg prometheus.Registerer,
	gatherer prometheus.Gatherer,
) API {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	api := &api{
		app:        app,
		config:     config,
		registry:   registry,
		registerer: metric.WrapWithRegisterer(reg),
	}

	err := api.registerer.RegisterAll(collectors)
	if err == nil {
		app.Use(newMetricMiddleware(app, config, reg, gatherer))
	} else {
		logger.Log.Error("metric middleware cannot be initialized: %v", err)
	}

	if config.Debug {
		app.Use(pprof.New())
	}

	app.Get("/status", api.status)
	app.Get("/registry", api.snapshot)
	app.Post("/subjects/:name/notify", api.notify)
	app.Post("/mediators/:name/components/:component/actions/:action", api.perform)
	app.Post("/chains/:name/requests", api.handle)
	app.Post("/invokers/:name/press", api.press)
	app.Post("/invokers/:name/undo", api.undo)

	return api
}

func newMetricMiddleware(
	app *fiber.App,
	config *config.Dispatch,
	reg prometheus.Registerer,
	gatherer prometheus.Gatherer,
) func(ctx *fiber.Ctx) error {
	fiberPrometheus := fiberprometheus.NewWithRegistry(reg, config.Name, "http", "", nil)
	app.Get(config.Metric.Path, adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	logger.Log.Info("metric middleware registered on path %s", config.Metric.Path)

	return fiberPrometheus.Middleware
}
