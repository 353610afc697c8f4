// Package web exposes the rover's external surface: the persistent manual
// control channel over websocket and a small REST API for settings and
// telemetry.
package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/avoid"
	"github.com/teslashibe/go-rover/pkg/car"
	"github.com/teslashibe/go-rover/pkg/hub"
)

// Server is the rover's HTTP and websocket front-end.
type Server struct {
	app  *fiber.App
	port string

	svc   *car.Service
	ctrl  *avoid.Controller
	state *hub.Hub
}

// NewServer wires the external surface around the service, controller and
// broadcast hub.
func NewServer(port string, svc *car.Service, ctrl *avoid.Controller, state *hub.Hub) *Server {
	s := &Server{
		port:  port,
		svc:   svc,
		ctrl:  ctrl,
		state: state,
	}

	app := fiber.New(fiber.Config{
		AppName:               "go-rover",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/state", s.handleState)
	api.Get("/distance", s.handleDistance)
	api.Get("/settings/avoid", s.handleGetAvoidParams)
	api.Post("/settings/avoid", s.handleSetAvoidParams)
	api.Post("/avoid/toggle", s.handleToggleAvoid)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/control", websocket.New(s.handleControlWS))

	s.app = app
	return s
}

// Start runs the broadcast hub and listens. Blocks.
func (s *Server) Start() error {
	log.Info("rover control surface listening", "port", s.port)
	go s.state.Run()
	return s.app.Listen(":" + s.port)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
