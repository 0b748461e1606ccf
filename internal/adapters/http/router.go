package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

// accessLog is shared by every app. WriterLevel starts a reader goroutine per
// call.
var accessLog = logrus.StandardLogger().WriterLevel(logrus.InfoLevel)

// Without ${time} the logger middleware starts no clock goroutine; logrus
// stamps each line itself.
const accessLogFormat = "${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n"

// NewApp wires the build API onto a fiber app.
func NewApp(auth Authorizer, service BuildService) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "aesir",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: accessLogFormat,
		Output: accessLog,
	}))

	app.Get("/healthz", Health)

	builds := NewBuildHandler(service)
	app.Post("/build", RequireOrgMember(auth), builds.Build)

	return app
}
