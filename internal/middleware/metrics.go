package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics registers the HTTP metrics middleware and the /metrics endpoint on app.
// The collectors live in the default registry, so they are created once per process.
func InitMetrics(app *fiber.App, serviceName string) {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
		prom.SetSkipPaths([]string{"/metrics", "/health/live", "/health/ready"})
	})
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)
}
