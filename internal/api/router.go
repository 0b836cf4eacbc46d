package api

import (
	"errors"

	"docflow/docs"
	"docflow/internal/api/handlers"
	"docflow/pkg/auth"
	"docflow/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Handlers struct {
	Documents *handlers.DocumentHandler
	OCR       *handlers.OCRHandler
	Dispatch  *handlers.DispatchHandler
}

func SetupRouter(h Handlers, jwtManager *auth.JWTManager, appLogger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			if code == fiber.StatusInternalServerError {
				appLogger.Error("Unhandled request error", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	protected := app.Group("/api/v1", middleware.AuthMiddleware(jwtManager, appLogger))

	incoming := protected.Group("/incoming-files")
	incoming.Post("/:id/ocr", h.OCR.ProcessOCR)
	incoming.Post("/:id/ocr/retry", h.OCR.RetryOCR)
	incoming.Post("/:id/convert/bill", h.Documents.ConvertToBill)
	incoming.Post("/:id/convert/receipt", h.Documents.ConvertToReceipt)

	protected.Post("/bills/:id/revert", h.Documents.RevertBill)
	protected.Post("/receipts/:id/revert", h.Documents.RevertReceipt)

	documents := protected.Group("/documents")
	documents.Get("/:type/:id/revertible", h.Documents.Revertible)
	documents.Get("/:type/:id/ocr-history", h.OCR.History)

	ocr := protected.Group("/ocr")
	ocr.Get("/statistics", h.OCR.Statistics)
	ocr.Get("/engines", h.OCR.Engines)

	dispatch := protected.Group("/dispatch")
	dispatch.Get("/statistics", h.Dispatch.Statistics)
	dispatch.Post("/run", h.Dispatch.Run)

	return app
}
