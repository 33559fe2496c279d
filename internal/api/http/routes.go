package httpapi

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/i474232898/watch-bridge/internal/dispatcher"
	"github.com/i474232898/watch-bridge/internal/geo"
	"github.com/i474232898/watch-bridge/internal/protocol"
	"github.com/i474232898/watch-bridge/internal/store"
)

var validate = validator.New()

// Deps are the collaborators behind the device gateway.
type Deps struct {
	Dispatcher *dispatcher.Dispatcher
	Outbox     *store.Outbox
	Positions  geo.Cache
	Defaults   protocol.Defaults
	Logger     *zap.Logger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Post("/devices/:device/messages", func(c *fiber.Ctx) error {
		device, err := parseDevice(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var dict protocol.Dict
		if err := json.Unmarshal(c.Body(), &dict); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid message: "+err.Error())
		}

		req, err := protocol.DecodeRequest(dict, deps.Defaults)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		deps.Logger.Debug("message received",
			zap.String("device", device),
			zap.Stringer("kind", req.Kind),
			zap.Int32("message_id", req.MessageID),
		)

		pipelines := deps.Dispatcher.Dispatch(req, deps.Outbox.For(device))
		ids := make([]string, 0, len(pipelines))
		for _, p := range pipelines {
			ids = append(ids, p.ID)
		}

		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"pipelines": len(pipelines),
			"ids":       ids,
		})
	})

	v1.Get("/devices/:device/messages", func(c *fiber.Ctx) error {
		device, err := parseDevice(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		envelopes, err := deps.Outbox.Drain(device)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no queued replies for device")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read queued replies")
		}

		return c.JSON(fiber.Map{
			"device":   device,
			"messages": envelopes,
		})
	})

	v1.Put("/position", func(c *fiber.Ctx) error {
		var pos geo.Position
		if err := json.Unmarshal(c.Body(), &pos); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid position: "+err.Error())
		}
		if err := validate.Struct(pos); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := deps.Positions.Store(c.UserContext(), geo.Fix{Position: pos, At: time.Now()}); err != nil {
			deps.Logger.Error("failed to store position", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "failed to store position")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// deviceParam identifies the watch a message belongs to.
type deviceParam struct {
	ID string `validate:"required,max=64,excludesall=/ "`
}

func parseDevice(c *fiber.Ctx) (string, error) {
	p := deviceParam{ID: c.Params("device")}
	if err := validate.Struct(p); err != nil {
		return "", err
	}
	return p.ID, nil
}
