package handler

import (
	"ride-tracker/internal/domain/trip"

	"github.com/gofiber/fiber/v2"
)

// ----- Handler: GET /health -----

func (handler *BridgeHandler) handleHealth(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.JSON(fiber.Map{"status": "ok"})
}

// ----- Handler: GET /view -----

type viewResponse struct {
	RiderID    string     `json:"rider_id"`
	Screen     string     `json:"screen"`
	Connection string     `json:"connection"`
	CarColor   string     `json:"car_color"`
	Active     bool       `json:"active"`
	View       *trip.View `json:"view"`
}

func (handler *BridgeHandler) handleView(c *fiber.Ctx) error {
	view := handler.tracker.View()
	return c.JSON(viewResponse{
		RiderID:    handler.tracker.RiderID(),
		Screen:     string(handler.tracker.Screen()),
		Connection: handler.tracker.Connection().String(),
		CarColor:   handler.tracker.CarColor(),
		Active:     view.Active(),
		View:       view,
	})
}

// ----- Handler: GET /map -----

func (handler *BridgeHandler) handleMap(c *fiber.Ctx) error {
	body, err := handler.surface.FeatureCollection().MarshalJSON()
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/geo+json")
	return c.Send(body)
}

// ----- Handler: GET /connection -----

func (handler *BridgeHandler) handleConnection(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"state": handler.tracker.Connection().String()})
}

// ----- Handler: POST /car-color -----

type carColorRequest struct {
	Color string `json:"color"`
}

func (handler *BridgeHandler) handleCarColor(c *fiber.Ctx) error {
	var req carColorRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := handler.tracker.SetCarColor(handler.ctx(c), req.Color); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"color": handler.tracker.CarColor()})
}
