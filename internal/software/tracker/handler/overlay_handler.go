package handler

import (
	"ride-tracker/internal/software/gesture"

	"github.com/gofiber/fiber/v2"
)

type overlayResponse struct {
	Visible  bool          `json:"visible"`
	Position gesture.Point `json:"position"`
	Outcome  string        `json:"outcome,omitempty"`
	Screen   string        `json:"screen"`
}

func (handler *BridgeHandler) overlayState(outcome gesture.Outcome) overlayResponse {
	res := overlayResponse{
		Visible:  handler.tracker.OverlayVisible(),
		Position: handler.tracker.OverlayPosition(),
		Screen:   string(handler.tracker.Screen()),
	}
	if outcome != gesture.OutcomeNone {
		res.Outcome = outcome.String()
	}
	return res
}

// ----- Handler: GET /overlay -----

func (handler *BridgeHandler) handleOverlay(c *fiber.Ctx) error {
	return c.JSON(handler.overlayState(gesture.OutcomeNone))
}

// ----- Handler: POST /overlay/pointer -----

type pointerRequest struct {
	Action string  `json:"action"` // down | move | up
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

func (handler *BridgeHandler) handleOverlayPointer(c *fiber.Ctx) error {
	var req pointerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	outcome, err := handler.tracker.OverlayPointer(handler.ctx(c), req.Action, gesture.Point{X: req.X, Y: req.Y})
	if err != nil {
		return err
	}
	return c.JSON(handler.overlayState(outcome))
}

// ----- Handler: POST /overlay/key -----

type keyRequest struct {
	Key string `json:"key"`
}

func (handler *BridgeHandler) handleOverlayKey(c *fiber.Ctx) error {
	var req keyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	outcome, err := handler.tracker.OverlayKey(handler.ctx(c), req.Key)
	if err != nil {
		return err
	}
	return c.JSON(handler.overlayState(outcome))
}
