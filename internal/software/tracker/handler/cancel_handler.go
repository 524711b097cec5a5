package handler

import (
	"github.com/gofiber/fiber/v2"
)

// ----- Handler: GET /cancel -----

func (handler *BridgeHandler) handleCancelStatus(c *fiber.Ctx) error {
	return c.JSON(handler.tracker.CancelStatus())
}

// ----- Handler: POST /cancel/open -----

func (handler *BridgeHandler) handleCancelOpen(c *fiber.Ctx) error {
	if err := handler.tracker.OpenCancel(); err != nil {
		return err
	}
	return c.JSON(handler.tracker.CancelStatus())
}

// ----- Handler: POST /cancel/reason -----

type cancelReasonRequest struct {
	Reason string `json:"reason"`
}

func (handler *BridgeHandler) handleCancelReason(c *fiber.Ctx) error {
	var req cancelReasonRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := handler.tracker.SelectCancelReason(req.Reason); err != nil {
		return err
	}
	return c.JSON(handler.tracker.CancelStatus())
}

// ----- Handler: POST /cancel/submit -----

func (handler *BridgeHandler) handleCancelSubmit(c *fiber.Ctx) error {
	if err := handler.tracker.SubmitCancel(handler.ctx(c)); err != nil {
		return err
	}
	return c.JSON(handler.tracker.CancelStatus())
}

// ----- Handler: POST /cancel/dismiss -----

func (handler *BridgeHandler) handleCancelDismiss(c *fiber.Ctx) error {
	handler.tracker.DismissCancel()
	return c.JSON(handler.tracker.CancelStatus())
}

// ----- Handler: POST /cancel/ack -----

func (handler *BridgeHandler) handleCancelAck(c *fiber.Ctx) error {
	if !handler.tracker.AcknowledgeCancel(handler.ctx(c)) {
		return fiber.NewError(fiber.StatusConflict, "no driver cancellation to acknowledge")
	}
	return c.JSON(handler.tracker.CancelStatus())
}
