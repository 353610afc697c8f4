package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/avoid"
	"github.com/teslashibe/go-rover/pkg/car"
	"github.com/teslashibe/go-rover/pkg/hub"
	"github.com/teslashibe/go-rover/pkg/protocol"
)

// handleState returns the current vehicle snapshot.
func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.svc.Snapshot())
}

// handleDistance returns the last known distance with sentinel semantics.
func (s *Server) handleDistance(c *fiber.Ctx) error {
	return c.JSON(protocol.DistanceReply{Distance: s.svc.Distance()})
}

// handleGetAvoidParams returns the active avoidance tuning.
func (s *Server) handleGetAvoidParams(c *fiber.Ctx) error {
	return c.JSON(s.ctrl.Params())
}

// handleSetAvoidParams hot-swaps the avoidance tuning. A tuning that fails
// validation is rejected and the previous one stays in effect.
func (s *Server) handleSetAvoidParams(c *fiber.Ctx) error {
	var p avoid.Params
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err := s.ctrl.SetParams(p); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(s.ctrl.Params())
}

// handleToggleAvoid toggles autonomous mode and returns the post-toggle
// snapshot. A request inside the debounce window returns the unchanged
// snapshot.
func (s *Server) handleToggleAvoid(c *fiber.Ctx) error {
	st, err := s.svc.ProcessAction(car.ActionToggleAvoid, nil)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(st)
}

// handleControlWS serves the persistent manual control channel. Inbound
// frames are {action, payload}; every accepted mutation comes back to all
// observers as a state broadcast, and rejected commands get a direct error
// reply on the same connection.
func (s *Server) handleControlWS(c *websocket.Conn) {
	client := hub.NewClient(s.state, c, s.handleControlFrame)
	client.Run()
}

// handleControlFrame decodes and applies one inbound command. Protocol
// faults are reported to the sender; the connection stays open.
func (s *Server) handleControlFrame(data []byte) []byte {
	cmd, err := protocol.ParseCommand(data)
	if err != nil {
		return errorReply("", err)
	}

	// Distance queries get a direct reply instead of a broadcast.
	if cmd.Action == car.ActionDistance {
		if _, err := s.svc.ProcessAction(cmd.Action, cmd.Payload); err != nil {
			return errorReply(cmd.Action, err)
		}
		msg, err := protocol.NewMessage(protocol.TypeDistance, protocol.DistanceReply{
			Distance: s.svc.Distance(),
		})
		if err != nil {
			return nil
		}
		out, _ := msg.Bytes()
		return out
	}

	if _, err := s.svc.ProcessAction(cmd.Action, cmd.Payload); err != nil {
		log.Debug("command rejected", "action", cmd.Action, "err", err)
		return errorReply(cmd.Action, err)
	}
	return nil
}

func errorReply(action string, err error) []byte {
	msg, merr := protocol.NewMessage(protocol.TypeError, protocol.ErrorReply{
		Action: action,
		Error:  err.Error(),
	})
	if merr != nil {
		return nil
	}
	out, _ := msg.Bytes()
	return out
}
