package server

import (
	"log/slog"
	"memochat/app/service/workflow"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type chatRequest struct {
	ThreadID string `json:"thread_id"`
	Message  string `json:"message"`
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message must not be empty",
		})
	}

	if req.ThreadID == "" {
		req.ThreadID = uuid.NewString()
	}

	result, err := s.workflowSvc.ProcessTurn(c.Context(), req.ThreadID, req.Message)
	if err != nil {
		slog.Error("Turn failed",
			"thread", req.ThreadID,
			"error", err)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"thread_id":   result.ThreadID,
		"reply":       result.Reply,
		"analysis":    result.State.Analysis,
		"token_count": result.State.TokenCount,
	})
}

func (s *Server) handleGetState(c *fiber.Ctx) error {
	threadID := c.Params("thread")

	state, err := s.workflowSvc.StateOf(threadID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"thread_id":       threadID,
		"messages":        state.Messages,
		"summary":         state.Summary,
		"analysis":        state.Analysis,
		"token_count":     state.TokenCount,
		"token_threshold": workflow.TokenThreshold,
	})
}

func (s *Server) handleResetState(c *fiber.Ctx) error {
	threadID := c.Params("thread")

	if err := s.workflowSvc.Reset(threadID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"thread_id": threadID,
		"reset":     true,
	})
}

func (s *Server) handleListExamples(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"examples": s.fixturesSvc.Names(),
	})
}

type loadExampleRequest struct {
	ThreadID string `json:"thread_id"`
}

func (s *Server) handleLoadExample(c *fiber.Ctx) error {
	name := c.Params("name")

	conversation, ok := s.fixturesSvc.Get(name)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Example not found",
		})
	}

	var req loadExampleRequest
	_ = c.BodyParser(&req)
	if req.ThreadID == "" {
		req.ThreadID = uuid.NewString()
	}

	state, err := s.workflowSvc.LoadConversation(req.ThreadID, conversation.Messages)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"thread_id":   req.ThreadID,
		"messages":    state.Messages,
		"token_count": state.TokenCount,
	})
}
