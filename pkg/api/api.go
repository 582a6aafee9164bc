// Package api implements the REST API for evaluating expressions and
// browsing the evaluation history.
package api

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lemonberrylabs/exprcalc/pkg/calc"
	"github.com/lemonberrylabs/exprcalc/pkg/store"
	"github.com/lemonberrylabs/exprcalc/pkg/types"
)

// Server is the HTTP API server.
type Server struct {
	app  *fiber.App
	calc *calc.Service
}

// New creates a new API server.
func New(svc *calc.Service) *Server {
	srv := &Server{calc: svc}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	app.Get("/healthz", srv.health)
	app.Get("/v1/types", srv.listTypes)

	app.Post("/v1/evaluations", srv.createEvaluation)
	app.Get("/v1/evaluations/:id", srv.getEvaluation)
	app.Get("/v1/evaluations", srv.listEvaluations)
	app.Delete("/v1/evaluations/:id", srv.deleteEvaluation)

	srv.app = app
	return srv
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Serve serves HTTP on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

type createEvaluationRequest struct {
	Expression string `json:"expression"`
	ResultType string `json:"resultType"`
}

func (s *Server) createEvaluation(c *fiber.Ctx) error {
	var req createEvaluationRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err), nil)
	}

	ev, err := s.calc.Evaluate(c.UserContext(), req.Expression, req.ResultType)
	if ev == nil {
		return errorResponse(c, 500, "INTERNAL", err.Error(), nil)
	}
	if err != nil {
		fields := fiber.Map{"name": ev.Name}
		var ce *types.CalcError
		if errors.As(err, &ce) {
			fields["tags"] = ce.Tags
			if ce.Pos >= 0 {
				fields["position"] = ce.Pos
			}
		}
		return errorResponse(c, 400, "INVALID_ARGUMENT", err.Error(), fields)
	}

	return c.JSON(evaluationToJSON(ev))
}

func (s *Server) getEvaluation(c *fiber.Ctx) error {
	ev, err := s.calc.Get(c.Params("id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(evaluationToJSON(ev))
}

func (s *Server) listEvaluations(c *fiber.Ctx) error {
	evs, err := s.calc.List(c.QueryInt("pageSize", 0))
	if err != nil {
		return storeError(c, err)
	}

	items := make([]fiber.Map, len(evs))
	for i, ev := range evs {
		items[i] = evaluationToJSON(ev)
	}

	return c.JSON(fiber.Map{
		"evaluations": items,
	})
}

func (s *Server) deleteEvaluation(c *fiber.Ctx) error {
	if err := s.calc.Delete(c.Params("id")); err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{})
}

func (s *Server) listTypes(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"types": types.Names,
	})
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

// --- Helpers ---

func errorResponse(c *fiber.Ctx, code int, status, message string, extra fiber.Map) error {
	body := fiber.Map{
		"code":    code,
		"message": message,
		"status":  status,
	}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(code).JSON(fiber.Map{"error": body})
}

func storeError(c *fiber.Ctx, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return errorResponse(c, 404, "NOT_FOUND", err.Error(), nil)
	}
	return errorResponse(c, 500, "INTERNAL", err.Error(), nil)
}

func evaluationToJSON(ev *store.Evaluation) fiber.Map {
	result := fiber.Map{
		"name":       ev.Name,
		"expression": ev.Expression,
		"state":      ev.State,
		"createTime": ev.CreateTime.Format(time.RFC3339Nano),
	}

	if ev.ResultType != "" {
		result["resultType"] = ev.ResultType
	}
	if ev.Results != nil {
		result["results"] = ev.Results
	}
	if ev.Postfix != nil {
		result["postfix"] = ev.Postfix
	}
	if ev.Error != "" {
		result["error"] = ev.Error
	}

	return result
}
