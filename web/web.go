// Package web provides the embedded web UI for browsing and running
// evaluations.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lemonberrylabs/exprcalc/pkg/calc"
	"github.com/lemonberrylabs/exprcalc/pkg/store"
	"github.com/lemonberrylabs/exprcalc/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

// recentLimit caps the history table on the dashboard. The state counts
// always cover the whole history.
const recentLimit = 50

// Handler serves the web UI pages.
type Handler struct {
	calc    *calc.Service
	funcMap template.FuncMap
}

// pageData wraps all page-specific data with common fields.
type pageData struct {
	NavActive string
	Types     []string
	Data      interface{}
}

// New creates a new web UI handler.
func New(svc *calc.Service) *Handler {
	return &Handler{
		calc: svc,
		funcMap: template.FuncMap{
			"shortName":  shortName,
			"timeAgo":    timeAgo,
			"formatTime": formatTime,
			"stateClass": stateClass,
			"stateIcon":  stateIcon,
			"truncate":   truncate,
			"countLines": countLines,
			"zip":        zip,
		},
	}
}

func (h *Handler) render(c *fiber.Ctx, page string, navActive string, data interface{}) error {
	// Each page is parsed with the layout on its own so their define blocks
	// never collide.
	tmpl, err := template.New("").Funcs(h.funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
	if err != nil {
		return c.Status(500).SendString(fmt.Sprintf("template error: %v", err))
	}

	pd := pageData{
		NavActive: navActive,
		Types:     types.Names,
		Data:      data,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, page, pd); err != nil {
		return c.Status(500).SendString(fmt.Sprintf("template error: %v", err))
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Send(buf.Bytes())
}

// Register adds web UI routes to the Fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/ui", h.dashboard)
	app.Post("/ui/evaluate", h.evaluate)
	app.Get("/ui/evaluations/:id", h.evaluationDetail)

	// Redirect root to UI
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/ui")
	})
}

// --- Page Data Types ---

type dashboardContent struct {
	Evaluations    []*store.Evaluation
	SucceededCount int
	FailedCount    int
}

type evaluationDetailContent struct {
	Evaluation *store.Evaluation
	ID         string
}

type notFoundContent struct {
	Message string
}

// --- Page Handlers ---

func (h *Handler) dashboard(c *fiber.Ctx) error {
	evs, err := h.calc.List(0)
	if err != nil {
		return c.Status(500).SendString(err.Error())
	}

	content := dashboardContent{Evaluations: evs[:min(len(evs), recentLimit)]}
	for _, ev := range evs {
		switch ev.State {
		case store.EvaluationSucceeded:
			content.SucceededCount++
		case store.EvaluationFailed:
			content.FailedCount++
		}
	}

	return h.render(c, "dashboard.html", "dashboard", content)
}

func (h *Handler) evaluate(c *fiber.Ctx) error {
	ev, err := h.calc.Evaluate(c.UserContext(), c.FormValue("expression"), c.FormValue("resultType"))
	if ev == nil {
		return c.Status(500).SendString(err.Error())
	}
	// A failed evaluation is recorded too; its page shows the error.
	return c.Redirect("/ui/evaluations/"+ev.ID(), fiber.StatusSeeOther)
}

func (h *Handler) evaluationDetail(c *fiber.Ctx) error {
	id := c.Params("id")
	ev, err := h.calc.Get(id)
	if err != nil {
		c.Status(404)
		return h.render(c, "not_found.html", "", notFoundContent{
			Message: fmt.Sprintf("Evaluation '%s' not found", id),
		})
	}

	return h.render(c, "evaluation_detail.html", "dashboard", evaluationDetailContent{
		Evaluation: ev,
		ID:         ev.ID(),
	})
}

// --- Template Helpers ---

// segment pairs one postfix queue with its rendered result.
type segment struct {
	Postfix string
	Result  string
}

func zip(postfix, results []string) []segment {
	out := make([]segment, len(postfix))
	for i := range postfix {
		out[i].Postfix = postfix[i]
		if i < len(results) {
			out[i].Result = results[i]
		}
	}
	return out
}

func shortName(fullName string) string {
	parts := strings.Split(fullName, "/")
	if len(parts) > 0 {
		return parts[len(parts)-1]
	}
	return fullName
}

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func stateClass(state store.EvaluationState) string {
	switch state {
	case store.EvaluationSucceeded:
		return "state-succeeded"
	case store.EvaluationFailed:
		return "state-failed"
	default:
		return ""
	}
}

func stateIcon(state store.EvaluationState) template.HTML {
	switch state {
	case store.EvaluationSucceeded:
		return "&#10003;"
	case store.EvaluationFailed:
		return "&#10007;"
	default:
		return "&#8226;"
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
