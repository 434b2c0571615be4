package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	traceIDHeader = "X-Trace-Id"
	traceIDLocal  = "trace_id"

	// maxTraceIDLen bounds inbound IDs so a hostile header cannot bloat logs.
	maxTraceIDLen = 64
)

// Tracing tags every request with a trace ID. An inbound X-Trace-Id (set by a
// proxy or a retrying client) is reused so one logical operation keeps one ID
// across hops; otherwise a fresh one is minted.
func Tracing() fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := c.Get(traceIDHeader)
		if traceID == "" || len(traceID) > maxTraceIDLen {
			traceID = uuid.New().String()
		}
		c.Locals(traceIDLocal, traceID)
		c.Set(traceIDHeader, traceID)
		return c.Next()
	}
}

// GetTraceID returns the trace ID stored on the request, or "" outside the
// Tracing middleware.
func GetTraceID(c *fiber.Ctx) string {
	if id, ok := c.Locals(traceIDLocal).(string); ok {
		return id
	}
	return ""
}
