package log

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
)

const (
	// ErrAttrKey is the attribute key under which errors are logged.
	ErrAttrKey = "error"

	// StacktraceAttrKey carries the stack captured when the error was
	// created.
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr wraps an error for slog so StackHandler can recover its stack.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// StackHandler decorates a slog handler so that records carrying an
// error-valued attribute also emit the stacktrace recorded at error
// creation. Errors built by pkg/errors store that stack in their
// cockroachdb safe details.
type StackHandler struct {
	next slog.Handler
}

// WithStackHandler wraps next in a StackHandler.
func WithStackHandler(next slog.Handler) slog.Handler {
	return &StackHandler{next: next}
}

func (h *StackHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.next.Enabled(ctx, l)
}

// Handle scans the record for the first error attribute with a recorded
// stack and attaches it as a string attribute.
func (h *StackHandler) Handle(ctx context.Context, r slog.Record) error {
	var stack string
	r.Attrs(func(attr slog.Attr) bool {
		err, ok := attr.Value.Any().(error)
		if !ok {
			return true
		}
		if details := errors.GetSafeDetails(err).SafeDetails; len(details) > 0 {
			stack = details[0]
		}
		return stack == ""
	})
	if stack != "" {
		r.AddAttrs(slog.String(StacktraceAttrKey, stack))
	}
	return h.next.Handle(ctx, r)
}

func (h *StackHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &StackHandler{next: h.next.WithAttrs(attrs)}
}

func (h *StackHandler) WithGroup(g string) slog.Handler {
	return &StackHandler{next: h.next.WithGroup(g)}
}
