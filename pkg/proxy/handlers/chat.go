package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/chatrelay/pkg/attachments"
	"mercator-hq/chatrelay/pkg/audit"
	"mercator-hq/chatrelay/pkg/conversation"
	"mercator-hq/chatrelay/pkg/providerfactory"
	"mercator-hq/chatrelay/pkg/providers"
	"mercator-hq/chatrelay/pkg/proxy"
	"mercator-hq/chatrelay/pkg/proxy/middleware"
	"mercator-hq/chatrelay/pkg/proxy/types"
	"mercator-hq/chatrelay/pkg/telemetry/logging"
	"mercator-hq/chatrelay/pkg/telemetry/metrics"
)

// RouteResolver picks the provider, credential and endpoint for a request.
type RouteResolver interface {
	Resolve(hint providerfactory.Hint) (*providerfactory.Route, error)
}

// AttachmentReader reads a referenced upload as text.
type AttachmentReader interface {
	Read(ref attachments.Ref) (string, error)
}

// AuditRecorder receives one record per chat request.
type AuditRecorder interface {
	Record(ctx context.Context, record *audit.Record) error
}

// ChatDeps are the collaborators of a ChatHandler. Resolver and Assembler
// are required; the rest may be nil.
type ChatDeps struct {
	Resolver     RouteResolver
	Assembler    *conversation.Assembler
	Attachments  AttachmentReader
	Metrics      *metrics.Collector
	Audit        AuditRecorder
	MaxBodyBytes int64
}

// ChatHandler serves POST /api/chat.
//
// It validates the request, resolves the route and assembles the context
// before committing any SSE header, so those failures are plain JSON
// errors. Once the stream is open every failure is reported in-band and
// the stream always ends with exactly one done frame, unless the client
// went away.
type ChatHandler struct {
	deps ChatDeps
}

// NewChatHandler creates a chat handler.
func NewChatHandler(deps ChatDeps) *ChatHandler {
	return &ChatHandler{deps: deps}
}

// ServeHTTP implements http.Handler.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	rec := &audit.Record{
		RequestID:   middleware.GetRequestID(ctx),
		RequestTime: start,
		RemoteAddr:  r.RemoteAddr,
		UserAgent:   r.UserAgent(),
		Stream:      true,
	}
	defer func() { h.complete(ctx, rec, start) }()

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.reject(ctx, w, rec, types.NewErrorResponse(http.StatusMethodNotAllowed,
			"Method "+r.Method+" not allowed. Use POST instead.", types.CodeMethodNotAllowed), nil)
		return
	}

	req, err := proxy.ParseChatRequest(r, h.deps.MaxBodyBytes)
	if err != nil {
		h.reject(ctx, w, rec, proxy.HandleError(err), err)
		return
	}
	rec.Stream = req.WantsStream()
	rec.Model = req.Model

	route, err := h.deps.Resolver.Resolve(providerfactory.Hint{
		Provider: req.Provider,
		Model:    req.Model,
		APIKey:   req.APIKey,
		Endpoint: req.Endpoint,
	})
	if err != nil {
		h.reject(ctx, w, rec, proxy.HandleError(err), err)
		return
	}
	rec.Provider = route.ProviderName
	rec.Model = route.Model
	rec.EndpointHost = route.EndpointHost()

	ctx = logging.WithProvider(ctx, route.ProviderName)
	ctx = logging.WithModel(ctx, route.Model)

	messages, stats, err := h.deps.Assembler.Assemble(h.input(ctx, req))
	if err != nil {
		h.reject(ctx, w, rec, proxy.HandleError(err), err)
		return
	}
	rec.Turns = stats.Turns
	rec.History = stats.History
	rec.AttachmentChars = stats.AttachmentChars
	rec.Truncated = stats.Truncated
	if stats.Truncated {
		h.deps.Metrics.RecordTruncation()
	}

	slog.DebugContext(ctx, "relaying chat request",
		"endpoint_host", rec.EndpointHost,
		"turns", stats.Turns,
		"history", stats.History,
		"attachment_chars", stats.AttachmentChars,
		"stream", rec.Stream,
	)

	stream := proxy.OpenEventStream(w)
	stream.OnFrame(h.deps.Metrics.RecordFrame)
	rec.Status = http.StatusOK

	h.deps.Metrics.StreamOpened()
	defer h.deps.Metrics.StreamClosed()

	h.relay(ctx, stream, route, &providers.Call{
		Endpoint:   route.Endpoint,
		Credential: route.Credential,
		Model:      route.Model,
		Messages:   messages,
		Stream:     rec.Stream,
	}, rec, start)

	rec.Frames = stream.Frames()
	h.deps.Metrics.UpdateProviderHealth(route.ProviderName, route.Provider.GetHealth().IsHealthy)
}

// relay opens the upstream call and forwards its deltas until a terminal
// delta, the end of the channel or a client disconnect.
func (h *ChatHandler) relay(ctx context.Context, stream *proxy.EventStream, route *providerfactory.Route, call *providers.Call, rec *audit.Record, start time.Time) {
	// Cancelling on return stops the upstream reader if we leave early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h.deps.Metrics.RecordUpstreamCall(route.ProviderName, route.Model)

	deltas, err := route.Provider.Open(ctx, call)
	if err != nil {
		h.fail(ctx, stream, rec, err)
		return
	}

	first := true
	for {
		select {
		case <-ctx.Done():
			h.disconnected(ctx, stream, rec)
			return

		case d, ok := <-deltas:
			if !ok {
				if ctx.Err() != nil {
					h.disconnected(ctx, stream, rec)
					return
				}
				h.done(ctx, stream, rec)
				return
			}

			switch d.Kind {
			case providers.DeltaText:
				if d.Passthrough {
					h.deps.Metrics.RecordPassthrough(route.ProviderName)
				}
				if first {
					first = false
					rec.FirstDeltaLatency = time.Since(start)
					h.deps.Metrics.RecordFirstDelta(route.ProviderName, route.Model, rec.FirstDeltaLatency)
				}
				if err := stream.Send(d.Text); err != nil {
					h.disconnected(ctx, stream, rec)
					return
				}

			case providers.DeltaDone:
				h.done(ctx, stream, rec)
				return

			case providers.DeltaError:
				h.fail(ctx, stream, rec, d.Err)
				return
			}
		}
	}
}

func (h *ChatHandler) done(ctx context.Context, stream *proxy.EventStream, rec *audit.Record) {
	if err := stream.Close(); err != nil {
		h.disconnected(ctx, stream, rec)
		return
	}
	rec.Outcome = audit.OutcomeDone
}

// fail reports an upstream failure in-band. A failure caused by the client
// going away is not reported at all.
func (h *ChatHandler) fail(ctx context.Context, stream *proxy.EventStream, rec *audit.Record, err error) {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		h.disconnected(ctx, stream, rec)
		return
	}

	rec.Error = err.Error()
	rec.ErrorType = proxy.ErrorClass(err)
	h.deps.Metrics.RecordProviderError(rec.Provider, rec.ErrorType)

	slog.WarnContext(ctx, "upstream failed",
		"error", err,
		"error_type", rec.ErrorType,
		"frames", stream.Frames(),
	)

	if werr := stream.Fail(proxy.StreamErrorMessage(err)); werr != nil {
		h.disconnected(ctx, stream, rec)
		return
	}
	rec.Outcome = audit.OutcomeError
}

func (h *ChatHandler) disconnected(ctx context.Context, stream *proxy.EventStream, rec *audit.Record) {
	stream.Abort()
	rec.Outcome = audit.OutcomeDisconnected
	slog.InfoContext(ctx, "client disconnected", "frames", stream.Frames())
}

// reject writes a JSON error before any SSE header.
func (h *ChatHandler) reject(ctx context.Context, w http.ResponseWriter, rec *audit.Record, errResp *types.ErrorResponse, cause error) {
	rec.Outcome = audit.OutcomeRejected
	rec.Status = errResp.HTTPStatusCode()
	rec.Error = errResp.Error
	rec.ErrorType = errResp.Code

	level := slog.LevelWarn
	if rec.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	attrs := []any{"status", rec.Status, "code", errResp.Code}
	if cause != nil {
		attrs = append(attrs, "error", cause)
	}
	slog.Log(ctx, level, "chat request rejected", attrs...)

	if err := proxy.WriteErrorResponse(w, errResp); err != nil {
		slog.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}

// complete records metrics and the audit record for a finished request.
func (h *ChatHandler) complete(ctx context.Context, rec *audit.Record, start time.Time) {
	rec.Duration = time.Since(start)
	h.deps.Metrics.RecordRequest(rec.Provider, rec.Model, rec.Outcome, rec.Duration)

	slog.InfoContext(ctx, "chat request completed",
		"outcome", rec.Outcome,
		"status", rec.Status,
		"frames", rec.Frames,
		"duration_ms", rec.Duration.Milliseconds(),
	)

	if h.deps.Audit == nil {
		return
	}
	// The request context may already be cancelled; the record must still be written.
	if err := h.deps.Audit.Record(context.WithoutCancel(ctx), rec); err != nil {
		slog.WarnContext(ctx, "failed to queue audit record", "error", err)
	}
}

// input resolves attachments and maps the request to assembler input.
// Unreadable attachments are logged and treated as unavailable.
func (h *ChatHandler) input(ctx context.Context, req *types.ChatRequest) *conversation.Input {
	in := &conversation.Input{
		Message:      req.Message,
		SystemPrompt: req.SystemPrompt,
		File:         h.readFile(ctx, req.File),
	}

	if len(req.Messages) > 0 {
		in.History = make([]conversation.Turn, 0, len(req.Messages))
		for _, t := range req.Messages {
			in.History = append(in.History, conversation.Turn{
				Role:    t.Role,
				Content: t.Content,
				HasFile: t.File != nil,
				File:    h.readFile(ctx, t.File),
			})
		}
	}

	return in
}

func (h *ChatHandler) readFile(ctx context.Context, ref *types.FileRef) *conversation.File {
	if ref == nil || ref.Path == "" || h.deps.Attachments == nil {
		return nil
	}

	content, err := h.deps.Attachments.Read(attachments.Ref{Path: ref.Path, Filename: ref.Filename})
	if err != nil {
		slog.WarnContext(ctx, "attachment unavailable",
			"path", ref.Path,
			"error", err,
		)
		return nil
	}

	return &conversation.File{Name: ref.Filename, Content: content}
}
