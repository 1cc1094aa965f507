package walk

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-poi-walks/internal/api"
	"github.com/FACorreiaa/go-poi-walks/internal/types"
	"github.com/FACorreiaa/go-poi-walks/internal/validation"
)

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// PlanWalk handles POST /api/v1/walks.
func (h *Handler) PlanWalk(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("WalkHandler").Start(r.Context(), "PlanWalk", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/walks"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "PlanWalk"))
	l.DebugContext(ctx, "Plan walk handler invoked")

	var req types.WalkRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid request body")
		api.BodyErrorResponse(w, r, err)
		return
	}

	if verr := validation.ValidateStruct(req); verr != nil {
		l.WarnContext(ctx, "Walk request failed validation", slog.Any("error", verr))
		span.SetStatus(codes.Error, "Validation failed")
		api.ValidationErrorResponse(w, r, verr)
		return
	}

	resp, err := h.service.PlanWalk(ctx, req)
	if err != nil {
		status, message := statusFor(err)
		l.ErrorContext(ctx, "Failed to plan walk", slog.Any("error", err), slog.Int("status", status))
		span.RecordError(err)
		span.SetStatus(codes.Error, message)
		api.ErrorResponse(w, r, status, message)
		return
	}

	span.SetStatus(codes.Ok, "Walk planned")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Planning the walk took too long"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "Request cancelled"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable, "Language model temporarily unavailable, please retry later"
	case errors.Is(err, ErrEmbeddingFailed):
		return http.StatusInternalServerError, "Failed to process the walk description"
	case errors.Is(err, ErrSearchFailed):
		return http.StatusInternalServerError, "Failed to search places"
	case errors.Is(err, ErrExplanationFailed):
		return http.StatusInternalServerError, "Failed to describe the walk"
	default:
		return http.StatusInternalServerError, "Failed to plan walk"
	}
}
