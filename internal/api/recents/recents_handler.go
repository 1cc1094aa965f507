package recents

import (
	"log/slog"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	appMiddleware "github.com/FACorreiaa/go-poi-walks/app/middleware"
	"github.com/FACorreiaa/go-poi-walks/internal/api"
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

// GetRecentWalks handles GET /api/v1/admin/walks/recent?limit=N.
func (h *Handler) GetRecentWalks(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RecentsHandler").Start(r.Context(), "GetRecentWalks", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/admin/walks/recent"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetRecentWalks"))
	if userID, ok := appMiddleware.GetUserIDFromContext(ctx); ok {
		l = l.With(slog.String("userID", userID))
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			span.SetStatus(codes.Error, "Invalid limit")
			api.ErrorResponse(w, r, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	resp, err := h.service.GetRecentWalks(ctx, limit)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get recent walks", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to get recent walks")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to get recent walks")
		return
	}

	span.SetStatus(codes.Ok, "Recent walks returned")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}
