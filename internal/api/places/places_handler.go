package places

import (
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	appMiddleware "github.com/FACorreiaa/go-poi-walks/app/middleware"
	"github.com/FACorreiaa/go-poi-walks/internal/api"
	"github.com/FACorreiaa/go-poi-walks/internal/types"
	"github.com/FACorreiaa/go-poi-walks/internal/validation"
)

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// IngestPlaces handles POST /api/v1/admin/places.
func (h *Handler) IngestPlaces(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlacesHandler").Start(r.Context(), "IngestPlaces", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/admin/places"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "IngestPlaces"))
	if userID, ok := appMiddleware.GetUserIDFromContext(ctx); ok {
		span.SetAttributes(semconv.EnduserIDKey.String(userID))
		l = l.With(slog.String("userID", userID))
	}

	var req types.IngestPlacesRequest
	if err := api.DecodeJSONBodyLimit(w, r, &req, api.MaxIngestBodyBytes); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.BodyErrorResponse(w, r, err)
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		span.SetStatus(codes.Error, "Validation failed")
		api.ValidationErrorResponse(w, r, verr)
		return
	}

	resp, err := h.service.IngestPlaces(ctx, req.Places)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Ingestion failed")
		if errors.Is(err, ErrInvalidPlace) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		l.ErrorContext(ctx, "Failed to ingest places", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to ingest places")
		return
	}

	span.SetStatus(codes.Ok, "Places ingested")
	api.WriteJSONResponse(w, r, http.StatusCreated, resp)
}
