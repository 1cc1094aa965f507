package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/FACorreiaa/go-poi-walks/internal/validation"
)

// ErrorResponse writes a standard JSON error response including request ID.
func ErrorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := map[string]interface{}{
		"success":    false,
		"error":      message,
		"request_id": middleware.GetReqID(r.Context()),
	}
	WriteJSONResponse(w, r, status, resp)
}

// ValidationErrorResponse writes a 400 listing every failed field rule.
func ValidationErrorResponse(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	resp := map[string]interface{}{
		"success":    false,
		"error":      "VALIDATION_ERROR",
		"message":    verr.Error(),
		"fields":     verr.Fields,
		"request_id": middleware.GetReqID(r.Context()),
	}
	WriteJSONResponse(w, r, http.StatusBadRequest, resp)
}

// FormatVector renders v as a pgvector text literal, e.g. "[0.1,0.2]", to be
// cast with ::vector in SQL.
func FormatVector(v []float32) string {
	var b strings.Builder
	b.Grow(len(v)*10 + 2)
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// WriteJSONResponse encodes data as the response body with the given status.
func WriteJSONResponse(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	body, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(r.Context(), "Response not encodable",
			slog.Any("error", err),
			slog.String("request_id", middleware.GetReqID(r.Context())))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.WarnContext(r.Context(), "Client went away before the response was written",
			slog.Any("error", err),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	}
}

// Body size limits for JSON requests.
const (
	MaxBodyBytes       = 1 << 20
	MaxIngestBodyBytes = 8 << 20
)

// BodyError is a request body the client must fix. Its message is safe to
// return as is.
type BodyError struct {
	Status int
	Msg    string
}

func (e *BodyError) Error() string {
	return e.Msg
}

func badBody(format string, args ...any) *BodyError {
	return &BodyError{Status: http.StatusBadRequest, Msg: fmt.Sprintf(format, args...)}
}

// DecodeJSONBody decodes exactly one JSON value of at most MaxBodyBytes into
// dst, rejecting unknown fields.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	return DecodeJSONBodyLimit(w, r, dst, MaxBodyBytes)
}

// DecodeJSONBodyLimit is DecodeJSONBody with a caller chosen size limit.
// Every client mistake comes back as a *BodyError.
func DecodeJSONBodyLimit(w http.ResponseWriter, r *http.Request, dst interface{}, limit int64) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return describeDecodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return badBody("body must only contain a single JSON value")
	}
	return nil
}

func describeDecodeError(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.Is(err, io.EOF):
		return badBody("body must not be empty")
	case errors.As(err, &syntaxErr):
		return badBody("body contains badly-formed JSON (at character %d)", syntaxErr.Offset)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return badBody("body contains badly-formed JSON")
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return badBody("body contains incorrect JSON type for field %q (wanted %s)", typeErr.Field, typeErr.Type)
	case errors.As(err, &typeErr):
		return badBody("body contains incorrect JSON type (at character %d)", typeErr.Offset)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return badBody("body contains unknown key %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
	case errors.As(err, &tooLarge):
		return &BodyError{
			Status: http.StatusRequestEntityTooLarge,
			Msg:    fmt.Sprintf("body must not be larger than %d bytes", tooLarge.Limit),
		}
	default:
		return fmt.Errorf("decode JSON body: %w", err)
	}
}

// BodyErrorResponse answers a failed DecodeJSONBody: the BodyError's status
// and message, or a generic 400 for anything else.
func BodyErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var bodyErr *BodyError
	if errors.As(err, &bodyErr) {
		ErrorResponse(w, r, bodyErr.Status, bodyErr.Msg)
		return
	}
	ErrorResponse(w, r, http.StatusBadRequest, "body could not be decoded")
}
