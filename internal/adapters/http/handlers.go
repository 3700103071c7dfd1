package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"formations/internal/adapters/http/middleware"
	"formations/internal/adapters/storage"
	"formations/internal/adapters/upload"
	"formations/internal/application/catalog"
	"formations/internal/application/orchestrators"
	"formations/internal/domain/account"
	"formations/internal/domain/course"
	"formations/internal/domain/event"
	"formations/internal/domain/moderation"
	"formations/internal/domain/outbox"
	"formations/internal/domain/profile"
	"formations/internal/domain/review"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// validate checks request DTOs. Field names in errors are the JSON names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// errorResponse is the body of every non-2xx JSON reply.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// errBadJSON wraps body decoding failures.
var errBadJSON = errors.New("invalid JSON body")

// decodeJSON decodes the request body into v, rejecting unknown fields, then validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errors.Join(errBadJSON, err)
	}
	return validate.Struct(v)
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", "error", err)
	}
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}

// badRequestErrors are validation failures whose message is safe to show.
var badRequestErrors = []error{
	errBadJSON,
	account.ErrInvalidEmail, account.ErrEmptyEmail, account.ErrEmptyDisplayName, account.ErrInvalidRole,
	account.ErrEmptyPassword, account.ErrPasswordTooShort,
	course.ErrEmptyTitle, course.ErrTitleTooLong, course.ErrEmptyDescription, course.ErrEmptyDomain,
	course.ErrInvalidModality, course.ErrSessionNoDate, course.ErrNegativePrice,
	event.ErrEmptyTitle, event.ErrInvalidKind, event.ErrMissingStart, event.ErrEndBeforeStart, event.ErrInvalidStatus,
	moderation.ErrInvalidStatus, moderation.ErrInvalidTransition,
	profile.ErrKindMismatch,
	review.ErrInvalidRating, review.ErrCommentTooLong,
	catalog.ErrInvalidSort,
	upload.ErrEmptyPath, upload.ErrAbsolutePath, upload.ErrPathTraversal, upload.ErrBackslash,
	upload.ErrEmptyFile, upload.ErrTooLarge, upload.ErrUnsupportedType,
	orchestrators.ErrCurrentPasswordWrong, orchestrators.ErrNewPasswordSame,
	orchestrators.ErrNegativeAfficheOrder, orchestrators.ErrInvalidOrganization,
}

var conflictErrors = []error{
	orchestrators.ErrEmailAlreadyExists,
	orchestrators.ErrCourseNotPublished,
	profile.ErrNotOrphan,
	outbox.ErrTerminal,
}

// writeError maps a workflow error onto an HTTP status.
// Unknown errors are treated as internal and never echoed.
func writeError(w http.ResponseWriter, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fe.Field()] = fe.Tag()
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: fields})
		return
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
	case errors.Is(err, orchestrators.ErrUnauthenticated), errors.Is(err, orchestrators.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, orchestrators.ErrAccountLocked):
		writeJSON(w, http.StatusLocked, errorResponse{Error: err.Error()})
	case errors.Is(err, orchestrators.ErrForbidden), errors.Is(err, orchestrators.ErrNoLinkedProfile):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case matchesAny(err, conflictErrors):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case matchesAny(err, badRequestErrors):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: publicMessage(err)})
	default:
		internalError(w, err)
	}
}

func matchesAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// publicMessage drops decoder internals from a bad JSON error.
func publicMessage(err error) string {
	if errors.Is(err, errBadJSON) {
		return errBadJSON.Error()
	}
	return err.Error()
}

// actorFrom returns the caller of the request; the zero Actor when anonymous.
func actorFrom(r *http.Request) orchestrators.Actor {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		return orchestrators.Actor{}
	}
	return orchestrators.Actor{AccountID: sess.AccountID, DisplayName: sess.DisplayName, Role: sess.Role}
}

// requireAdmin writes 401 or 403 and returns false unless the caller is the admin.
func requireAdmin(w http.ResponseWriter, r *http.Request) (orchestrators.Actor, bool) {
	actor := actorFrom(r)
	if !actor.Authenticated() {
		writeError(w, orchestrators.ErrUnauthenticated)
		return actor, false
	}
	if !actor.IsAdmin() {
		slog.Warn("auth_denied", "path", r.URL.Path, "account_id", actor.AccountID, "role", actor.Role)
		writeError(w, orchestrators.ErrForbidden)
		return actor, false
	}
	return actor, true
}

// requireAuth writes 401 and returns false for anonymous callers.
func requireAuth(w http.ResponseWriter, r *http.Request) (orchestrators.Actor, bool) {
	actor := actorFrom(r)
	if !actor.Authenticated() {
		writeError(w, orchestrators.ErrUnauthenticated)
		return actor, false
	}
	return actor, true
}
