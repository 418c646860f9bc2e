package apperr

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// StatusCode maps an error onto an HTTP status.
func StatusCode(err error) int {
	e := As(err)
	if e == nil {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindPermission:
		if e.Reason == ReasonWrongPin || e.Reason == ReasonBadCredentials {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindStateConflict:
		if e.Reason == ReasonPinLocked {
			return http.StatusLocked
		}
		return http.StatusConflict
	case KindCollaborator:
		if e.Reason == ReasonDeclined {
			return http.StatusPaymentRequired
		}
		if e.Reason == ReasonPermissionDenied {
			return http.StatusFailedDependency
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// JSON writes err as an echo JSON error body.
func JSON(c echo.Context, err error) error {
	e := As(err)
	if e == nil || e.Kind == KindInternal {
		c.Logger().Errorf("internal error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error", "kind": KindInternal})
	}
	body := echo.Map{"error": e.Msg, "kind": e.Kind}
	if e.Reason != "" {
		body["reason"] = e.Reason
	}
	if e.Collaborator != "" {
		body["collaborator"] = e.Collaborator
	}
	return c.JSON(StatusCode(err), body)
}
