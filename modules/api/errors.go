package api

import (
	"errors"
	"log"

	"github.com/000francisca0/Peluchemaniav3/modules/admin"
	"github.com/000francisca0/Peluchemaniav3/modules/backend"
	"github.com/000francisca0/Peluchemaniav3/modules/catalog"
	"github.com/000francisca0/Peluchemaniav3/modules/checkout"
	"github.com/000francisca0/Peluchemaniav3/modules/report"
	"github.com/000francisca0/Peluchemaniav3/modules/session"
	"github.com/gofiber/fiber/v2"
)

// Client-side routes the storefront sends the user to.
const (
	RedirectLogin = "/inicio"
	RedirectCart  = "/carro"
)

// Messages shown to the user.
const (
	MsgInvalidCredentials = "Correo o contraseña incorrectos."
	MsgLoginRequired      = "Debes iniciar sesión para continuar."
	MsgForbidden          = "No tienes permisos para esta sección."
	MsgNotFound           = "Recurso no encontrado."
	MsgEmptyCart          = "Tu carrito está vacío."
	MsgSubmitInProgress   = "Tu compra ya se está procesando."
	MsgKeyReused          = "Esta compra ya fue registrada con otro contenido. Recarga el carrito e inténtalo de nuevo."
	MsgConfirmation       = "Confirma la eliminación para continuar."
	MsgConflict           = "La operación entra en conflicto con datos existentes."
	MsgInvalidDate        = "Fechas inválidas, usa el formato AAAA-MM-DD."
	MsgInternal           = "Ocurrió un error inesperado."
)

// errForbidden is returned when the session role may not use a back-office section.
var errForbidden = errors.New("forbidden")

// customErrorHandler maps domain errors to ErrorResponse bodies.
func customErrorHandler(c *fiber.Ctx, err error) error {
	status, resp := classify(err)
	if status == fiber.StatusInternalServerError {
		log.Printf("[api] Error: %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(resp)
}

// classify returns the HTTP status and body for err.
func classify(err error) (int, ErrorResponse) {
	var (
		sessErr  *session.ValidationError
		adminErr *admin.ValidationError
		apiErr   *backend.APIError
		fiberErr *fiber.Error
	)

	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code, ErrorResponse{Error: errorCode(fiberErr.Code), Message: fiberErr.Message}

	case errors.As(err, &sessErr):
		return fiber.StatusBadRequest, ErrorResponse{Error: "validation", Message: "Revisa los datos del formulario.", Fields: sessErr.Fields}
	case errors.As(err, &adminErr):
		return fiber.StatusBadRequest, ErrorResponse{Error: "validation", Message: adminErr.Message}
	case errors.Is(err, checkout.ErrInvalidAddress):
		return fiber.StatusBadRequest, ErrorResponse{Error: "validation", Message: checkout.MsgInvalidAddress}
	case errors.Is(err, report.ErrInvalidDate):
		return fiber.StatusBadRequest, ErrorResponse{Error: "validation", Message: MsgInvalidDate}

	case errors.Is(err, session.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: MsgInvalidCredentials}
	case errors.Is(err, session.ErrNotAuthenticated),
		errors.Is(err, session.ErrSessionExpired),
		errors.Is(err, checkout.ErrNotAuthenticated),
		errors.Is(err, backend.ErrUnauthorized):
		return fiber.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: MsgLoginRequired, Redirect: RedirectLogin}

	case errors.Is(err, errForbidden), errors.Is(err, backend.ErrForbidden):
		return fiber.StatusForbidden, ErrorResponse{Error: "forbidden", Message: MsgForbidden}
	case errors.Is(err, admin.ErrSelfDelete):
		return fiber.StatusForbidden, ErrorResponse{Error: "forbidden", Message: admin.MsgSelfDelete}

	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, admin.ErrUserNotFound),
		errors.Is(err, backend.ErrNotFound):
		return fiber.StatusNotFound, ErrorResponse{Error: "not_found", Message: MsgNotFound}

	case errors.Is(err, checkout.ErrEmptyCart):
		return fiber.StatusConflict, ErrorResponse{Error: "conflict", Message: MsgEmptyCart, Redirect: RedirectCart}
	case errors.Is(err, checkout.ErrSubmitInProgress):
		return fiber.StatusConflict, ErrorResponse{Error: "conflict", Message: MsgSubmitInProgress}
	case errors.Is(err, checkout.ErrKeyReused):
		return fiber.StatusUnprocessableEntity, ErrorResponse{Error: "idempotency_key_reused", Message: MsgKeyReused}
	case errors.Is(err, backend.ErrConflict):
		return fiber.StatusConflict, ErrorResponse{Error: "conflict", Message: backendMessage(err, MsgConflict)}

	case errors.Is(err, admin.ErrConfirmationRequired):
		return fiber.StatusPreconditionRequired, ErrorResponse{Error: "confirmation_required", Message: MsgConfirmation}

	case errors.Is(err, backend.ErrUnavailable):
		return fiber.StatusBadGateway, ErrorResponse{Error: "backend", Message: checkout.MsgConnectionError}
	case errors.As(err, &apiErr):
		return fiber.StatusBadGateway, ErrorResponse{Error: "backend", Message: backendMessage(err, checkout.MsgConnectionError)}

	default:
		return fiber.StatusInternalServerError, ErrorResponse{Error: "internal", Message: MsgInternal}
	}
}

// backendMessage returns the backend's own message, or fallback when it sent none.
func backendMessage(err error, fallback string) string {
	if msg := backend.Message(err); msg != "" {
		return msg
	}
	return fallback
}

func errorCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "bad_request"
	case fiber.StatusUnauthorized:
		return "unauthorized"
	case fiber.StatusForbidden:
		return "forbidden"
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	case fiber.StatusTooManyRequests:
		return "rate_limited"
	default:
		if status >= fiber.StatusInternalServerError {
			return "internal"
		}
		return "error"
	}
}
