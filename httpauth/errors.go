package httpauth

import (
	"context"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	auth "github.com/goliatone/go-auth-jwt"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

const (
	TextCodeValidation = "VALIDATION_FAILED"
	TextCodeInternal   = "INTERNAL"
)

var statusByCode = map[string]int{
	auth.TextCodeAlreadyExists:     router.StatusConflict,
	auth.TextCodeDuplicateIdentity: router.StatusConflict,
	auth.TextCodeInvalidCreds:      router.StatusBadRequest,
	auth.TextCodeNotFound:          router.StatusNotFound,
	auth.TextCodeSubjectMissing:    router.StatusNotFound,
	auth.TextCodeTokenExpired:      router.StatusUnauthorized,
	auth.TextCodeInvalidToken:      router.StatusUnauthorized,
	auth.TextCodeTokenMissing:      router.StatusBadRequest,
	auth.TextCodeNotActivated:      router.StatusForbidden,
	auth.TextCodeCredentialTooLong: router.StatusUnprocessableEntity,
	auth.TextCodeEmptyPassword:     router.StatusUnprocessableEntity,
	auth.TextCodeProtectedClaim:    router.StatusBadRequest,
}

var detailByCode = map[string]string{
	auth.TextCodeAlreadyExists:     "User with this email already exists",
	auth.TextCodeDuplicateIdentity: "User with this email already exists",
	auth.TextCodeInvalidCreds:      "Invalid credentials",
	auth.TextCodeNotFound:          "Not found",
	auth.TextCodeSubjectMissing:    "User not found",
	auth.TextCodeTokenExpired:      "Token expired",
	auth.TextCodeInvalidToken:      "Invalid token",
	auth.TextCodeTokenMissing:      "Token is missing",
	auth.TextCodeNotActivated:      "Account is not activated",
	auth.TextCodeCredentialTooLong: "Password is too long",
	auth.TextCodeEmptyPassword:     "Password must not be empty",
	auth.TextCodeProtectedClaim:    "Invalid claims",
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Code   string            `json:"code"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}

// StatusFor maps an error to its HTTP status. Unknown errors are 500.
func StatusFor(err error) int {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return router.StatusUnprocessableEntity
	}
	if status, ok := statusByCode[auth.ErrorKind(err)]; ok {
		return status
	}
	return router.StatusInternalServerError
}

func (a *Controller) sendError(ctx router.Context, err error) error {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for k, v := range verrs {
			fields[k] = v.Error()
		}
		return ctx.JSON(router.StatusUnprocessableEntity, ErrorResponse{
			Code:   TextCodeValidation,
			Detail: "Validation failed",
			Fields: fields,
		})
	}

	code := auth.ErrorKind(err)
	if status, ok := statusByCode[code]; ok {
		a.Logger.Debug("request rejected", "path", ctx.Path(), "text_code", code)
		return ctx.JSON(status, ErrorResponse{Code: code, Detail: detailByCode[code]})
	}

	if errors.Is(err, context.Canceled) {
		a.Logger.Info("request canceled", "path", ctx.Path())
	} else {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			a.Logger.Error("request failed",
				"path", ctx.Path(),
				"error", richErr.Error(),
				"category", richErr.Category,
				"details", print.MaybePrettyJSON(richErr.Metadata),
			)
		} else {
			a.Logger.Error("request failed", "path", ctx.Path(), "error", err)
		}
	}

	return ctx.JSON(router.StatusInternalServerError, ErrorResponse{
		Code:   TextCodeInternal,
		Detail: "Internal server error",
	})
}
