// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/turnixpro/turnix/app/dto"
	businessflow "github.com/turnixpro/turnix/business_flow"
	"github.com/turnixpro/turnix/utils"
)

const defaultRequestTimeout = 30 * time.Second

func errorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func successResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// businessErrorStatus maps a business flow error onto an HTTP status and a stable code
func businessErrorStatus(err error) (int, string) {
	var be *businessflow.BusinessError
	if !errors.As(err, &be) {
		return fiber.StatusInternalServerError, "INTERNAL_ERROR"
	}

	switch be.Code {
	case businessflow.CodeValidation:
		return fiber.StatusBadRequest, be.Code
	case businessflow.CodeAllocationConflict, businessflow.CodeArchiveRunning:
		return fiber.StatusConflict, be.Code
	case businessflow.CodeAllocationTimeout:
		return fiber.StatusServiceUnavailable, be.Code
	case businessflow.CodeBackingStore:
		return fiber.StatusBadGateway, be.Code
	case businessflow.CodeSpaceExhausted:
		return fiber.StatusInsufficientStorage, be.Code
	case businessflow.CodeGestionNotFound:
		return fiber.StatusNotFound, be.Code
	case businessflow.CodeNothingToExport:
		return fiber.StatusBadRequest, be.Code
	default:
		return fiber.StatusInternalServerError, be.Code
	}
}

// handleBusinessError renders err in the standard envelope. Retryable failures carry a hint in details.
func handleBusinessError(c fiber.Ctx, err error, fallbackMessage string) error {
	status, code := businessErrorStatus(err)

	message := fallbackMessage
	var be *businessflow.BusinessError
	if errors.As(err, &be) && status != fiber.StatusInternalServerError {
		message = be.Message
	}

	var details any
	if businessflow.IsRetryable(err) {
		details = fiber.Map{"retryable": true}
	}
	return errorResponse(c, status, message, code, details)
}

func validationErrorDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, getValidationErrorMessage(fe))
	}
	return details
}

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "min":
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "len":
		return err.Field() + " must be exactly " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}

// createRequestContext carries request metadata into the flows and bounds the call with timeout
func createRequestContext(c fiber.Ctx, endpoint string, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, requestID(c))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	return ctx, cancel
}

func clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(requestID(c))
	return metadata
}

// requestID prefers the id assigned by the requestid middleware over the inbound header
func requestID(c fiber.Ctx) string {
	if id := requestid.FromContext(c); id != "" {
		return id
	}
	return c.Get("X-Request-ID")
}
