package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserAlreadyExists is returned when trying to register an existing email.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailNotVerified is returned when logging in before verifying the email.
	ErrEmailNotVerified = errors.New("email address is not verified")
	// ErrInvalidCode is returned for wrong or expired verification and login codes.
	ErrInvalidCode = errors.New("invalid or expired code")
	// ErrInvalidResetToken is returned for wrong or expired password reset tokens.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
	// ErrInvalidRefreshToken is returned when refresh token is invalid or expired.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	// ErrUnauthorized is returned when no valid session is present.
	ErrUnauthorized = errors.New("please log in again")
	// ErrForbidden is returned when the caller may not perform the operation.
	ErrForbidden = errors.New("permission denied")

	// ErrTwoFactorRequired is returned when login needs a TOTP token.
	ErrTwoFactorRequired = errors.New("two-factor token required")
	// ErrInvalidTwoFactorToken is returned when a TOTP token does not validate.
	ErrInvalidTwoFactorToken = errors.New("invalid two-factor token")
	// ErrTwoFactorNotSetup is returned when enabling 2FA without a generated secret.
	ErrTwoFactorNotSetup = errors.New("two-factor secret has not been generated")
	// ErrTwoFactorAlreadyEnabled is returned when generating a secret while 2FA is on.
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor authentication is already enabled")

	// ErrWillNotFound is returned when a will does not exist or belongs to another user.
	ErrWillNotFound = errors.New("will not found")
	// ErrWillLocked is returned when mutating the content of a locked will.
	ErrWillLocked = errors.New("will is locked")
	// ErrInvalidStatusTransition is returned for disallowed will status changes.
	ErrInvalidStatusTransition = errors.New("invalid will status transition")
	// ErrEmptyWillContent is returned when completing a will without content.
	ErrEmptyWillContent = errors.New("will content is empty")
	// ErrInvalidStep is returned for unknown progress steps.
	ErrInvalidStep = errors.New("invalid progress step")
	// ErrTemplateNotFound is returned when creating a will from an unknown template.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrDocumentNotFound is returned when a document does not exist.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file is too large")
	// ErrUnsupportedFileType is returned when an upload MIME type is not allowed.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrBeneficiaryNotFound is returned when a beneficiary does not exist.
	ErrBeneficiaryNotFound = errors.New("beneficiary not found")
	// ErrShareTotalExceeded is returned when beneficiary shares exceed 100 percent.
	ErrShareTotalExceeded = errors.New("beneficiary shares exceed 100 percent")
	// ErrAssetNotFound is returned when an asset does not exist.
	ErrAssetNotFound = errors.New("asset not found")
	// ErrReminderNotFound is returned when a reminder does not exist.
	ErrReminderNotFound = errors.New("reminder not found")
	// ErrNotificationNotFound is returned when a notification does not exist.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrUnknownPlan is returned for unknown plan or interval identifiers.
	ErrUnknownPlan = errors.New("unknown plan")
	// ErrUnknownProduct is returned when no payment product is configured for a plan.
	ErrUnknownProduct = errors.New("no payment product configured for plan")
	// ErrNoCustomer is returned for billing operations on users without a customer record.
	ErrNoCustomer = errors.New("no billing customer for user")
	// ErrNoSubscription is returned when cancelling without an active subscription.
	ErrNoSubscription = errors.New("no active subscription")
	// ErrEnterprisePlan is returned when enterprise is sent through automated checkout.
	ErrEnterprisePlan = errors.New("enterprise plan requires contacting sales")
	// ErrInvalidWebhook is returned for webhook payloads failing signature verification.
	ErrInvalidWebhook = errors.New("invalid webhook signature")
	// ErrPaymentProvider is returned when the payment provider call fails.
	ErrPaymentProvider = errors.New("payment provider error")

	// ErrAssistantUnavailable is returned when the upstream chat model fails.
	ErrAssistantUnavailable = errors.New("assistant is unavailable")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

type mapping struct {
	err    error
	status int
	code   string
}

var mappings = []mapping{
	{ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{ErrUserAlreadyExists, http.StatusConflict, "USER_ALREADY_EXISTS"},
	{ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{ErrEmailNotVerified, http.StatusForbidden, "EMAIL_NOT_VERIFIED"},
	{ErrInvalidCode, http.StatusBadRequest, "INVALID_CODE"},
	{ErrInvalidResetToken, http.StatusBadRequest, "INVALID_RESET_TOKEN"},
	{ErrInvalidRefreshToken, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN"},
	{ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{ErrTwoFactorRequired, http.StatusUnauthorized, "TWO_FACTOR_REQUIRED"},
	{ErrInvalidTwoFactorToken, http.StatusUnauthorized, "INVALID_TWO_FACTOR_TOKEN"},
	{ErrTwoFactorNotSetup, http.StatusBadRequest, "TWO_FACTOR_NOT_SETUP"},
	{ErrTwoFactorAlreadyEnabled, http.StatusConflict, "TWO_FACTOR_ALREADY_ENABLED"},
	{ErrWillNotFound, http.StatusNotFound, "WILL_NOT_FOUND"},
	{ErrWillLocked, http.StatusConflict, "WILL_LOCKED"},
	{ErrInvalidStatusTransition, http.StatusConflict, "INVALID_STATUS_TRANSITION"},
	{ErrEmptyWillContent, http.StatusBadRequest, "EMPTY_WILL_CONTENT"},
	{ErrInvalidStep, http.StatusBadRequest, "INVALID_STEP"},
	{ErrTemplateNotFound, http.StatusBadRequest, "TEMPLATE_NOT_FOUND"},
	{ErrDocumentNotFound, http.StatusNotFound, "DOCUMENT_NOT_FOUND"},
	{ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
	{ErrUnsupportedFileType, http.StatusUnsupportedMediaType, "UNSUPPORTED_FILE_TYPE"},
	{ErrBeneficiaryNotFound, http.StatusNotFound, "BENEFICIARY_NOT_FOUND"},
	{ErrShareTotalExceeded, http.StatusBadRequest, "SHARE_TOTAL_EXCEEDED"},
	{ErrAssetNotFound, http.StatusNotFound, "ASSET_NOT_FOUND"},
	{ErrReminderNotFound, http.StatusNotFound, "REMINDER_NOT_FOUND"},
	{ErrNotificationNotFound, http.StatusNotFound, "NOTIFICATION_NOT_FOUND"},
	{ErrUnknownPlan, http.StatusBadRequest, "UNKNOWN_PLAN"},
	{ErrUnknownProduct, http.StatusBadRequest, "UNKNOWN_PRODUCT"},
	{ErrNoCustomer, http.StatusBadRequest, "NO_CUSTOMER"},
	{ErrNoSubscription, http.StatusBadRequest, "NO_SUBSCRIPTION"},
	{ErrEnterprisePlan, http.StatusBadRequest, "ENTERPRISE_PLAN"},
	{ErrInvalidWebhook, http.StatusBadRequest, "INVALID_WEBHOOK"},
	{ErrPaymentProvider, http.StatusBadGateway, "PAYMENT_PROVIDER_ERROR"},
	{ErrAssistantUnavailable, http.StatusBadGateway, "ASSISTANT_UNAVAILABLE"},
}

// MapErrorToHTTP maps domain errors to HTTP errors. Wrapped errors are matched
// with errors.Is; anything unknown becomes a 500 without leaking details.
func MapErrorToHTTP(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return NewHTTPError(m.status, m.err.Error(), m.code)
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}
