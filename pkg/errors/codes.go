package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeNotImplemented     ErrorCode = "COMMON_015"
)

// Short aliases used throughout the codebase.
const (
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeUnauthorized   = ErrCodeUnauthorized
	CodeForbidden      = ErrCodeForbidden
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeRateLimit      = ErrCodeTooManyRequests
	CodeValidation     = ErrCodeValidation
	CodeNotImplemented = ErrCodeNotImplemented
	CodeOK             = ErrorCode("OK")
	CodeUnknown        = ErrorCode("UNKNOWN")

	CodePatentNotFound  = ErrCodePatentNotFound
	CodeClientNotFound  = ErrCodeClientNotFound
	CodeCountryNotFound = ErrCodeCountryNotFound
	CodeStatusNotFound  = ErrCodeStatusNotFound
)

// Patent Module Error Codes
const (
	ErrCodePatentNotFound          ErrorCode = "PAT_001"
	ErrCodePatentAlreadyExists     ErrorCode = "PAT_002"
	ErrCodePatentTitleRequired     ErrorCode = "PAT_003"
	ErrCodePatentClientRequired    ErrorCode = "PAT_004"
	ErrCodeDepositCountryInvalid   ErrorCode = "PAT_005"
	ErrCodeDepositStatusInvalid    ErrorCode = "PAT_006"
	ErrCodeDepositCabinetInvalid   ErrorCode = "PAT_007"
	ErrCodePatentReferenceConflict ErrorCode = "PAT_008"
)

// Party Directory Error Codes
const (
	ErrCodeClientNotFound   ErrorCode = "PRT_001"
	ErrCodeInventorNotFound ErrorCode = "PRT_002"
	ErrCodeCabinetNotFound  ErrorCode = "PRT_003"
	ErrCodeContactNotFound  ErrorCode = "PRT_004"
)

// Reference Catalog Error Codes
const (
	ErrCodeCountryNotFound   ErrorCode = "CAT_001"
	ErrCodeStatusNotFound    ErrorCode = "CAT_002"
	ErrCodeCatalogLoadFailed ErrorCode = "CAT_003"
)

// Authorization Error Codes
const (
	ErrCodeAccessDenied     ErrorCode = "AUT_001"
	ErrCodeWriteDenied      ErrorCode = "AUT_002"
	ErrCodeReadDenied       ErrorCode = "AUT_003"
	ErrCodePrincipalInvalid ErrorCode = "AUT_004"
	ErrCodeTokenInvalid     ErrorCode = "AUT_005"
	ErrCodeTokenExpired     ErrorCode = "AUT_006"
)

// Import Module Error Codes
const (
	ErrCodeImportRowInvalid      ErrorCode = "IMP_001"
	ErrCodeImportCountryUnknown  ErrorCode = "IMP_002"
	ErrCodeImportStatusUnknown   ErrorCode = "IMP_003"
	ErrCodeImportBatchFailed     ErrorCode = "IMP_004"
	ErrCodeImportArchiveFailed   ErrorCode = "IMP_005"
	ErrCodeImportFamilyConflict  ErrorCode = "IMP_006"
	ErrCodeImportPayloadTooLarge ErrorCode = "IMP_007"
)

// Infrastructure aliases.
const (
	CodeDBConnectionError = ErrCodeDatabaseError
	CodeDatabaseError     = ErrCodeDatabaseError
	CodeDBQueryError      = ErrCodeDatabaseError
	CodeCacheError        = ErrCodeCacheError
	CodeMessageQueueError = ErrCodeExternalService
	CodeStorageError      = ErrCodeExternalService
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodePatentNotFound:          http.StatusNotFound,
	ErrCodePatentAlreadyExists:     http.StatusConflict,
	ErrCodePatentTitleRequired:     http.StatusUnprocessableEntity,
	ErrCodePatentClientRequired:    http.StatusUnprocessableEntity,
	ErrCodeDepositCountryInvalid:   http.StatusUnprocessableEntity,
	ErrCodeDepositStatusInvalid:    http.StatusUnprocessableEntity,
	ErrCodeDepositCabinetInvalid:   http.StatusUnprocessableEntity,
	ErrCodePatentReferenceConflict: http.StatusConflict,

	ErrCodeClientNotFound:   http.StatusNotFound,
	ErrCodeInventorNotFound: http.StatusNotFound,
	ErrCodeCabinetNotFound:  http.StatusNotFound,
	ErrCodeContactNotFound:  http.StatusNotFound,

	ErrCodeCountryNotFound:   http.StatusNotFound,
	ErrCodeStatusNotFound:    http.StatusNotFound,
	ErrCodeCatalogLoadFailed: http.StatusInternalServerError,

	ErrCodeAccessDenied:     http.StatusForbidden,
	ErrCodeWriteDenied:      http.StatusForbidden,
	ErrCodeReadDenied:       http.StatusForbidden,
	ErrCodePrincipalInvalid: http.StatusUnauthorized,
	ErrCodeTokenInvalid:     http.StatusUnauthorized,
	ErrCodeTokenExpired:     http.StatusUnauthorized,

	ErrCodeImportRowInvalid:      http.StatusUnprocessableEntity,
	ErrCodeImportCountryUnknown:  http.StatusUnprocessableEntity,
	ErrCodeImportStatusUnknown:   http.StatusUnprocessableEntity,
	ErrCodeImportBatchFailed:     http.StatusInternalServerError,
	ErrCodeImportArchiveFailed:   http.StatusInternalServerError,
	ErrCodeImportFamilyConflict:  http.StatusConflict,
	ErrCodeImportPayloadTooLarge: http.StatusRequestEntityTooLarge,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodePatentNotFound:          "patent not found",
	ErrCodePatentAlreadyExists:     "patent already exists",
	ErrCodePatentTitleRequired:     "patent title is required",
	ErrCodePatentClientRequired:    "patent requires at least one client",
	ErrCodeDepositCountryInvalid:   "deposit references an unknown country",
	ErrCodeDepositStatusInvalid:    "deposit references an unknown status",
	ErrCodeDepositCabinetInvalid:   "deposit references an unknown cabinet",
	ErrCodePatentReferenceConflict: "family reference already in use",

	ErrCodeClientNotFound:   "client not found",
	ErrCodeInventorNotFound: "inventor not found",
	ErrCodeCabinetNotFound:  "cabinet not found",
	ErrCodeContactNotFound:  "contact not found",

	ErrCodeCountryNotFound:   "country not found",
	ErrCodeStatusNotFound:    "status not found",
	ErrCodeCatalogLoadFailed: "failed to load reference catalog",

	ErrCodeAccessDenied:     "access denied",
	ErrCodeWriteDenied:      "write access denied",
	ErrCodeReadDenied:       "read access denied",
	ErrCodePrincipalInvalid: "invalid principal",
	ErrCodeTokenInvalid:     "invalid token",
	ErrCodeTokenExpired:     "token expired",

	ErrCodeImportRowInvalid:      "import row invalid",
	ErrCodeImportCountryUnknown:  "import row references an unknown country",
	ErrCodeImportStatusUnknown:   "import row references an unknown status",
	ErrCodeImportBatchFailed:     "import batch failed",
	ErrCodeImportArchiveFailed:   "failed to archive import file",
	ErrCodeImportFamilyConflict:  "conflicting rows within family",
	ErrCodeImportPayloadTooLarge: "import payload too large",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
