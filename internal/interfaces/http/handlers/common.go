// Package handlers contains the gin request handlers. Handlers parse and
// validate transport input, call the application services with the resolved
// principal, and translate typed errors into HTTP responses.
package handlers

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ipfolio/ipfolio/internal/domain/user"
	"github.com/ipfolio/ipfolio/internal/interfaces/http/middleware"
	"github.com/ipfolio/ipfolio/pkg/errors"
	"github.com/ipfolio/ipfolio/pkg/types/common"
)

// errorBody is the uniform error envelope.
type errorBody struct {
	Error common.ErrorDetail `json:"error"`
}

// respondError maps a typed error onto its HTTP status and envelope. Unknown
// error types become opaque 500s.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	detail := common.ErrorDetail{
		Code:    code.String(),
		Message: errors.DefaultMessageForCode(code),
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		detail.Message = appErr.Message
	}
	for _, v := range errors.GetViolations(err) {
		detail.Violations = append(detail.Violations, common.FieldViolation{
			Field:   v.Field,
			Rule:    v.Rule,
			Message: v.Message,
		})
	}

	c.JSON(status, errorBody{Error: detail})
}

// principal fetches the caller identity or aborts with 401.
func principal(c *gin.Context) (user.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		respondError(c, errors.New(errors.ErrCodeUnauthorized, "no caller identity"))
		return user.Principal{}, false
	}
	return p, true
}

// pathID parses the named path parameter as a positive int64.
func pathID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(c, errors.InvalidParam("invalid "+name+" path parameter"))
		return 0, false
	}
	return id, true
}

// pagination reads page/page_size query parameters with sane defaults.
func pagination(c *gin.Context) common.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return common.Pagination{Page: page, PageSize: size}.Normalize()
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}
