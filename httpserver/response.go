package httpserver

import (
	"errors"
	"fmt"
	"strconv"

	"contactbook/errs"

	"github.com/labstack/echo/v4"
)

const (
	successMessage   = "OK"
	defaultErrorCode = "100500"
)

type APIResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Result  interface{} `json:"result,omitempty"`
	Info    string      `json:"info,omitempty"`
}

func writeSuccess(c echo.Context, status int, result interface{}) error {
	return c.JSON(status, APIResponse{
		Code:    strconv.Itoa(status),
		Message: successMessage,
		Result:  result,
	})
}

func writeList(c echo.Context, status int, data interface{}) error {
	return writeSuccess(c, status, map[string]interface{}{
		"data": data,
	})
}

func writeError(c echo.Context, status int, message, info string, err error) error {
	return c.JSON(status, APIResponse{
		Code:    errorCode(err, status),
		Message: message,
		Info:    info,
	})
}

// apiErrorCodes are the envelope codes clients match on. Errors outside the
// application's codes fall back to 100 followed by the HTTP status.
var apiErrorCodes = map[string]string{
	errs.EINVALID:        "100010",
	errs.EDUPLICATE:      "100400",
	errs.ENOTFOUND:       "100404",
	errs.ECONFLICT:       "100409",
	errs.EUNAUTHORIZED:   "100401",
	errs.ENOTIMPLEMENTED: "100501",
	errs.EINTERNAL:       defaultErrorCode,
}

func errorCode(err error, status int) string {
	var appErr *errs.Error
	if errors.As(err, &appErr) {
		if code, ok := apiErrorCodes[appErr.Code]; ok {
			return code
		}
	}
	if status != 0 {
		return fmt.Sprintf("100%03d", status)
	}
	return defaultErrorCode
}
