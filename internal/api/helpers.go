package api

import (
	"errors"
	"io"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
)

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, ErrorResponse{Error: ResponseError{Message: msg, Type: errType}})
}

// writeDomainError renders err with the status its kind maps to.
func writeDomainError(c *echo.Context, err error) error {
	status, errType := classify(err)
	return writeError(c, status, errType, err.Error())
}

// decodeJSON decodes one value from r. An empty body yields the zero value.
func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	if r == nil {
		return out, nil
	}
	if err := json.NewDecoder(r).Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return out, err
	}
	return out, nil
}
