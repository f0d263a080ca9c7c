package mapper

import (
	"math"
	"net/http"

	"github.com/kbukum/restproxy/errors"
	"github.com/kbukum/restproxy/transport"
)

// DisableDefaultProperty is the builder property that, when true, leaves the
// default mapper out of a client's registry.
const DisableDefaultProperty = "restproxy.disable.default.mapper"

// DefaultPriority is the priority given to mappers that do not declare one.
const DefaultPriority = 5000

// Mapper converts a response into an error.
type Mapper interface {
	// Handles reports whether the mapper applies to a response with the
	// given status and headers.
	Handles(status int, header http.Header) bool
	// ToError returns the error for resp, or nil to let the next mapper run.
	ToError(resp *transport.Response) error
	// Priority orders mappers; lower runs first.
	Priority() int
}

type funcMapper struct {
	handles  func(int, http.Header) bool
	toError  func(*transport.Response) error
	priority int
}

func (m *funcMapper) Handles(status int, header http.Header) bool { return m.handles(status, header) }
func (m *funcMapper) ToError(resp *transport.Response) error      { return m.toError(resp) }
func (m *funcMapper) Priority() int                               { return m.priority }

// For builds a mapper from functions.
func For(priority int, handles func(int, http.Header) bool, toError func(*transport.Response) error) Mapper {
	return &funcMapper{handles: handles, toError: toError, priority: priority}
}

// Status builds a mapper handling exactly the given status code.
func Status(status, priority int, toError func(*transport.Response) error) Mapper {
	return For(priority, func(s int, _ http.Header) bool { return s == status }, toError)
}

// Range builds a mapper handling statuses in [from, to].
func Range(from, to, priority int, toError func(*transport.Response) error) Mapper {
	return For(priority, func(s int, _ http.Header) bool { return s >= from && s <= to }, toError)
}

type defaultMapper struct{}

// Default returns the catch-all mapper. Error envelopes sent by kit services
// have their code and message lifted into the error details.
func Default() Mapper { return defaultMapper{} }

func (defaultMapper) Handles(status int, _ http.Header) bool { return status >= http.StatusBadRequest }

func (defaultMapper) Priority() int { return math.MaxInt }

func (defaultMapper) ToError(resp *transport.Response) error {
	err := errors.WebApplication(resp.StatusCode, resp.Body)
	if body, ok := errors.ParseErrorResponse(resp.Body); ok {
		err.WithDetail("remote_code", string(body.Code))
		if body.Message != "" {
			err.WithDetail("remote_message", body.Message)
		}
		for k, v := range body.Details {
			if _, exists := err.Details[k]; !exists {
				err.Details[k] = v
			}
		}
	}
	return err
}

// IsDefault reports whether m is the catch-all mapper.
func IsDefault(m Mapper) bool {
	_, ok := m.(defaultMapper)
	return ok
}
