package transport

import (
	"net/http"

	"github.com/kbukum/restproxy/codec"
	"github.com/kbukum/restproxy/errors"
)

// Request describes one outbound HTTP request.
type Request struct {
	// Method is the HTTP method (GET, POST, PUT, PATCH, DELETE, etc).
	Method string
	// URL is the fully resolved URL.
	URL string
	// Header holds the final outbound headers.
	Header http.Header
	// Cookies are sent with the request.
	Cookies []*http.Cookie
	// Body is the encoded body; nil sends none.
	Body []byte
}

// Response is the complete result of an HTTP exchange.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Header holds the response headers.
	Header http.Header
	// Body is the raw response body.
	Body []byte
	// Request is the request that produced this response.
	Request *Request

	codecs *codec.Registry
}

// NewResponse creates a response decoded with the given codecs
// (codec.Default when nil).
func NewResponse(status int, header http.Header, body []byte, codecs *codec.Registry) *Response {
	if header == nil {
		header = http.Header{}
	}
	return &Response{StatusCode: status, Header: header, Body: body, codecs: codecs}
}

// WithCodecs returns a shallow copy of r decoding through codecs.
func (r *Response) WithCodecs(codecs *codec.Registry) *Response {
	cp := *r
	cp.codecs = codecs
	return &cp
}

// MediaType is the response Content-Type without parameters; a missing
// Content-Type is the wildcard.
func (r *Response) MediaType() string {
	return codec.Normalize(r.Header.Get("Content-Type"))
}

// Decode reads the body into v using the codec for the response media type.
func (r *Response) Decode(v any) error {
	codecs := r.codecs
	if codecs == nil {
		codecs = codec.Default()
	}
	if err := codecs.Decode(r.MediaType(), r.Body, v); err != nil {
		return errors.Decoding(r.MediaType(), err)
	}
	return nil
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError returns true if the status code is 4xx or 5xx.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}
