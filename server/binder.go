package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/go-params/config"
	"github.com/gaborage/go-params/source"
)

// DefaultMultipartMemory is used when no configuration is supplied.
const DefaultMultipartMemory int64 = 32 << 20

// RequestBinder exposes an Echo request as a source bundle. Bodies are
// only read when a parameter asks for the source that needs them.
type RequestBinder struct {
	multipartMemory int64
}

// NewRequestBinder creates a binder using the multipart memory limit from cfg.
func NewRequestBinder(cfg *config.Config) *RequestBinder {
	mem := DefaultMultipartMemory
	if cfg != nil && cfg.Validation.MultipartMemory > 0 {
		mem = cfg.Validation.MultipartMemory
	}
	return &RequestBinder{multipartMemory: mem}
}

// Bundle returns a lazily loaded bundle over the request held by c.
func (rb *RequestBinder) Bundle(c echo.Context) *source.Bundle {
	req := c.Request()

	return source.NewBundle().
		With(source.KindPath, func() (source.Mapping, error) {
			return source.PathFromSegments(c.ParamNames(), c.ParamValues()), nil
		}).
		With(source.KindQuery, func() (source.Mapping, error) {
			return source.Values(c.QueryParams()), nil
		}).
		With(source.KindHeader, func() (source.Mapping, error) {
			return source.Header(req.Header), nil
		}).
		With(source.KindForm, func() (source.Mapping, error) {
			return rb.form(req)
		}).
		With(source.KindFile, func() (source.Mapping, error) {
			return rb.files(req)
		}).
		With(source.KindJSON, func() (source.Mapping, error) {
			return readJSON(req)
		})
}

func mediaType(req *http.Request) string {
	ct := req.Header.Get(echo.HeaderContentType)
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	return mt
}

func (rb *RequestBinder) form(req *http.Request) (source.Mapping, error) {
	switch mediaType(req) {
	case echo.MIMEApplicationForm:
		if err := req.ParseForm(); err != nil {
			return nil, fmt.Errorf("%w: %v", source.ErrBodyNotParseable, err)
		}
	case echo.MIMEMultipartForm:
		if err := rb.parseMultipart(req); err != nil {
			return nil, err
		}
	default:
		return source.Empty, nil
	}
	return source.Values(req.PostForm), nil
}

func (rb *RequestBinder) files(req *http.Request) (source.Mapping, error) {
	if mediaType(req) != echo.MIMEMultipartForm {
		return source.Empty, nil
	}
	if err := rb.parseMultipart(req); err != nil {
		return nil, err
	}
	if req.MultipartForm == nil {
		return source.Empty, nil
	}
	return source.Files(req.MultipartForm.File), nil
}

// parseMultipart is safe to call twice; the second call is a no-op.
func (rb *RequestBinder) parseMultipart(req *http.Request) error {
	if err := req.ParseMultipartForm(rb.multipartMemory); err != nil {
		return fmt.Errorf("%w: %v", source.ErrBodyNotParseable, err)
	}
	return nil
}

func readJSON(req *http.Request) (source.Mapping, error) {
	ct := req.Header.Get(echo.HeaderContentType)
	if !source.IsJSONContentType(ct) || req.Body == nil || req.Body == http.NoBody {
		return source.Empty, nil
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return nil, he
		}
		return nil, fmt.Errorf("%w: %v", source.ErrBodyNotParseable, err)
	}
	return source.ParseJSON(ct, body)
}
