package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-params/config"
	"github.com/gaborage/go-params/constraints"
	"github.com/gaborage/go-params/logger"
	"github.com/gaborage/go-params/params"
	"github.com/gaborage/go-params/source"
	"github.com/gaborage/go-params/types"
)

const (
	testServiceName = "test-service"
	testOrderRoute  = "/orders/:id"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: testServiceName, Version: "v1.0.0", Env: config.EnvDevelopment},
		Server: config.ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
			Path: config.PathConfig{Health: "/health", Ready: "/ready"},
		},
		Validation: config.ValidationConfig{MultipartMemory: 1 << 20},
	}
}

func newTestRegistry(t *testing.T, cfg *config.Config, opts ...RegistryOption) (*echo.Echo, *HandlerRegistry, RouteRegistrar) {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		customErrorHandler(err, c, cfg, logger.Nop())
	}
	hr := NewHandlerRegistry(cfg, append([]RegistryOption{WithRouteRegistry(NewRouteRegistry())}, opts...)...)
	return e, hr, NewRouteGroup(e.Group(""), "")
}

func serve(e *echo.Echo, req *http.Request) (*httptest.ResponseRecorder, APIResponse) {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp APIResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func echoArgs(args params.Values, _ HandlerContext) (params.Values, IAPIError) {
	return args, nil
}

func TestWrapHandlerPassesValidatedArguments(t *testing.T) {
	e, hr, r := newTestRegistry(t, testConfig())

	declared := []params.Param{
		params.MustNew("id", types.Int, source.FromPath),
		params.MustNew("tags", types.Optional(types.List(types.String)), source.FromQuery),
		params.MustNew("verbose", types.Bool, source.FromHeader, params.WithAlias("X-Verbose"), params.WithDefault(false)),
	}

	var got params.Values
	require.NoError(t, GET(hr, r, testOrderRoute, func(args params.Values, _ HandlerContext) (map[string]any, IAPIError) {
		got = args
		return map[string]any{"id": args["id"]}, nil
	}, declared))

	req := httptest.NewRequest(http.MethodGet, "/orders/42?tags=a&tags=b", http.NoBody)
	req.Header.Set(echo.HeaderXRequestID, "req-123")
	rec, resp := serve(e, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, resp.Error)
	assert.Equal(t, "req-123", resp.Meta["traceId"])
	assert.Equal(t, map[string]any{"id": float64(42)}, resp.Data)

	id, ok := params.Get[int64](got, "id")
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, []any{"a", "b"}, got["tags"])
	assert.Equal(t, false, got["verbose"])
}

func TestWrapHandlerErrorCodes(t *testing.T) {
	e, hr, r := newTestRegistry(t, testConfig())

	even := func(v any) bool { return v.(int64)%2 == 0 }
	declared := []params.Param{
		params.MustNew("q", types.Int, source.FromQuery,
			params.WithConstraints(constraints.Min(0), constraints.Func(even))),
	}
	require.NoError(t, GET(hr, r, "/numbers", echoArgs, declared))

	tests := []struct {
		name    string
		query   string
		code    string
		message string
		kind    string
	}{
		{name: "missing", query: "", code: CodeMissingInput, message: `missing required query parameter "q"`, kind: "missing_input"},
		{name: "wrong type", query: "q=abc", code: CodeInvalidType, kind: "invalid_type"},
		{name: "constraint", query: "q=-2", code: CodeValidationFailed, message: `parameter "q" must be larger than 0`, kind: "validation_failed"},
		{name: "predicate", query: "q=3", code: CodeCustomValidation, message: `parameter "q" failed validator function`, kind: "custom_predicate_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := serve(e, httptest.NewRequest(http.MethodGet, "/numbers?"+tt.query, http.NoBody))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			require.NotNil(t, resp.Error)
			assert.Nil(t, resp.Data)
			assert.Equal(t, tt.code, resp.Error.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, resp.Error.Message)
			}
			assert.Equal(t, "q", resp.Error.Details["param"])
			assert.Equal(t, tt.kind, resp.Error.Details["kind"])
		})
	}

	rec, resp := serve(e, httptest.NewRequest(http.MethodGet, "/numbers?q=4", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"q": float64(4)}, resp.Data)
}

func TestWrapHandlerJSONBody(t *testing.T) {
	e, hr, r := newTestRegistry(t, testConfig())

	declared := []params.Param{
		params.MustNew("name", types.String, source.FromJSON),
		params.MustNew("count", types.Int, source.FromJSON),
	}
	require.NoError(t, POST(hr, r, "/items", echoArgs, declared))

	newReq := func(body string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, "application/json; charset=utf-8")
		return req
	}

	rec, resp := serve(e, newReq(`{"name": "widget", "count": 2}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]any{"name": "widget", "count": float64(2)}, resp.Data)

	rec, resp = serve(e, newReq(`{"name": `))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeBodyNotParseable, resp.Error.Code)

	rec, resp = serve(e, newReq(`{"name": "widget", "count": "2"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidType, resp.Error.Code)
}

func TestWrapHandlerURLEncodedForm(t *testing.T) {
	e, hr, r := newTestRegistry(t, testConfig())

	declared := []params.Param{params.MustNew("ids", types.List(types.Int), source.FromForm)}
	require.NoError(t, POST(hr, r, "/batch", echoArgs, declared))

	req := httptest.NewRequest(http.MethodPost, "/batch", strings.NewReader("ids=1&ids=2"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec, resp := serve(e, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]any{"ids": []any{float64(1), float64(2)}}, resp.Data)
}

func TestWrapHandlerMultipartUpload(t *testing.T) {
	e, hr, r := newTestRegistry(t, testConfig())

	declared := []params.Param{
		params.MustNew("title", types.String, source.FromForm),
		params.MustNew("doc", types.File, source.File{ContentTypes: []string{"image/png"}}),
	}
	require.NoError(t, POST(hr, r, "/uploads", func(args params.Values, _ HandlerContext) (map[string]any, IAPIError) {
		fh, ok := params.Get[*multipart.FileHeader](args, "doc")
		if !ok {
			return nil, NewBadRequestError("no file")
		}
		return map[string]any{"title": args["title"], "filename": fh.Filename}, nil
	}, declared))

	upload := func(content []byte) *http.Request {
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		require.NoError(t, w.WriteField("title", "logo"))
		part, err := w.CreateFormFile("doc", "logo.png")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/uploads", &body)
		req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
		return req
	}

	rec, resp := serve(e, upload(pngHeader))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]any{"title": "logo", "filename": "logo.png"}, resp.Data)

	rec, resp = serve(e, upload([]byte("just some text")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeValidationFailed, resp.Error.Code)
	assert.Equal(t, "content_type", resp.Error.Details["rule"])
}

func TestWithErrorHandlerReceivesRawError(t *testing.T) {
	var captured error
	e, hr, r := newTestRegistry(t, testConfig(), WithErrorHandler(func(c echo.Context, err error) error {
		captured = err
		return c.String(http.StatusUnprocessableEntity, err.Error())
	}))

	declared := []params.Param{params.MustNew("q", types.Int, source.FromQuery)}
	require.NoError(t, GET(hr, r, "/custom", echoArgs, declared))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/custom", http.NoBody))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, `missing required query parameter "q"`, rec.Body.String())
	var perr *params.Error
	require.ErrorAs(t, captured, &perr)
	assert.Equal(t, params.KindMissingInput, perr.Kind)
}

func TestCollectAllReportsEveryParameter(t *testing.T) {
	cfg := testConfig()
	cfg.Validation.CollectAll = true
	e, hr, r := newTestRegistry(t, cfg)

	declared := []params.Param{
		params.MustNew("a", types.Int, source.FromQuery),
		params.MustNew("b", types.Int, source.FromQuery),
	}
	require.NoError(t, GET(hr, r, "/both", echoArgs, declared))

	rec, resp := serve(e, httptest.NewRequest(http.MethodGet, "/both?b=x", http.NoBody))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMissingInput, resp.Error.Code)
	assert.True(t, strings.HasPrefix(resp.Error.Message, `missing required query parameter "a"; parameter "b" must be of type int`), resp.Error.Message)

	items, ok := resp.Error.Details["errors"].([]any)
	require.True(t, ok)
	assert.Len(t, items, 2)
}

func TestErrorDetailsHiddenOutsideDevelopment(t *testing.T) {
	cfg := testConfig()
	cfg.App.Env = config.EnvProduction
	e, hr, r := newTestRegistry(t, cfg)

	require.NoError(t, GET(hr, r, "/prod", echoArgs, []params.Param{params.MustNew("q", types.Int, source.FromQuery)}))

	_, resp := serve(e, httptest.NewRequest(http.MethodGet, "/prod", http.NoBody))
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMissingInput, resp.Error.Code)
	assert.Nil(t, resp.Error.Details)
}

func TestHandlerResults(t *testing.T) {
	e, hr, r := newTestRegistry(t, testConfig())

	require.NoError(t, POST(hr, r, "/created", func(params.Values, HandlerContext) (Result[string], IAPIError) {
		return Created("new"), nil
	}, nil))
	require.NoError(t, DELETE(hr, r, "/gone", func(params.Values, HandlerContext) (NoContentResult, IAPIError) {
		return NoContent(), nil
	}, nil))
	require.NoError(t, GET(hr, r, "/raw", func(params.Values, HandlerContext) (map[string]int, IAPIError) {
		return map[string]int{"n": 1}, nil
	}, nil, WithRawResponse()))
	require.NoError(t, GET(hr, r, "/missing", func(params.Values, HandlerContext) (string, IAPIError) {
		return "", NewNotFoundError("Order")
	}, nil))

	rec, resp := serve(e, httptest.NewRequest(http.MethodPost, "/created", http.NoBody))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "new", resp.Data)

	rec, _ = serve(e, httptest.NewRequest(http.MethodDelete, "/gone", http.NoBody))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec, _ = serve(e, httptest.NewRequest(http.MethodGet, "/raw", http.NoBody))
	assert.JSONEq(t, `{"n": 1}`, rec.Body.String())

	rec, resp = serve(e, httptest.NewRequest(http.MethodGet, "/missing", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Order not found", resp.Error.Message)
}

func TestNewParamError(t *testing.T) {
	internal := NewParamError(&params.Error{Kind: params.KindInvalidSourceType, Param: "q", Detail: "unknown source kind"})
	assert.Equal(t, http.StatusInternalServerError, internal.HTTPStatus())
	assert.Equal(t, CodeInternalError, internal.ErrorCode())

	var perr *params.Error
	require.ErrorAs(t, internal, &perr)
	assert.Equal(t, "q", perr.Param)

	notParam := NewParamError(assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, notParam.HTTPStatus())
}
