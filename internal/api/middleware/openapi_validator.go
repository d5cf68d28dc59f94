package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pitlane.io/pitlane/internal/api/openapi"
	apperrors "pitlane.io/pitlane/internal/pkg/errors"
	"pitlane.io/pitlane/internal/pkg/logger"
)

// OpenAPI error codes.
const (
	CodeOpenAPIRouteInvalid   = "OPENAPI_ROUTE_INVALID"
	CodeOpenAPIRequestInvalid = "OPENAPI_REQUEST_INVALID"
)

// MustOpenAPIValidator creates an OpenAPI runtime validator middleware and panics on setup failure.
func MustOpenAPIValidator(basePath string) gin.HandlerFunc {
	mw, err := NewOpenAPIValidator(basePath)
	if err != nil {
		panic(fmt.Sprintf("init openapi validator: %v", err))
	}
	return mw
}

// NewOpenAPIValidator rejects requests that break the embedded contract.
// Responses are checked too, but a mismatch is only logged. Paths the
// contract does not know (ops endpoints) pass through unchecked.
func NewOpenAPIValidator(basePath string) (gin.HandlerFunc, error) {
	doc, err := openapi.GetSwagger()
	if err != nil {
		return nil, fmt.Errorf("load openapi contract: %w", err)
	}
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("create contract router: %w", err)
	}

	v := &contractValidator{
		router:   router,
		basePath: normalizeBasePath(basePath),
		options: &openapi3filter.Options{
			// JWTAuth owns authentication.
			AuthenticationFunc: func(context.Context, *openapi3filter.AuthenticationInput) error { return nil },
		},
	}
	return v.handle, nil
}

type contractValidator struct {
	router   routers.Router
	basePath string
	options  *openapi3filter.Options
}

func (v *contractValidator) handle(c *gin.Context) {
	var (
		input    *openapi3filter.RequestValidationInput
		routeErr error
		reqErr   error
	)
	v.atContractPath(c.Request, func() {
		route, params, err := v.router.FindRoute(c.Request)
		if err != nil {
			routeErr = err
			return
		}
		input = &openapi3filter.RequestValidationInput{
			Request:    c.Request,
			PathParams: params,
			Route:      route,
			Options:    v.options,
		}
		reqErr = openapi3filter.ValidateRequest(c.Request.Context(), input)
	})

	switch {
	case routeErr != nil && isPathNotFoundError(routeErr):
		c.Next()
		return
	case routeErr != nil:
		abort(c, apperrors.BadRequest(CodeOpenAPIRouteInvalid, routeErr.Error()))
		return
	case reqErr != nil:
		abort(c, apperrors.BadRequest(CodeOpenAPIRequestInvalid, reqErr.Error()))
		return
	}

	rec := newResponseRecorder(c.Writer)
	c.Writer = rec
	c.Next()
	c.Writer = rec.ResponseWriter

	// Pushed errors are rendered by ErrorHandler on the original writer.
	if !rec.Written() && len(c.Errors) > 0 {
		return
	}

	v.checkResponse(c, input, rec)
	if err := rec.flush(); err != nil {
		logger.Warn("failed to flush buffered response",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
}

func (v *contractValidator) checkResponse(c *gin.Context, input *openapi3filter.RequestValidationInput, rec *responseRecorder) {
	out := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: input,
		Status:                 rec.Status(),
		Header:                 rec.Header().Clone(),
		Options:                v.options,
	}
	if rec.body.Len() > 0 {
		out.SetBodyBytes(rec.body.Bytes())
	}
	if err := openapi3filter.ValidateResponse(c.Request.Context(), out); err != nil {
		logger.Warn("OpenAPI response validation failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", rec.Status()),
			zap.String("request_id", GetRequestID(c.Request.Context())),
			zap.Error(err),
		)
	}
}

// atContractPath runs fn with the base path stripped from req's URL, since
// the contract's paths are relative to it.
func (v *contractValidator) atContractPath(req *http.Request, fn func()) {
	path, rawPath := req.URL.Path, req.URL.RawPath
	defer func() {
		req.URL.Path, req.URL.RawPath = path, rawPath
	}()
	req.URL.Path = normalizeValidationPath(v.basePath, path)
	if rawPath != "" {
		req.URL.RawPath = normalizeValidationPath(v.basePath, rawPath)
	}
	fn()
}

func normalizeBasePath(basePath string) string {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" || basePath == "/" {
		return ""
	}
	return "/" + strings.Trim(basePath, "/")
}

func normalizeValidationPath(basePath, path string) string {
	switch {
	case basePath == "" && path == "":
		return "/"
	case basePath == "":
		return path
	case path == basePath:
		return "/"
	case strings.HasPrefix(path, basePath+"/"):
		return strings.TrimPrefix(path, basePath)
	default:
		return path
	}
}

func isPathNotFoundError(err error) bool {
	if errors.Is(err, routers.ErrPathNotFound) {
		return true
	}
	var routeErr *routers.RouteError
	if errors.As(err, &routeErr) {
		return routeErr.Reason == routers.ErrPathNotFound.Error()
	}
	return strings.Contains(err.Error(), routers.ErrPathNotFound.Error())
}

// responseRecorder holds the response back until it has been checked
// against the contract.
type responseRecorder struct {
	gin.ResponseWriter
	body   bytes.Buffer
	status int
	wrote  bool
}

func newResponseRecorder(w gin.ResponseWriter) *responseRecorder {
	return &responseRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *responseRecorder) WriteHeader(code int) {
	if r.wrote {
		return
	}
	r.status = code
	r.wrote = true
}

func (r *responseRecorder) WriteHeaderNow() { r.wrote = true }

func (r *responseRecorder) Write(data []byte) (int, error) {
	r.wrote = true
	return r.body.Write(data)
}

func (r *responseRecorder) WriteString(s string) (int, error) {
	return r.Write([]byte(s))
}

func (r *responseRecorder) Status() int { return r.status }
func (r *responseRecorder) Size() int { return r.body.Len() }
func (r *responseRecorder) Written() bool { return r.wrote }

func (r *responseRecorder) flush() error {
	r.ResponseWriter.WriteHeader(r.status)
	if r.body.Len() == 0 {
		return nil
	}
	_, err := r.ResponseWriter.Write(r.body.Bytes())
	return err
}
