package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"contactbook/contact"
	"contactbook/errs"
	"contactbook/pkg/config"
	"contactbook/pkg/logger"
	"contactbook/pkg/sentry"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const internalErrorMessage = "Internal server error"

type Server struct {
	// Router is the Echo router instance
	Router *echo.Echo

	// Addr represents the address the server will listen on
	Addr string

	// Allowed origins for CORS
	AllowOrigins []string

	Logger *zap.SugaredLogger

	ContactService contact.Service
}

func Default(cfg *config.Config, options ...Option) *Server {
	s := Server{
		Router:       echo.New(),
		Addr:         ":8080",
		AllowOrigins: []string{"*"},
		Logger:       logger.NOOPLogger,
	}
	if cfg.Port != 0 {
		s.Addr = fmt.Sprintf(":%d", cfg.Port)
	}
	if cfg.AllowOrigins != "" {
		s.AllowOrigins = strings.Split(cfg.AllowOrigins, ",")
	}
	for _, fn := range options {
		fn(&s)
	}

	s.Router.HideBanner = true
	s.Router.Validator = NewValidator()
	s.Router.HTTPErrorHandler = s.customHTTPErrorHandler
	s.RegisterGlobalMiddlewares()

	s.RegisterHealthRoutes()
	s.RegisterSwaggerRoutes()
	s.RegisterContactRoutes(s.Router.Group("/contact"))
	return &s
}

func (s *Server) RegisterGlobalMiddlewares() {
	s.Router.Use(middleware.Recover())
	s.Router.Use(middleware.Secure())
	s.Router.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	s.Router.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.Logger.Infow("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			)
			return nil
		},
	}))
	s.Router.Use(middleware.Gzip())
	s.Router.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
	s.Router.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))

	// CORS
	if len(s.AllowOrigins) > 0 {
		s.Router.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: s.AllowOrigins,
		}))
	}
}

func (s *Server) Start() error {
	return s.Router.Start(s.Addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Router.Shutdown(ctx)
}

// customHTTPErrorHandler maps application errors to appropriate HTTP status codes
func (s *Server) customHTTPErrorHandler(err error, c echo.Context) {
	// Don't write response if already committed
	if c.Response().Committed {
		return
	}

	status, message := statusAndMessage(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Errorw(err.Error(), zap.String("request_id", requestID(c)))
		sentry.WithContext(c).Error(err)
	}

	if err := writeError(c, status, message, "", err); err != nil {
		s.Logger.Errorw("cannot write error response", zap.Error(err))
	}
}

func statusAndMessage(err error) (int, string) {
	if he, ok := err.(*echo.HTTPError); ok {
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	}

	// Map application error codes to HTTP status codes
	switch errs.ErrorCode(err) {
	case errs.EINVALID, errs.EDUPLICATE:
		return http.StatusBadRequest, errs.ErrorMessage(err)
	case errs.ENOTFOUND:
		return http.StatusNotFound, errs.ErrorMessage(err)
	case errs.ECONFLICT:
		return http.StatusConflict, errs.ErrorMessage(err)
	case errs.EUNAUTHORIZED:
		return http.StatusUnauthorized, errs.ErrorMessage(err)
	case errs.ENOTIMPLEMENTED:
		return http.StatusNotImplemented, errs.ErrorMessage(err)
	default:
		return http.StatusInternalServerError, internalErrorMessage
	}
}

func requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
