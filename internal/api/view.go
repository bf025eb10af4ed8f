// Package api implements HTTP view of CTF server.
package api

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/udovin/ctf/internal/config"
	"github.com/udovin/ctf/internal/core"
	"github.com/udovin/ctf/internal/managers"
	"github.com/udovin/ctf/internal/models"
	"github.com/udovin/ctf/internal/pkg/logs"
)

// View represents API view.
type View struct {
	core        *core.Core
	submissions *managers.SubmissionManager
	hints       *managers.HintManager
	teams       *managers.TeamManager
	users       *managers.UserManager
	scoreboard  *managers.ScoreboardManager
}

// Register registers handlers in specified group.
func (v *View) Register(g *echo.Group) {
	g.Use(wrapResponse, v.requestTimeout)
	g.GET("/ping", v.ping)
	g.GET("/health", v.health)
	v.registerChallengeHandlers(g)
	v.registerTeamHandlers(g)
	v.registerScoreboardHandlers(g)
	v.registerUserHandlers(g)
}

// ping returns pong.
func (v *View) ping(c echo.Context) error {
	return c.String(http.StatusOK, "pong")
}

// health returns current healthiness status.
func (v *View) health(c echo.Context) error {
	if v.core.DB != nil {
		if err := v.core.DB.PingContext(getContext(c)); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "unhealthy")
		}
	}
	return c.String(http.StatusOK, "healthy")
}

// NewView returns a new instance of view.
func NewView(core *core.Core) *View {
	return &View{
		core:        core,
		submissions: managers.NewSubmissionManager(core),
		hints:       managers.NewHintManager(core),
		teams:       managers.NewTeamManager(core),
		users:       managers.NewUserManager(core),
		scoreboard:  managers.NewScoreboardManager(core),
	}
}

const (
	nowKey       = "now"
	challengeKey = "challenge"
	teamKey      = "team"
	userKey      = "user"
)

func getContext(c echo.Context) context.Context {
	ctx := c.Request().Context()
	if t, ok := c.Get(nowKey).(time.Time); ok {
		ctx = models.WithNow(ctx, t)
	}
	return ctx
}

type errorField struct {
	Message string `json:"message"`
}

type errorFields map[string]errorField

type errorResponse struct {
	// Code.
	Code int `json:"-"`
	// Kind contains machine readable kind of error.
	Kind string `json:"code,omitempty"`
	// Message.
	Message string `json:"message"`
	// InvalidFields.
	InvalidFields errorFields `json:"invalid_fields,omitempty"`
}

// StatusCode returns response status code.
func (r errorResponse) StatusCode() int {
	return r.Code
}

// Error returns response error message.
func (r errorResponse) Error() string {
	var result strings.Builder
	result.WriteString(r.Message)
	if len(r.InvalidFields) > 0 {
		result.WriteString(" (invalid fields: ")
		var fields []string
		for field := range r.InvalidFields {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		result.WriteString(strings.Join(fields, ", "))
		result.WriteRune(')')
	}
	return result.String()
}

var errInvalidForm = errorResponse{
	Code:    http.StatusBadRequest,
	Kind:    "invalid",
	Message: "Invalid form.",
}

type statusCodeResponse interface {
	StatusCode() int
}

// convertError converts domain errors to responses.
func convertError(err error) error {
	if err == nil {
		return nil
	}
	var notFoundErr *models.NotFoundError
	var validationErr *models.ValidationError
	var duplicateErr *models.DuplicateNameError
	var alreadyErr *models.AlreadyOnTeamError
	var fullErr *models.TeamFullError
	switch {
	case errors.As(err, &notFoundErr):
		return errorResponse{
			Code:    http.StatusNotFound,
			Kind:    "not_found",
			Message: capitalize(notFoundErr.Kind) + " not found.",
		}
	case errors.As(err, &validationErr):
		return errorResponse{
			Code:    http.StatusBadRequest,
			Kind:    "invalid",
			Message: "Form has invalid fields.",
			InvalidFields: errorFields{
				validationErr.Field: {Message: capitalize(validationErr.Message) + "."},
			},
		}
	case errors.As(err, &duplicateErr):
		return errorResponse{
			Code:    http.StatusConflict,
			Kind:    "duplicate_name",
			Message: fmt.Sprintf("Name %q is already taken.", duplicateErr.Name),
		}
	case errors.As(err, &alreadyErr):
		return errorResponse{
			Code:    http.StatusUnprocessableEntity,
			Kind:    "already_on_team",
			Message: "User is already on team.",
		}
	case errors.As(err, &fullErr):
		return errorResponse{
			Code:    http.StatusForbidden,
			Kind:    "team_full",
			Message: "Team is full.",
		}
	case errors.Is(err, context.DeadlineExceeded):
		return errorResponse{
			Code:    http.StatusServiceUnavailable,
			Kind:    "timeout",
			Message: "Request timed out.",
		}
	}
	return err
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var (
	rnd      = rand.NewSource(time.Now().UnixNano())
	rndMutex = sync.Mutex{}
)

func randUint32() uint32 {
	rndMutex.Lock()
	defer rndMutex.Unlock()
	return uint32(rnd.Int63() >> 32)
}

func wrapResponse(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := c.Request().Header.Get(echo.HeaderXRequestID)
		if reqID == "" {
			reqID = fmt.Sprintf("%d-%d", time.Now().UnixMilli(), randUint32())
		}
		logger := c.Logger()
		if l, ok := logger.(*logs.Logger); ok {
			logger = l.With(logs.Any("req_id", reqID))
			c.SetLogger(logger)
		}
		c.Response().Header().Add(echo.HeaderXRequestID, reqID)
		c.Response().Header().Add("X-CTF-Version", config.Version)
		start := time.Now()
		err := convertError(next(c))
		status := c.Response().Status
		if err != nil {
			status = http.StatusInternalServerError
		}
		defer func() {
			finish := time.Now()
			message := fmt.Sprintf("%s %s", c.Request().Method, c.Request().RequestURI)
			params := map[string]string{}
			for _, name := range c.ParamNames() {
				params[name] = c.Param(name)
			}
			args := []any{
				message,
				logs.Any("status", status),
				logs.Any("method", c.Request().Method),
				logs.Any("path", c.Path()),
				logs.Any("params", params),
				logs.Any("remote_ip", c.RealIP()),
				logs.Any("latency", finish.Sub(start).String()),
				err,
			}
			switch {
			case status >= 500:
				logger.Error(args...)
			case status >= 400:
				logger.Warn(args...)
			default:
				logger.Info(args...)
			}
		}()
		if resp, ok := err.(statusCodeResponse); ok {
			status = resp.StatusCode()
			if status == 0 {
				status = http.StatusInternalServerError
			}
			return c.JSON(status, resp)
		}
		return err
	}
}

// requestTimeout limits lifetime of request context.
func (v *View) requestTimeout(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		timeout := time.Duration(v.core.Config.Server.RequestTimeout) * time.Second
		if timeout <= 0 {
			return next(c)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
		defer cancel()
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}
