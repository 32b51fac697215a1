package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"SignalFusion/internal/engine"
	"SignalFusion/internal/model"
	"SignalFusion/internal/recorder"
	"SignalFusion/internal/scheduler"
)

// SignalGenerator is the engine surface served over HTTP.
type SignalGenerator interface {
	Symbols() []string
	Generate(ctx context.Context, req engine.Request) (*model.Signal, error)
	GenerateAll(ctx context.Context, symbols []string, includeNews bool) []engine.Result
}

// Runner triggers a scheduled batch out of band.
type Runner interface {
	RunNow(ctx context.Context) (*scheduler.Report, error)
}

// SignalRequest is the query for a single symbol.
type SignalRequest struct {
	Symbol string `param:"symbol" validate:"required,max=16"`
	News   bool   `query:"news" default:"true"`
}

// BatchRequest is the query for several symbols at once.
type BatchRequest struct {
	Symbols string `query:"symbols"`
	News    bool   `query:"news" default:"true"`
}

// HistoryRequest is the query for stored signals.
type HistoryRequest struct {
	Symbol string `param:"symbol" validate:"required,max=16"`
	Limit  int    `query:"limit" default:"20" validate:"gte=1,lte=200"`
}

// BatchItem is one entry of a batch reply.
type BatchItem struct {
	Symbol string        `json:"symbol"`
	Signal *model.Signal `json:"signal,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// RunSummary is the reply to a manual run.
type RunSummary struct {
	Started  string            `json:"started"`
	Signals  []*model.Signal   `json:"signals"`
	Failures map[string]string `json:"failures,omitempty"`
}

// SignalHandler serves signals, history and manual runs.
type SignalHandler struct {
	gen     SignalGenerator
	history recorder.Recorder
	runner  Runner
	logger  zerolog.Logger
}

// NewSignalHandler creates the handler. history and runner may be nil.
func NewSignalHandler(gen SignalGenerator, history recorder.Recorder, runner Runner) *SignalHandler {
	if history == nil {
		history = recorder.NewNoopRecorder()
	}
	return &SignalHandler{
		gen:     gen,
		history: history,
		runner:  runner,
		logger:  log.With().Str("component", "api").Logger(),
	}
}

func (h *SignalHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api/v1")
	g.GET("/symbols", h.Symbols)
	g.GET("/signals", h.Batch)
	g.GET("/signals/:symbol", h.Signal)
	g.GET("/signals/:symbol/history", h.History)
	if h.runner != nil {
		g.POST("/run", h.Run)
	}
}

func (h *SignalHandler) Health(c echo.Context) error {
	return SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *SignalHandler) Symbols(c echo.Context) error {
	return SuccessResponse(c, h.gen.Symbols())
}

func (h *SignalHandler) Signal(c echo.Context) error {
	req := &SignalRequest{}
	if verr := readAndValidate(c, req); verr != nil {
		return BadRequestResponse(c, verr)
	}
	sig, err := h.gen.Generate(c.Request().Context(), engine.Request{Symbol: req.Symbol, IncludeNews: req.News})
	if err != nil {
		h.logger.Warn().Err(err).Str("symbol", req.Symbol).Msg("Signal request failed")
		return ErrorResponse(c, err)
	}
	return SuccessResponse(c, sig)
}

func (h *SignalHandler) Batch(c echo.Context) error {
	req := &BatchRequest{}
	if verr := readAndValidate(c, req); verr != nil {
		return BadRequestResponse(c, verr)
	}
	var symbols []string
	for _, s := range strings.Split(req.Symbols, ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, s)
		}
	}

	results := h.gen.GenerateAll(c.Request().Context(), symbols, req.News)
	items := make([]BatchItem, 0, len(results))
	for _, r := range results {
		item := BatchItem{Symbol: r.Symbol, Signal: r.Signal}
		if r.Err != nil {
			item.Error = r.Err.Error()
		}
		items = append(items, item)
	}
	return SuccessResponse(c, items)
}

func (h *SignalHandler) History(c echo.Context) error {
	req := &HistoryRequest{}
	if verr := readAndValidate(c, req); verr != nil {
		return BadRequestResponse(c, verr)
	}
	rows, err := h.history.Recent(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		h.logger.Error().Err(err).Str("symbol", req.Symbol).Msg("History query failed")
		return ErrorResponse(c, err)
	}
	if rows == nil {
		rows = []recorder.StoredSignal{}
	}
	return SuccessResponse(c, rows)
}

func (h *SignalHandler) Run(c echo.Context) error {
	report, err := h.runner.RunNow(c.Request().Context())
	if err != nil {
		return ErrorResponse(c, err)
	}
	summary := RunSummary{
		Started: report.Started.Format("2006-01-02T15:04:05Z07:00"),
		Signals: report.Signals,
	}
	if len(report.Failures) > 0 {
		summary.Failures = make(map[string]string, len(report.Failures))
		for sym, ferr := range report.Failures {
			summary.Failures[sym] = ferr.Error()
		}
	}
	return SuccessResponse(c, summary)
}

var validate = validator.New()

// readAndValidate applies defaults, binds path and query values over them and
// validates. It returns nil or the list of field errors.
func readAndValidate(c echo.Context, req interface{}) []ValidationError {
	if err := defaults.Set(req); err != nil {
		return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
	}
	if err := c.Bind(req); err != nil {
		return []ValidationError{{Code: "ERR_BIND", Message: bindMessage(err)}}
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
		}
		out := make([]ValidationError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Field(),
				Message: fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()),
			})
		}
		return out
	}
	return nil
}

func bindMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return fmt.Sprintf("%v", he.Message)
	}
	return err.Error()
}
