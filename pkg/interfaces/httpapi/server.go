// Package httpapi exposes planning runs over HTTP.
package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vsinha/prodplan/pkg/application/dto"
	"github.com/vsinha/prodplan/pkg/application/services/orchestration"
	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/infrastructure/config"
	"github.com/vsinha/prodplan/pkg/infrastructure/store"
	"github.com/vsinha/prodplan/pkg/infrastructure/tracing"
)

const basePath = "/v1"

// Config for the HTTP API handler.
type Config struct {
	Settings *config.Config // defaults for every run; request fields override them
	Store    *store.Store   // optional run history
	Logger   *log.Logger
	Version  string
	Clock    func() time.Time
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"bad_request"`
	Message string         `json:"message" example:"invalid order quantity: must be positive for 'Trail Mix', got 0"`
	Details map[string]any `json:"details,omitempty"`
}

// apiError is the error envelope of every non-2xx response.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

type server struct {
	cfg Config
}

// New returns an HTTP handler exposing the planning API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Settings == nil {
		cfg.Settings = config.Default()
	}
	if err := cfg.Settings.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(traceRequests)

	hcfg := huma.DefaultConfig("prodplan API", cfg.Version)
	hcfg.OpenAPIPath = basePath + "/openapi"
	hcfg.DocsPath = basePath + "/docs"
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	s := &server{cfg: cfg}
	s.registerHealth(group)
	s.registerPlans(group)
	return router, nil
}

func traceRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracing.StartSpan(r.Context(), r.Method+" "+r.URL.Path, "SERVER")
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))
		span.WithAttributes(map[string]string{
			"http.method":      r.Method,
			"http.target":      r.URL.Path,
			"http.status_code": strconv.Itoa(ww.Status()),
		})
		span.SetStatusFromHTTPCode(ww.Status())
		span.End()
	})
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// handleError maps planning errors to HTTP statuses
func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var invalid *entities.InvalidInputError
	if errors.As(err, &invalid) {
		return newAPIError(http.StatusBadRequest, "invalid_input", err.Error(), map[string]any{"field": invalid.Field})
	}
	var notFound *entities.ProductNotFoundError
	if errors.As(err, &notFound) {
		return newAPIError(http.StatusBadRequest, "unknown_product", err.Error(), map[string]any{"line": notFound.Line})
	}
	var solver *entities.SolverError
	if errors.As(err, &solver) {
		return newAPIError(http.StatusInternalServerError, "solver_failed", err.Error(), map[string]any{"status": solver.Status})
	}
	if errors.Is(err, store.ErrRunNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "duplicate"),
		strings.Contains(lowered, "invalid"),
		strings.Contains(lowered, "must be"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

type healthBody struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Store   bool   `json:"store"`
}

func (s *server) registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body healthBody `json:"body"`
	}, error) {
		return &struct {
			Body healthBody `json:"body"`
		}{Body: healthBody{Status: "ok", Version: s.cfg.Version, Store: s.cfg.Store != nil}}, nil
	})
}

func (s *server) registerPlans(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "create-plan",
		Method:      http.MethodPost,
		Path:        "/plans",
		Summary:     "Run allocation and scheduling",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreatePlanRequest `json:"body"`
	}) (*struct {
		Body *dto.PlanResult `json:"body"`
	}, error) {
		result, err := s.plan(ctx, input.Body)
		if err != nil {
			return nil, err
		}
		return &struct {
			Body *dto.PlanResult `json:"body"`
		}{Body: result}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-plans",
		Method:      http.MethodGet,
		Path:        "/plans",
		Summary:     "List stored runs",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit" default:"50" minimum:"1" maximum:"500"`
	}) (*struct {
		Body []store.RunSummary `json:"body"`
	}, error) {
		if s.cfg.Store == nil {
			return nil, newAPIError(http.StatusNotFound, "no_store", "run history is not configured", nil)
		}
		runs, err := s.cfg.Store.ListRuns(ctx, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []store.RunSummary `json:"body"`
		}{Body: runs}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-plan",
		Method:      http.MethodGet,
		Path:        "/plans/{run_id}",
		Summary:     "Get a stored run",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		RunID string `path:"run_id"`
	}) (*struct {
		Body *dto.PlanResult `json:"body"`
	}, error) {
		if s.cfg.Store == nil {
			return nil, newAPIError(http.StatusNotFound, "no_store", "run history is not configured", nil)
		}
		result, err := s.cfg.Store.GetRun(ctx, input.RunID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body *dto.PlanResult `json:"body"`
		}{Body: result}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "product-history",
		Method:      http.MethodGet,
		Path:        "/products/{product_id}/history",
		Summary:     "How one product fared across stored runs",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProductID string `path:"product_id"`
		Limit     int    `query:"limit" default:"50" minimum:"1" maximum:"500"`
	}) (*struct {
		Body []store.ProductRun `json:"body"`
	}, error) {
		if s.cfg.Store == nil {
			return nil, newAPIError(http.StatusNotFound, "no_store", "run history is not configured", nil)
		}
		history, err := s.cfg.Store.ProductHistory(ctx, input.ProductID, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []store.ProductRun `json:"body"`
		}{Body: history}, nil
	})
}

// plan runs one request on fresh repositories
func (s *server) plan(ctx context.Context, req CreatePlanRequest) (*dto.PlanResult, error) {
	if req.Save && s.cfg.Store == nil {
		return nil, newAPIError(http.StatusBadRequest, "no_store", "save requested but run history is not configured", nil)
	}

	cfg := *s.cfg.Settings
	if req.TotalLaborHours != nil {
		cfg.Planning.TotalLaborHours = *req.TotalLaborHours
	}
	if req.MaxShiftsPerDay != nil {
		cfg.Planning.MaxShiftsPerDay = *req.MaxShiftsPerDay
	}
	if req.UnknownProductPolicy != "" {
		cfg.Planning.UnknownProductPolicy = req.UnknownProductPolicy
	}
	if req.AttainmentRounding != "" {
		cfg.Planning.AttainmentRounding = req.AttainmentRounding
	}
	settings, err := orchestration.SettingsFromConfig(&cfg)
	if err != nil {
		return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
	}

	today, err := req.today(s.cfg.Clock)
	if err != nil {
		return nil, handleError(err)
	}
	input := orchestration.PlanInput{Today: today}
	for _, item := range req.Catalog {
		record, err := item.record()
		if err != nil {
			return nil, handleError(err)
		}
		input.Catalog = append(input.Catalog, record)
	}
	for i, item := range req.Orders {
		order, err := item.order(i)
		if err != nil {
			return nil, handleError(err)
		}
		input.Orders = append(input.Orders, order)
	}

	result, err := orchestration.RunWithSettings(ctx, settings, input, s.cfg.Logger)
	if err != nil {
		return nil, handleError(err)
	}
	if req.Save {
		if err := s.cfg.Store.SaveRun(ctx, result, nil); err != nil {
			return nil, handleError(err)
		}
	}
	return result, nil
}
