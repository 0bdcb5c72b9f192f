package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/radieske/bet-settlement-core/internal/settlement-service/dto"
	"github.com/radieske/bet-settlement-core/internal/settlement-service/model"
)

// Service são as operações de Event/Bet expostas pela API
type Service interface {
	GetEvent(ctx context.Context, id string) (model.Event, error)
	ListEventBets(ctx context.Context, id string) ([]model.Bet, error)
	CreateEvent(ctx context.Context, in model.EventInput) (model.Event, error)
	UpdateEvent(ctx context.Context, id string, patch model.EventPatch) (model.Event, error)
	DestroyEvent(ctx context.Context, id string) error
	ReconcileEvent(ctx context.Context, id string) error

	GetBet(ctx context.Context, id string) (model.Bet, error)
	CreateBet(ctx context.Context, in model.BetInput) (model.Bet, error)
	UpdateBet(ctx context.Context, id string, patch model.BetPatch) (model.Bet, error)
	DestroyBet(ctx context.Context, id string) error
}

// API expõe os endpoints REST de eventos e apostas
type API struct {
	Log         *zap.Logger
	Svc         Service
	CORSOrigins []string
}

// Router retorna o roteador HTTP com middlewares e rotas v1
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	if len(a.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: a.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/events", a.createEvent)
		r.Route("/events/{id}", func(r chi.Router) {
			r.Use(validID)
			r.Get("/", a.getEvent)
			r.Patch("/", a.updateEvent)
			r.Delete("/", a.destroyEvent)
			r.Get("/bets", a.listEventBets)
			r.Post("/reconcile", a.reconcileEvent)
		})

		r.Post("/bets", a.createBet)
		r.Route("/bets/{id}", func(r chi.Router) {
			r.Use(validID)
			r.Get("/", a.getBet)
			r.Patch("/", a.updateBet)
			r.Delete("/", a.destroyBet)
		})
	})
	return r
}

// validID responde 404 para ids fora do formato, sem chegar ao banco
func validID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !dto.ValidID(chi.URLParam(r, "id")) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "not found"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.Log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode lê o corpo e roda a validação do DTO; responde 400 em caso de erro
func decode[T interface{ Validate() error }](w http.ResponseWriter, r *http.Request, req T) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json"})
		return false
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return false
	}
	return true
}

// writeError traduz erros do domínio em status HTTP
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs model.ValidationErrors
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verrs):
		resp := dto.ValidationErrorResponse{Error: err.Error(), Field: verrs[0].Field}
		for _, e := range verrs {
			resp.Errors = append(resp.Errors, dto.FieldError{Field: e.Field, Message: e.Message})
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "not found"})
	case errors.Is(err, model.ErrStaleWrite):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	default:
		a.Log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
	}
}
