package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yumvipay/sendcore-backend/internal/domain"
	"github.com/yumvipay/sendcore-backend/internal/netmon"
	"github.com/yumvipay/sendcore-backend/internal/usecase/rates"
	"github.com/yumvipay/sendcore-backend/internal/usecase/recovery"
	"github.com/yumvipay/sendcore-backend/internal/usecase/submit"
	"github.com/yumvipay/sendcore-backend/internal/usecase/wizard"
)

// Server exposes the send-money wizard over a JSON HTTP API
type Server struct {
	Wizard    *wizard.Service
	Submitter *submit.Service
	Recovery  *recovery.Service
	Rates     *rates.Service
	Monitor   *netmon.Monitor
	Transfers domain.TransferRepository
	Drafts    domain.DraftRepository
	Logger    *slog.Logger
}

// NewHandler builds the router. All /v1 routes sit behind token auth;
// health and metrics stay open.
func NewHandler(s *Server, apiToken string) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(apiToken))

		r.Get("/quote", s.handleQuote)
		r.Post("/connectivity", s.handleConnectivity)
		r.Get("/transfers", s.handleListTransfers)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/state", s.handleState)
			r.Get("/draft", s.handleGetDraft)
			r.Put("/draft", s.handleSaveDraft)
			r.Post("/prefill", s.handlePrefill)
			r.Post("/advance", s.handleAdvance)
			r.Post("/retreat", s.handleRetreat)
			r.Post("/submit", s.handleSubmit)
			r.Post("/recover", s.handleRecover)
			r.Delete("/", s.handleAbandon)
		})
	})

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// mapWizardError converts wizard errors into HTTP statuses: blocked
// validation is 422, contended or impossible transitions are 409, and
// anything unanticipated collapses to a generic 500 so no internal detail
// leaks to the client.
func (s *Server) mapWizardError(w http.ResponseWriter, err error) {
	var validationErr *wizard.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusUnprocessableEntity, validationErr.Message)
	case errors.Is(err, wizard.ErrSubmissionInFlight):
		writeError(w, http.StatusConflict, "a submission is already in progress")
	case errors.Is(err, wizard.ErrNoTransition):
		writeError(w, http.StatusConflict, "no transition from the current step")
	case errors.Is(err, wizard.ErrNotReady):
		writeError(w, http.StatusConflict, "submission is only allowed from the confirmation step")
	default:
		s.Logger.Error("wizard operation failed", "err", err)
		writeError(w, http.StatusInternalServerError, "something went wrong, please try again")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type quoteResponse struct {
	Amount          string `json:"amount"`
	SourceCurrency  string `json:"sourceCurrency"`
	TargetCurrency  string `json:"targetCurrency"`
	Rate            string `json:"rate"`
	RateSource      string `json:"rateSource"`
	ConvertedAmount string `json:"convertedAmount"`
}

// handleQuote resolves a rate and converts an amount for display.
// rateSource lets the client tell a real rate from the default fallback.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	amount := r.URL.Query().Get("amount")
	source := r.URL.Query().Get("source")
	target := r.URL.Query().Get("target")
	if amount == "" || source == "" || target == "" {
		writeError(w, http.StatusBadRequest, "amount, source, and target are required")
		return
	}

	converted, quote, err := s.Rates.ConvertAmount(amount, source, target)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, quoteResponse{
		Amount:          amount,
		SourceCurrency:  source,
		TargetCurrency:  target,
		Rate:            quote.Rate.String(),
		RateSource:      string(quote.Source),
		ConvertedAmount: converted,
	})
}

type connectivityRequest struct {
	Online bool `json:"online"`
}

type connectivityResponse struct {
	Online  bool `json:"online"`
	Flushed int  `json:"flushed"`
	Failed  int  `json:"failed"`
}

// handleConnectivity receives forwarded platform connectivity events.
// An offline-to-online transition drains the deferred queue.
func (s *Server) handleConnectivity(w http.ResponseWriter, r *http.Request) {
	var body connectivityRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp := connectivityResponse{Online: body.Online}
	if body.Online {
		if s.Monitor.SetOnline() {
			result := s.Monitor.Flush(r.Context())
			resp.Flushed = result.Executed
			resp.Failed = result.Failed
		}
	} else {
		s.Monitor.SetOffline()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	writeJSON(w, http.StatusOK, s.Wizard.State(sessionID))
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	draft := s.Wizard.CachedDraft(sessionID)
	if draft == nil {
		writeError(w, http.StatusNotFound, "no draft for this session")
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var patch domain.TransactionDraft
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := s.Wizard.SaveDraft(r.Context(), sessionID, patch)
	if err != nil {
		s.Logger.Error("failed to save draft", "session", sessionID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to save draft")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handlePrefill(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var draft domain.TransactionDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.Wizard.Prefill(r.Context(), sessionID, draft); err != nil {
		s.Logger.Error("failed to prefill draft", "session", sessionID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to prefill draft")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "prefilled"})
}

type stepResponse struct {
	Step  string             `json:"step"`
	State domain.WizardState `json:"state"`
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	step, err := s.Wizard.Advance(r.Context(), sessionID)
	if err != nil {
		s.mapWizardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stepResponse{Step: string(step), State: s.Wizard.State(sessionID)})
}

func (s *Server) handleRetreat(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	step, err := s.Wizard.Retreat(r.Context(), sessionID)
	if err != nil {
		s.mapWizardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stepResponse{Step: string(step), State: s.Wizard.State(sessionID)})
}

type submitResponse struct {
	Status     string `json:"status"`
	TransferID string `json:"transferId"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	outcome, err := s.Submitter.Submit(r.Context(), sessionID)
	if err != nil {
		s.mapWizardError(w, err)
		return
	}

	status := http.StatusCreated
	if outcome.Status == domain.TransferStatusQueued {
		status = http.StatusAccepted
	}
	writeJSON(w, status, submitResponse{
		Status:     string(outcome.Status),
		TransferID: outcome.Transfer.ID.String(),
	})
}

type recoverResponse struct {
	Recovered bool                     `json:"recovered"`
	Source    string                   `json:"source"`
	Draft     *domain.TransactionDraft `json:"draft,omitempty"`
}

// handleRecover runs the recovery cascade and, on a hit, reattaches the
// recovered draft as the session's in-memory cache.
func (s *Server) handleRecover(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	state := s.Wizard.State(sessionID)
	cached := s.Wizard.CachedDraft(sessionID)
	result := s.Recovery.Recover(r.Context(), sessionID, state.CurrentStep, cached)
	if result.Recovered {
		s.Wizard.AttachDraft(sessionID, result.Draft)
	}

	writeJSON(w, http.StatusOK, recoverResponse{
		Recovered: result.Recovered,
		Source:    string(result.Source),
		Draft:     result.Draft,
	})
}

// handleAbandon tears down the session and purges every persisted record
// for it. Unlike a reset, nothing is left behind to recover.
func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	s.Wizard.Reset(sessionID)
	if err := s.Drafts.ClearAll(r.Context(), sessionID); err != nil {
		s.Logger.Error("failed to purge abandoned session", "session", sessionID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to abandon session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type listTransfersResponse struct {
	Transfers []transferView `json:"transfers"`
	Total     int            `json:"total"`
}

type transferView struct {
	ID              string `json:"id"`
	SessionID       string `json:"sessionId"`
	Amount          string `json:"amount"`
	ConvertedAmount string `json:"convertedAmount"`
	SourceCurrency  string `json:"sourceCurrency"`
	TargetCurrency  string `json:"targetCurrency"`
	TargetCountry   string `json:"targetCountry"`
	RecipientName   string `json:"recipientName"`
	Provider        string `json:"provider"`
	Status          string `json:"status"`
	CreatedAt       string `json:"createdAt"`
}

func (s *Server) handleListTransfers(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)
	sessionID := r.URL.Query().Get("session")

	transfers, err := s.Transfers.List(r.Context(), limit, offset, sessionID)
	if err != nil {
		s.Logger.Error("failed to list transfers", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list transfers")
		return
	}
	total, err := s.Transfers.Count(r.Context(), sessionID)
	if err != nil {
		s.Logger.Error("failed to count transfers", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to count transfers")
		return
	}

	views := make([]transferView, 0, len(transfers))
	for _, tr := range transfers {
		views = append(views, transferView{
			ID:              tr.ID.String(),
			SessionID:       tr.SessionID,
			Amount:          tr.Amount.String(),
			ConvertedAmount: rates.FormatAmount(tr.ConvertedAmount),
			SourceCurrency:  tr.SourceCurrency,
			TargetCurrency:  tr.TargetCurrency,
			TargetCountry:   tr.TargetCountry,
			RecipientName:   tr.RecipientName,
			Provider:        tr.Provider,
			Status:          string(tr.Status),
			CreatedAt:       tr.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, listTransfersResponse{Transfers: views, Total: total})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
