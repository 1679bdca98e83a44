package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/eysrewards/kiosk/internal/config"
	"github.com/eysrewards/kiosk/internal/issue"
	"github.com/eysrewards/kiosk/internal/lookup"
	"github.com/eysrewards/kiosk/internal/model"
	"github.com/eysrewards/kiosk/internal/qr"
)

// Server is the kiosk's JSON HTTP surface. It is page glue over the
// coordinators: every handler maps one core operation to one route.
type Server struct {
	issuer   *issue.Coordinator
	lookups  *lookup.Coordinator
	renderer *qr.Renderer
	campaign config.CampaignConfig
	logger   *zap.Logger
}

// New creates the kiosk server.
func New(issuer *issue.Coordinator, lookups *lookup.Coordinator, renderer *qr.Renderer, campaign config.CampaignConfig, logger *zap.Logger) *Server {
	return &Server{
		issuer:   issuer,
		lookups:  lookups,
		renderer: renderer,
		campaign: campaign,
		logger:   logger,
	}
}

// Handler returns the routed handler with request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("POST /api/export", s.handleExport)
	mux.HandleFunc("GET /api/qr", s.handleQR)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("GET /api/contact", s.handleContact)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		hostname, _ := os.Hostname()
		w.WriteHeader(http.StatusOK)
		response := fmt.Sprintf(`{"status":"ok","service":"rewards-kiosk","hostname":"%s"}`, hostname)
		w.Write([]byte(response))
	})

	mux.Handle("/metrics", promhttp.Handler())

	return RequestLogger(s.logger)(mux)
}

type registerResponse struct {
	Code      string `json:"code"`
	CreatedAt string `json:"createdAt"`
	Outcome   string `json:"outcome"`
	QRReady   bool   `json:"qrReady"`
}

// handleRegister issues a code. The response reflects the staged outcome
// only: replication settles in the background and never blocks this
// reply.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.IssuanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	iss, err := s.issuer.Issue(r.Context(), req)
	if err != nil {
		var ve *issue.ValidationError
		switch {
		case errors.As(err, &ve):
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":   "missing required fields",
				"missing": ve.Missing,
			})
		case errors.Is(err, issue.ErrIssuanceInFlight):
			writeError(w, http.StatusConflict, "an issuance is already in progress")
		default:
			s.logger.Error("issue failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{
		Code:      iss.Code,
		CreatedAt: iss.CreatedAt.Format(time.RFC3339),
		Outcome:   iss.Staged().String(),
		QRReady:   iss.Staged() == issue.OutcomeRendered,
	})
}

type statsResponse struct {
	Code string `json:"code"`
	model.CandidateStats
}

// handleStats serves the candidate lookup. A failed lookup is an explicit
// failure state with no numbers attached.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	res := s.lookups.Query(r.Context(), r.URL.Query().Get("couponCode"))
	if res.Failed {
		writeError(w, http.StatusBadGateway, "failed to load stats, check your code and try again")
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Code: res.Code, CandidateStats: res.Stats})
}

type exportRequest struct {
	Filename string `json:"filename"`
}

// handleExport writes the current visual to the export directory.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if r.Body != nil {
		// Body is optional; the filename defaults to <code>.png.
		json.NewDecoder(r.Body).Decode(&req)
	}

	path, err := s.renderer.Export(s.campaign.ExportDir, req.Filename)
	if err != nil {
		if errors.Is(err, qr.ErrNotReady) {
			writeError(w, http.StatusConflict, "no visual code rendered yet")
			return
		}
		s.logger.Error("export failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

// handleQR streams the current visual as PNG.
func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	v, ok := s.renderer.Current()
	if !ok {
		writeError(w, http.StatusNotFound, "no visual code rendered yet")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(v.PNG)
}

// handleReset clears the presented visual; it does not abort a pending
// replication.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.issuer.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// handleContact serves the configured campaign contact as a wa.me link.
func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	digits := s.campaign.ContactDigits()
	if digits == "" {
		writeError(w, http.StatusNotFound, "no contact configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"phone": s.campaign.ContactPhone,
		"link":  "https://wa.me/" + digits,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
