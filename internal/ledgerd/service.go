package ledgerd

import (
	"encoding/json"
	"net/http"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/eysrewards/kiosk/internal/model"
)

// Service is a development stand-in for the remote ledger. It implements
// the same single shared endpoint the kiosk talks to: POST bodies tagged
// action=registerGAE and GET queries tagged action=gaeStats.
type Service struct {
	db     *sqlx.DB
	repo   *Repository
	logger *zap.Logger
}

// NewService creates the dev ledger service
func NewService(db *sqlx.DB, logger *zap.Logger) *Service {
	return &Service{
		db:     db,
		repo:   NewRepository(),
		logger: logger,
	}
}

// Handler returns the shared-endpoint handler.
func (s *Service) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			s.handleWrite(w, r)
		case http.MethodGet:
			s.handleRead(w, r)
		default:
			http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		}
	})
}

func (s *Service) handleWrite(w http.ResponseWriter, r *http.Request) {
	var ev model.LedgerEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	if ev.Action != "registerGAE" {
		http.Error(w, `{"error":"unknown action"}`, http.StatusBadRequest)
		return
	}
	if ev.CouponCode == "" {
		http.Error(w, `{"error":"couponCode required"}`, http.StatusBadRequest)
		return
	}

	if err := s.repo.InsertRegistration(s.db, ev); err != nil {
		s.logger.Error("insert registration", zap.Error(err))
		http.Error(w, `{"error":"storage failure"}`, http.StatusInternalServerError)
		return
	}

	s.logger.Info("registration recorded", zap.String("coupon_code", ev.CouponCode))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Service) handleRead(w http.ResponseWriter, r *http.Request) {
	if action := r.URL.Query().Get("action"); action != "gaeStats" {
		http.Error(w, `{"error":"unknown action"}`, http.StatusBadRequest)
		return
	}
	couponCode := r.URL.Query().Get("couponCode")
	if couponCode == "" {
		http.Error(w, `{"error":"couponCode required"}`, http.StatusBadRequest)
		return
	}

	stats, err := s.repo.AggregateStats(s.db, couponCode)
	if err != nil {
		s.logger.Error("aggregate stats", zap.Error(err), zap.String("coupon_code", couponCode))
		http.Error(w, `{"error":"storage failure"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
