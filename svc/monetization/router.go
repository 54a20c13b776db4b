package monetization

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/scribblepad/monetize/pkg/adfreq"
	"github.com/scribblepad/monetize/pkg/entitlement"
	"github.com/scribblepad/monetize/pkg/gate"
	"github.com/scribblepad/monetize/pkg/tier"
)

// Router exposes the engine over a local HTTP bridge for the app shell.
// Every response is JSON; gating denials are regular 200 responses carrying
// the decision so the UI can render the matching prompt.
func (s *Service) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/entitlements", s.handleGetEntitlements)
		r.Get("/gate/{feature}", s.handleEvaluate)
		r.Post("/usage/{feature}", s.handleRecordUsage)

		r.Get("/ads/{placement}/eligibility", s.handleAdEligibility)
		r.Post("/ads/{placement}/shown", s.handleAdShown)
		r.Post("/ads/{placement}/load-failed", s.handleAdLoadFailed)

		r.Post("/trial/start", s.handleStartTrial)
		r.Post("/billing/activate", s.handleActivate)
		r.Post("/billing/failed", s.handleFailedPurchase)
		r.Post("/billing/restore", s.handleRestore)

		r.Post("/data/clear", s.handleClearData)
	})

	return r
}

type entitlementsResponse struct {
	State              entitlement.State            `json:"state"`
	Tier               tier.Tier                    `json:"tier"`
	IsPremium          bool                         `json:"is_premium"`
	CanStartTrial      bool                         `json:"can_start_trial"`
	TrialDaysRemaining int                          `json:"trial_days_remaining"`
	Record             entitlement.UserEntitlements `json:"record"`
}

func (s *Service) handleGetEntitlements(w http.ResponseWriter, r *http.Request) {
	ent := s.Entitlements()
	now := s.clock()
	respondWithJSON(w, http.StatusOK, entitlementsResponse{
		State:              ent.StateAt(now),
		Tier:               ent.EffectiveTierAt(now),
		IsPremium:          ent.IsPremiumAt(now),
		CanStartTrial:      ent.CanStartTrialAt(now),
		TrialDaysRemaining: ent.TrialDaysRemainingAt(now),
		Record:             ent,
	})
}

type decisionResponse struct {
	Decision  gate.Decision `json:"decision"`
	Remaining int64         `json:"remaining"`
}

func (s *Service) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	f := tier.Feature(chi.URLParam(r, "feature"))
	d := s.Evaluate(r.Context(), f)
	respondWithJSON(w, http.StatusOK, decisionResponse{
		Decision:  d,
		Remaining: s.Remaining(f),
	})
}

func (s *Service) handleRecordUsage(w http.ResponseWriter, r *http.Request) {
	f := tier.Feature(chi.URLParam(r, "feature"))
	d, err := s.RecordFeatureUsage(r.Context(), f)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to record usage")
		return
	}
	respondWithJSON(w, http.StatusOK, decisionResponse{
		Decision:  d,
		Remaining: s.Remaining(f),
	})
}

type adEligibilityResponse struct {
	Eligible bool `json:"eligible"`
}

func (s *Service) handleAdEligibility(w http.ResponseWriter, r *http.Request) {
	placement := chi.URLParam(r, "placement")
	ok, err := s.EvaluateAd(r.Context(), placement)
	if err != nil {
		if errors.Is(err, adfreq.ErrPlacementNotFound) {
			respondWithError(w, http.StatusNotFound, "unknown placement")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to evaluate placement")
		return
	}
	respondWithJSON(w, http.StatusOK, adEligibilityResponse{Eligible: ok})
}

func (s *Service) handleAdShown(w http.ResponseWriter, r *http.Request) {
	placement := chi.URLParam(r, "placement")
	if err := s.RecordAdShown(r.Context(), placement); err != nil {
		if errors.Is(err, adfreq.ErrPlacementNotFound) {
			respondWithError(w, http.StatusNotFound, "unknown placement")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to record impression")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleAdLoadFailed(w http.ResponseWriter, r *http.Request) {
	s.RecordAdLoadFailed(r.Context(), chi.URLParam(r, "placement"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleStartTrial(w http.ResponseWriter, r *http.Request) {
	ent, err := s.StartFreeTrial(r.Context())
	if err != nil {
		if errors.Is(err, entitlement.ErrTrialNotAvailable) {
			respondWithError(w, http.StatusConflict, "trial not available")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to start trial")
		return
	}

	now := s.clock()
	respondWithJSON(w, http.StatusOK, entitlementsResponse{
		State:              ent.StateAt(now),
		Tier:               ent.EffectiveTierAt(now),
		IsPremium:          ent.IsPremiumAt(now),
		CanStartTrial:      ent.CanStartTrialAt(now),
		TrialDaysRemaining: ent.TrialDaysRemainingAt(now),
		Record:             ent,
	})
}

type activateRequest struct {
	Type           entitlement.SubscriptionType `json:"type"`
	ProductID      string                       `json:"product_id"`
	StartDate      time.Time                    `json:"start_date"`
	EndDate        *time.Time                   `json:"end_date,omitempty"`
	SubscriptionID string                       `json:"subscription_id,omitempty"`
}

func (s *Service) handleActivate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StartDate.IsZero() {
		req.StartDate = s.clock()
	}

	err := s.ActivatePremiumSubscription(r.Context(), entitlement.ActivationParams{
		Type:           req.Type,
		ProductID:      req.ProductID,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		SubscriptionID: req.SubscriptionID,
	})
	if err != nil {
		if errors.Is(err, entitlement.ErrInvalidSubscriptionType) {
			respondWithError(w, http.StatusBadRequest, "invalid subscription type")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to activate subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type failedPurchaseRequest struct {
	ProductID string `json:"product_id"`
	Reason    string `json:"reason"`
}

func (s *Service) handleFailedPurchase(w http.ResponseWriter, r *http.Request) {
	var req failedPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.HandleFailedPurchase(r.Context(), req.ProductID, req.Reason)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleRestore(w http.ResponseWriter, r *http.Request) {
	d, err := s.RestorePurchases(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to restore purchases")
		return
	}
	if d.Verdict == gate.VerdictRateLimited {
		respondWithJSON(w, http.StatusTooManyRequests, d)
		return
	}
	respondWithJSON(w, http.StatusOK, d)
}

func (s *Service) handleClearData(w http.ResponseWriter, r *http.Request) {
	if err := s.ClearUserData(r.Context()); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to clear user data")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, errorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
