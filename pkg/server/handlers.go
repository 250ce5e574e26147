package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"postplanner-hq/quota/pkg/limits"
	"postplanner-hq/quota/pkg/limits/enforcement"
	"postplanner-hq/quota/pkg/limits/ratelimit"
	"postplanner-hq/quota/pkg/limits/tier"
	"postplanner-hq/quota/pkg/limits/usage"
	"postplanner-hq/quota/pkg/security/auth"
	"postplanner-hq/quota/pkg/server/api"
	"postplanner-hq/quota/pkg/telemetry/logging"
)

// maxBodyBytes bounds request bodies; the only body is {"amount":n}.
const maxBodyBytes = 4096

// Handlers serves the /v1 API on top of a limits.Gate. Every handler
// expects an identity in the request context.
type Handlers struct {
	gate   *limits.Gate
	logger *slog.Logger
}

// NewHandlers creates the API handlers.
func NewHandlers(gate *limits.Gate, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{gate: gate, logger: logger.With("component", "server.handlers")}
}

// RateLimitResponse is the data of an admitted rate limit check.
type RateLimitResponse struct {
	Category  string `json:"category"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	Reset     int64  `json:"reset"`
}

// ChargeRequest is the body of POST /v1/usage/{metric}.
type ChargeRequest struct {
	Amount *int64 `json:"amount"`
}

// FeatureResponse is the data of a feature check.
type FeatureResponse struct {
	Metric         tier.Metric `json:"metric"`
	Tier           tier.Tier   `json:"tier"`
	Allowed        bool        `json:"allowed"`
	Usage          int64       `json:"usage"`
	Limit          tier.Limit  `json:"limit"`
	Message        string      `json:"message,omitempty"`
	UpgradeTo      tier.Tier   `json:"upgradeTo,omitempty"`
	UpgradeMessage string      `json:"upgradeMessage,omitempty"`
}

// TierResponse describes one tier of the static table.
type TierResponse struct {
	Tier         tier.Tier   `json:"tier"`
	Name         string      `json:"name"`
	MonthlyPrice int         `json:"monthlyPrice"`
	Limits       tier.Limits `json:"limits"`
}

// CheckRate handles POST /v1/ratelimit/{category}.
func (h *Handlers) CheckRate(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	category := chi.URLParam(r, "category")
	ctx := logging.WithCategory(r.Context(), category)

	res, decline, err := h.gate.CheckRate(ctx, category, id.UserID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if decline != nil {
		_ = api.WriteDecline(w, decline)
		return
	}

	enforcement.SetRateHeaders(w.Header(), int64(res.Limit), int64(res.Remaining), res.Reset)
	_ = api.WriteSuccess(w, RateLimitResponse{
		Category:  category,
		Limit:     res.Limit,
		Remaining: res.Remaining,
		Reset:     res.Reset.UnixMilli(),
	})
}

// Charge handles POST /v1/usage/{metric}. An empty body charges 1.
func (h *Handlers) Charge(w http.ResponseWriter, r *http.Request) {
	id := identity(r)

	m, err := tier.ParseMetric(chi.URLParam(r, "metric"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	amount, err := decodeAmount(r)
	if err != nil {
		_ = api.WriteError(w, err.Error(), api.CodeInvalidRequest)
		return
	}

	decision, decline, err := h.gate.Charge(r.Context(), id.UserID, id.Tier, m, amount)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if decline != nil {
		_ = api.WriteDecline(w, decline)
		return
	}
	_ = api.WriteSuccess(w, decision)
}

// Usage handles GET /v1/usage.
func (h *Handlers) Usage(w http.ResponseWriter, r *http.Request) {
	id := identity(r)

	report, err := h.gate.Usage(r.Context(), id.UserID, id.Tier)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	_ = api.WriteSuccess(w, report)
}

// Feature handles GET /v1/features/{metric}. A denial is reported in the
// data with status 200; nothing is consumed.
func (h *Handlers) Feature(w http.ResponseWriter, r *http.Request) {
	id := identity(r)

	m, err := tier.ParseMetric(chi.URLParam(r, "metric"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	decision, decline, err := h.gate.Admit(r.Context(), id.UserID, id.Tier, m)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	resp := FeatureResponse{
		Metric:  m,
		Tier:    id.Tier,
		Allowed: decision.Allowed,
		Usage:   decision.Usage,
		Limit:   decision.Limit,
		Message: decision.Message,
	}
	if decline != nil {
		resp.UpgradeTo = decline.UpgradeTo
		resp.UpgradeMessage = decline.UpgradeMessage
	}
	_ = api.WriteSuccess(w, resp)
}

// ListTiers handles GET /v1/tiers.
func (h *Handlers) ListTiers(w http.ResponseWriter, r *http.Request) {
	tiers := make([]TierResponse, 0, len(tier.All()))
	for _, t := range tier.All() {
		resp, err := describeTier(t)
		if err != nil {
			h.writeErr(w, r, err)
			return
		}
		tiers = append(tiers, resp)
	}
	_ = api.WriteSuccess(w, tiers)
}

// GetTier handles GET /v1/tiers/{tier}.
func (h *Handlers) GetTier(w http.ResponseWriter, r *http.Request) {
	t, err := tier.ParseTier(chi.URLParam(r, "tier"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	resp, err := describeTier(t)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	_ = api.WriteSuccess(w, resp)
}

// writeErr maps domain errors to API errors. Anything unrecognised is
// logged and reported as an internal error.
func (h *Handlers) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ratelimit.ErrUnknownCategory):
		_ = api.WriteError(w, err.Error(), api.CodeUnknownCategory)
	case errors.Is(err, tier.ErrUnknownMetric):
		_ = api.WriteError(w, err.Error(), api.CodeUnknownMetric)
	case errors.Is(err, tier.ErrUnknownTier):
		_ = api.WriteError(w, err.Error(), api.CodeUnknownTier)
	case errors.Is(err, usage.ErrInvalidAmount):
		_ = api.WriteError(w, err.Error(), api.CodeInvalidAmount)
	default:
		h.logger.ErrorContext(r.Context(), "request failed",
			"error", err,
			"path", r.URL.Path,
		)
		_ = api.WriteError(w, "An internal error occurred. Please try again later.", api.CodeInternal)
	}
}

func identity(r *http.Request) *auth.Identity {
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		return id
	}
	return auth.Anonymous()
}

func decodeAmount(r *http.Request) (int64, error) {
	var req ChargeRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return 1, nil
		}
		return 0, errors.New("invalid JSON body")
	}
	if req.Amount == nil {
		return 1, nil
	}
	return *req.Amount, nil
}

func describeTier(t tier.Tier) (TierResponse, error) {
	name, err := tier.DisplayName(t)
	if err != nil {
		return TierResponse{}, err
	}
	price, err := tier.MonthlyPrice(t)
	if err != nil {
		return TierResponse{}, err
	}
	l, err := tier.GetTierLimits(t)
	if err != nil {
		return TierResponse{}, err
	}
	return TierResponse{Tier: t, Name: name, MonthlyPrice: price, Limits: l}, nil
}
