// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/playforge/ladder/internal/adapters/gate"
	"github.com/playforge/ladder/internal/domain/model"
)

// GateHandler handles POST /gate requests: an external gate check,
// optionally combined with recording a score for the same client.
type GateHandler struct {
	deps          Dependencies
	apiKey        string
	allowClientIP bool
}

// NewGateHandler creates a new gate handler.
func NewGateHandler(deps Dependencies, apiKey string, allowClientIP bool) *GateHandler {
	return &GateHandler{deps: deps, apiKey: apiKey, allowClientIP: allowClientIP}
}

// gateRequest mirrors the JSON body of POST /gate. All fields are optional;
// header-derived signals win over body fallbacks.
type gateRequest struct {
	GUID  string   `json:"guid"`
	Name  string   `json:"name"`
	Tag   string   `json:"tag"`
	Score *float64 `json:"score"`

	UA       string `json:"ua"`
	Language string `json:"language"`
	IP       string `json:"ip"`
	SubID    string `json:"sub_id"`
	SubID2   string `json:"sub2"`
}

// gateResponse is always fully shaped so clients never branch on absent keys.
type gateResponse struct {
	OK          bool   `json:"ok"`
	StatusCode  int    `json:"statusCode,omitempty"`
	Passed      bool   `json:"passed"`
	StreamID    int64  `json:"streamId"`
	URL         string `json:"url"`
	SubID       string `json:"subId"`
	RecordSaved bool   `json:"recordSaved"`
	Error       string `json:"error,omitempty"`
}

// HandlePostGate handles POST /gate requests.
func (h *GateHandler) HandlePostGate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if !authorized(r, h.apiKey) {
		writeError(w, http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
		return
	}

	var req gateRequest
	if r.Body != nil {
		// Body is optional; signals fall back to request headers.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	sig := h.signals(r, req)

	// Score submission and gate lookup are independent branches; neither
	// failure aborts the other.
	if req.GUID != "" && req.Score != nil && isGUIDLike(req.GUID) {
		fields := model.Fields{Name: req.Name, Tag: req.Tag, Score: *req.Score}
		res := h.deps.SubmitAndCheck(r.Context(), req.GUID, fields, sig)
		writeJSON(w, http.StatusOK, gateResponse{
			OK:          res.GateErr == nil,
			StatusCode:  res.Decision.StatusCode,
			Passed:      res.Decision.Passed,
			StreamID:    res.Decision.StreamID,
			URL:         res.Decision.RedirectURL,
			SubID:       res.Decision.SubID,
			RecordSaved: res.Record != nil,
			Error:       errorText(res.GateErr),
		})
		return
	}

	decision, err := h.deps.CheckGate(r.Context(), sig)
	if errors.Is(err, gate.ErrNotConfigured) {
		writeJSON(w, http.StatusInternalServerError, gateResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, gateResponse{
		OK:         err == nil,
		StatusCode: decision.StatusCode,
		Passed:     decision.Passed,
		StreamID:   decision.StreamID,
		URL:        decision.RedirectURL,
		SubID:      decision.SubID,
		Error:      errorText(err),
	})
}

// signals derives gate inputs from the request, preferring headers over
// body fallbacks. The caller-supplied IP is honored only when explicitly
// enabled for test traffic.
func (h *GateHandler) signals(r *http.Request, req gateRequest) gate.Signals {
	ua := r.UserAgent()
	if ua == "" {
		ua = req.UA
	}
	language := acceptLanguage(r)
	if language == "" {
		language = req.Language
	}
	ip := realIP(r)
	if h.allowClientIP && req.IP != "" {
		ip = req.IP
	}
	return gate.Signals{
		IP:        ip,
		UserAgent: ua,
		Language:  language,
		SubID:     req.SubID,
		SubID2:    req.SubID2,
	}
}

// realIP returns the client address: first X-Forwarded-For hop when
// present, else the connection's remote address, with the IPv4-mapped
// prefix stripped.
func realIP(r *http.Request) string {
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx >= 0 && !strings.Contains(ip[idx:], "]") {
		ip = ip[:idx]
	}
	ip = strings.Trim(ip, "[]")
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip = strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	return strings.TrimPrefix(ip, "::ffff:")
}

// acceptLanguage extracts the first language tag from Accept-Language.
func acceptLanguage(r *http.Request) string {
	al := r.Header.Get("Accept-Language")
	if al == "" {
		return ""
	}
	first := strings.Split(al, ",")[0]
	return strings.TrimSpace(strings.Split(first, ";")[0])
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
