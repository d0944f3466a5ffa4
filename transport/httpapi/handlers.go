package httpapi

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"
	pipelinex "github.com/tanpawarit/ina-negotiation/agent/agents/pipeline"
	contractx "github.com/tanpawarit/ina-negotiation/agent/contract"
	statex "github.com/tanpawarit/ina-negotiation/agent/state"
)

type decideRequest struct {
	MAM           *float64      `json:"mam"`
	AskingPrice   *float64      `json:"asking_price"`
	UserOffer     *float64      `json:"user_offer"`
	UserIntent    string        `json:"user_intent"`
	UserSentiment string        `json:"user_sentiment"`
	SessionID     string        `json:"session_id"`
	History       []statex.Turn `json:"history"`
}

func (req decideRequest) negotiationContext() (contractx.NegotiationContext, error) {
	if req.MAM == nil {
		return contractx.NegotiationContext{}, errors.New("mam is required")
	}
	if req.AskingPrice == nil {
		return contractx.NegotiationContext{}, errors.New("asking_price is required")
	}
	if !validPrice(*req.MAM) || *req.MAM == 0 {
		return contractx.NegotiationContext{}, errors.New("mam must be a positive number")
	}
	if !validPrice(*req.AskingPrice) {
		return contractx.NegotiationContext{}, errors.New("asking_price must be a non-negative number")
	}
	offer := 0.0
	if req.UserOffer != nil {
		if !validPrice(*req.UserOffer) {
			return contractx.NegotiationContext{}, errors.New("user_offer must be a non-negative number")
		}
		offer = *req.UserOffer
	}

	sentiment := strings.ToLower(strings.TrimSpace(req.UserSentiment))
	if sentiment == "" {
		sentiment = contractx.SentimentNeutral
	}
	intent := strings.TrimSpace(req.UserIntent)
	if intent == "" {
		intent = contractx.IntentUnknown
	}

	return contractx.NegotiationContext{
		MAM:           *req.MAM,
		AskingPrice:   *req.AskingPrice,
		UserOffer:     offer,
		UserIntent:    intent,
		UserSentiment: sentiment,
		SessionID:     req.SessionID,
		History:       req.History,
	}, nil
}

// phraseRequest accepts the full decision shape; only the projection is
// forwarded. mam and asking_price are decoded solely to detect and drop them.
type phraseRequest struct {
	Action           contractx.Action      `json:"action"`
	ResponseKey      contractx.ResponseKey `json:"response_key"`
	CounterPrice     *float64              `json:"counter_price"`
	PolicyType       string                `json:"policy_type"`
	PolicyVersion    string                `json:"policy_version"`
	DecisionMetadata map[string]any        `json:"decision_metadata"`

	MAM         *float64 `json:"mam"`
	AskingPrice *float64 `json:"asking_price"`
}

func (req phraseRequest) projection() (contractx.PhrasingRequest, error) {
	if !req.Action.Valid() {
		return contractx.PhrasingRequest{}, errors.New("action must be one of ACCEPT, REJECT, COUNTER")
	}
	if strings.TrimSpace(string(req.ResponseKey)) == "" {
		return contractx.PhrasingRequest{}, errors.New("response_key is required")
	}

	out := contractx.PhrasingRequest{Action: req.Action, ResponseKey: req.ResponseKey}
	if req.Action == contractx.ActionReject {
		return out, nil
	}
	if req.CounterPrice == nil {
		return contractx.PhrasingRequest{}, errors.New("counter_price is required for ACCEPT and COUNTER")
	}
	if !validPrice(*req.CounterPrice) {
		return contractx.PhrasingRequest{}, errors.New("counter_price must be a non-negative number")
	}
	price := *req.CounterPrice
	out.CounterPrice = &price
	return out, nil
}

func (req phraseRequest) floorFields() []string {
	var fields []string
	if req.MAM != nil {
		fields = append(fields, "mam")
	}
	if req.AskingPrice != nil {
		fields = append(fields, "asking_price")
	}
	if _, ok := req.DecisionMetadata["mam"]; ok {
		fields = append(fields, "decision_metadata.mam")
	}
	return fields
}

type parseRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id"`
}

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type chatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id,omitempty"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func validPrice(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	var req decideRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	nc, err := req.negotiationContext()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.decider.Decide(nc))
}

func (h *Handler) Phrase(w http.ResponseWriter, r *http.Request) {
	var req phraseRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fields := req.floorFields(); len(fields) > 0 {
		hlog.FromRequest(r).Warn().
			Strs("fields", fields).
			Msg("floor fields in phrase request stripped")
	}
	in, err := req.projection()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := h.phraser.Phrase(r.Context(), in)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, out)
	case errors.Is(err, contractx.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		hlog.FromRequest(r).Error().Err(err).
			Str("response_key", string(in.ResponseKey)).
			Msg("phrase failed")
		writeError(w, http.StatusBadGateway, "phrasing unavailable")
	}
}

func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	writeJSON(w, http.StatusOK, h.parse(req.Text))
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.chat.HandleMessage(r.Context(), req.UserID, req.Message)
	if err != nil {
		if errors.Is(err, pipelinex.ErrInvalidMessage) {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}
		hlog.FromRequest(r).Error().Err(err).
			Str("user_id", req.UserID).
			Msg("chat pipeline failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	out := chatResponse{Response: reply.Text}
	if reply.Assigned {
		out.SessionID = reply.SessionID
	}
	if len(reply.Degraded) > 0 {
		hlog.FromRequest(r).Debug().
			Str("session_id", reply.SessionID).
			Strs("degraded", reply.Degraded).
			Msg("chat reply used fallbacks")
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	out := healthResponse{Status: "ok", Service: h.serviceName}
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.healthTimeout)
		defer cancel()
		if err := h.health.Ping(ctx); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("health check degraded")
			out.Status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, out)
}
