package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/ignite/subscription-intake/internal/domain"
	"github.com/ignite/subscription-intake/internal/pkg/httputil"
	"github.com/ignite/subscription-intake/internal/service/subscription"
)

// Response messages.
const (
	MsgSubscribed          = "Subscribed successfully"
	MsgSubscribeFallback   = "Subscription received"
	MsgUnsubscribed        = "Unsubscribed successfully"
	MsgUnsubscribeFallback = "Unsubscribe request received"
)

// SubscriptionService is the part of subscription.Service the handlers use.
type SubscriptionService interface {
	Subscribe(ctx context.Context, email, source string) (*subscription.SubscribeResult, error)
	Unsubscribe(ctx context.Context, email string) (*subscription.UnsubscribeResult, error)
}

// Handlers serves the intake endpoints.
type Handlers struct {
	svc SubscriptionService
}

// NewHandlers creates intake handlers backed by svc.
func NewHandlers(svc SubscriptionService) *Handlers {
	return &Handlers{svc: svc}
}

type subscribeRequest struct {
	Email  string `json:"email"`
	Source string `json:"source,omitempty"`
}

type subscribeResponse struct {
	Success  bool                 `json:"success"`
	Message  string               `json:"message"`
	ID       string               `json:"id"`
	Data     *domain.Subscription `json:"data,omitempty"`
	Fallback bool                 `json:"fallback,omitempty"`
}

type unsubscribeRequest struct {
	Email string `json:"email"`
}

type unsubscribeResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Fallback bool   `json:"fallback,omitempty"`
}

// HandleSubscribe adds an email to the directory.
//
//	POST /subscribe
func (h *Handlers) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	res, err := h.svc.Subscribe(r.Context(), req.Email, req.Source)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := subscribeResponse{Success: true, Message: MsgSubscribed, ID: res.ID, Data: res.Record}
	if res.Fallback {
		resp.Message = MsgSubscribeFallback
		resp.Fallback = true
	}
	httputil.Created(w, resp)
}

// HandleUnsubscribe removes an email from the directory. Unknown addresses
// succeed too.
//
//	POST /unsubscribe
func (h *Handlers) HandleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	res, err := h.svc.Unsubscribe(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := unsubscribeResponse{Success: true, Message: MsgUnsubscribed}
	if res.Fallback {
		resp.Message = MsgUnsubscribeFallback
		resp.Fallback = true
	}
	httputil.OK(w, resp)
}

func writeServiceError(w http.ResponseWriter, err error) {
	var ve *subscription.ValidationError
	if errors.As(err, &ve) {
		httputil.BadRequest(w, ve.Message)
		return
	}
	httputil.InternalError(w, err)
}
