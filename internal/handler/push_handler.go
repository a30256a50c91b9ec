package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/akciovadasz/backend/internal/model"
	"github.com/akciovadasz/backend/internal/service"
)

// PushHandler serves notification permission, Web Push subscriptions and
// the expiry notification ledger.
type PushHandler struct {
	service NotificationServiceInterface
	deals   DealServiceInterface
}

func NewPushHandler(svc NotificationServiceInterface, deals DealServiceInterface) *PushHandler {
	return &PushHandler{service: svc, deals: deals}
}

type permissionResponse struct {
	Permission model.Permission `json:"permission"`
	Senders    []string         `json:"senders"`
}

// GetPermission returns the stored notification permission
// @Summary Get notification permission
// @Tags notifications
// @Produce json
// @Success 200 {object} permissionResponse
// @Router /notifications/permission [get]
func (h *PushHandler) GetPermission(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, permissionResponse{
		Permission: h.service.Permission(r.Context()),
		Senders:    h.service.SenderNames(),
	})
}

type permissionRequest struct {
	Permission string `json:"permission"`
}

// SetPermission records the outcome of the client's permission prompt
// @Summary Record notification permission
// @Tags notifications
// @Accept json
// @Produce json
// @Param input body permissionRequest true "granted or denied"
// @Success 200 {object} permissionResponse
// @Failure 400 {object} ErrorResponse
// @Router /notifications/permission [put]
func (h *PushHandler) SetPermission(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		respondAppError(w, appErr)
		return
	}

	p, err := h.service.SetPermission(r.Context(), req.Permission)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, permissionResponse{Permission: p, Senders: h.service.SenderNames()})
}

// GetVAPIDPublicKey returns the VAPID public key for push subscription
// @Summary Get VAPID public key
// @Tags notifications
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} ErrorResponse
// @Router /notifications/vapid-public-key [get]
func (h *PushHandler) GetVAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.service.PushPublicKey()
	if err != nil {
		if errors.Is(err, service.ErrVAPIDNotConfigured) {
			respondError(w, http.StatusServiceUnavailable, "Push notifications not configured")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to get VAPID key")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"publicKey": key})
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

// Subscribe registers a browser push subscription
// @Summary Subscribe to push notifications
// @Tags notifications
// @Accept json
// @Produce json
// @Param input body subscribeRequest true "Subscription data"
// @Success 201 {object} model.PushSubscription
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /notifications/subscribe [post]
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		respondAppError(w, appErr)
		return
	}

	sub := model.PushSubscription{
		Endpoint: strings.TrimSpace(req.Endpoint),
		P256dh:   req.P256dh,
		Auth:     req.Auth,
	}
	if ua := r.UserAgent(); ua != "" {
		sub.UserAgent = &ua
	}

	if err := h.service.Subscribe(r.Context(), sub); err != nil {
		if errors.Is(err, service.ErrVAPIDNotConfigured) {
			respondError(w, http.StatusServiceUnavailable, "Push notifications not configured")
			return
		}
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, sub)
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// Unsubscribe removes a push subscription
// @Summary Unsubscribe from push notifications
// @Tags notifications
// @Accept json
// @Param input body unsubscribeRequest true "Subscription endpoint"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Router /notifications/unsubscribe [post]
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		respondAppError(w, appErr)
		return
	}

	if err := h.service.Unsubscribe(r.Context(), strings.TrimSpace(req.Endpoint)); err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetLedger returns which expiry alerts were already sent
// @Summary Expiry notification ledger
// @Description Maps a product key to the validUntil date that was already alerted on
// @Tags notifications
// @Produce json
// @Success 200 {object} map[string]string
// @Router /notifications/ledger [get]
func (h *PushHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.deals.ExpiryLedger(r.Context()))
}

// ClearLedger forgets every sent expiry alert
// @Summary Clear the expiry notification ledger
// @Tags notifications
// @Success 204
// @Router /notifications/ledger [delete]
func (h *PushHandler) ClearLedger(w http.ResponseWriter, r *http.Request) {
	if err := h.deals.ClearExpiryLedger(r.Context()); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
