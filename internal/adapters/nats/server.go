package natsadapter

import (
	"encoding/json"
	"errors"

	nats "github.com/nats-io/nats.go"

	"github.com/chintakjoshi/authapp/internal/domain"
	"github.com/chintakjoshi/authapp/internal/tokenverify"
)

// VerifyHandler answers token introspection requests from peer services over
// a queue subscription. Only access tokens pass; refresh tokens are rejected
// as wrong_type so they never double as API credentials.
type VerifyHandler struct {
	validator tokenverify.Validator
	respondFn func(msg *nats.Msg, resp verifyResponse)
}

type verifyRequest struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	OK       bool   `json:"ok"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	Error    string `json:"error,omitempty"`
}

func NewVerifyHandler(validator tokenverify.Validator) *VerifyHandler {
	return &VerifyHandler{validator: validator, respondFn: respond}
}

func (h *VerifyHandler) Subscribe(conn *nats.Conn, subject, queue string) error {
	if conn == nil {
		return errors.New("nats connection is nil")
	}
	_, err := conn.QueueSubscribe(subject, queue, h.handle)
	return err
}

func (h *VerifyHandler) handle(msg *nats.Msg) {
	var req verifyRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		h.respondFn(msg, verifyResponse{OK: false, Error: "invalid_payload"})
		return
	}
	result, err := tokenverify.VerifyAccess(h.validator, req.Token)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenExpired):
			h.respondFn(msg, verifyResponse{OK: false, Error: "expired"})
		case errors.Is(err, domain.ErrTokenWrongType):
			h.respondFn(msg, verifyResponse{OK: false, Error: "wrong_type"})
		default:
			h.respondFn(msg, verifyResponse{OK: false, Error: "invalid_token"})
		}
		return
	}
	h.respondFn(msg, verifyResponse{OK: true, Username: result.Username, Role: result.Role})
}

func respond(msg *nats.Msg, resp verifyResponse) {
	data, _ := json.Marshal(resp)
	_ = msg.Respond(data)
}
