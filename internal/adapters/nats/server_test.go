package natsadapter

import (
	"encoding/json"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/chintakjoshi/authapp/internal/domain"
	"github.com/chintakjoshi/authapp/internal/usecase"
)

type stubValidator struct {
	responses map[string]validateResult
}

type validateResult struct {
	claims *usecase.TokenClaims
	err    error
}

func (s stubValidator) Validate(token, tokenType string) (*usecase.TokenClaims, error) {
	if res, ok := s.responses[token]; ok {
		return res.claims, res.err
	}
	return nil, domain.ErrTokenMalformed
}

func TestVerifyHandlerSuccess(t *testing.T) {
	validator := stubValidator{responses: map[string]validateResult{
		"good": {claims: &usecase.TokenClaims{Username: "alice", Role: domain.RoleUser}},
	}}
	handler := NewVerifyHandler(validator)
	var captured verifyResponse
	handler.respondFn = func(_ *nats.Msg, resp verifyResponse) { captured = resp }

	payload, _ := json.Marshal(verifyRequest{Token: "good"})
	handler.handle(&nats.Msg{Data: payload})

	if !captured.OK || captured.Username != "alice" || captured.Role != "USER" {
		t.Fatalf("unexpected response: %+v", captured)
	}
}

func TestVerifyHandlerInvalidToken(t *testing.T) {
	handler := NewVerifyHandler(stubValidator{})
	var captured verifyResponse
	handler.respondFn = func(_ *nats.Msg, resp verifyResponse) { captured = resp }

	payload, _ := json.Marshal(verifyRequest{Token: "bad"})
	handler.handle(&nats.Msg{Data: payload})

	if captured.OK || captured.Error != "invalid_token" {
		t.Fatalf("expected invalid_token, got %+v", captured)
	}
}

func TestVerifyHandlerExpiredToken(t *testing.T) {
	validator := stubValidator{responses: map[string]validateResult{
		"stale": {err: domain.ErrTokenExpired},
	}}
	handler := NewVerifyHandler(validator)
	var captured verifyResponse
	handler.respondFn = func(_ *nats.Msg, resp verifyResponse) { captured = resp }

	payload, _ := json.Marshal(verifyRequest{Token: "stale"})
	handler.handle(&nats.Msg{Data: payload})

	if captured.OK || captured.Error != "expired" {
		t.Fatalf("expected expired, got %+v", captured)
	}
}

func TestVerifyHandlerRejectsRefreshToken(t *testing.T) {
	validator := stubValidator{responses: map[string]validateResult{
		"refresh": {err: domain.ErrTokenWrongType},
	}}
	handler := NewVerifyHandler(validator)
	var captured verifyResponse
	handler.respondFn = func(_ *nats.Msg, resp verifyResponse) { captured = resp }

	payload, _ := json.Marshal(verifyRequest{Token: "refresh"})
	handler.handle(&nats.Msg{Data: payload})

	if captured.OK || captured.Error != "wrong_type" {
		t.Fatalf("expected wrong_type, got %+v", captured)
	}
}

func TestVerifyHandlerMalformedPayload(t *testing.T) {
	handler := NewVerifyHandler(stubValidator{})
	var captured verifyResponse
	handler.respondFn = func(_ *nats.Msg, resp verifyResponse) { captured = resp }

	handler.handle(&nats.Msg{Data: []byte("{not json")})

	if captured.OK || captured.Error != "invalid_payload" {
		t.Fatalf("expected invalid_payload, got %+v", captured)
	}
}
