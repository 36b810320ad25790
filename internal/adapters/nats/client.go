package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	nats "github.com/nats-io/nats.go"

	"github.com/chintakjoshi/authapp/internal/usecase"
)

type userPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewUserPublisher announces verified accounts on the given subject. The peer
// acks with {"ok":true}; callers treat delivery as best-effort.
func NewUserPublisher(conn *nats.Conn, subject string) usecase.UserPublisher {
	return &userPublisher{conn: conn, subject: subject}
}

func (c *userPublisher) UserCreated(ctx context.Context, id, username, email string) error {
	payload := map[string]interface{}{"id": id, "username": username, "email": email, "source": "auth"}
	return requestAck(ctx, c.conn, c.subject, payload)
}

func requestAck(ctx context.Context, conn *nats.Conn, subject string, payload interface{}) error {
	data, _ := json.Marshal(payload)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	msg, err := conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		return err
	}
	if msg == nil {
		return fmt.Errorf("empty response from %s", subject)
	}
	var resp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return err
	}
	if !resp.OK {
		if resp.Error != "" {
			return fmt.Errorf("%s", resp.Error)
		}
		return fmt.Errorf("request to %s failed", subject)
	}
	return nil
}
