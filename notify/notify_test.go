package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhatsAppClientSend(t *testing.T) {
	var got waTextRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/phone-1/messages", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"messages":[{"id":"wamid.123"}]}`)
	}))
	defer srv.Close()

	c := NewWhatsAppClient(srv.URL, "secret-token", time.Second)
	id, err := c.Send(context.Background(), Message{From: "phone-1", To: "5491122223333", Text: "hola"})
	require.NoError(t, err)
	assert.Equal(t, "wamid.123", id)
	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "5491122223333", got.To)
	assert.Equal(t, "hola", got.Text.Body)
}

func TestWhatsAppClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Invalid OAuth access token","code":190}}`)
	}))
	defer srv.Close()

	c := NewWhatsAppClient(srv.URL, "secret-token", time.Second)
	_, err := c.Send(context.Background(), Message{From: "phone-1", To: "1", Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "190")
	assert.NotContains(t, err.Error(), "secret-token")

	_, err = c.Send(context.Background(), Message{To: "1", Text: "x"})
	assert.Error(t, err)
}

type recordingSender struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return "id", s.err
}

func TestDispatcherSwallowsFailures(t *testing.T) {
	sender := &recordingSender{err: errors.New("boom")}
	log := logrus.New()
	log.SetOutput(io.Discard)
	d := NewDispatcher(sender, time.Second, logrus.NewEntry(log))

	d.Dispatch(Message{To: "a", Text: "1"}, nil)
	d.Dispatch(Message{To: "", Text: "skipped"}, nil)
	d.Dispatch(Message{To: "b", Text: "2"}, logrus.Fields{"order_id": "o1"})
	d.Wait()

	assert.Len(t, sender.sent, 2)
}

func TestOrderEventRoutingKey(t *testing.T) {
	assert.Equal(t, "order.created", OrderEvent{Type: "created"}.RoutingKey())
}
