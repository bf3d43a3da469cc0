package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"food-order-bot/apperr"
	"food-order-bot/conversation"
	"food-order-bot/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const maxWebhookBody = 1 << 20

type TenantResolver interface {
	GetTenantByPhoneNumberID(ctx context.Context, phoneNumberID string) (*models.Tenant, error)
}

type EventHandler interface {
	Handle(ctx context.Context, ev conversation.Event) error
}

// WebhookConfig holds the WhatsApp Cloud API credentials checked on inbound
// calls. An empty AppSecret skips the signature check.
type WebhookConfig struct {
	VerifyToken string
	AppSecret   string
	// Timeout bounds the processing of one message.
	Timeout time.Duration
}

// WebhookHandler acknowledges deliveries immediately and feeds the decoded
// messages to the conversation engine in the background. Messages of one
// conversation are queued and handled one at a time in arrival order, even
// across deliveries; different conversations run concurrently.
type WebhookHandler struct {
	cfg     WebhookConfig
	tenants TenantResolver
	engine  EventHandler
	log     *logrus.Entry
	wg      sync.WaitGroup

	mu     sync.Mutex
	queues map[string][]InboundMessage
}

func NewWebhookHandler(cfg WebhookConfig, tenants TenantResolver, engine EventHandler, log *logrus.Entry) *WebhookHandler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &WebhookHandler{
		cfg:     cfg,
		tenants: tenants,
		engine:  engine,
		log:     log,
		queues:  map[string][]InboundMessage{},
	}
}

// Verify answers the subscription handshake.
func (h *WebhookHandler) Verify(c *gin.Context) {
	if c.Query("hub.mode") != "subscribe" || h.cfg.VerifyToken == "" ||
		!hmac.Equal([]byte(c.Query("hub.verify_token")), []byte(h.cfg.VerifyToken)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "verification failed"})
		return
	}
	c.String(http.StatusOK, c.Query("hub.challenge"))
}

// Receive accepts a delivery. The channel retries anything that is not a
// 2xx, so only malformed or unsigned calls are rejected.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	if h.cfg.AppSecret != "" && !validSignature(body, c.GetHeader("X-Hub-Signature-256"), h.cfg.AppSecret) {
		h.log.Warn("webhook signature mismatch")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	messages, err := DecodeWebhook(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	for _, m := range messages {
		h.enqueue(m)
	}
	c.JSON(http.StatusOK, gin.H{"received": len(messages)})
}

// Wait blocks until in-flight deliveries are processed.
func (h *WebhookHandler) Wait() {
	h.wg.Wait()
}

// enqueue appends m to its conversation queue and starts a drainer when the
// queue was idle.
func (h *WebhookHandler) enqueue(m InboundMessage) {
	key := m.PhoneNumberID + ":" + m.From
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queues[key] = append(h.queues[key], m)
	if len(h.queues[key]) == 1 {
		h.wg.Add(1)
		go h.drain(key)
	}
}

// drain handles the queue of one conversation until it is empty. The head
// stays queued while it is processed so enqueue sees the queue as busy.
func (h *WebhookHandler) drain(key string) {
	defer h.wg.Done()
	for {
		h.mu.Lock()
		m := h.queues[key][0]
		h.mu.Unlock()

		h.process(m)

		h.mu.Lock()
		rest := h.queues[key][1:]
		if len(rest) == 0 {
			delete(h.queues, key)
			h.mu.Unlock()
			return
		}
		h.queues[key] = rest
		h.mu.Unlock()
	}
}

func (h *WebhookHandler) process(m InboundMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.Timeout)
	defer cancel()
	log := h.log.WithFields(logrus.Fields{"phone_number_id": m.PhoneNumberID, "message_id": m.MessageID})

	tenant, err := h.tenants.GetTenantByPhoneNumberID(ctx, m.PhoneNumberID)
	if err != nil {
		if apperr.IsNotFound(err) {
			log.Warn("message for unknown phone number dropped")
		} else {
			log.WithError(err).Error("tenant lookup failed")
		}
		return
	}

	err = h.engine.Handle(ctx, conversation.Event{
		TenantID:          tenant.ID,
		CustomerChannelID: m.From,
		Text:              m.Text,
		ContactName:       m.ContactName,
		MessageID:         m.MessageID,
	})
	if err != nil {
		log.WithError(err).WithField("tenant_id", tenant.ID).Error("message not processed")
	}
}

func validSignature(body []byte, header, secret string) bool {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// InboundMessage is one customer message lifted out of a webhook delivery.
type InboundMessage struct {
	PhoneNumberID string
	From          string
	ContactName   string
	MessageID     string
	Text          string
}

type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				Metadata struct {
					PhoneNumberID string `json:"phone_number_id"`
				} `json:"metadata"`
				Contacts []struct {
					WaID    string `json:"wa_id"`
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
				} `json:"contacts"`
				Messages []waMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type waReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type waMessage struct {
	ID   string `json:"id"`
	From string `json:"from"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
	Button struct {
		Payload string `json:"payload"`
		Text    string `json:"text"`
	} `json:"button"`
	Interactive struct {
		Type        string  `json:"type"`
		ButtonReply waReply `json:"button_reply"`
		ListReply   waReply `json:"list_reply"`
	} `json:"interactive"`
}

// text returns what the customer said. Interactive replies yield their id,
// which carries the option the engine asked for; the title is the fallback.
func (m waMessage) text() (string, bool) {
	switch m.Type {
	case "text":
		return m.Text.Body, true
	case "button":
		return firstNonEmpty(m.Button.Payload, m.Button.Text), true
	case "interactive":
		switch m.Interactive.Type {
		case "button_reply":
			return firstNonEmpty(m.Interactive.ButtonReply.ID, m.Interactive.ButtonReply.Title), true
		case "list_reply":
			return firstNonEmpty(m.Interactive.ListReply.ID, m.Interactive.ListReply.Title), true
		}
	}
	return "", false
}

// DecodeWebhook extracts customer messages from a WhatsApp Cloud API
// delivery. Status callbacks and unsupported message types (media,
// location, reactions) are skipped.
func DecodeWebhook(body []byte) ([]InboundMessage, error) {
	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}
	var out []InboundMessage
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			if change.Field != "" && change.Field != "messages" {
				continue
			}
			v := change.Value
			names := make(map[string]string, len(v.Contacts))
			for _, ct := range v.Contacts {
				names[ct.WaID] = ct.Profile.Name
			}
			for _, m := range v.Messages {
				text, ok := m.text()
				if !ok || strings.TrimSpace(text) == "" {
					continue
				}
				out = append(out, InboundMessage{
					PhoneNumberID: v.Metadata.PhoneNumberID,
					From:          m.From,
					ContactName:   names[m.From],
					MessageID:     m.ID,
					Text:          text,
				})
			}
		}
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
