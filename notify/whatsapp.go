package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WhatsAppClient sends text messages through the WhatsApp Cloud API.
type WhatsAppClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewWhatsAppClient(baseURL, token string, timeout time.Duration) *WhatsAppClient {
	return &WhatsAppClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

type waTextRequest struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		PreviewURL bool   `json:"preview_url"`
		Body       string `json:"body"`
	} `json:"text"`
}

type waSendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (c *WhatsAppClient) Send(ctx context.Context, msg Message) (string, error) {
	if msg.From == "" {
		return "", fmt.Errorf("whatsapp: tenant %s has no phone number id", msg.TenantID)
	}
	req := waTextRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               msg.To,
		Type:             "text",
	}
	req.Text.Body = msg.Text
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/%s/messages", c.baseURL, msg.From), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("whatsapp: send: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("whatsapp: read response: %w", err)
	}
	var out waSendResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("whatsapp: status %d: decode response: %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 || out.Error != nil {
		if out.Error != nil {
			return "", fmt.Errorf("whatsapp: status %d: %s (code %d)", resp.StatusCode, out.Error.Message, out.Error.Code)
		}
		return "", fmt.Errorf("whatsapp: status %d", resp.StatusCode)
	}
	if len(out.Messages) == 0 {
		return "", nil
	}
	return out.Messages[0].ID, nil
}
