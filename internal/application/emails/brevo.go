package emails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"wardrobe-backend/internal/domain"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches the Brevo v3 transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoContact   `json:"sender"`
	To          []BrevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
	ReplyTo     *BrevoContact  `json:"replyTo,omitempty"`
}

type BrevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Sender sends transactional emails. Callers log failures and carry on.
type Sender interface {
	SendOrderConfirmation(ctx context.Context, toEmail, name string, order *domain.Order) error
}

// BrevoClient sends through the Brevo (Sendinblue) API. With no APIKey every send is a no-op.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	Endpoint string
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@wardrobe.app"
}

func (c *BrevoClient) send(ctx context.Context, toEmail, toName, subject, html string) error {
	if c.APIKey == "" {
		return nil
	}
	body, err := json.Marshal(BrevoSendRequest{
		Sender:      BrevoContact{Email: c.from(), Name: "Wardrobe"},
		To:          []BrevoContact{{Email: toEmail, Name: toName}},
		Subject:     subject,
		HTMLContent: html,
		ReplyTo:     &BrevoContact{Email: "support@wardrobe.app", Name: "Wardrobe Support"},
	})
	if err != nil {
		return err
	}
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = brevoAPI
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

// SendOrderConfirmation mails the buyer a receipt for a recorded order.
func (c *BrevoClient) SendOrderConfirmation(ctx context.Context, toEmail, name string, order *domain.Order) error {
	if c.APIKey == "" || toEmail == "" {
		return nil
	}
	html, err := renderOrderConfirmation(name, order)
	if err != nil {
		return err
	}
	return c.send(ctx, toEmail, name, "Your Wardrobe order is confirmed", html)
}
