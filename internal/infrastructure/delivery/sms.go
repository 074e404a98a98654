package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/hongkongkiwi/know-your-people/internal/application/ports"
	"github.com/hongkongkiwi/know-your-people/internal/domain"
)

// DefaultSMSTemplate is the message body; {{.Code}} is the verification code.
const DefaultSMSTemplate = "Your verification code is {{.Code}}. It was requested for this phone number; if that wasn't you, ignore this message."

// SMSSenderConfig configures the Plivo-style message API client.
type SMSSenderConfig struct {
	APIURL    string // e.g. https://api.plivo.com/v1/Account/{auth_id}/Message/
	AuthID    string
	AuthToken string
	From      string // sending number
	Template  string // message template; empty means DefaultSMSTemplate
}

// SMSSender delivers codes over a Plivo-style HTTP message API.
type SMSSender struct {
	client *http.Client
	cfg    SMSSenderConfig
	tmpl   *template.Template
}

// NewSMSSender builds the sender; returns an error when the template does not
// parse.
func NewSMSSender(cfg SMSSenderConfig) (*SMSSender, error) {
	text := cfg.Template
	if text == "" {
		text = DefaultSMSTemplate
	}
	tmpl, err := template.New("sms").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse sms template: %w", err)
	}
	return &SMSSender{
		client: &http.Client{Timeout: 10 * time.Second},
		cfg:    cfg,
		tmpl:   tmpl,
	}, nil
}

func (s *SMSSender) Send(ctx context.Context, kind domain.ChannelKind, address, code string) error {
	var text strings.Builder
	if err := s.tmpl.Execute(&text, struct{ Code string }{Code: code}); err != nil {
		return err
	}
	body, err := json.Marshal(map[string]string{
		"src":  s.cfg.From,
		"dst":  address,
		"text": text.String(),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.cfg.AuthID, s.cfg.AuthToken)
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms api returned status %d", resp.StatusCode)
	}
	return nil
}

var _ ports.CodeSender = (*SMSSender)(nil)
