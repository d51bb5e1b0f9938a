package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/anishk6674/kanchan-chilled/internal/resilience"
)

// MessageCreator is the subset of the Twilio API used to send messages.
type MessageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender delivers SMS, or WhatsApp for numbers prefixed "whatsapp:",
// through Twilio behind a circuit breaker.
type TwilioSender struct {
	API      MessageCreator
	From     string
	Breaker  *resilience.Breaker
	Attempts int
	Backoff  time.Duration
	Logger   zerolog.Logger
}

// NewTwilioSender builds a sender from account credentials.
func NewTwilioSender(accountSID, authToken, from string, breaker *resilience.Breaker, logger zerolog.Logger) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{
		API:      client.Api,
		From:     from,
		Breaker:  breaker,
		Attempts: 3,
		Backoff:  200 * time.Millisecond,
		Logger:   logger,
	}
}

// Send implements SMSSender.
func (s *TwilioSender) Send(ctx context.Context, to, body string) (string, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return "", ErrNoRecipient
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetBody(body)
	if strings.HasPrefix(to, "whatsapp:") && !strings.HasPrefix(s.From, "whatsapp:") {
		params.SetFrom("whatsapp:" + s.From)
	} else {
		params.SetFrom(s.From)
	}

	var sid string
	send := func(context.Context) error {
		resp, err := s.API.CreateMessage(params)
		if err != nil {
			return err
		}
		if resp != nil && resp.Sid != nil {
			sid = *resp.Sid
		}
		return nil
	}
	err := resilience.Retry(ctx, s.Attempts, s.Backoff, 0.2, func(ctx context.Context) error {
		if s.Breaker == nil {
			return send(ctx)
		}
		return s.Breaker.Call(ctx, send)
	})
	if err != nil {
		s.Logger.Warn().Err(err).Str("to", to).Msg("sms_failed")
		return "", fmt.Errorf("twilio send: %w", err)
	}
	s.Logger.Info().Str("to", to).Str("sid", sid).Msg("sms_sent")
	return sid, nil
}
