package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ossa-ma/recovrr/internal/common"
	"github.com/ossa-ma/recovrr/internal/models"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// SMSNotifier delivers match alerts by SMS through the Twilio REST API
type SMSNotifier struct {
	config     *common.TwilioConfig
	logger     arbor.ILogger
	httpClient *http.Client
	baseURL    string
}

// NewSMSNotifier creates an SMS notifier. Returns an error when the Twilio
// configuration is incomplete so the dispatcher can skip the channel.
func NewSMSNotifier(config *common.TwilioConfig, logger arbor.ILogger) (*SMSNotifier, error) {
	if config.AccountSID == "" || config.AuthToken == "" || config.From == "" {
		return nil, fmt.Errorf("Twilio credentials not fully configured")
	}
	return &SMSNotifier{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: twilioAPIBase,
	}, nil
}

// Channel returns the notification channel identifier
func (n *SMSNotifier) Channel() string {
	return "sms"
}

// Notify sends a match alert SMS to the profile owner
func (n *SMSNotifier) Notify(ctx context.Context, listing *models.Listing, profile *models.SearchProfile, result *models.AnalysisResult) error {
	if profile.OwnerPhone == "" {
		return fmt.Errorf("profile %s has no owner phone", profile.ID)
	}

	body := formatSMSBody(listing, profile, result)
	sid, err := n.sendMessage(ctx, profile.OwnerPhone, body)
	if err != nil {
		return fmt.Errorf("failed to send match alert SMS: %w", err)
	}

	n.logger.Info().
		Str("to", profile.OwnerPhone).
		Str("listing_id", listing.ID).
		Str("message_sid", sid).
		Msg("Match alert SMS sent")

	return nil
}

// twilioMessageResponse is the subset of Twilio's message resource we read
type twilioMessageResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorCode    *int   `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// sendMessage posts one message to the Twilio Messages endpoint
func (n *SMSNotifier) sendMessage(ctx context.Context, to, body string) (string, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", n.config.From)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", n.baseURL, n.config.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create Twilio request: %w", err)
	}
	req.SetBasicAuth(n.config.AccountSID, n.config.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("Twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read Twilio response: %w", err)
	}

	var message twilioMessageResponse
	if err := json.Unmarshal(respBody, &message); err != nil {
		return "", fmt.Errorf("failed to parse Twilio response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("Twilio returned status %d: %s", resp.StatusCode, message.ErrorMessage)
	}
	if message.SID == "" {
		return "", fmt.Errorf("Twilio returned no message SID")
	}

	return message.SID, nil
}
