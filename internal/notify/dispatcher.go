package notify

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/ossa-ma/recovrr/internal/common"
	"github.com/ossa-ma/recovrr/internal/interfaces"
	"github.com/ossa-ma/recovrr/internal/models"
)

// MatchDispatcher fans match alerts out to the configured channels and
// records delivery so a match is announced at most once.
//
// Channel policy: email goes out for every qualifying match; SMS is
// reserved for severe ones (score at or above the SMS threshold, or a
// high_priority recommendation). The notification_sent flag is set when
// at least one channel delivered, and a listing whose channels all failed
// stays eligible for the next cycle.
type MatchDispatcher struct {
	notifiers    []interfaces.Notifier
	analysis     interfaces.AnalysisStorage
	smsThreshold float64
	logger       arbor.ILogger
}

// NewMatchDispatcher builds a dispatcher from the notification config.
// Channels with incomplete credentials are skipped with a warning rather
// than failing startup; running scrape-only is a supported mode.
func NewMatchDispatcher(config *common.Config, analysis interfaces.AnalysisStorage, logger arbor.ILogger) *MatchDispatcher {
	d := &MatchDispatcher{
		analysis:     analysis,
		smsThreshold: config.Monitor.SMSThreshold,
		logger:       logger,
	}

	if email, err := NewEmailNotifier(&config.SMTP, logger); err != nil {
		logger.Warn().Err(err).Msg("Email notifications disabled")
	} else {
		d.notifiers = append(d.notifiers, email)
	}

	if sms, err := NewSMSNotifier(&config.Twilio, logger); err != nil {
		logger.Warn().Err(err).Msg("SMS notifications disabled")
	} else {
		d.notifiers = append(d.notifiers, sms)
	}

	if len(d.notifiers) == 0 {
		logger.Warn().Msg("No notification channels configured")
	}

	return d
}

// Channels returns the active channel identifiers
func (d *MatchDispatcher) Channels() []string {
	channels := make([]string, 0, len(d.notifiers))
	for _, n := range d.notifiers {
		channels = append(channels, n.Channel())
	}
	return channels
}

// Dispatch sends a match alert through every applicable channel and marks
// the result notified when at least one delivery succeeded. Returns
// whether a notification went out.
func (d *MatchDispatcher) Dispatch(ctx context.Context, listing *models.Listing, profile *models.SearchProfile, result *models.AnalysisResult) (bool, error) {
	if result.NotificationSent {
		return false, nil
	}

	sent := false
	for _, notifier := range d.notifiers {
		if !d.channelApplies(notifier.Channel(), profile, result) {
			continue
		}

		if err := notifier.Notify(ctx, listing, profile, result); err != nil {
			d.logger.Error().
				Err(err).
				Str("channel", notifier.Channel()).
				Str("listing_id", listing.ID).
				Str("profile_id", profile.ID).
				Msg("Notification delivery failed")
			continue
		}
		sent = true
	}

	if !sent {
		return false, nil
	}

	if err := d.analysis.MarkNotificationSent(ctx, result.ID); err != nil {
		// The alert went out; surface the bookkeeping failure but report sent.
		return true, err
	}
	result.NotificationSent = true

	return true, nil
}

// channelApplies decides whether a channel should carry this alert
func (d *MatchDispatcher) channelApplies(channel string, profile *models.SearchProfile, result *models.AnalysisResult) bool {
	switch channel {
	case "email":
		return profile.OwnerEmail != ""
	case "sms":
		if profile.OwnerPhone == "" {
			return false
		}
		return result.MatchScore >= d.smsThreshold || result.Recommendation == models.RecommendationHighPriority
	default:
		return true
	}
}
