package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ossa-ma/recovrr/internal/common"
)

func TestNewEmailNotifier_RequiresConfig(t *testing.T) {
	logger := arbor.NewLogger()

	_, err := NewEmailNotifier(&common.SMTPConfig{}, logger)
	require.Error(t, err)

	_, err = NewEmailNotifier(&common.SMTPConfig{Host: "smtp.example.com"}, logger)
	require.Error(t, err)

	notifier, err := NewEmailNotifier(&common.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "alerts@example.com",
		Password: "secret",
		From:     "alerts@example.com",
	}, logger)
	require.NoError(t, err)
	assert.Equal(t, "email", notifier.Channel())
}
