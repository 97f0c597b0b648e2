package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tartampluch/drem/internal/config"
)

// TestConstants_Integrity ensures critical constants are not empty or malformed.
func TestConstants_Integrity(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"AppName", config.AppName},
		{"AppID", config.AppID},
		{"Version", config.Version},
		{"UserAgent", config.UserAgent},
		{"DefaultMailSubject", config.DefaultMailSubject},
		{"DefaultSubjectPrefix", config.DefaultSubjectPrefix},
		{"ICalProdid", config.ICalProdid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEmpty(t, tt.value, "Critical constant %s should not be empty", tt.name)
		})
	}
}

// TestDefaults_Sanity checks that default values match the historical job behaviour.
func TestDefaults_Sanity(t *testing.T) {
	assert.Equal(t, "[drem] Date Reminders", config.DefaultMailSubject)
	assert.True(t, strings.HasPrefix(config.DefaultMailSubject, config.DefaultSubjectPrefix))
	assert.Equal(t, time.Sunday, config.DefaultNotifyWeekday, "Weekly summary goes out at the end of the week")
	assert.Equal(t, "01/02/2006", config.DateFormatRecord)
	assert.Equal(t, config.BadRecordFail, config.DefaultBadRecord)
}

// TestUserAgent_Format ensures the UA string follows the standard format.
func TestUserAgent_Format(t *testing.T) {
	assert.True(t, strings.HasPrefix(config.UserAgent, "drem/"), "UserAgent must start with AppName/")
}

// TestTimeoutsAndLimits ensures that operational constraints are reasonable.
func TestTimeoutsAndLimits(t *testing.T) {
	t.Parallel()

	assert.Greater(t, config.HTTPTimeout, 0*time.Second, "HTTPTimeout must be positive")
	assert.LessOrEqual(t, config.HTTPTimeout, 2*time.Minute, "HTTPTimeout should not be excessively long")
	assert.Greater(t, config.DefaultTimeout, 0*time.Second)
	assert.Greater(t, config.ShutdownTimeout, 0*time.Second, "ShutdownTimeout must be positive")

	// Address books are small; anything above a few MB is not a contact list.
	assert.Greater(t, config.MaxHTTPResponseSize, 0, "MaxHTTPResponseSize must be positive")
	assert.LessOrEqual(t, int64(config.MaxHTTPResponseSize), int64(64*1024*1024))
}
