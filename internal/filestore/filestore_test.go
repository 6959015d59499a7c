package filestore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/talenttrack/internal/errs"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"contracts/jdoe.pdf", "contracts/jdoe.pdf"},
		{"/uploads/contracts/jdoe.pdf", "uploads/contracts/jdoe.pdf"},
		{"./forms//w4.pdf", "forms/w4.pdf"},
		{`ids\passport.png`, "ids/passport.png"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ObjectKey(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "/", "../etc/passwd", "docs/../../secret"} {
		_, err := ObjectKey(bad)
		assert.True(t, errs.IsInvalidInput(err), bad)
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, Config{Provider: ProviderNone}.Validate())
	assert.False(t, Config{}.Enabled())

	cfg := DefaultConfig()
	cfg.Provider = "s3"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Endpoint = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.PresignTTL = 8 * 24 * time.Hour
	assert.Error(t, cfg.Validate())
}
