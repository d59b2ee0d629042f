package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureAudit(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(zerolog.New(&buf))
	t.Cleanup(func() { SetOutput(zerolog.New(os.Stdout).With().Timestamp().Logger()) })
	return &buf
}

func TestLog(t *testing.T) {
	buf := captureAudit(t)

	Log("identity", "Login", "user-1", "", "Invalid password", false, errors.New("invalid credentials"))

	var line struct {
		Event Event `json:"audit_event"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.NotEmpty(t, line.Event.ID)
	assert.Equal(t, "identity", line.Event.Service)
	assert.Equal(t, "Login", line.Event.Action)
	assert.Equal(t, "user-1", line.Event.User)
	assert.Equal(t, "Invalid password", line.Event.Details)
	assert.False(t, line.Event.Success)
	assert.Equal(t, "invalid credentials", line.Event.Error)
	assert.False(t, line.Event.Timestamp.IsZero())
}

func TestLog_SuccessOmitsError(t *testing.T) {
	buf := captureAudit(t)

	Log("api", "Logout", "user-2", "", "", true, nil)

	assert.Contains(t, buf.String(), `"success":true`)
	assert.NotContains(t, buf.String(), `"error"`)
}
