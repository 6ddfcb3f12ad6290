// internal/ingest/push_test.go
package ingest

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "gitpulse/internal/errors"
)

var testSecret = []byte("hush")

const pushPayload = `{
	"ref": "refs/heads/main",
	"repository": {
		"name": "api",
		"full_name": "acme/api",
		"private": true,
		"owner": {"login": "acme"}
	},
	"pusher": {"name": "ana"},
	"sender": {"avatar_url": "https://avatars.example.com/ana"},
	"commits": [
		{
			"id": "1111111",
			"message": "Fix pagination",
			"url": "https://github.com/acme/api/commit/1111111",
			"timestamp": "2025-03-12T10:00:00Z",
			"author": {"username": "ana"}
		},
		{
			"id": "2222222",
			"message": "Tighten retries",
			"url": "https://github.com/acme/api/commit/2222222",
			"timestamp": "2025-03-12T10:01:00Z",
			"author": {"name": "Someone Offline"}
		}
	]
}`

func signedRequest(t *testing.T, event, body string, secret []byte) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/github", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", event)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(body))
	req.Header.Set("X-Hub-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	return req
}

func TestParseWebhook(t *testing.T) {
	t.Run("accepts a signed push to the tracked branch", func(t *testing.T) {
		req := signedRequest(t, "push", pushPayload, testSecret)

		push, err := ParseWebhook(req, testSecret, "main")

		require.NoError(t, err)
		assert.Equal(t, "api", push.RepoName)
		assert.Equal(t, "acme/api", push.RepoFullName)
		assert.Equal(t, "acme", push.RepoOwner)
		assert.True(t, push.RepoPrivate)
		assert.Equal(t, "ana", push.Pusher)
		assert.Equal(t, "https://avatars.example.com/ana", push.PusherAvatar)
		assert.True(t, push.Enrich)

		require.Len(t, push.Commits, 2)
		assert.Equal(t, "1111111", push.Commits[0].ID)
		assert.Equal(t, "ana", push.Commits[0].Author)
		assert.Equal(t, "Fix pagination", push.Commits[0].Message)
		// A commit payload without a GitHub login leaves the author blank
		// for the gateway's pusher fallback.
		assert.Equal(t, "", push.Commits[1].Author)
	})

	t.Run("rejects a request with no signature header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/github", bytes.NewBufferString(pushPayload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-GitHub-Event", "push")

		_, err := ParseWebhook(req, testSecret, "main")

		assert.ErrorIs(t, err, apperrors.ErrMissingSignature)
	})

	t.Run("rejects a signature computed with the wrong secret", func(t *testing.T) {
		req := signedRequest(t, "push", pushPayload, []byte("wrong"))

		_, err := ParseWebhook(req, testSecret, "main")

		assert.ErrorIs(t, err, apperrors.ErrInvalidSignature)
	})

	t.Run("rejects a tampered body", func(t *testing.T) {
		req := signedRequest(t, "push", pushPayload, testSecret)
		req.Body = http.NoBody
		req.ContentLength = 0

		_, err := ParseWebhook(req, testSecret, "main")

		assert.ErrorIs(t, err, apperrors.ErrInvalidSignature)
	})

	t.Run("ignores non-push events", func(t *testing.T) {
		req := signedRequest(t, "issues", `{"action":"opened"}`, testSecret)

		_, err := ParseWebhook(req, testSecret, "main")

		var ignored *apperrors.IgnoredEventError
		require.True(t, errors.As(err, &ignored))
		assert.Contains(t, ignored.Reason, "issues")
	})

	t.Run("ignores pushes to other branches", func(t *testing.T) {
		body := `{"ref":"refs/heads/feature/retry","repository":{"name":"api"}}`
		req := signedRequest(t, "push", body, testSecret)

		_, err := ParseWebhook(req, testSecret, "main")

		var ignored *apperrors.IgnoredEventError
		require.True(t, errors.As(err, &ignored))
		assert.Contains(t, ignored.Reason, "refs/heads/feature/retry")
	})

	t.Run("tracked branch is configurable", func(t *testing.T) {
		body := `{"ref":"refs/heads/develop","repository":{"name":"api","owner":{"login":"acme"}},"pusher":{"name":"ana"}}`
		req := signedRequest(t, "push", body, testSecret)

		push, err := ParseWebhook(req, testSecret, "develop")

		require.NoError(t, err)
		assert.Equal(t, "api", push.RepoName)
	})
}
