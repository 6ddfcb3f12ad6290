// internal/ingest/push.go

// Package ingest turns push notifications from either origin (live webhook
// or periodic backfill) into durable event-store state, exactly once in
// effect per commit.
package ingest

import (
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v62/github"

	apperrors "gitpulse/internal/errors"
)

// Push is the origin-agnostic, normalized form of one push notification.
// The webhook handler and the backfill both produce this shape.
type Push struct {
	RepoName     string
	RepoFullName string
	RepoOwner    string
	// RepoPrivate carries the repo's visibility as reported by the origin;
	// display layers mask commit details for private repos.
	RepoPrivate  bool
	Pusher       string
	PusherAvatar string
	// PushedAt is the push timestamp observed at the origin; zero means the
	// gateway should stamp the current instant.
	PushedAt time.Time
	// Enrich requests synchronous best-effort stat lookups per commit.
	// Backfill origin leaves this off and relies on the repair pass.
	Enrich  bool
	Commits []Commit
}

// Commit is one commit within a push, in payload order.
type Commit struct {
	ID        string
	Author    string
	AvatarURL string
	Message   string
	URL       string
	Timestamp time.Time
}

// ParseWebhook authenticates and normalizes a GitHub webhook delivery.
// The signature is recomputed as an HMAC over the raw body and compared in
// constant time (go-github's ValidatePayload). Non-push events and pushes to
// untracked branches come back as IgnoredEventError: accepted, no state
// change.
func ParseWebhook(r *http.Request, secret []byte, trackedBranch string) (*Push, error) {
	if r.Header.Get(gh.SHA256SignatureHeader) == "" && r.Header.Get(gh.SHA1SignatureHeader) == "" {
		return nil, apperrors.ErrMissingSignature
	}

	payload, err := gh.ValidatePayload(r, secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidSignature, err)
	}

	eventType := gh.WebHookType(r)
	if eventType != "push" {
		return nil, &apperrors.IgnoredEventError{Reason: fmt.Sprintf("event type %q", eventType)}
	}

	event, err := gh.ParseWebHook(eventType, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to parse push payload: %w", err)
	}
	pushEvent, ok := event.(*gh.PushEvent)
	if !ok {
		return nil, fmt.Errorf("unexpected payload type %T for push event", event)
	}

	trackedRef := "refs/heads/" + trackedBranch
	if pushEvent.GetRef() != trackedRef {
		return nil, &apperrors.IgnoredEventError{Reason: fmt.Sprintf("ref %q is not %s", pushEvent.GetRef(), trackedRef)}
	}

	return fromPushEvent(pushEvent), nil
}

func fromPushEvent(ev *gh.PushEvent) *Push {
	repo := ev.GetRepo()
	owner := repo.GetOwner().GetLogin()
	if owner == "" {
		owner = repo.GetOwner().GetName()
	}

	push := &Push{
		RepoName:     repo.GetName(),
		RepoFullName: repo.GetFullName(),
		RepoOwner:    owner,
		RepoPrivate:  repo.GetPrivate(),
		Pusher:       ev.GetPusher().GetName(),
		PusherAvatar: ev.GetSender().GetAvatarURL(),
		Enrich:       true,
	}
	for _, c := range ev.Commits {
		push.Commits = append(push.Commits, Commit{
			ID:        c.GetID(),
			Author:    c.GetAuthor().GetLogin(),
			Message:   c.GetMessage(),
			URL:       c.GetURL(),
			Timestamp: c.GetTimestamp().Time,
		})
	}
	return push
}
