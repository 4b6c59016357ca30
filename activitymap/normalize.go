package activitymap

import (
	"strings"
	"time"

	authclient "github.com/goliatone/go-auth-client"
)

const (
	// MetadataKeyFromState stores the session state before the event.
	MetadataKeyFromState = "from_state"
	// MetadataKeyToState stores the session state after the event.
	MetadataKeyToState = "to_state"

	// ObjectType is the object every session event refers to.
	ObjectType = "session"
)

// Normalized is a session event in actor/verb/object form.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes a Normalized record.
type Option func(*Normalized)

// WithActorID names the client instance, e.g. a device or CLI profile.
func WithActorID(actorID string) Option {
	return func(n *Normalized) {
		if actorID = strings.TrimSpace(actorID); actorID != "" {
			n.ActorID = actorID
		}
	}
}

// WithChannel overrides the "auth.client" channel.
func WithChannel(channel string) Option {
	return func(n *Normalized) {
		if channel = strings.TrimSpace(channel); channel != "" {
			n.Channel = channel
		}
	}
}

// Normalize maps an ActivityEvent onto a session record. The object id is
// the operation that produced the event and the state pair is folded into
// a copy of the event metadata.
func Normalize(event authclient.ActivityEvent, opts ...Option) Normalized {
	out := Normalized{
		ActorID:    "client",
		Verb:       string(event.EventType),
		ObjectType: ObjectType,
		ObjectID:   string(event.Operation),
		Channel:    "auth.client",
		OccurredAt: event.OccurredAt,
	}
	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now().UTC()
	}

	if len(event.Metadata) > 0 || event.From != "" || event.To != "" {
		out.Metadata = make(map[string]any, len(event.Metadata)+2)
		for k, v := range event.Metadata {
			out.Metadata[k] = v
		}
		if event.From != "" {
			out.Metadata[MetadataKeyFromState] = event.From.String()
		}
		if event.To != "" {
			out.Metadata[MetadataKeyToState] = event.To.String()
		}
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&out)
		}
	}
	return out
}
