// Package conversations computes per-user conversation lists at read
// time. Nothing here is a maintained view: correctness is "as of query
// time", recomputed from the envelope store on every call.
package conversations

import (
	"context"
	"log"

	grpcclient "messaging-service/internal/grpc"
	"messaging-service/internal/models"
	"messaging-service/internal/presence"
	"messaging-service/internal/repositories"
)

// Aggregator joins the newest envelope per session with unread counts and
// counterpart profiles.
type Aggregator struct {
	messages repositories.MessageRepository
	users    grpcclient.UserDirectory
	registry presence.Registry
}

// NewAggregator constructs the aggregator.
func NewAggregator(messages repositories.MessageRepository, users grpcclient.UserDirectory, registry presence.Registry) *Aggregator {
	return &Aggregator{messages: messages, users: users, registry: registry}
}

// RecentConversations returns up to limit summaries, most recent first.
// The store query already groups by session and picks the newest
// non-deleted envelope; this layer adds unread counts, counterpart
// profile fields, and presence.
func (a *Aggregator) RecentConversations(ctx context.Context, userID, limit int) ([]models.ConversationSummary, error) {
	latest, err := a.messages.LatestPerSession(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if len(latest) == 0 {
		return []models.ConversationSummary{}, nil
	}

	unread, err := a.messages.UnreadPerSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	counterpartIDs := make([]int, 0, len(latest))
	for i := range latest {
		counterpartIDs = append(counterpartIDs, latest[i].Counterpart(userID))
	}

	usernameByID := map[int]string{}
	profiles, err := a.users.BulkUsers(ctx, counterpartIDs)
	if err != nil {
		// Profile enrichment is best-effort; summaries still carry ids.
		log.Printf("bulk user lookup: %v", err)
	} else {
		for _, p := range profiles {
			usernameByID[int(p.GetId())] = p.GetUsername()
		}
	}

	summaries := make([]models.ConversationSummary, 0, len(latest))
	for i := range latest {
		env := latest[i]
		counterpartID := env.Counterpart(userID)
		online, err := a.registry.IsOnline(ctx, counterpartID)
		if err != nil {
			online = false
		}
		summaries = append(summaries, models.ConversationSummary{
			SessionID:           env.SessionID,
			CounterpartID:       counterpartID,
			CounterpartUsername: usernameByID[counterpartID],
			LastMessage:         &env,
			UnreadCount:         unread[env.SessionID],
			CounterpartOnline:   online,
		})
	}
	return summaries, nil
}
