package commands

import (
	"context"

	"github.com/google/uuid"

	sharedApplication "github.com/vaahanlabs/pitstop/internal/shared/application"
	sharedDomain "github.com/vaahanlabs/pitstop/internal/shared/domain"
	"github.com/vaahanlabs/pitstop/internal/shared/infrastructure/outbox"
)

// saveEvents stamps command metadata on the events and stores them in the
// outbox within the caller's transaction.
func saveEvents(ctx context.Context, repo outbox.Repository, userID uuid.UUID, events ...sharedDomain.DomainEvent) error {
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(userID))

	msgs := make([]*outbox.Message, 0, len(events))
	for _, event := range events {
		msg, err := outbox.NewMessage(event)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return repo.SaveBatch(ctx, msgs)
}
