package core

import (
	"CaseLink/entity"
	"context"
	"fmt"
)

// checkCaseAccess succeeds when the user created the case or is one of its admins or sub-consultants.
func (c *Core) checkCaseAccess(ctx context.Context, caseID, userID string) error {
	cs, err := c.repo.GetCase(ctx, caseID)
	if err != nil {
		return err
	}
	if !cs.HasAccess(userID) {
		return fmt.Errorf("case %s: %w", caseID, entity.ErrAccessDenied)
	}
	return nil
}

// checkParticipant succeeds only for members of the conversation.
// A missing conversation is reported as access denied, not as not found.
func (c *Core) checkParticipant(ctx context.Context, conversationID, userID string) error {
	ok, err := c.repo.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return fmt.Errorf("participant check: %w", err)
	}
	if !ok {
		return fmt.Errorf("conversation %s: %w", conversationID, entity.ErrAccessDenied)
	}
	return nil
}

// CanJoinConversation validates a socket join with the same rule as the REST surface.
func (c *Core) CanJoinConversation(ctx context.Context, userID, conversationID string) error {
	return c.checkParticipant(ctx, conversationID, userID)
}
