package core

import (
	"CaseLink/entity"
	"CaseLink/internal/lib/sl"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	onlineWindow      = 5 * time.Minute
	searchLimit       = 20
	recentLimit       = 20
	recentLimitMax    = 100
	reasonStatus      = "status"
	reasonPriority    = "priority"
	reasonParticipant = "participant"
	reasonMessage     = "message"
)

type CreateConversationRequest struct {
	CaseID         string
	Title          string
	CreatorID      string
	CreatorRole    string
	ParticipantIDs []string
	Priority       entity.Priority
	InitialMessage string
}

func (c *Core) CreateConversation(ctx context.Context, req CreateConversationRequest) (*entity.ConversationDetails, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, entity.Invalid("title is required")
	}
	if req.Priority == "" {
		req.Priority = entity.PriorityMedium
	}
	if !req.Priority.Valid() {
		return nil, entity.Invalid("priority %q", req.Priority)
	}
	if err := c.checkCaseAccess(ctx, req.CaseID, req.CreatorID); err != nil {
		return nil, err
	}

	now := c.now()
	conv := &entity.Conversation{
		ID:        uuid.NewString(),
		CaseID:    req.CaseID,
		Title:     strings.TrimSpace(req.Title),
		Status:    entity.StatusActive,
		Priority:  req.Priority,
		CreatedBy: req.CreatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.repo.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}

	if _, err := c.repo.AddParticipant(ctx, &entity.Participant{
		ConversationID: conv.ID,
		UserID:         req.CreatorID,
		Role:           req.CreatorRole,
		JoinedAt:       now,
	}); err != nil {
		return nil, err
	}

	if err := c.addListedParticipants(ctx, conv.ID, req.CreatorID, req.ParticipantIDs, now); err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.InitialMessage) != "" {
		if _, err := c.appendMessage(ctx, conv.ID, &entity.Message{
			SenderID: req.CreatorID,
			Content:  req.InitialMessage,
			Type:     entity.MessageText,
		}); err != nil {
			return nil, err
		}
	}

	c.log.With(
		slog.String("conversation_id", conv.ID),
		slog.String("case_id", conv.CaseID),
		slog.String("created_by", conv.CreatedBy),
	).Info("conversation created")

	return c.conversationDetails(ctx, conv.ID, req.CreatorID)
}

// addListedParticipants adds the ids that resolve in the user directory; unknown ids are skipped.
func (c *Core) addListedParticipants(ctx context.Context, conversationID, creatorID string, ids []string, now time.Time) error {
	wanted := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && id != creatorID && !slices.Contains(wanted, id) {
			wanted = append(wanted, id)
		}
	}
	if len(wanted) == 0 {
		return nil
	}

	users, err := c.repo.GetUsers(ctx, wanted)
	if err != nil {
		return err
	}

	var skipped []string
	for _, id := range wanted {
		u, ok := users[id]
		if !ok {
			skipped = append(skipped, id)
			continue
		}
		if _, err = c.repo.AddParticipant(ctx, &entity.Participant{
			ConversationID: conversationID,
			UserID:         id,
			Role:           u.Role,
			JoinedAt:       now,
		}); err != nil {
			return err
		}
	}
	if len(skipped) > 0 {
		c.log.With(
			slog.String("conversation_id", conversationID),
			slog.Any("user_ids", skipped),
		).Warn("unknown participants skipped")
	}
	return nil
}

func (c *Core) GetConversation(ctx context.Context, conversationID, userID string) (*entity.ConversationDetails, error) {
	if err := c.checkParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	return c.conversationDetails(ctx, conversationID, userID)
}

func (c *Core) conversationDetails(ctx context.Context, conversationID, userID string) (*entity.ConversationDetails, error) {
	conv, err := c.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	roster, users, err := c.roster(ctx, conversationID, conv.CreatedBy)
	if err != nil {
		return nil, err
	}

	unread, err := c.repo.UnreadCounts(ctx, userID, []string{conversationID})
	if err != nil {
		return nil, err
	}

	details := &entity.ConversationDetails{
		Conversation: *conv,
		Participants: roster,
		UnreadCount:  unread[conversationID],
	}
	if u, ok := users[conv.CreatedBy]; ok {
		details.CreatedByUser = u.Info()
	}
	return details, nil
}

// roster builds the participant list with directory info and online state.
// The returned user map also contains extraIDs when they resolve.
func (c *Core) roster(ctx context.Context, conversationID string, extraIDs ...string) ([]entity.ParticipantInfo, map[string]*entity.User, error) {
	participants, err := c.repo.Participants(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]string, 0, len(participants)+len(extraIDs))
	for _, p := range participants {
		ids = append(ids, p.UserID)
	}
	for _, id := range extraIDs {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}

	users, err := c.repo.GetUsers(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	online := c.onlineUsers(ctx, ids)
	now := c.now()

	roster := make([]entity.ParticipantInfo, 0, len(participants))
	for _, p := range participants {
		info := entity.ParticipantInfo{
			UserID:     p.UserID,
			Role:       p.Role,
			JoinedAt:   p.JoinedAt,
			LastSeenAt: p.LastSeenAt,
			IsOnline:   online[p.UserID],
		}
		if u, ok := users[p.UserID]; ok {
			info.Name = u.Name
			info.Email = u.Email
			info.AvatarURL = u.AvatarURL
			info.IsOnline = info.IsOnline || u.ActiveWithin(onlineWindow, now)
		}
		roster = append(roster, info)
	}
	return roster, users, nil
}

func (c *Core) onlineUsers(ctx context.Context, ids []string) map[string]bool {
	if c.presence == nil {
		return map[string]bool{}
	}
	online, err := c.presence.Online(ctx, ids)
	if err != nil {
		c.log.Warn("presence lookup", sl.Err(err))
		return map[string]bool{}
	}
	return online
}

// summarize attaches unread counts and last message previews using one aggregation each.
func (c *Core) summarize(ctx context.Context, userID string, convs []entity.Conversation) ([]entity.ConversationSummary, error) {
	ids := make([]string, len(convs))
	for i := range convs {
		ids[i] = convs[i].ID
	}

	unread, err := c.repo.UnreadCounts(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	last, err := c.repo.LastMessages(ctx, ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]entity.ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		s := entity.ConversationSummary{
			Conversation: conv,
			UnreadCount:  unread[conv.ID],
		}
		if lm, ok := last[conv.ID]; ok {
			content, at := lm.Content, lm.CreatedAt
			s.LastMessage = &content
			s.LastMessageTime = &at
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

func (c *Core) GetConversationsForCase(ctx context.Context, caseID, userID string) ([]entity.ConversationSummary, error) {
	if err := c.checkCaseAccess(ctx, caseID, userID); err != nil {
		return nil, err
	}
	convs, err := c.repo.ConversationsByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return c.summarize(ctx, userID, convs)
}

func (c *Core) RecentConversations(ctx context.Context, userID string, limit int) ([]entity.ConversationSummary, error) {
	if limit <= 0 {
		limit = recentLimit
	}
	if limit > recentLimitMax {
		limit = recentLimitMax
	}
	convs, err := c.repo.ConversationsByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return c.summarize(ctx, userID, convs)
}

func (c *Core) SearchConversations(ctx context.Context, userID, query string) ([]entity.ConversationSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, entity.Invalid("search query is required")
	}
	convs, err := c.repo.SearchConversations(ctx, userID, query, searchLimit)
	if err != nil {
		return nil, err
	}
	return c.summarize(ctx, userID, convs)
}

func (c *Core) SetStatus(ctx context.Context, conversationID, userID string, status entity.ConversationStatus) (*entity.Conversation, error) {
	if err := c.checkParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, entity.Invalid("status %q", status)
	}
	if err := c.repo.SetConversationStatus(ctx, conversationID, status, c.now()); err != nil {
		return nil, err
	}
	if _, err := c.systemMessage(ctx, conversationID, userID, fmt.Sprintf("Conversation marked as %s", status)); err != nil {
		return nil, err
	}
	c.notifyParticipants(ctx, conversationID, reasonStatus)
	return c.repo.GetConversation(ctx, conversationID)
}

func (c *Core) SetPriority(ctx context.Context, conversationID, userID string, priority entity.Priority) (*entity.Conversation, error) {
	if err := c.checkParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	if !priority.Valid() {
		return nil, entity.Invalid("priority %q", priority)
	}
	if err := c.repo.SetConversationPriority(ctx, conversationID, priority, c.now()); err != nil {
		return nil, err
	}
	if _, err := c.systemMessage(ctx, conversationID, userID, fmt.Sprintf("Priority changed to %s", priority)); err != nil {
		return nil, err
	}
	c.notifyParticipants(ctx, conversationID, reasonPriority)
	return c.repo.GetConversation(ctx, conversationID)
}

// AddParticipant is idempotent; the system message is written only for a new member.
func (c *Core) AddParticipant(ctx context.Context, conversationID, userID, actingUserID string) (bool, error) {
	if err := c.checkParticipant(ctx, conversationID, actingUserID); err != nil {
		return false, err
	}
	user, err := c.repo.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}

	added, err := c.repo.AddParticipant(ctx, &entity.Participant{
		ConversationID: conversationID,
		UserID:         user.ID,
		Role:           user.Role,
		JoinedAt:       c.now(),
	})
	if err != nil || !added {
		return false, err
	}

	if _, err = c.systemMessage(ctx, conversationID, actingUserID, "Added new participant to conversation"); err != nil {
		return true, err
	}
	c.notifyParticipants(ctx, conversationID, reasonParticipant)
	return true, nil
}

func (c *Core) ListParticipants(ctx context.Context, conversationID, userID string) ([]entity.ParticipantInfo, error) {
	if err := c.checkParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	roster, _, err := c.roster(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(roster, func(i, j int) bool {
		return strings.ToLower(roster[i].Name) < strings.ToLower(roster[j].Name)
	})
	return roster, nil
}

// ExternalConversation finds the canonical conversation of a case for a phone number:
// the one bridged to the phone, else the most recently active open one that is not
// bridged to another phone. With create
// set a new conversation is opened when none exists.
func (c *Core) ExternalConversation(ctx context.Context, caseID, phone string, create bool) (*entity.Conversation, error) {
	conv, err := c.repo.ConversationByPhone(ctx, caseID, phone)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, entity.ErrNotFound) {
		return nil, err
	}

	convs, err := c.repo.ConversationsByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	for i := range convs {
		if convs[i].ExternalPhone != "" && convs[i].ExternalPhone != phone {
			continue
		}
		if convs[i].Status == entity.StatusActive {
			return &convs[i], nil
		}
	}

	if !create {
		return nil, entity.NotFound("conversation for case " + caseID)
	}

	cs, err := c.repo.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	now := c.now()
	conv = &entity.Conversation{
		ID:            uuid.NewString(),
		CaseID:        caseID,
		Title:         "WhatsApp +" + phone,
		Status:        entity.StatusActive,
		Priority:      entity.PriorityMedium,
		CreatedBy:     cs.CreatedBy,
		ExternalPhone: phone,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err = c.repo.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}
	if cs.CreatedBy != "" {
		role := ""
		if u, err := c.repo.GetUser(ctx, cs.CreatedBy); err == nil {
			role = u.Role
		}
		if _, err = c.repo.AddParticipant(ctx, &entity.Participant{
			ConversationID: conv.ID,
			UserID:         cs.CreatedBy,
			Role:           role,
			JoinedAt:       now,
		}); err != nil {
			return nil, err
		}
	}

	c.log.With(
		slog.String("conversation_id", conv.ID),
		slog.String("case_id", caseID),
		sl.Secret("phone", phone),
	).Info("external conversation created")
	return conv, nil
}

// Statistics is available to admins only.
func (c *Core) Statistics(ctx context.Context, actor *entity.UserAuth) (*entity.ConversationStats, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("statistics: %w", entity.ErrForbidden)
	}
	now := c.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return c.repo.ConversationStats(ctx, startOfDay)
}

const (
	adminPageSize    = 20
	maxAdminPageSize = 100
)

// AllConversations lists every conversation, newest first, with its creator. Admins only.
func (c *Core) AllConversations(ctx context.Context, actor *entity.UserAuth, page, limit int) (*entity.AdminConversationPage, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("all conversations: %w", entity.ErrForbidden)
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = adminPageSize
	}
	if limit > maxAdminPageSize {
		limit = maxAdminPageSize
	}

	convs, total, err := c.repo.AllConversations(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}

	creators := make([]string, 0)
	for _, conv := range convs {
		if conv.CreatedBy != "" && !slices.Contains(creators, conv.CreatedBy) {
			creators = append(creators, conv.CreatedBy)
		}
	}
	users, err := c.repo.GetUsers(ctx, creators)
	if err != nil {
		return nil, err
	}

	result := &entity.AdminConversationPage{
		Conversations: make([]entity.AdminConversation, 0, len(convs)),
		Pagination: entity.Pagination{
			Total: total,
			Page:  page,
			Limit: limit,
			Pages: (total + int64(limit) - 1) / int64(limit),
		},
	}
	for _, conv := range convs {
		item := entity.AdminConversation{Conversation: conv}
		if u, ok := users[conv.CreatedBy]; ok {
			item.CreatedByUser = u.Info()
		}
		result.Conversations = append(result.Conversations, item)
	}
	return result, nil
}

// ExportConversation returns the full transcript to participants and admins.
func (c *Core) ExportConversation(ctx context.Context, conversationID string, actor *entity.UserAuth) (*entity.ConversationExport, error) {
	if !actor.IsAdmin() {
		if err := c.checkParticipant(ctx, conversationID, actor.UserID); err != nil {
			return nil, err
		}
	}

	conv, err := c.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	roster, _, err := c.roster(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	messages, err := c.repo.AllMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if err = c.attachSenders(ctx, messages); err != nil {
		return nil, err
	}

	return &entity.ConversationExport{
		Conversation: *conv,
		Participants: roster,
		Messages:     messages,
		ExportDate:   c.now(),
		ExportedBy:   actor.UserID,
	}, nil
}
