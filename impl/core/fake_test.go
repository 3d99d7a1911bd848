package core

import (
	"CaseLink/entity"
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// memRepo is an in-memory Repository with the same uniqueness rules as the store.
type memRepo struct {
	mu            sync.Mutex
	seq           int64
	cases         map[string]*entity.Case
	users         map[string]*entity.User
	conversations map[string]*entity.Conversation
	participants  []entity.Participant
	messages      map[int64]*entity.Message
	receipts      map[string]time.Time
	mappings      map[string]entity.PhoneCaseMapping
	files         map[string][]byte
	fileSeq       int
}

func newMemRepo() *memRepo {
	return &memRepo{
		cases:         make(map[string]*entity.Case),
		users:         make(map[string]*entity.User),
		conversations: make(map[string]*entity.Conversation),
		messages:      make(map[int64]*entity.Message),
		receipts:      make(map[string]time.Time),
		mappings:      make(map[string]entity.PhoneCaseMapping),
		files:         make(map[string][]byte),
	}
}

func receiptKey(messageID int64, userID string) string {
	return fmt.Sprintf("%d/%s", messageID, userID)
}

func (r *memRepo) GetCase(_ context.Context, caseID string) (*entity.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[caseID]
	if !ok {
		return nil, entity.NotFound("case " + caseID)
	}
	cp := *c
	return &cp, nil
}

func (r *memRepo) GetUser(_ context.Context, userID string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, entity.NotFound("user " + userID)
	}
	cp := *u
	return &cp, nil
}

func (r *memRepo) GetUsers(_ context.Context, userIDs []string) (map[string]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*entity.User)
	for _, id := range userIDs {
		if u, ok := r.users[id]; ok {
			cp := *u
			out[id] = &cp
		}
	}
	return out, nil
}

func (r *memRepo) CreateConversation(_ context.Context, conv *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *conv
	r.conversations[conv.ID] = &cp
	return nil
}

func (r *memRepo) GetConversation(_ context.Context, id string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return nil, entity.NotFound("conversation " + id)
	}
	cp := *c
	return &cp, nil
}

func (r *memRepo) update(id string, fn func(c *entity.Conversation)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return entity.NotFound("conversation " + id)
	}
	fn(c)
	return nil
}

func (r *memRepo) SetConversationStatus(_ context.Context, id string, status entity.ConversationStatus, at time.Time) error {
	return r.update(id, func(c *entity.Conversation) { c.Status = status; c.UpdatedAt = at })
}

func (r *memRepo) SetConversationPriority(_ context.Context, id string, priority entity.Priority, at time.Time) error {
	return r.update(id, func(c *entity.Conversation) { c.Priority = priority; c.UpdatedAt = at })
}

func (r *memRepo) TouchConversation(_ context.Context, id string, at time.Time) error {
	return r.update(id, func(c *entity.Conversation) {
		t := at
		c.LastMessageAt = &t
		c.UpdatedAt = at
	})
}

func (r *memRepo) sortedByActivity(filter func(c *entity.Conversation) bool) []entity.Conversation {
	out := make([]entity.Conversation, 0)
	for _, c := range r.conversations {
		if filter(c) {
			out = append(out, *c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ai, aj := out[i].ActivityTime(), out[j].ActivityTime()
		if ai.Equal(aj) {
			return out[i].ID < out[j].ID
		}
		return ai.After(aj)
	})
	return out
}

func (r *memRepo) ConversationsByCase(_ context.Context, caseID string) ([]entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedByActivity(func(c *entity.Conversation) bool { return c.CaseID == caseID }), nil
}

func (r *memRepo) isMember(conversationID, userID string) bool {
	for _, p := range r.participants {
		if p.ConversationID == conversationID && p.UserID == userID {
			return true
		}
	}
	return false
}

func (r *memRepo) ConversationsByUser(_ context.Context, userID string, limit int) ([]entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sortedByActivity(func(c *entity.Conversation) bool { return r.isMember(c.ID, userID) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) ConversationByPhone(_ context.Context, caseID, phone string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conversations {
		if c.CaseID == caseID && c.ExternalPhone == phone {
			cp := *c
			return &cp, nil
		}
	}
	return nil, entity.NotFound("conversation for phone " + phone)
}

func (r *memRepo) SearchConversations(_ context.Context, userID, query string, limit int) ([]entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := strings.ToLower(query)
	out := r.sortedByActivity(func(c *entity.Conversation) bool {
		if !r.isMember(c.ID, userID) {
			return false
		}
		if strings.Contains(strings.ToLower(c.Title), q) {
			return true
		}
		for _, m := range r.messages {
			if m.ConversationID == c.ID && !m.IsDeleted && strings.Contains(strings.ToLower(m.Content), q) {
				return true
			}
		}
		return false
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) ConversationStats(_ context.Context, since time.Time) (*entity.ConversationStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &entity.ConversationStats{}
	for _, c := range r.conversations {
		switch c.Status {
		case entity.StatusActive:
			stats.Active++
		case entity.StatusResolved:
			stats.Resolved++
		case entity.StatusArchived:
			stats.Archived++
		}
	}
	for _, m := range r.messages {
		if !m.CreatedAt.Before(since) {
			stats.MessagesToday++
		}
	}
	return stats, nil
}

func (r *memRepo) AllConversations(_ context.Context, skip, limit int) ([]entity.Conversation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]entity.Conversation, 0, len(r.conversations))
	for _, c := range r.conversations {
		all = append(all, *c)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	total := int64(len(all))
	if skip >= len(all) {
		return []entity.Conversation{}, total, nil
	}
	all = all[skip:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *memRepo) AddParticipant(_ context.Context, p *entity.Participant) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isMember(p.ConversationID, p.UserID) {
		return false, nil
	}
	r.participants = append(r.participants, *p)
	return true, nil
}

func (r *memRepo) IsParticipant(_ context.Context, conversationID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isMember(conversationID, userID), nil
}

func (r *memRepo) Participants(_ context.Context, conversationID string) ([]entity.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Participant, 0)
	for _, p := range r.participants {
		if p.ConversationID == conversationID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memRepo) TouchParticipant(_ context.Context, conversationID, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.participants {
		if r.participants[i].ConversationID == conversationID && r.participants[i].UserID == userID {
			t := at
			r.participants[i].LastSeenAt = &t
		}
	}
	return nil
}

func (r *memRepo) InsertMessage(_ context.Context, msg *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	msg.ID = r.seq
	if msg.ExternalID != nil {
		for _, m := range r.messages {
			if m.ExternalID != nil && *m.ExternalID == *msg.ExternalID {
				return fmt.Errorf("message %d: %w", msg.ID, entity.ErrDuplicate)
			}
		}
	}
	cp := *msg
	r.messages[msg.ID] = &cp
	return nil
}

func (r *memRepo) GetMessage(_ context.Context, id int64) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return nil, entity.NotFound(fmt.Sprintf("message %d", id))
	}
	cp := *m
	return &cp, nil
}

func (r *memRepo) MessageByExternalID(_ context.Context, externalID string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ExternalID != nil && *m.ExternalID == externalID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, entity.NotFound("message " + externalID)
}

func (r *memRepo) conversationMessages(conversationID string) []entity.Message {
	out := make([]entity.Message, 0)
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memRepo) MessagesBefore(_ context.Context, conversationID string, beforeID int64, limit int) ([]entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.conversationMessages(conversationID)
	out := make([]entity.Message, 0)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		if beforeID > 0 && all[i].ID >= beforeID {
			continue
		}
		out = append(out, all[i])
	}
	return out, nil
}

func (r *memRepo) AllMessages(_ context.Context, conversationID string) ([]entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conversationMessages(conversationID), nil
}

func (r *memRepo) SoftDeleteMessage(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return entity.NotFound(fmt.Sprintf("message %d", id))
	}
	m.SoftDelete()
	return nil
}

func (r *memRepo) UpsertReceipts(_ context.Context, userID string, messageIDs []int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range messageIDs {
		k := receiptKey(id, userID)
		if _, ok := r.receipts[k]; !ok {
			r.receipts[k] = at
		}
	}
	return nil
}

func (r *memRepo) ReadMessageIDs(_ context.Context, userID string, messageIDs []int64) (map[int64]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int64]bool)
	for _, id := range messageIDs {
		if _, ok := r.receipts[receiptKey(id, userID)]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (r *memRepo) unread(userID, conversationID string) int64 {
	var n int64
	for _, m := range r.messages {
		if m.ConversationID != conversationID || m.SenderID == userID {
			continue
		}
		if _, ok := r.receipts[receiptKey(m.ID, userID)]; !ok {
			n++
		}
	}
	return n
}

func (r *memRepo) UnreadCounts(_ context.Context, userID string, conversationIDs []string) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64)
	for _, id := range conversationIDs {
		if n := r.unread(userID, id); n > 0 {
			out[id] = n
		}
	}
	return out, nil
}

func (r *memRepo) UnreadTotal(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, p := range r.participants {
		if p.UserID == userID {
			total += r.unread(userID, p.ConversationID)
		}
	}
	return total, nil
}

func (r *memRepo) LastMessages(_ context.Context, conversationIDs []string) (map[string]entity.LastMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]entity.LastMessage)
	for _, id := range conversationIDs {
		msgs := r.conversationMessages(id)
		if len(msgs) == 0 {
			continue
		}
		last := msgs[len(msgs)-1]
		out[id] = entity.LastMessage{ConversationID: id, Content: last.Content, CreatedAt: last.CreatedAt}
	}
	return out, nil
}

func (r *memRepo) UpsertPhoneMapping(_ context.Context, mapping *entity.PhoneCaseMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappings[mapping.Phone] = *mapping
	return nil
}

func (r *memRepo) GetPhoneMapping(_ context.Context, phone string) (*entity.PhoneCaseMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.mappings[phone]
	if !ok {
		return nil, entity.NotFound("phone mapping " + phone)
	}
	return &m, nil
}

func (r *memRepo) ListPhoneMappings(_ context.Context) ([]entity.PhoneCaseMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.PhoneCaseMapping, 0, len(r.mappings))
	for _, m := range r.mappings {
		out = append(out, m)
	}
	return out, nil
}

func (r *memRepo) UploadFile(_ context.Context, filename string, reader io.Reader, _ entity.FileMetadata) (string, int64, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fileSeq++
	id := fmt.Sprintf("file%d", r.fileSeq)
	r.files[id] = data
	return id, int64(len(data)), nil
}

func (r *memRepo) DeleteFile(_ context.Context, fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[fileID]; !ok {
		return entity.NotFound("file " + fileID)
	}
	delete(r.files, fileID)
	return nil
}

func (r *memRepo) DownloadFile(_ context.Context, fileID string) (string, entity.FileMetadata, io.ReadCloser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.files[fileID]
	if !ok {
		return "", entity.FileMetadata{}, nil, entity.NotFound("file " + fileID)
	}
	return fileID, entity.FileMetadata{}, io.NopCloser(bytes.NewReader(data)), nil
}

type published struct {
	Room string
	Type string
	Data interface{}
}

// recorder is a Publisher that keeps every event in order.
type recorder struct {
	mu     sync.Mutex
	events []published
}

func (p *recorder) PublishToConversation(conversationID, eventType string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Room: "conversation_" + conversationID, Type: eventType, Data: data})
}

func (p *recorder) PublishToUser(userID, eventType string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Room: "user_" + userID, Type: eventType, Data: data})
}

func (p *recorder) ofType(eventType string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// signer issues a new link on every call so reissued links are distinguishable.
type signer struct {
	mu sync.Mutex
	n  int
}

func (s *signer) SignURL(fileID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("/api/v1/files/%s?expires=%d&sig=ok", fileID, s.n)
}

func (s *signer) Verify(_, _, sig string) bool {
	return sig == "ok"
}
