package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"collabmatch_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// snapshotLimit bounds the message snapshot pushed to listeners.
const snapshotLimit = 100

// ConversationService owns the message threads: find-or-create for a
// pair, transactional sends with unread bookkeeping, and live
// full-snapshot subscriptions.
type ConversationService struct {
	Dynamo    *DynamoService
	Matches   *MatchService // set after construction, see main.go
	Telemetry *TelemetryService

	mu        sync.Mutex
	listeners map[string]map[int]func([]models.Message)
	nextSubID int
}

// Subscription is a handle to a live conversation feed. Cancel is
// idempotent and must be called before the consuming view is torn
// down, or the callback keeps firing into stale state.
type Subscription struct {
	svc            *ConversationService
	conversationID string
	id             int
	once           sync.Once
}

// Cancel detaches the subscription.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.svc.mu.Lock()
		defer s.svc.mu.Unlock()
		if subs, ok := s.svc.listeners[s.conversationID]; ok {
			delete(subs, s.id)
			if len(subs) == 0 {
				delete(s.svc.listeners, s.conversationID)
			}
		}
	})
}

// GetOrCreateConversation finds or creates the 1:1 conversation for a
// pair. The conversation id is the canonical pair key, so concurrent
// calls for the same pair converge on one row: the losing writer
// re-reads and returns the winner.
func (cs *ConversationService) GetOrCreateConversation(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	if userA == "" || userB == "" || userA == userB {
		return nil, fmt.Errorf("invalid participant pair (%q, %q)", userA, userB)
	}

	conversationID := models.CanonicalPairID(userA, userB)
	if conv, err := cs.getConversation(ctx, conversationID); err == nil {
		return conv, nil
	} else if !errors.Is(err, ErrItemNotFound) {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	conversation := models.Conversation{
		ConversationID: conversationID,
		ParticipantIDs: []string{userA, userB},
		LastMessageAt:  now,
		UnreadCount:    map[string]int{userA: 0, userB: 0},
		IsGroupChat:    false,
		CreatedAt:      now,
	}

	err := cs.Dynamo.PutItemConditional(ctx, models.ConversationsTable, conversation,
		"attribute_not_exists(conversationId)", nil, nil)
	if err != nil {
		if IsConditionalCheckFailed(err) {
			// Lost the race: the other caller's row wins.
			return cs.getConversation(ctx, conversationID)
		}
		return nil, err
	}

	log.Printf("💬 Conversation created: %s", conversationID)
	return &conversation, nil
}

// CreateGroupConversation creates a group thread with a fresh id and
// zeroed unread counters for every participant.
func (cs *ConversationService) CreateGroupConversation(ctx context.Context, name string, participantIDs []string) (*models.Conversation, error) {
	if len(participantIDs) < 3 {
		return nil, fmt.Errorf("group conversation needs at least 3 participants, got %d", len(participantIDs))
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	unread := make(map[string]int, len(participantIDs))
	for _, id := range participantIDs {
		if id == "" {
			return nil, errors.New("group conversation participant id cannot be empty")
		}
		unread[id] = 0
	}

	conversation := models.Conversation{
		ConversationID: uuid.NewString(),
		ParticipantIDs: participantIDs,
		LastMessageAt:  now,
		UnreadCount:    unread,
		IsGroupChat:    true,
		GroupName:      name,
		CreatedAt:      now,
	}

	err := cs.Dynamo.PutItemConditional(ctx, models.ConversationsTable, conversation,
		"attribute_not_exists(conversationId)", nil, nil)
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// GetConversation retrieves a conversation by id.
func (cs *ConversationService) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	return cs.getConversation(ctx, conversationID)
}

func (cs *ConversationService) getConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	key := map[string]types.AttributeValue{
		"conversationId": &types.AttributeValueMemberS{Value: conversationID},
	}

	item, err := cs.Dynamo.GetItem(ctx, models.ConversationsTable, key)
	if err != nil {
		return nil, err
	}

	var conversation models.Conversation
	if err := attributevalue.UnmarshalMap(item, &conversation); err != nil {
		return nil, fmt.Errorf("failed to parse conversation: %w", err)
	}
	return &conversation, nil
}

// SendMessage appends the message and updates the parent conversation's
// lastMessage, lastMessageAt and the recipient's unread counter as one
// transactional unit. A message can never land without its counters.
func (cs *ConversationService) SendMessage(ctx context.Context, message models.Message) error {
	if message.ConversationID == "" || message.SenderID == "" {
		return errors.New("message requires conversationId and senderId")
	}
	if message.MessageID == "" {
		message.MessageID = uuid.NewString()
	}
	if message.SentAt == "" {
		message.SentAt = time.Now().UTC().Format(time.RFC3339Nano)
	}

	marshaledMessage, err := attributevalue.MarshalMap(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	messagesTable := models.MessagesTable
	conversationsTable := models.ConversationsTable
	conversationKey := map[string]types.AttributeValue{
		"conversationId": &types.AttributeValueMemberS{Value: message.ConversationID},
	}

	updateExpression := "SET lastMessage = :content, lastMessageAt = :sentAt"
	conditionExpression := "attribute_exists(conversationId)"
	expressionValues := map[string]types.AttributeValue{
		":content": &types.AttributeValueMemberS{Value: message.Content},
		":sentAt":  &types.AttributeValueMemberS{Value: message.SentAt},
	}
	var expressionNames map[string]string

	if message.RecipientID != "" {
		// ADD is not allowed on nested attributes, so the counter bump
		// is a SET with if_not_exists on the map member.
		updateExpression += ", #unread.#rcpt = if_not_exists(#unread.#rcpt, :zero) + :one"
		expressionValues[":zero"] = &types.AttributeValueMemberN{Value: "0"}
		expressionValues[":one"] = &types.AttributeValueMemberN{Value: "1"}
		expressionNames = map[string]string{
			"#unread": "unreadCount",
			"#rcpt":   message.RecipientID,
		}
	}

	err = cs.Dynamo.TransactWrite(ctx, []types.TransactWriteItem{
		{
			Put: &types.Put{
				TableName: &messagesTable,
				Item:      marshaledMessage,
			},
		},
		{
			Update: &types.Update{
				TableName:                 &conversationsTable,
				Key:                       conversationKey,
				UpdateExpression:          &updateExpression,
				ConditionExpression:       &conditionExpression,
				ExpressionAttributeValues: expressionValues,
				ExpressionAttributeNames:  expressionNames,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	cs.Telemetry.Track("message_sent", map[string]interface{}{
		"conversationId": message.ConversationID,
	})

	// Best-effort side channel on the match record.
	if message.RecipientID != "" && cs.Matches != nil {
		cs.Matches.MarkMessaged(ctx, message.SenderID, message.RecipientID)
	}

	cs.notifyListeners(ctx, message.ConversationID)
	return nil
}

// MarkAsRead resets userID's unread counter to zero. Idempotent.
func (cs *ConversationService) MarkAsRead(ctx context.Context, conversationID, userID string) error {
	key := map[string]types.AttributeValue{
		"conversationId": &types.AttributeValueMemberS{Value: conversationID},
	}

	updateExpression := "SET #unread.#uid = :zero"
	expressionValues := map[string]types.AttributeValue{
		":zero": &types.AttributeValueMemberN{Value: "0"},
	}
	expressionNames := map[string]string{
		"#unread": "unreadCount",
		"#uid":    userID,
	}

	if _, err := cs.Dynamo.UpdateItem(ctx, models.ConversationsTable, updateExpression, key, expressionValues, expressionNames); err != nil {
		return fmt.Errorf("failed to mark conversation as read: %w", err)
	}

	cs.stampReadReceipts(ctx, conversationID, userID)
	return nil
}

// stampReadReceipts sets readAt on every unread message addressed to
// userID. The transition is one-way; already-stamped messages are left
// alone. Best-effort: the counter reset above is the contract, the
// per-message stamps are not.
func (cs *ConversationService) stampReadReceipts(ctx context.Context, conversationID, userID string) {
	messages, err := cs.FetchMessages(ctx, conversationID, snapshotLimit)
	if err != nil {
		log.Printf("⚠️ Could not fetch messages for read receipts in %s: %v", conversationID, err)
		return
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, message := range messages {
		if message.SenderID == userID || message.ReadAt != "" {
			continue
		}
		if message.RecipientID != "" && message.RecipientID != userID {
			continue
		}

		key := map[string]types.AttributeValue{
			"conversationId": &types.AttributeValueMemberS{Value: message.ConversationID},
			"sentAt":         &types.AttributeValueMemberS{Value: message.SentAt},
		}
		updateExpression := "SET readAt = :readAt"
		expressionValues := map[string]types.AttributeValue{
			":readAt": &types.AttributeValueMemberS{Value: now},
		}
		if _, err := cs.Dynamo.UpdateItem(ctx, models.MessagesTable, updateExpression, key, expressionValues, nil); err != nil {
			log.Printf("⚠️ Failed to stamp readAt on message %s: %v", message.MessageID, err)
		}
	}
}

// FetchMessages fetches the latest messages for a conversation, newest
// first from storage, then reverses so the caller gets chronological
// order for display.
func (cs *ConversationService) FetchMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	keyCondition := "#conversationId = :conversationId"
	expressionValues := map[string]types.AttributeValue{
		":conversationId": &types.AttributeValueMemberS{Value: conversationID},
	}
	expressionNames := map[string]string{
		"#conversationId": "conversationId",
	}

	items, err := cs.Dynamo.QueryItemsWithOptions(ctx, models.MessagesTable, keyCondition, expressionValues, expressionNames, int32(limit), true)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	var messages []models.Message
	if err := attributevalue.UnmarshalListOfMaps(items, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse messages: %w", err)
	}

	// Reverse so the latest message appears last.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// Listen subscribes to a conversation's message feed. Every delivery is
// the full current snapshot in chronological order; handlers must
// replace prior state, not append to it.
func (cs *ConversationService) Listen(conversationID string, onUpdate func([]models.Message)) *Subscription {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.listeners == nil {
		cs.listeners = make(map[string]map[int]func([]models.Message))
	}
	if cs.listeners[conversationID] == nil {
		cs.listeners[conversationID] = make(map[int]func([]models.Message))
	}

	cs.nextSubID++
	id := cs.nextSubID
	cs.listeners[conversationID][id] = onUpdate

	return &Subscription{svc: cs, conversationID: conversationID, id: id}
}

func (cs *ConversationService) notifyListeners(ctx context.Context, conversationID string) {
	cs.mu.Lock()
	subs := make([]func([]models.Message), 0, len(cs.listeners[conversationID]))
	for _, fn := range cs.listeners[conversationID] {
		subs = append(subs, fn)
	}
	cs.mu.Unlock()

	if len(subs) == 0 {
		return
	}

	snapshot, err := cs.FetchMessages(ctx, conversationID, snapshotLimit)
	if err != nil {
		log.Printf("⚠️ Could not build snapshot for %s: %v", conversationID, err)
		return
	}
	for _, fn := range subs {
		fn(snapshot)
	}
}
