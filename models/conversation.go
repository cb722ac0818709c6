package models

// Conversation is the thread container for a set of participants.
// For 1:1 chats ConversationID equals CanonicalPairID of the two
// participants, which is what makes get-or-create idempotent.
type Conversation struct {
	ConversationID string         `dynamodbav:"conversationId" json:"conversationId"` // Partition Key
	ParticipantIDs []string       `dynamodbav:"participantIds" json:"participantIds"`
	LastMessage    string         `dynamodbav:"lastMessage,omitempty" json:"lastMessage,omitempty"`
	LastMessageAt  string         `dynamodbav:"lastMessageAt" json:"lastMessageAt"`
	UnreadCount    map[string]int `dynamodbav:"unreadCount" json:"unreadCount"`
	IsGroupChat    bool           `dynamodbav:"isGroupChat" json:"isGroupChat"`
	GroupName      string         `dynamodbav:"groupName,omitempty" json:"groupName,omitempty"`
	CreatedAt      string         `dynamodbav:"createdAt" json:"createdAt"`
}

// ConversationsTable is the DynamoDB table name for conversations
const ConversationsTable = "Conversations"
