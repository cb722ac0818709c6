package models

// Message is immutable once sent except for the readAt transition
// (unset -> set, one-way).
type Message struct {
	ConversationID string `dynamodbav:"conversationId" json:"conversationId"` // Partition Key
	SentAt         string `dynamodbav:"sentAt" json:"sentAt"`                 // Sort Key
	MessageID      string `dynamodbav:"messageId" json:"messageId"`
	SenderID       string `dynamodbav:"senderId" json:"senderId"`
	RecipientID    string `dynamodbav:"recipientId,omitempty" json:"recipientId,omitempty"`
	Content        string `dynamodbav:"content" json:"content"`
	MediaURL       string `dynamodbav:"mediaUrl,omitempty" json:"mediaUrl,omitempty"`
	ReadAt         string `dynamodbav:"readAt,omitempty" json:"readAt,omitempty"`
}

// MessagesTable is the DynamoDB table name for conversation messages
const MessagesTable = "Messages"
