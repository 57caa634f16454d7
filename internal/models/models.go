package models

// Topic names a live-synchronized collection.
type Topic string

const (
	TopicTransactions Topic = "transactions"
	TopicCategories   Topic = "categories"
	TopicMembers      Topic = "members"
	TopicUsers        Topic = "users"
	TopicProfile      Topic = "profile"
)

// Valid reports whether t names a subscribable collection.
func (t Topic) Valid() bool {
	switch t {
	case TopicTransactions, TopicCategories, TopicMembers, TopicUsers, TopicProfile:
		return true
	}
	return false
}

// Message types exchanged over a live subscription socket.
const (
	MessageSubscribe   = "subscribe"
	MessageUnsubscribe = "unsubscribe"
	MessageSnapshot    = "snapshot"
	MessageError       = "error"
)

// Message represents a WebSocket message
type Message struct {
	Type    string      `json:"type"`
	Topic   Topic       `json:"topic,omitempty"`
	Content interface{} `json:"content,omitempty"`
}
