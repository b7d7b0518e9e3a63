package amqp

import (
	"encoding/json"
	"time"
)

// MessageType is carried in the AMQP type property and selects the handler.
type MessageType string

const (
	MessageSavingsTips     MessageType = "savings_tips"
	MessageTransactionSync MessageType = "transaction_sync"
)

// SavingsTipsMessage asks the worker to generate AI tips for a savings goal.
// The worker loads the goal itself, so only identifiers travel.
type SavingsTipsMessage struct {
	UserID    string    `json:"user_id"`
	GoalID    string    `json:"goal_id"`
	Timestamp time.Time `json:"timestamp"`
}

// TransactionSyncMessage asks the worker to mirror a transaction to the
// configured spreadsheet.
type TransactionSyncMessage struct {
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewSavingsTipsMessage(userID, goalID string) *SavingsTipsMessage {
	return &SavingsTipsMessage{UserID: userID, GoalID: goalID, Timestamp: time.Now()}
}

func NewTransactionSyncMessage(userID, transactionID string) *TransactionSyncMessage {
	return &TransactionSyncMessage{UserID: userID, TransactionID: transactionID, Timestamp: time.Now()}
}

// ToJSON converts the message to JSON bytes
func (m *SavingsTipsMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ToJSON converts the message to JSON bytes
func (m *TransactionSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SavingsTipsMessageFromJSON(data []byte) (*SavingsTipsMessage, error) {
	var msg SavingsTipsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func TransactionSyncMessageFromJSON(data []byte) (*TransactionSyncMessage, error) {
	var msg TransactionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
