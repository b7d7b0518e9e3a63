package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	applog "fintrack/internal/log"
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	baseBackoff    = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	lastFailure  time.Time
}

// Handlers receives decoded messages. A nil handler makes the client reject
// messages of that type without requeueing them.
type Handlers struct {
	SavingsTips     func(context.Context, *SavingsTipsMessage) error
	TransactionSync func(context.Context, *TransactionSyncMessage) error
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
	}
	if err := client.connect(); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Client) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked()
}

func (c *Client) connectLocked() error {
	if c.conn != nil && !c.conn.IsClosed() {
		return nil
	}

	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := setup(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.conn = conn
	c.channel = channel
	return nil
}

func setup(channel *amqp091.Channel, exchangeName, queueName string) error {
	// Declare exchange
	err := channel.ExchangeDeclare(
		exchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// Declare queue
	_, err = channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Bind queue to exchange
	err = channel.QueueBind(
		queueName,    // queue name
		queueName,    // routing key (same as queue name for direct exchange)
		exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishSavingsTips queues an AI tips request for a savings goal.
func (c *Client) PublishSavingsTips(ctx context.Context, userID, goalID string) error {
	body, err := NewSavingsTipsMessage(userID, goalID).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, MessageSavingsTips, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published savings tips message",
		applog.FieldUserID, userID,
		applog.FieldGoalID, goalID,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// PublishTransactionSync queues a spreadsheet mirror request for a transaction.
func (c *Client) PublishTransactionSync(ctx context.Context, userID, transactionID string) error {
	body, err := NewTransactionSyncMessage(userID, transactionID).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, MessageTransactionSync, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published transaction sync message",
		applog.FieldUserID, userID,
		applog.FieldTransactionID, transactionID,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

func (c *Client) publish(ctx context.Context, msgType MessageType, body []byte) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish %s: %w", msgType, ErrCircuitOpen)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(); err != nil {
		c.recordFailure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Type:         string(msgType),
			DeliveryMode: amqp091.Persistent, // make message persistent
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()
	return nil
}

// Consume processes messages until ctx is cancelled, reconnecting with
// capped exponential backoff when the broker connection drops.
func (c *Client) Consume(ctx context.Context, h Handlers) error {
	attempt := 0
	for {
		err := c.consumeOnce(ctx, h)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && !isConnectionError(err) {
			return err
		}

		wait := exponentialBackoff(attempt)
		slog.WarnContext(ctx, "AMQP consumer disconnected, retrying",
			applog.FieldError, err,
			"attempt", attempt+1,
			"backoff", wait.String())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		attempt++

		if err := c.connect(); err != nil {
			slog.WarnContext(ctx, "AMQP reconnect failed", applog.FieldError, err)
			continue
		}
		attempt = 0
	}
}

func (c *Client) consumeOnce(ctx context.Context, h Handlers) error {
	c.mu.Lock()
	if err := c.connectLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	channel := c.channel
	c.mu.Unlock()

	msgs, err := channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			switch dispatch(ctx, delivery.Type, delivery.Body, h) {
			case outcomeAck:
				delivery.Ack(false)
			case outcomeRequeue:
				delivery.Nack(false, true)
			default:
				delivery.Nack(false, false)
			}
		}
	}
}

type outcome int

const (
	outcomeAck outcome = iota
	outcomeRequeue
	outcomeDrop
)

// dispatch decodes a delivery and runs its handler. Undecodable or unknown
// messages are dropped; handler errors are requeued.
func dispatch(ctx context.Context, msgType string, body []byte, h Handlers) outcome {
	var err error
	switch MessageType(msgType) {
	case MessageSavingsTips:
		if h.SavingsTips == nil {
			return outcomeDrop
		}
		msg, decodeErr := SavingsTipsMessageFromJSON(body)
		if decodeErr != nil {
			slog.ErrorContext(ctx, "Failed to unmarshal message", "type", msgType, applog.FieldError, decodeErr)
			return outcomeDrop
		}
		slog.InfoContext(ctx, "Processing savings tips message", applog.FieldUserID, msg.UserID, applog.FieldGoalID, msg.GoalID)
		err = h.SavingsTips(ctx, msg)
	case MessageTransactionSync:
		if h.TransactionSync == nil {
			return outcomeDrop
		}
		msg, decodeErr := TransactionSyncMessageFromJSON(body)
		if decodeErr != nil {
			slog.ErrorContext(ctx, "Failed to unmarshal message", "type", msgType, applog.FieldError, decodeErr)
			return outcomeDrop
		}
		slog.InfoContext(ctx, "Processing transaction sync message", applog.FieldUserID, msg.UserID, applog.FieldTransactionID, msg.TransactionID)
		err = h.TransactionSync(ctx, msg)
	default:
		slog.WarnContext(ctx, "Dropping message of unknown type", "type", msgType)
		return outcomeDrop
	}

	if err != nil {
		slog.ErrorContext(ctx, "Failed to handle message", "type", msgType, applog.FieldError, err)
		return outcomeRequeue
	}
	slog.InfoContext(ctx, "Successfully processed message", "type", msgType)
	return outcomeAck
}

// exponentialBackoff returns 1s doubled per attempt, capped at 30s.
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return maxBackoff
	}
	d := baseBackoff << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"connection", "eof", "broken pipe", "channel closed"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

// recordFailure may be called with mu held, so lastFailure is written
// without taking the lock again.
func (c *Client) recordFailure() {
	c.lastFailure = time.Now()
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
