package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/auravita/privacykit/internal/logging"
)

// Sink appends one event to the audit store.
type Sink interface {
	Append(ctx context.Context, event *Event) error
}

// UserResolver reports the currently authenticated user, or an empty string
// when nobody is logged in.
type UserResolver interface {
	CurrentUserID(ctx context.Context) string
}

// UserResolverFunc adapts a function to the UserResolver interface.
type UserResolverFunc func(ctx context.Context) string

func (f UserResolverFunc) CurrentUserID(ctx context.Context) string { return f(ctx) }

const (
	defaultBufferSize   = 256
	defaultWriteTimeout = 5 * time.Second
)

// Logger is the fire-and-forget audit pipeline. Log hands the event to a
// buffered channel consumed by a single writer goroutine; the caller never
// waits for the sink and never observes its failures. Each event gets
// at most one delivery attempt. When the buffer is full the event is
// dropped with a warning rather than applying backpressure.
type Logger struct {
	sink    Sink
	users   UserResolver
	log     logging.Logger
	timeout time.Duration

	events  chan *Event
	stop    chan struct{}
	wg      sync.WaitGroup
	stopped sync.Once
}

// Option configures a Logger.
type Option func(*Logger)

// WithBufferSize sets the event buffer capacity.
func WithBufferSize(n int) Option {
	return func(l *Logger) {
		if n > 0 {
			l.events = make(chan *Event, n)
		}
	}
}

// WithWriteTimeout bounds each sink append.
func WithWriteTimeout(d time.Duration) Option {
	return func(l *Logger) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// NewLogger constructs the pipeline and starts its writer goroutine.
// A nil log falls back to a no-op logger.
func NewLogger(sink Sink, users UserResolver, log logging.Logger, opts ...Option) *Logger {
	if log == nil {
		log = logging.NewNopLogger()
	}

	l := &Logger{
		sink:    sink,
		users:   users,
		log:     log,
		timeout: defaultWriteTimeout,
		events:  make(chan *Event, defaultBufferSize),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}

	l.wg.Add(1)
	go l.writer()

	return l
}

// Log records one audit event. Unauthenticated callers are a silent no-op:
// this keeps pre-login flows from spamming the trail. The call returns
// before any I/O happens and never reports an error.
func (l *Logger) Log(ctx context.Context, action Action, resourceType ResourceType, resourceID string, metadata map[string]string) {
	userID := l.users.CurrentUserID(ctx)
	if userID == "" {
		return
	}

	event := &Event{
		ID:           uuid.NewString(),
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     metadata,
		CreatedAt:    time.Now().UTC(),
	}

	select {
	case l.events <- event:
	default:
		l.log.Warn(ctx, "audit event buffer full, dropping event",
			"action", string(action), "resource_type", string(resourceType))
	}
}

// LogRead records a read of a protected resource.
func (l *Logger) LogRead(ctx context.Context, resourceType ResourceType, resourceID string, metadata map[string]string) {
	l.Log(ctx, ActionRead, resourceType, resourceID, metadata)
}

// LogWrite records a write of a protected resource.
func (l *Logger) LogWrite(ctx context.Context, resourceType ResourceType, resourceID string, metadata map[string]string) {
	l.Log(ctx, ActionWrite, resourceType, resourceID, metadata)
}

// LogEncryption records that a value was encrypted.
func (l *Logger) LogEncryption(ctx context.Context, resourceType ResourceType, resourceID string, metadata map[string]string) {
	l.Log(ctx, ActionEncrypt, resourceType, resourceID, metadata)
}

// LogDecryption records that a value was decrypted.
func (l *Logger) LogDecryption(ctx context.Context, resourceType ResourceType, resourceID string, metadata map[string]string) {
	l.Log(ctx, ActionDecrypt, resourceType, resourceID, metadata)
}

// LogAccess records a generic access event.
func (l *Logger) LogAccess(ctx context.Context, resourceType ResourceType, resourceID string, metadata map[string]string) {
	l.Log(ctx, ActionAccess, resourceType, resourceID, metadata)
}

func (l *Logger) writer() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stop:
			// Drain whatever is already buffered, then exit.
			for {
				select {
				case event := <-l.events:
					l.append(event)
				default:
					return
				}
			}
		case event := <-l.events:
			l.append(event)
		}
	}
}

func (l *Logger) append(event *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	if err := l.sink.Append(ctx, event); err != nil {
		// Audit failures never surface to the data path.
		l.log.Warn(ctx, "audit event write failed",
			"event_id", event.ID, "action", string(event.Action), "error", err)
	}
}

// Close flushes buffered events and stops the writer. Call on shutdown.
// Idempotent, like the rest of the teardown surface.
func (l *Logger) Close() error {
	l.stopped.Do(func() { close(l.stop) })
	l.wg.Wait()
	return nil
}
