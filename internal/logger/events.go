package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Event names emitted by the payment flow. Collectors key on the "event" field.
const (
	EventSessionCreated        = "session_created"
	EventSessionFailed         = "session_failed"
	EventNotificationReceived  = "notification_received"
	EventNotificationRejected  = "notification_rejected"
	EventNotificationDuplicate = "notification_duplicate"
	EventStatusNormalized      = "status_normalized"
	EventStatusUnknown         = "status_unknown"
	EventOrderMutated          = "order_mutated"
	EventTransitionRejected    = "transition_rejected"
	EventConfigurationError    = "configuration_error"
	EventAmountMismatch        = "amount_mismatch"
)

// Events emits structured, leveled payment events.
type Events struct {
	log *zap.Logger
}

// NewEvents wraps zaplog. A nil logger discards everything.
func NewEvents(zaplog *zap.Logger) *Events {
	if zaplog == nil {
		zaplog = zap.NewNop()
	}
	return &Events{log: zaplog.Named("payments")}
}

// Emit writes event at level with the order and provider attached.
func (e *Events) Emit(level zapcore.Level, event, orderID, provider string, fields ...zap.Field) {
	if ce := e.log.Check(level, event); ce != nil {
		all := make([]zap.Field, 0, len(fields)+3)
		all = append(all,
			zap.String("event", event),
			zap.String("order_id", orderID),
			zap.String("provider", provider),
		)
		ce.Write(append(all, fields...)...)
	}
}

// Info emits at info level.
func (e *Events) Info(event, orderID, provider string, fields ...zap.Field) {
	e.Emit(zapcore.InfoLevel, event, orderID, provider, fields...)
}

// Warn emits at warn level. Unknown statuses and rejected transitions go here
// so alerting can pick them up.
func (e *Events) Warn(event, orderID, provider string, fields ...zap.Field) {
	e.Emit(zapcore.WarnLevel, event, orderID, provider, fields...)
}

// Error emits at error level.
func (e *Events) Error(event, orderID, provider string, fields ...zap.Field) {
	e.Emit(zapcore.ErrorLevel, event, orderID, provider, fields...)
}
