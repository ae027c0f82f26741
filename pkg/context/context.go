package context

import "context"

type ContextKey string

var (
	RequestIDKey  = ContextKey("X-Request-Id")
	TopicKey      = ContextKey("X-Topic")
	MessageKeyKey = ContextKey("X-Message-Key")
)

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	value, ok := ctx.Value(RequestIDKey).(string)
	if !ok {
		return ""
	}
	return value
}

// SetTopic records which stream a message came from so every log line written
// while processing it carries the stream name.
func SetTopic(ctx context.Context, topic string) context.Context {
	return context.WithValue(ctx, TopicKey, topic)
}

func GetTopic(ctx context.Context) string {
	value, ok := ctx.Value(TopicKey).(string)
	if !ok {
		return ""
	}
	return value
}

func SetMessageKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, MessageKeyKey, key)
}

func GetMessageKey(ctx context.Context) string {
	value, ok := ctx.Value(MessageKeyKey).(string)
	if !ok {
		return ""
	}
	return value
}
