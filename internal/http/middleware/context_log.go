package middleware

import (
	"context"
	"log"
	"strconv"
)

func LogWithContext(ctx context.Context, msg string, kv ...any) {
	fields := []any{}

	if userID, ok := UserIDFromContext(ctx); ok {
		fields = append(fields, "user_id", strconv.FormatInt(userID, 10))
	}

	if requestID, ok := RequestIDFromContext(ctx); ok {
		fields = append(fields, "request_id", requestID)
	}

	fields = append(fields, kv...)

	log.Println(append([]any{msg}, fields...)...)
}
