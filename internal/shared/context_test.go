package shared

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func TestSessionContext(t *testing.T) {
	assert.Nil(t, SessionFromContext(context.Background()))

	sess := &Session{}
	assert.Same(t, sess, SessionFromContext(ContextWithSession(context.Background(), sess)))
}

func TestRequestLoggerTagsRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	RequestLogger(context.Background(), base).Info("untagged")
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	RequestLogger(ctx, base).Info("tagged")

	out := buf.String()
	assert.Contains(t, out, "msg=tagged request_id=req-42")
	assert.NotContains(t, out, "msg=untagged request_id")
}
