package correlation

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureCorrelationID(t *testing.T) {
	ctx, id := EnsureCorrelationID(context.Background())
	assert.Len(t, id, 26)
	assert.Equal(t, id, ExtractCorrelationID(ctx))

	_, again := EnsureCorrelationID(ctx)
	assert.Equal(t, id, again)
}

func TestFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/report", nil)
	req.Header.Set(Header, "cid-1")

	ctx, id := FromRequest(context.Background(), req)
	assert.Equal(t, "cid-1", id)
	assert.Equal(t, "cid-1", ExtractCorrelationID(ctx))

	_, generated := FromRequest(context.Background(), httptest.NewRequest("GET", "/", nil))
	assert.NotEmpty(t, generated)
}
