package captcha

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService(NewMemoryStore(), time.Minute)
}

func TestGenerateCodeShape(t *testing.T) {
	svc := newTestService()

	code, err := svc.Generate(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Len(t, code, 6)
	for _, r := range code {
		assert.Contains(t, codeAlphabet, string(r))
	}
}

func TestGenerateEmptySession(t *testing.T) {
	svc := newTestService()

	_, err := svc.Generate(context.Background(), "")
	assert.Error(t, err)
}

func TestValidateConsumesCode(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	code, err := svc.Generate(ctx, "session-1")
	require.NoError(t, err)

	ok, err := svc.Validate(ctx, "session-1", code)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second attempt with the same code must fail.
	ok, err = svc.Validate(ctx, "session-1", code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidateCaseInsensitive(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	code, err := svc.Generate(ctx, "session-1")
	require.NoError(t, err)

	ok, err := svc.Validate(ctx, "session-1", strings.ToLower(code))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestValidateWrongCode(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Generate(ctx, "session-1")
	require.NoError(t, err)

	ok, err := svc.Validate(ctx, "session-1", "WRONG1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidateUnknownSession(t *testing.T) {
	svc := newTestService()

	ok, err := svc.Validate(context.Background(), "never-seen", "ABC234")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegenerateReplacesCode(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first, err := svc.Generate(ctx, "session-1")
	require.NoError(t, err)
	second, err := svc.Generate(ctx, "session-1")
	require.NoError(t, err)

	if first != second {
		ok, err := svc.Validate(ctx, "session-1", first)
		require.NoError(t, err)
		assert.False(t, ok, "stale code should not validate")
	}

	ok, err := svc.Validate(ctx, "session-1", second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "session-1", "ABC234", -time.Second))

	_, err := store.Get(ctx, "session-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
