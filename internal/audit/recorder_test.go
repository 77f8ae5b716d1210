package audit

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	entries []*Entry
	err     error
	ctxErr  error
}

func (m *memRepo) Append(ctx context.Context, e *Entry) error {
	m.ctxErr = ctx.Err()
	if m.err != nil {
		return m.err
	}
	e.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, e)
	return nil
}

func (m *memRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*Entry, error) {
	return m.entries, nil
}

func TestRecorder_Record(t *testing.T) {
	t.Run("Appends entry", func(t *testing.T) {
		repo := &memRepo{}
		rec := NewRecorder(repo, logrus.New())

		rec.Record(context.Background(), Entry{Kind: KindCheckoutRequested, UserID: "u1", Price: 200})

		require.Len(t, repo.entries, 1)
		assert.Equal(t, KindCheckoutRequested, repo.entries[0].Kind)
	})

	t.Run("Failure is logged and swallowed", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logrus.New()
		logger.SetOutput(&buf)

		rec := NewRecorder(&memRepo{err: errors.New("disk full")}, logger)
		assert.NotPanics(t, func() {
			rec.Record(context.Background(), Entry{Kind: KindCheckoutRequested, UserID: "u1"})
		})
		assert.Contains(t, buf.String(), "audit append failed")
		assert.Contains(t, buf.String(), "disk full")
	})

	t.Run("Cancelled request still records", func(t *testing.T) {
		repo := &memRepo{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		NewRecorder(repo, logrus.New()).Record(ctx, Entry{Kind: KindHoldExpired})
		assert.NoError(t, repo.ctxErr)
		assert.Len(t, repo.entries, 1)
	})

	t.Run("Nil recorder is a no-op", func(t *testing.T) {
		var rec *Recorder
		assert.NotPanics(t, func() { rec.Record(context.Background(), Entry{}) })
	})
}

func TestClient(t *testing.T) {
	chrome := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	got := Client(chrome)
	assert.Contains(t, got, "Chrome 120.0.0.0")
	assert.Contains(t, got, "Windows")

	assert.Equal(t, "", Client(""))
	assert.Equal(t, "bot", Client("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"))
}
