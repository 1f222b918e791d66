package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lidercheck/apiserver/internal/store"
	"github.com/lidercheck/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type memoryLineStops struct {
	rows    map[string]types.LineStop
	order   []string
	blank   int
	creates int
}

func newMemoryLineStops() *memoryLineStops {
	return &memoryLineStops{rows: map[string]types.LineStop{}}
}

func (m *memoryLineStops) Get(_ context.Context, id string) (types.LineStop, error) {
	stop, ok := m.rows[id]
	if !ok {
		return types.LineStop{}, store.ErrNotFound
	}
	return stop, nil
}

func (m *memoryLineStops) Exists(_ context.Context, id string) (bool, error) {
	_, ok := m.rows[id]
	return ok, nil
}

func (m *memoryLineStops) Create(_ context.Context, stop types.LineStop) error {
	if _, ok := m.rows[stop.ID]; ok {
		return errors.New("UNIQUE constraint failed: line_stops.id")
	}
	m.creates++
	m.rows[stop.ID] = stop
	m.order = append(m.order, stop.ID)
	return nil
}

func (m *memoryLineStops) Update(_ context.Context, stop types.LineStop) error {
	current, ok := m.rows[stop.ID]
	if !ok {
		return store.ErrNotFound
	}
	current.Line = stop.Line
	current.Status = stop.Status
	current.Data = stop.Data
	current.SignedDocURL = stop.SignedDocURL
	m.rows[stop.ID] = current
	return nil
}

func (m *memoryLineStops) ListRecent(_ context.Context, limit int) ([]types.LineStop, error) {
	var out []types.LineStop
	for i := len(m.order) - 1; i >= 0; i-- {
		out = append(out, m.rows[m.order[i]])
	}
	for range m.blank {
		out = append(out, types.LineStop{Line: "legacy"})
	}
	return out, nil
}

type recordingPublisher struct {
	events []types.LineStopEvent
	err    error
}

func (p *recordingPublisher) PublishLineStop(_ context.Context, event types.LineStopEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func TestLineStopUpsert_Idempotent(t *testing.T) {
	repo := newMemoryLineStops()
	publisher := &recordingPublisher{}
	svc := NewLineStopService(repo, publisher, zaptest.NewLogger(t))
	ctx := context.Background()

	stop := types.LineStop{ID: "ls-1", UserID: "1001", Line: "L1", Date: "2024-01-03", Data: map[string]any{"reason": "falta de peça"}}

	saved, created, err := svc.Upsert(ctx, stop)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, types.LineStopWaitingJustification, saved.Status)

	saved, created, err = svc.Upsert(ctx, stop)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, repo.creates)
	assert.Len(t, repo.rows, 1)

	doc := "https://files/ls-1.jpg"
	stop.Status = types.LineStopCompleted
	stop.SignedDocURL = &doc
	stop.Line = "L2"
	saved, created, err = svc.Upsert(ctx, stop)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, types.LineStopCompleted, saved.Status)
	assert.Equal(t, "L2", saved.Line)
	require.NotNil(t, saved.SignedDocURL)
	assert.Equal(t, doc, *saved.SignedDocURL)
	assert.Equal(t, "1001", repo.rows["ls-1"].UserID)

	require.Len(t, publisher.events, 3)
	assert.Equal(t, types.LineStopEventCreated, publisher.events[0].Kind)
	assert.Equal(t, types.LineStopEventUpdated, publisher.events[2].Kind)
}

func TestLineStopUpsert_GeneratesID(t *testing.T) {
	repo := newMemoryLineStops()
	svc := NewLineStopService(repo, nil, nil)

	first, created, err := svc.Upsert(context.Background(), types.LineStop{ID: "  ", Line: "L1"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, map[string]any{}, first.Data)

	second, _, err := svc.Upsert(context.Background(), types.LineStop{Line: "L1"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, repo.rows, 2)
}

func TestLineStopUpsert_BlankSignedDocIsCleared(t *testing.T) {
	repo := newMemoryLineStops()
	svc := NewLineStopService(repo, nil, nil)
	blank := "  "

	saved, _, err := svc.Upsert(context.Background(), types.LineStop{ID: "x", SignedDocURL: &blank})
	require.NoError(t, err)
	assert.Nil(t, saved.SignedDocURL)
}

func TestLineStopUpsert_PublishFailureIsNotFatal(t *testing.T) {
	publisher := &recordingPublisher{err: errors.New("broker down")}
	svc := NewLineStopService(newMemoryLineStops(), publisher, zaptest.NewLogger(t))

	_, created, err := svc.Upsert(context.Background(), types.LineStop{ID: "ls-9"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, publisher.events, 1)
}

func TestLineStopList_TemporaryIDs(t *testing.T) {
	repo := newMemoryLineStops()
	repo.blank = 2
	svc := NewLineStopService(repo, nil, nil)
	ctx := context.Background()

	_, _, err := svc.Upsert(ctx, types.LineStop{ID: "ls-1"})
	require.NoError(t, err)

	stops, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, stops, 3)
	assert.Equal(t, "ls-1", stops[0].ID)
	assert.Equal(t, "tmp-1", stops[1].ID)
	assert.Equal(t, "tmp-2", stops[2].ID)
	assert.Len(t, repo.rows, 1)
}

func TestLineStopUpsert_TemporaryIDIsNeverStored(t *testing.T) {
	repo := newMemoryLineStops()
	repo.blank = 1
	svc := NewLineStopService(repo, nil, nil)
	ctx := context.Background()

	stops, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, stops, 1)
	require.Equal(t, "tmp-1", stops[0].ID)

	posted := stops[0]
	posted.Status = "JUSTIFIED"
	saved, created, err := svc.Upsert(ctx, posted)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, "tmp-1", saved.ID)
	assert.False(t, strings.HasPrefix(saved.ID, "tmp-"))
	_, stored := repo.rows["tmp-1"]
	assert.False(t, stored)

	// posting the same display id again adds a row rather than reusing one
	again, created, err := svc.Upsert(ctx, posted)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, saved.ID, again.ID)

	stops, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, stops, 3)
	var temporary int
	for _, stop := range stops {
		if strings.HasPrefix(stop.ID, "tmp-") {
			temporary++
		}
	}
	assert.Equal(t, 1, temporary)
}

func TestLineStopUpsert_StoredTemporaryIDIsUpdated(t *testing.T) {
	repo := newMemoryLineStops()
	repo.rows["tmp-4"] = types.LineStop{ID: "tmp-4", Line: "L1"}
	repo.order = append(repo.order, "tmp-4")
	svc := NewLineStopService(repo, nil, nil)

	saved, created, err := svc.Upsert(context.Background(), types.LineStop{ID: "tmp-4", Line: "L2"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "tmp-4", saved.ID)
	assert.Len(t, repo.rows, 1)
}
