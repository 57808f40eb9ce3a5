package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alqazqaziabdulkarim-lang/task-tracker/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeBackend — ActivityBackend в памяти с подсчётом вызовов.
type fakeBackend struct {
	mu      sync.Mutex
	records []model.Activity
	nextID  int
	calls   map[string]int
	// err — ошибка для всех операций, если задана.
	err error
	// createWithoutID — Create возвращает запись без id.
	createWithoutID bool
	// updateID — id в ответе Update вместо запрошенного, если задан.
	updateID string
}

func newFakeBackend(records ...model.Activity) *fakeBackend {
	return &fakeBackend{records: records, nextID: 100, calls: make(map[string]int)}
}

func (f *fakeBackend) List(context.Context) ([]model.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[OpFetch]++
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.Activity(nil), f.records...), nil
}

func (f *fakeBackend) Create(_ context.Context, in model.ActivityInput) (model.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[OpCreate]++
	if f.err != nil {
		return model.Activity{}, f.err
	}
	a := model.Activity{Title: in.Title, Description: in.Description, Completed: in.Completed}
	if !f.createWithoutID {
		f.nextID++
		a.ID = strconv.Itoa(f.nextID)
	}
	f.records = append(f.records, a)
	return a, nil
}

func (f *fakeBackend) Update(_ context.Context, id string, in model.ActivityInput) (model.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[OpUpdate]++
	if f.err != nil {
		return model.Activity{}, f.err
	}
	if f.updateID != "" {
		id = f.updateID
	}
	return model.Activity{ID: id, Title: in.Title, Description: in.Description, Completed: in.Completed}, nil
}

func (f *fakeBackend) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[OpDelete]++
	return f.err
}

func (f *fakeBackend) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func sampleActivities() []model.Activity {
	return []model.Activity{
		{ID: "1", Title: "Debate club", Description: "Thursday"},
		{ID: "2", Title: "Lab report", Completed: true},
		{ID: "3", Title: "Football"},
	}
}

func loadedStore(t *testing.T) (*ActivityStore, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend(sampleActivities()...)
	store := NewActivityStore(backend, testLogger())
	store.FetchAll(context.Background())
	require.Len(t, store.Items(), 3)
	return store, backend
}

func TestFetchAll_ReplacesCollectionAndIsIdempotent(t *testing.T) {
	store, _ := loadedStore(t)

	first := store.Items()
	second := store.FetchAll(context.Background())

	assert.Equal(t, sampleActivities(), first)
	assert.Equal(t, first, second)
	assert.Nil(t, store.LastError())
	assert.False(t, store.IsLoading())
}

func TestFetchAll_FailureKeepsCollection(t *testing.T) {
	store, backend := loadedStore(t)
	backend.err = errors.New("connection refused")

	got := store.FetchAll(context.Background())

	assert.Equal(t, sampleActivities(), got)
	opErr := store.LastError()
	require.NotNil(t, opErr)
	assert.Equal(t, OpFetch, opErr.Op)
	assert.Equal(t, "activities.error.fetch", opErr.Message)
	assert.False(t, store.IsLoading())
}

func TestFetchAll_DropsDuplicateAndEmptyIDs(t *testing.T) {
	backend := newFakeBackend(
		model.Activity{ID: "a", Title: "first"},
		model.Activity{Title: "no id"},
		model.Activity{ID: "a", Title: "dup"},
		model.Activity{ID: "b", Title: "second"},
	)
	store := NewActivityStore(backend, testLogger())

	got := store.FetchAll(context.Background())

	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Title)
	assert.Equal(t, "b", got[1].ID)
}

func TestCreate_AppendsExactlyOneRecord(t *testing.T) {
	store, _ := loadedStore(t)

	created, err := store.Create(context.Background(), model.ActivityInput{Title: "Chess"})
	require.NoError(t, err)

	items := store.Items()
	require.Len(t, items, 4)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, created, items[3])
	assert.Equal(t, sampleActivities(), items[:3])
}

func TestCreate_FailurePropagatesAndLeavesCollection(t *testing.T) {
	store, backend := loadedStore(t)
	backend.err = errors.New("500")

	_, err := store.Create(context.Background(), model.ActivityInput{Title: "x"})
	require.Error(t, err)

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, OpCreate, opErr.Op)
	assert.Equal(t, sampleActivities(), store.Items())
	assert.Equal(t, "activities.error.create", store.LastError().Message)
}

func TestCreate_MissingIDIsFailure(t *testing.T) {
	store, backend := loadedStore(t)
	backend.createWithoutID = true

	_, err := store.Create(context.Background(), model.ActivityInput{Title: "x"})
	assert.ErrorIs(t, err, ErrMissingID)
	assert.Len(t, store.Items(), 3)
}

func TestUpdate_ReplacesInPlace(t *testing.T) {
	store, _ := loadedStore(t)

	updated, err := store.Update(context.Background(), "2", model.ActivityInput{Title: "Lab report v2", Description: "done"})
	require.NoError(t, err)

	items := store.Items()
	require.Len(t, items, 3)
	assert.Equal(t, updated, items[1])
	assert.Equal(t, "Lab report v2", items[1].Title)
	assert.False(t, items[1].Completed)
}

func TestUpdate_UnknownIDIsLocalNoOp(t *testing.T) {
	store, backend := loadedStore(t)

	_, err := store.Update(context.Background(), "999", model.ActivityInput{Title: "ghost"})
	require.NoError(t, err)

	assert.Equal(t, 1, backend.callCount(OpUpdate))
	assert.Equal(t, sampleActivities(), store.Items())
}

func TestUpdate_EmptyIDMakesNoCall(t *testing.T) {
	store, backend := loadedStore(t)

	_, err := store.Update(context.Background(), "", model.ActivityInput{})
	assert.ErrorIs(t, err, ErrMissingID)
	assert.Equal(t, 0, backend.callCount(OpUpdate))

	lastErr := store.LastError()
	require.NotNil(t, lastErr)
	assert.Equal(t, OpUpdate, lastErr.Op)
	assert.False(t, store.IsLoading())
}

func TestUpdate_KeepsRequestedIDWhenBackendAnswersAnother(t *testing.T) {
	store, backend := loadedStore(t)
	backend.updateID = "2"

	updated, err := store.Update(context.Background(), "1", model.ActivityInput{Title: "Debate finals"})
	require.NoError(t, err)
	assert.Equal(t, "1", updated.ID)

	ids := make(map[string]int)
	for _, a := range store.Items() {
		ids[a.ID]++
	}
	assert.Equal(t, map[string]int{"1": 1, "2": 1, "3": 1}, ids)
	assert.Equal(t, "Debate finals", store.Items()[0].Title)
}

func TestToggleCompletion_FlipsOnlyCompleted(t *testing.T) {
	store, _ := loadedStore(t)

	store.ToggleCompletion(context.Background(), "1")

	before := sampleActivities()[0]
	after := store.Items()[0]
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.Title, after.Title)
	assert.Equal(t, before.Description, after.Description)
	assert.Equal(t, !before.Completed, after.Completed)

	store.ToggleCompletion(context.Background(), "1")
	assert.Equal(t, before, store.Items()[0])
}

func TestToggleCompletion_UnknownIDMakesNoCall(t *testing.T) {
	store, backend := loadedStore(t)

	store.ToggleCompletion(context.Background(), "missing")
	store.ToggleCompletion(context.Background(), "")

	assert.Equal(t, 0, backend.callCount(OpUpdate))
	assert.Equal(t, sampleActivities(), store.Items())
}

func TestToggleCompletion_FailureIsRecorded(t *testing.T) {
	store, backend := loadedStore(t)
	backend.err = errors.New("timeout")

	store.ToggleCompletion(context.Background(), "1")

	lastErr := store.LastError()
	require.NotNil(t, lastErr)
	assert.Equal(t, OpUpdate, lastErr.Op)
	assert.Equal(t, sampleActivities(), store.Items())
}

func TestDelete_RemovesExactlyMatchingRecord(t *testing.T) {
	store, _ := loadedStore(t)

	require.NoError(t, store.Delete(context.Background(), "2"))

	items := store.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, "3", items[1].ID)
}

func TestDelete_FailureLeavesCollection(t *testing.T) {
	store, backend := loadedStore(t)
	backend.err = errors.New("502")

	err := store.Delete(context.Background(), "2")
	require.Error(t, err)
	assert.Equal(t, sampleActivities(), store.Items())
	assert.Equal(t, "activities.error.delete", store.LastError().Message)
}

func TestDelete_EmptyIDMakesNoCall(t *testing.T) {
	store, backend := loadedStore(t)

	assert.NoError(t, store.Delete(context.Background(), ""))
	assert.Equal(t, 0, backend.callCount(OpDelete))
}

func TestLastError_ClearedOnNextAttempt(t *testing.T) {
	store, backend := loadedStore(t)
	backend.err = errors.New("down")
	store.FetchAll(context.Background())
	require.NotNil(t, store.LastError())

	backend.err = nil
	store.FetchAll(context.Background())
	assert.Nil(t, store.LastError())
}

func TestFilters(t *testing.T) {
	store, _ := loadedStore(t)

	assert.Equal(t, model.FilterAll, store.Filter())
	assert.Len(t, store.Filtered(), 3)

	require.NoError(t, store.SetFilter(model.FilterActive))
	active := store.Filtered()
	require.Len(t, active, 2)
	assert.Equal(t, "1", active[0].ID)
	assert.Equal(t, "3", active[1].ID)

	require.NoError(t, store.SetFilter(model.FilterCompleted))
	completed := store.Filtered()
	require.Len(t, completed, 1)
	assert.Equal(t, "2", completed[0].ID)

	assert.Equal(t, 2, store.ActiveCount())
	assert.Equal(t, 1, store.CompletedCount())

	err := store.SetFilter("archived")
	assert.ErrorIs(t, err, ErrInvalidFilter)
	assert.Equal(t, model.FilterCompleted, store.Filter())
}

// blockingBackend задерживает List до сигнала.
type blockingBackend struct {
	*fakeBackend
	entered chan struct{}
	release chan struct{}
}

func (b *blockingBackend) List(ctx context.Context) ([]model.Activity, error) {
	close(b.entered)
	<-b.release
	return b.fakeBackend.List(ctx)
}

func TestIsLoading_DuringInFlightCall(t *testing.T) {
	backend := &blockingBackend{
		fakeBackend: newFakeBackend(sampleActivities()...),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	store := NewActivityStore(backend, testLogger())

	done := make(chan struct{})
	go func() {
		store.FetchAll(context.Background())
		close(done)
	}()

	<-backend.entered
	assert.True(t, store.IsLoading())

	// Параллельная локальная операция не блокируется сетевым вызовом
	require.NoError(t, store.SetFilter(model.FilterActive))

	close(backend.release)
	<-done
	assert.False(t, store.IsLoading())
	assert.Len(t, store.Items(), 3)
}
