package discovery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagharvest/pkg/checkpoint"
	"tagharvest/pkg/logger"
	"tagharvest/pkg/ui"
)

type fakeCollector struct {
	results map[string][]string
	calls   []string
	onCall  func(tag string)
}

func (f *fakeCollector) Collect(ctx context.Context, tag string, target int) Result {
	f.calls = append(f.calls, tag)
	if f.onCall != nil {
		f.onCall(tag)
	}
	ids := f.results[tag]
	if len(ids) > target {
		ids = ids[:target]
	}
	return Result{IDs: ids, Reason: StopStagnation}
}

type fakeSession struct {
	saves int
	err   error
}

func (s *fakeSession) SaveSession() error {
	s.saves++
	return s.err
}

func newRunner(t *testing.T, c Collector, target int) (*Runner, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ids_by_tag.json")
	return &Runner{
		Collector: c,
		Store:     checkpoint.NewStore(path, logger.NewNopLogger()),
		Target:    target,
		Tracker:   ui.NewTracker(),
		Logger:    logger.NewNopLogger(),
	}, path
}

func TestRunnerEndToEnd(t *testing.T) {
	c := &fakeCollector{results: map[string][]string{"abc": {"1", "2", "3"}}}
	r, path := newRunner(t, c, 500)
	session := &fakeSession{}
	r.Session = session

	cp := r.Run(context.Background(), []string{"#abc"})

	assert.Equal(t, checkpoint.Checkpoint{"abc": {"1", "2", "3"}}, cp)
	assert.Equal(t, 1, session.saves)

	stored := checkpoint.NewStore(path, logger.NewNopLogger()).Load()
	assert.Equal(t, []string{"1", "2", "3"}, stored["abc"])
}

func TestRunnerMergesWithExistingCheckpoint(t *testing.T) {
	c := &fakeCollector{results: map[string][]string{"MeToo": {"3", "4"}}}
	r, path := newRunner(t, c, 10)
	require.NoError(t, os.WriteFile(path, []byte(`{"MeToo": ["1", "2", "3"]}`), 0644))

	cp := r.Run(context.Background(), []string{"#MeToo"})
	assert.Equal(t, []string{"1", "2", "3", "4"}, cp["MeToo"])
}

func TestRunnerSkipsCompleteCategories(t *testing.T) {
	c := &fakeCollector{results: map[string][]string{"b": {"9"}}}
	r, path := newRunner(t, c, 2)
	require.NoError(t, os.WriteFile(path, []byte(`{"a": ["1", "2"]}`), 0644))

	cp := r.Run(context.Background(), []string{"#a", "#b"})

	assert.Equal(t, []string{"b"}, c.calls)
	assert.Equal(t, []string{"1", "2"}, cp["a"])
	assert.Equal(t, []string{"9"}, cp["b"])
	assert.Equal(t, 1, r.Tracker.Stats(TrackerCategory).Skipped)
}

func TestRunnerRejectsInvalidTags(t *testing.T) {
	c := &fakeCollector{results: map[string][]string{"FreedomOfSpeech": {"1"}}}
	r, _ := newRunner(t, c, 5)
	tl := logger.NewTestLogger()
	r.Logger = tl

	cp := r.Run(context.Background(), []string{"#!!!", "#FreedomOfSpeech*"})

	assert.Equal(t, []string{"FreedomOfSpeech"}, c.calls)
	assert.Len(t, cp, 1)
	assert.Equal(t, 1, r.Tracker.Stats(TrackerCategory).Failed)
	assert.True(t, tl.HasMessage("item failed"))
}

func TestRunnerPersistsAfterEveryTag(t *testing.T) {
	c := &fakeCollector{results: map[string][]string{"a": {"1"}, "b": {"2"}}}
	r, path := newRunner(t, c, 5)
	c.onCall = func(tag string) {
		if tag == "b" {
			// the first tag is on disk before the second pass starts
			stored := checkpoint.NewStore(path, logger.NewNopLogger()).Load()
			assert.Equal(t, []string{"1"}, stored["a"])
		}
	}

	r.Run(context.Background(), []string{"a", "b"})
	assert.Equal(t, []string{"a", "b"}, c.calls)
}

func TestRunnerStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &fakeCollector{results: map[string][]string{"a": {"1"}, "b": {"2"}}}
	c.onCall = func(string) { cancel() }
	r, path := newRunner(t, c, 5)
	session := &fakeSession{err: errors.New("disk full")}
	r.Session = session

	cp := r.Run(ctx, []string{"a", "b"})

	assert.Equal(t, []string{"a"}, c.calls)
	assert.Equal(t, []string{"1"}, cp["a"])
	assert.Equal(t, 1, session.saves)
	assert.FileExists(t, path)
}
