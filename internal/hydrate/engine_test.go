package hydrate

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
	"tagharvest/pkg/storage"
	"tagharvest/pkg/tiktok"
	"tagharvest/pkg/ui"
)

type fakeFetcher struct {
	videos map[string]*tiktok.Video
	fail   map[string]bool
	calls  []string
}

func (f *fakeFetcher) FetchVideo(ctx context.Context, id string) (*tiktok.Video, error) {
	f.calls = append(f.calls, id)
	if f.fail[id] {
		return nil, errors.New("connection reset")
	}
	return f.videos[id], nil
}

type memSink struct {
	rows [][]string
	err  error
}

func (s *memSink) Append(record []string) error {
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, record)
	return nil
}

func video(id string, created int64, likes int64) *tiktok.Video {
	return &tiktok.Video{
		ID:         id,
		CreateTime: tiktok.Count(created),
		Stats: tiktok.Stats{
			DiggCount:    tiktok.Count(likes),
			PlayCount:    tiktok.Count(likes * 10),
			ShareCount:   1,
			CommentCount: 2,
		},
	}
}

func fetcherFor(ids ...string) *fakeFetcher {
	f := &fakeFetcher{videos: map[string]*tiktok.Video{}, fail: map[string]bool{}}
	for i, id := range ids {
		f.videos[id] = video(id, 1700000000, int64(i+1))
	}
	return f
}

func TestRow(t *testing.T) {
	row := Row("MeToo", video("1", 1700000000, 5))
	assert.Equal(t, []string{"MeToo", "2023-11-14", "5", "50", "1", "2"}, row)
}

func TestRunSkipsFailures(t *testing.T) {
	f := fetcherFor("1", "2", "3", "4", "5")
	f.fail["2"] = true
	f.fail["4"] = true
	sink := &memSink{}
	tl := logger.NewTestLogger()

	e := NewEngine(f, sink, Options{Logger: tl})
	stats := e.Run(context.Background(), checkpoint.Checkpoint{"abc": {"1", "2", "3", "4", "5"}})

	require.Len(t, sink.rows, 3)
	assert.Equal(t, "1", sink.rows[0][2])
	assert.Equal(t, "3", sink.rows[1][2])
	assert.Equal(t, "5", sink.rows[2][2])
	assert.Equal(t, 5, stats.Attempted)
	assert.Equal(t, 3, stats.Succeeded)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, 2, tl.CountMessage("item failed"))
	assert.True(t, tl.HasMessage("category done"))
}

func TestRunCategoriesInSortedOrder(t *testing.T) {
	f := fetcherFor("1", "2", "3")
	sink := &memSink{}

	e := NewEngine(f, sink, Options{Logger: logger.NewNopLogger()})
	e.Run(context.Background(), checkpoint.Checkpoint{"zeta": {"3"}, "alpha": {"1", "2"}})

	assert.Equal(t, []string{"1", "2", "3"}, f.calls)
	require.Len(t, sink.rows, 3)
	assert.Equal(t, "alpha", sink.rows[0][0])
	assert.Equal(t, "zeta", sink.rows[2][0])
}

func TestRunMissingRecordIsSkipped(t *testing.T) {
	f := fetcherFor("1")
	sink := &memSink{}

	e := NewEngine(f, sink, Options{Logger: logger.NewNopLogger()})
	stats := e.Run(context.Background(), checkpoint.Checkpoint{"abc": {"1", "404"}})

	assert.Len(t, sink.rows, 1)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Failed)
}

func TestRunSinkErrorCountsAsFailure(t *testing.T) {
	f := fetcherFor("1", "2")
	sink := &memSink{err: errors.New("disk full")}
	tl := logger.NewTestLogger()

	e := NewEngine(f, sink, Options{Logger: tl})
	stats := e.Run(context.Background(), checkpoint.Checkpoint{"abc": {"1", "2"}})

	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, 2, tl.CountMessage("failed to write row"))
}

func TestRunStopsOnCancel(t *testing.T) {
	f := fetcherFor("1", "2")
	sink := &memSink{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewEngine(f, sink, Options{Logger: logger.NewNopLogger()})
	e.Run(ctx, checkpoint.Checkpoint{"abc": {"1", "2"}})

	assert.Empty(t, f.calls)
	assert.Empty(t, sink.rows)
}

func TestRunWithLedgerSkipsHydrated(t *testing.T) {
	ledger, err := checkpoint.OpenLedger(filepath.Join(t.TempDir(), "hydrated.db"))
	require.NoError(t, err)
	defer ledger.Close()

	cp := checkpoint.Checkpoint{"abc": {"1", "2", "3"}}
	f := fetcherFor("1", "2", "3")
	f.fail["2"] = true
	sink := &memSink{}

	e := NewEngine(f, sink, Options{Ledger: ledger, Logger: logger.NewNopLogger()})
	e.Run(context.Background(), cp)
	require.Len(t, sink.rows, 2)

	n, err := ledger.Count(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// second run only retries the failed ID
	delete(f.fail, "2")
	f.calls = nil
	tracker := ui.NewTracker()
	e = NewEngine(f, sink, Options{Ledger: ledger, Tracker: tracker, Logger: logger.NewNopLogger()})
	stats := e.Run(context.Background(), cp)

	assert.Equal(t, []string{"2"}, f.calls)
	assert.Len(t, sink.rows, 3)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 1, stats.Succeeded)
}

func TestCategorySummaryReportsLedgerTotal(t *testing.T) {
	ledger, err := checkpoint.OpenLedger(filepath.Join(t.TempDir(), "hydrated.db"))
	require.NoError(t, err)
	defer ledger.Close()
	require.NoError(t, ledger.Mark(context.Background(), "abc", "old"))

	tl := logger.NewTestLogger()
	e := NewEngine(fetcherFor("1", "2"), &memSink{}, Options{Ledger: ledger, Logger: tl})
	e.Run(context.Background(), checkpoint.Checkpoint{"abc": {"1", "2"}})

	var done []logger.LogMessage
	for _, m := range tl.GetMessages() {
		if m.Message == "category done" {
			done = append(done, m)
		}
	}
	require.Len(t, done, 1)
	assert.Equal(t, 3, done[0].Fields["hydrated_total"])
	assert.Equal(t, 2, done[0].Fields["succeeded"])
}

func TestRunWritesCSVEndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "hydrated.csv")
	f := fetcherFor("1", "2", "3")
	f.fail["2"] = true

	sink, err := storage.OpenCSVSink(path, Header)
	require.NoError(t, err)
	e := NewEngine(f, sink, Options{Logger: logger.NewNopLogger()})
	e.Run(context.Background(), checkpoint.Checkpoint{"abc": {"1", "2", "3"}})
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "hashtag,video_date,likes,views,shares,comments\n" +
		"abc,2023-11-14,1,10,1,2\n" +
		"abc,2023-11-14,3,30,1,2\n"
	assert.Equal(t, want, string(data))

	// reopening appends without a second header
	sink, err = storage.OpenCSVSink(path, Header)
	require.NoError(t, err)
	require.NoError(t, sink.Append(Row("def", video("9", 0, 0))))
	require.NoError(t, sink.Close())

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want+"def,1970-01-01,0,0,1,2\n", string(data))
}
