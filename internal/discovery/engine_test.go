package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagharvest/pkg/logger"
)

// fakePage serves a scripted listing: batches[i] are the links that appear
// after the i-th scroll. Links accumulate like a real infinite grid.
type fakePage struct {
	mu sync.Mutex

	batches     [][]string
	responses   map[int][]string
	challenge   func(call int) bool
	navigateErr error
	scrollErr   error
	linksErr    error

	navigated      string
	scrolls        int
	visible        []string
	challengeCalls int
	observer       func(string)
	stopped        bool
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigated = url
	return p.navigateErr
}

func (p *fakePage) DismissConsent(ctx context.Context) {}

func (p *fakePage) WaitForContent(ctx context.Context, timeout time.Duration) error {
	return nil
}

func (p *fakePage) Scroll(ctx context.Context) error {
	p.mu.Lock()
	i := p.scrolls
	p.scrolls++
	if i < len(p.batches) {
		p.visible = append(p.visible, p.batches[i]...)
	}
	observer := p.observer
	responses := p.responses[i]
	p.mu.Unlock()

	if observer != nil {
		for _, u := range responses {
			observer(u)
		}
	}
	return p.scrollErr
}

func (p *fakePage) VisibleLinks(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.linksErr != nil {
		return nil, p.linksErr
	}
	out := make([]string, len(p.visible))
	copy(out, p.visible)
	return out, nil
}

func (p *fakePage) ChallengeVisible(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	call := p.challengeCalls
	p.challengeCalls++
	if p.challenge == nil {
		return false, nil
	}
	return p.challenge(call), nil
}

func (p *fakePage) ObserveResponses(ctx context.Context, fn func(string)) (func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observer = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.stopped = true
		p.observer = nil
	}, nil
}

func links(ids ...string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = fmt.Sprintf("https://www.tiktok.com/@someone/video/%s?is_from_webapp=1", id)
	}
	return out
}

func fastOptions() Options {
	return Options{
		BaseURL:         "https://www.tiktok.com",
		TimeLimit:       5 * time.Second,
		ScrollPause:     time.Millisecond,
		StagnationLimit: 4,
		ChallengePoll:   time.Millisecond,
		ChallengeWait:   time.Second,
	}
}

func TestCollectStopsAtTarget(t *testing.T) {
	page := &fakePage{batches: [][]string{
		links("1", "2", "3"),
		links("3", "4", "5", "6"),
		links("7", "8"),
	}}
	e := NewEngine(page, fastOptions(), logger.NewNopLogger())

	res := e.Collect(context.Background(), "MeToo", 5)

	assert.Equal(t, "https://www.tiktok.com/tag/MeToo", page.navigated)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, res.IDs)
	assert.Equal(t, StopTarget, res.Reason)
	assert.Equal(t, 2, res.Iterations)
	assert.True(t, page.stopped, "listener must be torn down when the pass returns")
}

func TestCollectStopsOnStagnation(t *testing.T) {
	page := &fakePage{batches: [][]string{
		links("1"), links("2"), links("3"),
	}}
	opts := fastOptions()
	opts.StagnationLimit = 4
	e := NewEngine(page, opts, logger.NewNopLogger())

	res := e.Collect(context.Background(), "abc", 100)

	assert.Equal(t, []string{"1", "2", "3"}, res.IDs)
	assert.Equal(t, StopStagnation, res.Reason)
	assert.Equal(t, 3+4, res.Iterations)
}

func TestCollectRespectsTimeBudget(t *testing.T) {
	page := &fakePage{}
	for i := 0; i < 100000; i++ {
		page.batches = append(page.batches, links(fmt.Sprint(i)))
	}
	opts := fastOptions()
	opts.TimeLimit = 80 * time.Millisecond
	opts.ScrollPause = 5 * time.Millisecond
	e := NewEngine(page, opts, logger.NewNopLogger())

	res := e.Collect(context.Background(), "abc", 100000)

	assert.Equal(t, StopBudget, res.Reason)
	assert.NotEmpty(t, res.IDs)
	assert.Less(t, res.Elapsed, time.Second)
}

func TestCollectAddsPassiveNetworkIDs(t *testing.T) {
	page := &fakePage{
		batches: [][]string{links("1"), links("2")},
		responses: map[int][]string{
			0: {"https://www.tiktok.com/api/item/detail/?video/900&aid=1988", "https://cdn.example.com/logo.png"},
			1: {"https://www.tiktok.com/@x/video/901"},
		},
	}
	e := NewEngine(page, fastOptions(), logger.NewNopLogger())

	res := e.Collect(context.Background(), "abc", 10)

	assert.Equal(t, []string{"900", "1", "901", "2"}, res.IDs)
	assert.Equal(t, 2, res.Passive)
	assert.Equal(t, StopStagnation, res.Reason)
}

func TestCollectPassiveIDsRespectCapacity(t *testing.T) {
	page := &fakePage{
		batches:   [][]string{links("1", "2")},
		responses: map[int][]string{0: {"/video/10", "/video/11", "/video/12"}},
	}
	e := NewEngine(page, fastOptions(), logger.NewNopLogger())

	res := e.Collect(context.Background(), "abc", 2)

	assert.Equal(t, []string{"10", "11"}, res.IDs)
	assert.Equal(t, StopTarget, res.Reason)
}

func TestCollectWaitsForChallengeToClear(t *testing.T) {
	page := &fakePage{
		batches: [][]string{links("1"), links("2")},
		// shown on the first check and the next two polls
		challenge: func(call int) bool { return call < 3 },
	}
	e := NewEngine(page, fastOptions(), logger.NewNopLogger())

	res := e.Collect(context.Background(), "abc", 10)

	assert.Equal(t, []string{"1", "2"}, res.IDs)
	assert.Equal(t, StopStagnation, res.Reason)
	assert.GreaterOrEqual(t, page.challengeCalls, 3)
}

func TestCollectChallengeWaitBoundedByBudget(t *testing.T) {
	page := &fakePage{
		batches:   [][]string{links("1")},
		challenge: func(int) bool { return true },
	}
	opts := fastOptions()
	opts.TimeLimit = 100 * time.Millisecond
	opts.ChallengeWait = time.Hour
	e := NewEngine(page, opts, logger.NewNopLogger())

	res := e.Collect(context.Background(), "abc", 10)

	assert.Equal(t, []string{"1"}, res.IDs)
	assert.Equal(t, StopBudget, res.Reason)
	assert.Less(t, res.Elapsed, 2*time.Second)
}

func TestCollectGrowthTimeout(t *testing.T) {
	page := &fakePage{
		batches: [][]string{links("1")},
	}
	opts := fastOptions()
	opts.StagnationLimit = 1 << 30
	opts.ScrollPause = 5 * time.Millisecond
	opts.GrowthTimeout = 40 * time.Millisecond
	e := NewEngine(page, opts, logger.NewNopLogger())

	res := e.Collect(context.Background(), "abc", 10)

	assert.Equal(t, StopNoGrowth, res.Reason)
	assert.Equal(t, []string{"1"}, res.IDs)
}

func TestCollectSwallowsPageFailures(t *testing.T) {
	page := &fakePage{
		batches:   [][]string{links("1")},
		scrollErr: errors.New("element detached"),
		linksErr:  errors.New("eval failed"),
	}
	tl := logger.NewTestLogger()
	e := NewEngine(page, fastOptions(), tl)

	res := e.Collect(context.Background(), "abc", 10)

	assert.Empty(t, res.IDs)
	assert.NotNil(t, res.IDs)
	assert.Equal(t, StopStagnation, res.Reason)
	assert.True(t, tl.HasMessage("scroll failed"))
}

func TestCollectNavigationFailure(t *testing.T) {
	page := &fakePage{navigateErr: errors.New("net::ERR_PROXY_CONNECTION_FAILED")}
	tl := logger.NewTestLogger()
	e := NewEngine(page, fastOptions(), tl)

	res := e.Collect(context.Background(), "abc", 10)

	assert.Empty(t, res.IDs)
	assert.Equal(t, StopNavigation, res.Reason)
	assert.Equal(t, 0, page.scrolls)
	assert.True(t, tl.HasMessage("navigation failed"))
}

func TestCollectCancelledContext(t *testing.T) {
	page := &fakePage{batches: [][]string{links("1")}}
	e := NewEngine(page, fastOptions(), logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := e.Collect(ctx, "abc", 10)

	require.NotNil(t, res.IDs)
	assert.Equal(t, StopBudget, res.Reason)
}

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	assert.Equal(t, 1000*time.Second, o.TimeLimit)
	assert.Equal(t, 25, o.StagnationLimit)
	assert.Equal(t, 45*time.Second, o.GrowthTimeout)
	assert.Less(t, o.GrowthTimeout, o.TimeLimit)
}
