package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "tagharvest/pkg/errors"
	"tagharvest/pkg/logger"
)

func videoPage(state string) string {
	return `<!DOCTYPE html><html><head><title>TikTok</title></head><body>` +
		`<div id="app"></div>` +
		`<script id="` + RehydrationScriptID + `" type="application/json">` + state + `</script>` +
		`</body></html>`
}

func detailState(status int, item string) string {
	return fmt.Sprintf(`{"__DEFAULT_SCOPE__":{"webapp.video-detail":{"statusCode":%d,"statusMsg":"","itemInfo":{"itemStruct":%s}}}}`, status, item)
}

const sampleItem = `{
	"id": "7301234567890123456",
	"desc": "#MeToo",
	"createTime": "1700000000",
	"author": {"uniqueId": "someone"},
	"stats": {"diggCount": 120, "playCount": 4500, "shareCount": "7", "commentCount": 33}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{
		BaseURL:   srv.URL,
		UserAgent: "test-agent",
		Timeout:   5 * time.Second,
		MSToken:   "token-1",
		Logger:    logger.NewNopLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, srv
}

func TestFetchVideo(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/@_/video/7301234567890123456", r.URL.Path)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		if cookie, err := r.Cookie("msToken"); assert.NoError(t, err) {
			assert.Equal(t, "token-1", cookie.Value)
		}
		fmt.Fprint(w, videoPage(detailState(0, sampleItem)))
	})

	v, err := c.FetchVideo(context.Background(), "7301234567890123456")
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.Equal(t, "7301234567890123456", v.ID)
	assert.Equal(t, Count(120), v.Stats.DiggCount)
	assert.Equal(t, Count(4500), v.Stats.PlayCount)
	assert.Equal(t, Count(7), v.Stats.ShareCount)
	assert.Equal(t, Count(33), v.Stats.CommentCount)
	assert.Equal(t, "2023-11-14", v.CreatedAt().Format("2006-01-02"))
}

func TestFetchVideoMissingRecord(t *testing.T) {
	pages := map[string]string{
		"/@_/video/1": videoPage(`{"__DEFAULT_SCOPE__":{"webapp.app-context":{}}}`),
		"/@_/video/2": videoPage(detailState(0, "null")),
		"/@_/video/3": `<html><body>nothing here</body></html>`,
	}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pages[r.URL.Path])
	})

	for _, id := range []string{"1", "2", "3"} {
		v, err := c.FetchVideo(context.Background(), id)
		assert.NoError(t, err, id)
		assert.Nil(t, v, id)
	}
}

func TestFetchVideoStatusErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		errType errs.ErrorType
	}{
		{"not found", http.StatusNotFound, "", errs.ErrorTypeNotFound},
		{"rate limited", http.StatusTooManyRequests, "", errs.ErrorTypeRateLimit},
		{"server error", http.StatusBadGateway, "", errs.ErrorTypeServerError},
		{"removed video", http.StatusOK, videoPage(detailState(StatusItemNotFound, "null")), errs.ErrorTypeNotFound},
		{"bad state json", http.StatusOK, videoPage(`{"__DEFAULT_SCOPE__":`), errs.ErrorTypeParsing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			v, err := c.FetchVideo(context.Background(), "42")
			require.Error(t, err)
			assert.Nil(t, v)
			assert.Equal(t, tt.errType, errs.TypeOf(err))
		})
	}
}

func TestFetchVideoRecreatesExpiredSessionOnce(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			fmt.Fprint(w, videoPage(detailState(StatusLoginRequired, "null")))
			return
		}
		fmt.Fprint(w, videoPage(detailState(0, sampleItem)))
	})

	v, err := c.FetchVideo(context.Background(), "7301234567890123456")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 1, c.Renewals())
}

func TestFetchVideoGivesUpAfterOneRenewal(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.FetchVideo(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeAuth))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClosedClientRefuses(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	require.NoError(t, c.Close())

	_, err := c.FetchVideo(context.Background(), "1")
	assert.Error(t, err)
}

func TestSigiStateFallback(t *testing.T) {
	body := `<html><body><script id="SIGI_STATE" type="application/json">` +
		`{"ItemModule":{"55":{"id":"55","createTime":1600000000,"stats":{"diggCount":1}}}}` +
		`</script></body></html>`

	v, err := ParseVideoPage([]byte(body), "55")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, Count(1), v.Stats.DiggCount)
	assert.Equal(t, Count(0), v.Stats.PlayCount)

	v, err = ParseVideoPage([]byte(body), "56")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestCountDecoding(t *testing.T) {
	var s Stats
	require.NoError(t, json.Unmarshal([]byte(`{"diggCount":"12","playCount":3.0,"shareCount":null,"commentCount":""}`), &s))
	assert.Equal(t, Count(12), s.DiggCount)
	assert.Equal(t, Count(3), s.PlayCount)
	assert.Equal(t, Count(0), s.ShareCount)
	assert.Equal(t, Count(0), s.CommentCount)

	assert.Error(t, json.Unmarshal([]byte(`{"diggCount":"many"}`), &s))
}

func TestURLs(t *testing.T) {
	assert.Equal(t, "https://www.tiktok.com/@_/video/123", VideoURL(BaseURL, "123"))
	assert.Equal(t, "https://www.tiktok.com/tag/MeToo", TagURL(BaseURL+"/", "MeToo"))
}
