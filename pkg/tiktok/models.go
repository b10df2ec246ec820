package tiktok

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Count is an integer the page state sometimes encodes as a JSON string
type Count int64

func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*c = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		*c = Count(n)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	i, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil {
			return err
		}
		i = int64(f)
	}
	*c = Count(i)
	return nil
}

// Stats holds the engagement counters of a video
type Stats struct {
	DiggCount    Count `json:"diggCount"`
	PlayCount    Count `json:"playCount"`
	ShareCount   Count `json:"shareCount"`
	CommentCount Count `json:"commentCount"`
	CollectCount Count `json:"collectCount"`
}

// Author identifies the account that posted a video
type Author struct {
	ID       string `json:"id"`
	UniqueID string `json:"uniqueId"`
	Nickname string `json:"nickname"`
}

// Video is the subset of the item detail record used by hydration
type Video struct {
	ID         string `json:"id"`
	Desc       string `json:"desc"`
	CreateTime Count  `json:"createTime"`
	Author     Author `json:"author"`
	Stats      Stats  `json:"stats"`
}

// CreatedAt returns the creation time in UTC; a missing timestamp is the epoch
func (v *Video) CreatedAt() time.Time {
	return time.Unix(int64(v.CreateTime), 0).UTC()
}

type videoDetail struct {
	StatusCode int    `json:"statusCode"`
	StatusMsg  string `json:"statusMsg"`
	ItemInfo   struct {
		ItemStruct *Video `json:"itemStruct"`
	} `json:"itemInfo"`
}

type rehydrationState struct {
	DefaultScope map[string]json.RawMessage `json:"__DEFAULT_SCOPE__"`
}

type sigiState struct {
	ItemModule map[string]*Video `json:"ItemModule"`
}
