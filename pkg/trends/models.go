package trends

import (
	"encoding/json"
	"strconv"
	"time"
)

// DateLayout is how point dates are written
const DateLayout = "2006-01-02"

// Query selects one interest-over-time series
type Query struct {
	Keyword string
	// Timeframe is "YYYY-MM-DD YYYY-MM-DD"
	Timeframe string
	// Geo is a region code; empty means worldwide
	Geo string
}

// Point is one observation of a series
type Point struct {
	Date    time.Time
	Value   int
	Partial bool
}

// Series is an ordered interest-over-time series
type Series []Point

// Header is the column layout of a written series
var Header = []string{"date", "value"}

// Rows renders the series as date,value records. The partial-period
// indicator is not part of the output.
func (s Series) Rows() [][]string {
	rows := make([][]string, 0, len(s))
	for _, p := range s {
		rows = append(rows, []string{p.Date.UTC().Format(DateLayout), strconv.Itoa(p.Value)})
	}
	return rows
}

type comparisonItem struct {
	Keyword string `json:"keyword"`
	Time    string `json:"time"`
	Geo     string `json:"geo"`
}

type exploreRequest struct {
	ComparisonItem []comparisonItem `json:"comparisonItem"`
	Category       int              `json:"category"`
	Property       string           `json:"property"`
}

type widget struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Request json.RawMessage `json:"request"`
}

type exploreResponse struct {
	Widgets []widget `json:"widgets"`
}

type timelinePoint struct {
	Time      string `json:"time"`
	Value     []int  `json:"value"`
	HasData   []bool `json:"hasData"`
	IsPartial bool   `json:"isPartial"`
}

type multilineResponse struct {
	Default struct {
		TimelineData []timelinePoint `json:"timelineData"`
	} `json:"default"`
}
