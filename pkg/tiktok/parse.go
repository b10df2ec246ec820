package tiktok

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	errs "tagharvest/pkg/errors"
)

// scriptByID returns the text of the first <script> element with the given id
func scriptByID(r io.Reader, id string) (string, bool, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", false, err
	}

	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "script" {
			for _, a := range n.Attr {
				if a.Key == "id" && a.Val == id {
					found = n
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if found == nil {
		return "", false, nil
	}
	var sb strings.Builder
	for c := found.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String(), true, nil
}

// ParseVideoPage extracts the video record from a video page.
// A page without any item record yields (nil, nil); a page whose state
// reports a non-zero status yields a typed error.
func ParseVideoPage(body []byte, id string) (*Video, error) {
	state, ok, err := scriptByID(bytes.NewReader(body), RehydrationScriptID)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, "failed to parse page", err)
	}
	if ok {
		return parseRehydration(state)
	}

	state, ok, err = scriptByID(bytes.NewReader(body), SigiScriptID)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, "failed to parse page", err)
	}
	if ok {
		var sigi sigiState
		if err := json.Unmarshal([]byte(state), &sigi); err != nil {
			return nil, errs.Wrap(errs.ErrorTypeParsing, "failed to decode page state", err)
		}
		return sigi.ItemModule[id], nil
	}

	return nil, nil
}

func parseRehydration(state string) (*Video, error) {
	var root rehydrationState
	if err := json.Unmarshal([]byte(state), &root); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, "failed to decode page state", err)
	}
	raw, ok := root.DefaultScope[videoDetailScope]
	if !ok {
		return nil, nil
	}

	var detail videoDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, "failed to decode video detail", err)
	}

	switch detail.StatusCode {
	case StatusOK:
	case StatusLoginRequired:
		return nil, &errs.Error{Type: errs.ErrorTypeAuth, Message: "login required", Code: detail.StatusCode}
	case StatusItemNotFound, StatusItemPrivate:
		return nil, &errs.Error{Type: errs.ErrorTypeNotFound, Message: statusMessage(detail), Code: detail.StatusCode}
	default:
		return nil, &errs.Error{Type: errs.ErrorTypeUnknown, Message: statusMessage(detail), Code: detail.StatusCode}
	}

	v := detail.ItemInfo.ItemStruct
	if v == nil || v.ID == "" {
		return nil, nil
	}
	return v, nil
}

func statusMessage(d videoDetail) string {
	if d.StatusMsg != "" {
		return d.StatusMsg
	}
	return fmt.Sprintf("page status %d", d.StatusCode)
}
