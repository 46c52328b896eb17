package tickspot

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/clbanning/mxj/v2"
)

const (
	attrPrefix = "-"
	textKey    = "#text"
)

var errNoRootElement = errors.New("no root element")

// acceptedStatus lists the status codes whose body is treated as a result.
var acceptedStatus = map[int]bool{
	http.StatusOK:          true,
	http.StatusCreated:     true,
	http.StatusNoContent:   true,
	http.StatusNotModified: true,
}

// parseResponse turns one API reply into a normalized tree. An accepted
// status with an empty body yields a nil tree and no error.
func parseResponse(status int, body []byte, transportErr error) (map[string]any, error) {
	if transportErr != nil {
		return nil, &TransportError{Status: status, Body: string(body), Err: transportErr}
	}
	if !acceptedStatus[status] {
		return nil, &TransportError{Status: status, Body: string(body)}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	raw, err := mxj.NewMapXml(body)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if len(raw) == 0 {
		return nil, &ParseError{Err: errNoRootElement}
	}
	tree, ok := stripAttrs(map[string]any(raw)).(map[string]any)
	if !ok {
		return nil, &ParseError{Err: errNoRootElement}
	}
	normalizeTree("", tree)
	return tree, nil
}

// stripAttrs drops attribute keys from a parsed tree. An element left with
// only its character data collapses to that text, and one left with nothing
// becomes the empty string, matching how mxj renders <tag></tag>.
func stripAttrs(node any) any {
	switch n := node.(type) {
	case map[string]any:
		for k, v := range n {
			if strings.HasPrefix(k, attrPrefix) {
				delete(n, k)
				continue
			}
			n[k] = stripAttrs(v)
		}
		if text, ok := n[textKey]; ok && len(n) == 1 {
			return text
		}
		if len(n) == 0 {
			return ""
		}
		return n
	case []any:
		for i, v := range n {
			n[i] = stripAttrs(v)
		}
		return n
	}
	return node
}
