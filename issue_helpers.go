package collectas

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/reoring/collectas/i18n"
	"github.com/reoring/collectas/internal/accum"
)

// IssueAt creates an Issue at the given path with provided code, message and params map.
// Extension builders use it to report failures in the same shape as the core.
func IssueAt(path, code, msg string, params map[string]any) Issue {
	return Issue{Path: path, Code: code, Message: msg, Params: params}
}

// IndexPath renders the JSON Pointer of the i-th element of the input.
func IndexPath(i int) string { return "/" + strconv.Itoa(i) }

// issueAt builds an Issue whose message comes from the active translator.
func issueAt(path, code string, cause error, params map[string]any) Issue {
	var data map[string]string
	if len(params) > 0 {
		data = make(map[string]string, len(params))
		for k, v := range params {
			data[k] = fmt.Sprint(v)
		}
	}
	return Issue{Path: path, Code: code, Message: i18n.T(code, data), Cause: cause, Params: params}
}

func failAt(path, code string, cause error, params map[string]any) error {
	return Issues{issueAt(path, code, cause, params)}
}

// elementIssue maps an element-level failure at index i to Issues. Issues
// raised by the sequence itself pass through unchanged; accumulator failures
// become element_conversion; anything else is a parse_error from the source.
func elementIssue(i int, err error) error {
	if _, ok := AsIssues(err); ok {
		return err
	}
	var ce *accum.ConvertError
	if errors.As(err, &ce) {
		return failAt(IndexPath(i), CodeElementConversion, err, map[string]any{
			"value":  fmt.Sprintf("%v", ce.Value),
			"type":   fmt.Sprintf("%T", ce.Value),
			"target": typeName(ce.Target),
		})
	}
	return failAt(IndexPath(i), CodeParseError, err, nil)
}
