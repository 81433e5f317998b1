package vtab

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Tool is one catalog entry in its JSON wire form. Fields are extracted on
// demand so a streaming scan never decodes columns it does not read.
type Tool string

// Field returns the named field as text. String fields yield their value,
// structured fields (inputSchema, annotations, ...) their raw JSON. Absent,
// null and empty fields report ok == false. A missing title falls back to
// annotations.title.
func (t Tool) Field(name string) (string, bool) {
	r := gjson.Get(string(t), name)
	if (!r.Exists() || r.Type == gjson.Null) && name == "title" {
		r = gjson.Get(string(t), "annotations.title")
	}
	return resultText(r)
}

func resultText(r gjson.Result) (string, bool) {
	switch {
	case !r.Exists(), r.Type == gjson.Null:
		return "", false
	case r.Type == gjson.String:
		return r.Str, r.Str != ""
	default:
		return r.Raw, r.Raw != ""
	}
}

// Catalog is a full tool listing, {"tools": [...]} or a bare array.
type Catalog struct {
	tools []gjson.Result
}

// ParseCatalog parses a catalog document.
func ParseCatalog(raw string) (Catalog, error) {
	if !gjson.Valid(raw) {
		return Catalog{}, fmt.Errorf("invalid catalog document")
	}
	doc := gjson.Parse(raw)
	if msg := doc.Get("error"); msg.Type == gjson.String {
		return Catalog{}, &RemoteError{Message: msg.Str}
	}
	list := doc
	if doc.IsObject() {
		list = doc.Get("tools")
	}
	if list.Exists() && !list.IsArray() {
		return Catalog{}, fmt.Errorf("catalog tools is not an array")
	}
	return Catalog{tools: list.Array()}, nil
}

func (c Catalog) Len() int {
	return len(c.tools)
}

func (c Catalog) Tool(i int) Tool {
	if i < 0 || i >= len(c.tools) {
		return ""
	}
	return Tool(c.tools[i].Raw)
}

// CallResult is the structured result of one tools/call.
type CallResult struct {
	content []gjson.Result
	isError bool
}

// ParseCallResult parses a call result. Both the bare result object and the
// {"result": {...}} envelope are accepted; an {"error": "..."} envelope is
// reported as a RemoteError.
func ParseCallResult(raw string) (CallResult, error) {
	if !gjson.Valid(raw) {
		return CallResult{}, fmt.Errorf("invalid call result document")
	}
	doc := gjson.Parse(raw)
	if msg := doc.Get("error"); msg.Type == gjson.String {
		return CallResult{}, &RemoteError{Message: msg.Str}
	}
	if r := doc.Get("result"); r.IsObject() {
		doc = r
	}
	return CallResult{
		content: doc.Get("content").Array(),
		isError: doc.Get("isError").Bool(),
	}, nil
}

// IsError reports whether the tool flagged its own result as an error.
func (r CallResult) IsError() bool {
	return r.isError
}

func (r CallResult) ContentCount() int {
	return len(r.content)
}

// ContentText returns the text of content item i. See ContentItemText.
func (r CallResult) ContentText(i int) (string, bool) {
	if i < 0 || i >= len(r.content) {
		return "", false
	}
	return contentText(r.content[i])
}

// ErrorText joins the text of all content items, for isError results.
func (r CallResult) ErrorText() string {
	parts := make([]string, 0, len(r.content))
	for i := range r.content {
		if s, ok := contentText(r.content[i]); ok {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "tool reported an error"
	}
	return strings.Join(parts, "\n")
}

// ContentItemText returns the row text for one content item in JSON form:
// the text of text items, the embedded text of text resources, and the raw
// JSON of anything else (images, audio, blob resources).
func ContentItemText(item string) (string, bool) {
	return contentText(gjson.Parse(item))
}

func contentText(item gjson.Result) (string, bool) {
	switch item.Get("type").Str {
	case "text":
		return resultText(item.Get("text"))
	case "resource":
		if txt := item.Get("resource.text"); txt.Exists() {
			return resultText(txt)
		}
	}
	return resultText(item)
}

// NormalizeArguments validates invocation arguments. Empty text means no
// arguments and becomes "{}".
func NormalizeArguments(args string) (string, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return "{}", nil
	}
	if !gjson.Valid(args) || !gjson.Parse(args).IsObject() {
		return "", fmt.Errorf("%w: %q", ErrInvalidArguments, args)
	}
	return args, nil
}
