package jubelio

import (
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/flowgate-io/flowgate/pkg/connector/core"
	"github.com/flowgate-io/flowgate/pkg/json"
)

const (
	// defaultPageSize is the page size the Jubelio API expects when the
	// caller does not override it.
	defaultPageSize = 100

	// cursorField is the record field every stream uses for incremental
	// tracking.
	cursorField = "last_modified"
)

// streamSpec declares one Jubelio endpoint. Streams differ only in path,
// primary key and the optional query parameter used for server-side
// incremental filtering; everything else is shared behavior.
type streamSpec struct {
	name       string
	path       string
	primaryKey string
	// incrementalParam is the query parameter the API accepts for
	// cursor filtering. Empty means the cursor is tracked client-side
	// but never sent upstream.
	incrementalParam string
}

// streamSpecs is the static table of streams this source exposes.
var streamSpecs = []streamSpec{
	{name: "products", path: "inventory/items/", primaryKey: "item_group_id"},
	{name: "orders", path: "sales/orders/", primaryKey: "salesorder_id", incrementalParam: "lastModifiedSince"},
	{name: "contacts", path: "contacts/", primaryKey: "contact_id", incrementalParam: "createdSince"},
	{name: "categories", path: "inventory/categories/item-categories/", primaryKey: "category_id"},
}

// descriptor converts the spec into the public stream descriptor.
func (s streamSpec) descriptor() core.StreamDescriptor {
	return core.StreamDescriptor{
		Name:        s.name,
		PrimaryKey:  s.primaryKey,
		SyncMode:    core.SyncModeIncremental,
		CursorField: cursorField,
	}
}

// pageToken points at the next page to fetch. A nil token means the
// stream is exhausted.
type pageToken struct {
	page int
}

// requestHeaders builds the headers attached to every API request. The
// key goes out raw under "authorization", not Bearer-prefixed; that is
// what the Jubelio API expects.
func requestHeaders(apiKey string) map[string]string {
	return map[string]string{
		"authorization": apiKey,
		"Content-Type":  "application/json",
	}
}

// requestParams builds the query parameters for one page fetch. The
// pagination defaults are overlaid with the token, and the cursor value
// from state is injected under the stream's incremental parameter when
// one is declared.
func (s streamSpec) requestParams(state map[string]string, token *pageToken, pageSize int) url.Values {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	page := 1
	if token != nil && token.page > 0 {
		page = token.page
	}

	params := url.Values{}
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("page", strconv.Itoa(page))

	if s.incrementalParam != "" {
		if v := state[cursorField]; v != "" {
			params.Set(s.incrementalParam, v)
		}
	}
	return params
}

// parseResponse extracts records from a response body. The API wraps
// records in a {"data": [...], "totalCount": N} envelope, but some
// endpoints return a bare array or a single object. A body that is not
// valid JSON yields zero records; the sync continues.
//
// The returned envelope is non-nil only when the body was a JSON object,
// and is what nextPageToken inspects for totalCount.
func parseResponse(body []byte, log *zap.Logger) (records []interface{}, envelope map[string]interface{}) {
	var parsed interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		log.Warn("response body is not valid JSON, skipping page", zap.Error(err))
		return nil, nil
	}

	switch v := parsed.(type) {
	case map[string]interface{}:
		data, ok := v["data"]
		if !ok {
			return []interface{}{v}, v
		}
		if list, ok := data.([]interface{}); ok {
			return list, v
		}
		return []interface{}{data}, v
	case []interface{}:
		return v, nil
	default:
		return []interface{}{v}, nil
	}
}

// nextPageToken derives the token for the page after the one just
// fetched. The page and pageSize that produced the response are parsed
// back out of the request URL; if page*pageSize is still below the
// envelope's totalCount there is another page. Any parse failure is
// treated as end of stream rather than an error.
func nextPageToken(requestURL string, envelope map[string]interface{}, log *zap.Logger) *pageToken {
	if envelope == nil {
		return nil
	}
	if _, ok := envelope["data"]; !ok {
		return nil
	}
	total, ok := asInt(envelope["totalCount"])
	if !ok {
		return nil
	}

	u, err := url.Parse(requestURL)
	if err != nil {
		log.Warn("could not parse request URL for pagination", zap.String("url", requestURL), zap.Error(err))
		return nil
	}
	q := u.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil {
		log.Warn("non-numeric page in request URL, stopping pagination", zap.String("url", requestURL))
		return nil
	}
	pageSize, err := strconv.Atoi(q.Get("pageSize"))
	if err != nil {
		log.Warn("non-numeric pageSize in request URL, stopping pagination", zap.String("url", requestURL))
		return nil
	}

	if page*pageSize < total {
		return &pageToken{page: page + 1}
	}
	return nil
}

// updatedState returns the stream state after observing record. The
// cursor advances only when the record's value is strictly greater under
// string comparison, which is sound for ISO-8601 timestamps. A record
// without the cursor field leaves state unchanged. The input state is
// never mutated.
func updatedState(state map[string]string, record map[string]interface{}) map[string]string {
	next := make(map[string]string, len(state)+1)
	for k, v := range state {
		next[k] = v
	}

	raw, ok := record[cursorField]
	if !ok {
		return next
	}
	val, ok := raw.(string)
	if !ok || val == "" {
		return next
	}

	if cur, exists := next[cursorField]; !exists || val > cur {
		next[cursorField] = val
	}
	return next
}

// asInt coerces the JSON number representations we see in practice.
func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}
