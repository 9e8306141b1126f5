package jubelio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func findSpec(t *testing.T, name string) streamSpec {
	t.Helper()
	for _, spec := range streamSpecs {
		if spec.name == name {
			return spec
		}
	}
	t.Fatalf("unknown stream %q", name)
	return streamSpec{}
}

func TestStreamTable(t *testing.T) {
	require.Len(t, streamSpecs, 4)

	tests := []struct {
		name             string
		path             string
		primaryKey       string
		incrementalParam string
	}{
		{"products", "inventory/items/", "item_group_id", ""},
		{"orders", "sales/orders/", "salesorder_id", "lastModifiedSince"},
		{"contacts", "contacts/", "contact_id", "createdSince"},
		{"categories", "inventory/categories/item-categories/", "category_id", ""},
	}

	for _, tt := range tests {
		spec := findSpec(t, tt.name)
		assert.Equal(t, tt.path, spec.path)
		assert.Equal(t, tt.primaryKey, spec.primaryKey)
		assert.Equal(t, tt.incrementalParam, spec.incrementalParam)
	}
}

func TestRequestHeaders(t *testing.T) {
	headers := requestHeaders("secret-token")

	// the key goes out raw, not Bearer-prefixed
	assert.Equal(t, "secret-token", headers["authorization"])
	assert.Equal(t, "application/json", headers["Content-Type"])
}

func TestRequestParamsDefaults(t *testing.T) {
	orders := findSpec(t, "orders")

	params := orders.requestParams(nil, nil, 0)
	assert.Equal(t, "100", params.Get("pageSize"))
	assert.Equal(t, "1", params.Get("page"))
	assert.False(t, params.Has("lastModifiedSince"))
}

func TestRequestParamsWithState(t *testing.T) {
	orders := findSpec(t, "orders")
	state := map[string]string{"last_modified": "2023-12-01T10:00:00Z"}

	params := orders.requestParams(state, nil, 100)
	assert.Equal(t, "2023-12-01T10:00:00Z", params.Get("lastModifiedSince"))
	assert.Equal(t, "100", params.Get("pageSize"))
	assert.Equal(t, "1", params.Get("page"))
}

func TestRequestParamsWithToken(t *testing.T) {
	orders := findSpec(t, "orders")

	params := orders.requestParams(nil, &pageToken{page: 3}, 25)
	assert.Equal(t, "3", params.Get("page"))
	assert.Equal(t, "25", params.Get("pageSize"))
}

func TestRequestParamsCursorNeverSentWithoutParam(t *testing.T) {
	products := findSpec(t, "products")
	state := map[string]string{"last_modified": "2023-12-01T10:00:00Z"}

	params := products.requestParams(state, nil, 100)
	assert.Len(t, params, 2, "only pagination parameters expected: %v", params)
}

func TestContactsUsesCreatedSince(t *testing.T) {
	contacts := findSpec(t, "contacts")
	state := map[string]string{"last_modified": "2024-01-15T00:00:00Z"}

	params := contacts.requestParams(state, nil, 100)
	assert.Equal(t, "2024-01-15T00:00:00Z", params.Get("createdSince"))
	assert.False(t, params.Has("lastModifiedSince"))
}

func TestUpdatedStateFromEmpty(t *testing.T) {
	record := map[string]interface{}{"last_modified": "2023-12-01T10:00:00Z"}

	next := updatedState(map[string]string{}, record)
	assert.Equal(t, map[string]string{"last_modified": "2023-12-01T10:00:00Z"}, next)
}

func TestUpdatedStateAdvances(t *testing.T) {
	state := map[string]string{"last_modified": "2023-12-01T10:00:00Z"}
	record := map[string]interface{}{"last_modified": "2023-12-02T08:30:00Z"}

	next := updatedState(state, record)
	assert.Equal(t, "2023-12-02T08:30:00Z", next["last_modified"])
}

func TestUpdatedStateIgnoresOlderRecord(t *testing.T) {
	state := map[string]string{"last_modified": "2023-12-01T10:00:00Z"}
	record := map[string]interface{}{"last_modified": "2023-11-30T23:59:59Z"}

	next := updatedState(state, record)
	assert.Equal(t, "2023-12-01T10:00:00Z", next["last_modified"])
}

func TestUpdatedStateIgnoresEqualRecord(t *testing.T) {
	state := map[string]string{"last_modified": "2023-12-01T10:00:00Z"}
	record := map[string]interface{}{"last_modified": "2023-12-01T10:00:00Z"}

	next := updatedState(state, record)
	assert.Equal(t, state, next)
}

func TestUpdatedStateMissingCursorField(t *testing.T) {
	state := map[string]string{"last_modified": "2023-12-01T10:00:00Z"}
	record := map[string]interface{}{"salesorder_id": float64(42)}

	next := updatedState(state, record)
	assert.Equal(t, state, next)
}

func TestUpdatedStateDoesNotMutateInput(t *testing.T) {
	state := map[string]string{"last_modified": "2023-12-01T10:00:00Z"}
	record := map[string]interface{}{"last_modified": "2024-01-01T00:00:00Z"}

	_ = updatedState(state, record)
	assert.Equal(t, "2023-12-01T10:00:00Z", state["last_modified"])
}

func TestNextPageTokenMorePages(t *testing.T) {
	log := zaptest.NewLogger(t)
	envelope := map[string]interface{}{
		"data":       []interface{}{},
		"totalCount": float64(30),
	}

	token := nextPageToken("https://api2.jubelio.com/sales/orders/?page=1&pageSize=25", envelope, log)
	require.NotNil(t, token)
	assert.Equal(t, 2, token.page)
}

func TestNextPageTokenExhausted(t *testing.T) {
	log := zaptest.NewLogger(t)
	envelope := map[string]interface{}{
		"data":       []interface{}{},
		"totalCount": float64(30),
	}

	token := nextPageToken("https://api2.jubelio.com/sales/orders/?page=2&pageSize=25", envelope, log)
	assert.Nil(t, token)
}

func TestNextPageTokenExactBoundary(t *testing.T) {
	log := zaptest.NewLogger(t)
	envelope := map[string]interface{}{
		"data":       []interface{}{},
		"totalCount": float64(200),
	}

	// 2*100 == 200: not strictly less, so the stream is done
	token := nextPageToken("https://x.test/items/?page=2&pageSize=100", envelope, log)
	assert.Nil(t, token)
}

func TestNextPageTokenMissingEnvelopeFields(t *testing.T) {
	log := zaptest.NewLogger(t)

	assert.Nil(t, nextPageToken("https://x.test/?page=1&pageSize=25", nil, log))
	assert.Nil(t, nextPageToken("https://x.test/?page=1&pageSize=25",
		map[string]interface{}{"totalCount": float64(30)}, log))
	assert.Nil(t, nextPageToken("https://x.test/?page=1&pageSize=25",
		map[string]interface{}{"data": []interface{}{}}, log))
}

func TestNextPageTokenUnparseableURL(t *testing.T) {
	log := zaptest.NewLogger(t)
	envelope := map[string]interface{}{
		"data":       []interface{}{},
		"totalCount": float64(1000),
	}

	// pagination failures end the stream instead of erroring
	assert.Nil(t, nextPageToken("https://x.test/?page=abc&pageSize=25", envelope, log))
	assert.Nil(t, nextPageToken("https://x.test/?page=1&pageSize=xyz", envelope, log))
	assert.Nil(t, nextPageToken("://bad-url", envelope, log))
}

func TestParseResponseEnvelope(t *testing.T) {
	log := zaptest.NewLogger(t)
	body := []byte(`{"data": [{"salesorder_id": 1}, {"salesorder_id": 2}], "totalCount": 2}`)

	records, envelope := parseResponse(body, log)
	require.Len(t, records, 2)
	require.NotNil(t, envelope)
	assert.Equal(t, float64(2), envelope["totalCount"])
}

func TestParseResponseDataNotAList(t *testing.T) {
	log := zaptest.NewLogger(t)
	body := []byte(`{"data": {"salesorder_id": 7}, "totalCount": 1}`)

	records, _ := parseResponse(body, log)
	require.Len(t, records, 1)
	record, ok := records[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(7), record["salesorder_id"])
}

func TestParseResponseBareList(t *testing.T) {
	log := zaptest.NewLogger(t)
	body := []byte(`[{"contact_id": 1}, {"contact_id": 2}, {"contact_id": 3}]`)

	records, envelope := parseResponse(body, log)
	assert.Len(t, records, 3)
	assert.Nil(t, envelope)
}

func TestParseResponseObjectWithoutData(t *testing.T) {
	log := zaptest.NewLogger(t)
	body := []byte(`{"category_id": 5, "category_name": "Shoes"}`)

	records, envelope := parseResponse(body, log)
	require.Len(t, records, 1)
	assert.NotNil(t, envelope)
}

func TestParseResponseInvalidJSON(t *testing.T) {
	log := zaptest.NewLogger(t)

	records, envelope := parseResponse([]byte("<html>not json</html>"), log)
	assert.Empty(t, records)
	assert.Nil(t, envelope)
}

func TestAsInt(t *testing.T) {
	tests := []struct {
		in   interface{}
		want int
		ok   bool
	}{
		{float64(30), 30, true},
		{42, 42, true},
		{int64(7), 7, true},
		{"19", 19, true},
		{"abc", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}

	for _, tt := range tests {
		got, ok := asInt(tt.in)
		assert.Equal(t, tt.ok, ok, "input %v", tt.in)
		assert.Equal(t, tt.want, got, "input %v", tt.in)
	}
}
