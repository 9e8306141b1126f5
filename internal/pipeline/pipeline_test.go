package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgate-io/flowgate/pkg/connector/core"
	"github.com/flowgate-io/flowgate/pkg/json"
	"github.com/flowgate-io/flowgate/pkg/testutil"

	_ "github.com/flowgate-io/flowgate/pkg/connector/destinations"
	_ "github.com/flowgate-io/flowgate/pkg/connector/sources"
)

// fakeAPI serves a fixed number of order rows through the paginated
// envelope every Jubelio endpoint uses.
func fakeAPI(t *testing.T, orderRows int) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rows := make([]map[string]interface{}, 0)
		if r.URL.Path == "/sales/orders/" {
			page, _ := strconv.Atoi(r.URL.Query().Get("page"))
			pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
			start := (page - 1) * pageSize
			for i := start; i < start+pageSize && i < orderRows; i++ {
				rows = append(rows, map[string]interface{}{
					"salesorder_id": i + 1,
					"last_modified": "2024-05-01T00:00:00Z",
				})
			}
		}
		total := 0
		if r.URL.Path == "/sales/orders/" {
			total = orderRows
		}
		w.Header().Set("Content-Type", "application/json")
		body, err := json.Marshal(map[string]interface{}{"data": rows, "totalCount": total})
		require.NoError(t, err)
		w.Write(body)
	}))
}

func TestRunEndToEnd(t *testing.T) {
	server := fakeAPI(t, 7)
	defer server.Close()

	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.jsonl")
	statePath := filepath.Join(dir, "state.json")

	p, err := New(Config{
		SourceName:        "jubelio",
		DestinationName:   "jsonl",
		SourceConfig:      testutil.SourceConfig("jubelio", server.URL, "key"),
		DestinationConfig: testutil.DestinationConfig("jsonl", outPath),
		StatePath:         statePath,
	})
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background()))

	out, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	// state was checkpointed with the highest observed cursor
	raw, err := os.ReadFile(statePath)
	require.NoError(t, err)

	var state core.State
	require.NoError(t, json.Unmarshal(raw, &state))
	orders, ok := state["orders"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "2024-05-01T00:00:00Z", orders["last_modified"])
}

func TestRunRestoresCheckpointedState(t *testing.T) {
	server := fakeAPI(t, 1)
	defer server.Close()

	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	require.NoError(t, os.WriteFile(statePath,
		[]byte(`{"orders": {"last_modified": "2099-01-01T00:00:00Z"}}`), 0o644))

	p, err := New(Config{
		SourceName:        "jubelio",
		DestinationName:   "jsonl",
		SourceConfig:      testutil.SourceConfig("jubelio", server.URL, "key"),
		DestinationConfig: testutil.DestinationConfig("jsonl", filepath.Join(dir, "out.jsonl")),
		StatePath:         statePath,
	})
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background()))

	// the restored cursor is newer than every record, so it survives
	raw, err := os.ReadFile(statePath)
	require.NoError(t, err)

	var state core.State
	require.NoError(t, json.Unmarshal(raw, &state))
	orders := state["orders"].(map[string]interface{})
	assert.Equal(t, "2099-01-01T00:00:00Z", orders["last_modified"])
}

func TestRunCorruptStateFails(t *testing.T) {
	server := fakeAPI(t, 1)
	defer server.Close()

	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	require.NoError(t, os.WriteFile(statePath, []byte("{not json"), 0o644))

	p, err := New(Config{
		SourceName:        "jubelio",
		DestinationName:   "jsonl",
		SourceConfig:      testutil.SourceConfig("jubelio", server.URL, "key"),
		DestinationConfig: testutil.DestinationConfig("jsonl", filepath.Join(dir, "out.jsonl")),
		StatePath:         statePath,
	})
	require.NoError(t, err)

	err = p.Run(context.Background())
	require.Error(t, err)
}

func TestNewUnknownConnector(t *testing.T) {
	_, err := New(Config{SourceName: "no-such-source"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-source")
}
