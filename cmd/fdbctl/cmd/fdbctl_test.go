package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-cerp/fdblayer/internal/config"
	"github.com/aman-cerp/fdblayer/internal/fdberr"
	"github.com/aman-cerp/fdblayer/internal/kvstore"
	"github.com/aman-cerp/fdblayer/internal/tuple"
)

// writeTestConfig writes a minimal config declaring one entity type with
// one scalar index, pointing Store.Path at a fresh bbolt file under t.TempDir.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(dir, "store.db")
	cfg.Schema = []config.EntityConfig{
		{
			Name: "widget",
			Indexes: []config.IndexConfig{
				{Name: "by_category", Kind: "scalar", Fields: []string{"category"}},
			},
		},
	}
	path := filepath.Join(dir, "fdblayer.yaml")
	require.NoError(t, config.Save(path, cfg))
	return path
}

func runCLI(t *testing.T, cfgPathArg string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(append([]string{"--config", cfgPathArg}, args...))
	err := root.Execute()
	return buf.String(), err
}

func TestIndexesCmd_ListsDeclaredIndexAsNeverBuilt(t *testing.T) {
	path := writeTestConfig(t)

	out, err := runCLI(t, path, "indexes")
	require.NoError(t, err)
	assert.Contains(t, out, "by_category")
	assert.Contains(t, out, "widget")
	assert.NotContains(t, out, "ready")
}

func TestRebuildIndexCmd_TransitionsIndexToReady(t *testing.T) {
	path := writeTestConfig(t)

	_, err := runCLI(t, path, "rebuild-index", "--type", "widget", "by_category")
	require.NoError(t, err)

	out, err := runCLI(t, path, "indexes")
	require.NoError(t, err)
	assert.Contains(t, out, "ready")
}

func TestRebuildIndexCmd_MissingTypeFlagIsUsageError(t *testing.T) {
	path := writeTestConfig(t)

	_, err := runCLI(t, path, "rebuild-index", "by_category")
	require.Error(t, err)
	assert.Equal(t, ExitUsage, ExitCodeFor(err))
}

func TestRebuildIndexCmd_UnknownIndexIsLogicalError(t *testing.T) {
	path := writeTestConfig(t)

	_, err := runCLI(t, path, "rebuild-index", "--type", "widget", "no_such_index")
	require.Error(t, err)
	assert.Equal(t, ExitLogicalError, ExitCodeFor(err))
}

func TestStatsCmd_ReportsZeroRowsBeforeAnyRecords(t *testing.T) {
	path := writeTestConfig(t)

	out, err := runCLI(t, path, "stats", "widget")
	require.NoError(t, err)
	assert.Contains(t, out, "by_category")
	assert.Regexp(t, `by_category\s+0\s`, out)
}

func TestExplainCmd_PrintsTableScanWithNoMatchingIndex(t *testing.T) {
	path := writeTestConfig(t)

	out, err := runCLI(t, path, "explain", "widget", "name=widget-1")
	require.NoError(t, err)
	assert.Contains(t, out, "TableScan")
}

func TestExplainCmd_PrefersIndexSeekOnIndexedEquality(t *testing.T) {
	path := writeTestConfig(t)

	// One index entry gives the table scan a non-zero row estimate; with
	// zero rows a table scan costs nothing and would win.
	loaded, err := config.Load(path)
	require.NoError(t, err)
	kv, err := kvstore.Open(loaded.Store.Path)
	require.NoError(t, err)
	require.NoError(t, kv.Transact(context.Background(), fdberr.DefaultRetryConfig(), func(txn *kvstore.Txn) error {
		key := kvstore.IndexEntryKey("by_category", tuple.Pack(tuple.Tuple{"tools"}), tuple.Pack(tuple.Tuple{int64(1)}))
		return txn.Set(key, []byte{})
	}))
	require.NoError(t, kv.Close())

	out, err := runCLI(t, path, "explain", "widget", "category=tools")
	require.NoError(t, err)
	assert.Contains(t, out, "by_category")
}

func TestStatsCmd_UnknownEntityTypeFails(t *testing.T) {
	path := writeTestConfig(t)

	_, err := runCLI(t, path, "stats", "no_such_type")
	require.Error(t, err)
}
