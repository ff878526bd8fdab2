package cleanup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moudsen/mailGraph/internal/logging"
)

func touch(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	stamp := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, stamp, stamp))
	return path
}

func TestSweepRemovesOnlyAgedFiles(t *testing.T) {
	dir := t.TempDir()
	old := touch(t, dir, "zabbix_graph_55_1_48h.png", 40*24*time.Hour)
	fresh := touch(t, dir, "zabbix_graph_55_2_48h.png", time.Hour)

	removed, err := Sweep(dir, 30*24*time.Hour, logging.New("", false))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}

func TestSweepLeavesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "keep")
	require.NoError(t, os.Mkdir(sub, 0755))
	stamp := time.Now().Add(-100 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(sub, stamp, stamp))

	removed, err := Sweep(dir, 24*time.Hour, logging.New("", false))
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	_, err = os.Stat(sub)
	assert.NoError(t, err)
}

func TestSweepMissingDirectory(t *testing.T) {
	_, err := Sweep(filepath.Join(t.TempDir(), "nope"), time.Hour, logging.New("", false))
	require.Error(t, err)
}
