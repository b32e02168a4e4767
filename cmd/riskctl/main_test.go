package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/andresuchdata/stockrisk/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const extract = `LOCATION,ITEM,DATE,DAYS_OF_COVER,CLOSING_STOCK,AVG_DAILY_CONSUMPTION,LEAD_TIME_DAYS
Clinic A,ORS,2024-03-01,2,5,3,4
Clinic B,Zinc,2024-03-01,5,20,4,10
Clinic C,ORS,2024-03-01,30,300,10,5
`

func writeExtract(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metrics.csv")
	require.NoError(t, os.WriteFile(path, []byte(extract), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runWithConfig(t, &config.Config{}, args...)
}

func runWithConfig(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp(cfg)
	app.Writer = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"riskctl"}, args...))
	return out.String(), err
}

func TestAlertsFromCSV(t *testing.T) {
	out, err := run(t, "alerts", "--csv", writeExtract(t))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "Clinic A")
	assert.Contains(t, lines[1], "CRITICAL")
	assert.Contains(t, lines[2], "Clinic B")
	assert.NotContains(t, out, "Clinic C")
}

func TestAlertsMinLevel(t *testing.T) {
	out, err := run(t, "alerts", "--csv", writeExtract(t), "--min-level", "critical")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Clinic A")
	assert.NotContains(t, out, "Clinic B")

	_, err = run(t, "alerts", "--csv", writeExtract(t), "--min-level", "severe")
	assert.Error(t, err)
}

func TestExportToFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out.csv")
	_, err := run(t, "export", "--csv", writeExtract(t), "--location", "Clinic A", "-o", target)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t,
		"LOCATION,ITEM,RISK_LEVEL,DAYS_OF_COVER,CLOSING_STOCK,AVG_DAILY_CONSUMPTION,LEAD_TIME_DAYS,REORDER_QUANTITY,ACTION_REQUIRED\n"+
			"Clinic A,ORS,CRITICAL,2.0,5,3.00,4,7,Order immediately\n",
		string(data))
}

func TestInsightFromCSV(t *testing.T) {
	out, err := run(t, "insight", "--csv", writeExtract(t))
	require.NoError(t, err)
	assert.Equal(t,
		"2 items are at high or critical risk. The most urgent shortages are observed at Clinic A, Clinic B. "+
			"Some items have as little as 2.0 days of stock remaining. Immediate reordering is recommended.\n",
		out)
}

func TestRejectsMalformedExtract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("LOCATION,DAYS_OF_COVER\nA,1\n"), 0o644))

	_, err := run(t, "summary", "--csv", path)
	assert.Error(t, err)
}

type memoryStore struct {
	objects map[string][]byte
}

func (s *memoryStore) ListObjects(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var infos []storage.ObjectInfo
	for key, data := range s.objects {
		if strings.HasPrefix(key, prefix) {
			infos = append(infos, storage.ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	return infos, nil
}

func (s *memoryStore) DownloadObject(_ context.Context, key, destPath string) error {
	data, ok := s.objects[key]
	if !ok {
		return errors.New("no such key")
	}
	return os.WriteFile(destPath, data, 0o644)
}

func (s *memoryStore) UploadObject(_ context.Context, key string, data []byte, _ string) error {
	s.objects[key] = append([]byte(nil), data...)
	return nil
}

func useStore(t *testing.T, store storage.ObjectStorage) {
	t.Helper()
	previous := newObjectStorage
	newObjectStorage = func(config.StorageConfig) (storage.ObjectStorage, error) { return store, nil }
	t.Cleanup(func() { newObjectStorage = previous })
}

func exportsConfig() *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{Prefix: "exports"},
		Report:  config.ReportConfig{FileName: "reorder_recommendations.csv"},
	}
}

func TestExportUploadThenFetch(t *testing.T) {
	store := &memoryStore{objects: map[string][]byte{}}
	useStore(t, store)
	cfg := exportsConfig()

	_, err := runWithConfig(t, cfg, "export", "--csv", writeExtract(t), "-o", filepath.Join(t.TempDir(), "local.csv"), "--upload")
	require.NoError(t, err)
	require.Len(t, store.objects, 1)

	out, err := runWithConfig(t, cfg, "exports", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "/reorder_recommendations.csv")

	target := filepath.Join(t.TempDir(), "latest.csv")
	_, err = runWithConfig(t, cfg, "exports", "get", "-o", target)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "LOCATION,ITEM,RISK_LEVEL"))
	assert.Contains(t, string(data), "Clinic A,ORS,CRITICAL")
}

func TestExportsListNewestFirst(t *testing.T) {
	useStore(t, &memoryStore{objects: map[string][]byte{
		"exports/20240305/reorder_recommendations.csv": []byte("a"),
		"exports/20240307/reorder_recommendations.csv": []byte("abc"),
		"exports/20240306/reorder_recommendations.csv": []byte("ab"),
		"other/20240308/reorder_recommendations.csv":   []byte("x"),
	}})

	out, err := runWithConfig(t, exportsConfig(), "exports", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "exports/20240307/reorder_recommendations.csv")
	assert.Contains(t, lines[3], "exports/20240305/reorder_recommendations.csv")

	out, err = runWithConfig(t, exportsConfig(), "exports", "list", "--date", "2024-03-06", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "exports/20240306/reorder_recommendations.csv")
	assert.NotContains(t, out, "20240307")
}

func TestExportsGetByKey(t *testing.T) {
	useStore(t, &memoryStore{objects: map[string][]byte{
		"exports/20240305/reorder_recommendations.csv": []byte("old"),
		"exports/20240307/reorder_recommendations.csv": []byte("new"),
	}})

	target := filepath.Join(t.TempDir(), "picked.csv")
	_, err := runWithConfig(t, exportsConfig(), "exports", "get", "--key", "exports/20240305/reorder_recommendations.csv", "-o", target)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestExportsGetWithoutExports(t *testing.T) {
	useStore(t, &memoryStore{objects: map[string][]byte{}})

	_, err := runWithConfig(t, exportsConfig(), "exports", "get", "-o", filepath.Join(t.TempDir(), "none.csv"))
	assert.ErrorIs(t, err, storage.ErrNoExports)
}

func TestExportsListRejectsBadDate(t *testing.T) {
	useStore(t, &memoryStore{objects: map[string][]byte{}})

	_, err := runWithConfig(t, exportsConfig(), "exports", "list", "--date", "07/03/2024")
	assert.Error(t, err)
}
