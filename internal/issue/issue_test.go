package issue

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bugreport/internal/commandlog"
	"bugreport/internal/config"
	"bugreport/internal/repository"
	"bugreport/internal/sysinfo"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Plugins.IndexPath = filepath.Join(t.TempDir(), "index.json")
	return cfg
}

func testEnv() sysinfo.Summary {
	return sysinfo.Summary{
		Platform:   "Linux-6.8.0-x86_64",
		GoVersion:  "go1.24.0",
		Shell:      "bash",
		CLIVersion: "avq 2.3.1",
	}
}

func writeLogFile(t *testing.T, name, content string) *commandlog.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	f, err := commandlog.New(path, "avq", time.Now(), nil)
	require.NoError(t, err)
	return f
}

func failedLogFile(t *testing.T) *commandlog.File {
	t.Helper()
	content := "CMD-LOG-LINE-BEGIN 42 | t | INFO | cli.command | command args: storage account create --name {}\n" +
		"CMD-LOG-LINE-BEGIN 42 | t | ERROR | cli.core | ValueError: boom\n" +
		"CMD-LOG-LINE-BEGIN 42 | t | INFO | cli.command | exit code: 1\n"
	return writeLogFile(t, "2025-08-20.11-30-10.storage_account_create.42.log", content)
}

func TestBuildGenericIssue(t *testing.T) {
	cfg := testConfig(t)
	b := NewBuilder(cfg, testEnv(), nil)

	issue, err := b.Build(nil)
	require.NoError(t, err)

	assert.False(t, issue.IsPlugin)
	assert.LessOrEqual(t, len(issue.URL), cfg.Issues.MaxURLLength)
	assert.True(t, strings.HasPrefix(issue.URL, "https://"), issue.URL)
	assert.NotContains(t, issue.URL, "template=Bug_report.md")
	assert.Contains(t, issue.Prefix, cfg.Issues.PrettyURL)
	assert.Contains(t, issue.Body, "This is autogenerated")
	assert.Contains(t, issue.Body, "Linux-6.8.0-x86_64")
}

func TestBuildFailedCommandIssue(t *testing.T) {
	cfg := testConfig(t)
	b := NewBuilder(cfg, testEnv(), nil)

	issue, err := b.Build(failedLogFile(t))
	require.NoError(t, err)

	assert.LessOrEqual(t, len(issue.URL), cfg.Issues.MaxURLLength)
	assert.Contains(t, issue.URL, "template=Bug_report.md")
	assert.Contains(t, issue.Body, "avq storage account create")
	assert.Contains(t, issue.Body, "avq storage account create --name {}")
	assert.Contains(t, issue.Body, "ValueError: boom")
}

func TestBuildMinifiesLongErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Issues.MaxURLLength = 1200
	b := NewBuilder(cfg, testEnv(), nil)

	var sb strings.Builder
	sb.WriteString("CMD-LOG-LINE-BEGIN 42 | t | INFO | cli.command | command args: deploy\n")
	sb.WriteString("CMD-LOG-LINE-BEGIN 42 | t | ERROR | cli.core | Traceback (most recent call last):\n")
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, "  File \"/usr/lib/app/plugins/deploy/stage%d/handler.py\", line %d, in invoke\n", i, i*3)
		sb.WriteString("    return next_handler(request)\n")
	}
	sb.WriteString("ValueError: deployment rejected\n")
	sb.WriteString("CMD-LOG-LINE-BEGIN 42 | t | INFO | cli.command | exit code: 1\n")

	f := writeLogFile(t, "2025-08-20.11-40-00.deploy.42.log", sb.String())

	issue, err := b.Build(f)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(issue.URL), cfg.Issues.MaxURLLength)
	// the full body keeps every frame even when the URL cannot
	assert.Contains(t, issue.Body, "stage39")
}

func TestBuildPluginIssueRoutesToIndexedRepo(t *testing.T) {
	cfg := testConfig(t)

	idx, err := repository.OpenIndex(cfg.Plugins.IndexPath)
	require.NoError(t, err)
	name := "storage-preview"
	repoURL := "https://github.com/example/storage-preview/"
	_, err = idx.Upsert(repository.UpsertRequest{
		Properties: &repository.UpsertRequestProperties{Name: &name},
		URL:        &repoURL,
	})
	require.NoError(t, err)
	require.NoError(t, idx.Save())

	content := "CMD-LOG-LINE-BEGIN 42 | t | INFO | cli.command | command args: storage upload\n" +
		"CMD-LOG-LINE-BEGIN 42 | t | INFO | cli.command | extension name: storage-preview\n" +
		"CMD-LOG-LINE-BEGIN 42 | t | INFO | cli.command | extension version: 0.1.0\n" +
		"CMD-LOG-LINE-BEGIN 42 | t | ERROR | cli.core | upload failed\n" +
		"CMD-LOG-LINE-BEGIN 42 | t | INFO | cli.command | exit code: 1\n"
	f := writeLogFile(t, "2025-08-20.11-50-00.storage_upload.42.log", content)

	b := NewBuilder(cfg, testEnv(), nil)
	issue, err := b.Build(f)
	require.NoError(t, err)

	assert.True(t, issue.IsPlugin)
	assert.Contains(t, issue.Prefix, "https://github.com/example/storage-preview/issues/new")
	assert.Contains(t, issue.URL, "github.com/example/storage-preview/issues/new?")
	assert.Contains(t, issue.Body, "Plugin Name: storage-preview. Version: 0.1.0.")
}

func TestBuildPluginIssueFallsBackToSharedRepo(t *testing.T) {
	cfg := testConfig(t)

	content := "CMD-LOG-LINE-BEGIN 42 | t | INFO | cli.command | command args: storage upload\n" +
		"CMD-LOG-LINE-BEGIN 42 | t | INFO | cli.command | extension name: unindexed-plugin\n" +
		"CMD-LOG-LINE-BEGIN 42 | t | INFO | cli.command | exit code: 0\n"
	f := writeLogFile(t, "2025-08-20.11-55-00.storage_upload.42.log", content)

	b := NewBuilder(cfg, testEnv(), nil)
	issue, err := b.Build(f)
	require.NoError(t, err)

	assert.True(t, issue.IsPlugin)
	assert.Contains(t, issue.Prefix, cfg.Plugins.PrettyURL)
	assert.NotContains(t, issue.URL, "template=Bug_report.md")
}
