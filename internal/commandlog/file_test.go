package commandlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const failedRunContent = `CMD-LOG-LINE-BEGIN 1234 | 1755689410.123456 | INFO | cli.command | command args: storage account create --name {}
CMD-LOG-LINE-BEGIN 1234 | 1755689410.223456 | INFO | cli.command | extension name: storage-preview
CMD-LOG-LINE-BEGIN 1234 | 1755689410.323456 | INFO | cli.command | extension version: 0.1.0
CMD-LOG-LINE-BEGIN 1234 | 1755689411.123456 | ERROR | cli.core | Traceback (most recent call last):
  File "/usr/lib/app/module.py", line 10, in run
    raise ValueError("boom")
CMD-LOG-LINE-BEGIN 1234 | 1755689412.123456 | INFO | cli.command | exit code: 1
`

// writeLogFixture drops a command log file with the given name into dir.
func writeLogFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func fixtureNow() time.Time {
	// 2m5s after the fixture's file-name timestamp
	return time.Date(2025, 8, 20, 11, 32, 15, 0, time.Local)
}

func TestFileMetadata(t *testing.T) {
	dir := t.TempDir()
	path := writeLogFixture(t, dir, "2025-08-20.11-30-10.storage_account_create.1234.log", failedRunContent)

	f, err := New(path, "avq", fixtureNow(), nil)
	require.NoError(t, err)

	meta := f.Metadata()
	assert.Equal(t, "avq storage account create", meta.Command)
	assert.Equal(t, 1234, meta.PID)
	assert.Equal(t, path, meta.Path)
	assert.InDelta(t, 125.0, meta.SecondsAgo, 0.001)
}

func TestFileMetadataRejectsBadNames(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{
		"not-a-command-log.log",
		"2025-08-20.11-30-10.storage.log",             // too few segments
		"2025-99-99.11-30-10.storage.1234.log",        // bad date
		"2025-08-20.11-30-10.storage.notanumber.log",  // bad pid
	} {
		t.Run(name, func(t *testing.T) {
			path := writeLogFixture(t, dir, name, failedRunContent)
			_, err := New(path, "avq", fixtureNow(), nil)
			assert.Error(t, err)
		})
	}
}

func TestFileData(t *testing.T) {
	dir := t.TempDir()
	path := writeLogFixture(t, dir, "2025-08-20.11-30-10.storage_account_create.1234.log", failedRunContent)

	f, err := New(path, "avq", fixtureNow(), nil)
	require.NoError(t, err)
	data := f.Data()

	require.NotNil(t, data.Success)
	assert.False(t, *data.Success)
	assert.Equal(t, "storage account create --name {}", data.CommandArgs)
	assert.Equal(t, "storage-preview", data.ExtensionName)
	assert.Equal(t, "0.1.0", data.ExtensionVersion)

	require.Len(t, data.Errors, 1)
	assert.Contains(t, data.Errors[0], "Traceback (most recent call last):")
	assert.Contains(t, data.Errors[0], `File "/usr/lib/app/module.py", line 10, in run`)
	assert.Contains(t, data.Errors[0], `raise ValueError("boom")`)
}

func TestFileStatus(t *testing.T) {
	dir := t.TempDir()

	t.Run("failure", func(t *testing.T) {
		path := writeLogFixture(t, dir, "2025-08-20.11-30-10.storage_account_create.1234.log", failedRunContent)
		f, err := New(path, "avq", fixtureNow(), nil)
		require.NoError(t, err)
		assert.Equal(t, "FAILURE", f.Status())
		assert.True(t, f.Failed())
	})

	t.Run("success", func(t *testing.T) {
		content := "CMD-LOG-LINE-BEGIN 55 | t | INFO | cli.command | command args: login\n" +
			"CMD-LOG-LINE-BEGIN 55 | t | INFO | cli.command | exit code: 0\n"
		path := writeLogFixture(t, dir, "2025-08-20.11-31-00.login.55.log", content)
		f, err := New(path, "avq", fixtureNow(), nil)
		require.NoError(t, err)
		assert.Equal(t, "SUCCESS", f.Status())
		assert.False(t, f.Failed())
	})

	t.Run("running when no exit record", func(t *testing.T) {
		content := "CMD-LOG-LINE-BEGIN 56 | t | INFO | cli.command | command args: deploy\n"
		path := writeLogFixture(t, dir, "2025-08-20.11-31-30.deploy.56.log", content)
		f, err := New(path, "avq", fixtureNow(), nil)
		require.NoError(t, err)
		assert.Equal(t, "RUNNING", f.Status())
		assert.False(t, f.Failed())
	})

	t.Run("running when records carry no recognized fields", func(t *testing.T) {
		content := "CMD-LOG-LINE-BEGIN 58 | t | INFO | cli.core | starting deployment\n"
		path := writeLogFixture(t, dir, "2025-08-20.11-31-45.deploy.58.log", content)
		f, err := New(path, "avq", fixtureNow(), nil)
		require.NoError(t, err)
		assert.Equal(t, "RUNNING", f.Status())
	})

	t.Run("empty when no records", func(t *testing.T) {
		path := writeLogFixture(t, dir, "2025-08-20.11-32-00.empty.57.log", "nothing structured here\n")
		f, err := New(path, "avq", fixtureNow(), nil)
		require.NoError(t, err)
		assert.Equal(t, "", f.Status())
	})
}

func TestFileCommandName(t *testing.T) {
	dir := t.TempDir()

	t.Run("known command", func(t *testing.T) {
		path := writeLogFixture(t, dir, "2025-08-20.11-30-10.storage_account_create.1234.log", failedRunContent)
		f, err := New(path, "avq", fixtureNow(), nil)
		require.NoError(t, err)
		assert.Equal(t, "avq storage account create", f.CommandName())
	})

	t.Run("help invocation gets a suffix", func(t *testing.T) {
		content := "CMD-LOG-LINE-BEGIN 60 | t | INFO | cli.command | command args: storage --help\n" +
			"CMD-LOG-LINE-BEGIN 60 | t | INFO | cli.command | exit code: 0\n"
		path := writeLogFixture(t, dir, "2025-08-20.11-33-00.storage.60.log", content)
		f, err := New(path, "avq", fixtureNow(), nil)
		require.NoError(t, err)
		assert.Equal(t, "avq storage --help", f.CommandName())
	})

	t.Run("unknown command summarizes args", func(t *testing.T) {
		content := "CMD-LOG-LINE-BEGIN 61 | t | INFO | cli.command | command args: storage acount crate --name {}\n" +
			"CMD-LOG-LINE-BEGIN 61 | t | INFO | cli.command | exit code: 2\n"
		path := writeLogFixture(t, dir, "2025-08-20.11-34-00.unknown_command.61.log", content)
		f, err := New(path, "avq", fixtureNow(), nil)
		require.NoError(t, err)
		// 16+ chars: keep the first 11 and elide, strip redaction braces
		assert.Equal(t, "Unknown (storage aco ...) ", f.CommandName())
	})

	t.Run("unknown command without args", func(t *testing.T) {
		path := writeLogFixture(t, dir, "2025-08-20.11-35-00.unknown_command.62.log", "no records\n")
		f, err := New(path, "avq", fixtureNow(), nil)
		require.NoError(t, err)
		assert.Equal(t, "Unknown", f.CommandName())
	})
}

func TestFileTimeString(t *testing.T) {
	dir := t.TempDir()
	content := "CMD-LOG-LINE-BEGIN 70 | t | INFO | cli.command | exit code: 0\n"

	cases := []struct {
		name string
		now  time.Time
		want string
	}{
		{"seconds", time.Date(2025, 8, 20, 11, 30, 40, 0, time.Local), "Ran: 30 secs ago"},
		{"minutes", time.Date(2025, 8, 20, 11, 35, 20, 0, time.Local), "Ran: 5 mins ago"},
		{"hours", time.Date(2025, 8, 20, 14, 33, 10, 0, time.Local), "Ran: 3 hrs 03 mins ago"},
		{"days", time.Date(2025, 8, 23, 11, 30, 10, 0, time.Local), "Ran: 3 days ago"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeLogFixture(t, dir, "2025-08-20.11-30-10.login."+tc.name+"70.log", content)
			// file name pid segment must stay numeric
			path2 := filepath.Join(dir, "2025-08-20.11-30-10.login.70.log")
			require.NoError(t, os.Rename(path, path2))
			f, err := New(path2, "avq", tc.now, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, f.TimeString())
			require.NoError(t, os.Remove(path2))
		})
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()

	writeLogFixture(t, dir, "2025-08-20.11-30-10.storage_account_create.1234.log", failedRunContent)
	writeLogFixture(t, dir, "2025-08-20.11-31-00.login.55.log",
		"CMD-LOG-LINE-BEGIN 55 | t | INFO | cli.command | exit code: 0\n")
	writeLogFixture(t, dir, "garbage.log", "not a command log\n")
	writeLogFixture(t, dir, "notes.txt", "ignored entirely\n")

	files, err := List(dir, "avq", fixtureNow(), nil)
	require.NoError(t, err)
	require.Len(t, files, 2)

	// sorted by file name, oldest first
	assert.Equal(t, "avq storage account create", files[0].Metadata().Command)
	assert.Equal(t, "avq login", files[1].Metadata().Command)
}

func TestListMissingDir(t *testing.T) {
	_, err := List(filepath.Join(t.TempDir(), "nope"), "avq", fixtureNow(), nil)
	assert.Error(t, err)
}
