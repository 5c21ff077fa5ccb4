package commandlog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecordLine(t *testing.T) {
	t.Run("well-formed line", func(t *testing.T) {
		line := "CMD-LOG-LINE-BEGIN 1234 | 1755689410.123456 | INFO | cli.command | command args: storage create --name {}\n"

		rec, ok := ParseRecordLine(line, 1234)
		require.True(t, ok)
		assert.Equal(t, 1234, rec.PID)
		assert.Equal(t, "1755689410.123456", rec.Created)
		assert.Equal(t, "INFO", rec.Level)
		assert.Equal(t, "cli.command", rec.Logger)
		assert.Equal(t, "command args: storage create --name {}\n", rec.Message)
	})

	t.Run("message keeps trailing newline", func(t *testing.T) {
		rec, ok := ParseRecordLine("CMD-LOG-LINE-BEGIN 7 | t | ERROR | log | boom", 7)
		require.True(t, ok)
		assert.Equal(t, "boom\n", rec.Message)
	})

	t.Run("missing prefix is a continuation", func(t *testing.T) {
		_, ok := ParseRecordLine("1234 | t | INFO | log | msg", 1234)
		assert.False(t, ok)
	})

	t.Run("wrong pid is rejected", func(t *testing.T) {
		_, ok := ParseRecordLine("CMD-LOG-LINE-BEGIN 99 | t | INFO | log | msg", 1234)
		assert.False(t, ok)
	})

	t.Run("non-numeric pid is rejected", func(t *testing.T) {
		_, ok := ParseRecordLine("CMD-LOG-LINE-BEGIN abc | t | INFO | log | msg", 1234)
		assert.False(t, ok)
	})

	t.Run("too few fields is rejected", func(t *testing.T) {
		_, ok := ParseRecordLine("CMD-LOG-LINE-BEGIN 1234 | t | INFO | msg", 1234)
		assert.False(t, ok)
	})

	t.Run("pipes in the message stay in the message", func(t *testing.T) {
		rec, ok := ParseRecordLine("CMD-LOG-LINE-BEGIN 1 | t | INFO | log | a | b | c", 1)
		require.True(t, ok)
		assert.Equal(t, "a | b | c\n", rec.Message)
	})
}

func TestParseRecords(t *testing.T) {
	t.Run("continuation lines fold into the previous record", func(t *testing.T) {
		lines := []string{
			"CMD-LOG-LINE-BEGIN 1 | t1 | ERROR | log | first line\n",
			"second line\n",
			"third line\n",
			"CMD-LOG-LINE-BEGIN 1 | t2 | INFO | log | exit code: 1\n",
		}

		got := parseRecords(lines, 1)
		want := []Record{
			{PID: 1, Created: "t1", Level: "ERROR", Logger: "log", Message: "first line\nsecond line\nthird line\n"},
			{PID: 1, Created: "t2", Level: "INFO", Logger: "log", Message: "exit code: 1\n"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("leading continuation without a record is dropped", func(t *testing.T) {
		lines := []string{
			"stray line\n",
			"CMD-LOG-LINE-BEGIN 1 | t | INFO | log | only\n",
		}
		got := parseRecords(lines, 1)
		require.Len(t, got, 1)
		assert.Equal(t, "only\n", got[0].Message)
	})

	t.Run("foreign pid lines become continuations", func(t *testing.T) {
		lines := []string{
			"CMD-LOG-LINE-BEGIN 1 | t | INFO | log | mine\n",
			"CMD-LOG-LINE-BEGIN 2 | t | INFO | log | not mine\n",
		}
		got := parseRecords(lines, 1)
		require.Len(t, got, 1)
		assert.Contains(t, got[0].Message, "not mine")
	})
}
