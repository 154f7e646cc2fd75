package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(func(string) string { return "" }, &out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseGreetings(t *testing.T) {
	entries, err := parseGreetings([]byte("greetings:\n  - phrase: สวัสดี\n    reply: สวัสดีค่ะ\n"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "สวัสดี", entries[0].Phrase)

	_, err = parseGreetings([]byte("greetings:\n  - phrase: สวัสดี\n"))
	require.ErrorContains(t, err, "entry 0")

	_, err = parseGreetings([]byte("greetings: [unterminated"))
	require.Error(t, err)
}

func TestGreetingsLoadAndList(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "bot.db")
	file := filepath.Join(dir, "greetings.yaml")
	require.NoError(t, os.WriteFile(file, []byte(
		"greetings:\n  - phrase: สวัสดี\n    reply: สวัสดีค่ะ\n  - phrase: ขอบคุณ\n    reply: ยินดีค่ะ\n"), 0o644))

	out, err := run(t, "--db", db, "greetings", "load", file)
	require.NoError(t, err)
	require.Contains(t, out, "loaded 2 greetings")

	out, err = run(t, "--db", db, "greetings", "list")
	require.NoError(t, err)
	require.Contains(t, out, "สวัสดี\tสวัสดีค่ะ")
	require.Contains(t, out, "ขอบคุณ\tยินดีค่ะ")
}

func TestAskMenuTurnIsOffline(t *testing.T) {
	db := filepath.Join(t.TempDir(), "bot.db")

	out, err := run(t, "--db", db, "ask", "--user", "u1", "ตัวเลือก")
	require.NoError(t, err)
	require.Contains(t, out, "[โดรน]")

	out, err = run(t, "--db", db, "history", "--user", "u1")
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestHistoryRequiresUser(t *testing.T) {
	_, err := run(t, "--db", filepath.Join(t.TempDir(), "bot.db"), "history")
	require.Error(t, err)
}
