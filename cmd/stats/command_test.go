package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/statsbot/internal/database"
)

func seedDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.db")
	db, err := database.NewDB(path, 1)
	require.NoError(t, err)
	defer database.CloseDB(db)

	ctx := context.Background()
	store := database.NewStore(db, nil)
	require.NoError(t, store.SaveUserNames(ctx, []database.UserNameUpdate{
		{UserID: 1, Username: "@alice", DisplayName: "Alice", NewIdentity: true},
	}))
	alice := int64(1)
	for i := range 3 {
		text := "hello"
		require.NoError(t, store.SaveMessage(ctx, &database.Message{
			MessageID: int64(i + 1), Date: 1717243200 + int64(i)*3600, FromUser: &alice, Text: &text, Type: "text",
		}))
	}
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := newRootCommand(&stdout, &stderr).run(context.Background(), args)
	return code, stdout.String(), stderr.String()
}

func TestCLIPrintsTable(t *testing.T) {
	t.Parallel()

	code, out, errOut := runCLI(t, "--db", seedDB(t), "counts", "-n", "5")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "@alice")
}

func TestCLIWritesChart(t *testing.T) {
	t.Parallel()

	png := filepath.Join(t.TempDir(), "hours.png")
	code, out, errOut := runCLI(t, "--db", seedDB(t), "--out", png, "--caller", "1", "hours", "-me")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, png)

	raw, err := os.ReadFile(png)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("\x89PNG")))
}

func TestCLIUsageAndErrors(t *testing.T) {
	t.Parallel()

	db := seedDB(t)

	code, _, errOut := runCLI(t, "--db", db, "counts", "-n", "0")
	assert.Equal(t, exitUsage, code)
	assert.NotEmpty(t, errOut)

	code, _, _ = runCLI(t, "--db", db, "--tz", "Nowhere/Land", "counts")
	assert.Equal(t, exitUsage, code)

	code, _, errOut = runCLI(t, "--db", filepath.Join(t.TempDir(), "missing.db"), "counts")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "cannot open database")

	code, _, _ = runCLI(t, "--db", db)
	assert.Equal(t, exitError, code)
}
