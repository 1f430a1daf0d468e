package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/intern-hub/progress-ledger/internal/infrastructure/persistence/postgres"
	"github.com/intern-hub/progress-ledger/pkg/retry"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestHashKeyCommand(t *testing.T) {
	out, err := runCLI(t, "hash-key", "s3cret")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("other")))
}

func TestHashKeyCommand_RequiresKey(t *testing.T) {
	_, err := runCLI(t, "hash-key")
	require.Error(t, err)
}

func TestRecomputeCommand_RequiresExactlyOneTarget(t *testing.T) {
	_, err := runCLI(t, "recompute")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one")
}

func TestMigrateCommand_RejectsUnknownAction(t *testing.T) {
	_, err := runCLI(t, "migrate", "sideways")
	require.Error(t, err)
}

func TestConnectAttempt_BadURLIsNotRetried(t *testing.T) {
	retries := 0
	retrier := retry.StartupRetrier(func(int, error, time.Duration) { retries++ })

	_, err := retry.DoWithData(context.Background(), retrier, func(ctx context.Context) (*postgres.Connection, error) {
		return connectAttempt(ctx, postgres.Config{URL: "host=localhost port=notanumber"})
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, postgres.ErrInvalidDatabaseURL)
	assert.Zero(t, retries)
}
