package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyhub/pkg/queue"
)

func TestGetExitCode(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", base, ExitFailure},
		{"exit error", NewExitError(ExitCommandError, "bad flags"), ExitCommandError},
		{"wrapped exit error", fmt.Errorf("run: %w", WrapExitError(ExitFailure, "jobs failed", base)), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestExitErrorMessage(t *testing.T) {
	t.Parallel()

	base := errors.New("dial tcp: refused")
	err := WrapExitError(ExitCommandError, "failed to connect to postgres", base)
	assert.Equal(t, "failed to connect to postgres: dial tcp: refused", err.Error())
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "bad flags", NewExitError(ExitCommandError, "bad flags").Error())
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printSummary(&buf, queue.Summary{Checked: 4, Sent: 2, Skipped: 1, Failed: 1})
	assert.Equal(t, "Checked: 4\nSent: 2\nSkipped: 1\nFailed: 1\n", buf.String())

	buf.Reset()
	printSummary(&buf, queue.Summary{Checked: 3, Requeued: 3})
	assert.Contains(t, buf.String(), "Requeued: 3\n")
}

func TestCommandFlagValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"emit without type", []string{"emit", "--user", "1"}, "--type and --title are required"},
		{"emit without recipients", []string{"emit", "--type", "system", "--title", "Hi"}, "one of --user, --admins or --subscribed is required"},
		{"recipient without email", []string{"recipient", "upsert", "--user", "1"}, "--user and --email are required"},
		{"login hook without user", []string{"hook", "login", "--ip", "10.0.0.1"}, "--user is required"},
		{"audit hook without action", []string{"hook", "audit", "--entity-id", "3"}, "--action is required"},
		{"audit hook with bad meta", []string{"hook", "audit", "--action", "user.create", "--meta", "role"}, "invalid --meta"},
		{"worker with zero limit", []string{"worker", "email", "--limit", "0"}, "--limit must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRootCommand()
			cmd.SetArgs(tt.args)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})

			err := cmd.Execute()
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestVAPIDGenerate(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"vapid", "generate"})

	require.NoError(t, cmd.Execute())
	assert.Regexp(t, `^VAPID_PUBLIC_KEY=\S+\nVAPID_PRIVATE_KEY=\S+\n$`, out.String())
}

func TestParseMeta(t *testing.T) {
	t.Parallel()

	got, err := parseMeta([]string{"role=admin", "team=7", "note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"role": "admin", "team": int64(7), "note": "a=b"}, got)

	got, err = parseMeta(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseMeta([]string{"=x"})
	assert.Error(t, err)
}
