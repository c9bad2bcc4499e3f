package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"gdpr-quiz-service/internal/app"
	"gdpr-quiz-service/internal/config"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	for _, key := range []string{"REDIS_ADDR", "POSTGRES_URL", "PORT", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	t.Setenv("LEADERBOARD_STORAGE", "memory")
	return filepath.Join(t.TempDir(), "missing.yaml")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestScoreCommand(t *testing.T) {
	cfgPath := isolateEnv(t)

	out, err := run(t, "score", "--config", cfgPath, "--correct", "5", "--total", "5", "--elapsed", "50", "--difficulty", "hard")
	require.NoError(t, err)
	assert.Equal(t, "180 Expert\n", out)

	out, err = run(t, "score", "--config", cfgPath, "--correct", "2", "--total", "5", "--elapsed", "200", "--difficulty", "easy")
	require.NoError(t, err)
	assert.Equal(t, "40 Beginner\n", out)

	_, err = run(t, "score", "--config", cfgPath, "--correct", "1", "--total", "0")
	require.Error(t, err)
}

// useRedis points the commands at a throwaway Redis for leaderboard storage.
func useRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_ADDR", mr.Addr())
	t.Setenv("LEADERBOARD_STORAGE", "redis")
	return mr
}

func TestSeedCommandPersistsBothBoards(t *testing.T) {
	cfgPath := isolateEnv(t)
	mr := useRedis(t)

	out, err := run(t, "seed", "--config", cfgPath, "--regional", "3", "--global", "5", "--seed", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "REGIONAL (all)")
	assert.Contains(t, out, "GLOBAL (all)")
	// 2 headers + 3 regional + 5 global rows
	assert.Equal(t, 10, strings.Count(out, "\n")-4)
	assert.True(t, mr.Exists("gdpr_leaderboard"))

	out, err = run(t, "standings", "--config", cfgPath, "--json")
	require.NoError(t, err)
	var standings app.Standings
	require.NoError(t, json.Unmarshal([]byte(out), &standings))
	assert.Len(t, standings.Regional, 3)
	assert.Len(t, standings.Global, 5)
}

func TestWriteCommandsRefuseMemoryStorage(t *testing.T) {
	cfgPath := isolateEnv(t)

	for _, args := range [][]string{
		{"seed", "--config", cfgPath, "--regional", "3", "--global", "5"},
		{"reset", "--config", cfgPath},
	} {
		out, err := run(t, args...)
		require.ErrorContains(t, err, "leaderboard storage is memory", "%v", args)
		assert.NotContains(t, out, "leaderboards cleared")
	}
}

func TestStandingsCommand(t *testing.T) {
	cfgPath := isolateEnv(t)

	out, err := run(t, "standings", "--config", cfgPath, "--json")
	require.NoError(t, err)
	var standings app.Standings
	require.NoError(t, json.Unmarshal([]byte(out), &standings))
	assert.Equal(t, "all", standings.Difficulty)
	assert.Empty(t, standings.Global)

	_, err = run(t, "standings", "--config", cfgPath, "--difficulty", "legendary")
	require.Error(t, err)
}

func TestResetCommand(t *testing.T) {
	cfgPath := isolateEnv(t)
	useRedis(t)

	_, err := run(t, "seed", "--config", cfgPath, "--regional", "2", "--global", "2", "--seed", "1")
	require.NoError(t, err)

	out, err := run(t, "reset", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "leaderboards cleared\n", out)

	out, err = run(t, "standings", "--config", cfgPath, "--json")
	require.NoError(t, err)
	var standings app.Standings
	require.NoError(t, json.Unmarshal([]byte(out), &standings))
	assert.Empty(t, standings.Regional)
	assert.Empty(t, standings.Global)
}

func TestMigrateNeedsPostgres(t *testing.T) {
	cfgPath := isolateEnv(t)

	_, err := run(t, "migrate", "--config", cfgPath)
	require.ErrorContains(t, err, "postgres url not configured")
}

func TestNewLogger(t *testing.T) {
	cfg := config.Default()
	var buf bytes.Buffer

	cfg.Log.Format = "text"
	cfg.Log.Level = "warn"
	logger := newLogger(cfg, &buf)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")

	buf.Reset()
	cfg.Log.Format = "json"
	cfg.Log.Level = "nonsense"
	newLogger(cfg, &buf).Info("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}
