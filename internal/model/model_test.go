package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("IMPORTANT")
	require.NoError(t, err)
	assert.Equal(t, PriorityImportant, p)

	_, err = ParsePriority("important")
	require.ErrorIs(t, err, ErrBadRequest)
	assert.Contains(t, err.Error(), "[COMMON, URGENT, IMPORTANT]")

	p, err = ParsePriorityFold(" urgent ")
	require.NoError(t, err)
	assert.Equal(t, PriorityUrgent, p)
}

func TestPriorityJSONKeys(t *testing.T) {
	data, err := json.Marshal(map[Priority]int{PriorityCommon: 1, PriorityUrgent: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"COMMON":1,"URGENT":2}`, string(data))

	var decoded map[Priority]int
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 2, decoded[PriorityUrgent])
}

func TestDate(t *testing.T) {
	d := DateOf(time.Date(2026, time.March, 10, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, "2026-03-10", d.String())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.False(t, d.Before(d))

	parsed, err := ParseDate("2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, d, parsed)

	_, err = ParseDate("03/10/2026")
	assert.ErrorIs(t, err, ErrBadRequest)

	var scanned Date
	require.NoError(t, scanned.Scan([]byte("2026-03-10")))
	assert.Equal(t, d, scanned)
	require.NoError(t, scanned.Scan(nil))
	assert.True(t, scanned.IsZero())

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", v)
}

func TestDateJSON(t *testing.T) {
	var spec TaskSpec
	require.NoError(t, json.Unmarshal([]byte(`{"finish_date":"2026-03-10"}`), &spec))
	assert.Equal(t, "2026-03-10", spec.FinishDate.String())

	err := json.Unmarshal([]byte(`{"finish_date":"soon"}`), &spec)
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Errorf(ErrConflict, "tag [%s] already exists", "work"))
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, ErrConflict, KindOf(err))
	assert.Equal(t, "wrapped: tag [work] already exists", err.Error())
	assert.Nil(t, KindOf(errors.New("boom")))
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("root")
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestLoadConfigDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "admin", cfg.Admin.Username)

	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\nlog:\n  level: debug\n"), 0o644))
	t.Setenv("TASKAPP_ADMIN_PASSWORD", "from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("addr", "", "")
	flags.String("db", "", "")
	require.NoError(t, flags.Parse([]string{"--db", "/tmp/x.db"}))

	cfg, err = LoadConfig(path, flags)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/x.db", cfg.Database.DSN)
	assert.Equal(t, "from-env", cfg.Admin.Password)
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Setenv("TASKAPP_DATABASE_DRIVER", "mysql")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"), nil)
	assert.Error(t, err)
}

func TestSaveConfigOmitsPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultAppConfig()
	cfg.Admin.Password = "secret"
	cfg.Server.Addr = ":7070"
	require.NoError(t, SaveConfig(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	loaded, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ":7070", loaded.Server.Addr)
}

func TestValidateTaskID(t *testing.T) {
	for _, id := range []string{"T1", "..x", "a.b", "task-42"} {
		assert.NoError(t, ValidateTaskID(id), id)
	}
	for _, id := range []string{"", " ", ".", "..", "../alice", "a/b", `a\b`, "a\x00b"} {
		assert.ErrorIs(t, ValidateTaskID(id), ErrBadRequest, id)
	}
}
