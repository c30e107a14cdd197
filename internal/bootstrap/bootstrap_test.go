package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNew_WithDatabase(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yml")
	writeFile(t, cfgPath, "database:\n  type: sqlite\n  path: "+filepath.Join(dir, "db", "review.db")+"\nlog:\n  level: warn\n")

	env, err := New(cfgPath)
	require.NoError(t, err)
	defer env.Close()

	assert.NotNil(t, env.repo)
	assert.FileExists(t, filepath.Join(dir, "db", "review.db"))
}

func TestNew_WithoutDatabase(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yml")
	writeFile(t, cfgPath, "database:\n  type: none\n")

	env, err := New(cfgPath)
	require.NoError(t, err)
	defer env.Close()

	assert.Nil(t, env.repo)
	assert.NotNil(t, env.Reviewer)
}

func TestNew_Errors(t *testing.T) {
	dir := t.TempDir()

	badLevel := filepath.Join(dir, "level.yml")
	writeFile(t, badLevel, "log:\n  level: loud\n")
	_, err := New(badLevel)
	assert.Error(t, err)

	badRules := filepath.Join(dir, "rules.yml")
	writeFile(t, badRules, "rules:\n  path: "+filepath.Join(dir, "missing-rules.yml")+"\ndatabase:\n  type: none\n")
	_, err = New(badRules)
	assert.Error(t, err)
}

func TestNew_Auth(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REVIEW_SECRET", "from-env")

	cfgPath := filepath.Join(dir, "config.yml")
	writeFile(t, cfgPath, "database:\n  type: none\nauth:\n  secret: ${REVIEW_SECRET}\n  reviewers:\n    - name: alice\n      password_hash: x\n")

	env, err := New(cfgPath)
	require.NoError(t, err)
	defer env.Close()
	assert.NotNil(t, env.Auth)

	noAuth := filepath.Join(dir, "open.yml")
	writeFile(t, noAuth, "database:\n  type: none\n")
	env2, err := New(noAuth)
	require.NoError(t, err)
	defer env2.Close()
	assert.Nil(t, env2.Auth)
}

func TestNew_AuthBadTTL(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yml")
	writeFile(t, cfgPath, "database:\n  type: none\nauth:\n  secret: s\n  token_ttl: -1h\n")

	_, err := New(cfgPath)
	assert.Error(t, err)
}
