package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagCmd() *cobra.Command {
	c := &cobra.Command{Use: "test"}
	c.Flags().Bool("admin", false, "")
	c.Flags().String("db", "", "")
	c.Flags().String("db-driver", "", "")
	return c
}

func TestResolveAdmin(t *testing.T) {
	c := newFlagCmd()
	t.Setenv("COURSEGATE_ADMIN", "")
	assert.False(t, resolveAdmin(c))

	t.Setenv("COURSEGATE_ADMIN", "true")
	assert.True(t, resolveAdmin(c))

	t.Setenv("COURSEGATE_ADMIN", "")
	require.NoError(t, c.Flags().Set("admin", "true"))
	assert.True(t, resolveAdmin(c))
}

func TestResolveDSN(t *testing.T) {
	c := newFlagCmd()
	t.Setenv("COURSEGATE_DB", "")

	_, err := resolveDSN(c, "postgres")
	assert.Error(t, err, "postgres without a DSN")

	path := filepath.Join(t.TempDir(), "nested", "gate.db")
	require.NoError(t, c.Flags().Set("db", path))
	dsn, err := resolveDSN(c, "sqlite")
	require.NoError(t, err)
	assert.Equal(t, path, dsn)
	assert.DirExists(t, filepath.Dir(path))
}

func TestLoadCourseFromHTML(t *testing.T) {
	page := `<html><head><title>Safety 101</title></head><body>
<div class="section" id="d1-intro"><h2>Intro</h2><p>Read this first.</p></div>
<div class="quiz-container" id="quiz-1"></div>
</body></html>`
	path := filepath.Join(t.TempDir(), "safety-101.html")
	require.NoError(t, os.WriteFile(path, []byte(page), 0o644))

	m, err := loadCourse(path)
	require.NoError(t, err)
	assert.Equal(t, "safety-101", m.Course)
	assert.Equal(t, "Safety 101", m.Title)
	require.Len(t, m.Days, 1)
	assert.Equal(t, "d1-intro", m.Days[0].Sections[0].ID)
}

func TestLoadCourseRejectsDuplicateSections(t *testing.T) {
	page := `<html><body>
<div class="section" id="d1-intro"><p>One.</p></div>
<div class="fade-in" id="d1-intro"><p>Two.</p></div>
</body></html>`
	path := filepath.Join(t.TempDir(), "dupes.html")
	require.NoError(t, os.WriteFile(path, []byte(page), 0o644))

	_, err := loadCourse(path)
	assert.ErrorContains(t, err, "duplicate section id")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Introduct…", truncate("Introduction to safety", 10))
}
