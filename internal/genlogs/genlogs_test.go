package genlogs

import (
	"bufio"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logpipe/internal/parser"
)

func TestGenerateProducesParseableFiles(t *testing.T) {
	dir := t.TempDir()
	logger := log.New(io.Discard, "", 0)

	opts := Options{Directory: dir, Files: 2, LinesPerFile: 200, Seed: 42}
	require.NoError(t, Generate(opts, logger))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "logs_0000.log", entries[0].Name())
	assert.Equal(t, "logs_0001.log", entries[1].Name())

	types := map[string]int{}
	for _, entry := range entries {
		f, err := os.Open(filepath.Join(dir, entry.Name()))
		require.NoError(t, err)

		lines := 0
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			rec := parser.Parse(scanner.Text())
			require.NotNil(t, rec, "generated line must parse: %q", scanner.Text())
			types[rec.LogType]++
			lines++
		}
		require.NoError(t, scanner.Err())
		f.Close()
		assert.Equal(t, 200, lines)
	}

	// The firewall-heavy split should yield all three formats.
	assert.Positive(t, types[parser.TypeFirewall])
	assert.Positive(t, types[parser.TypeDNS])
	assert.Positive(t, types[parser.TypeAuth])
}

func TestGenerateIsDeterministicForSeed(t *testing.T) {
	logger := log.New(io.Discard, "", 0)

	dirA, dirB := t.TempDir(), t.TempDir()
	require.NoError(t, Generate(Options{Directory: dirA, Files: 1, LinesPerFile: 50, Seed: 7}, logger))
	require.NoError(t, Generate(Options{Directory: dirB, Files: 1, LinesPerFile: 50, Seed: 7}, logger))

	a, err := os.ReadFile(filepath.Join(dirA, "logs_0000.log"))
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(dirB, "logs_0000.log"))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
