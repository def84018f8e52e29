package report

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharphuman/hr-passive-cv/internal/sourcing"
)

func testReport() *Report {
	return &Report{
		Role:     "Backend Engineer",
		MinScore: 10,
		Items: []*sourcing.Candidate{
			{
				Name:    "Alice",
				Link:    "https://www.linkedin.com/in/alice",
				Snippet: "Go developer",
				AI:      &sourcing.AIAssessment{Score: 90, Reason: "strong", Flag: "Strong Match"},
			},
			{
				Name: "Bob",
				Link: "https://github.com/bob",
				AI:   &sourcing.AIAssessment{Score: 40, Reason: "partial"},
			},
		},
	}
}

func TestSaveReportReturnsLocator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	job := &sourcing.JobRequest{Description: "job", Location: "Berlin", WorkStyle: "remote"}
	locator, err := store.SaveReport(context.Background(), testReport(), job)
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("sqlite:%s#run/1", path), locator)
}

func TestSaveReportPersistsCandidatesInRankOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.SaveReport(context.Background(), testReport(), nil)
	require.NoError(t, err)

	rows, err := store.db.Query(
		`SELECT position, name, score FROM run_candidates WHERE run_id = 1 ORDER BY position`)
	require.NoError(t, err)
	defer rows.Close()

	type row struct {
		position int
		name     string
		score    int
	}
	var got []row
	for rows.Next() {
		var r row
		require.NoError(t, rows.Scan(&r.position, &r.name, &r.score))
		got = append(got, r)
	}
	require.NoError(t, rows.Err())

	require.Len(t, got, 2)
	assert.Equal(t, row{1, "Alice", 90}, got[0])
	assert.Equal(t, row{2, "Bob", 40}, got[1])
}

func TestSaveReportIncrementsRunID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	first, err := store.SaveReport(context.Background(), testReport(), nil)
	require.NoError(t, err)
	second, err := store.SaveReport(context.Background(), testReport(), nil)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Contains(t, second, "#run/2")
}

func TestSaveReportRejectsEmptyReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.SaveReport(context.Background(), &Report{Role: "Engineer"}, nil)
	assert.Error(t, err)
}

func TestNewStoreCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "archive.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.SaveReport(context.Background(), testReport(), nil)
	assert.NoError(t, err)
}

func TestStoreReopensExistingArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")

	store, err := NewStore(path)
	require.NoError(t, err)
	_, err = store.SaveReport(context.Background(), testReport(), nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	locator, err := reopened.SaveReport(context.Background(), testReport(), nil)
	require.NoError(t, err)
	assert.Contains(t, locator, "#run/2")
}
