package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/janitor/internal/models"
)

func outcome(source, status string, finished time.Time) models.Outcome {
	return models.Outcome{
		ID:       source + "-" + status,
		Source:   source,
		Root:     "/in",
		Action:   models.ActionMove,
		Status:   status,
		Started:  finished.Add(-time.Second),
		Finished: finished,
	}
}

func TestOpen_CreatesFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "journal.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	assert.FileExists(t, path)
	assert.Equal(t, path, store.Path())
	assert.NotEmpty(t, store.RunID)

	// Reopening an existing database keeps the schema usable.
	require.NoError(t, store.Close())
	store, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(context.Background(), outcome("/in/a.txt", models.StatusSuccess, time.Now())))
}

func TestRecordAndRecent(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	full := models.Outcome{
		ID:               "full",
		Source:           "/in/a.txt",
		Root:             "/in",
		Bucket:           "docs",
		Destination:      "/docs/a.txt",
		Action:           models.ActionCopy,
		Status:           models.StatusSuccess,
		AlreadySatisfied: true,
		Started:          base,
		Finished:         base.Add(3 * time.Second),
	}
	require.NoError(t, store.Record(ctx, full))
	require.NoError(t, store.Record(ctx, outcome("/in/b.bin", models.StatusSkipped, base.Add(time.Minute))))
	require.NoError(t, store.Record(ctx, outcome("/in/c.iso", models.StatusFailed, base.Add(2*time.Minute))))

	all, err := store.Recent(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "/in/c.iso", all[0].Source, "most recent first")

	got := all[2]
	assert.Equal(t, full.Bucket, got.Bucket)
	assert.Equal(t, full.Destination, got.Destination)
	assert.Equal(t, models.ActionCopy, got.Action)
	assert.True(t, got.AlreadySatisfied)
	assert.True(t, got.Started.Equal(full.Started))
	assert.Equal(t, 3*time.Second, got.Duration())

	failed, err := store.Recent(ctx, Query{Status: models.StatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "/in/c.iso", failed[0].Source)

	limited, err := store.Recent(ctx, Query{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	mine, err := store.Recent(ctx, Query{RunID: store.RunID})
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	others, err := store.Recent(ctx, Query{RunID: "another-run"})
	require.NoError(t, err)
	assert.Empty(t, others)

	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		models.StatusSuccess: 1,
		models.StatusSkipped: 1,
		models.StatusFailed:  1,
	}, counts)
}

func TestRecord_UnmatchedOutcome(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	o := models.Outcome{Source: "/in/x", Status: models.StatusSkipped, Reason: "no matching bucket"}
	require.NoError(t, store.Record(context.Background(), o))

	got, err := store.Recent(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
	assert.Equal(t, models.ActionNone, got[0].Action)
	assert.True(t, got[0].Finished.IsZero())
	assert.Equal(t, "no matching bucket", got[0].Reason)
}

func TestReport_PassesErrorsToHandler(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)

	var reported []error
	store.OnError = func(err error) { reported = append(reported, err) }

	o := outcome("/in/a.txt", models.StatusSuccess, time.Now())
	store.Report(o)
	assert.Empty(t, reported)

	// Same ID twice violates the primary key.
	store.Report(o)
	require.Len(t, reported, 1)

	require.NoError(t, store.Close())
	store.Report(outcome("/in/b.txt", models.StatusSuccess, time.Now()))
	require.Len(t, reported, 2)
	assert.Contains(t, reported[1].Error(), "insert outcome")
}
