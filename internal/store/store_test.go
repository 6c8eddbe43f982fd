package store

import (
	"context"
	"image"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/omr-grader/internal/config"
	"github.com/ironsheep/omr-grader/internal/geom"
	"github.com/ironsheep/omr-grader/internal/grading"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return s
}

// gradedResult grades a two-question sheet where Q1 is marked A and Q2 is
// left blank.
func gradedResult(t *testing.T, key grading.AnswerKey) *grading.Result {
	t.Helper()
	tmpl := grading.Template{
		"Q1": {
			"A": {Center: geom.SheetPoint{X: 40, Y: 40}, Radius: 15},
			"B": {Center: geom.SheetPoint{X: 100, Y: 40}, Radius: 15},
		},
		"Q2": {
			"A": {Center: geom.SheetPoint{X: 40, Y: 100}, Radius: 15},
			"B": {Center: geom.SheetPoint{X: 100, Y: 100}, Radius: 15},
		},
	}

	sheet := image.NewGray(image.Rect(0, 0, 140, 140))
	for i := range sheet.Pix {
		sheet.Pix[i] = 255
	}
	for y := 25; y <= 55; y++ {
		for x := 25; x <= 55; x++ {
			sheet.Pix[y*sheet.Stride+x] = 0
		}
	}

	e, err := grading.NewEngine(tmpl, key, config.Default().Scoring)
	require.NoError(t, err)
	res, err := e.Grade(sheet)
	require.NoError(t, err)
	res.SheetID = "ID-0042"
	return res
}

func TestStore_GradedRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	res := gradedResult(t, grading.AnswerKey{"Q1": "A", "Q2": "B"})

	id, err := s.RecordGraded(ctx, "/scans/a.jpg", res, "/out/a.png")
	require.NoError(t, err)
	assert.Positive(t, id)

	sh, err := s.Get(ctx, "/scans/a.jpg")
	require.NoError(t, err)

	assert.Equal(t, id, sh.ID)
	assert.Equal(t, StatusGraded, sh.Status)
	assert.Equal(t, "ID-0042", sh.SheetID)
	require.NotNil(t, sh.Score)
	assert.Equal(t, 1, *sh.Score)
	assert.Equal(t, 2, sh.Total)
	assert.Equal(t, 1, sh.Blank)
	assert.Equal(t, 0, sh.Ambiguous)
	assert.Equal(t, "/out/a.png", sh.Overlay)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 1, 0, 0, time.UTC), sh.GradedAt.UTC())

	require.Len(t, sh.Answers, 2)
	assert.Equal(t, "Q1", sh.Answers[0].Question)
	assert.Equal(t, "A", sh.Answers[0].Selection)
	assert.Equal(t, "A", sh.Answers[0].Expected)
	assert.Equal(t, res.Fills["Q1"], sh.Answers[0].Fills)
	assert.Equal(t, grading.Blank, grading.Selection(sh.Answers[1].Selection))
	assert.Equal(t, "B", sh.Answers[1].Expected)
}

func TestStore_UnkeyedHasNoScore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.RecordGraded(ctx, "/scans/b.jpg", gradedResult(t, nil), "")
	require.NoError(t, err)

	sh, err := s.Get(ctx, "/scans/b.jpg")
	require.NoError(t, err)
	assert.Nil(t, sh.Score)
	assert.Empty(t, sh.Answers[0].Expected)
}

func TestStore_Failed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.RecordFailed(ctx, "/scans/c.jpg", "fiducials", "expected 4 fiducials, found 3")
	require.NoError(t, err)

	sh, err := s.Get(ctx, "/scans/c.jpg")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, sh.Status)
	assert.Equal(t, "fiducials", sh.Stage)
	assert.Equal(t, "expected 4 fiducials, found 3", sh.Reason)
	assert.Nil(t, sh.Score)
	assert.Empty(t, sh.Answers)
}

func TestStore_GetReturnsLatest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.RecordFailed(ctx, "/scans/d.jpg", "load", "truncated")
	require.NoError(t, err)
	_, err = s.RecordGraded(ctx, "/scans/d.jpg", gradedResult(t, nil), "")
	require.NoError(t, err)

	sh, err := s.Get(ctx, "/scans/d.jpg")
	require.NoError(t, err)
	assert.Equal(t, StatusGraded, sh.Status)
}

func TestStore_GetMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), "/scans/none.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Recent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, p := range []string{"/s/1.jpg", "/s/2.jpg", "/s/3.jpg"} {
		_, err := s.RecordFailed(ctx, p, "load", "unreadable")
		require.NoError(t, err)
	}

	got, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "/s/3.jpg", got[0].Path)
	assert.Equal(t, "/s/2.jpg", got[1].Path)

	all, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.RecordFailed(context.Background(), "/s/x.jpg", "align", "singular")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
