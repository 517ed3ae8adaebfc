package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "expenses.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func input(amount, category, date, note string) core.ExpenseInput {
	d, err := core.ParseTimestamp(date)
	if err != nil {
		panic(err)
	}
	return core.ExpenseInput{
		Amount:   decimal.RequireFromString(amount),
		Category: category,
		Date:     d,
		Note:     note,
	}
}

func ids(expenses []core.Expense) []int64 {
	out := make([]int64, len(expenses))
	for i, e := range expenses {
		out[i] = e.ID
	}
	return out
}

func TestStore_InsertThenListAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.Insert(ctx, input("120.5", core.CategoryFood, "2024-03-15T08:00:00.000Z", "breakfast"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.RowsAffected)

	second, err := s.Insert(ctx, input("40", core.CategoryTransport, "2024-03-14T08:00:00.000Z", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(1), second.RowsAffected)
	assert.NotEqual(t, first.ID, second.ID)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	// Insertion order, newest first, regardless of occurrence date.
	assert.Equal(t, []int64{second.ID, first.ID}, ids(all))

	got := all[1]
	assert.True(t, decimal.RequireFromString("120.5").Equal(got.Amount))
	assert.Equal(t, core.CategoryFood, got.Category)
	assert.Equal(t, "2024-03-15T08:00:00.000Z", core.FormatTimestamp(got.Date))
	assert.Equal(t, "breakfast", got.Note)
	assert.Equal(t, "", all[0].Note)
}

func TestStore_IDsAreNeverReused(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a, err := s.Insert(ctx, input("1", core.CategoryOther, "2024-01-01T00:00:00.000Z", ""))
	require.NoError(t, err)
	b, err := s.Insert(ctx, input("2", core.CategoryOther, "2024-01-01T00:00:00.000Z", ""))
	require.NoError(t, err)

	_, err = s.Delete(ctx, b.ID)
	require.NoError(t, err)

	c, err := s.Insert(ctx, input("3", core.CategoryOther, "2024-01-01T00:00:00.000Z", ""))
	require.NoError(t, err)
	assert.Greater(t, c.ID, b.ID)
	assert.Greater(t, b.ID, a.ID)
}

func TestStore_UpdateMissingIsNotAnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Insert(ctx, input("10", core.CategoryWork, "2024-02-01T00:00:00.000Z", "pens"))
	require.NoError(t, err)
	before, err := s.ListAll(ctx)
	require.NoError(t, err)

	res, err := s.Update(ctx, 9999, input("99", core.CategoryFood, "2024-02-02T00:00:00.000Z", "x"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.RowsAffected)

	after, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStore_UpdateReplacesFields(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ins, err := s.Insert(ctx, input("10", core.CategoryWork, "2024-02-01T00:00:00.000Z", "pens"))
	require.NoError(t, err)

	res, err := s.Update(ctx, ins.ID, input("12.75", core.CategoryShopping, "2024-02-03T10:00:00.000Z", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowsAffected)

	got, err := s.Get(ctx, ins.ID)
	require.NoError(t, err)
	assert.Equal(t, ins.ID, got.ID)
	assert.True(t, decimal.RequireFromString("12.75").Equal(got.Amount))
	assert.Equal(t, core.CategoryShopping, got.Category)
	assert.Equal(t, "2024-02-03T10:00:00.000Z", core.FormatTimestamp(got.Date))
	assert.Equal(t, "", got.Note)
}

func TestStore_UpdateWithIdenticalValuesIsStable(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	in := input("55.5", core.CategoryPersonal, "2024-05-05T05:05:05.005Z", "haircut")
	ins, err := s.Insert(ctx, in)
	require.NoError(t, err)
	before, err := s.ListAll(ctx)
	require.NoError(t, err)

	res, err := s.Update(ctx, ins.ID, in)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowsAffected)

	after, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, before, after)
}

func TestStore_DeleteTwice(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ins, err := s.Insert(ctx, input("8", core.CategoryFood, "2024-04-01T00:00:00.000Z", ""))
	require.NoError(t, err)

	res, err := s.Delete(ctx, ins.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowsAffected)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids(all), ins.ID)

	res, err = s.Delete(ctx, ins.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.RowsAffected)

	_, err = s.Get(ctx, ins.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SumTotal(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	total, err := s.SumTotal(ctx)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	for _, amount := range []string{"10.5", "20.25", "100"} {
		_, err := s.Insert(ctx, input(amount, core.CategoryOther, "2024-01-01T00:00:00.000Z", ""))
		require.NoError(t, err)
	}

	total, err = s.SumTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, "130.75", total.String())
}

func TestStore_SumTotalMatchesListedRows(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, amount := range []string{"0.1", "0.2", "19.99", "0.01"} {
		_, err := s.Insert(ctx, input(amount, core.CategoryFood, "2024-01-01T00:00:00.000Z", ""))
		require.NoError(t, err)
	}

	total, err := s.SumTotal(ctx)
	require.NoError(t, err)
	all, err := s.ListAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, "20.3", total.String())
	assert.True(t, core.Total(all).Equal(total))
}

func TestStore_EmptyReads(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	r, _ := core.Resolve(core.PeriodYear, time.Now())
	ranged, err := s.ListInRange(ctx, r.Start, r.End)
	require.NoError(t, err)
	assert.NotNil(t, ranged)
	assert.Empty(t, ranged)
}

func TestStore_ListInRange(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var inserted []int64
	for _, date := range []string{
		"2024-01-01T00:00:00.000Z",
		"2024-06-15T00:00:00.000Z",
		"2025-01-01T00:00:00.000Z",
	} {
		res, err := s.Insert(ctx, input("1", core.CategoryFood, date, ""))
		require.NoError(t, err)
		inserted = append(inserted, res.ID)
	}

	r, bounded := core.Resolve(core.PeriodYear, time.Date(2024, time.August, 1, 12, 0, 0, 0, time.UTC))
	require.True(t, bounded)

	got, err := s.ListInRange(ctx, r.Start, r.End)
	require.NoError(t, err)
	assert.Equal(t, []int64{inserted[1], inserted[0]}, ids(got))
}

func TestStore_ListInRangeBoundsAreInclusive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	start := time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.March, 17, 23, 59, 59, 999*int(time.Millisecond), time.UTC)

	for _, d := range []time.Time{start.Add(-time.Millisecond), start, end, end.Add(time.Millisecond)} {
		_, err := s.Insert(ctx, core.ExpenseInput{Amount: decimal.NewFromInt(1), Category: core.CategoryWork, Date: d})
		require.NoError(t, err)
	}

	got, err := s.ListInRange(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, end.Equal(got[0].Date))
	assert.True(t, start.Equal(got[1].Date))
}

func TestStore_InitializeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "expenses.db")

	s := New(path)
	require.NoError(t, s.Initialize(ctx))
	_, err := s.Insert(ctx, input("3", core.CategoryFood, "2024-01-01T00:00:00.000Z", ""))
	require.NoError(t, err)

	require.NoError(t, s.Initialize(ctx))
	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	require.NoError(t, s.Close())

	// Reopening the same file keeps the data and the schema.
	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	all, err = reopened.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_OperationsBeforeInitialize(t *testing.T) {
	ctx := context.Background()
	s := New(filepath.Join(t.TempDir(), "expenses.db"))

	_, err := s.ListAll(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = s.SumTotal(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = s.Insert(ctx, input("1", core.CategoryFood, "2024-01-01T00:00:00.000Z", ""))
	var werr *WriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "insert", werr.Op)
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = s.Delete(ctx, 4)
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, int64(4), werr.ID)
}

func TestStore_InitializeFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o644))

	s := New(filepath.Join(blocker, "nested", "expenses.db"))
	err := s.Initialize(context.Background())

	var ierr *InitError
	require.ErrorAs(t, err, &ierr)
	assert.Contains(t, ierr.Path, "blocker")

	_, err = s.ListAll(context.Background())
	assert.ErrorIs(t, err, ErrNotInitialized)
}
