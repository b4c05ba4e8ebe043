package changelog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/istoking/illicitrp-site/internal/kv"
)

func makeEntries(n int, startMs int64) []Entry {
	entries := make([]Entry, n)
	for i := 0; i < n; i++ {
		ms := startMs - int64(i)*60_000
		entries[i] = Entry{
			ID:          fmt.Sprintf("msg-%d", i),
			Title:       fmt.Sprintf("Entry %d", i),
			Tags:        []string{"other"},
			Type:        "Other",
			Date:        "2024-05-20",
			CreatedAtMs: ms,
			Details:     []string{},
		}
	}
	return entries
}

func TestWindow_Partition(t *testing.T) {
	entries := makeEntries(10, 1_700_000_000_000)

	displayed, overflow := Window(entries, 7)
	assert.Len(t, displayed, 7)
	assert.Len(t, overflow, 3)
	assert.Equal(t, "msg-0", displayed[0].ID)
	assert.Equal(t, "msg-7", overflow[0].ID)

	displayed, overflow = Window(entries, 20)
	assert.Len(t, displayed, 10)
	assert.Empty(t, overflow)
}

func TestSortEntries_NewestFirstWithDateFallback(t *testing.T) {
	entries := []Entry{
		{ID: "a", CreatedAtMs: 100},
		{ID: "b", CreatedAtMs: 300},
		{ID: "c", CreatedAtMs: 0, Date: "2024-06-01"},
		{ID: "d", CreatedAtMs: 0, Date: "2024-07-01"},
	}

	SortEntries(entries)

	assert.Equal(t, "b", entries[0].ID)
	assert.Equal(t, "a", entries[1].ID)
	// timestampless entries ordered by string-descending date
	assert.Equal(t, "d", entries[2].ID)
	assert.Equal(t, "c", entries[3].ID)
}

func TestArchiver_OverflowGetsArchived(t *testing.T) {
	store := kv.NewMemoryStore()
	a := NewArchiver(store, 5, 750)
	ctx := context.Background()

	all := makeEntries(8, 1_700_000_000_000)
	displayed, overflow := Window(all, 5)

	res := a.Run(ctx, all, displayed, overflow)

	assert.True(t, res.Enabled)
	assert.False(t, res.Degraded)
	assert.Equal(t, []MonthCount{{Month: "2024-05", Count: 3}}, res.Index)

	month := a.Month(ctx, "2024-05")
	assert.Len(t, month, 3)
}

func TestArchiver_MovedOutEntriesArchived(t *testing.T) {
	store := kv.NewMemoryStore()
	a := NewArchiver(store, 3, 750)
	ctx := context.Background()

	// First run: exactly 3 entries, nothing overflows.
	all := makeEntries(3, 1_700_000_000_000)
	displayed, overflow := Window(all, 3)
	res := a.Run(ctx, all, displayed, overflow)
	assert.Empty(t, res.RecentlyArchived)
	assert.Empty(t, a.Month(ctx, "2024-05"))

	// Second run: one newer entry pushes msg-2 out of the window even
	// though it is still within the fetched list.
	newer := Entry{ID: "msg-new", Title: "Newest", Tags: []string{"other"}, Date: "2024-05-21", CreatedAtMs: 1_700_000_060_000, Details: []string{}}
	all2 := append([]Entry{newer}, all...)
	displayed2, overflow2 := Window(all2, 3)
	res2 := a.Run(ctx, all2, displayed2, overflow2)

	assert.Len(t, res2.RecentlyArchived, 1)
	assert.Equal(t, "msg-2", res2.RecentlyArchived[0].ID)

	month := a.Month(ctx, "2024-05")
	assert.Len(t, month, 1)
	assert.Equal(t, "msg-2", month[0].ID)
}

func TestArchiver_RerunWithSameInputIsIdempotent(t *testing.T) {
	store := kv.NewMemoryStore()
	a := NewArchiver(store, 5, 750)
	ctx := context.Background()

	all := makeEntries(8, 1_700_000_000_000)
	displayed, overflow := Window(all, 5)

	a.Run(ctx, all, displayed, overflow)
	first := a.Month(ctx, "2024-05")

	res := a.Run(ctx, all, displayed, overflow)
	second := a.Month(ctx, "2024-05")

	assert.Equal(t, first, second)
	assert.Empty(t, res.RecentlyArchived)
}

func TestArchiver_MonthCapEnforced(t *testing.T) {
	store := kv.NewMemoryStore()
	a := NewArchiver(store, 0, 50)
	ctx := context.Background()

	all := makeEntries(80, 1_700_000_000_000)
	displayed, overflow := Window(all, 0)

	a.Run(ctx, all, displayed, overflow)

	month := a.Month(ctx, "2024-05")
	assert.Len(t, month, 50)
	// newest kept, oldest dropped
	assert.Equal(t, "msg-0", month[0].ID)
	assert.Equal(t, "msg-49", month[49].ID)

	assert.Equal(t, []MonthCount{{Month: "2024-05", Count: 50}}, a.Index(ctx))
}

func TestArchiver_UpsertReplacesById(t *testing.T) {
	store := kv.NewMemoryStore()
	a := NewArchiver(store, 0, 750)
	ctx := context.Background()

	all := makeEntries(1, 1_700_000_000_000)
	_, overflow := Window(all, 0)
	a.Run(ctx, all, nil, overflow)

	all[0].Title = "Edited title"
	a.Run(ctx, all, nil, all)

	month := a.Month(ctx, "2024-05")
	assert.Len(t, month, 1)
	assert.Equal(t, "Edited title", month[0].Title)
}

func TestArchiver_IndexHidesNonMonthKeys(t *testing.T) {
	store := kv.NewMemoryStore()
	a := NewArchiver(store, 0, 750)
	ctx := context.Background()

	dated := Entry{ID: "x", Title: "Dated", Date: "2024-05-20", CreatedAtMs: 10, Details: []string{}}
	undated := Entry{ID: "y", Title: "Undated", Date: "", CreatedAtMs: 5, Details: []string{}}
	all := []Entry{dated, undated}

	a.Run(ctx, all, nil, all)

	// the "unknown" bucket exists but stays out of the index
	assert.Len(t, a.Month(ctx, "unknown"), 1)
	assert.Equal(t, []MonthCount{{Month: "2024-05", Count: 1}}, a.Index(ctx))
}

func TestArchiver_DisabledWithoutStore(t *testing.T) {
	a := NewArchiver(nil, 5, 750)
	ctx := context.Background()

	all := makeEntries(8, 1_700_000_000_000)
	displayed, overflow := Window(all, 5)

	res := a.Run(ctx, all, displayed, overflow)
	assert.False(t, res.Enabled)
	assert.Empty(t, a.Month(ctx, "2024-05"))
	assert.Empty(t, a.Index(ctx))
}

func TestArchiver_StoreFailureDegrades(t *testing.T) {
	a := NewArchiver(failingStore{}, 5, 750)
	ctx := context.Background()

	all := makeEntries(8, 1_700_000_000_000)
	displayed, overflow := Window(all, 5)

	res := a.Run(ctx, all, displayed, overflow)
	assert.True(t, res.Enabled)
	assert.True(t, res.Degraded)
	assert.NotEmpty(t, res.Reason)
	// still shaped like a normal result
	assert.NotNil(t, res.RecentlyArchived)
	assert.NotNil(t, res.Index)
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, fmt.Errorf("kv down")
}

func (failingStore) Put(context.Context, string, []byte, time.Duration) error {
	return fmt.Errorf("kv down")
}
