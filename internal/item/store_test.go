package item

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/loykin/itemd/internal/history"
	"github.com/loykin/itemd/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAssignsIncreasingIDs(t *testing.T) {
	s := NewStore()
	a := s.Create(Patch{Name: String("a")})
	b := s.Create(Patch{Name: String("b")})
	require.NoError(t, s.Delete(b.ID))
	c := s.Create(Patch{Name: String("c")})

	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 2, b.ID)
	// ids are never reused, even for the most recently deleted one
	assert.Equal(t, 3, c.ID)
}

func TestIDsMonotonicAcrossDeletes(t *testing.T) {
	s := NewStore()
	last := 0
	for i := 0; i < 50; i++ {
		it := s.Create(Patch{})
		if it.ID <= last {
			t.Fatalf("id %d not greater than previous %d", it.ID, last)
		}
		last = it.ID
		if i%3 == 0 {
			require.NoError(t, s.Delete(it.ID))
		}
	}
}

func TestCreateDefaults(t *testing.T) {
	s := NewStore()
	it := s.Create(Patch{})
	assert.Equal(t, Item{ID: 1}, it)
	assert.False(t, it.Completed)
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	s := NewStore()
	created := s.Create(Patch{Name: String("TestItem"), Completed: Bool(true)})
	got, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestGetMissing(t *testing.T) {
	s := NewStore()
	_, err := s.Get(999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePartial(t *testing.T) {
	s := NewStore()
	it := s.Create(Patch{Name: String("first"), Completed: Bool(true)})

	up, err := s.Update(it.ID, Patch{Name: String("second")})
	require.NoError(t, err)
	assert.Equal(t, "second", up.Name)
	assert.True(t, up.Completed, "completed must be left unchanged")

	up, err = s.Update(it.ID, Patch{Completed: Bool(false)})
	require.NoError(t, err)
	assert.Equal(t, "second", up.Name)
	assert.False(t, up.Completed)

	// empty patch is a no-op that still succeeds
	up, err = s.Update(it.ID, Patch{})
	require.NoError(t, err)
	assert.Equal(t, Item{ID: it.ID, Name: "second"}, up)
}

func TestUpdateMissing(t *testing.T) {
	s := NewStore()
	_, err := s.Update(1, Patch{Name: String("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteMissingAlwaysNotFound(t *testing.T) {
	s := NewStore()
	assert.ErrorIs(t, s.Delete(1), ErrNotFound)
	it := s.Create(Patch{})
	require.NoError(t, s.Delete(it.ID))
	assert.ErrorIs(t, s.Delete(it.ID), ErrNotFound)
	assert.ErrorIs(t, s.Delete(it.ID), ErrNotFound)
}

func TestListKeepsInsertionOrder(t *testing.T) {
	s := NewStore()
	assert.Equal(t, []Item{}, s.List())

	a := s.Create(Patch{Name: String("A")})
	b := s.Create(Patch{Name: String("B")})
	require.NoError(t, s.Delete(a.ID))
	assert.Equal(t, []Item{b}, s.List())

	c := s.Create(Patch{Name: String("C")})
	_, err := s.Update(b.ID, Patch{Name: String("B2")})
	require.NoError(t, err)
	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, c.ID, list[1].ID)
}

func TestListReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Create(Patch{Name: String("orig")})
	list := s.List()
	list[0].Name = "mutated"
	got, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "orig", got.Name)
}

func TestReset(t *testing.T) {
	s := NewStore()
	s.Create(Patch{})
	s.Create(Patch{})
	s.Reset()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.List())
	assert.Equal(t, 1, s.Create(Patch{}).ID)
}

func TestParseID(t *testing.T) {
	id, err := ParseID("42")
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	for _, in := range []string{"", "abc", "1.5", "12abc", " 1", "1 ", "+1", "-1", "0x1", "99999999999999999999999"} {
		_, err := ParseID(in)
		assert.ErrorIs(t, err, ErrNotFound, "input %q", in)
	}
}

func TestConcurrentCreatesUnique(t *testing.T) {
	s := NewStore()
	const n = 100
	ids := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- s.Create(Patch{}).ID
		}()
	}
	wg.Wait()
	close(ids)
	seen := make(map[int]bool, n)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, n, s.Len())
}

type memSink struct {
	mu     sync.Mutex
	events []history.Event
	err    error
}

func (m *memSink) Send(_ context.Context, e history.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return m.err
}

func TestHistoryEvents(t *testing.T) {
	s := NewStore()
	sink := &memSink{}
	s.SetHistorySinks(sink)

	it := s.Create(Patch{Name: String("n")})
	_, _ = s.Update(it.ID, Patch{Completed: Bool(true)})
	_, _ = s.Update(99, Patch{})
	_ = s.Delete(it.ID)
	s.Reset()

	require.Len(t, sink.events, 4)
	assert.Equal(t, history.EventCreated, sink.events[0].Type)
	assert.Equal(t, history.EventUpdated, sink.events[1].Type)
	assert.True(t, sink.events[1].Record.Completed)
	assert.Equal(t, history.EventDeleted, sink.events[2].Type)
	assert.Equal(t, it.ID, sink.events[2].Record.ID)
	assert.Equal(t, history.EventReset, sink.events[3].Type)
}

func TestHistorySinkErrorDoesNotFailStore(t *testing.T) {
	s := NewStore()
	s.SetHistorySinks(&memSink{err: errors.New("down")})
	it := s.Create(Patch{Name: String("x")})
	assert.Equal(t, 1, it.ID)
	require.NoError(t, s.Delete(it.ID))
}

func TestPatchUnmarshalCoercion(t *testing.T) {
	cases := []struct {
		body      string
		name      *string
		completed *bool
	}{
		{`{}`, nil, nil},
		{`{"completed":0}`, nil, Bool(false)},
		{`{"completed":""}`, nil, Bool(false)},
		{`{"completed":null}`, nil, Bool(false)},
		{`{"completed":false}`, nil, Bool(false)},
		{`{"completed":1}`, nil, Bool(true)},
		{`{"completed":"no"}`, nil, Bool(true)},
		{`{"completed":[]}`, nil, Bool(true)},
		{`{"name":"a"}`, String("a"), nil},
		{`{"name":123}`, String("123"), nil},
		{`{"name":true}`, String("true"), nil},
		{`{"name":null}`, nil, nil},
		{`[1,2]`, nil, nil},
		{`null`, nil, nil},
		{`"text"`, nil, nil},
	}
	for _, tc := range cases {
		var p Patch
		require.NoError(t, json.Unmarshal([]byte(tc.body), &p), tc.body)
		assert.Equal(t, tc.name, p.Name, tc.body)
		assert.Equal(t, tc.completed, p.Completed, tc.body)
	}

	var p Patch
	assert.Error(t, json.Unmarshal([]byte(`{"name":`), &p))
}

func TestItemAlwaysEncodesCompleted(t *testing.T) {
	b, err := json.Marshal(Item{ID: 1, Name: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"x","completed":false}`, string(b))
}

func itemsGauge(t *testing.T, reg *prometheus.Registry) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "itemd_store_items" {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatal("itemd_store_items not gathered")
	return 0
}

func TestItemsGaugeMatchesLenUnderConcurrency(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, metrics.Register(reg))

	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			it := s.Create(Patch{})
			if it.ID%2 == 0 {
				_ = s.Delete(it.ID)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, float64(s.Len()), itemsGauge(t, reg))

	s.Reset()
	assert.Equal(t, 0.0, itemsGauge(t, reg))
}
