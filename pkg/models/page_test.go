package models

import "testing"

func ints(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestPageOf(t *testing.T) {
	// 95 items at 20 per page is the canonical pagination example: 5 pages,
	// the last one short.
	p := PageOf(ints(95), 1, 20)
	if p.TotalPages != 5 {
		t.Errorf("Expected 5 total pages, got %d", p.TotalPages)
	}
	if p.TotalCount != 95 {
		t.Errorf("Expected total count 95, got %d", p.TotalCount)
	}
	if p.Count != 20 || len(p.Items) != 20 {
		t.Errorf("Expected a full first page, got count %d", p.Count)
	}
	if !p.HasNext || p.HasPrev {
		t.Errorf("Expected hasNext && !hasPrev on page 1, got next=%v prev=%v", p.HasNext, p.HasPrev)
	}

	last := PageOf(ints(95), 5, 20)
	if last.Count != 15 {
		t.Errorf("Expected 15 items on the last page, got %d", last.Count)
	}
	if last.HasNext || !last.HasPrev {
		t.Errorf("Expected !hasNext && hasPrev on the last page, got next=%v prev=%v", last.HasNext, last.HasPrev)
	}
}

func TestPageOfPastTheEndIsEmptyButValid(t *testing.T) {
	p := PageOf(ints(95), 6, 20)
	if len(p.Items) != 0 || p.Count != 0 {
		t.Errorf("Expected an empty page past the end, got %d items", p.Count)
	}
	if p.TotalPages != 5 || p.TotalCount != 95 {
		t.Errorf("Expected totals to stay intact, got pages=%d count=%d", p.TotalPages, p.TotalCount)
	}
	if p.HasNext {
		t.Error("Expected no next page past the end")
	}
}

func TestPageOfEmptyInput(t *testing.T) {
	p := PageOf([]int{}, 1, 20)
	if p.TotalPages != 1 {
		t.Errorf("Expected an empty list to still report one page, got %d", p.TotalPages)
	}
	if p.HasNext || p.HasPrev {
		t.Error("Expected no navigation on an empty list")
	}
}
