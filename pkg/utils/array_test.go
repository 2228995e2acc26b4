package utils

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFilterAndFlatMapNeverReturnNil(t *testing.T) {
	if got := Filter([]int{1, 3}, func(v int) bool { return v%2 == 0 }); got == nil {
		t.Error("Filter() = nil, want empty slice")
	}
	if got := FlatMap([]int(nil), func(v int) []int { return []int{v} }); got == nil {
		t.Error("FlatMap() = nil, want empty slice")
	}
}

func TestHelpers(t *testing.T) {
	values := []int{4, 8, 15, 16, 23, 42}

	if diff := cmp.Diff([]int{8, 16, 30, 32, 46, 84}, Map(values, func(v int) int { return v * 2 })); diff != "" {
		t.Errorf("Map() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{15, 23}, Filter(values, func(v int) bool { return v%2 == 1 })); diff != "" {
		t.Errorf("Filter() mismatch (-want +got):\n%s", diff)
	}
	if got, ok := Find(values, func(v int) bool { return v > 10 }); !ok || got != 15 {
		t.Errorf("Find() = %d, %v", got, ok)
	}
	if _, ok := Find(values, func(v int) bool { return v > 100 }); ok {
		t.Error("Find() found a value above 100")
	}
	if got := IndexOf(values, func(v int) bool { return v == 23 }); got != 4 {
		t.Errorf("IndexOf() = %d, want 4", got)
	}
	if got := IndexOf(values, func(v int) bool { return v == 5 }); got != -1 {
		t.Errorf("IndexOf() = %d, want -1", got)
	}
	if got := Reduce(values, func(sum int, v int) int { return sum + v }, 0); got != 108 {
		t.Errorf("Reduce() = %d, want 108", got)
	}
	if !Contains(values, 42) || Contains(values, 7) {
		t.Error("Contains() mismatch")
	}
	if diff := cmp.Diff([]int{4, 4, 8, 8}, FlatMap(values[:2], func(v int) []int { return []int{v, v} })); diff != "" {
		t.Errorf("FlatMap() mismatch (-want +got):\n%s", diff)
	}
}
