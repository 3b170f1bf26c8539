package domain

import (
	"reflect"
	"testing"
)

func sequence(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestPageZeroSizeReturnsEverything(t *testing.T) {
	items := sequence(23)
	for _, page := range []uint16{0, 1, 500, 65535} {
		if got := Page(items, 0, page); !reflect.DeepEqual(got, items) {
			t.Fatalf("page %d with size 0: expected all items, got %v", page, got)
		}
	}
}

func TestPageConcatenationReconstructsSequence(t *testing.T) {
	for _, n := range []int{0, 1, 6, 7, 8, 23, 49} {
		items := sequence(n)
		for _, size := range []uint16{1, 3, 7, 50} {
			var rebuilt []int
			for page := uint16(0); ; page++ {
				chunk := Page(items, size, page)
				if len(chunk) == 0 {
					break
				}
				rebuilt = append(rebuilt, chunk...)
			}
			if len(rebuilt) != n || (n > 0 && !reflect.DeepEqual(rebuilt, items)) {
				t.Fatalf("n=%d size=%d: rebuilt %v", n, size, rebuilt)
			}
		}
	}
}

func TestPagePastEndIsEmpty(t *testing.T) {
	items := sequence(23)
	cases := []struct {
		size, page uint16
		want       int
	}{
		{7, 0, 7},
		{7, 1, 7},
		{7, 2, 7},
		{7, 3, 2},
		{7, 4, 0},
		{23, 1, 0},
		{65535, 65535, 0},
	}
	for _, tc := range cases {
		got := Page(items, tc.size, tc.page)
		if len(got) != tc.want {
			t.Fatalf("size=%d page=%d: expected %d items, got %d", tc.size, tc.page, tc.want, len(got))
		}
		if got == nil {
			t.Fatalf("size=%d page=%d: expected non-nil slice", tc.size, tc.page)
		}
	}
}
