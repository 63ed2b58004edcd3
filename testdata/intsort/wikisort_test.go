package intsort

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func cmp(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func TestSortInt(t *testing.T) {
	numberGenerator := gen.Int()
	numSliceGenerator := gen.SliceOf(numberGenerator)

	properties := gopter.NewProperties(nil)

	properties.Property("sort agrees with the standard library", prop.ForAll(func(input []int) bool {
		blockSort := make([]int, len(input))
		defaultSort := make([]int, len(input))
		copy(blockSort, input)
		copy(defaultSort, input)

		IntSort(blockSort, cmp)
		sort.Ints(defaultSort)
		return reflect.DeepEqual(blockSort, defaultSort)
	}, numSliceGenerator))

	properties.Property("sorting twice changes nothing", prop.ForAll(func(input []int) bool {
		once := make([]int, len(input))
		copy(once, input)
		IntSort(once, cmp)

		twice := make([]int, len(once))
		copy(twice, once)
		IntSort(twice, cmp)
		return reflect.DeepEqual(once, twice)
	}, numSliceGenerator))

	properties.TestingRun(t)
}

func TestSortIntWithMap(t *testing.T) {
	numberGenerator := gen.Int()
	numSliceGenerator := gen.SliceOf(numberGenerator)

	properties := gopter.NewProperties(nil)

	properties.Property("trace maps output back to input", prop.ForAll(func(input []int) bool {
		sorted := make([]int, len(input))
		copy(sorted, input)
		trace := make([]int, len(input))

		IntSortWithMap(sorted, cmp, trace)

		seen := make([]bool, len(input))
		for i, from := range trace {
			if from < 0 || from >= len(input) || seen[from] {
				return false
			}
			seen[from] = true
			if sorted[i] != input[from] {
				return false
			}
		}
		return true
	}, numSliceGenerator))

	properties.TestingRun(t)
}

func TestSortIntReversed(t *testing.T) {
	input := make([]int, 1000)
	for i := range input {
		input[i] = len(input) - i
	}
	IntSort(input, cmp)
	for i := range input {
		if input[i] != i+1 {
			t.Fatalf("input[%d] = %d, want %d", i, input[i], i+1)
		}
	}
}

func benchmarkIntSort(b *testing.B, count int) {
	slice := make([]int, count)
	for i := 0; i < count; i++ {
		slice[i] = rand.Int()
	}
	work := make([]int, count)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(work, slice)
		IntSort(work, cmp)
	}
}

func BenchmarkIntSort1000(b *testing.B) {
	benchmarkIntSort(b, 1000)
}

func BenchmarkIntSort100000(b *testing.B) {
	benchmarkIntSort(b, 100000)
}
