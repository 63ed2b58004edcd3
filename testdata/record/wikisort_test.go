package record

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildRecords turns a key sequence into records whose Ord field counts
// occurrences per key, so stable output must show Ord ascending within
// every run of equal keys.
func buildRecords(keys []int32) []Record {
	counters := map[int32]int32{}
	records := make([]Record, len(keys))
	for i, k := range keys {
		records[i] = Record{Key: k, Ord: counters[k]}
		counters[k]++
	}
	return records
}

func requireStableSorted(t *testing.T, records []Record) {
	t.Helper()
	for i := 1; i < len(records); i++ {
		require.LessOrEqual(t, records[i-1].Key, records[i].Key, "output not sorted at %d", i)
		if records[i-1].Key == records[i].Key {
			require.Less(t, records[i-1].Ord, records[i].Ord, "equal keys out of input order at %d", i)
		}
	}
}

func TestSortRecordMatchesStdlibStableSort(t *testing.T) {
	keyGenerator := gen.Int32Range(0, 50)
	keySliceGenerator := gen.SliceOf(keyGenerator)

	properties := gopter.NewProperties(nil)

	properties.Property("sort agrees with sort.SliceStable", prop.ForAll(func(keys []int32) bool {
		input := buildRecords(keys)
		blockSort := make([]Record, len(input))
		defaultSort := make([]Record, len(input))
		copy(blockSort, input)
		copy(defaultSort, input)

		RecordSort(blockSort, CompareKey)
		sort.SliceStable(defaultSort, func(i, j int) bool {
			return defaultSort[i].Key < defaultSort[j].Key
		})
		return cmp.Diff(defaultSort, blockSort) == ""
	}, keySliceGenerator))

	properties.TestingRun(t)
}

func TestSortRecordWithMap(t *testing.T) {
	keyGenerator := gen.Int32Range(0, 50)
	keySliceGenerator := gen.SliceOf(keyGenerator)

	properties := gopter.NewProperties(nil)

	properties.Property("trace maps output back to input", prop.ForAll(func(keys []int32) bool {
		input := buildRecords(keys)
		sorted := make([]Record, len(input))
		copy(sorted, input)
		trace := make([]int, len(input))

		RecordSortWithMap(sorted, CompareKey, trace)

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
	}, keySliceGenerator))

	properties.TestingRun(t)
}

func TestSortRecordBoundarySizes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, n := range []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 16, 17} {
		keys := make([]int32, n)
		for i := range keys {
			keys[i] = rng.Int31n(4)
		}
		records := buildRecords(keys)
		trace := make([]int, n)
		RecordSortWithMap(records, CompareKey, trace)
		requireStableSorted(t, records)
	}
}

// Two distinct values in shifting proportion: block tagging has almost
// no unique values to work with here.
func TestSortRecordTwoValues(t *testing.T) {
	const n = 512
	for ones := 0; ones <= n; ones += 61 {
		keys := make([]int32, n)
		for i := n - ones; i < n; i++ {
			keys[i] = 1
		}
		rng := rand.New(rand.NewSource(int64(ones)))
		rng.Shuffle(n, func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

		records := buildRecords(keys)
		RecordSort(records, CompareKey)
		requireStableSorted(t, records)
	}
}

// Fewer distinct keys than sqrt(n) forces the bufferless merge path.
func TestSortRecordFewDistinctKeys(t *testing.T) {
	const n = 1000
	rng := rand.New(rand.NewSource(7))
	keys := make([]int32, n)
	for i := range keys {
		keys[i] = rng.Int31n(5)
	}
	records := buildRecords(keys)
	RecordSort(records, CompareKey)
	requireStableSorted(t, records)
}

func TestSortRecordAllEqual(t *testing.T) {
	records := buildRecords(make([]int32, 257))
	trace := make([]int, len(records))
	RecordSortWithMap(records, CompareKey, trace)
	requireStableSorted(t, records)
	for i, from := range trace {
		assert.Equal(t, i, from, "all-equal input must keep the identity trace")
	}
}
