package wikisort

import (
	"encoding/binary"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloorPow2(t *testing.T) {
	cases := map[int]int{
		1: 1, 2: 2, 3: 2, 4: 4, 5: 4, 7: 4, 8: 8, 9: 8,
		1023: 512, 1024: 1024, 1025: 1024,
	}
	for in, want := range cases {
		assert.Equal(t, want, floorPow2(in), "floorPow2(%d)", in)
	}
}

func TestIntSqrt(t *testing.T) {
	for x := 0; x <= 4096; x++ {
		r := intSqrt(x)
		require.LessOrEqual(t, r*r, x, "intSqrt(%d) too large", x)
		require.Greater(t, (r+1)*(r+1), x, "intSqrt(%d) too small", x)
	}
}

// Every level must partition [0, size) into consecutive runs whose
// lengths differ by at most one, and the run length must double from
// level to level until a single run covers the array.
func TestIteratorPartitionsEveryLevel(t *testing.T) {
	for size := 4; size <= 256; size++ {
		it := newIterator(size, 4)
		prevLength := 0
		for {
			minLen, maxLen := size+1, 0
			next := 0
			for it.begin(); !it.finished(); {
				r := it.nextRange()
				require.Equal(t, next, r.start, "size %d: ranges must be consecutive", size)
				require.Greater(t, r.length(), 0, "size %d: empty range", size)
				minLen = min(minLen, r.length())
				maxLen = max(maxLen, r.length())
				next = r.end
			}
			require.Equal(t, size, next, "size %d: ranges must cover [0, size)", size)
			require.LessOrEqual(t, maxLen-minLen, 1, "size %d: unbalanced level", size)

			length := it.length()
			if prevLength > 0 {
				require.Contains(t, []int{2 * prevLength, 2*prevLength + 1}, length,
					"size %d: run length must double per level", size)
			}
			prevLength = length

			if !it.nextLevel() {
				break
			}
		}
		require.GreaterOrEqual(t, it.length(), size, "size %d: final level must span the array", size)
	}
}

func TestIteratorMinLevelEight(t *testing.T) {
	it := newIterator(100, 8)
	total := 0
	for it.begin(); !it.finished(); {
		total += it.nextRange().length()
	}
	assert.Equal(t, 100, total)
}

// test fixture over little-endian int32 records
func newInt32Sorter(values []int32) *sorter {
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*4:], uint32(v))
	}
	return &sorter{data: data, width: 4, size: len(values), cmp: compareInt32}
}

func compareInt32(a, b []byte) int {
	x := int32(binary.LittleEndian.Uint32(a))
	y := int32(binary.LittleEndian.Uint32(b))
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func int32Value(v int32) []byte {
	value := make([]byte, 4)
	binary.LittleEndian.PutUint32(value, uint32(v))
	return value
}

func TestBinaryFirstLast(t *testing.T) {
	s := newInt32Sorter([]int32{1, 2, 2, 2, 5, 7})
	full := span{0, 6}

	assert.Equal(t, 1, s.binaryFirst(int32Value(2), full))
	assert.Equal(t, 4, s.binaryLast(int32Value(2), full))
	assert.Equal(t, 0, s.binaryFirst(int32Value(0), full))
	assert.Equal(t, 6, s.binaryLast(int32Value(9), full))
	assert.Equal(t, 4, s.binaryFirst(int32Value(3), full))
	assert.Equal(t, 4, s.binaryLast(int32Value(3), full))

	empty := span{2, 2}
	assert.Equal(t, 2, s.binaryFirst(int32Value(2), empty))
	assert.Equal(t, 2, s.binaryLast(int32Value(2), empty))
}

// The hybrid searches are an optimization over the plain binary
// searches; on a sorted range they must return the same index no matter
// what unique hint they are given.
func TestFindVariantsAgreeWithBinarySearch(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(60)
		values := make([]int32, n)
		for i := range values {
			values[i] = rng.Int31n(20)
		}
		sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
		s := newInt32Sorter(values)
		full := span{0, n}

		for v := int32(-1); v <= 21; v++ {
			value := int32Value(v)
			first := s.binaryFirst(value, full)
			last := s.binaryLast(value, full)
			for _, unique := range []int{1, 2, 3, n, 2 * n} {
				require.Equal(t, first, s.findFirstForward(value, full, unique))
				require.Equal(t, first, s.findFirstBackward(value, full, unique))
				require.Equal(t, last, s.findLastForward(value, full, unique))
				require.Equal(t, last, s.findLastBackward(value, full, unique))
			}
		}
	}
}

func TestRotate(t *testing.T) {
	s := newInt32Sorter([]int32{0, 1, 2, 3, 4})
	s.rotate(2, span{0, 5})
	want := []int32{2, 3, 4, 0, 1}
	for i, w := range want {
		assert.Equal(t, w, int32(binary.LittleEndian.Uint32(s.at(i))))
	}
}

func TestMergeInPlace(t *testing.T) {
	values := []int32{1, 3, 5, 7, 2, 4, 6, 8}
	s := newInt32Sorter(values)
	s.mergeInPlace(span{0, 4}, span{4, 8})
	for i := 0; i < 8; i++ {
		assert.Equal(t, int32(i+1), int32(binary.LittleEndian.Uint32(s.at(i))))
	}
}
