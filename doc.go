// wikisort package provides a stable, in-place, comparison-based sort.
//
// The algorithm is a block merge sort: a bottom-up merge sort that
// extracts roughly sqrt(n) distinct values from the array itself and
// uses them as internal buffers, so merging needs no auxiliary storage
// proportional to the input. It runs in O(n log n) time worst case and
// O(1) extra memory, and it is stable: elements that compare equal keep
// their relative input order.
//
// The package exposes the engine in two forms:
//
// Byte records. Sort and SortWithMap operate on a byte slice holding n
// fixed-size records of a given width, ordered by a three-way comparator
// over record bytes:
//
//	wikisort.Sort(data, n, width, func(a, b []byte) int { ... })
//
// SortWithMap additionally maintains a caller-allocated trace map so that
// on return data[i] holds the record that started at index trace[i].
//
// Typed slices. The template directory holds a genny template of the same
// engine over a typed slice:
//
//	genny -in=$GOPATH/src/github.com/torsten-schenk/wikisort/template/wikisort.go -out=mystructsort.go gen "ValueType=MyStruct"
//
// This command generates the following functions:
//
//	MyStructSort(a []MyStruct, cmp MyStructCompare)
//	MyStructSortWithMap(a []MyStruct, cmp MyStructCompare, trace []int)
//
// To use them, define a three-way comparator with this signature:
//
//	func (a, b MyStruct) int
//
// returning a negative, zero or positive value. The comparator must be a
// total order; it must not mutate the slice being sorted.
package wikisort
