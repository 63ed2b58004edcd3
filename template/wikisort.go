package wikisort

import (
	"math/bits"

	"github.com/cheekybits/genny/generic"
)

type ValueType generic.Type

// Block merge sort over a typed slice.
//
// This implementation was derived from WikiSort by Mike McFadden, which
// in turn is based on "Ratio based stable in-place merging" by Pok-Son
// Kim and Arne Kutzner:
//
// https://github.com/BonzaiThePenguin/WikiSort
//
// The slice is the only storage the merge steps use. Each level of the
// bottom-up merge sort pulls up to 2*sqrt(blocklen) distinct values out
// of the slice: the first buffer tags the sqrt-sized A blocks while they
// roll through B, the second serves as swap space for the local merges.
// When the level is finished the pulled values are rotated back into
// their stable positions.

// ValueTypeCompare is the three-way comparator the sort orders by. It
// returns a negative, zero or positive value, must describe a total
// order and must not mutate the slice being sorted.
type ValueTypeCompare func(a, b ValueType) int

// ValueTypeSort sorts a using the provided comparator. It is stable,
// runs in O(n log n) worst case and keeps memory use constant.
func ValueTypeSort(a []ValueType, cmp ValueTypeCompare) {
	s := sorter{a: a, cmp: cmp}
	s.run()
}

// ValueTypeSortWithMap sorts like ValueTypeSort and additionally
// maintains trace, which must have length len(a). It is initialized to
// the identity permutation and updated in lockstep with every element
// move, so that on return a[i] holds the element that started at index
// trace[i].
func ValueTypeSortWithMap(a []ValueType, cmp ValueTypeCompare, trace []int) {
	for i := range a {
		trace[i] = i
	}
	s := sorter{a: a, cmp: cmp, trace: trace}
	s.run()
}

type sorter struct {
	a   []ValueType
	cmp ValueTypeCompare

	// original index of the element currently stored at each position,
	// nil when tracing is off
	trace []int
}

// span is a half-open interval [start, end) of slice positions.
type span struct {
	start, end int
}

func (r span) length() int { return r.end - r.start }

func (s *sorter) compare(i, j int) int {
	return s.cmp(s.a[i], s.a[j])
}

// copyElem copies the element at src over the one at dst.
func (s *sorter) copyElem(dst, src int) {
	if s.trace != nil {
		s.trace[dst] = s.trace[src]
	}
	s.a[dst] = s.a[src]
}

// copyIn places an element held outside the slice at dst, reinstating
// the original index its extraction saved. Scratch values have no trace
// slot, so the index travels through the caller.
func (s *sorter) copyIn(dst int, v ValueType, saved int) {
	if s.trace != nil {
		s.trace[dst] = saved
	}
	s.a[dst] = v
}

// traceOf returns the original index of the element at i, to be handed
// back to copyIn when the element re-enters the slice.
func (s *sorter) traceOf(i int) int {
	if s.trace != nil {
		return s.trace[i]
	}
	return 0
}

func (s *sorter) swapElems(i, j int) {
	if s.trace != nil {
		s.trace[i], s.trace[j] = s.trace[j], s.trace[i]
	}
	s.a[i], s.a[j] = s.a[j], s.a[i]
}

func (s *sorter) blockSwap(a, b, n int) {
	for i := 0; i < n; i++ {
		s.swapElems(a+i, b+i)
	}
}

func floorPow2(x int) int {
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	return x - x>>1
}

func intSqrt(x int) int {
	op, res := x, 0
	one := 1 << (bits.UintSize - 2) // highest power of four that fits
	for one > op {
		one >>= 2
	}
	for one != 0 {
		if op >= res+one {
			op -= res + one
			res += one << 1
		}
		res >>= 1
		one >>= 2
	}
	return res
}

// iterator walks the A/B subarray pairs of one level of the bottom-up
// merge sort. The merge tree is conceptually built over the floored
// power of two, then scaled back to the real size by distributing the
// remainder one element at a time: decimalStep + numeratorStep/denominator
// is the exact average run length, and the accumulated numerator carries
// into decimal exactly as in fixed-point addition. Successive nextRange
// calls therefore partition [0, size) into runs whose lengths differ by
// at most one.
type iterator struct {
	size, powerOfTwo int

	numerator, decimal int

	denominator, decimalStep, numeratorStep int
}

func newIterator(size, minLevel int) iterator {
	it := iterator{size: size}
	it.powerOfTwo = floorPow2(size)
	it.denominator = it.powerOfTwo / minLevel
	it.numeratorStep = size % it.denominator
	it.decimalStep = size / it.denominator
	return it
}

func (it *iterator) begin() {
	it.numerator, it.decimal = 0, 0
}

func (it *iterator) nextRange() span {
	start := it.decimal
	it.decimal += it.decimalStep
	it.numerator += it.numeratorStep
	if it.numerator >= it.denominator {
		it.numerator -= it.denominator
		it.decimal++
	}
	return span{start, it.decimal}
}

func (it *iterator) finished() bool {
	return it.decimal >= it.size
}

// nextLevel doubles the run length. It returns false once a single run
// covers the whole slice, meaning the sort is complete.
func (it *iterator) nextLevel() bool {
	it.decimalStep += it.decimalStep
	it.numeratorStep += it.numeratorStep
	if it.numeratorStep >= it.denominator {
		it.numeratorStep -= it.denominator
		it.decimalStep++
	}
	return it.decimalStep < it.size
}

func (it *iterator) length() int {
	return it.decimalStep
}

// binaryFirst returns the first index within r whose element is >= value,
// assuming r is sorted. This is the leftmost insertion point.
func (s *sorter) binaryFirst(value ValueType, r span) int {
	start, end := r.start, r.end-1
	if r.start >= r.end {
		return r.start
	}
	for start < end {
		mid := start + (end-start)/2
		if s.cmp(s.a[mid], value) < 0 {
			start = mid + 1
		} else {
			end = mid
		}
	}
	if start == r.end-1 && s.cmp(s.a[start], value) < 0 {
		start++
	}
	return start
}

// binaryLast returns the first index within r whose element is > value,
// assuming r is sorted. This is the rightmost insertion point.
func (s *sorter) binaryLast(value ValueType, r span) int {
	start, end := r.start, r.end-1
	if r.start >= r.end {
		return r.end
	}
	for start < end {
		mid := start + (end-start)/2
		if s.cmp(value, s.a[mid]) >= 0 {
			start = mid + 1
		} else {
			end = mid
		}
	}
	if start == r.end-1 && s.cmp(value, s.a[start]) >= 0 {
		start++
	}
	return start
}

// The find variants combine a linear stride with a final binary search,
// which cuts the number of comparisons when the caller has an idea how
// many distinct values the range holds and where the next one might be.

func (s *sorter) findFirstForward(value ValueType, r span, unique int) int {
	if r.length() == 0 {
		return r.start
	}
	skip := max(r.length()/unique, 1)
	index := r.start + skip
	for s.cmp(s.a[index-1], value) < 0 {
		if index >= r.end-skip {
			return s.binaryFirst(value, span{index, r.end})
		}
		index += skip
	}
	return s.binaryFirst(value, span{index - skip, index})
}

func (s *sorter) findLastForward(value ValueType, r span, unique int) int {
	if r.length() == 0 {
		return r.start
	}
	skip := max(r.length()/unique, 1)
	index := r.start + skip
	for s.cmp(value, s.a[index-1]) >= 0 {
		if index >= r.end-skip {
			return s.binaryLast(value, span{index, r.end})
		}
		index += skip
	}
	return s.binaryLast(value, span{index - skip, index})
}

func (s *sorter) findFirstBackward(value ValueType, r span, unique int) int {
	if r.length() == 0 {
		return r.start
	}
	skip := max(r.length()/unique, 1)
	index := r.end - skip
	for index > r.start && s.cmp(s.a[index-1], value) >= 0 {
		if index < r.start+skip {
			return s.binaryFirst(value, span{r.start, index})
		}
		index -= skip
	}
	return s.binaryFirst(value, span{index, index + skip})
}

func (s *sorter) findLastBackward(value ValueType, r span, unique int) int {
	if r.length() == 0 {
		return r.start
	}
	skip := max(r.length()/unique, 1)
	index := r.end - skip
	for index > r.start && s.cmp(value, s.a[index-1]) < 0 {
		if index < r.start+skip {
			return s.binaryLast(value, span{r.start, index})
		}
		index -= skip
	}
	return s.binaryLast(value, span{index, index + skip})
}

// insertionSort sorts tiny chunks of the slice, in particular the second
// internal buffer after the local merges scrambled it.
func (s *sorter) insertionSort(r span) {
	for i := r.start + 1; i < r.end; i++ {
		tmp := s.a[i]
		saved := s.traceOf(i)
		j := i
		for ; j > r.start && s.cmp(tmp, s.a[j-1]) < 0; j-- {
			s.copyElem(j, j-1)
		}
		s.copyIn(j, tmp, saved)
	}
}

func (s *sorter) reverse(r span) {
	for i := r.length() / 2; i > 0; i-- {
		s.swapElems(r.start+i-1, r.end-i)
	}
}

// rotate moves the values in r left by amount ([0 1 2 3] becomes
// [1 2 3 0] when rotated by 1), using three reversals. Assumes
// 0 <= amount <= r.length().
func (s *sorter) rotate(amount int, r span) {
	if r.length() == 0 {
		return
	}
	split := r.start + amount
	s.reverse(span{r.start, split})
	s.reverse(span{split, r.end})
	s.reverse(r)
}

// mergeInternal merges the sorted range B with the former contents of
// the adjacent sorted range A, which the caller has block-swapped into
// buffer. Every placement is a swap, so when it returns buffer holds its
// previous contents permuted. Equal elements are taken from buffer
// first, which keeps the merge stable.
func (s *sorter) mergeInternal(A, B, buffer span) {
	aCount, bCount := 0, 0
	aLen, bLen := A.length(), B.length()
	insert := A.start
	buf := buffer.start

	if bLen > 0 && aLen > 0 {
		b := B.start
		for {
			if s.compare(b, buf) >= 0 {
				s.swapElems(insert, buf)
				insert++
				buf++
				aCount++
				if aCount >= aLen {
					break
				}
			} else {
				s.swapElems(insert, b)
				insert++
				b++
				bCount++
				if bCount >= bLen {
					break
				}
			}
		}
	}

	// swap the remainder of A into the final slice
	s.blockSwap(buf, insert, aLen-aCount)
}

// mergeInPlace merges the adjacent sorted ranges A and B with no buffer
// at all, by binary searching into B and rotating A into position. This
// is O(|A|*|B|) in general, but it only runs when fewer than sqrt(|A|)
// distinct values could be pulled out of the level, which bounds the
// rotations it can actually perform; amortized over a level it stays
// linear. Re-finding the start of A with the rightmost insertion point
// keeps equal elements in input order.
func (s *sorter) mergeInPlace(A, B span) {
	if A.length() == 0 || B.length() == 0 {
		return
	}
	for {
		// find the first place in B where the head of A belongs
		mid := s.binaryFirst(s.a[A.start], B)

		// rotate A into place
		amount := mid - A.end
		s.rotate(A.length(), span{A.start, mid})
		if B.end == mid {
			break
		}

		// recalculate A and B
		B.start = mid
		A = span{A.start + amount, B.start}
		A.start = s.binaryLast(s.a[A.start], A)
		if A.length() == 0 {
			break
		}
	}
}

// pullDesc records one buffer extraction: the subarray r it came from,
// how many distinct values were harvested, the position they were
// harvested around, and the end of r they were gathered at. The level's
// final redistribution consults it to put the values back.
type pullDesc struct {
	from, to, count int
	r               span
}

func (s *sorter) run() {
	size := len(s.a)

	// slices of size 0 to 3 are sorted with hard-coded swaps
	if size < 4 {
		if size == 3 {
			if s.compare(1, 0) < 0 {
				s.swapElems(0, 1)
			}
			if s.compare(2, 1) < 0 {
				s.swapElems(1, 2)
				if s.compare(1, 0) < 0 {
					s.swapElems(0, 1)
				}
			}
		} else if size == 2 {
			if s.compare(1, 0) < 0 {
				s.swapElems(0, 1)
			}
		}
		return
	}

	// sort groups of 4-8 elements using an unstable sorting network,
	// made stable by tracking each element's order within the group and
	// using it as the tiebreaker for equal elements
	// http://pages.ripco.net/~jgamble/nw.html
	iter := newIterator(size, 4)
	for iter.begin(); !iter.finished(); {
		order := [8]uint8{0, 1, 2, 3, 4, 5, 6, 7}
		r := iter.nextRange()

		swapIf := func(x, y int) {
			c := s.compare(r.start+x, r.start+y)
			if c > 0 || (c == 0 && order[x] > order[y]) {
				order[x], order[y] = order[y], order[x]
				s.swapElems(r.start+x, r.start+y)
			}
		}

		switch r.length() {
		case 8:
			swapIf(0, 1)
			swapIf(2, 3)
			swapIf(4, 5)
			swapIf(6, 7)
			swapIf(0, 2)
			swapIf(1, 3)
			swapIf(4, 6)
			swapIf(5, 7)
			swapIf(1, 2)
			swapIf(5, 6)
			swapIf(0, 4)
			swapIf(3, 7)
			swapIf(1, 5)
			swapIf(2, 6)
			swapIf(1, 4)
			swapIf(3, 6)
			swapIf(2, 4)
			swapIf(3, 5)
			swapIf(3, 4)
		case 7:
			swapIf(1, 2)
			swapIf(3, 4)
			swapIf(5, 6)
			swapIf(0, 2)
			swapIf(3, 5)
			swapIf(4, 6)
			swapIf(0, 1)
			swapIf(4, 5)
			swapIf(2, 6)
			swapIf(0, 4)
			swapIf(1, 5)
			swapIf(0, 3)
			swapIf(2, 5)
			swapIf(1, 3)
			swapIf(2, 4)
			swapIf(2, 3)
		case 6:
			swapIf(1, 2)
			swapIf(4, 5)
			swapIf(0, 2)
			swapIf(3, 5)
			swapIf(0, 1)
			swapIf(3, 4)
			swapIf(2, 5)
			swapIf(0, 3)
			swapIf(1, 4)
			swapIf(2, 4)
			swapIf(1, 3)
			swapIf(2, 3)
		case 5:
			swapIf(0, 1)
			swapIf(3, 4)
			swapIf(2, 4)
			swapIf(2, 3)
			swapIf(1, 4)
			swapIf(0, 3)
			swapIf(0, 2)
			swapIf(1, 3)
			swapIf(1, 2)
		case 4:
			swapIf(0, 1)
			swapIf(2, 3)
			swapIf(0, 2)
			swapIf(1, 3)
			swapIf(1, 2)
		}
	}
	if size < 8 {
		return
	}

	// Each pass of this loop merges the A and B subarray pairs of one
	// level of the bottom-up merge sort:
	//  1. pull out two internal buffers, each holding sqrt(blocklen)
	//     distinct values (adjusting the block and buffer sizes when the
	//     slice didn't contain enough distinct values)
	//  2. break each A into blocks of size blockSize and tag every full
	//     A block with a value from the first buffer
	//  3. roll the A blocks through the B blocks, dropping each minimum
	//     A block where it belongs and locally merging the previously
	//     dropped one, using the second buffer when it exists
	//  4. insertion sort the second buffer, which the merges scrambled
	//  5. redistribute both buffers back into the slice
	for {
		blockSize := intSqrt(iter.length())
		bufferSize := iter.length()/blockSize + 1

		// the buffers are pulled out only once per level and reused for
		// every A/B pair, then redistributed when the level is finished
		var buffer1, buffer2, A, B span
		var index, last, count, find, start int
		var pull [2]pullDesc
		pullIndex := 0

		// a single contiguous run of 2*bufferSize distinct values is
		// preferred, since it splits into both buffers at once; if no
		// subarray is that long the two buffers are found separately
		find = bufferSize + bufferSize
		findSeparately := false
		if find > iter.length() {
			find = bufferSize
			findSeparately = true
		}

		// Walk the level once to find the buffers: either one section of
		// 2*bufferSize distinct values, or one of < 2*bufferSize plus a
		// second of bufferSize, or failing both the largest section there
		// is. In that last case the local merges fall back to the
		// bufferless mergeInPlace.
		for iter.begin(); !iter.finished(); {
			A = iter.nextRange()
			B = iter.nextRange()

			// count distinct values at the front of A; they would be
			// pulled out to the start of A
			last = A.start
			count = 1
			for count < find {
				index = s.findLastForward(s.a[last], span{last + 1, A.end}, find-count)
				if index == A.end {
					break
				}
				last = index
				count++
			}
			index = last

			if count >= bufferSize {
				pull[pullIndex] = pullDesc{from: index, to: A.start, count: count, r: span{A.start, B.end}}
				pullIndex = 1

				if count == bufferSize+bufferSize {
					// one section is large enough to hold both buffers
					buffer1 = span{A.start, A.start + bufferSize}
					buffer2 = span{A.start + bufferSize, A.start + count}
					break
				} else if find == bufferSize+bufferSize {
					// at least bufferSize distinct values, but not the
					// full 2*bufferSize: settle for this as the first
					// buffer and find the second one elsewhere
					buffer1 = span{A.start, A.start + count}
					find = bufferSize
				} else if findSeparately {
					// found one buffer, now find the other
					buffer1 = span{A.start, A.start + count}
					findSeparately = false
				} else {
					buffer2 = span{A.start, A.start + count}
					break
				}
			} else if pullIndex == 0 && count > buffer1.length() {
				// largest section found so far
				buffer1 = span{A.start, A.start + count}
				pull[0] = pullDesc{from: index, to: A.start, count: count, r: span{A.start, B.end}}
			}

			// count distinct values at the back of B; they would be
			// pulled out to the end of B
			last = B.end - 1
			count = 1
			for count < find {
				index = s.findFirstBackward(s.a[last], span{B.start, last}, find-count)
				if index == B.start {
					break
				}
				last = index - 1
				count++
			}
			index = last

			if count >= bufferSize {
				pull[pullIndex] = pullDesc{from: index, to: B.end, count: count, r: span{A.start, B.end}}
				pullIndex = 1

				if count == bufferSize+bufferSize {
					buffer1 = span{B.end - count, B.end - bufferSize}
					buffer2 = span{B.end - bufferSize, B.end}
					break
				} else if find == bufferSize+bufferSize {
					buffer1 = span{B.end - count, B.end}
					find = bufferSize
				} else if findSeparately {
					buffer1 = span{B.end - count, B.end}
					findSeparately = false
				} else {
					// the second buffer comes out of this B subarray; if
					// the first one came out of the paired A subarray,
					// shorten its redistribution range so it stops before
					// reaching the second buffer
					if pull[0].r.start == A.start {
						pull[0].r.end -= pull[1].count
					}
					buffer2 = span{B.end - count, B.end}
					break
				}
			} else if pullIndex == 0 && count > buffer1.length() {
				buffer1 = span{B.end - count, B.end}
				pull[pullIndex] = pullDesc{from: index, to: B.end, count: count, r: span{A.start, B.end}}
			}
		}

		// pull the chosen values out to the edge of their subarray, one
		// unique value at a time, rotating each next unique up against
		// the growing buffer
		for pi := 0; pi < 2; pi++ {
			length := pull[pi].count
			if pull[pi].to < pull[pi].from {
				// pulling out to the left, the start of an A subarray
				index = pull[pi].from
				for count = 1; count < length; count++ {
					index = s.findFirstBackward(s.a[index-1], span{pull[pi].to, pull[pi].from - (count - 1)}, length-count)
					r := span{index + 1, pull[pi].from + 1}
					s.rotate(r.length()-count, r)
					pull[pi].from = index + count
				}
			} else if pull[pi].to > pull[pi].from {
				// pulling out to the right, the end of a B subarray
				index = pull[pi].from + 1
				for count = 1; count < length; count++ {
					index = s.findLastForward(s.a[index], span{index, pull[pi].to}, length-count)
					r := span{pull[pi].from, index - 1}
					s.rotate(count, r)
					pull[pi].from = index - 1 - count
				}
			}
		}

		// adjust blockSize and bufferSize to whatever was actually
		// pulled out; buffer1 needs one tag per full A block
		bufferSize = buffer1.length()
		blockSize = iter.length()/bufferSize + 1

		// walk the level again and merge each A/B pair
		for iter.begin(); !iter.finished(); {
			A = iter.nextRange()
			B = iter.nextRange()

			// trim off the parts of A and B the internal buffers occupy;
			// skip the pair entirely when a buffer swallowed it, which
			// only happens for very small subarrays
			start = A.start
			if start == pull[0].r.start {
				if pull[0].from > pull[0].to {
					A.start += pull[0].count
					if A.length() == 0 {
						continue
					}
				} else if pull[0].from < pull[0].to {
					B.end -= pull[0].count
					if B.length() == 0 {
						continue
					}
				}
			}
			if start == pull[1].r.start {
				if pull[1].from > pull[1].to {
					A.start += pull[1].count
					if A.length() == 0 {
						continue
					}
				} else if pull[1].from < pull[1].to {
					B.end -= pull[1].count
					if B.length() == 0 {
						continue
					}
				}
			}

			if s.compare(B.end-1, A.start) < 0 {
				// the two ranges are in reverse order: one rotation fixes it
				s.rotate(A.length(), span{A.start, B.end})
			} else if s.compare(A.end, A.end-1) < 0 {
				// the ranges are not already ordered across the seam, so
				// they need an actual merge

				// break A into blocks; firstA is the unevenly sized head block
				blockA := span{A.start, A.end}
				firstA := span{A.start, A.start + blockA.length()%blockSize}

				// tag each full A block by swapping its first element
				// with the next value in buffer1
				indexA := buffer1.start
				for index := firstA.end; index < blockA.end; index += blockSize {
					s.swapElems(indexA, index)
					indexA++
				}

				// lastA is the most recently dropped A block, awaiting
				// its local merge; lastB holds the B elements already
				// rolled past; blockB is the next B block
				lastA := firstA
				lastB := span{}
				blockB := span{B.start, B.start + min(blockSize, B.length())}
				blockA.start += firstA.length()
				indexA = buffer1.start

				// the head block serves as the first lastA; park it in
				// the second buffer so its slot is free for merging
				if buffer2.length() > 0 {
					s.blockSwap(lastA.start, buffer2.start, lastA.length())
				}

				if blockA.length() > 0 {
					for {
						if (lastB.length() > 0 && s.compare(lastB.end-1, indexA) >= 0) || blockB.length() == 0 {
							// the minimum A block belongs before the end of
							// lastB (or no B blocks remain): drop it here

							// split lastB where the A block's head belongs
							bSplit := s.binaryFirst(s.a[indexA], lastB)
							bRemaining := lastB.end - bSplit

							// the A blocks are each sorted, so their first
							// elements suffice to find the minimum block;
							// swap it to the front of the rolling blocks
							minA := blockA.start
							for findA := minA + blockSize; findA < blockA.end; findA += blockSize {
								if s.compare(findA, minA) < 0 {
									minA = findA
								}
							}
							s.blockSwap(blockA.start, minA, blockSize)

							// restore the tagged first element from buffer1
							s.swapElems(blockA.start, indexA)
							indexA++

							// locally merge the previous A block with the B
							// elements that follow it
							if buffer2.length() > 0 {
								s.mergeInternal(lastA, span{lastA.end, bSplit}, buffer2)
							} else {
								s.mergeInPlace(lastA, span{lastA.end, bSplit})
							}

							if buffer2.length() > 0 {
								// park the dropped A block in buffer2 for
								// its upcoming merge, then block swap the
								// remaining B elements into the vacated
								// slot; the slot's order doesn't matter,
								// so this beats rotating
								s.blockSwap(blockA.start, buffer2.start, blockSize)
								s.blockSwap(bSplit, blockA.start+blockSize-bRemaining, bRemaining)
							} else {
								s.rotate(blockA.start-bSplit, span{bSplit, blockA.start + blockSize})
							}

							lastA = span{blockA.start - bRemaining, blockA.start - bRemaining + blockSize}
							lastB = span{lastA.end, lastA.end + bRemaining}

							blockA.start += blockSize
							if blockA.length() == 0 {
								break
							}
						} else if blockB.length() < blockSize {
							// the last B block is unevenly sized; rotate it
							// in front of the remaining A blocks
							s.rotate(blockB.start-blockA.start, span{blockA.start, blockB.end})

							lastB = span{blockA.start, blockA.start + blockB.length()}
							blockA.start += blockB.length()
							blockA.end += blockB.length()
							blockB.end = blockB.start
						} else {
							// roll the leftmost A block past the next B block
							s.blockSwap(blockA.start, blockB.start, blockSize)
							lastB = span{blockA.start, blockA.start + blockSize}

							blockA.start += blockSize
							blockA.end += blockSize
							blockB.start += blockSize
							if blockB.end > B.end-blockSize {
								blockB.end = B.end
							} else {
								blockB.end += blockSize
							}
						}
					}
				}

				// merge the final A block with whatever remains of B
				if buffer2.length() > 0 {
					s.mergeInternal(lastA, span{lastA.end, B.end}, buffer2)
				} else {
					s.mergeInPlace(lastA, span{lastA.end, B.end})
				}
			}
		}

		// the merges permuted the second buffer; put it back in order.
		// insertion sort does well here because the values are already
		// roughly sorted.
		s.insertionSort(buffer2)

		// redistribute the pulled values back to their stable positions,
		// the reverse of the extraction
		for pi := 0; pi < 2; pi++ {
			unique := pull[pi].count * 2
			if pull[pi].from > pull[pi].to {
				// values were pulled out to the left, send them back right
				buffer := span{pull[pi].r.start, pull[pi].r.start + pull[pi].count}
				for buffer.length() > 0 {
					index = s.findFirstForward(s.a[buffer.start], span{buffer.end, pull[pi].r.end}, unique)
					amount := index - buffer.end
					s.rotate(buffer.length(), span{buffer.start, index})
					buffer.start += amount + 1
					buffer.end += amount
					unique -= 2
				}
			} else if pull[pi].from < pull[pi].to {
				// values were pulled out to the right, send them back left
				buffer := span{pull[pi].r.end - pull[pi].count, pull[pi].r.end}
				for buffer.length() > 0 {
					index = s.findLastBackward(s.a[buffer.end-1], span{pull[pi].r.start, buffer.start}, unique)
					amount := buffer.start - index
					s.rotate(amount, span{index, buffer.end})
					buffer.start -= amount
					buffer.end -= amount + 1
					unique -= 2
				}
			}
		}

		// double the subarray size for the next level
		if !iter.nextLevel() {
			break
		}
	}
}
