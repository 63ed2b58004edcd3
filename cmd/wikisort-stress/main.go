// wikisort-stress exercises the sort with the bucketed-counter scenario:
// records carry a bucket key the comparator orders by and a per-bucket
// counter it never sees. After sorting, every record's stable rank
// (bucket offset plus counter) must equal its position, and the trace
// map must agree.
//
// Usage:
//
//	wikisort-stress [flags]
//
//	-n, --count       Number of records to sort (default 9718187)
//	-k, --keys        Number of distinct bucket keys (default 1927)
//	-s, --seed        Seed for the record generator (default 1)
//	    --verify      Check stable ranks and the trace map (default true)
package main

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/torsten-schenk/wikisort"
)

const recordWidth = 8

func compareBucket(a, b []byte) int {
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

func main() {
	count := flag.IntP("count", "n", 9718187, "number of records to sort")
	keys := flag.IntP("keys", "k", 1927, "number of distinct bucket keys")
	seed := flag.Int64P("seed", "s", 1, "seed for the record generator")
	verify := flag.Bool("verify", true, "check stable ranks and the trace map")
	flag.Parse()

	if *count < 0 || *keys < 1 || *keys > 1<<31-1 {
		fmt.Fprintln(os.Stderr, "error: --count must be >= 0 and --keys in [1, 2^31)")
		os.Exit(2)
	}

	n := *count
	buckets := int32(*keys)

	rng := rand.New(rand.NewSource(*seed))
	sizes := make([]int32, buckets)
	data := make([]byte, recordWidth*n)
	bucketOf := make([]int32, n)
	counterOf := make([]int32, n)
	for i := 0; i < n; i++ {
		k := rng.Int31n(buckets)
		bucketOf[i] = k
		counterOf[i] = sizes[k]
		binary.LittleEndian.PutUint32(data[i*recordWidth:], uint32(k))
		binary.LittleEndian.PutUint32(data[i*recordWidth+4:], uint32(sizes[k]))
		sizes[k]++
	}

	offsets := make([]int, buckets)
	for k := int32(1); k < buckets; k++ {
		offsets[k] = offsets[k-1] + int(sizes[k-1])
	}
	expect := make([]int, n)
	for i := 0; i < n; i++ {
		expect[i] = offsets[bucketOf[i]] + int(counterOf[i])
	}

	trace := make([]int, n)
	started := time.Now()
	wikisort.SortWithMap(data, n, recordWidth, compareBucket, trace)
	elapsed := time.Since(started)
	fmt.Fprintf(os.Stderr, "sorted %d records over %d keys in %v\n", n, buckets, elapsed)

	if !*verify {
		return
	}

	failures := 0
	for i := 0; i < n; i++ {
		k := int32(binary.LittleEndian.Uint32(data[i*recordWidth:]))
		c := int32(binary.LittleEndian.Uint32(data[i*recordWidth+4:]))
		if offsets[k]+int(c) != i {
			fmt.Fprintf(os.Stderr, "error: stable rank broken at %d: key %d counter %d\n", i, k, c)
			failures++
		}
		if expect[trace[i]] != i {
			fmt.Fprintf(os.Stderr, "error: trace rank broken at %d: trace %d\n", i, trace[i])
			failures++
		}
		if failures > 10 {
			fmt.Fprintln(os.Stderr, "error: giving up after 10 failures")
			os.Exit(1)
		}
	}
	if failures > 0 {
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, "verified")
}
