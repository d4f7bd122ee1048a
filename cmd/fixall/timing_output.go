package main

import (
	"fmt"
	"io"

	"fixall/internal/fixcache"
	"fixall/internal/observ"
)

func printTimings(out io.Writer, timer *observ.Timer, cache *fixcache.Provider) {
	if out == nil || timer == nil {
		return
	}
	fmt.Fprint(out, timer.Summary())
	if cache != nil {
		st := cache.Stats()
		fmt.Fprintf(out, "cache: %d memory hits, %d disk hits, %d misses\n", st.MemoryHits, st.DiskHits, st.Misses)
	}
}
