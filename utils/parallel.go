package utils

import (
	"math"
	"runtime"
	"sync"

	"go.viam.com/utils"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
}

type (
	// MemberWorkFunc runs for each work item (member) of a group.
	MemberWorkFunc func(memberNum, workNum int)
	// GroupWorkFunc runs to determine what work members should do, if any.
	GroupWorkFunc func(groupNum, groupSize, from, to int) MemberWorkFunc
)

// GroupWorkParallel splits [0, totalSize) into contiguous ranges, one per group, and
// runs every group on its own goroutine. It returns once all groups are done. If any
// work panics, the first recovered value is re-panicked on the calling goroutine.
func GroupWorkParallel(totalSize int, groupWork GroupWorkFunc) {
	if totalSize <= 0 {
		return
	}
	numGroups := MinInt(ParallelFactor, totalSize)
	groupSize := int(math.Floor(float64(totalSize) / float64(numGroups)))
	extra := totalSize - groupSize*numGroups

	var (
		wait      sync.WaitGroup
		panicOnce sync.Once
		panicked  interface{}
	)
	wait.Add(numGroups)
	for groupNum := 0; groupNum < numGroups; groupNum++ {
		groupNumCopy := groupNum
		utils.PanicCapturingGo(func() {
			defer wait.Done()
			defer func() {
				if r := recover(); r != nil {
					panicOnce.Do(func() { panicked = r })
				}
			}()
			groupNum := groupNumCopy

			thisGroupSize := groupSize
			thisExtra := 0
			if groupNum == (numGroups - 1) {
				thisExtra = extra
				thisGroupSize += thisExtra
			}
			from := groupSize * groupNum
			to := (groupSize * (groupNum + 1)) + thisExtra
			memberWork := groupWork(groupNum, thisGroupSize, from, to)
			if memberWork == nil {
				return
			}
			memberNum := 0
			for workNum := from; workNum < to; workNum++ {
				memberWork(memberNum, workNum)
				memberNum++
			}
		})
	}
	wait.Wait()
	if panicked != nil {
		panic(panicked)
	}
}

// ParallelForEachIndex calls f once for every index in [0, n). Calls for different
// indices may run concurrently, so f must only write state owned by its index.
func ParallelForEachIndex(n int, f func(i int)) {
	GroupWorkParallel(n, func(groupNum, groupSize, from, to int) MemberWorkFunc {
		return func(memberNum, workNum int) {
			f(workNum)
		}
	})
}
