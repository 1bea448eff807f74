package workpool

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Run 以最多 workers 个 goroutine 并发执行 fn(0..n-1)，返回第一个错误。
// 任务之间不共享可变状态，调用方按下标收集结果即可。
func Run(n, workers int, fn func(i int) error) error {
	if n <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var g errgroup.Group
	g.SetLimit(min(workers, n))
	for i := range n {
		g.Go(func() error { return fn(i) })
	}
	return g.Wait()
}
