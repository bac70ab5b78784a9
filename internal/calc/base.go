package calc

import (
	"runtime"
	"sync"
)

// PipeLine fans row-wise work out to a fixed set of goroutines
type PipeLine struct {
	numPoper int
}

// Init returns a compute PipeLine. numPoper < 1 uses one worker per CPU.
func Init(numPoper int) *PipeLine {
	if numPoper < 1 {
		numPoper = runtime.NumCPU()
	}

	return &PipeLine{numPoper: numPoper}
}

// GetNP returns the number of workers
func (p *PipeLine) GetNP() int {
	return p.numPoper
}

func poper(fn func(index int), order <-chan int, wg *sync.WaitGroup) {
	for {
		index, ok := <-order
		if ok {
			fn(index)
			wg.Done()
		} else {
			break
		}
	}

	return
}

// each calls fn once for every index in [0, n) and returns when all calls are done.
// fn must only write state owned by its index.
func (p *PipeLine) each(n int, fn func(index int)) {
	if n == 0 {
		return
	}

	order := make(chan int, p.numPoper)
	var wg sync.WaitGroup

	wg.Add(n)

	for i := 0; i < p.numPoper; i++ {
		go poper(fn, order, &wg)
	}

	for i := 0; i < n; i++ {
		order <- i
	}

	wg.Wait()
	close(order)
	return
}

type statistic struct {
	avg float64
	std float64
}
