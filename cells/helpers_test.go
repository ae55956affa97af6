package cells_test

import (
	"github.com/delaneyj/cellgraph/cells"
)

type recordingTracer struct {
	cells.NopTracer
	started    []string
	finished   []cells.FlushStats
	recomputed []string
	ran        []string
	pruned     int
}

func (r *recordingTracer) FlushStarted(tx string, pending int) {
	r.started = append(r.started, tx)
}

func (r *recordingTracer) FlushFinished(tx string, stats cells.FlushStats) {
	r.finished = append(r.finished, stats)
}

func (r *recordingTracer) Recomputed(name string) {
	r.recomputed = append(r.recomputed, name)
}

func (r *recordingTracer) EffectRan(name string) {
	r.ran = append(r.ran, name)
}

func (r *recordingTracer) Pruned(count int) {
	r.pruned += count
}

// recoverError runs fn and returns the error it panicked with, if any.
func recoverError(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()
	fn()
	return nil
}
