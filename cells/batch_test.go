package cells_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/delaneyj/cellgraph/cells"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchConvergence(t *testing.T) {
	rs := cells.CreateReactiveSystem()
	a := cells.Signal(rs, 0)
	plusOne := cells.Derive(rs, func(sc *cells.Scope) int {
		return a.Read(sc) + 1
	})

	var seen []int
	rs.Effect(func(sc *cells.Scope) cells.Cleanup {
		seen = append(seen, plusOne.Read(sc))
		return nil
	})

	rs.Batch(func(sc *cells.Scope) {
		a.Write(1)
		a.Write(2)
		rs.Batch(func(sc *cells.Scope) {
			a.Write(2)
		})
		assert.Equal(t, []int{1}, seen)
	})
	assert.Equal(t, []int{1, 3}, seen)
}

func TestStartEndBatch(t *testing.T) {
	rs := cells.CreateReactiveSystem()
	a := cells.Signal(rs, 0)
	b := cells.Signal(rs, 0)

	runs := 0
	rs.Effect(func(sc *cells.Scope) cells.Cleanup {
		a.Read(sc)
		b.Read(sc)
		runs++
		return nil
	})

	rs.StartBatch()
	a.Write(1)
	b.Write(1)
	assert.Equal(t, 1, runs)
	rs.EndBatch()
	assert.Equal(t, 2, runs)
}

func TestBatchFlushesWhenBodyPanics(t *testing.T) {
	rs := cells.CreateReactiveSystem()
	a := cells.Signal(rs, 0)

	var seen []int
	rs.Effect(func(sc *cells.Scope) cells.Cleanup {
		seen = append(seen, a.Read(sc))
		return nil
	})

	assert.PanicsWithValue(t, "oops", func() {
		rs.Batch(func(sc *cells.Scope) {
			a.Write(1)
			panic("oops")
		})
	})
	assert.Equal(t, []int{0, 1}, seen)

	a.Write(2)
	assert.Equal(t, []int{0, 1, 2}, seen)
}

func TestEffectWritesFoldIntoFlush(t *testing.T) {
	rs := cells.CreateReactiveSystem()
	a := cells.Signal(rs, 1)
	doubled := cells.Signal(rs, 0)

	rs.Effect(func(sc *cells.Scope) cells.Cleanup {
		doubled.Write(a.Read(sc) * 2)
		return nil
	})
	assert.Equal(t, 2, doubled.Peek())

	var seen []int
	rs.Effect(func(sc *cells.Scope) cells.Cleanup {
		seen = append(seen, doubled.Read(sc))
		return nil
	})

	a.Write(3)
	assert.Equal(t, 6, doubled.Peek())
	assert.Equal(t, []int{2, 6}, seen)
}

func TestEffectConvergesOnItsOwnWrites(t *testing.T) {
	rs := cells.CreateReactiveSystem()
	count := cells.Signal(rs, 0)

	runs := 0
	rs.Effect(func(sc *cells.Scope) cells.Cleanup {
		runs++
		if v := count.Read(sc); v < 3 {
			count.Write(v + 1)
		}
		return nil
	})
	assert.Equal(t, 4, runs)
	assert.Equal(t, 3, count.Peek())

	count.Write(10)
	assert.Equal(t, 5, runs)
	assert.Equal(t, 10, count.Peek())
}

func TestEffectSeesItsOwnWriteThroughDerived(t *testing.T) {
	rs := cells.CreateReactiveSystem()
	b := cells.Signal(rs, 1)
	d := cells.Derive(rs, func(sc *cells.Scope) int {
		return b.Read(sc) * 10
	})

	var seen []int
	rs.Effect(func(sc *cells.Scope) cells.Cleanup {
		v := d.Read(sc)
		seen = append(seen, v)
		if v == 10 {
			b.Write(2)
		}
		return nil
	})
	assert.Equal(t, []int{10, 20}, seen)
	assert.Equal(t, 2, b.Peek())

	// Reading afterwards must not run anything.
	assert.Equal(t, 20, d.Peek())
	assert.Equal(t, []int{10, 20}, seen)
}

func TestSelfFeedingEffectIsRunaway(t *testing.T) {
	var got []error
	rs := cells.CreateReactiveSystem(
		cells.WithMaxFlushRounds(5),
		cells.WithOnError(func(err error) {
			got = append(got, err)
		}),
	)
	a := cells.Signal(rs, 0)
	rs.Effect(func(sc *cells.Scope) cells.Cleanup {
		a.Write(a.Read(sc) + 1)
		return nil
	})

	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0], cells.ErrRunaway)
	assert.Equal(t, 6, a.Peek())
}

func TestResetRefusesOpenTransactions(t *testing.T) {
	rs := cells.CreateReactiveSystem()
	a := cells.Signal(rs, 0)

	rs.Batch(func(sc *cells.Scope) {
		assert.PanicsWithValue(t, cells.ErrResetInProgress, func() {
			rs.Reset()
		})
	})

	var seen []int
	rs.Effect(func(sc *cells.Scope) cells.Cleanup {
		v := a.Read(sc)
		seen = append(seen, v)
		if v == 0 {
			assert.PanicsWithValue(t, cells.ErrResetInProgress, func() {
				rs.Reset()
			})
		}
		return nil
	})

	rs.Batch(func(sc *cells.Scope) {
		a.Write(1)
		a.Write(2)
	})
	assert.Equal(t, []int{0, 2}, seen)
	assert.Equal(t, 1, rs.ActiveEffects())
}

func TestEndBatchWithoutStartPanics(t *testing.T) {
	rs := cells.CreateReactiveSystem()
	a := cells.Signal(rs, 0)

	assert.PanicsWithValue(t, cells.ErrUnbalancedBatch, func() {
		rs.EndBatch()
	})

	var seen []int
	rs.Effect(func(sc *cells.Scope) cells.Cleanup {
		seen = append(seen, a.Read(sc))
		return nil
	})
	rs.StartBatch()
	a.Write(1)
	a.Write(2)
	rs.EndBatch()
	assert.Equal(t, []int{0, 2}, seen)
}

func TestFlushIsolatesFailures(t *testing.T) {
	rs := cells.CreateReactiveSystem()
	a := cells.Signal(rs, 0)

	var ran []string
	rs.Effect(func(sc *cells.Scope) cells.Cleanup {
		if a.Read(sc) == 1 {
			panic("boom")
		}
		ran = append(ran, "first")
		return nil
	}, cells.EffectName("first"))
	rs.Effect(func(sc *cells.Scope) cells.Cleanup {
		a.Read(sc)
		ran = append(ran, "second")
		return nil
	}, cells.EffectName("second"))
	ran = nil

	err := recoverError(func() {
		a.Write(1)
	})
	var fe *cells.FlushError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 1, fe.Len())
	assert.Equal(t, []string{"second"}, ran)

	var se *cells.SubscriberError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "first", se.Name)
	assert.Equal(t, "effect", se.Kind)
	assert.Equal(t, "boom", se.Value)

	a.Write(2)
	assert.Equal(t, []string{"second", "first", "second"}, ran)
}

func TestFlushErrorNamesTransaction(t *testing.T) {
	rs := cells.CreateReactiveSystem()
	a := cells.Signal(rs, 0)
	errBad := errors.New("bad value")
	rs.Effect(func(sc *cells.Scope) cells.Cleanup {
		if a.Read(sc) > 0 {
			panic(errBad)
		}
		return nil
	})

	err := recoverError(func() {
		rs.BatchNamed("import", func(sc *cells.Scope) {
			a.Write(1)
		})
	})
	require.ErrorIs(t, err, errBad)
	assert.Contains(t, err.Error(), `tx "import"`)
}

func TestFailingDerivedRecoversOnNextChange(t *testing.T) {
	rs := cells.CreateReactiveSystem()
	a := cells.Signal(rs, 0)
	d := cells.Derive(rs, func(sc *cells.Scope) int {
		v := a.Read(sc)
		if v < 0 {
			panic("negative")
		}
		return v
	})

	var seen []int
	rs.Effect(func(sc *cells.Scope) cells.Cleanup {
		seen = append(seen, d.Read(sc))
		return nil
	})

	err := recoverError(func() {
		a.Write(-1)
	})
	var fe *cells.FlushError
	require.ErrorAs(t, err, &fe)

	a.Write(4)
	assert.Equal(t, []int{0, 4}, seen)
}

func TestOnErrorReceivesFailures(t *testing.T) {
	var got []error
	rs := cells.CreateReactiveSystem(cells.WithOnError(func(err error) {
		got = append(got, err)
	}))
	a := cells.Signal(rs, 0)
	errBad := errors.New("bad")
	rs.Effect(func(sc *cells.Scope) cells.Cleanup {
		if a.Read(sc) > 0 {
			panic(errBad)
		}
		return nil
	})

	assert.NotPanics(t, func() {
		a.Write(1)
	})
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0], errBad)
}

func TestRunawayFlushIsStopped(t *testing.T) {
	var got []error
	rs := cells.CreateReactiveSystem(
		cells.WithMaxFlushRounds(10),
		cells.WithOnError(func(err error) {
			got = append(got, err)
		}),
	)
	a := cells.Signal(rs, 0)
	b := cells.Signal(rs, 0)
	rs.Effect(func(sc *cells.Scope) cells.Cleanup {
		b.Write(a.Read(sc) + 1)
		return nil
	})
	rs.Effect(func(sc *cells.Scope) cells.Cleanup {
		a.Write(b.Read(sc) + 1)
		return nil
	})

	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0], cells.ErrRunaway)
}

func TestTracerSeesTransactions(t *testing.T) {
	tracer := &recordingTracer{}
	rs := cells.CreateReactiveSystem(cells.WithTracer(tracer))
	a := cells.Signal(rs, 1)
	double := cells.Derive(rs, func(sc *cells.Scope) int {
		return a.Read(sc) * 2
	}, cells.WithName[int]("double"))
	rs.Effect(func(sc *cells.Scope) cells.Cleanup {
		double.Read(sc)
		return nil
	}, cells.EffectName("view"))

	assert.Equal(t, []string{"view"}, tracer.ran)
	assert.Equal(t, []string{"double"}, tracer.recomputed)
	assert.Empty(t, tracer.started)

	rs.BatchNamed("save", func(sc *cells.Scope) {
		a.Write(2)
		a.Write(3)
	})
	assert.Equal(t, []string{"save"}, tracer.started)
	require.Len(t, tracer.finished, 1)
	assert.Equal(t, 1, tracer.finished[0].Rounds)
	assert.Equal(t, 1, tracer.finished[0].Notified)
	assert.Equal(t, 0, tracer.finished[0].Failed)
	assert.Equal(t, []string{"view", "view"}, tracer.ran)
	assert.Equal(t, []string{"double", "double"}, tracer.recomputed)
}

func TestLoggerReportsFlushes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rs := cells.CreateReactiveSystem(
		cells.WithLogger(logger),
		cells.WithOnError(func(error) {}),
	)
	a := cells.Signal(rs, 0)
	rs.Effect(func(sc *cells.Scope) cells.Cleanup {
		if a.Read(sc) == 2 {
			panic("two")
		}
		return nil
	}, cells.EffectName("picky"))

	rs.BatchNamed("first", func(sc *cells.Scope) {
		a.Write(1)
	})
	out := buf.String()
	assert.Contains(t, out, "flush started")
	assert.Contains(t, out, "tx=first")
	assert.Contains(t, out, "flush finished")

	a.Write(2)
	out = buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "name=picky")
}

func TestMultiTracerFansOut(t *testing.T) {
	first, second := &recordingTracer{}, &recordingTracer{}
	rs := cells.CreateReactiveSystem(cells.WithTracer(cells.MultiTracer(first, second)))
	a := cells.Signal(rs, 0)
	rs.Effect(func(sc *cells.Scope) cells.Cleanup {
		a.Read(sc)
		return nil
	}, cells.EffectName("watch"))
	a.Write(1)

	for _, tr := range []*recordingTracer{first, second} {
		assert.Equal(t, []string{"watch", "watch"}, tr.ran)
		assert.Equal(t, []string{""}, tr.started)
	}
}
