package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/delaneyj/cellgraph/cells"
	"github.com/delaneyj/cellgraph/pkg/metrics"
	"github.com/delaneyj/cellgraph/pkg/tracing"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
)

const (
	sizesKey   = "sizes"
	itersKey   = "iters"
	pgoKey     = "pgo"
	verifyKey  = "verify"
	metricsKey = "metrics"
	traceKey   = "trace"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure propagation through width x height chains of derived cells",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  sizesKey,
				Usage: "Comma separated widths and heights to combine",
				Value: "1,10,100,1000",
			},
			&cli.UintFlag{
				Name:  itersKey,
				Usage: "Writes measured per graph",
				Value: 100,
			},
			&cli.StringFlag{
				Name:  pgoKey,
				Usage: "Write a CPU profile usable for PGO to this path",
			},
			&cli.BoolFlag{
				Name:  verifyKey,
				Usage: "Check that batched and unbatched writes are observed identically",
			},
			&cli.BoolFlag{
				Name:  metricsKey,
				Usage: "Collect engine metrics and print them after the run",
			},
			&cli.BoolFlag{
				Name:  traceKey,
				Usage: "Report flushes to the global OpenTelemetry tracer provider",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	sizes, err := parseSizes(cmd.String(sizesKey))
	if err != nil {
		return err
	}
	iters := int(cmd.Uint(itersKey))
	if iters <= 0 {
		return fmt.Errorf("%s must be positive", itersKey)
	}

	if path := cmd.String(pgoKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	b := &bench{
		sizes: sizes,
		iters: iters,
	}
	var reg *prometheus.Registry
	if cmd.Bool(metricsKey) {
		reg = prometheus.NewRegistry()
		b.collector = metrics.New(metrics.WithRegistry(reg))
	}
	if cmd.Bool(traceKey) {
		b.spans = tracing.New(tracing.WithParent(ctx))
	}

	log.Printf("warming up")
	b.propagate(false)

	b.propagate(true)
	b.batched(true)

	if cmd.Bool(verifyKey) {
		if err := b.verify(); err != nil {
			return err
		}
	}
	if reg != nil {
		return renderMetrics(reg)
	}
	return nil
}

func parseSizes(s string) ([]int, error) {
	var sizes []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid size %q: %w", part, err)
		}
		if n <= 0 {
			return nil, fmt.Errorf("size %d must be positive", n)
		}
		sizes = append(sizes, n)
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("no sizes given")
	}
	return sizes, nil
}

func addOne(v int) int {
	return v + 1
}

func increment(_ *cells.Scope, v int) int {
	return v + 1
}

type bench struct {
	sizes []int
	iters int

	collector *metrics.Collector
	spans     *tracing.Tracer
}

// systemOptions wires the optional observers into a new system. Metrics are
// shared; every system gets its own span stack.
func (b *bench) systemOptions() []cells.SystemOption {
	var tracers []cells.Tracer
	if b.collector != nil {
		tracers = append(tracers, b.collector)
	}
	if b.spans != nil {
		tracers = append(tracers, b.spans.ForSystem())
	}
	return []cells.SystemOption{
		cells.WithTracer(cells.MultiTracer(tracers...)),
	}
}

type graph struct {
	rs  *cells.ReactiveSystem
	src *cells.WriteableSignal[int]
}

// buildGraph makes w chains of h derived cells hanging off one source, each
// watched by an effect that hands its column and value to observe.
func buildGraph(w, h int, opts []cells.SystemOption, observe func(col, v int)) *graph {
	rs := cells.CreateReactiveSystem(opts...)
	src := cells.Signal(rs, 1, cells.WithName[int]("src"))
	for i := 0; i < w; i++ {
		var last cells.ReadonlyCell[int] = src
		for j := 0; j < h; j++ {
			last = cells.Derive1(rs, last, addOne)
		}

		col := i
		cells.Watch1(rs, last, func(v int) cells.Cleanup {
			if observe != nil {
				observe(col, v)
			}
			return nil
		})
	}
	return &graph{rs: rs, src: src}
}

func newTable(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})
	return tbl
}

func appendTimings(tbl table.Writer, name string, calc *tachymeter.Metrics) {
	tbl.AppendRow(table.Row{
		name,
		calc.Time.Avg,
		calc.Time.Min,
		calc.Time.P75,
		calc.Time.P99,
		calc.Time.Max,
	})
}

func (b *bench) propagate(shouldRender bool) {
	tbl := newTable("cellgraph: propagate")

	for _, w := range b.sizes {
		for _, h := range b.sizes {
			tach := tachymeter.New(&tachymeter.Config{Size: b.iters})

			g := buildGraph(w, h, b.systemOptions(), nil)
			for i := 0; i < b.iters; i++ {
				start := time.Now()
				g.src.Update(increment)
				tach.AddTime(time.Since(start))
			}
			g.rs.Reset()

			appendTimings(tbl, fmt.Sprintf("propagate: %d * %d", w, h), tach.Calc())
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

// batched writes an overshoot and then the real value in one transaction,
// so every chain still recomputes once per iteration.
func (b *bench) batched(shouldRender bool) {
	tbl := newTable("cellgraph: batched")

	for _, w := range b.sizes {
		for _, h := range b.sizes {
			tach := tachymeter.New(&tachymeter.Config{Size: b.iters})

			g := buildGraph(w, h, b.systemOptions(), nil)
			for i := 0; i < b.iters; i++ {
				start := time.Now()
				g.rs.BatchNamed("bench", func(sc *cells.Scope) {
					v := g.src.Peek()
					g.src.Write(v + 1000)
					g.src.Write(v + 1)
				})
				tach.AddTime(time.Since(start))
			}
			g.rs.Reset()

			appendTimings(tbl, fmt.Sprintf("batched: %d * %d", w, h), tach.Calc())
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

// verify fingerprints everything the effects observe, once with plain writes
// and once with batched writes that overshoot first. Batching must be
// invisible to observers, so the fingerprints have to match.
func (b *bench) verify() error {
	tbl := table.NewWriter()
	tbl.SetTitle("cellgraph: verify")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"graph", "plain", "batched", "result"})

	failed := 0
	for _, w := range b.sizes {
		for _, h := range b.sizes {
			plain := b.fingerprint(w, h, false)
			batched := b.fingerprint(w, h, true)

			result := "ok"
			if plain != batched {
				result = "MISMATCH"
				failed++
			}
			tbl.AppendRow(table.Row{
				fmt.Sprintf("%d * %d", w, h),
				fmt.Sprintf("%016x", plain),
				fmt.Sprintf("%016x", batched),
				result,
			})
		}
	}
	tbl.Render()

	if failed > 0 {
		return fmt.Errorf("%d graphs observed different values when batched", failed)
	}
	return nil
}

func (b *bench) fingerprint(w, h int, batched bool) uint64 {
	digest := xxhash.New()
	buf := make([]byte, 0, 16)
	g := buildGraph(w, h, b.systemOptions(), func(col, v int) {
		buf = binary.LittleEndian.AppendUint64(buf[:0], uint64(col))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(v))
		digest.Write(buf)
	})
	defer g.rs.Reset()

	for i := 0; i < b.iters; i++ {
		if !batched {
			g.src.Update(increment)
			continue
		}
		g.rs.Batch(func(sc *cells.Scope) {
			v := g.src.Peek()
			g.src.Write(v + 1000)
			g.src.Write(v + 1)
		})
	}
	return digest.Sum64()
}

func renderMetrics(reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}

	tbl := table.NewWriter()
	tbl.SetTitle("cellgraph: engine metrics")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"metric", "labels", "value"})
	for _, f := range families {
		for _, m := range f.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}

			var value any
			switch {
			case m.Counter != nil:
				value = m.GetCounter().GetValue()
			case m.Gauge != nil:
				value = m.GetGauge().GetValue()
			case m.Histogram != nil:
				h := m.GetHistogram()
				value = fmt.Sprintf("n=%d sum=%g", h.GetSampleCount(), h.GetSampleSum())
			}
			tbl.AppendRow(table.Row{f.GetName(), strings.Join(labels, ","), value})
		}
	}
	tbl.Render()
	return nil
}
