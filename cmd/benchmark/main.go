package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/delaneyj/mvvm/observe"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

const (
	itersKey   = "iters"
	profileKey = "profile"
)

var (
	ww = []int{1, 10, 100, 1_000}
	hh = []int{1, 10, 100}
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Propagation benchmark: w watchers over h levels of nesting or computed accessors",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  itersKey,
				Usage: "Writes timed per configuration",
				Value: 100,
			},
			&cli.StringFlag{
				Name:  profileKey,
				Usage: "Write a CPU profile to this file",
				Value: "default.pgo",
			},
		},
		Action: benchmark,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func benchmark(ctx context.Context, cmd *cli.Command) error {
	if path := cmd.String(profileKey); path != "" {
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

	iters := int(cmd.Int(itersKey))
	log.Printf("warming up")
	if _, err := benchmarkNested(iters); err != nil {
		return err
	}

	for _, run := range []func(int) (table.Writer, error){benchmarkNested, benchmarkComputed} {
		tbl, err := run(iters)
		if err != nil {
			return err
		}
		tbl.Render()
	}
	return nil
}

func newTable(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})
	return tbl
}

func appendCalc(tbl table.Writer, w, h int, tach *tachymeter.Tachymeter) {
	calc := tach.Calc()
	tbl.AppendRows([]table.Row{
		{
			fmt.Sprintf("propagate: %d * %d", w, h),
			calc.Time.Avg,
			calc.Time.Min,
			calc.Time.P75,
			calc.Time.P99,
			calc.Time.Max,
		},
	})
}

// nested builds {"n": {"n": ... {"v": leaf}}} with depth levels of "n".
func nested(depth int, leaf any) (map[string]any, string) {
	m := map[string]any{"v": leaf}
	path := "v"
	for i := 0; i < depth; i++ {
		m = map[string]any{"n": m}
		path = "n." + path
	}
	return m, path
}

// Each watcher reads a path h objects deep; every write goes to the leaf.
func benchmarkNested(iters int) (table.Writer, error) {
	tbl := newTable("Nested paths")

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			data, path := nested(h, 1)
			root := observe.Observe(observe.NewReactiveContext(), data)
			for i := 0; i < w; i++ {
				if _, err := observe.Watch(root, path, nil); err != nil {
					return nil, err
				}
			}

			p := observe.MustCompile(path)
			for i := 0; i < iters; i++ {
				start := time.Now()
				if _, err := p.Set(root, i+2); err != nil {
					return nil, err
				}
				tach.AddTime(time.Since(start))
			}
			appendCalc(tbl, w, h, tach)
		}
	}
	return tbl, nil
}

// Each watcher reads the last of h chained computed accessors; every write
// goes to the source they all derive from.
func benchmarkComputed(iters int) (table.Writer, error) {
	tbl := newTable("Computed chains")

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			root := observe.Observe(observe.NewReactiveContext(), map[string]any{"src": 1})
			prev := "src"
			for j := 0; j < h; j++ {
				from := observe.MustCompile(prev)
				key := fmt.Sprintf("c%d", j)
				if err := root.DefineComputed(key, func() (any, error) {
					v, err := from.Get(root)
					if err != nil {
						return nil, err
					}
					return v.(int) + 1, nil
				}); err != nil {
					return nil, err
				}
				prev = key
			}
			for i := 0; i < w; i++ {
				if _, err := observe.Watch(root, prev, nil); err != nil {
					return nil, err
				}
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				if err := root.Set("src", i+2); err != nil {
					return nil, err
				}
				tach.AddTime(time.Since(start))
			}
			appendCalc(tbl, w, h, tach)
		}
	}
	return tbl, nil
}
