package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/delaneyj/mvvm/observe"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

func main() {
	log.Print("Starting fan-out benchmark, please wait...")
	defer log.Print("Finished fan-out benchmark")

	perfTestCfgs := []benchmarkTestConfig{
		{
			name:           "small form",
			width:          4,
			depth:          2,
			watchers:       16,
			staticFraction: 1,
			iterations:     200000,
		},
		{
			name:           "dashboard",
			width:          10,
			depth:          3,
			watchers:       1000,
			staticFraction: 0.95,
			iterations:     20000,
		},
		{
			name:           "wide shallow",
			width:          1000,
			depth:          1,
			watchers:       5000,
			staticFraction: 1,
			iterations:     50000,
		},
		{
			name:           "deep",
			width:          2,
			depth:          12,
			watchers:       500,
			staticFraction: 0.9,
			iterations:     5000,
		},
		{
			name:           "many watchers per leaf",
			width:          5,
			depth:          2,
			watchers:       10000,
			staticFraction: 1,
			iterations:     2000,
		},
		{
			name:           "subtree churn",
			width:          10,
			depth:          3,
			watchers:       1000,
			staticFraction: 0.5,
			iterations:     2000,
		},
	}

	type results struct {
		callbacks int64
		duration  time.Duration
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"framework", "size", "leaves", "watchers", "static%",
		"nTimes", "test", "time", "updateRate", "title",
	})

	testRepeats := 5
	for _, cfg := range perfTestCfgs {
		log.Printf("Running '%s' config", cfg.name)

		bestResult := &results{duration: time.Hour}
		var leaves int
		for i := 0; i < testRepeats; i++ {
			log.Printf("Running '%s' config, iteration %d/%d %d%%", cfg.name, i+1, testRepeats, (i+1)*100/testRepeats)

			graph, err := benchmarkMakeTree(&cfg)
			if err != nil {
				log.Fatal(err)
			}
			leaves = len(graph.leaves)

			start := time.Now()
			if err := benchmarkRunTree(&cfg, graph); err != nil {
				log.Fatal(err)
			}
			duration := time.Since(start)

			if duration < bestResult.duration {
				bestResult.duration = duration
				bestResult.callbacks = *graph.counter
			}
		}

		makeTitle := func() string {
			sb := strings.Builder{}
			sb.WriteString(fmt.Sprintf("%dx%d %d watchers", cfg.width, cfg.depth, cfg.watchers))
			if cfg.staticFraction < 1 {
				sb.WriteString(fmt.Sprintf(" replace %0.2f%%", 100*(1-cfg.staticFraction)))
			}
			return sb.String()
		}

		updateRate := float64(bestResult.callbacks) / (float64(bestResult.duration) / float64(time.Millisecond))

		table.Append([]string{
			"observe",                                  // framework
			fmt.Sprintf("%dx%d", cfg.width, cfg.depth), // size
			humanize.Comma(int64(leaves)),              // leaves
			humanize.Comma(cfg.watchers),               // watchers
			fmt.Sprint(cfg.staticFraction),             // static%
			humanize.Comma(cfg.iterations),             // nTimes
			cfg.name,                                   // test
			fmt.Sprint(bestResult.duration),            // time
			humanize.Comma(int64(updateRate)),          // updateRate
			makeTitle(),                                // title
		})
	}
	table.Render()
}

type benchmarkTestConfig struct {
	name           string  // friendly name for the test, should be unique
	width          int64   // keys per object
	depth          int64   // levels of objects above the leaves
	watchers       int64   // watchers, each on a random leaf path
	staticFraction float64 // fraction of writes that assign a leaf, the rest replace a top-level subtree
	iterations     int64   // writes per run
}

type benchmarkTree struct {
	root    *observe.Object
	leaves  []observe.Path
	tops    []string
	counter *int64
}

func benchmarkBuildLevel(width, depth int64, leaf func() any) any {
	if depth == 0 {
		return leaf()
	}
	m := make(map[string]any, width)
	for i := int64(0); i < width; i++ {
		m[fmt.Sprintf("k%d", i)] = benchmarkBuildLevel(width, depth-1, leaf)
	}
	return m
}

func benchmarkLeafPaths(prefix string, width, depth int64) []string {
	if depth == 0 {
		return []string{prefix}
	}
	var out []string
	for i := int64(0); i < width; i++ {
		key := fmt.Sprintf("k%d", i)
		if prefix != "" {
			key = prefix + "." + key
		}
		out = append(out, benchmarkLeafPaths(key, width, depth-1)...)
	}
	return out
}

func benchmarkMakeTree(cfg *benchmarkTestConfig) (*benchmarkTree, error) {
	n := 0
	data := benchmarkBuildLevel(cfg.width, cfg.depth, func() any {
		n++
		return n
	}).(map[string]any)

	tree := &benchmarkTree{
		root:    observe.Observe(observe.NewReactiveContext(), data),
		counter: new(int64),
	}
	for _, p := range benchmarkLeafPaths("", cfg.width, cfg.depth) {
		tree.leaves = append(tree.leaves, observe.MustCompile(p))
	}
	tree.tops = tree.root.Keys()

	random := rand.New(rand.NewSource(0))
	for i := int64(0); i < cfg.watchers; i++ {
		p := tree.leaves[random.Intn(len(tree.leaves))]
		if _, err := observe.WatchPath(tree.root, p, func(any) error {
			*tree.counter++
			return nil
		}); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

// Write random leaves, or replace a random top-level subtree with a fresh one
// of the same shape.
func benchmarkRunTree(cfg *benchmarkTestConfig, tree *benchmarkTree) error {
	random := rand.New(rand.NewSource(0))
	for i := int64(0); i < cfg.iterations; i++ {
		if random.Float64() < cfg.staticFraction {
			leaf := tree.leaves[random.Intn(len(tree.leaves))]
			if _, err := leaf.Set(tree.root, -int(i)-1); err != nil {
				return err
			}
			continue
		}

		top := tree.tops[random.Intn(len(tree.tops))]
		next := i
		subtree := benchmarkBuildLevel(cfg.width, cfg.depth-1, func() any {
			next++
			return int(next)
		})
		if err := tree.root.Set(top, subtree); err != nil {
			return err
		}
	}
	return nil
}
