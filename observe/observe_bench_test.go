package observe_test

import (
	"fmt"
	"testing"

	"github.com/delaneyj/mvvm/observe"
)

func nested(depth int, leaf any) map[string]any {
	m := map[string]any{"v": leaf}
	for i := 0; i < depth; i++ {
		m = map[string]any{"n": m}
	}
	return m
}

func BenchmarkPropagate(b *testing.B) {
	for _, w := range []int{1, 10, 100} {
		for _, h := range []int{1, 10, 100} {
			b.Run(fmt.Sprintf("%dx%d", w, h), func(b *testing.B) {
				rctx := observe.NewReactiveContext()
				root := observe.Observe(rctx, nested(h, 0))

				expr := "v"
				for i := 0; i < h; i++ {
					expr = "n." + expr
				}
				for i := 0; i < w; i++ {
					if _, err := observe.Watch(root, expr, nil); err != nil {
						b.Fatal(err)
					}
				}

				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if _, err := observe.SetValue(root, expr, i+1); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}
