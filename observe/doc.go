// Package observe is a deep-observation reactive engine.
//
// Plain nested data (map[string]any, []any and scalars) is converted into an
// observed tree of *Object and *Array containers. Every property of the tree
// owns a Dep, the list of watchers that read it. A Watcher binds a dotted
// path expression to a change callback:
//
//	rctx := observe.NewReactiveContext()
//	root := observe.Observe(rctx, map[string]any{
//	    "school": map[string]any{"name": "x"},
//	})
//
//	w, err := observe.Watch(root, "school.name", func(v any) error {
//	    fmt.Println("name is now", v)
//	    return nil
//	})
//
//	observe.SetValue(root, "school.name", "y") // prints "name is now y"
//	w.Dispose()
//
// Reading a path while a watcher is evaluating subscribes that watcher to
// every property on the way, so replacing "school" with a new object is
// noticed just like assigning "school.name".
//
// Everything is synchronous. A write refreshes every affected watcher, and
// runs their callbacks, before it returns; callbacks may write again. There
// is no batching, no caching of computed accessors, and arrays cannot change
// length once observed.
package observe
