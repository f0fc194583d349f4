package observe

// GetValue resolves expr against root. If a watcher is collecting, every
// property traversed subscribes it.
func GetValue(root *Object, expr string) (any, error) {
	p, err := root.rctx.compile(expr)
	if err != nil {
		return nil, err
	}
	return p.Get(root)
}

// SetValue assigns value at expr. The write runs the whole notification
// chain synchronously: every watcher affected is refreshed, and its callback
// called, before SetValue returns.
func SetValue(root *Object, expr string, value any) (any, error) {
	p, err := root.rctx.compile(expr)
	if err != nil {
		return nil, err
	}
	return p.Set(root, value)
}

// Watch creates a live watcher on expr. The caller owns it and should
// Dispose it when the binding goes away.
func Watch(root *Object, expr string, onChange ChangeFunc) (*Watcher, error) {
	p, err := root.rctx.compile(expr)
	if err != nil {
		return nil, err
	}
	return newWatcher(root.rctx, root, p, onChange)
}

// WatchPath is Watch for an already compiled path.
func WatchPath(root *Object, path Path, onChange ChangeFunc) (*Watcher, error) {
	return newWatcher(root.rctx, root, path, onChange)
}
