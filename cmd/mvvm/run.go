package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/delaneyj/mvvm/bind"
	"github.com/delaneyj/mvvm/observe"
	"github.com/delaneyj/mvvm/pkg/metrics"
	"github.com/delaneyj/mvvm/vm"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
)

type sceneRun struct {
	// Template names, in scene order
	templates []string
	// One row per render pass: the initial bind, then one per step
	actions []string
	renders [][]string
	final   map[string]any
}

func run(ctx context.Context, cmd *cli.Command) error {
	logger := newLogger(cmd.Bool(verboseKey))

	scenePath := cmd.String(sceneKey)
	scene, data, err := loadScene(scenePath)
	if err != nil {
		return err
	}
	logger.Info().
		Str("scene", scenePath).
		Int("templates", len(scene.Templates)).
		Int("steps", len(scene.Steps)).
		Msg("scene loaded")

	opts := []observe.Option{observe.WithLogger(logger)}
	registry := prometheus.NewRegistry()
	if cmd.Bool(metricsKey) {
		opts = append(opts, observe.WithTracer(metrics.New(metrics.WithRegistry(registry))))
	}

	result, err := runScene(observe.NewReactiveContext(opts...), scene, data)
	if err != nil {
		return err
	}

	printScene(os.Stdout, scenePath, result)
	if cmd.Bool(metricsKey) {
		if err := printMetrics(os.Stdout, registry); err != nil {
			return err
		}
	}
	return nil
}

func runScene(rctx *observe.ReactiveContext, scene *sceneConfig, data map[string]any) (*sceneRun, error) {
	computed := make(map[string]vm.ComputedFunc, len(scene.Computed))
	for key, expr := range scene.Computed {
		computed[key] = func(m *vm.ViewModel) (any, error) {
			return m.GetValue(expr)
		}
	}

	methods := make(map[string]vm.MethodFunc, len(scene.Methods))
	for name, expr := range scene.Methods {
		methods[name] = func(m *vm.ViewModel, args ...any) (any, error) {
			var v any
			if len(args) > 0 {
				v = args[0]
			}
			return m.SetValue(expr, v)
		}
	}

	m, err := vm.New(rctx, vm.Options{Data: data, Computed: computed, Methods: methods})
	if err != nil {
		return nil, err
	}
	defer m.Destroy()

	result := &sceneRun{}
	buffers := make([]*bind.Buffer, len(scene.Templates))
	models := map[string]*bind.Binding{}
	handlers := map[string]*bind.Binding{}

	for i, tmpl := range scene.Templates {
		var (
			b   *bind.Binding
			err error
		)
		switch tmpl.Kind {
		case kindText:
			buffers[i] = bind.NewTextBuffer()
			b, err = bind.Text(m.Data(), buffers[i], tmpl.Content)
		case kindHTML:
			buffers[i] = bind.NewHTMLBuffer()
			b, err = bind.HTML(m.Data(), buffers[i], tmpl.Expr)
		case kindClass:
			buffers[i] = bind.NewHTMLBuffer()
			b, err = bind.Class(m.Data(), buffers[i], tmpl.Base, tmpl.Expr)
		case kindModel:
			buffers[i] = bind.NewTextBuffer()
			b, err = bind.Model(m.Data(), buffers[i], tmpl.Expr)
			models[tmpl.Name] = b
		case kindOn:
			buffers[i] = bind.NewTextBuffer()
			b, err = bind.On(m, buffers[i], tmpl.Event, tmpl.Expr)
			handlers[tmpl.Event] = b
		}
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", tmpl.Name, err)
		}
		defer b.Dispose()
		result.templates = append(result.templates, tmpl.Name)
	}

	snapshot := func(action string) {
		row := make([]string, len(buffers))
		for i, buf := range buffers {
			row[i] = buf.String()
		}
		result.actions = append(result.actions, action)
		result.renders = append(result.renders, row)
	}
	snapshot("bind")

	for i, step := range scene.Steps {
		var action string
		switch {
		case step.Set != "":
			action = fmt.Sprintf("set %s = %s", step.Set, bind.Format(step.Value))
			if _, err := m.SetValue(step.Set, step.Value); err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
		case step.Event != "":
			action = fmt.Sprintf("event %s = %s", step.Event, bind.Format(step.Value))
			b, ok := handlers[step.Event]
			if !ok {
				return nil, fmt.Errorf("step %d: no template handles event %q", i+1, step.Event)
			}
			if _, err := b.Fire(step.Value); err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
		default:
			action = fmt.Sprintf("input %s = %s", step.Input, bind.Format(step.Value))
			b, ok := models[step.Input]
			if !ok {
				return nil, fmt.Errorf("step %d: no model template %q", i+1, step.Input)
			}
			if err := b.Input(step.Value); err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
		}
		logger := rctx.Logger()
		logger.Debug().Int("step", i+1).Str("action", action).Msg("step applied")
		snapshot(action)
	}

	result.final = m.Data().Snapshot()
	return result, nil
}

func printScene(w io.Writer, title string, result *sceneRun) {
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(w)

	header := table.Row{"#", "action"}
	for _, name := range result.templates {
		header = append(header, name)
	}
	tbl.AppendHeader(header)

	for i, action := range result.actions {
		row := table.Row{i, action}
		for _, cell := range result.renders[i] {
			row = append(row, cell)
		}
		tbl.AppendRow(row)
	}
	tbl.Render()

	fmt.Fprintln(w, oj.JSON(result.final, &oj.Options{Sort: true, Indent: 2}))
}

func printMetrics(w io.Writer, registry *prometheus.Registry) error {
	families, err := registry.Gather()
	if err != nil {
		return err
	}

	tbl := table.NewWriter()
	tbl.SetTitle("metrics")
	tbl.SetOutputMirror(w)
	tbl.AppendHeader(table.Row{"metric", "labels", "value"})

	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			sort.Strings(labels)

			var value string
			switch {
			case m.GetCounter() != nil:
				value = humanize.Commaf(m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				value = humanize.Commaf(m.GetGauge().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				value = fmt.Sprintf("n=%s sum=%s",
					humanize.Comma(int64(h.GetSampleCount())),
					humanize.Commaf(h.GetSampleSum()),
				)
			}
			tbl.AppendRow(table.Row{mf.GetName(), strings.Join(labels, ","), value})
		}
	}
	tbl.Render()
	return nil
}

func eval(ctx context.Context, cmd *cli.Command) error {
	logger := newLogger(cmd.Bool(verboseKey))

	data, err := loadData(cmd.String(dataKey))
	if err != nil {
		return err
	}
	root := observe.Observe(observe.NewReactiveContext(observe.WithLogger(logger)), data)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"expr", "value"})
	for _, expr := range cmd.Args().Slice() {
		v, err := resolve(root, expr)
		if err != nil {
			logger.Warn().Err(err).Str("expr", expr).Msg("cannot resolve")
			tbl.AppendRow(table.Row{expr, "error: " + err.Error()})
			continue
		}
		tbl.AppendRow(table.Row{expr, oj.JSON(observe.Raw(v), &oj.Options{Sort: true})})
	}
	tbl.Render()
	return nil
}

// resolve evaluates "$"-prefixed expressions as JSONPath over a snapshot of
// the data, everything else as a dotted path.
func resolve(root *observe.Object, expr string) (any, error) {
	if !strings.HasPrefix(expr, "$") {
		return observe.GetValue(root, expr)
	}
	x, err := jp.ParseString(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath %q: %w", expr, err)
	}
	return x.Get(root.Snapshot()), nil
}
