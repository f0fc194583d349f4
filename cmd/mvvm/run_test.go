package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/delaneyj/mvvm/observe"
	"github.com/delaneyj/mvvm/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunScene(t *testing.T) {
	scene, data, err := loadScene("testdata/school.toml")
	require.NoError(t, err)
	assert.Equal(t, "guest", data["visitor"])

	result, err := runScene(observe.NewReactiveContext(), scene, data)
	require.NoError(t, err)

	assert.Equal(t, []string{"title", "badge", "tags", "visitor", "renamed"}, result.templates)
	assert.Equal(t, []string{
		"bind",
		"set school.age = 11",
		"set school = map[age:3 name:Roosevelt tags:[private]]",
		"input visitor = <alice>",
		"set status = closed",
		"event click = Kennedy",
	}, result.actions)
	assert.Equal(t, [][]string{
		{"Lincoln (10)", "badge open", `["public","k12"]`, "guest", ""},
		{"Lincoln (11)", "badge open", `["public","k12"]`, "guest", ""},
		{"Roosevelt (3)", "badge open", `["private"]`, "guest", ""},
		{"Roosevelt (3)", "badge open", `["private"]`, "&lt;alice&gt;", ""},
		{"Roosevelt (3)", "badge closed", `["private"]`, "&lt;alice&gt;", ""},
		{"Kennedy (3)", "badge closed", `["private"]`, "&lt;alice&gt;", "Kennedy"},
	}, result.renders)

	assert.Equal(t, "<alice>", result.final["visitor"])
	assert.Equal(t, "closed", result.final["status"])
	assert.NotContains(t, result.final, "schoolName")
	assert.Equal(t, "Kennedy", result.final["school"].(map[string]any)["name"])

	var out bytes.Buffer
	printScene(&out, "school", result)
	assert.Contains(t, out.String(), "Roosevelt (3)")
	assert.Contains(t, out.String(), `"visitor"`)
}

func TestRunSceneMetrics(t *testing.T) {
	scene, data, err := loadScene("testdata/school.toml")
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	rctx := observe.NewReactiveContext(observe.WithTracer(metrics.New(metrics.WithRegistry(registry))))
	_, err = runScene(rctx, scene, data)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printMetrics(&out, registry))
	assert.Contains(t, out.String(), "mvvm_observe_publishes_total")
	assert.Contains(t, out.String(), "mvvm_observe_watchers_disposed_total")
}

func TestLoadSceneErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	for name, content := range map[string]string{
		"unknown_key.toml":  "colour = 1\n",
		"unknown_kind.toml": "[[templates]]\nkind = \"svg\"\n",
		"missing_expr.toml": "[[templates]]\nkind = \"html\"\n",
		"bad_step.toml":     "[[steps]]\nvalue = 1\n",
		"both_step.toml":    "[[steps]]\nset = \"a\"\ninput = \"b\"\n",
		"on_no_method.toml": "[[templates]]\nkind = \"on\"\nexpr = \"save\"\n",
		"on_twice.toml":     "[methods]\nsave = \"a\"\n[[templates]]\nkind = \"on\"\nevent = \"x\"\nexpr = \"save\"\n[[templates]]\nkind = \"on\"\nevent = \"x\"\nexpr = \"save\"\n",
		"no_handler.toml":   "[[steps]]\nevent = \"click\"\n",
		"missing_data.toml": "data = \"nope.json\"\n",
	} {
		_, _, err := loadScene(write(name, content))
		assert.Error(t, err, name)
	}

	_, _, err := loadScene(write("array.toml", "data = \"array.json\"\n"))
	assert.Error(t, err)
	write("array.json", "[1, 2]")
	_, _, err = loadScene(filepath.Join(dir, "array.toml"))
	assert.ErrorContains(t, err, "top level must be an object")
}

func TestRunSceneStepErrors(t *testing.T) {
	scene := &sceneConfig{
		Steps: []stepConfig{{Input: "nothing", Value: 1}},
	}
	_, err := runScene(observe.NewReactiveContext(), scene, map[string]any{})
	assert.ErrorContains(t, err, `no model template "nothing"`)

	scene = &sceneConfig{
		Steps: []stepConfig{{Set: "missing.key", Value: 1}},
	}
	_, err = runScene(observe.NewReactiveContext(), scene, map[string]any{})
	assert.ErrorIs(t, err, observe.ErrPathResolution)
}

func TestResolve(t *testing.T) {
	data, err := loadData("testdata/school.json")
	require.NoError(t, err)
	root := observe.Observe(observe.NewReactiveContext(), data)

	v, err := resolve(root, "school.tags.1")
	require.NoError(t, err)
	assert.Equal(t, "k12", v)

	v, err = resolve(root, "$.school.tags[*]")
	require.NoError(t, err)
	assert.Equal(t, []any{"public", "k12"}, v)

	_, err = resolve(root, "status.nope.deeper")
	assert.ErrorIs(t, err, observe.ErrPathResolution)
}
