package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/ohler55/ojg/oj"
)

type sceneConfig struct {
	// JSON data file, relative to the scene file
	Data string `toml:"data"`
	// Inline top-level values, applied over the data file
	Values map[string]any `toml:"values"`
	// Computed key -> path expression it reads
	Computed map[string]string `toml:"computed"`
	// Method name -> path expression it assigns its argument to
	Methods   map[string]string `toml:"methods"`
	Templates []templateConfig  `toml:"templates"`
	Steps     []stepConfig      `toml:"steps"`
}

type templateConfig struct {
	Name    string `toml:"name"`
	Kind    string `toml:"kind"`
	Content string `toml:"content"`
	Expr    string `toml:"expr"`
	Base    string `toml:"base"`
	// Event name handled by an "on" template, defaults to the template name
	Event string `toml:"event"`
}

const (
	kindText  = "text"
	kindHTML  = "html"
	kindClass = "class"
	kindModel = "model"
	kindOn    = "on"
)

// A step assigns a path expression, types into a model template or fires an
// event handled by an "on" template.
type stepConfig struct {
	Set   string `toml:"set"`
	Input string `toml:"input"`
	Event string `toml:"event"`
	Value any    `toml:"value"`
}

func loadScene(path string) (*sceneConfig, map[string]any, error) {
	scene := &sceneConfig{}
	md, err := toml.DecodeFile(path, scene)
	if err != nil {
		return nil, nil, fmt.Errorf("error while decoding scene %s: %w", path, err)
	}
	var unknown []string
	for _, key := range md.Undecoded() {
		if freeForm(key) {
			continue
		}
		unknown = append(unknown, key.String())
	}
	if len(unknown) > 0 {
		return nil, nil, fmt.Errorf("unknown keys in scene %s: %v", path, unknown)
	}

	data := map[string]any{}
	if scene.Data != "" {
		dataPath := scene.Data
		if !filepath.IsAbs(dataPath) {
			dataPath = filepath.Join(filepath.Dir(path), dataPath)
		}
		if data, err = loadData(dataPath); err != nil {
			return nil, nil, err
		}
	}
	for k, v := range scene.Values {
		data[k] = v
	}

	events := map[string]struct{}{}
	for i := range scene.Templates {
		tmpl := &scene.Templates[i]
		if tmpl.Kind == "" {
			tmpl.Kind = kindText
		}
		if tmpl.Name == "" {
			tmpl.Name = fmt.Sprintf("%s%d", tmpl.Kind, i)
		}
		switch tmpl.Kind {
		case kindText:
		case kindHTML, kindClass, kindModel:
			if tmpl.Expr == "" {
				return nil, nil, fmt.Errorf("template %q: %s needs expr", tmpl.Name, tmpl.Kind)
			}
		case kindOn:
			if tmpl.Expr == "" {
				return nil, nil, fmt.Errorf("template %q: on needs expr naming a method", tmpl.Name)
			}
			if _, ok := scene.Methods[tmpl.Expr]; !ok {
				return nil, nil, fmt.Errorf("template %q: unknown method %q", tmpl.Name, tmpl.Expr)
			}
			if tmpl.Event == "" {
				tmpl.Event = tmpl.Name
			}
			if _, taken := events[tmpl.Event]; taken {
				return nil, nil, fmt.Errorf("template %q: event %q already handled", tmpl.Name, tmpl.Event)
			}
			events[tmpl.Event] = struct{}{}
		default:
			return nil, nil, fmt.Errorf("template %q: unknown kind %q", tmpl.Name, tmpl.Kind)
		}
	}

	for i, step := range scene.Steps {
		actions := 0
		for _, a := range []string{step.Set, step.Input, step.Event} {
			if a != "" {
				actions++
			}
		}
		if actions != 1 {
			return nil, nil, fmt.Errorf("step %d: exactly one of set, input or event is required", i+1)
		}
		if step.Event != "" {
			if _, ok := events[step.Event]; !ok {
				return nil, nil, fmt.Errorf("step %d: no template handles event %q", i+1, step.Event)
			}
		}
	}

	return scene, data, nil
}

// Keys nested under values and step values are data, not configuration.
func freeForm(key toml.Key) bool {
	switch {
	case len(key) > 1 && key[0] == "values":
		return true
	case len(key) > 2 && key[0] == "steps" && key[1] == "value":
		return true
	default:
		return false
	}
}

func loadData(path string) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	v, err := oj.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("error while parsing %s: %w", path, err)
	}
	data, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: top level must be an object, got %T", path, v)
	}
	return data, nil
}
