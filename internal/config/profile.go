package config

import (
	"reflect"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ehrlich-b/wingchat/internal/chat"
)

// Profile captures the cosmetic differences between agent UIs.
type Profile struct {
	Name      string      `yaml:"name"`
	Title     string      `yaml:"title,omitempty"`
	Welcome   string      `yaml:"welcome,omitempty"`
	OutputDir string      `yaml:"output_dir,omitempty"` // file explorer root
	Locale    string      `yaml:"locale,omitempty"`     // "en" or "zh"
	Labels    chat.Labels `yaml:"labels,omitempty"`
}

var builtins = map[string]Profile{
	"adk": {
		Name:      "adk",
		Title:     "ADK Agent",
		Welcome:   "Connected. Type a message, or /help for commands.",
		OutputDir: "output",
		Locale:    "en",
	},
	"nexus": {
		Name:      "nexus",
		Title:     "Nexus Agent",
		Welcome:   "已连接。输入消息开始对话，/help 查看命令。",
		OutputDir: "output",
		Locale:    "zh",
	},
}

// Builtin returns the named built-in profile, or a bare profile carrying
// only the name when none matches. Validate rejects the latter.
func Builtin(name string) Profile {
	if p, ok := builtins[name]; ok {
		return p
	}
	return Profile{Name: name}
}

// BuiltinNames lists the built-in profiles in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ResolvedLabels is the profile's labels with gaps filled from its locale.
func (p Profile) ResolvedLabels() chat.Labels {
	return p.Labels.Merge(chat.LabelsFor(p.Locale))
}

func (p Profile) known() bool {
	_, ok := builtins[p.Name]
	return ok || p.Title != ""
}

// ProfileRef is a profile in YAML written either as a built-in name
// ("nexus") or as a mapping. A mapping whose name matches a built-in
// overrides that built-in's fields.
type ProfileRef struct {
	Profile
}

// UnmarshalYAML handles both scalar names and mapping nodes.
func (r *ProfileRef) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		r.Profile = Builtin(value.Value)
		return nil
	case yaml.MappingNode:
		var probe struct {
			Name string `yaml:"name"`
		}
		if err := value.Decode(&probe); err != nil {
			return err
		}
		p := Builtin(probe.Name)
		if err := value.Decode(&p); err != nil {
			return err
		}
		r.Profile = p
		return nil
	default:
		return &yaml.TypeError{Errors: []string{"profile: expected name or mapping"}}
	}
}

// MarshalYAML writes an unmodified built-in as its bare name.
func (r ProfileRef) MarshalYAML() (any, error) {
	if b, ok := builtins[r.Name]; ok && reflect.DeepEqual(b, r.Profile) {
		return r.Name, nil
	}
	return r.Profile, nil
}
