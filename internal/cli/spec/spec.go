// Package spec loads commands.yaml, the single description of the cmux
// command line that the builder, help output and dispatcher checks share.
package spec

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed commands.yaml commands.schema.json
var embeddedFS embed.FS

const schemaURL = "commands.schema.json"

// Spec is the parsed commands.yaml.
type Spec struct {
	Version     int       `yaml:"version"`
	App         AppSpec   `yaml:"app"`
	GlobalFlags []Flag    `yaml:"global_flags"`
	Commands    []Command `yaml:"commands"`
}

type AppSpec struct {
	Name    string `yaml:"name"`
	Summary string `yaml:"summary"`
	// VerbCommand receives any top-level word that is not a declared
	// command, so every dispatcher verb works without a YAML entry.
	VerbCommand string `yaml:"verb_command"`
}

// Flag describes one flag. On passthrough commands flags only document
// what the dispatcher parser accepts; Short lists tmux-style spellings.
type Flag struct {
	Name      string   `yaml:"name"`
	Aliases   []string `yaml:"aliases"`
	Short     []string `yaml:"short"`
	ShortOnly bool     `yaml:"short_only"`
	// LeadingOnly global flags are only recognised before the command name.
	LeadingOnly bool     `yaml:"leading_only"`
	Placeholder string   `yaml:"placeholder"`
	Type        string   `yaml:"type"`
	Required    bool     `yaml:"required"`
	Default     any      `yaml:"default"`
	Enum        []string `yaml:"enum"`
	Repeatable  bool     `yaml:"repeatable"`
	Description string   `yaml:"description"`
	Env         string   `yaml:"env"`
	Hidden      bool     `yaml:"hidden"`
}

type Arg struct {
	Name        string   `yaml:"name"`
	Required    bool     `yaml:"required"`
	Variadic    bool     `yaml:"variadic"`
	Enum        []string `yaml:"enum"`
	Description string   `yaml:"description"`
}

type Command struct {
	Name        string   `yaml:"name"`
	ID          string   `yaml:"id"`
	Summary     string   `yaml:"summary"`
	Description string   `yaml:"description"`
	Aliases     []string `yaml:"aliases"`
	Flags       []Flag   `yaml:"flags"`
	Args        []Arg    `yaml:"args"`
	// Method is the dispatcher method a passthrough command forwards to. A
	// passthrough command without one takes the verb as its first argument.
	Method string `yaml:"method"`
	// Passthrough commands hand their raw argv to the dispatcher parser.
	Passthrough bool `yaml:"passthrough"`
	Confirm     bool `yaml:"confirm"`
	// JSON commands accept --json; Stream ones emit one envelope per event.
	JSON        bool      `yaml:"json"`
	Stream      bool      `yaml:"stream"`
	Hidden      bool      `yaml:"hidden"`
	Examples    []string  `yaml:"examples"`
	Subcommands []Command `yaml:"subcommands"`
}

// LoadDefault parses the embedded commands.yaml.
func LoadDefault() (*Spec, error) {
	data, err := embeddedFS.ReadFile("commands.yaml")
	if err != nil {
		return nil, fmt.Errorf("read commands.yaml: %w", err)
	}
	return Parse(data)
}

// Parse validates data and decodes it.
func Parse(data []byte) (*Spec, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("commands.yaml: %w", err)
	}
	if err := s.checkNames(); err != nil {
		return nil, err
	}
	return &s, nil
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	raw, err := embeddedFS.ReadFile(schemaURL)
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", schemaURL, err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, err
	}
	return c.Compile(schemaURL)
})

// Validate checks data against commands.schema.json. YAML is converted to
// JSON first, so mappings need string keys.
func Validate(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.New("commands.yaml is empty")
	}
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("load command schema: %w", err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("commands.yaml: %w", err)
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("commands.yaml is not JSON compatible: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(asJSON))
	if err != nil {
		return err
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("commands.yaml: %w", err)
	}
	return nil
}

// checkNames rejects what the schema cannot: duplicate IDs anywhere and
// top-level names or aliases that shadow each other.
func (s *Spec) checkNames() error {
	ids := map[string]bool{}
	for _, cmd := range s.AllCommands() {
		if ids[cmd.ID] {
			return fmt.Errorf("commands.yaml: duplicate command id %q", cmd.ID)
		}
		ids[cmd.ID] = true
	}
	words := map[string]string{}
	for _, cmd := range s.Commands {
		for _, word := range append([]string{cmd.Name}, cmd.Aliases...) {
			if owner, ok := words[word]; ok {
				return fmt.Errorf("commands.yaml: %q is used by both %s and %s", word, owner, cmd.ID)
			}
			words[word] = cmd.ID
		}
	}
	return nil
}

// AllCommands flattens the command tree depth first.
func (s *Spec) AllCommands() []Command {
	if s == nil {
		return nil
	}
	var out []Command
	var walk func([]Command)
	walk = func(cmds []Command) {
		for _, cmd := range cmds {
			out = append(out, cmd)
			walk(cmd.Subcommands)
		}
	}
	walk(s.Commands)
	return out
}

// FindByID searches the whole tree, subcommands included.
func (s *Spec) FindByID(id string) *Command {
	id = strings.TrimSpace(id)
	for _, cmd := range s.AllCommands() {
		if id != "" && cmd.ID == id {
			return &cmd
		}
	}
	return nil
}

// FindByName matches top-level names and aliases only.
func (s *Spec) FindByName(name string) *Command {
	name = strings.TrimSpace(name)
	if s == nil || name == "" {
		return nil
	}
	for _, cmd := range s.Commands {
		if cmd.Name == name || slices.Contains(cmd.Aliases, name) {
			return &cmd
		}
	}
	return nil
}

// Forwarded returns every passthrough command, subcommands included.
func (s *Spec) Forwarded() []Command {
	var out []Command
	for _, cmd := range s.AllCommands() {
		if cmd.Passthrough {
			out = append(out, cmd)
		}
	}
	return out
}
