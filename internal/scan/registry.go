package scan

import (
	"context"
	"fmt"
	"sort"
)

// FlagKind is the value type of a command flag.
type FlagKind int

const (
	FlagInt FlagKind = iota
	FlagBool
	FlagString
)

// Flag describes one command-specific flag.
type Flag struct {
	Name     string
	Kind     FlagKind
	Default  any
	Usage    string
	Required bool
	// Choices restricts a string flag to these values.
	Choices []string
}

// Command is one report generator.
type Command struct {
	Name  string
	Short string
	// Group orders commands in help output.
	Group string
	Flags []Flag
	// NoPath marks commands that do not scan a directory.
	NoPath bool
	Run    func(ctx context.Context, env *Env) (string, error)
	// ReportName overrides Name as the report kind.
	ReportName func(p Params) string
}

// Kind returns the report kind for the given parameters.
func (c Command) Kind(p Params) string {
	if c.ReportName != nil {
		return c.ReportName(p)
	}
	return c.Name
}

// Params holds parsed flag values keyed by flag name.
type Params map[string]any

// Int returns the int flag name, or def when it is unset.
func (p Params) Int(name string, def int) int {
	if v, ok := p[name].(int); ok {
		return v
	}
	return def
}

// Bool returns the bool flag name, false when unset.
func (p Params) Bool(name string) bool {
	v, _ := p[name].(bool)
	return v
}

// String returns the string flag name, empty when unset.
func (p Params) String(name string) string {
	v, _ := p[name].(string)
	return v
}

// Registry holds commands by name.
type Registry struct {
	commands map[string]Command
	order    []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds cmd. Names must be unique.
func (r *Registry) Register(cmd Command) error {
	if cmd.Name == "" || cmd.Run == nil {
		return fmt.Errorf("command must have a name and a run function")
	}
	if _, exists := r.commands[cmd.Name]; exists {
		return fmt.Errorf("command %q registered twice", cmd.Name)
	}
	r.commands[cmd.Name] = cmd
	r.order = append(r.order, cmd.Name)
	return nil
}

func (r *Registry) mustRegister(cmds ...Command) {
	for _, cmd := range cmds {
		if err := r.Register(cmd); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the command named name.
func (r *Registry) Lookup(name string) (Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Commands returns every command in registration order.
func (r *Registry) Commands() []Command {
	out := make([]Command, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.commands[name])
	}
	return out
}

// Names returns the sorted command names.
func (r *Registry) Names() []string {
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// Default returns a registry with every built-in command.
func Default() *Registry {
	r := NewRegistry()
	r.mustRegister(patternCommands()...)
	r.mustRegister(styleCommands()...)
	r.mustRegister(inventoryCommands()...)
	r.mustRegister(convertCommands()...)
	r.mustRegister(syntaxCommands()...)
	r.mustRegister(markdownCommands()...)
	r.mustRegister(pythonCommands()...)
	r.mustRegister(packCommands()...)
	return r
}

func intFlag(name string, def int, usage string) Flag {
	return Flag{Name: name, Kind: FlagInt, Default: def, Usage: usage}
}
