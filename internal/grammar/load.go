package grammar

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"harlowe-toolbox/internal/markup"
)

// ErrUnknownMode is returned when a rule refers to an inner mode that the
// file does not define.
var ErrUnknownMode = errors.New("unknown inner mode")

// mainMode names the top-level table when used as an inner mode.
const mainMode = "main"

// RuleSpec is the TOML form of a markup rule.
type RuleSpec struct {
	Name             string   `toml:"name"`
	Kind             string   `toml:"kind"`
	Pattern          string   `toml:"pattern"`
	Literal          bool     `toml:"literal"`
	Closer           string   `toml:"closer"`
	CloserLiteral    bool     `toml:"closer_literal"`
	CannotFollowText bool     `toml:"cannot_follow_text"`
	CannotCross      []string `toml:"cannot_cross"`
	LineStart        bool     `toml:"line_start"`
	WholeLine        bool     `toml:"whole_line"`
	LeaveCloser      bool     `toml:"leave_closer"`
	CloseAtEnd       bool     `toml:"close_at_end"`
	NameGroup        int      `toml:"name_group"`
	TextGroup        int      `toml:"text_group"`
	Inner            string   `toml:"inner"`
	Hidden           bool     `toml:"hidden"`
}

// File is the layout of a grammar file: the top-level table plus named
// interior modes.
type File struct {
	Rules []RuleSpec            `toml:"rule"`
	Modes map[string][]RuleSpec `toml:"mode"`
}

// LoadFile reads a TOML grammar from path.
func LoadFile(path string) (markup.Rules, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("decode grammar %s: %w", path, err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, fmt.Errorf("grammar %s: %w", path, err)
	}
	return f.Compile()
}

// Load reads a TOML grammar from memory.
func Load(data string) (markup.Rules, error) {
	var f File
	md, err := toml.Decode(data, &f)
	if err != nil {
		return nil, fmt.Errorf("decode grammar: %w", err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, err
	}
	return f.Compile()
}

func checkUndecoded(md toml.MetaData) error {
	keys := md.Undecoded()
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return fmt.Errorf("unknown grammar keys: %s", strings.Join(names, ", "))
}

// Compile turns the specs into a rule table. Every pattern is compiled here so
// configuration errors surface before any input is lexed.
func (f *File) Compile() (markup.Rules, error) {
	tables := make(map[string]*markup.Rules, len(f.Modes)+1)
	main := new(markup.Rules)
	tables[mainMode] = main
	for name := range f.Modes {
		if name == mainMode {
			return nil, fmt.Errorf("mode %q is reserved", mainMode)
		}
		tables[name] = new(markup.Rules)
	}

	build := func(specs []RuleSpec, dst *markup.Rules, where string) error {
		for i, s := range specs {
			r, err := s.compile(tables)
			if err != nil {
				return fmt.Errorf("%s rule %d (%s): %w", where, i+1, s.Kind, err)
			}
			*dst = append(*dst, r)
		}
		return nil
	}

	if err := build(f.Rules, main, mainMode); err != nil {
		return nil, err
	}
	for name, specs := range f.Modes {
		if err := build(specs, tables[name], "mode "+name); err != nil {
			return nil, err
		}
	}
	return *main, nil
}

func (s RuleSpec) compile(tables map[string]*markup.Rules) (markup.Rule, error) {
	if s.Kind == "" {
		return markup.Rule{}, errors.New("missing kind")
	}
	if s.Pattern == "" {
		return markup.Rule{}, errors.New("missing pattern")
	}

	r := markup.Rule{
		Name:             s.Name,
		Kind:             markup.Kind(s.Kind),
		CannotFollowText: s.CannotFollowText,
		LeaveCloser:      s.LeaveCloser,
		CloseAtEnd:       s.CloseAtEnd,
	}
	if r.Name == "" {
		r.Name = s.Kind
	}

	var err error
	if r.Pattern, err = pattern(s.Pattern, s.Literal); err != nil {
		return markup.Rule{}, err
	}
	if s.Closer != "" {
		if r.Closer, err = pattern(s.Closer, s.CloserLiteral); err != nil {
			return markup.Rule{}, err
		}
	}
	for _, k := range s.CannotCross {
		r.CannotCross = append(r.CannotCross, markup.Kind(k))
	}

	if s.Inner != "" {
		inner, ok := tables[s.Inner]
		if !ok {
			return markup.Rule{}, fmt.Errorf("%w: %q", ErrUnknownMode, s.Inner)
		}
		r.Inner = inner
	}

	nameGroup, textGroup, hidden := s.NameGroup, s.TextGroup, s.Hidden
	if nameGroup > 0 || textGroup > 0 || hidden {
		r.Convert = func(m *markup.Match) *markup.Token {
			t := &markup.Token{Hidden: hidden}
			if nameGroup > 0 {
				t.Name = m.GroupText(nameGroup)
			}
			if textGroup > 0 {
				if c := m.TextChild(textGroup); c != nil {
					t.Children = []*markup.Token{c}
				}
			}
			return t
		}
	}

	switch {
	case s.WholeLine:
		r.Constraint = wholeLine
	case s.LineStart:
		r.Constraint = lineStart
	}
	return r, nil
}

func pattern(expr string, literal bool) (markup.Pattern, error) {
	if literal {
		return markup.Literal(expr), nil
	}
	return markup.Regexp(expr)
}
