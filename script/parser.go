// Package script parses dialogue scripts and compiles them into payloads for
// a dialogue box.
//
//	dialogue Intro {
//	  speed 30ms
//	  text "Hello, ${player.name}!" tag greet
//	  silence 1.5s
//	  break
//	  clear
//	  text "[shake]Run![/shake]" speed 0s front
//	}
package script

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	scriptLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Duration", Pattern: `(?:\d+\.\d+|\d+)(?:ms|s|m)\b`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[;+]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	documentParser = participle.MustBuild[Document](
		participle.Lexer(scriptLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
		participle.Unquote("String"),
	)
)

// Document is the root of a script file.
type Document struct {
	Pos       lexer.Position `parser:"" json:"-"`
	Dialogues []*Dialogue    `parser:"Newline* ( @@ Newline* )*"`
}

// Dialogue is a named sequence of statements.
type Dialogue struct {
	Pos        lexer.Position `parser:"" json:"-"`
	Name       string         `parser:"'dialogue' @Ident"`
	Statements []*Statement   `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Statement is one line of a dialogue.
type Statement struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Speed   *Duration      `parser:"  'speed' @Duration"`
	Text    *TextStmt      `parser:"| @@"`
	Silence *SilenceStmt   `parser:"| @@"`
	Break   *BreakStmt     `parser:"| @@"`
	Clear   *ClearStmt     `parser:"| @@"`
}

// Kind returns the statement keyword.
func (s *Statement) Kind() string {
	switch {
	case s == nil:
		return "unknown"
	case s.Speed != nil:
		return "speed"
	case s.Text != nil:
		return "text"
	case s.Silence != nil:
		return "silence"
	case s.Break != nil:
		return "break"
	case s.Clear != nil:
		return "clear"
	default:
		return "unknown"
	}
}

// TextStmt queues text. Adjacent strings joined with '+' form one body.
type TextStmt struct {
	Parts   []string  `parser:"'text' @String ( '+' Newline* @String )*"`
	Options []*Option `parser:"@@*"`
}

// SilenceStmt queues a pause.
type SilenceStmt struct {
	Duration Duration  `parser:"'silence' @Duration"`
	Options  []*Option `parser:"@@*"`
}

// BreakStmt queues a wait for the confirm action.
type BreakStmt struct {
	Keyword string    `parser:"@'break'"`
	Options []*Option `parser:"@@*"`
}

// ClearStmt queues a wipe of the box.
type ClearStmt struct {
	Keyword string    `parser:"@'clear'"`
	Options []*Option `parser:"@@*"`
}

// Option modifies the statement it follows.
type Option struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Speed *Duration      `parser:"  'speed' @Duration"`
	Tag   *string        `parser:"| 'tag' @(Ident | String)"`
	Front bool           `parser:"| @'front'"`
}

// Duration captures Go duration literals such as 30ms or 1.5s.
type Duration time.Duration

// Capture implements participle.Capture.
func (d *Duration) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("duration capture requires value")
	}
	v, err := time.ParseDuration(values[0])
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Parse parses a script from r. name is used in error positions.
func Parse(name string, r io.Reader) (*Document, error) {
	return documentParser.Parse(name, r)
}

// ParseString parses script content from a string.
func ParseString(input string) (*Document, error) {
	return documentParser.ParseString("", input)
}

// ParseFile parses the script at path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()
	return Parse(path, f)
}

// Dialogue returns the named dialogue, or the first one when name is empty.
func (d *Document) Dialogue(name string) (*Dialogue, error) {
	if d == nil || len(d.Dialogues) == 0 {
		return nil, fmt.Errorf("script has no dialogues")
	}
	if name == "" {
		return d.Dialogues[0], nil
	}
	for _, dl := range d.Dialogues {
		if dl.Name == name {
			return dl, nil
		}
	}
	return nil, fmt.Errorf("dialogue %q not found", name)
}
