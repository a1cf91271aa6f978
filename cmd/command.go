package cmd

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"go.dedis.ch/chord/overlay"
)

// This file parses console commands from plain text to an internal data
// structure.
//
// The console grammar is one command per line:
//
//	put "name" "value"
//	get "name"
//	del "name"
//	insert 5
//	remove 5
//
// Names and values are quoted strings; node identifiers are plain integers.

// Lexer for the console commands. Rules are specified with regexp.
var commandLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: `Keyword`, Pattern: `(?i)\b(put|get|del|insert|remove)\b`},
	{Name: `Int`, Pattern: `\d+`},
	{Name: `String`, Pattern: `"(.*?)"`},
	{Name: "whitespace", Pattern: `\s+`},
})

// Command is one console command; exactly one branch is set.
type Command struct {
	Put    *PutCommand    `  @@`
	Get    *GetCommand    `| @@`
	Del    *DelCommand    `| @@`
	Insert *InsertCommand `| @@`
	Remove *RemoveCommand `| @@`
}

// PutCommand stores a value under a name.
type PutCommand struct {
	Name  string `"put" @String`
	Value string `@String`
}

// GetCommand looks a name up.
type GetCommand struct {
	Name string `"get" @String`
}

// DelCommand removes a stored name.
type DelCommand struct {
	Name string `"del" @String`
}

// InsertCommand adds a node.
type InsertCommand struct {
	ID uint64 `"insert" @Int`
}

// RemoveCommand drops a node.
type RemoveCommand struct {
	ID uint64 `"remove" @Int`
}

// GetCommandParser builds the console command parser.
func GetCommandParser() *participle.Parser[Command] {
	return participle.MustBuild[Command](
		participle.Lexer(commandLexer),
		participle.Unquote("String"),
	)
}

// Run executes the command against the overlay and returns a printable
// result line.
func (c *Command) Run(ov overlay.Overlay) (string, error) {
	switch {
	case c.Put != nil:
		placed, err := ov.Put(c.Put.Name, []byte(c.Put.Value))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("stored %q on node %d", c.Put.Name, placed), nil

	case c.Get != nil:
		value, err := ov.Lookup(c.Get.Name)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%q = %q", c.Get.Name, value), nil

	case c.Del != nil:
		if err := ov.Delete(c.Del.Name); err != nil {
			return "", err
		}
		return fmt.Sprintf("deleted %q", c.Del.Name), nil

	case c.Insert != nil:
		if err := ov.InsertNode(c.Insert.ID); err != nil {
			return "", err
		}
		if err := ov.Rebalance(); err != nil {
			return "", err
		}
		return fmt.Sprintf("node %d joined", c.Insert.ID), nil

	case c.Remove != nil:
		if err := ov.RemoveNode(c.Remove.ID); err != nil {
			return "", err
		}
		if err := ov.Rebalance(); err != nil {
			return "", err
		}
		return fmt.Sprintf("node %d left", c.Remove.ID), nil
	}

	return "", fmt.Errorf("empty command")
}
