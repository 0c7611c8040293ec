// Package sig expands pharmacist dosage shorthand ("sig codes") into
// patient-readable instructions. The original free-text instruction is always
// the value of record; the expansion is a parallel display string.
package sig

import (
	"regexp"
	"strings"
)

// defaultTable maps common Latin/BNF shorthand to plain English. Expansions
// must never contain table keys, otherwise re-interpreting output would not
// be a fixed point.
var defaultTable = map[string]string{
	"od":    "once daily",
	"bd":    "twice daily",
	"tds":   "three times daily",
	"qid":   "four times daily",
	"qds":   "four times daily",
	"prn":   "when necessary",
	"pc":    "after food",
	"ac":    "before food",
	"po":    "by mouth",
	"t1":    "take one tablet",
	"t2":    "take two tablets",
	"stat":  "immediately",
	"nocte": "at night",
	"mane":  "in the morning",
	"sos":   "if needed",
}

var tokenPattern = regexp.MustCompile(`[A-Za-z][A-Za-z0-9]*`)

// Interpreter performs word-boundary, case-insensitive substitution of
// shorthand tokens. The table is fixed at construction.
type Interpreter struct {
	table map[string]string
}

// NewInterpreter returns an Interpreter with the built-in abbreviation table.
func NewInterpreter() *Interpreter {
	return NewInterpreterWithTable(defaultTable)
}

// NewInterpreterWithTable returns an Interpreter using a copy of the given
// table. Keys are lowercased.
func NewInterpreterWithTable(table map[string]string) *Interpreter {
	t := make(map[string]string, len(table))
	for k, v := range table {
		t[strings.ToLower(k)] = v
	}
	return &Interpreter{table: t}
}

// Interpret expands every known shorthand token in s, leaving everything else
// untouched. The substitution is a single pass: expansions are never
// re-scanned, so Interpret is idempotent on its own output.
func (i *Interpreter) Interpret(s string) string {
	return tokenPattern.ReplaceAllStringFunc(s, func(tok string) string {
		if exp, ok := i.table[strings.ToLower(tok)]; ok {
			return exp
		}
		return tok
	})
}

// Knows reports whether the interpreter has an expansion for token.
func (i *Interpreter) Knows(token string) bool {
	_, ok := i.table[strings.ToLower(token)]
	return ok
}
