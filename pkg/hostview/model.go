package hostview

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/google/uuid"

	"github.com/odvcencio/codepane/pkg/linerender"
)

// Model is an in-memory document with cached per-line syntax token runs.
type Model struct {
	id       string
	language string
	lines    []string
	tokens   [][]linerender.TokenRun
}

// NewModel tokenizes content for the given language. An unknown language
// falls back to content analysis, then to plain text.
func NewModel(content, language string) *Model {
	m := &Model{
		id:       uuid.NewString(),
		language: language,
		lines:    strings.Split(strings.TrimSuffix(content, "\n"), "\n"),
	}
	m.tokens = tokenizeLines(content, language, len(m.lines))
	return m
}

// ID returns the model's unique identity.
func (m *Model) ID() string {
	return m.id
}

// Language returns the language the model was tokenized as.
func (m *Model) Language() string {
	return m.language
}

// LineCount returns the number of document lines.
func (m *Model) LineCount() int {
	return len(m.lines)
}

// Line returns the content of a 1-based document line.
func (m *Model) Line(line int) (string, bool) {
	if line < 1 || line > len(m.lines) {
		return "", false
	}
	return m.lines[line-1], true
}

// Lines returns all document lines.
func (m *Model) Lines() []string {
	return m.lines
}

// TokenRuns returns the syntax token runs for a 1-based document line.
func (m *Model) TokenRuns(line int) []linerender.TokenRun {
	if line < 1 || line > len(m.tokens) {
		return nil
	}
	return m.tokens[line-1]
}

// tokenizeLines runs chroma over the whole document and buckets token runs
// per line, coalescing adjacent runs with the same class.
func tokenizeLines(content, language string, lineCount int) [][]linerender.TokenRun {
	out := make([][]linerender.TokenRun, lineCount)

	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(content)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iter, err := lexer.Tokenise(nil, content)
	if err != nil {
		return out
	}

	line := 0
	col := 0
	emit := func(text, class string) {
		if text == "" || line >= lineCount {
			return
		}
		col += len([]rune(text))
		runs := out[line]
		if n := len(runs); n > 0 && runs[n-1].Class == class {
			runs[n-1].EndIndex = col
			out[line] = runs
			return
		}
		out[line] = append(runs, linerender.TokenRun{EndIndex: col, Class: class})
	}

	for token := iter(); token != chroma.EOF; token = iter() {
		if token.Value == "" {
			continue
		}
		class := classForToken(token.Type)
		parts := strings.Split(token.Value, "\n")
		for i, part := range parts {
			emit(part, class)
			if i < len(parts)-1 {
				line++
				col = 0
			}
		}
	}
	return out
}

// classForToken maps chroma token categories to the style classes the theme
// resolves.
func classForToken(ttype chroma.TokenType) string {
	if ttype == chroma.Error {
		return "error"
	}
	switch {
	case ttype.InCategory(chroma.Comment):
		return "comment"
	case ttype.InCategory(chroma.Keyword):
		return "keyword"
	case ttype.InCategory(chroma.LiteralString):
		return "string"
	case ttype.InCategory(chroma.LiteralNumber):
		return "number"
	case ttype.InCategory(chroma.Operator):
		return "operator"
	case ttype.InCategory(chroma.Punctuation):
		return "punctuation"
	case ttype.InCategory(chroma.Name):
		switch ttype {
		case chroma.NameFunction, chroma.NameFunctionMagic:
			return "function"
		case chroma.NameClass, chroma.NameNamespace:
			return "type"
		case chroma.NameBuiltin, chroma.NameBuiltinPseudo:
			return "builtin"
		case chroma.NameTag:
			return "tag"
		case chroma.NameAttribute:
			return "attribute"
		case chroma.NameConstant:
			return "number"
		}
	}
	return ""
}
