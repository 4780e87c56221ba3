package tokens

import (
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Minify strips comments and redundant whitespace from css, removes spaces
// around braces, colons, semicolons and commas, and drops the semicolon
// before each closing brace. It works on the token stream only, so it never
// reorders or rewrites declarations. Minify(Minify(x)) == Minify(x).
//
// Whitespace next to a colon is always dropped, which is correct for
// declarations but would merge a descendant selector such as "a :hover".
// Generated stylesheets never contain that form.
func Minify(src string) string {
	lexer := css.NewLexer(parse.NewInputString(src))

	var sb strings.Builder
	sb.Grow(len(src))

	var (
		pendingSpace bool
		pendingSemi  bool
		afterSep     = true
	)

	flushSemi := func() {
		if pendingSemi {
			sb.WriteByte(';')
			pendingSemi = false
			afterSep = true
		}
	}

	for {
		tt, data := lexer.Next()
		switch tt {
		case css.ErrorToken:
			flushSemi()
			return sb.String()
		case css.CommentToken, css.WhitespaceToken:
			pendingSpace = true
		case css.SemicolonToken:
			// Runs of semicolons are empty declarations; keep one.
			pendingSemi = true
			pendingSpace = false
		case css.RightBraceToken:
			pendingSemi = false
			pendingSpace = false
			sb.WriteByte('}')
			afterSep = true
		case css.LeftBraceToken, css.ColonToken, css.CommaToken:
			flushSemi()
			pendingSpace = false
			sb.Write(data)
			afterSep = true
		default:
			flushSemi()
			if pendingSpace && !afterSep {
				sb.WriteByte(' ')
			}
			pendingSpace = false
			sb.Write(data)
			afterSep = false
		}
	}
}
