// Package validate implements the statement safety policy applied to every
// piece of SQL before it can reach the database. The policy is a keyword
// scan, not a SQL parse: a modifying keyword inside a string literal is
// falsely rejected, and that trade-off is accepted.
package validate

import (
	"fmt"
	"regexp"
	"strings"
)

// modifyingKeywords are the data-modifying and schema-altering keywords
// that are rejected wherever they appear as a standalone token.
var modifyingKeywords = []string{
	"DROP", "DELETE", "UPDATE", "INSERT", "ALTER",
	"TRUNCATE", "CREATE", "GRANT", "REVOKE",
}

var keywordPatterns = compileKeywordPatterns()

func compileKeywordPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(modifyingKeywords))
	for _, kw := range modifyingKeywords {
		patterns[kw] = regexp.MustCompile(`(?i)(?:^|[^a-zA-Z0-9_])` + kw + `(?:[^a-zA-Z0-9_]|$)`)
	}
	return patterns
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// CheckQuery decides whether a full SQL statement may be executed.
// Only single SELECT or WITH statements pass; any modifying keyword
// anywhere in the text rejects it.
func CheckQuery(sqlText string) error {
	stripped := stripLeadingComments(sqlText)
	if stripped == "" {
		return fmt.Errorf("empty query")
	}

	upper := strings.ToUpper(stripped)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return fmt.Errorf("only SELECT and WITH queries are allowed")
	}

	if hasMultipleStatements(stripped) {
		return fmt.Errorf("multiple statements are not allowed")
	}

	for _, kw := range modifyingKeywords {
		if keywordPatterns[kw].MatchString(sqlText) {
			return fmt.Errorf("query contains forbidden keyword: %s", kw)
		}
	}

	return nil
}

// CheckIdentifier guards table-name inputs against identifier-position
// injection. Only letters, digits and underscores are accepted.
func CheckIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("empty table name")
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid table name: only letters, digits and underscores are allowed")
	}
	return nil
}

// stripLeadingComments removes leading whitespace and SQL comments so the
// first real keyword can be inspected.
func stripLeadingComments(s string) string {
	for {
		s = strings.TrimSpace(s)
		switch {
		case strings.HasPrefix(s, "--"):
			if idx := strings.IndexByte(s, '\n'); idx >= 0 {
				s = s[idx+1:]
			} else {
				return ""
			}
		case strings.HasPrefix(s, "/*"):
			if idx := strings.Index(s, "*/"); idx >= 0 {
				s = s[idx+2:]
			} else {
				return ""
			}
		default:
			return s
		}
	}
}

// hasMultipleStatements reports whether a ';' is followed by further SQL.
// A single trailing semicolon is fine.
func hasMultipleStatements(s string) bool {
	if idx := strings.IndexByte(s, ';'); idx >= 0 {
		return strings.TrimSpace(s[idx+1:]) != ""
	}
	return false
}
