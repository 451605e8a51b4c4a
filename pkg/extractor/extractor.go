// Package extractor locates candidate code blocks in source text using
// per-language start patterns and a string-aware brace-balance scanner.
// It is a best-effort heuristic, not a parser: unsupported languages simply
// produce zero blocks, and truncated files close their last block at EOF.
package extractor

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/simscan/simscan/pkg/models"
	"github.com/simscan/simscan/pkg/source"
)

// Language is a source language tag derived from a file extension.
type Language string

const (
	LangUnknown    Language = "unknown"
	LangGo         Language = "go"
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangJava       Language = "java"
	LangCSharp     Language = "csharp"
	LangRust       Language = "rust"
	LangC          Language = "c"
	LangCpp        Language = "cpp"
	LangPHP        Language = "php"
)

// DetectLanguage detects the language tag from a file extension.
func DetectLanguage(path string) Language {
	path = strings.ToLower(path)
	switch {
	case strings.HasSuffix(path, ".go"):
		return LangGo
	case strings.HasSuffix(path, ".ts"), strings.HasSuffix(path, ".tsx"):
		return LangTypeScript
	case strings.HasSuffix(path, ".js"), strings.HasSuffix(path, ".jsx"),
		strings.HasSuffix(path, ".mjs"), strings.HasSuffix(path, ".cjs"):
		return LangJavaScript
	case strings.HasSuffix(path, ".java"):
		return LangJava
	case strings.HasSuffix(path, ".cs"):
		return LangCSharp
	case strings.HasSuffix(path, ".rs"):
		return LangRust
	case strings.HasSuffix(path, ".c"), strings.HasSuffix(path, ".h"):
		return LangC
	case strings.HasSuffix(path, ".cpp"), strings.HasSuffix(path, ".hpp"),
		strings.HasSuffix(path, ".cc"), strings.HasSuffix(path, ".cxx"):
		return LangCpp
	case strings.HasSuffix(path, ".php"):
		return LangPHP
	default:
		return LangUnknown
	}
}

// blockPatterns maps a language to the start-of-block declaration patterns
// matched against trimmed lines. Python is deliberately absent: the end
// scanner is brace-based and cannot bound indentation-delimited blocks.
var blockPatterns = map[Language][]*regexp.Regexp{
	LangGo: {
		regexp.MustCompile(`^func\s+(?:\([^)]+\)\s+)?\w+\s*\(`),
		regexp.MustCompile(`^type\s+\w+\s+(?:struct|interface)\s*\{`),
	},
	LangTypeScript: {
		regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*\w+\s*[(<]`),
		regexp.MustCompile(`^(?:export\s+)?(?:const|let|var)\s+\w+\s*=\s*(?:async\s+)?(?:function\b|\()`),
		regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+\w+`),
		regexp.MustCompile(`^(?:public|private|protected)\s+(?:static\s+)?(?:async\s+)?\w+\s*\(`),
	},
	LangJava: {
		regexp.MustCompile(`^(?:public|private|protected)\s+(?:static\s+)?(?:final\s+)?[\w<>\[\]]+\s+\w+\s*\(`),
		regexp.MustCompile(`^(?:public\s+|final\s+|abstract\s+)*class\s+\w+`),
	},
	LangCSharp: {
		regexp.MustCompile(`^(?:public|private|protected|internal)\s+(?:static\s+)?(?:async\s+)?[\w<>\[\]]+\s+\w+\s*\(`),
		regexp.MustCompile(`^(?:public\s+|internal\s+|sealed\s+|abstract\s+|partial\s+)*class\s+\w+`),
	},
	LangRust: {
		regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?(?:unsafe\s+)?fn\s+\w+`),
		regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?(?:struct|enum|trait)\s+\w+`),
		regexp.MustCompile(`^impl\b`),
	},
	LangC: {
		regexp.MustCompile(`^[A-Za-z_][\w\s\*]*\s\**\w+\s*\([^;]*\)\s*\{?\s*$`),
	},
	LangCpp: {
		regexp.MustCompile(`^[A-Za-z_][\w\s\*:<>,&]*\s\**[\w:]+\s*\([^;]*\)\s*(?:const\s*)?\{?\s*$`),
		regexp.MustCompile(`^(?:class|struct)\s+\w+`),
	},
	LangPHP: {
		regexp.MustCompile(`^(?:(?:public|private|protected|static)\s+)*function\s+\w+\s*\(`),
		regexp.MustCompile(`^(?:final\s+|abstract\s+)?class\s+\w+`),
	},
}

func init() {
	// JavaScript shares the TypeScript declaration forms.
	blockPatterns[LangJavaScript] = blockPatterns[LangTypeScript]
}

// Supported reports whether a path maps to a language with block patterns.
func Supported(path string) bool {
	_, ok := blockPatterns[DetectLanguage(path)]
	return ok
}

// isBlockStart reports whether a trimmed line opens a function or class.
func isBlockStart(trimmed string, lang Language) bool {
	for _, pat := range blockPatterns[lang] {
		if pat.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// ExtractBlocks scans content line-by-line and returns every block whose
// start line matches a declaration pattern for the language. The caller
// owns attaching the file path; unknown languages yield nil.
func ExtractBlocks(path, content string, lang Language) []models.CodeBlock {
	patterns := blockPatterns[lang]
	if len(patterns) == 0 {
		return nil
	}

	lines := strings.Split(content, "\n")
	var blocks []models.CodeBlock

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || !isBlockStart(trimmed, lang) {
			continue
		}

		end := findBlockEnd(lines, i)
		code := strings.Join(lines[i:end+1], "\n")
		blocks = append(blocks, models.CodeBlock{
			FilePath:  path,
			StartLine: i + 1,
			EndLine:   end + 1,
			Code:      code,
			Hash:      Fingerprint(code),
			Tokens:    Tokenize(code),
		})
		i = end
	}

	return blocks
}

// ExtractFile reads a file through the content source and extracts its
// blocks. Read failures are logged and contribute zero blocks; a single
// unreadable file never fails the surrounding run.
func ExtractFile(src source.ContentSource, path string) []models.CodeBlock {
	lang := DetectLanguage(path)
	if _, ok := blockPatterns[lang]; !ok {
		return nil
	}
	content, err := src.Read(path)
	if err != nil {
		slog.Warn("skipping unreadable file", "path", path, "error", err)
		return nil
	}
	return ExtractBlocks(path, string(content), lang)
}

// findBlockEnd walks characters from the start line forward, balancing
// braces while tracking string-literal state. The block ends at the first
// line strictly after the start line where the depth returns to zero after
// having gone positive; EOF closes the block at the last line.
func findBlockEnd(lines []string, start int) int {
	depth := 0
	opened := false
	inString := false
	var quote byte

	for li := start; li < len(lines); li++ {
		line := lines[li]
		for i := 0; i < len(line); i++ {
			ch := line[i]
			if inString {
				if ch == quote && !isEscaped(line, i) {
					inString = false
				}
				continue
			}
			switch ch {
			case '"', '\'', '`':
				inString = true
				quote = ch
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
		}
		if li > start && opened && depth <= 0 {
			return li
		}
	}
	return len(lines) - 1
}

// isEscaped reports whether the character at pos is escaped by an odd run
// of preceding backslashes.
func isEscaped(line string, pos int) bool {
	backslashes := 0
	for i := pos - 1; i >= 0 && line[i] == '\\'; i-- {
		backslashes++
	}
	return backslashes%2 == 1
}
