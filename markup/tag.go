package markup

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	tagLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t]+`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Eq", Pattern: `=`},
		{Name: "Word", Pattern: `[^\s="\[\]]+`},
	})

	tagParser = participle.MustBuild[tagBody](
		participle.Lexer(tagLexer),
		participle.Elide("Whitespace"),
		participle.Unquote("String"),
	)
)

// tagBody 是开标签的语法：标签名、可选的 =value 以及属性列表。
type tagBody struct {
	Name  string     `parser:"@Ident"`
	Value *string    `parser:"( '=' @( String | Ident | Word ) )?"`
	Attrs []*tagAttr `parser:"@@*"`
}

type tagAttr struct {
	Key   string `parser:"@Ident"`
	Value string `parser:"'=' @( String | Ident | Word )"`
}

// ParseTag parses the body of an opening tag, the text between the brackets.
func ParseTag(body string) (Tag, error) {
	parsed, err := tagParser.ParseString("", body)
	if err != nil {
		return Tag{}, fmt.Errorf("parse tag [%s]: %w", body, err)
	}
	tag := Tag{Name: parsed.Name, Full: body}
	if parsed.Value != nil {
		tag.Value = *parsed.Value
	}
	for _, a := range parsed.Attrs {
		tag.Attrs = append(tag.Attrs, Attr{Key: a.Key, Value: a.Value})
	}
	return tag, nil
}

// classifyTag 判断 body 是否为 markup。闭标签返回要闭合的标签名，名称为空时闭合最内层标签。
func classifyTag(body string) (tag Tag, closing bool, ok bool) {
	if strings.HasPrefix(body, "/") {
		name := strings.TrimSpace(body[1:])
		if name != "" && !isIdent(name) {
			return Tag{}, false, false
		}
		return Tag{Name: name}, true, true
	}
	tag, err := ParseTag(body)
	if err != nil {
		return Tag{}, false, false
	}
	return tag, false, true
}

func isIdent(s string) bool {
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (r == '-' || unicode.IsDigit(r)):
		default:
			return false
		}
	}
	return s != ""
}
