package extract

import (
	"strings"
	"testing"
)

const sampleConfig = `Weather Web App Configuration:

# Project Structure
/app
  /frontend
  /backend

# Frontend Dependencies
{
  "dependencies": {
    "react": "^18.2.0"
  },
  "devDependencies": {
    "vite": "^5.0.0"
  }
}

# Empty Section

# Notes
Remember the {braces} here are prose.
`

func TestSectionReturnsTrimmedBody(t *testing.T) {
	got := Section(sampleConfig, "Project Structure")
	want := "/app\n  /frontend\n  /backend"
	if got != want {
		t.Fatalf("Section = %q, want %q", got, want)
	}
}

func TestSectionMissingHeading(t *testing.T) {
	if got := Section(sampleConfig, "Does Not Exist"); got != "" {
		t.Fatalf("Section for missing heading = %q, want empty", got)
	}
}

func TestSectionEmptyBody(t *testing.T) {
	if got := Section(sampleConfig, "Empty Section"); got != "" {
		t.Fatalf("Section with empty body = %q, want empty", got)
	}
}

func TestSectionFirstMatchWins(t *testing.T) {
	content := "# Config\nfirst\n# Other\nmiddle\n# Config\nsecond\n"
	if got := Section(content, "Config"); got != "first" {
		t.Fatalf("Section = %q, want first occurrence", got)
	}
}

func TestJSONObjectKeepsNestedBraces(t *testing.T) {
	got := JSONObject(sampleConfig, "Frontend Dependencies")
	if !strings.HasPrefix(got, "{") || !strings.HasSuffix(got, "}") {
		t.Fatalf("JSONObject returned unbalanced result: %q", got)
	}
	if !strings.Contains(got, `"devDependencies"`) {
		t.Fatalf("JSONObject truncated at inner object: %q", got)
	}
}

func TestJSONObjectIgnoresBracesInStrings(t *testing.T) {
	object := "{\n  \"template\": \"hello {name}\",\n  \"nested\": {\"suffix\": \"}\"}\n}"
	content := "# Payload\n" + object + "\n"
	if got := JSONObject(content, "Payload"); got != object {
		t.Fatalf("brace counter was fooled by quoted braces: %q", got)
	}
}

func TestJSONObjectEscapedQuotes(t *testing.T) {
	content := "# Payload\n{\"msg\": \"she said \\\"hi\\\"\", \"n\": {\"x\": 1}}\n"
	got := JSONObject(content, "Payload")
	if !strings.HasSuffix(got, "}}") {
		t.Fatalf("escaped quote broke the scanner: %q", got)
	}
}

func TestJSONObjectFallback(t *testing.T) {
	if got := JSONObject(sampleConfig, "Project Structure"); got != "{}" {
		t.Fatalf("JSONObject without object = %q, want {}", got)
	}
	// Unclosed object also falls back.
	content := "# Broken\n{\"open\": true\n"
	if got := JSONObject(content, "Broken"); got != "{}" {
		t.Fatalf("JSONObject with unbalanced object = %q, want {}", got)
	}
}

func TestCodeBlockExtractsFirstMatch(t *testing.T) {
	content := "Intro.\n```tsx\nexport const A = 1;\n```\nMore text.\n```tsx\nexport const B = 2;\n```\n"
	got := CodeBlock(content, "tsx")
	if got != "export const A = 1;" {
		t.Fatalf("CodeBlock = %q, want first tsx block", got)
	}
}

func TestCodeBlockIgnoresOtherLanguages(t *testing.T) {
	content := "```css\n.card { color: red; }\n```\n```tsx\nexport {};\n```\n"
	if got := CodeBlock(content, "tsx"); got != "export {};" {
		t.Fatalf("CodeBlock = %q, want tsx block", got)
	}
	if got := CodeBlock(content, "css"); got != ".card { color: red; }" {
		t.Fatalf("CodeBlock = %q, want css block", got)
	}
}

func TestCodeBlockFallbackWhenMissing(t *testing.T) {
	content := "no fences here at all"
	if got := CodeBlock(content, "tsx"); got != content {
		t.Fatalf("CodeBlock fallback = %q, want original content", got)
	}
}

func TestCodeBlockUnclosedFenceFallsBack(t *testing.T) {
	content := "```tsx\nexport const A = 1;\n"
	if got := CodeBlock(content, "tsx"); got != content {
		t.Fatalf("CodeBlock with unclosed fence = %q, want original content", got)
	}
}
