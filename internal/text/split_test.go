package text_test

import (
	"strings"
	"testing"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/edgard/relaybot/internal/text"
)

func TestSplit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		maxLength int
		want      []string
	}{
		{name: "empty string", input: "", maxLength: 10, want: nil},
		{name: "shorter than limit", input: "hello", maxLength: 10, want: []string{"hello"}},
		{name: "exactly the limit", input: "hello", maxLength: 5, want: []string{"hello"}},
		{name: "one over the limit", input: "hello!", maxLength: 5, want: []string{"hello", "!"}},
		{name: "even split", input: "abcdef", maxLength: 2, want: []string{"ab", "cd", "ef"}},
		{name: "single rune pieces", input: "abc", maxLength: 1, want: []string{"a", "b", "c"}},
		{name: "cyrillic counted by rune", input: "привет", maxLength: 4, want: []string{"прив", "ет"}},
		{name: "emoji kept whole", input: "🚀🚀🚀", maxLength: 2, want: []string{"🚀🚀", "🚀"}},
		{name: "zero limit disables split", input: "hello", maxLength: 0, want: []string{"hello"}},
		{name: "negative limit disables split", input: "hello", maxLength: -3, want: []string{"hello"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := text.Split(tt.input, tt.maxLength)
			if len(got) != len(tt.want) {
				t.Fatalf("Split(%q, %d) returned %d parts %q, want %d parts %q",
					tt.input, tt.maxLength, len(got), got, len(tt.want), tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("part %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplitProperties(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"a",
		strings.Repeat("x", 9000),
		strings.Repeat("ünïcödé ", 700),
		strings.Repeat("日本語のテキスト", 613),
		"mixed 🚀 content\nwith newlines\tand tabs",
	}
	limits := []int{1, 2, 3, 7, 100, 4096}

	for _, input := range inputs {
		for _, n := range limits {
			parts := text.Split(input, n)

			if joined := strings.Join(parts, ""); joined != input {
				t.Fatalf("Split(len=%d, %d): concatenation does not reproduce input", len(input), n)
			}

			runes := utf8.RuneCountInString(input)
			wantParts := (runes + n - 1) / n
			if len(parts) != wantParts {
				t.Errorf("Split(runes=%d, %d) = %d parts, want %d", runes, n, len(parts), wantParts)
			}

			for i, p := range parts {
				if c := utf8.RuneCountInString(p); c > n || c == 0 {
					t.Errorf("Split(runes=%d, %d): part %d has %d runes", runes, n, i, c)
				}
				if !utf8.ValidString(p) {
					t.Errorf("Split(runes=%d, %d): part %d is not valid UTF-8", runes, n, i)
				}
			}
		}
	}
}

func TestSplitTelegramReply(t *testing.T) {
	t.Parallel()

	reply := strings.Repeat("r", 9000)
	parts := text.Split(reply, 4096)

	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(parts))
	}
	if len(parts[0]) != 4096 || len(parts[1]) != 4096 || len(parts[2]) != 808 {
		t.Errorf("unexpected part sizes: %d, %d, %d", len(parts[0]), len(parts[1]), len(parts[2]))
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "short", input: "hi", maxLen: 10, want: "hi"},
		{name: "exact", input: "hello", maxLen: 5, want: "hello"},
		{name: "cut", input: "hello world", maxLen: 8, want: "hello..."},
		{name: "tiny limit", input: "hello", maxLen: 2, want: "..."},
		{name: "runes", input: "привет мир", maxLen: 6, want: "при..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := text.Truncate(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestSplitUTF16(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		maxUnits int
		want     []string
	}{
		{name: "empty string", input: "", maxUnits: 10, want: nil},
		{name: "bmp text matches rune split", input: "привет", maxUnits: 4, want: []string{"прив", "ет"}},
		{name: "astral runes count twice", input: "🚀🚀🚀", maxUnits: 4, want: []string{"🚀🚀", "🚀"}},
		{name: "astral rune not cut at odd limit", input: "a🚀b", maxUnits: 2, want: []string{"a", "🚀", "b"}},
		{name: "limit below rune width", input: "🚀🚀", maxUnits: 1, want: []string{"🚀", "🚀"}},
		{name: "zero limit disables split", input: "🚀🚀", maxUnits: 0, want: []string{"🚀🚀"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := text.SplitUTF16(tt.input, tt.maxUnits)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitUTF16(%q, %d) = %q, want %q", tt.input, tt.maxUnits, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("part %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplitUTF16EmojiReply(t *testing.T) {
	t.Parallel()

	reply := strings.Repeat("😀", 4096)
	parts := text.SplitUTF16(reply, 4096)

	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	for i, p := range parts {
		if units := len(utf16.Encode([]rune(p))); units > 4096 {
			t.Errorf("part %d is %d UTF-16 units, over the limit", i, units)
		}
	}
	if strings.Join(parts, "") != reply {
		t.Error("parts do not reproduce the reply")
	}
}
