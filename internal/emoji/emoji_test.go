package emoji

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"none", "hello world", nil},
		{"single", "I love this! 💀", []string{"💀"}},
		{"order kept", "🙄 sure 😒 fine 🙄", []string{"🙄", "😒", "🙄"}},
		{"skin tone stays whole", "nice 👍🏽", []string{"👍🏽"}},
		{"zwj sequence", "family 👨‍👩‍👧", []string{"👨‍👩‍👧"}},
		{"flag", "go 🇫🇷", []string{"🇫🇷"}},
		{"presentation selector dropped", "sad ☹️", []string{"☹"}},
		{"keycap", "press 1️⃣", []string{"1️⃣"}},
		{"cjk is not emoji", "你好", nil},
		{"text style without selector", "hi ☺", []string{"☺"}},
		{"star symbol", "★ rated", nil},
		{"white star", "☆", nil},
		{"check mark", "✓ done", nil},
		{"alchemical symbol", "🜁 air", nil},
		{"symbols next to emoji", "★ 💀 ✓", []string{"💀"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.in))
			assert.Equal(t, len(tt.want) > 0, Has(tt.in))
		})
	}
}

func TestIsEmoji(t *testing.T) {
	for _, c := range []string{"💀", "🙄", "👍🏽", "🇫🇷", "☹️", "☹", "1️⃣"} {
		assert.True(t, IsEmoji(c), c)
	}
	for _, c := range []string{"", "a", "1", "#", "★", "✓", "🜁", "→"} {
		assert.False(t, IsEmoji(c), c)
	}
}

func TestSet(t *testing.T) {
	s := NewSet("oh 🙄 really 🙄 😏")
	assert.Len(t, s, 2)
	assert.True(t, s.Contains("🙄"))
	assert.False(t, s.Contains("💀"))
	assert.True(t, s.Contains("😏"))
	assert.False(t, NewSet("★ ✓").Contains("★"))
}

func TestCounter_MostCommon(t *testing.T) {
	c := NewCounter()
	c.Add("😅 ok 🙂")
	c.Add("🙂🙂 nice 😅")
	c.Add("🤔")

	require.Equal(t, 3, c.Len())
	assert.Equal(t, 3, c.Get("🙂"))
	assert.Equal(t, 0, c.Get("💀"))

	assert.Equal(t, []Count{
		{Emoji: "🙂", Count: 3},
		{Emoji: "😅", Count: 2},
	}, c.MostCommon(2))

	all := c.MostCommon(0)
	require.Len(t, all, 3)
	assert.Equal(t, "🤔", all[2].Emoji)
}
