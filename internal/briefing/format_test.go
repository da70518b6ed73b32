package briefing_test

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"auto_briefing/internal/briefing"
	"auto_briefing/internal/models"

	"github.com/stretchr/testify/require"
)

func article(title, link, summary string) models.Article {
	return models.Article{
		ID:          "1",
		Title:       title,
		Summary:     summary,
		Link:        link,
		SourceID:    "motor1",
		SourceName:  "Motor1",
		SourceColor: "#000",
		Homepage:    "https://example.com",
		PublishedAt: time.Now(),
	}
}

func TestFormat_BuildsMarkdownSafeList(t *testing.T) {
	message := briefing.Format([]models.Article{
		article("Porsche 911 GT3 RS Review", "https://example.com/gt3", ""),
	})

	require.Contains(t, message, "Automotive Intelligence Briefing")
	require.Contains(t, message, "[Porsche 911 GT3 RS Review](https://example.com/gt3)")
	require.Contains(t, message, "_Motor1_")
}

func TestFormat_Empty(t *testing.T) {
	message := briefing.Format(nil)

	require.NotEmpty(t, message)
	require.Contains(t, message, "Automotive Intelligence Briefing")
	require.Contains(t, message, `No stories selected\.`)
	require.NotContains(t, message, "](")
}

func TestFormat_EscapesBracketsInTitle(t *testing.T) {
	message := briefing.Format([]models.Article{
		article("A [B] (C)", "https://example.com/a", ""),
	})

	require.Contains(t, message, `[A \[B\] \(C\)](https://example.com/a)`)

	// Единственная неэкранированная пара скобок — разметка самой ссылки.
	line := strings.Split(message, "\n")[2]
	require.Equal(t, 1, countUnescaped(line, '['))
	require.Equal(t, 1, countUnescaped(line, ']'))
	require.Equal(t, 1, countUnescaped(line, '('))
	require.Equal(t, 1, countUnescaped(line, ')'))
}

func TestFormat_EntriesInGivenOrder(t *testing.T) {
	message := briefing.Format([]models.Article{
		article("Second", "https://example.com/2", "Summary two."),
		article("First", "https://example.com/1", ""),
	})

	require.Less(t, strings.Index(message, "Second"), strings.Index(message, "First"))
	require.Contains(t, message, `1\. [Second]`)
	require.Contains(t, message, `2\. [First]`)
	require.Contains(t, message, `Summary two\.`)
}

func TestFormat_EscapesLinkTarget(t *testing.T) {
	message := briefing.Format([]models.Article{
		article("Wiki", `https://example.com/a_(b)`, ""),
	})
	require.Contains(t, message, `(https://example.com/a_(b\))`)
}

func TestEscape_AllReservedCharacters(t *testing.T) {
	reserved := "_*[]()~`>#+-=|{}.!\\"
	escaped := briefing.Escape(reserved)

	for _, r := range reserved {
		require.Contains(t, escaped, `\`+string(r))
	}
	require.Equal(t, 2*len(reserved), len(escaped))
	require.Equal(t, "plain text 123", briefing.Escape("plain text 123"))
}

func TestFormat_StaysWithinMessageLength(t *testing.T) {
	long := strings.Repeat("Long summary sentence. ", 12)
	var articles []models.Article
	for i := 0; i < 40; i++ {
		articles = append(articles, article(fmt.Sprintf("Story %d", i), fmt.Sprintf("https://example.com/%d", i), long))
	}

	message := briefing.Format(articles)
	require.LessOrEqual(t, utf8.RuneCountInString(message), briefing.MaxMessageLength)
	require.Contains(t, message, `more stories`)
	require.Contains(t, message, `1\. [Story 0]`)
}

func TestCompose_PrependsEscapedNote(t *testing.T) {
	articles := []models.Article{article("Title", "https://example.com/t", "")}

	require.Equal(t, briefing.Format(articles), briefing.Compose("   ", articles))

	message := briefing.Compose("  Morning picks!  ", articles)
	require.True(t, strings.HasPrefix(message, "Morning picks\\!\n\n"))
	require.Contains(t, message, "Automotive Intelligence Briefing")
}

func TestCompose_BoundsLongNote(t *testing.T) {
	articles := []models.Article{{Title: "T", Link: "https://x/1", SourceName: "S"}}

	message := briefing.Compose(strings.Repeat("a", 5000), articles)
	require.LessOrEqual(t, utf8.RuneCountInString(message), briefing.MaxMessageLength)
	require.True(t, strings.HasPrefix(message, "aaaa"))
	require.Contains(t, message, "…\n\n*")
	require.Contains(t, message, "Automotive Intelligence Briefing")
	require.Contains(t, message, "1 more story")

	dotted := briefing.Compose(strings.Repeat(".", 5000), articles)
	require.LessOrEqual(t, utf8.RuneCountInString(dotted), briefing.MaxMessageLength)
	require.NotContains(t, dotted, `\…`)

	empty := briefing.Compose(strings.Repeat("b", 5000), nil)
	require.LessOrEqual(t, utf8.RuneCountInString(empty), briefing.MaxMessageLength)
	require.Contains(t, empty, "No stories selected")
}

func countUnescaped(s string, target rune) int {
	count := 0
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == target:
			count++
		}
	}
	return count
}
