// Package briefing собирает текст сводки для Telegram в диалекте MarkdownV2.
package briefing

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"auto_briefing/internal/models"
)

const (
	// Title — заголовок сводки, без экранирования.
	Title = "🚗 Automotive Intelligence Briefing"

	// MaxMessageLength — лимит Telegram на длину одного сообщения.
	MaxMessageLength = 4096

	emptySelection = "No stories selected."
)

// markdownEscapes — зарезервированные символы MarkdownV2 и их экранированная форма.
var markdownEscapes = map[rune]string{
	'\\': `\\`,
	'_':  `\_`,
	'*':  `\*`,
	'[':  `\[`,
	']':  `\]`,
	'(':  `\(`,
	')':  `\)`,
	'~':  `\~`,
	'`':  "\\`",
	'>':  `\>`,
	'#':  `\#`,
	'+':  `\+`,
	'-':  `\-`,
	'=':  `\=`,
	'|':  `\|`,
	'{':  `\{`,
	'}':  `\}`,
	'.':  `\.`,
	'!':  `\!`,
}

// Escape экранирует все зарезервированные символы MarkdownV2 в тексте.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if esc, ok := markdownEscapes[r]; ok {
			b.WriteString(esc)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// EscapeLinkURL экранирует адрес внутри (...) ссылки: там значимы только ')' и '\'.
func EscapeLinkURL(s string) string {
	return strings.NewReplacer(`\`, `\\`, `)`, `\)`).Replace(s)
}

// Format собирает сводку из статей в заданном порядке.
// Для пустого списка возвращает заголовок и строку об отсутствии статей.
func Format(articles []models.Article) string {
	return render(articles, MaxMessageLength)
}

// Compose добавляет перед сводкой вступительную заметку оператора.
func Compose(note string, articles []models.Article) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return Format(articles)
	}
	intro := escapeWithin(note, noteBudget(len(articles))) + "\n\n"
	return intro + render(articles, MaxMessageLength-utf8.RuneCountInString(intro))
}

// noteBudget — сколько рун может занять экранированная заметка, чтобы
// заголовок и строка о пропущенных статьях остались в лимите.
func noteBudget(count int) int {
	tail := "\n\n_" + Escape(emptySelection) + "_"
	if count > 0 {
		tail = "\n\n" + moreLine(count)
	}
	return MaxMessageLength - utf8.RuneCountInString(header()+tail) - len("\n\n")
}

// escapeWithin экранирует s и обрезает результат до limit рун с многоточием,
// не разрывая экранированные последовательности.
func escapeWithin(s string, limit int) string {
	escaped := Escape(s)
	if utf8.RuneCountInString(escaped) <= limit {
		return escaped
	}

	var b strings.Builder
	used := 0
	for _, r := range s {
		esc, ok := markdownEscapes[r]
		if !ok {
			esc = string(r)
		}
		size := utf8.RuneCountInString(esc)
		if used+size+1 > limit {
			break
		}
		b.WriteString(esc)
		used += size
	}
	return strings.TrimRight(b.String(), " ") + "…"
}

func header() string {
	return "*" + Escape(Title) + "*"
}

func entry(n int, a models.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d\\. [%s](%s)", n, Escape(a.Title), EscapeLinkURL(a.Link))
	if a.SourceName != "" {
		b.WriteString("\n_" + Escape(a.SourceName) + "_")
	}
	if a.Summary != "" {
		b.WriteString("\n" + Escape(a.Summary))
	}
	return b.String()
}

func moreLine(n int) string {
	noun := "stories"
	if n == 1 {
		noun = "story"
	}
	return "_" + Escape(fmt.Sprintf("…and %d more %s", n, noun)) + "_"
}

// render укладывает записи в budget рун; не поместившиеся заменяются
// строкой с их количеством.
func render(articles []models.Article, budget int) string {
	out := header()
	if len(articles) == 0 {
		return out + "\n\n_" + Escape(emptySelection) + "_"
	}

	used := utf8.RuneCountInString(out)
	reserve := utf8.RuneCountInString("\n\n" + moreLine(len(articles)))

	for i, a := range articles {
		block := "\n\n" + entry(i+1, a)
		size := utf8.RuneCountInString(block)

		limit := budget
		if i < len(articles)-1 {
			limit -= reserve
		}
		if used+size > limit {
			return out + "\n\n" + moreLine(len(articles)-i)
		}
		out += block
		used += size
	}
	return out
}
