package command

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Embed colors.
const (
	ColorInfo    = 0x3498DB
	ColorSuccess = 0x2ECC71
	ColorWarning = 0xF1C40F
	ColorError   = 0xE74C3C
	ColorGamble  = 0x9B59B6
)

// Field is one titled block of a Result.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Result is the structured reply of a command. Title, Description and
// field text may contain mentions and must otherwise be HTML-safe.
type Result struct {
	Title       string
	Description string
	Color       int
	Fields      []Field
	ImageURL    string
}

// AddField appends a field and returns r.
func (r *Result) AddField(name, value string, inline bool) *Result {
	r.Fields = append(r.Fields, Field{Name: name, Value: value, Inline: inline})
	return r
}

var printer = message.NewPrinter(language.English)

// Num formats n with thousands separators.
func Num(n int64) string {
	return printer.Sprintf("%d", n)
}

// Coins formats a coin amount.
func Coins(n int64) string {
	return "💰 " + Num(n)
}

// Duration formats d as "1h 2m 3s", rounded up to the second.
func Duration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	secs := int64((d + time.Second - 1) / time.Second)
	days, secs := secs/86400, secs%86400
	hours, secs := secs/3600, secs%3600
	mins, secs := secs/60, secs%60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if mins > 0 {
		parts = append(parts, fmt.Sprintf("%dm", mins))
	}
	if secs > 0 {
		parts = append(parts, fmt.Sprintf("%ds", secs))
	}
	return strings.Join(parts, " ")
}

// Escape makes user text safe for rendering.
func Escape(s string) string {
	return html.EscapeString(s)
}

var mentionRe = regexp.MustCompile(`<@!?(\d+)>`)

// Render turns r into the HTML text sent to the chat. Mentions become
// user links.
func Render(r *Result) string {
	var b strings.Builder
	if r.Title != "" {
		fmt.Fprintf(&b, "<b>%s</b>\n", r.Title)
	}
	if r.Description != "" {
		b.WriteString(r.Description)
		b.WriteString("\n")
	}
	for i, f := range r.Fields {
		if i == 0 && b.Len() > 0 {
			b.WriteString("\n")
		}
		if f.Inline {
			fmt.Fprintf(&b, "<b>%s:</b> %s\n", f.Name, f.Value)
			continue
		}
		fmt.Fprintf(&b, "<b>%s</b>\n%s\n", f.Name, f.Value)
	}
	if r.ImageURL != "" {
		fmt.Fprintf(&b, "<a href=\"%s\">\u200b</a>", Escape(r.ImageURL))
	}
	out := strings.TrimRight(b.String(), "\n")
	return mentionRe.ReplaceAllString(out, `<a href="tg://user?id=$1">@$1</a>`)
}
