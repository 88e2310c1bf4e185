package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/NotCool09/myowobot/internal/apperr"
	"github.com/NotCool09/myowobot/internal/model"
	"github.com/NotCool09/myowobot/internal/service"
	"github.com/NotCool09/myowobot/internal/store"
)

const helpText = `<b>Economy</b>: balance, daily, weekly, monthly, work, crime, beg, dig, explore, quest
<b>Items</b>: hunt, fish, sell, inventory, zoo, shop, buy, effects
<b>Players</b>: give, rob, steal, profile, level, top, bio, cooldowns
<b>Games</b>: slots, coinflip, blackjack, hit, stand, wheel, race, duel, trivia, riddle
<b>Marriage</b>: marry, acceptmarriage, declinemarriage, divorce`

func (f *Facade) help(context.Context, Request, []string) (*Result, error) {
	return &Result{
		Title:       "📖 Commands",
		Description: helpText + "\n\nPrefix every command with <code>owo </code>.",
		Color:       ColorInfo,
	}, nil
}

// progressText describes the xp side of a reward.
func progressText(p service.Progress) string {
	var b strings.Builder
	if p.XPGained > 0 {
		fmt.Fprintf(&b, "✨ +%s XP", Num(p.XPGained))
	}
	if p.LeveledUp {
		fmt.Fprintf(&b, "\n🎉 Level up! You are now level %d (%s).", p.Level, Escape(p.LevelRank))
	}
	return b.String()
}

func withProgress(desc string, p service.Progress) string {
	if s := progressText(p); s != "" {
		return desc + "\n" + s
	}
	return desc
}

func (f *Facade) balance(ctx context.Context, req Request, args []string) (*Result, error) {
	target, err := userArg(args, 0)
	if err != nil {
		return nil, err
	}
	v, err := f.engine.Balance(ctx, req.UserID, target)
	if err != nil {
		return nil, err
	}
	return &Result{
		Title:       "💳 Balance",
		Description: fmt.Sprintf("%s has %s", Mention(v.UserID), Coins(v.Balance)),
		Color:       v.WealthRank.Color,
		Fields: []Field{
			{Name: "Wealth rank", Value: v.WealthRank.Emoji + " " + v.WealthRank.Name, Inline: true},
		},
	}, nil
}

func progressBar(percent int) string {
	const width = 10
	filled := percent * width / 100
	return strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
}

func (f *Facade) level(ctx context.Context, req Request, args []string) (*Result, error) {
	target, err := userArg(args, 0)
	if err != nil {
		return nil, err
	}
	v, err := f.engine.Level(ctx, req.UserID, target)
	if err != nil {
		return nil, err
	}
	r := &Result{
		Title:       "📈 Level",
		Description: fmt.Sprintf("%s is level %d", Mention(v.UserID), v.Level),
		Color:       v.LevelRank.Color,
	}
	r.AddField("Rank", v.LevelRank.Emoji+" "+v.LevelRank.Name, true).
		AddField("XP", fmt.Sprintf("%s / %s", Num(v.XP), Num(v.NextXP)), true).
		AddField("Progress", fmt.Sprintf("%s %d%%", progressBar(v.Percent()), v.Percent()), false)
	return r, nil
}

func (f *Facade) profile(ctx context.Context, req Request, args []string) (*Result, error) {
	target, err := userArg(args, 0)
	if err != nil {
		return nil, err
	}
	p, err := f.engine.Profile(ctx, req.UserID, target)
	if err != nil {
		return nil, err
	}
	u := p.User

	r := &Result{
		Title: "👤 Profile",
		Color: p.Level.LevelRank.Color,
	}
	desc := Mention(u.ID)
	if p.CustomRank != nil {
		desc += " " + p.CustomRank.Emoji + " " + Escape(p.CustomRank.Name)
		r.Color = p.CustomRank.Color
	}
	if u.Bio != "" {
		desc += "\n<i>" + Escape(u.Bio) + "</i>"
	}
	r.Description = desc

	r.AddField("Balance", Coins(u.Balance), true).
		AddField("Wealth", p.WealthRank.Emoji+" "+p.WealthRank.Name, true).
		AddField("Level", fmt.Sprintf("%d (%s %s)", p.Level.Level, p.Level.LevelRank.Emoji, p.Level.LevelRank.Name), true).
		AddField("XP", Num(u.XP), true).
		AddField("Daily streak", fmt.Sprintf("%d 🔥", u.DailyStreak), true).
		AddField("Items", Num(p.Items), true)
	if u.MarriedTo != nil {
		r.AddField("Married to", "💍 "+Mention(*u.MarriedTo), true)
	}
	if len(p.Effects) > 0 {
		names := make([]string, len(p.Effects))
		for i, a := range p.Effects {
			names[i] = a.Effect
		}
		r.AddField("Effects", strings.Join(names, ", "), false)
	}
	return r, nil
}

func (f *Facade) rewardResult(title string, res *service.RewardResult) *Result {
	desc := fmt.Sprintf("You received %s", Coins(res.Amount))
	if res.Multiplier > 1 {
		desc += fmt.Sprintf(" (x%g boost)", res.Multiplier)
	}
	desc += "."
	r := &Result{
		Title:       title,
		Description: withProgress(desc, res.Progress),
		Color:       ColorSuccess,
	}
	if res.Streak > 0 {
		r.AddField("Streak", fmt.Sprintf("%d 🔥", res.Streak), true)
	}
	r.AddField("Balance", Coins(res.Balance), true)
	return r
}

func (f *Facade) daily(ctx context.Context, req Request, _ []string) (*Result, error) {
	res, err := f.engine.Daily(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return f.rewardResult("📅 Daily reward", res), nil
}

func (f *Facade) weekly(ctx context.Context, req Request, _ []string) (*Result, error) {
	res, err := f.engine.Weekly(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return f.rewardResult("🗓️ Weekly reward", res), nil
}

func (f *Facade) monthly(ctx context.Context, req Request, _ []string) (*Result, error) {
	res, err := f.engine.Monthly(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return f.rewardResult("🌕 Monthly reward", res), nil
}

func (f *Facade) bio(ctx context.Context, req Request, args []string) (*Result, error) {
	text := strings.Join(args, " ")
	if err := f.engine.SetBio(ctx, req.UserID, text); err != nil {
		return nil, err
	}
	desc := "Your bio was cleared."
	if text != "" {
		desc = "Your bio now reads:\n<i>" + Escape(text) + "</i>"
	}
	return &Result{Title: "📝 Bio updated", Description: desc, Color: ColorSuccess}, nil
}

var medals = []string{"🥇", "🥈", "🥉"}

func (f *Facade) top(ctx context.Context, _ Request, args []string) (*Result, error) {
	category := ""
	if len(args) > 0 {
		category = strings.ToLower(args[0])
	}
	field, rows, err := f.engine.Top(ctx, category)
	if err != nil {
		return nil, err
	}
	r := &Result{Title: "🏆 Top " + string(field), Color: ColorInfo}
	if len(rows) == 0 {
		r.Description = "Nobody is ranked yet."
		return r, nil
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		pos := fmt.Sprintf("%d.", row.Position)
		if i < len(medals) {
			pos = medals[i]
		}
		var value string
		switch field {
		case store.TopBalance:
			value = Coins(row.Value)
		case store.TopLevel:
			value = fmt.Sprintf("level %d", row.Value)
		default:
			value = Num(row.Value) + " XP"
		}
		lines[i] = fmt.Sprintf("%s %s: %s", pos, Mention(row.UserID), value)
	}
	r.Description = strings.Join(lines, "\n")
	return r, nil
}

func (f *Facade) cooldowns(ctx context.Context, req Request, _ []string) (*Result, error) {
	cds, err := f.engine.Cooldowns(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(model.Actions))
	for _, a := range model.Actions {
		status := "✅ ready"
		if rem, ok := cds[a]; ok {
			status = "⏳ " + Duration(rem)
		}
		lines = append(lines, fmt.Sprintf("<b>%s</b>: %s", a, status))
	}
	return &Result{Title: "⏱️ Cooldowns", Description: strings.Join(lines, "\n"), Color: ColorInfo}, nil
}

// requireArgs fails with a usage message when fewer than n args are given.
func requireArgs(args []string, n int, usage string) error {
	if len(args) < n {
		return apperr.InvalidArgument("usage: %s", usage)
	}
	return nil
}
