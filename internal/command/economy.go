package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NotCool09/myowobot/internal/catalog"
	"github.com/NotCool09/myowobot/internal/game/rob"
	"github.com/NotCool09/myowobot/internal/service"
)

func actionResult(title string, res *service.ActionResult) *Result {
	r := &Result{Title: title, Color: ColorSuccess}
	var desc string
	if res.Success {
		desc = fmt.Sprintf("You %s and earned %s.", res.Text, Coins(res.Amount))
		if res.Multiplier > 1 {
			desc = fmt.Sprintf("You %s and earned %s (x%g).", res.Text, Coins(res.Amount), res.Multiplier)
		}
	} else {
		desc = fmt.Sprintf("You %s but got caught! You paid %s.", res.Text, Coins(res.Amount))
		r.Color = ColorError
	}
	if res.Found != nil {
		desc += fmt.Sprintf("\nYou also found %s %s!", res.Found.Emoji, res.Found.Name)
	}
	r.Description = withProgress(desc, res.Progress)
	r.AddField("Balance", Coins(res.Balance), true)
	return r
}

func (f *Facade) work(ctx context.Context, req Request, _ []string) (*Result, error) {
	res, err := f.engine.Work(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return actionResult("💼 Work", res), nil
}

func (f *Facade) crime(ctx context.Context, req Request, _ []string) (*Result, error) {
	res, err := f.engine.Crime(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return actionResult("🦹 Crime", res), nil
}

func (f *Facade) beg(ctx context.Context, req Request, _ []string) (*Result, error) {
	res, err := f.engine.Beg(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	r := actionResult("🙏 Beg", res)
	r.Description = withProgress(fmt.Sprintf("%s. You got %s.", strings.ToUpper(res.Text[:1])+res.Text[1:], Coins(res.Amount)), res.Progress)
	return r, nil
}

func (f *Facade) dig(ctx context.Context, req Request, _ []string) (*Result, error) {
	res, err := f.engine.Dig(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return actionResult("⛏️ Dig", res), nil
}

func (f *Facade) explore(ctx context.Context, req Request, _ []string) (*Result, error) {
	res, err := f.engine.Explore(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return actionResult("🧭 Explore", res), nil
}

func (f *Facade) quest(ctx context.Context, req Request, _ []string) (*Result, error) {
	res, err := f.engine.Quest(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return actionResult("📜 Quest", res), nil
}

func (f *Facade) hunt(ctx context.Context, req Request, _ []string) (*Result, error) {
	res, err := f.engine.Hunt(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	catches := make([]string, len(res.Catches))
	for i, it := range res.Catches {
		catches[i] = fmt.Sprintf("%s %s (%s)", it.Emoji, it.Name, it.Tier)
	}
	desc := "You caught:\n" + strings.Join(catches, "\n")
	if res.Bonus {
		desc = "🌟 The forest feels lucky today!\n" + desc
	}
	r := &Result{
		Title:       "🏹 Hunt",
		Description: withProgress(desc, res.Progress),
		Color:       ColorSuccess,
	}
	r.AddField("Worth", Coins(res.Value), true)
	return r, nil
}

func (f *Facade) fish(ctx context.Context, req Request, _ []string) (*Result, error) {
	res, err := f.engine.Fish(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	desc := fmt.Sprintf("You reeled in a %s %s worth %s.", res.Catch.Emoji, res.Catch.Name, Coins(res.Catch.Value))
	return &Result{Title: "🎣 Fishing", Description: withProgress(desc, res.Progress), Color: ColorSuccess}, nil
}

func (f *Facade) sell(ctx context.Context, req Request, args []string) (*Result, error) {
	order, err := sellOrder(args)
	if err != nil {
		return nil, err
	}
	res, err := f.engine.Sell(ctx, req.UserID, order)
	if err != nil {
		return nil, err
	}
	lines := make([]string, len(res.Lines))
	for i, l := range res.Lines {
		lines[i] = fmt.Sprintf("%s %s x%s → %s", l.Item.Emoji, l.Item.Name, Num(l.Quantity), Coins(l.Proceeds))
	}
	r := &Result{Title: "🏪 Sold", Description: strings.Join(lines, "\n"), Color: ColorSuccess}
	r.AddField("Total", Coins(res.Total), true).AddField("Balance", Coins(res.Balance), true)
	return r, nil
}

func (f *Facade) inventory(ctx context.Context, req Request, args []string) (*Result, error) {
	target, err := userArg(args, 0)
	if err != nil {
		return nil, err
	}
	v, err := f.engine.Inventory(ctx, req.UserID, target)
	if err != nil {
		return nil, err
	}
	r := &Result{Title: "🎒 Inventory", Color: ColorInfo}
	if len(v.Lines) == 0 {
		r.Description = Mention(v.UserID) + " has nothing yet. Try <code>owo hunt</code>."
		return r, nil
	}
	lines := make([]string, len(v.Lines))
	for i, l := range v.Lines {
		lines[i] = fmt.Sprintf("%s %s x%s", l.Item.Emoji, Escape(l.Item.Name), Num(l.Quantity))
	}
	r.Description = Mention(v.UserID) + "\n" + strings.Join(lines, "\n")
	r.AddField("Items", Num(v.Units), true).AddField("Worth", Coins(v.Value), true)
	return r, nil
}

func (f *Facade) zoo(ctx context.Context, req Request, args []string) (*Result, error) {
	target, err := userArg(args, 0)
	if err != nil {
		return nil, err
	}
	v, err := f.engine.Zoo(ctx, req.UserID, target)
	if err != nil {
		return nil, err
	}
	r := &Result{
		Title:       "🦁 Zoo",
		Description: fmt.Sprintf("%s has found %d of %d species.", Mention(v.UserID), v.Species, v.Catalogue),
		Color:       ColorInfo,
	}
	for _, t := range v.Tiers {
		parts := make([]string, len(t.Lines))
		for i, l := range t.Lines {
			parts[i] = fmt.Sprintf("%s x%s", l.Item.Emoji, Num(l.Quantity))
		}
		r.AddField(strings.ToUpper(string(t.Tier[:1]))+string(t.Tier[1:]), strings.Join(parts, "  "), false)
	}
	return r, nil
}

func (f *Facade) give(ctx context.Context, req Request, args []string) (*Result, error) {
	const usage = "give <user> <amount>"
	if err := requireArgs(args, 2, usage); err != nil {
		return nil, err
	}
	to, err := requireUser(args, 0, usage)
	if err != nil {
		return nil, err
	}
	amount, err := ParseAmount(args[1])
	if err != nil {
		return nil, err
	}
	res, err := f.engine.Give(ctx, req.UserID, to, amount)
	if err != nil {
		return nil, err
	}
	return &Result{
		Title:       "🤝 Transfer",
		Description: fmt.Sprintf("%s gave %s to %s.", Mention(res.From), Coins(res.Amount), Mention(res.To)),
		Color:       ColorSuccess,
		Fields:      []Field{{Name: "Your balance", Value: Coins(res.FromBalance), Inline: true}},
	}, nil
}

func (f *Facade) robResult(title string, res *service.RobResult) *Result {
	r := &Result{Title: title}
	if res.Outcome == rob.OutcomeSuccess {
		r.Color = ColorSuccess
		r.Description = withProgress(fmt.Sprintf("You got away with %s from %s!", Coins(res.Amount), Mention(res.TargetID)), res.Progress)
	} else {
		r.Color = ColorError
		r.Description = fmt.Sprintf("You got caught and paid %s to %s.", Coins(res.Amount), Mention(res.TargetID))
	}
	r.AddField("Balance", Coins(res.Balance), true)
	return r
}

func (f *Facade) rob(ctx context.Context, req Request, args []string) (*Result, error) {
	target, err := requireUser(args, 0, "rob <user>")
	if err != nil {
		return nil, err
	}
	res, err := f.engine.Rob(ctx, req.UserID, target)
	if err != nil {
		return nil, err
	}
	return f.robResult("🔫 Robbery", res), nil
}

func (f *Facade) steal(ctx context.Context, req Request, args []string) (*Result, error) {
	target, err := requireUser(args, 0, "steal <user>")
	if err != nil {
		return nil, err
	}
	res, err := f.engine.Steal(ctx, req.UserID, target)
	if err != nil {
		return nil, err
	}
	return f.robResult("🥷 Steal", res), nil
}

// shopDuration describes how long an item lasts.
func shopDuration(it catalog.ShopItem) string {
	if it.Permanent() {
		return "permanent"
	}
	return Duration(it.Duration())
}

// shop handles "shop [view|buy|effects] [item]".
func (f *Facade) shop(ctx context.Context, req Request, args []string) (*Result, error) {
	sub := "view"
	if len(args) > 0 {
		sub = strings.ToLower(args[0])
		args = args[1:]
	}
	switch sub {
	case "buy":
		return f.buy(ctx, req, args)
	case "effects":
		return f.effects(ctx, req, args)
	case "view":
	default:
		// "shop energy_drink" buys directly.
		return f.buy(ctx, req, append([]string{sub}, args...))
	}

	entries := f.engine.ShopView(ctx, req.UserID)
	r := &Result{
		Title:       "🛒 Shop",
		Description: "Buy with <code>owo shop buy &lt;item&gt;</code>.",
		Color:       ColorInfo,
	}
	for _, e := range entries {
		status := fmt.Sprintf("%d/%d left today", e.Remaining, e.Item.DailyLimit)
		if e.Owned {
			status = "owned"
		}
		r.AddField(
			fmt.Sprintf("%s %s (%s)", e.Item.Emoji, e.Item.Display, e.Item.Name),
			fmt.Sprintf("%s · %s · %s\n%s", Coins(e.Item.Price), shopDuration(e.Item), status, Escape(e.Item.Description)),
			false,
		)
	}
	return r, nil
}

func (f *Facade) buy(ctx context.Context, req Request, args []string) (*Result, error) {
	if err := requireArgs(args, 1, "shop buy <item>"); err != nil {
		return nil, err
	}
	res, err := f.engine.Buy(ctx, req.UserID, strings.Join(args, " "))
	if err != nil {
		return nil, err
	}
	desc := fmt.Sprintf("You bought %s %s for %s.", res.Item.Emoji, res.Item.Display, Coins(res.Item.Price))
	if !res.ExpiresAt.IsZero() {
		desc += fmt.Sprintf("\nIt lasts %s.", Duration(res.Item.Duration()))
	}
	r := &Result{Title: "🛍️ Purchase", Description: desc, Color: ColorSuccess}
	r.AddField("Balance", Coins(res.Balance), true)
	return r, nil
}

func (f *Facade) effects(ctx context.Context, req Request, _ []string) (*Result, error) {
	views := f.engine.ActiveEffects(ctx, req.UserID)
	r := &Result{Title: "✨ Active effects", Color: ColorInfo}
	if len(views) == 0 {
		r.Description = "No active effects."
		return r, nil
	}
	lines := make([]string, len(views))
	for i, v := range views {
		left := "permanent"
		if !v.Permanent() {
			left = Duration(v.Remaining.Truncate(time.Second)) + " left"
		}
		name := v.Effect
		if v.Item.Name != "" {
			name = v.Item.Emoji + " " + v.Item.Display
		}
		lines[i] = fmt.Sprintf("%s: %s", name, left)
	}
	r.Description = strings.Join(lines, "\n")
	return r, nil
}
