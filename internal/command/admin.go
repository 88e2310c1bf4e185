package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/NotCool09/myowobot/internal/apperr"
	"github.com/NotCool09/myowobot/internal/model"
)

func ownerResult(desc string) *Result {
	return &Result{Title: "🛠️ Owner", Description: desc, Color: ColorInfo}
}

func (f *Facade) ban(ctx context.Context, req Request, args []string) (*Result, error) {
	target, err := requireUser(args, 0, "ban <user>")
	if err != nil {
		return nil, err
	}
	if _, err := f.engine.Ban(ctx, req.UserID, target); err != nil {
		return nil, err
	}
	return ownerResult(Mention(target) + " is banned from the bot."), nil
}

func (f *Facade) unban(ctx context.Context, req Request, args []string) (*Result, error) {
	target, err := requireUser(args, 0, "unban <user>")
	if err != nil {
		return nil, err
	}
	if _, err := f.engine.Unban(ctx, req.UserID, target); err != nil {
		return nil, err
	}
	return ownerResult(Mention(target) + " can use the bot again."), nil
}

func (f *Facade) setRank(ctx context.Context, req Request, args []string) (*Result, error) {
	const usage = "setrank <user> <rank|none>"
	if err := requireArgs(args, 2, usage); err != nil {
		return nil, err
	}
	target, err := requireUser(args, 0, usage)
	if err != nil {
		return nil, err
	}
	u, err := f.engine.SetCustomRank(ctx, req.UserID, target, strings.Join(args[1:], " "))
	if err != nil {
		return nil, err
	}
	if u.CustomRank == "" {
		return ownerResult(Mention(target) + " no longer has a custom rank."), nil
	}
	return ownerResult(fmt.Sprintf("%s is now %s.", Mention(target), Escape(u.CustomRank))), nil
}

func (f *Facade) addMoney(ctx context.Context, req Request, args []string) (*Result, error) {
	const usage = "addmoney <user> <amount>"
	if err := requireArgs(args, 2, usage); err != nil {
		return nil, err
	}
	target, err := requireUser(args, 0, usage)
	if err != nil {
		return nil, err
	}
	delta, err := strconv.ParseInt(strings.ReplaceAll(args[1], ",", ""), 10, 64)
	if err != nil {
		return nil, apperr.InvalidArgument("usage: %s", usage)
	}
	u, err := f.engine.AdminAdjust(ctx, req.UserID, target, delta)
	if err != nil {
		return nil, err
	}
	return ownerResult(fmt.Sprintf("%s now has %s.", Mention(target), Coins(u.Balance))), nil
}

// itemArgs parses "<user> <item...> [n]".
func itemArgs(args []string, usage string) (target int64, item string, n int64, err error) {
	if err = requireArgs(args, 2, usage); err != nil {
		return 0, "", 0, err
	}
	if target, err = requireUser(args, 0, usage); err != nil {
		return 0, "", 0, err
	}
	rest := args[1:]
	n = 1
	if len(rest) > 1 {
		if v, perr := strconv.ParseInt(rest[len(rest)-1], 10, 64); perr == nil {
			n = v
			rest = rest[:len(rest)-1]
		}
	}
	return target, strings.Join(rest, " "), n, nil
}

func (f *Facade) addItem(ctx context.Context, req Request, args []string) (*Result, error) {
	target, item, n, err := itemArgs(args, "additem <user> <item> [amount]")
	if err != nil {
		return nil, err
	}
	inv, err := f.engine.GrantItem(ctx, req.UserID, target, item, n)
	if err != nil {
		return nil, err
	}
	return ownerResult(fmt.Sprintf("Gave %s x%d %s. They now hold %d.", Mention(target), n, Escape(item), inv.Quantity(f.itemName(item)))), nil
}

func (f *Facade) removeItem(ctx context.Context, req Request, args []string) (*Result, error) {
	target, item, n, err := itemArgs(args, "removeitem <user> <item> [amount]")
	if err != nil {
		return nil, err
	}
	inv, err := f.engine.RevokeItem(ctx, req.UserID, target, item, n)
	if err != nil {
		return nil, err
	}
	return ownerResult(fmt.Sprintf("Took x%d %s from %s. They now hold %d.", n, Escape(item), Mention(target), inv.Quantity(f.itemName(item)))), nil
}

// itemName resolves a typed item name to its catalog name.
func (f *Facade) itemName(typed string) string {
	if it, ok := f.engine.Catalog().Item(typed); ok {
		return it.Name
	}
	return typed
}

func (f *Facade) resetCooldown(ctx context.Context, req Request, args []string) (*Result, error) {
	target, err := requireUser(args, 0, "resetcd <user> [action]")
	if err != nil {
		return nil, err
	}
	var action model.Action
	if len(args) > 1 {
		action = model.Action(strings.ToLower(args[1]))
	}
	if _, err := f.engine.ResetCooldown(ctx, req.UserID, target, action); err != nil {
		return nil, err
	}
	what := "All cooldowns"
	if action != "" {
		what = "The " + Escape(string(action)) + " cooldown"
	}
	return ownerResult(fmt.Sprintf("%s of %s reset.", what, Mention(target))), nil
}
