// Package command turns chat text into engine calls and engine results into
// chat replies. It is transport independent: the bot feeds it text and
// renders the returned Result.
package command

import (
	"strconv"
	"strings"

	"github.com/NotCool09/myowobot/internal/apperr"
	"github.com/NotCool09/myowobot/internal/service"
)

// Prefix starts every command line.
const Prefix = "owo"

// Invocation is one parsed command line.
type Invocation struct {
	Name string   // canonical command name
	Args []string // positional arguments
}

// aliases maps every accepted spelling to its canonical command.
var aliases = map[string]string{
	"bal":     "balance",
	"money":   "balance",
	"cash":    "balance",
	"cowoncy": "daily",
	"h":       "hunt",
	"inv":     "inventory",
	"lvl":     "level",
	"cf":      "coinflip",
	"slot":    "slots",
	"s":       "slots",
	"bj":      "blackjack",
	"send":    "give",
	"cd":      "cooldowns",
	"marry":   "propose",
	"accept":  "acceptmarriage",
	"decline": "declinemarriage",
	"lb":      "top",
}

// Parse splits a line starting with "owo " into a command and its
// arguments. ok is false for anything else.
func Parse(text string) (inv Invocation, ok bool) {
	fields := strings.Fields(text)
	if len(fields) < 2 || !strings.EqualFold(fields[0], Prefix) {
		return Invocation{}, false
	}
	name := strings.ToLower(fields[1])
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	return Invocation{Name: name, Args: fields[2:]}, true
}

// ParseMention reads a user reference: <@id>, <@!id>, @id or a bare id.
func ParseMention(s string) (int64, bool) {
	switch {
	case strings.HasPrefix(s, "<@") && strings.HasSuffix(s, ">"):
		s = strings.TrimPrefix(strings.TrimSuffix(s[2:], ">"), "!")
	case strings.HasPrefix(s, "@"):
		s = s[1:]
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Mention formats id the way ParseMention reads it.
func Mention(id int64) string {
	return "<@" + strconv.FormatInt(id, 10) + ">"
}

// ParseAmount reads a positive amount. Thousands separators are allowed.
func ParseAmount(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	if err != nil {
		return 0, apperr.InvalidArgument("%q is not an amount", s)
	}
	if n <= 0 {
		return 0, apperr.InvalidArgument("amount must be positive")
	}
	return n, nil
}

// ParseBet reads an amount or the literal "all".
func ParseBet(s string) (service.Bet, error) {
	if strings.EqualFold(s, "all") {
		return service.Bet{All: true}, nil
	}
	n, err := ParseAmount(s)
	if err != nil {
		return service.Bet{}, err
	}
	return service.Bet{Amount: n}, nil
}

// userArg resolves args[i] to a user id, or zero when absent.
func userArg(args []string, i int) (int64, error) {
	if i >= len(args) {
		return 0, nil
	}
	id, ok := ParseMention(args[i])
	if !ok {
		return 0, apperr.InvalidArgument("%q is not a user", args[i])
	}
	return id, nil
}

// requireUser resolves a mandatory user argument.
func requireUser(args []string, i int, usage string) (int64, error) {
	if i >= len(args) {
		return 0, apperr.InvalidArgument("usage: %s", usage)
	}
	return userArg(args, i)
}

// sellOrder parses "sell <item|all> [n|all]". Item names may contain spaces.
func sellOrder(args []string) (service.SellOrder, error) {
	if len(args) == 0 {
		return service.SellOrder{}, apperr.InvalidArgument("usage: sell <item|all> [amount|all]")
	}
	if len(args) == 1 && strings.EqualFold(args[0], "all") {
		return service.SellOrder{All: true}, nil
	}

	order := service.SellOrder{}
	last := args[len(args)-1]
	if len(args) > 1 {
		switch {
		case strings.EqualFold(last, "all"):
			order.Stack = true
			args = args[:len(args)-1]
		default:
			if n, err := strconv.ParseInt(last, 10, 64); err == nil {
				if n <= 0 {
					return service.SellOrder{}, apperr.InvalidArgument("amount must be positive")
				}
				order.Quantity = n
				args = args[:len(args)-1]
			}
		}
	}
	order.Item = strings.Join(args, " ")
	return order, nil
}

// targeted lists the commands whose first argument is a user.
var targeted = map[string]bool{
	"balance": true, "profile": true, "level": true, "inventory": true, "zoo": true,
	"give": true, "rob": true, "steal": true, "duel": true,
	"propose": true, "acceptmarriage": true, "declinemarriage": true,
	"ban": true, "unban": true, "setrank": true, "addmoney": true,
	"additem": true, "removeitem": true, "resetcd": true,
}

// WithTarget makes id the first argument of a command that names a user,
// unless the line already starts with an explicit mention. Anything else is
// returned unchanged.
func WithTarget(text string, id int64) string {
	inv, ok := Parse(text)
	if !ok || !targeted[inv.Name] {
		return text
	}
	if len(inv.Args) > 0 && strings.ContainsRune("<@", rune(inv.Args[0][0])) {
		return text
	}
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields)+1)
	out = append(out, fields[:2]...)
	out = append(out, Mention(id))
	out = append(out, fields[2:]...)
	return strings.Join(out, " ")
}
