package command

import (
	"context"
	"fmt"
)

func (f *Facade) propose(ctx context.Context, req Request, args []string) (*Result, error) {
	target, err := requireUser(args, 0, "marry <user>")
	if err != nil {
		return nil, err
	}
	res, err := f.engine.Propose(ctx, req.UserID, target)
	if err != nil {
		return nil, err
	}
	if res.Married {
		return weddingResult(req.UserID, target), nil
	}
	return &Result{
		Title: "💌 Proposal",
		Description: fmt.Sprintf("%s proposed to %s!\n%s, reply with <code>owo acceptmarriage %s</code> or <code>owo declinemarriage %s</code>.",
			Mention(req.UserID), Mention(target), Mention(target), Mention(req.UserID), Mention(req.UserID)),
		Color: ColorInfo,
	}, nil
}

func weddingResult(a, b int64) *Result {
	return &Result{
		Title:       "💒 Just married",
		Description: fmt.Sprintf("%s and %s are now married! 💍", Mention(a), Mention(b)),
		Color:       ColorSuccess,
	}
}

func (f *Facade) acceptMarriage(ctx context.Context, req Request, args []string) (*Result, error) {
	proposer, err := requireUser(args, 0, "acceptmarriage <user>")
	if err != nil {
		return nil, err
	}
	if _, err := f.engine.Accept(ctx, req.UserID, proposer); err != nil {
		return nil, err
	}
	return weddingResult(proposer, req.UserID), nil
}

func (f *Facade) declineMarriage(ctx context.Context, req Request, args []string) (*Result, error) {
	proposer, err := requireUser(args, 0, "declinemarriage <user>")
	if err != nil {
		return nil, err
	}
	if _, err := f.engine.Decline(ctx, req.UserID, proposer); err != nil {
		return nil, err
	}
	return &Result{
		Title:       "💔 Proposal declined",
		Description: fmt.Sprintf("%s declined %s's proposal.", Mention(req.UserID), Mention(proposer)),
		Color:       ColorWarning,
	}, nil
}

func (f *Facade) divorce(ctx context.Context, req Request, _ []string) (*Result, error) {
	res, err := f.engine.Divorce(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	desc := Mention(req.UserID) + " is single again."
	if m := res.Marriage; m != nil {
		desc = fmt.Sprintf("%s and %s are divorced.", Mention(req.UserID), Mention(m.Partner(req.UserID)))
	}
	return &Result{Title: "📄 Divorce", Description: desc, Color: ColorWarning}, nil
}
