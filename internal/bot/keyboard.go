package bot

import (
	"fmt"

	tele "gopkg.in/telebot.v3"

	"github.com/NotCool09/myowobot/internal/catalog"
	"github.com/NotCool09/myowobot/internal/command"
)

// CallbackShopBuy prefixes the callback data of a shop button.
const CallbackShopBuy = "shop_buy:"

// shopKeyboard lays out one buy button per shop item, two per row.
func shopKeyboard(items []catalog.ShopItem) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	var rows []tele.Row
	var current []tele.Btn
	for i, item := range items {
		btn := markup.Data(
			fmt.Sprintf("%s %s (%s)", item.Emoji, item.Display, command.Num(item.Price)),
			CallbackShopBuy+item.Name,
		)
		current = append(current, btn)
		if len(current) == 2 || i == len(items)-1 {
			rows = append(rows, markup.Row(current...))
			current = nil
		}
	}

	markup.Inline(rows...)
	return markup
}
