package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotCool09/myowobot/internal/catalog"
)

func TestShopKeyboardRows(t *testing.T) {
	markup := shopKeyboard(testShop())
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Len(t, markup.InlineKeyboard[0], 2)
	assert.Len(t, markup.InlineKeyboard[1], 1)
	assert.Contains(t, markup.InlineKeyboard[0][0].Data, CallbackShopBuy+"energy_drink")
	assert.Equal(t, "⚡ Energy Drink (5,000)", markup.InlineKeyboard[0][0].Text)
}

func testShop() []catalog.ShopItem {
	return catalog.Default().Shop[:3]
}
