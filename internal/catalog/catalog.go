// Package catalog holds the static item catalogs and rank tables.
// Items are loaded from an embedded YAML document so new entries need no code change.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultData []byte

// Tier is the rarity tier of a hunt item.
type Tier string

const (
	TierCommon    Tier = "common"
	TierUncommon  Tier = "uncommon"
	TierRare      Tier = "rare"
	TierEpic      Tier = "epic"
	TierLegendary Tier = "legendary"
	TierMythical  Tier = "mythical"
)

var tierOrder = map[Tier]int{
	TierCommon:    0,
	TierUncommon:  1,
	TierRare:      2,
	TierEpic:      3,
	TierLegendary: 4,
	TierMythical:  5,
}

// AtLeast reports whether t is the same or rarer than o.
func (t Tier) AtLeast(o Tier) bool {
	return tierOrder[t] >= tierOrder[o]
}

// Effect ids referenced by the economy.
const (
	EffectEnergyDrink     = "energy_drink"
	EffectDailyMultiplier = "daily_multiplier"
	EffectWorkMultiplier  = "work_multiplier"
	EffectHuntMultiplier  = "hunt_multiplier"
	EffectCrimeProtection = "crime_protection"
)

// Item is anything that can sit in an inventory and be sold.
type Item struct {
	Name   string  `yaml:"name"`
	Emoji  string  `yaml:"emoji"`
	Value  int64   `yaml:"value"`
	Weight float64 `yaml:"weight"`
	Tier   Tier    `yaml:"tier,omitempty"`
}

// ShopItem is a purchasable effect.
type ShopItem struct {
	Name            string `yaml:"name"`
	Display         string `yaml:"display"`
	Emoji           string `yaml:"emoji"`
	Price           int64  `yaml:"price"`
	DurationSeconds int64  `yaml:"duration_seconds"`
	DailyLimit      int    `yaml:"daily_limit"`
	Effect          string `yaml:"effect"`
	Category        string `yaml:"category"`
	Description     string `yaml:"description"`
}

// Permanent reports whether the item never expires once bought.
func (s ShopItem) Permanent() bool {
	return s.DurationSeconds == -1
}

// Duration returns how long the effect lasts. Zero for permanent items.
func (s ShopItem) Duration() time.Duration {
	if s.Permanent() {
		return 0
	}
	return time.Duration(s.DurationSeconds) * time.Second
}

// LevelRank is a rank unlocked by level.
type LevelRank struct {
	Name     string `yaml:"name"`
	Emoji    string `yaml:"emoji"`
	MinLevel int    `yaml:"min_level"`
	Color    int    `yaml:"color"`
	Perk     string `yaml:"perk"`
}

// WealthRank is a rank derived from balance.
type WealthRank struct {
	Name       string `yaml:"name"`
	Emoji      string `yaml:"emoji"`
	MinBalance int64  `yaml:"min_balance"`
	Color      int    `yaml:"color"`
}

// CustomRank is granted by the owner.
type CustomRank struct {
	Name  string `yaml:"name"`
	Emoji string `yaml:"emoji"`
	Color int    `yaml:"color"`
	Perk  string `yaml:"perk"`
}

// Catalog is the immutable set of catalogs and rank tables.
type Catalog struct {
	Hunt        []Item       `yaml:"hunt"`
	Fish        []Item       `yaml:"fish"`
	Shop        []ShopItem   `yaml:"shop"`
	LevelRanks  []LevelRank  `yaml:"level_ranks"`
	WealthRanks []WealthRank `yaml:"wealth_ranks"`
	CustomRanks []CustomRank `yaml:"custom_ranks"`

	items  map[string]Item
	shop   map[string]ShopItem
	custom map[string]CustomRank
}

// Normalize folds a user-typed name into the lookup key form.
// "Golden Carp", "golden_carp" and "GOLDEN-CARP" all map to "golden-carp".
func Normalize(name string) string {
	return strings.ReplaceAll(slug.Make(name), "_", "-")
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the embedded catalog. It panics if the embedded document is invalid.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(defaultData)
		if err != nil {
			panic(err)
		}
		defaultCat = c
	})
	return defaultCat
}

func (c *Catalog) index() error {
	if len(c.Hunt) == 0 || len(c.Fish) == 0 {
		return errors.New("catalog: hunt and fish tables must not be empty")
	}
	if len(c.LevelRanks) == 0 || len(c.WealthRanks) == 0 {
		return errors.New("catalog: rank tables must not be empty")
	}

	c.items = make(map[string]Item, len(c.Hunt)+len(c.Fish))
	for _, table := range [][]Item{c.Hunt, c.Fish} {
		for _, it := range table {
			key := Normalize(it.Name)
			if key == "" || it.Value <= 0 || it.Weight <= 0 {
				return fmt.Errorf("catalog: invalid item %q", it.Name)
			}
			if _, dup := c.items[key]; dup {
				return fmt.Errorf("catalog: duplicate item %q", it.Name)
			}
			c.items[key] = it
		}
	}
	for _, it := range c.Hunt {
		if _, ok := tierOrder[it.Tier]; !ok {
			return fmt.Errorf("catalog: hunt item %q has unknown tier %q", it.Name, it.Tier)
		}
	}

	c.shop = make(map[string]ShopItem, len(c.Shop))
	for _, s := range c.Shop {
		if s.Price <= 0 || s.DailyLimit <= 0 || s.Effect == "" {
			return fmt.Errorf("catalog: invalid shop item %q", s.Name)
		}
		if s.DurationSeconds <= 0 && !s.Permanent() {
			return fmt.Errorf("catalog: shop item %q needs a positive duration or -1", s.Name)
		}
		c.shop[Normalize(s.Name)] = s
	}

	sort.SliceStable(c.LevelRanks, func(i, j int) bool { return c.LevelRanks[i].MinLevel < c.LevelRanks[j].MinLevel })
	sort.SliceStable(c.WealthRanks, func(i, j int) bool { return c.WealthRanks[i].MinBalance < c.WealthRanks[j].MinBalance })
	if c.LevelRanks[0].MinLevel > 1 {
		return errors.New("catalog: the lowest level rank must start at level 1")
	}
	if c.WealthRanks[0].MinBalance > 0 {
		return errors.New("catalog: the lowest wealth rank must start at 0")
	}

	c.custom = make(map[string]CustomRank, len(c.CustomRanks))
	for _, r := range c.CustomRanks {
		c.custom[Normalize(r.Name)] = r
	}
	return nil
}

// Item looks up a hunt or fish item by name.
func (c *Catalog) Item(name string) (Item, bool) {
	it, ok := c.items[Normalize(name)]
	return it, ok
}

// ShopItem looks up a shop item by name or display name.
func (c *Catalog) ShopItem(name string) (ShopItem, bool) {
	s, ok := c.shop[Normalize(name)]
	return s, ok
}

// CustomRank looks up an owner-granted rank.
func (c *Catalog) CustomRank(name string) (CustomRank, bool) {
	r, ok := c.custom[Normalize(name)]
	return r, ok
}

// LevelRank returns the highest rank whose threshold is at or below level.
func (c *Catalog) LevelRank(level int) LevelRank {
	rank := c.LevelRanks[0]
	for _, r := range c.LevelRanks {
		if r.MinLevel > level {
			break
		}
		rank = r
	}
	return rank
}

// WealthRank returns the highest rank whose threshold is at or below balance.
func (c *Catalog) WealthRank(balance int64) WealthRank {
	rank := c.WealthRanks[0]
	for _, r := range c.WealthRanks {
		if r.MinBalance > balance {
			break
		}
		rank = r
	}
	return rank
}
