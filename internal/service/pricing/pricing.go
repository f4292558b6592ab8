// Package pricing derives the unit price of an order line from a product and
// its selected modifiers. It is pure: all catalog data comes in as maps, no
// I/O happens here.
//
// Product families are recognized from slug/name substrings. That couples
// pricing to catalog content, so the heuristic is confined to Classify and the
// option matchers below; the rest of the engine only sees the Family tag.
package pricing

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/snackline/backend/internal/service/models/catalog"
	"github.com/snackline/backend/internal/service/models/order"
)

// Family is the pricing classification of a product.
type Family int

const (
	FamilyOther Family = iota
	FamilyTacos
	FamilyTacosMenu
	FamilyCombo
)

// Fixed price points of the special families.
var (
	meatPrices = map[int]decimal.Decimal{
		1: decimal.RequireFromString("7.00"),
		2: decimal.RequireFromString("8.00"),
		3: decimal.RequireFromString("10.00"),
	}
	menuTacosExtra = decimal.RequireFromString("3.00")
	comboExtra     = decimal.RequireFromString("5.00")
	smashBase      = decimal.RequireFromString("6.00")
	signatureBase  = decimal.RequireFromString("10.50")
)

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// classificationKey is the product's slug, falling back to its name.
func classificationKey(slug, name string) string {
	if k := norm(slug); k != "" {
		return k
	}
	return norm(name)
}

// Classify tags a product with its pricing family. Tacos checks take priority
// over combo.
func Classify(p *catalog.Product) Family {
	key := classificationKey(p.Slug, p.Name)
	switch {
	case strings.Contains(key, "taco") && !strings.Contains(key, "menu"):
		return FamilyTacos
	case strings.Contains(key, "taco") && strings.Contains(key, "menu"):
		return FamilyTacosMenu
	case strings.Contains(key, "combo"):
		return FamilyCombo
	default:
		return FamilyOther
	}
}

func isMeatOption(opt *catalog.Option) bool {
	key := classificationKey(opt.Slug, opt.Name)
	return strings.Contains(key, "viande") || strings.Contains(key, "meat")
}

func isBurgerSelectorOption(opt *catalog.Option) bool {
	key := classificationKey(opt.Slug, opt.Name)
	return strings.Contains(key, "burger")
}

// Meat count detection. A bare digit 1-3 anywhere in the choice name wins, then
// French/English size words. The digit match is deliberately loose: a choice
// name containing an unrelated "2" still reads as two meats.
var (
	meatDigitRe  = regexp.MustCompile(`\b([1-3])\b`)
	meatSingleRe = regexp.MustCompile(`\b(s|small|petit|simple)\b`)
	meatDoubleRe = regexp.MustCompile(`\b(m|medium|moyen|double)\b`)
	meatTripleRe = regexp.MustCompile(`\b(l|large|grand|triple)\b`)
)

// parseMeatCount extracts a 1-3 meat count from a choice name, or 0.
func parseMeatCount(choiceName string) int {
	s := norm(choiceName)
	if m := meatDigitRe.FindStringSubmatch(s); m != nil {
		switch m[1] {
		case "1":
			return 1
		case "2":
			return 2
		case "3":
			return 3
		}
	}
	switch {
	case meatSingleRe.MatchString(s):
		return 1
	case meatDoubleRe.MatchString(s):
		return 2
	case meatTripleRe.MatchString(s):
		return 3
	}
	return 0
}

// meatCount scans every selected choice and keeps the maximum detected count.
func meatCount(choices []order.ChoiceRequest, choiceOptions map[int64]*catalog.ChoiceOption) int {
	found := 0
	for _, ch := range choices {
		co, ok := choiceOptions[ch.ChoiceOptionID]
		if !ok {
			continue
		}
		if n := parseMeatCount(co.Name); n > found {
			found = n
		}
	}
	return found
}

// sumMeatModifiers totals the price deltas of choices selected under meat
// options, counting each choice option once.
func sumMeatModifiers(
	choices []order.ChoiceRequest,
	options map[int64]*catalog.Option,
	choiceOptions map[int64]*catalog.ChoiceOption,
) decimal.Decimal {
	total := decimal.Zero
	seen := make(map[int64]struct{})
	for _, ch := range choices {
		opt, okOpt := options[ch.OptionID]
		co, okCo := choiceOptions[ch.ChoiceOptionID]
		if !okOpt || !okCo {
			continue
		}
		if !isMeatOption(opt) {
			continue
		}
		if _, dup := seen[ch.ChoiceOptionID]; dup {
			continue
		}
		seen[ch.ChoiceOptionID] = struct{}{}
		total = total.Add(co.PriceModifier)
	}
	return total
}

// sumModifiers totals all selected price deltas, unknown choices skipped.
func sumModifiers(choices []order.ChoiceRequest, choiceOptions map[int64]*catalog.ChoiceOption) decimal.Decimal {
	total := decimal.Zero
	for _, ch := range choices {
		if co, ok := choiceOptions[ch.ChoiceOptionID]; ok {
			total = total.Add(co.PriceModifier)
		}
	}
	return total
}

// selectedBurgerName returns the name of the first choice selected under a
// burger-selector option.
func selectedBurgerName(
	choices []order.ChoiceRequest,
	options map[int64]*catalog.Option,
	choiceOptions map[int64]*catalog.ChoiceOption,
) string {
	for _, ch := range choices {
		opt, okOpt := options[ch.OptionID]
		co, okCo := choiceOptions[ch.ChoiceOptionID]
		if !okOpt || !okCo {
			continue
		}
		if isBurgerSelectorOption(opt) && co.Name != "" {
			return strings.TrimSpace(co.Name)
		}
	}
	return ""
}

// burgerCategoryBase resolves the combo base price from the chosen burger:
// 6.00 when the burger belongs to a "smash" category, 10.50 for "signature".
// The choice name is first mapped to a catalog product (with its category
// loaded); if that fails the label itself is searched as a fallback. Returns
// ok=false when the burger cannot be classified.
func burgerCategoryBase(burgerChoiceName string, productsByName map[string]*catalog.Product) (decimal.Decimal, bool) {
	if burgerChoiceName == "" {
		return decimal.Zero, false
	}
	key := norm(burgerChoiceName)
	if p, ok := productsByName[key]; ok && p != nil {
		catStr := ""
		if p.Category != nil {
			catStr = classificationKey(p.Category.Slug, p.Category.Name)
		}
		if strings.Contains(catStr, "smash") {
			return smashBase, true
		}
		if strings.Contains(catStr, "signature") {
			return signatureBase, true
		}
	}
	if strings.Contains(key, "smash") {
		return smashBase, true
	}
	if strings.Contains(key, "signature") {
		return signatureBase, true
	}
	return decimal.Zero, false
}

// UnitPrice computes the per-unit price of one order line.
//
//   - Tacos: a detected meat count overrides the base price with the fixed
//     7/8/10 table and backs the meat deltas out of the modifier sum; the menu
//     variant adds 3.00 on top.
//   - Combo: classified burger gives category base + 5.00 + all modifiers,
//     the selector's own delta included; unclassified falls back to the plain
//     formula.
//   - Everything else: base price + all modifiers.
//
// Modifier sums may be negative. Result is rounded to 2 decimal places.
func UnitPrice(
	product *catalog.Product,
	choices []order.ChoiceRequest,
	options map[int64]*catalog.Option,
	choiceOptions map[int64]*catalog.ChoiceOption,
	productsByName map[string]*catalog.Product,
) decimal.Decimal {
	base := product.BasePrice
	extrasAll := sumModifiers(choices, choiceOptions)

	switch family := Classify(product); family {
	case FamilyTacos, FamilyTacosMenu:
		price := base
		if n := meatCount(choices, choiceOptions); n >= 1 && n <= 3 {
			price = meatPrices[n]
			extrasAll = extrasAll.Sub(sumMeatModifiers(choices, options, choiceOptions))
		}
		if family == FamilyTacosMenu {
			price = price.Add(menuTacosExtra)
		}
		return price.Add(extrasAll).Round(2)

	case FamilyCombo:
		burgerName := selectedBurgerName(choices, options, choiceOptions)
		if catBase, ok := burgerCategoryBase(burgerName, productsByName); ok {
			return catBase.Add(comboExtra).Add(extrasAll).Round(2)
		}
		return base.Add(extrasAll).Round(2)

	default:
		return base.Add(extrasAll).Round(2)
	}
}
