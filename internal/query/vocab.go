package query

import "regexp"

// Words stripped at tier 2.
var conditionTerms = []string{
	"brand new", "new with tags", "new without tags", "new in box", "new in package",
	"nwt", "nwot", "nib", "nip", "bnib", "bnwt", "new",
	"like new", "mint condition", "near mint", "mint", "excellent condition",
	"good condition", "fair condition", "great condition",
	"used", "pre-owned", "preowned", "pre owned", "gently used", "lightly used",
	"refurbished", "renewed", "certified refurbished", "open box", "open-box",
	"sealed", "factory sealed", "tested", "working", "tested working",
	"for parts", "parts only", "as is", "as-is", "untested",
}

var colorTerms = []string{
	"black", "white", "red", "blue", "green", "yellow", "orange", "purple",
	"pink", "brown", "gray", "grey", "silver", "gold", "beige", "navy",
	"teal", "tan", "cream", "ivory", "maroon", "burgundy", "olive", "khaki",
	"turquoise", "charcoal", "multicolor", "multi-color",
	"rose gold", "space gray", "space grey", "midnight blue", "navy blue",
	"light blue", "dark blue", "light gray", "dark gray", "off white", "off-white",
}

var subjectiveTerms = []string{
	"rare", "vintage", "antique", "retro", "authentic", "genuine", "original",
	"limited edition", "collectible", "collectors", "beautiful", "gorgeous",
	"stunning", "amazing", "awesome", "cute", "lovely", "nice", "perfect",
	"htf", "hard to find", "l@@k", "look", "wow", "must see", "must have",
	"free shipping", "fast shipping", "great deal", "best deal", "cheap",
	"hot", "trending", "popular", "exclusive", "premium", "deluxe", "classic",
}

// Words stripped at tier 3 in addition to the tier 2 vocabulary.
var materialTerms = []string{
	"leather", "genuine leather", "faux leather", "cotton", "wool", "merino wool",
	"silk", "denim", "plastic", "metal", "steel", "stainless steel", "stainless",
	"wood", "wooden", "solid wood", "glass", "ceramic", "porcelain", "aluminum",
	"aluminium", "brass", "copper", "iron", "cast iron", "polyester", "nylon",
	"cashmere", "linen", "suede", "velvet", "rubber", "canvas", "sterling silver",
	"sterling", "bamboo", "acrylic", "vinyl", "resin", "titanium",
}

var sizePatterns = []*regexp.Regexp{
	// Dimension pairs and triples: 12x18, 10 x 20 x 5 in, 8"x10".
	regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*"?\s*[x×]\s*\d+(?:\.\d+)?\s*"?(?:\s*[x×]\s*\d+(?:\.\d+)?\s*"?)?(?:\s*(?:in|inch|inches|cm|mm|ft|m)\b)?`),
	// Measured quantities: 16 oz, 500ml, 2.5 lbs, 64GB.
	regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:fl\.?\s*oz|oz|ml|l|liter|liters|lb|lbs|kg|g|mg|in|inch|inches|cm|mm|ft|feet|gb|tb|mb|qt|gal|gallon|gallons|mah|w|v)\b`),
	// Pack counts: 3-pack, 12 pcs, 24ct, set of 4, lot of 10.
	regexp.MustCompile(`(?i)\b\d+\s*-?\s*(?:pack|pk|pc|pcs|piece|pieces|count|ct)\b`),
	regexp.MustCompile(`(?i)\b(?:pack|set|lot|box|case)\s+of\s+\d+\b`),
	// Apparel sizes: size 10, size XL, sz M.
	regexp.MustCompile(`(?i)\b(?:size|sz)\s*[a-z0-9.]+\b`),
	regexp.MustCompile(`(?i)\b(?:xxs|xs|xl|xxl|xxxl|2xl|3xl|4xl)\b`),
}
