package metadata

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

type field int

const (
	fieldTitle field = iota
	fieldDescription
	fieldImage
	fieldLogo
	fieldPrice
	numFields
)

// rule maps a tag attribute value to a field. Lower rank wins.
type rule struct {
	field field
	rank  int
}

// metaRules are keyed by the lower-cased property or name of a <meta> tag.
var metaRules = map[string]rule{
	"og:title":             {fieldTitle, 0},
	"twitter:title":        {fieldTitle, 1},
	"og:description":       {fieldDescription, 0},
	"twitter:description":  {fieldDescription, 1},
	"description":          {fieldDescription, 2},
	"og:image":             {fieldImage, 0},
	"og:image:url":         {fieldImage, 1},
	"og:image:secure_url":  {fieldImage, 1},
	"twitter:image":        {fieldImage, 2},
	"twitter:image:src":    {fieldImage, 2},
	"og:logo":              {fieldLogo, 0},
	"product:price:amount": {fieldPrice, 0},
	"og:price:amount":      {fieldPrice, 1},
	"price":                {fieldPrice, 3},
}

// linkRules are keyed by a single lower-cased token of a <link rel>.
var linkRules = map[string]rule{
	"image_src":                    {fieldImage, 3},
	"apple-touch-icon":             {fieldLogo, 2},
	"apple-touch-icon-precomposed": {fieldLogo, 2},
	"icon":                         {fieldLogo, 3},
}

// scraped holds the raw values found in a page before cleanup.
type scraped struct {
	Title       string
	Description string
	Image       string
	Logo        string
	Price       string
}

type candidates struct {
	values [numFields]string
	ranks  [numFields]int
	found  [numFields]bool
}

func (c *candidates) offer(r rule, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if c.found[r.field] && c.ranks[r.field] <= r.rank {
		return
	}
	c.values[r.field] = value
	c.ranks[r.field] = r.rank
	c.found[r.field] = true
}

// extract scans an HTML document for product preview fields. Image and logo
// URLs are resolved against base.
func extract(r io.Reader, base *url.URL) *scraped {
	tokenizer := html.NewTokenizer(r)
	var c candidates

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			// io.EOF or a malformed document: keep whatever was found.
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}

		tn, hasAttr := tokenizer.TagName()
		tag := string(tn)

		if tag == "title" {
			if tokenizer.Next() == html.TextToken {
				c.offer(rule{fieldTitle, 2}, string(tokenizer.Text()))
			}
			continue
		}
		if !hasAttr {
			continue
		}

		attrs := readAttrs(tokenizer)

		if prop := attrs["itemprop"]; prop != "" {
			switch strings.ToLower(prop) {
			case "price":
				c.offer(rule{fieldPrice, 2}, attrs["content"])
			case "logo":
				c.offer(rule{fieldLogo, 1}, firstNonEmpty(attrs["content"], attrs["src"], attrs["href"]))
			}
		}

		switch tag {
		case "meta":
			content := attrs["content"]
			for _, key := range []string{attrs["property"], attrs["name"]} {
				if rl, ok := metaRules[strings.ToLower(strings.TrimSpace(key))]; ok {
					c.offer(rl, content)
				}
			}
		case "link":
			for _, rel := range strings.Fields(strings.ToLower(attrs["rel"])) {
				if rl, ok := linkRules[rel]; ok {
					c.offer(rl, attrs["href"])
				}
			}
		}
	}

	return &scraped{
		Title:       c.values[fieldTitle],
		Description: c.values[fieldDescription],
		Image:       resolveURL(base, c.values[fieldImage]),
		Logo:        resolveURL(base, c.values[fieldLogo]),
		Price:       c.values[fieldPrice],
	}
}

// readAttrs collects all attributes from the current tag token.
func readAttrs(z *html.Tokenizer) map[string]string {
	attrs := make(map[string]string)
	for {
		key, val, more := z.TagAttr()
		k := string(key)
		if k != "" {
			attrs[k] = string(val)
		}
		if !more {
			break
		}
	}
	return attrs
}

// resolveURL makes ref absolute relative to base. Unparseable references are
// returned unchanged.
func resolveURL(base *url.URL, ref string) string {
	if ref == "" || base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
