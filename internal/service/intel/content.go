package intel

import (
	"io"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/values"
)

var parkedKeywords = []string{
	"domain for sale",
	"buy this domain",
	"this domain is parked",
	"domain is for sale",
	"parked free",
	"sedo",
	"afternic",
	"dan.com",
}

// Generic corporate filler used by cloaking "safe pages".
var safePagePatterns = []string{
	"b2b solutions",
	"enterprise innovation",
	"digital transformation",
	"stock photo",
	"our mission is to empower",
	"lorem ipsum",
	"synergy",
}

const safePageMinHits = 2

// pageText extracts the title and visible text of an HTML document,
// lowercased. Script, style and noscript content is skipped.
func pageText(r io.Reader) (title, body string) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", ""
	}

	var titleBuf, bodyBuf strings.Builder
	var walk func(n *html.Node, inTitle bool)
	walk = func(n *html.Node, inTitle bool) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			case atom.Title:
				inTitle = true
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if inTitle {
					titleBuf.WriteString(text)
					titleBuf.WriteByte(' ')
				} else {
					bodyBuf.WriteString(text)
					bodyBuf.WriteByte(' ')
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inTitle)
		}
	}
	walk(doc, false)

	return strings.ToLower(strings.TrimSpace(titleBuf.String())),
		strings.ToLower(strings.TrimSpace(bodyBuf.String()))
}

// classifyPage derives cloaking flags from the fetched page and the hosts
// the request started and ended on.
func classifyPage(title, body string, start, final *url.URL) review.ContentFlags {
	text := title + " " + body

	var flags review.ContentFlags
	for _, kw := range parkedKeywords {
		if strings.Contains(text, kw) {
			flags.Parked = true
			break
		}
	}

	hits := 0
	for _, pattern := range safePagePatterns {
		if strings.Contains(text, pattern) {
			hits++
		}
	}
	flags.SafePageTemplate = hits >= safePageMinHits

	if start != nil && final != nil {
		flags.BaitSwitch = !sameSite(start, final)
	}
	return flags
}

// sameSite treats hosts sharing a registrable domain as one site, so a
// redirect from example.com to www.example.com is not a switch.
func sameSite(a, b *url.URL) bool {
	if strings.EqualFold(a.Host, b.Host) {
		return true
	}
	ha, hb := a.Hostname(), b.Hostname()
	if net.ParseIP(ha) != nil || net.ParseIP(hb) != nil {
		return false
	}
	return values.RegistrableDomain(ha) == values.RegistrableDomain(hb)
}
