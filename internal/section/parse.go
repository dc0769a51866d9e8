package section

import (
	"strings"

	"golang.org/x/net/html"
)

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// walk visits every element node in the fragment, depth first.
func walk(n *html.Node, visit func(*html.Node)) {
	if n.Type == html.ElementNode {
		visit(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func parseFragment(fragment string) (*html.Node, error) {
	return html.Parse(strings.NewReader(fragment))
}

// fragmentParticipants extracts split-row participant names from an
// expenses fragment, in document order.
func fragmentParticipants(fragment string) []string {
	root, err := parseFragment(fragment)
	if err != nil {
		return nil
	}
	var names []string
	walk(root, func(n *html.Node) {
		if cls, ok := attr(n, "class"); ok && strings.Contains(cls, "split-row") {
			if name, ok := attr(n, "data-participant"); ok && name != "" {
				names = append(names, name)
			}
		}
	})
	return names
}
