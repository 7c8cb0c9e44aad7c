package source

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// cleaner strips presentation from imported markup so the active theme
// alone decides how content looks.
type cleaner struct {
	// resolveImage maps an img src to a data URL. A nil resolver keeps
	// sources as they are; a miss removes the image.
	resolveImage func(src string) (string, bool)
}

func (c *cleaner) clean(root *html.Node) {
	walkElements(root, func(n *html.Node) {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Link:
			if n.Parent != nil {
				n.Parent.RemoveChild(n)
			}
			return
		}
		removeAttr(n, func(a html.Attribute) bool {
			switch {
			case a.Key == "style", a.Key == "class":
				return false
			case a.Namespace == "epub" || strings.HasPrefix(a.Key, "epub:"):
				return false
			case strings.HasPrefix(a.Key, "data-"):
				return false
			case a.Key == "xmlns" || strings.HasPrefix(a.Key, "xmlns:"):
				return false
			}
			return true
		})
		switch n.DataAtom {
		case atom.Img:
			c.image(n)
		case atom.A:
			anchor(n)
		}
	})
}

func (c *cleaner) image(n *html.Node) {
	src := getAttr(n, "src")
	if src == "" || strings.HasPrefix(src, "data:") || c.resolveImage == nil {
		return
	}
	if url, ok := c.resolveImage(src); ok {
		setAttr(n, "src", url)
		return
	}
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// anchor keeps in-document and external links and reduces links into
// other files to their fragment.
func anchor(n *html.Node) {
	href := getAttr(n, "href")
	switch {
	case href == "", strings.HasPrefix(href, "#"):
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
		setAttr(n, "target", "_blank")
		setAttr(n, "rel", "noopener")
	default:
		if i := strings.IndexByte(href, '#'); i >= 0 {
			setAttr(n, "href", href[i:])
			return
		}
		removeAttr(n, func(a html.Attribute) bool { return a.Key != "href" })
	}
}
