package browser

import (
	"fmt"

	"github.com/chromedp/chromedp"
)

// Selector locates page elements either by CSS query or by XPath.
// It exists so call sites read as descriptions of the page rather than
// as chromedp option plumbing.
type Selector struct {
	expr string
	kind string
	by   chromedp.QueryOption
}

// CSS creates a CSS query selector.
func CSS(expr string) Selector {
	return Selector{expr: expr, kind: "css", by: chromedp.ByQuery}
}

// CSSAll creates a CSS query selector matching all nodes.
func CSSAll(expr string) Selector {
	return Selector{expr: expr, kind: "css", by: chromedp.ByQueryAll}
}

// XPath creates an XPath selector.
func XPath(expr string) Selector {
	return Selector{expr: expr, kind: "xpath", by: chromedp.BySearch}
}

// String renders the selector for logs and prompts.
func (s Selector) String() string {
	return fmt.Sprintf("%s %q", s.kind, s.expr)
}

// Expr returns the raw selector expression, for callers that compose
// selectors (e.g. wrapping an XPath in a positional filter).
func (s Selector) Expr() string {
	return s.expr
}

// ButtonByText builds an XPath selector for a <button> of the given
// type whose normalized text equals the label.
func ButtonByText(buttonType, label string) Selector {
	return XPath(fmt.Sprintf(
		"//button[@type=%q and normalize-space() = %q]", buttonType, label))
}

// LinkByText builds an XPath selector for an <a> whose normalized text
// equals the label.
func LinkByText(label string) Selector {
	return XPath(fmt.Sprintf("//a[normalize-space() = %q]", label))
}

// LinkByPartialText builds an XPath selector for an <a> whose
// normalized text contains the label.
func LinkByPartialText(label string) Selector {
	return XPath(fmt.Sprintf("//a[contains(normalize-space(.), %q)]", label))
}

// SubmitInputByValue builds an XPath selector for an
// <input type="submit"> with the given value.
func SubmitInputByValue(value string) Selector {
	return XPath(fmt.Sprintf("//input[@type='submit' and @value=%q]", value))
}
