package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/harmonize-mb/harmonize/internal/prompt"
)

// Node is a resolved DOM node, re-exported so callers iterating node
// lists do not import cdproto directly.
type Node = cdp.Node

// Tab is one browser tab. Child tabs are created by OpenInNewTab and
// closed with Close; the root tab lives as long as the session.
type Tab struct {
	session *Session
	ctx     context.Context
	cancel  context.CancelFunc
	root    bool
}

// run executes chromedp actions against this tab with the given
// timeout. The derived timeout context stops the actions without
// closing the tab.
func (t *Tab) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(t.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// Navigate loads the given URL and waits for the body to be visible.
func (t *Tab) Navigate(url string) error {
	t.session.logger.Debug("navigating", "url", url)
	if err := t.run(t.session.waitTimeout,
		chromedp.Navigate(url),
		chromedp.WaitVisible("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// WaitVisible waits for the selector to be visible, retrying on the
// user's say-so after each timeout. Returns ErrWaitSkipped when the
// user continues without the element and ErrAborted when they abort.
//
// This is the element-wait primitive everything else builds on: a
// timeout here nearly always means one of the external sites changed
// or is having a slow day, and the human at the keyboard is the only
// one who can tell which.
func (t *Tab) WaitVisible(sel Selector, timeout time.Duration) error {
	for {
		err := t.run(timeout, chromedp.WaitVisible(sel.expr, sel.by))
		if err == nil {
			return nil
		}
		if t.ctx.Err() != nil {
			// Session cancelled; not a page timeout.
			return t.ctx.Err()
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("failed waiting for %s: %w", sel, err)
		}
		if t.session.prompter == nil {
			return fmt.Errorf("timed out waiting for %s: %w", sel, err)
		}

		t.session.logger.Warn("timed out waiting for element", "selector", sel.String())
		decision, perr := t.session.prompter.Decide(
			fmt.Sprintf("Timed out waiting for %s.", sel))
		if perr != nil {
			return perr
		}
		switch decision {
		case prompt.Retry:
			continue
		case prompt.Continue:
			return ErrWaitSkipped
		case prompt.Abort:
			return ErrAborted
		}
	}
}

// Wait is WaitVisible with the session's default timeout.
func (t *Tab) Wait(sel Selector) error {
	return t.WaitVisible(sel, t.session.waitTimeout)
}

// Click waits for the selector and clicks it.
func (t *Tab) Click(sel Selector) error {
	if err := t.Wait(sel); err != nil {
		return err
	}
	if err := t.run(t.session.waitTimeout,
		chromedp.ScrollIntoView(sel.expr, sel.by),
		chromedp.Click(sel.expr, sel.by),
	); err != nil {
		return fmt.Errorf("failed to click %s: %w", sel, err)
	}
	return nil
}

// Fill waits for the selector, clears it, and sets the given value.
func (t *Tab) Fill(sel Selector, value string) error {
	if err := t.Wait(sel); err != nil {
		return err
	}
	if err := t.run(t.session.waitTimeout,
		chromedp.SetValue(sel.expr, value, sel.by),
	); err != nil {
		return fmt.Errorf("failed to fill %s: %w", sel, err)
	}
	return nil
}

// SendKeys waits for the selector and types into it, which fires the
// key events some widgets (e.g. autocompletes) listen for.
func (t *Tab) SendKeys(sel Selector, value string) error {
	if err := t.Wait(sel); err != nil {
		return err
	}
	if err := t.run(t.session.waitTimeout,
		chromedp.SendKeys(sel.expr, value, sel.by),
	); err != nil {
		return fmt.Errorf("failed to type into %s: %w", sel, err)
	}
	return nil
}

// Submit waits for the selector and submits its enclosing form.
func (t *Tab) Submit(sel Selector) error {
	if err := t.Wait(sel); err != nil {
		return err
	}
	if err := t.run(t.session.waitTimeout,
		chromedp.Submit(sel.expr, sel.by),
	); err != nil {
		return fmt.Errorf("failed to submit %s: %w", sel, err)
	}
	return nil
}

// Text returns the visible text of the first node matching the selector.
func (t *Tab) Text(sel Selector) (string, error) {
	var text string
	if err := t.run(t.session.waitTimeout,
		chromedp.Text(sel.expr, &text, sel.by),
	); err != nil {
		return "", fmt.Errorf("failed to read text of %s: %w", sel, err)
	}
	return text, nil
}

// BodyText returns the full visible text of the page body.
func (t *Tab) BodyText() (string, error) {
	return t.Text(CSS("body"))
}

// OuterHTML returns the page's HTML snapshot.
func (t *Tab) OuterHTML() (string, error) {
	var htmlText string
	if err := t.run(t.session.waitTimeout,
		chromedp.OuterHTML("html", &htmlText, chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("failed to snapshot page HTML: %w", err)
	}
	return htmlText, nil
}

// Title returns the page title.
func (t *Tab) Title() (string, error) {
	var title string
	if err := t.run(t.session.waitTimeout, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("failed to read page title: %w", err)
	}
	return title, nil
}

// Location returns the page URL.
func (t *Tab) Location() (string, error) {
	var loc string
	if err := t.run(t.session.waitTimeout, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("failed to read page location: %w", err)
	}
	return loc, nil
}

// Evaluate runs JavaScript in the page. res may be nil when the result
// is irrelevant.
func (t *Tab) Evaluate(js string, res any) error {
	if err := t.run(t.session.waitTimeout, chromedp.Evaluate(js, res)); err != nil {
		return fmt.Errorf("failed to evaluate script: %w", err)
	}
	return nil
}

// Nodes returns all nodes matching the selector. Unlike WaitVisible
// this does not retry; an empty result is returned as an empty slice.
func (t *Tab) Nodes(sel Selector) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	err := t.run(t.session.waitTimeout,
		chromedp.Nodes(sel.expr, &nodes, sel.by, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", sel, err)
	}
	return nodes, nil
}

// AttributeValue returns the named attribute of the first node
// matching the selector, with ok=false when the attribute is absent.
func (t *Tab) AttributeValue(sel Selector, name string) (string, bool, error) {
	var value string
	var ok bool
	err := t.run(t.session.waitTimeout,
		chromedp.AttributeValue(sel.expr, name, &value, &ok, sel.by),
	)
	if err != nil {
		return "", false, fmt.Errorf("failed to read attribute %s of %s: %w", name, sel, err)
	}
	return value, ok, nil
}

// SetFiles waits for a file input and attaches the given paths to it.
func (t *Tab) SetFiles(sel Selector, paths []string) error {
	if err := t.Wait(sel); err != nil {
		return err
	}
	if err := t.run(t.session.waitTimeout,
		chromedp.SetUploadFiles(sel.expr, paths, sel.by),
	); err != nil {
		return fmt.Errorf("failed to set upload files on %s: %w", sel, err)
	}
	return nil
}

// OpenInNewTab ctrl-clicks the element matching the selector and
// returns the tab the browser opened for it. The caller owns the
// returned tab and must Close it.
func (t *Tab) OpenInNewTab(sel Selector) (*Tab, error) {
	if err := t.Wait(sel); err != nil {
		return nil, err
	}

	var nodes []*cdp.Node
	if err := t.run(t.session.waitTimeout,
		chromedp.ScrollIntoView(sel.expr, sel.by),
		chromedp.Nodes(sel.expr, &nodes, sel.by, chromedp.AtLeast(1)),
	); err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", sel, err)
	}

	// Start listening before the click so the new target cannot race
	// past us.
	targetCh := chromedp.WaitNewTarget(t.ctx, func(info *target.Info) bool {
		return info.OpenerID != ""
	})

	if err := t.run(t.session.waitTimeout,
		chromedp.MouseClickNode(nodes[0], chromedp.ButtonModifiers(input.ModifierCtrl)),
	); err != nil {
		return nil, fmt.Errorf("failed to ctrl-click %s: %w", sel, err)
	}

	select {
	case id := <-targetCh:
		ctx, cancel := chromedp.NewContext(t.ctx, chromedp.WithTargetID(id))
		child := &Tab{session: t.session, ctx: ctx, cancel: cancel}
		// Attach to the target now so failures surface here.
		if err := chromedp.Run(ctx); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to attach to new tab: %w", err)
		}
		t.session.logger.Debug("opened new tab", "selector", sel.String())
		return child, nil
	case <-time.After(t.session.waitTimeout):
		return nil, fmt.Errorf("timed out waiting for new tab from %s", sel)
	case <-t.ctx.Done():
		return nil, t.ctx.Err()
	}
}

// ClickNode clicks a previously resolved node. Used when iterating a
// node list where re-querying by selector would lose the position.
func (t *Tab) ClickNode(node *cdp.Node) error {
	if err := t.run(t.session.waitTimeout,
		chromedp.MouseClickNode(node),
	); err != nil {
		return fmt.Errorf("failed to click node: %w", err)
	}
	return nil
}

// OpenNodeInNewTab ctrl-clicks a previously resolved node and returns
// the new tab, like OpenInNewTab but for node lists.
func (t *Tab) OpenNodeInNewTab(node *cdp.Node) (*Tab, error) {
	targetCh := chromedp.WaitNewTarget(t.ctx, func(info *target.Info) bool {
		return info.OpenerID != ""
	})

	if err := t.run(t.session.waitTimeout,
		chromedp.MouseClickNode(node, chromedp.ButtonModifiers(input.ModifierCtrl)),
	); err != nil {
		return nil, fmt.Errorf("failed to ctrl-click node: %w", err)
	}

	select {
	case id := <-targetCh:
		ctx, cancel := chromedp.NewContext(t.ctx, chromedp.WithTargetID(id))
		child := &Tab{session: t.session, ctx: ctx, cancel: cancel}
		if err := chromedp.Run(ctx); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to attach to new tab: %w", err)
		}
		return child, nil
	case <-time.After(t.session.waitTimeout):
		return nil, errors.New("timed out waiting for new tab")
	case <-t.ctx.Done():
		return nil, t.ctx.Err()
	}
}

// Reload reloads the tab.
func (t *Tab) Reload() error {
	if err := t.run(t.session.waitTimeout, chromedp.Reload()); err != nil {
		return fmt.Errorf("failed to reload tab: %w", err)
	}
	return nil
}

// Sleep pauses for the given duration, respecting tab cancellation.
// Used for the short settle delays after form submissions where no
// reliable element exists to wait on.
func (t *Tab) Sleep(d time.Duration) error {
	return t.run(d+time.Second, chromedp.Sleep(d))
}

// Close closes the tab. Closing the root tab is refused; it would take
// the whole session with it.
func (t *Tab) Close() error {
	if t.root {
		return errors.New("refusing to close the root tab")
	}
	t.cancel()
	return nil
}
