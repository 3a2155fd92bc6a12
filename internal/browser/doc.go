// Package browser wraps chromedp with the small vocabulary the import
// flow needs: waiting for elements with a human fallback on timeout,
// clicking, filling forms, uploading files, and opening links in
// tracked child tabs.
package browser
