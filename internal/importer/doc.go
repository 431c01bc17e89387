// Package importer brings external documents into the editor.
//
// A remote import fetches a page over HTTP with retries and a circuit
// breaker, decodes it to UTF-8 using header, meta, and statistical
// charset detection, rewrites relative asset references against the
// page URL, and optionally inlines small images as data URLs so the
// imported document stands alone. Pasted markup takes the same
// normalization path minus the fetch.
package importer
