// Package hal fetches web pages and regulatory filings and turns them into
// structured, citation-bearing extractions of their main content.
//
// Extraction climbs a ladder of increasingly expensive strategies: a
// rendered page is first reduced with structural (readability-style)
// extraction, scored, and only escalated to screenshot-based vision
// extraction when the structural candidate looks weak. Every target is
// checked against an SSRF guard before any request is issued, and results
// are cached on disk keyed by a fingerprint of the request.
//
// This package contains domain types, interfaces and pure decision logic
// following Ben Johnson's Standard Package Layout. Implementations live in
// subdirectories named after their primary dependency (e.g., rod/, gemini/,
// fs/, sqlite/).
package hal
