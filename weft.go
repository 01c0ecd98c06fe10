// Package weft provides an adaptive web-extraction engine. It analyzes
// the structure of fetched HTML documents, infers field schemas and
// scraping strategies, extracts and post-processes records, scores their
// quality, and paces all fetching through per-host adaptive rate limits.
//
// This package contains domain types and interfaces following Ben
// Johnson's Standard Package Layout. Implementations live in
// subdirectories named after their primary dependency (e.g., goquery/,
// sqlite/, trafilatura/) or their concern (e.g., crawl/, pipeline/).
package weft
