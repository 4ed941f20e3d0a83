// Package bookdl provides a configurable web-novel scraper and downloader.
// Given CSS selector expressions for a chapter-list page and chapter-content
// pages, it discovers chapter URLs across paginated lists, downloads chapter
// content with bounded concurrency and per-chapter idempotence, applies text
// post-processing, and merges the result into a single TXT or EPUB file.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., rod/, goquery/, fs/).
package bookdl
