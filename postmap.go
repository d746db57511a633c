// Package postmap turns records extracted from web pages into
// content-management posts. An extraction provider returns records of named
// fields; a per-connector field mapping routes each field to the post title,
// the post body, or an image import.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, goquery/, gemini/).
package postmap
