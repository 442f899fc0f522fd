// Package model defines the data contracts passed between pipeline stages.
//
// This package contains the following main types:
//   - Page: A fetched and cleaned web page
//   - Findings / Extraction: Per-page facts, arguments and problems
//   - InfoSet / MergedInfo: The consolidated view across all pages
//   - Plan: The four-section outline of the proposal
//   - Run: The accumulator that the pipeline fills in, one stage at a time
//
// Every sequence field is a non-nil slice once a stage hands a value to the
// next one. Each type has a Normalize method that enforces this, so JSON
// output always renders empty lists as [] rather than null.
package model
