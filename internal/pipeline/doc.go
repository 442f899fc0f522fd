// Package pipeline runs the proposal stages in sequence over a Run.
//
// Each stage is a Step that reads what earlier steps left in the Run and
// adds its own output: fetch, extract, merge, plan, write. The pipeline
// checks for cancellation between steps, records which steps ran, and
// installs the Run as the fallback recorder so every stage that falls back
// from the language model leaves a trace.
package pipeline
