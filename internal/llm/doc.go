// Package llm is the single gateway to the language model.
//
// Stages depend on the Completer interface, never on the concrete client,
// so tests can substitute a stub and a nil Completer selects each stage's
// deterministic mode. Client implements Completer over any OpenAI-compatible
// chat completions endpoint using github.com/sashabaranov/go-openai.
package llm
