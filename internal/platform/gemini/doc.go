// Package gemini implements the generation.Generator interface against
// Google's Gemini API. It builds few-shot prompts from schema declarations,
// requests JSON output, retries transient API failures with exponential
// backoff, and converts the model's response into domain records.
package gemini
