// Package gemini implements [ai.Provider] for Google's Gemini generateContent
// endpoint.
//
// Turns are sent as Gemini contents with text and inlineData parts. The first
// candidate's text parts are joined into the reply. Every failure, whether
// transport, HTTP status, safety block or undecodable body, is returned as an
// [*ai.ProviderError] whose Kind says what went wrong.
//
// [New] reads GEMINI_API_KEY and GEMINI_API_BASE_URL from the environment;
// [GeminiProvider.WithAPIKey], [GeminiProvider.WithBaseURL] and
// [GeminiProvider.WithHttpClient] override them.
package gemini
