package observability

// Semantic conventions for observability attributes.
// These constants define standard attribute names to ensure consistency
// across different components of the system.

// --- LLM Provider Attributes ---

const (
	// AttrLLMProvider is the name of the completion provider (e.g., "gemini")
	AttrLLMProvider = "llm.provider"

	// AttrLLMModel is the model identifier (e.g., "gemini-1.5-flash")
	AttrLLMModel = "llm.model"

	// AttrLLMEndpoint is the API endpoint URL
	AttrLLMEndpoint = "llm.endpoint"

	// AttrLLMResponseID is the unique response identifier
	AttrLLMResponseID = "llm.response.id"

	// AttrLLMFinishReason is the reason the generation finished
	AttrLLMFinishReason = "llm.finish_reason"

	// AttrLLMErrorKind is the ProviderError classification
	AttrLLMErrorKind = "llm.error.kind"

	// AttrLLMTokensTotal is the total number of tokens
	AttrLLMTokensTotal = "llm.tokens.total" // #nosec G101 -- Not a credential, token refers to LLM tokens
)

// --- Request/Response Attributes ---

const (
	// AttrRequestTurnsCount is the number of turns in the provider payload
	AttrRequestTurnsCount = "request.turns_count"

	// AttrRequestImagesCount is the number of image parts in the provider payload
	AttrRequestImagesCount = "request.images_count"

	// AttrResponseLength is the length of the raw reply text
	AttrResponseLength = "response.length"
)

// --- HTTP Attributes ---

const (
	// AttrHTTPMethod is the HTTP method (GET, POST, etc.)
	AttrHTTPMethod = "http.method"

	// AttrHTTPStatusCode is the HTTP response status code
	AttrHTTPStatusCode = "http.status_code"

	// AttrHTTPURL is the full request URL
	AttrHTTPURL = "http.url"

	// AttrHTTPRequestBodySize is the request body size in bytes
	AttrHTTPRequestBodySize = "http.request.body.size"

	// AttrHTTPResponseBodySize is the response body size in bytes
	AttrHTTPResponseBodySize = "http.response.body.size"
)

// --- Memory Attributes ---

const (
	// AttrMemoryTurnRole is the role of the turn being stored
	AttrMemoryTurnRole = "memory.turn.role"

	// AttrMemoryTurnParts is the number of parts in the turn being stored
	AttrMemoryTurnParts = "memory.turn.parts"

	// AttrMemoryTotalTurns is the total number of turns in memory
	AttrMemoryTotalTurns = "memory.total_turns"

	// AttrMemoryEvicted is the number of turns removed by the window policy
	AttrMemoryEvicted = "memory.evicted"
)

// --- Conversation Attributes ---

const (
	// AttrSessionID identifies the widget session
	AttrSessionID = "chat.session_id"

	// AttrAttachmentsCount is the number of attachments on a submission
	AttrAttachmentsCount = "chat.attachments_count"

	// AttrAttachmentsMerged reports whether attachments landed on a user turn
	AttrAttachmentsMerged = "chat.attachments_merged"

	// AttrLinkMode is the display mode used for the reply
	AttrLinkMode = "chat.link_mode"
)

// --- General Attributes ---

const (
	// AttrError is the error message
	AttrError = "error"

	// AttrDuration is the operation duration
	AttrDuration = "duration"

	// AttrStatus is the operation status
	AttrStatus = "status"

	// AttrStatusDescription is the status description
	AttrStatusDescription = "status_description"
)

// --- Span Names ---

const (
	// SpanClientSubmit is the span name for one widget submission
	SpanClientSubmit = "client.submit"

	// SpanLLMRequest is the span name for completion provider requests
	SpanLLMRequest = "llm.request"

	// SpanMemoryOperation is the span name for memory operations
	SpanMemoryOperation = "memory.operation"
)

// --- Event Names ---

const (
	EventLLMRequestStart = "llm.request.start"
	EventLLMRequestEnd   = "llm.request.end"
	EventTokensReceived  = "llm.tokens.received"

	EventMemoryAppend = "memory.append"
	EventMemoryUpdate = "memory.update"
	EventMemoryTrim   = "memory.trim"
	EventMemoryClear  = "memory.clear"

	EventAttachmentsMerged = "chat.attachments.merged"
	EventReplyFormatted    = "chat.reply.formatted"
)

// --- Metric Names ---

const (
	// MetricClientSubmitCount is the counter for widget submissions
	MetricClientSubmitCount = "chatwidget.client.submit.count"

	// MetricClientSubmitDuration is the histogram for submission duration in seconds
	MetricClientSubmitDuration = "chatwidget.client.submit.duration"

	// MetricClientProviderErrors is the counter for failed provider calls
	MetricClientProviderErrors = "chatwidget.client.provider.errors"

	// MetricClientTokensTotal is the counter for total tokens
	MetricClientTokensTotal = "chatwidget.client.tokens.total"
)
