package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/T-Lind/health-frontend/internal/gateway"
)

var classifyToolDef = mcp.NewTool("classification_classify",
	mcp.WithDescription("Classify a patient message for suicide risk and add it to the classification history. "+
		"Returns the record's index, its label (Supportive, Indicator, Ideation, Behavior, Attempt), "+
		"a severity, and caregiver advice."),
	mcp.WithString("text", mcp.Required(), mcp.Description("The patient message to classify")),
)

var listToolDef = mcp.NewTool("classification_list",
	mcp.WithDescription("List the classification history, oldest first. Indexes are positions in this list."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var deleteToolDef = mcp.NewTool("classification_delete",
	mcp.WithDescription("Delete the classification at index. Later records shift down by one. "+
		"A pending attachment taken from this record is dropped."),
	mcp.WithNumber("index", mcp.Required(), mcp.Min(0), mcp.Description("Position in classification_list")),
	mcp.WithDestructiveHintAnnotation(true),
)

var clearRecordsToolDef = mcp.NewTool("classification_clear",
	mcp.WithDescription("Delete every classification, including the stored copy. "+
		"A pending attachment taken from any of them is dropped. Requires confirm=true."),
	mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true")),
	mcp.WithDestructiveHintAnnotation(true),
)

var attachToolDef = mcp.NewTool("attachment_attach",
	mcp.WithDescription("Attach a classified message to the next chat_send so the assistant sees it as context. "+
		"Replaces any pending attachment. The attachment is used by exactly one message."),
	mcp.WithNumber("index", mcp.Min(0), mcp.Description("Position in classification_list")),
	mcp.WithBoolean("latest", mcp.Description("Attach the most recent classification instead of an index")),
)

var cancelToolDef = mcp.NewTool("attachment_cancel",
	mcp.WithDescription("Drop the pending attachment, if any."),
)

var statusToolDef = mcp.NewTool("attachment_status",
	mcp.WithDescription("Show the attachment the next chat_send will carry, without using it up."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var sendToolDef = mcp.NewTool("chat_send",
	mcp.WithDescription("Send a message to the clinical assistant. Any pending attachment goes with it and is used up, "+
		"even if the send fails."),
	mcp.WithString("message", mcp.Required(), mcp.Description("Message text")),
)

var historyToolDef = mcp.NewTool("chat_history",
	mcp.WithDescription("Return the chat transcript held by this session, oldest first."),
	mcp.WithBoolean("html", mcp.Description("Include an HTML rendering of each turn (assistant markdown is rendered)")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var refreshToolDef = mcp.NewTool("chat_refresh",
	mcp.WithDescription("Reload the chat transcript from the server, replacing the local copy."),
)

var clearToolDef = mcp.NewTool("chat_clear",
	mcp.WithDescription("Clear the chat transcript on the server and locally."),
	mcp.WithDestructiveHintAnnotation(true),
)

var searchToolDef = mcp.NewTool("interactions_search",
	mcp.WithDescription("Find past patient interactions similar to a query, most similar first."),
	mcp.WithString("query", mcp.Required(), mcp.Description("Free-text query")),
	mcp.WithNumber("num_results",
		mcp.Min(gateway.MinSearchResults), mcp.Max(gateway.MaxSearchResults),
		mcp.Description("How many results to return (clamped to 1-10; default from config)")),
	mcp.WithReadOnlyHintAnnotation(true),
)
