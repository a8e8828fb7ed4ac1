package orchestrator

import "github.com/appgenhq/appgen/internal/provider"

// Dialog is the running per-request message history passed to every
// model call in the tool loop: a system message (the formatted project
// snapshot prepended to the branch's system prompt), the user's
// message, and then alternating assistant/tool turns as the loop
// dispatches tool calls.
type Dialog struct {
	Messages []provider.ChatMessage
}

// NewDialog starts a Dialog with a system message.
func NewDialog(systemPrompt string) *Dialog {
	return &Dialog{Messages: []provider.ChatMessage{{Role: "system", Content: systemPrompt}}}
}

func (d *Dialog) appendUser(content string) {
	d.Messages = append(d.Messages, provider.ChatMessage{Role: "user", Content: content})
}

func (d *Dialog) appendAssistant(msg provider.ChatMessage) {
	d.Messages = append(d.Messages, msg)
}

func (d *Dialog) appendTool(toolCallID, name, content string) {
	d.Messages = append(d.Messages, provider.ChatMessage{
		Role:       "tool",
		Content:    content,
		ToolCallID: toolCallID,
		Name:       name,
	})
}
