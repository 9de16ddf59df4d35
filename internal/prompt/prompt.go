// Package prompt builds the system and evaluation prompts for the persona
// agent and its quality gate.
package prompt

import (
	"fmt"
	"strings"

	"standin/internal/llm"
	"standin/internal/profile"
)

// Builder constructs prompts for a fixed persona.
type Builder struct {
	Profile profile.Profile
}

func NewBuilder(p profile.Profile) *Builder {
	return &Builder{Profile: p}
}

// System returns the answering system prompt: stay in persona, stay within
// the career domain, never fabricate, and use the recording tools.
func (b *Builder) System() string {
	name := b.Profile.Name

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are acting as %s. You are answering questions on %s's website, "+
		"particularly questions related to %s's career, background, skills and experience. "+
		"Your responsibility is to represent %s for interactions on the website as faithfully as possible. "+
		"You are given a summary of %s's background profile which you can use to answer questions. "+
		"Be professional and engaging, as if talking to a potential client or future employer who came across the website. "+
		"Never invent facts that are not supported by the profile below. "+
		"If you don't know the answer to any question, use your record_unknown_question tool to record the question that you couldn't answer, "+
		"even if it's about something trivial or unrelated to career. "+
		"If the user is engaging in discussion, try to steer them towards getting in touch via email; "+
		"ask for their email and record it using your record_user_details tool. ",
		name, name, name, name, name)

	fmt.Fprintf(&sb, "\n\n%s\n\n", b.Profile.Biography)
	fmt.Fprintf(&sb, "With this context, please chat with the user, always staying in character as %s.", name)

	return sb.String()
}

// EvaluatorSystem returns the critic system prompt: judge the latest reply
// against persona and domain rules, with the same profile context.
func (b *Builder) EvaluatorSystem() string {
	name := b.Profile.Name

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an evaluator that decides whether a response to a question is acceptable. "+
		"You are provided with a conversation between a User and an Agent. "+
		"Your task is to decide whether the Agent's latest response is acceptable quality. "+
		"The Agent is playing the role of %s and is representing %s on their website. "+
		"The Agent has been instructed to be professional and engaging, as if talking to a potential client "+
		"or future employer who came across the website. "+
		"The Agent must stay in character, must not answer random and disconnected questions, "+
		"should redirect those to questions about %s, and must not state facts unsupported by the profile. "+
		"The Agent should also not be gratuitously evasive about questions the profile does answer. "+
		"The Agent has been provided with context on %s in the form of their profile summary. Here's the information:",
		name, name, name, name)

	fmt.Fprintf(&sb, "\n\n%s\n\n", b.Profile.Biography)
	sb.WriteString("With this context, please evaluate the latest response, replying with whether the response is acceptable and your feedback.")

	return sb.String()
}

// EvaluatorUser serializes the conversation under judgement: prior turns,
// the latest user message, and the candidate reply.
func (b *Builder) EvaluatorUser(reply, message string, history []llm.Message) string {
	var sb strings.Builder
	sb.WriteString("Here's the conversation between the User and the Agent:\n\n")
	sb.WriteString(FormatHistory(history))
	fmt.Fprintf(&sb, "\n\nHere's the latest message from the User:\n\n%s\n\n", message)
	fmt.Fprintf(&sb, "Here's the latest response from the Agent:\n\n%s\n\n", reply)
	sb.WriteString("Please evaluate the response, replying with whether it is acceptable as a bool and your feedback as a string.")

	return sb.String()
}

// RerunSystem returns the answering system prompt extended with the rejected
// draft and the evaluator's feedback, directing the model to try again.
func (b *Builder) RerunSystem(draft, feedback string) string {
	var sb strings.Builder
	sb.WriteString(b.System())
	sb.WriteString("\n\n## Previous answer rejected\nYou just tried to reply, but the quality control rejected your reply.\n")
	fmt.Fprintf(&sb, "## Your attempted answer:\n%s\n\n", draft)
	fmt.Fprintf(&sb, "## Reason for rejection:\n%s\n\n", feedback)
	sb.WriteString("Please reply again, addressing the rejection feedback while staying in persona and within the same constraints.")

	return sb.String()
}

// FormatHistory renders prior turns as "role: content" lines. Tool traffic
// never appears in caller-supplied history, so only the text roles matter.
func FormatHistory(history []llm.Message) string {
	if len(history) == 0 {
		return "(no prior turns)"
	}

	lines := make([]string, 0, len(history))
	for _, m := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return strings.Join(lines, "\n")
}
