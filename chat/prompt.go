package chat

import (
	"strings"

	"github.com/Rahil-15/MediBot2.0/llm"
	"github.com/Rahil-15/MediBot2.0/vectorstore"
)

const contextPlaceholder = "{context}"

const defaultSystemPrompt = "You are a medical assistant for question-answering tasks. " +
	"Use the following pieces of retrieved context to answer the question. " +
	"If you don't know the answer, say that you don't know. " +
	"Use three sentences maximum and keep the answer concise." +
	"\n\n" + contextPlaceholder

// PromptTemplate renders a system message with the retrieved documents
// stuffed into it, followed by the user's question.
type PromptTemplate struct {
	System string
}

func NewPromptTemplate(system string) PromptTemplate {
	if strings.TrimSpace(system) == "" {
		system = defaultSystemPrompt
	}
	if !strings.Contains(system, contextPlaceholder) {
		system += "\n\n" + contextPlaceholder
	}
	return PromptTemplate{System: system}
}

func (p PromptTemplate) Messages(question string, docs []vectorstore.Match) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: strings.Replace(p.System, contextPlaceholder, stuffDocuments(docs), 1)},
		{Role: llm.RoleUser, Content: question},
	}
}

func stuffDocuments(docs []vectorstore.Match) string {
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		text := strings.TrimSpace(doc.Chunk.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n")
}
