package generator

import (
	"fmt"
	"strings"

	"github.com/hyperjump/ruiji/internal/models"
)

// SystemPrompt sets the assistant's role and tone.
const SystemPrompt = `You are a supportive mental health counseling assistant. Your role is to provide helpful,
compassionate, and practical responses to people seeking guidance on everyday mental health challenges.

IMPORTANT: You should ALWAYS provide a supportive response based on the examples given. Do not refuse to help or
suggest the user seek professional help unless the query involves serious harm, self-harm, or illegal activities.

For most everyday mental health challenges like stress, time management, mild anxiety, or feeling overwhelmed,
you should offer practical advice and empathetic support similar to the example responses.

Your goal is to be helpful and reflect the same tone, style and approach shown in the examples.`

// FormatExamples renders retrieved examples as numbered challenge/response blocks.
func FormatExamples(examples []models.SimilarExample) string {
	var b strings.Builder
	for i, ex := range examples {
		fmt.Fprintf(&b, "Example %d:\n", i+1)
		fmt.Fprintf(&b, "User Challenge: %s\n", ex.Context)
		fmt.Fprintf(&b, "Counseling Response: %s\n\n", ex.Response)
	}
	return b.String()
}

// UserPrompt builds the user message conditioning the model on examples.
func UserPrompt(query string, examples []models.SimilarExample) string {
	return "Here are some specific examples of helpful counseling responses for situations \n" +
		"similar to the current user query. Please model your response style, tone, and helpfulness after these examples:\n\n" +
		FormatExamples(examples) +
		"\n\nBased on the examples above, please provide a compassionate and helpful counseling response to the following mental health challenge:\n\n" +
		"User Challenge: " + query + "\n\n" +
		"Counseling Response:"
}
