package summarize

import (
	"context"
	"strings"
)

// ExtractiveName names the fallback strategy.
const ExtractiveName = "extractive"

const extractiveSentences = 5

// Extractive keeps the opening sentences of the transcript verbatim.
type Extractive struct{}

func (Extractive) Name() string { return ExtractiveName }

// Summarize joins the first five "."-separated sentences and appends an
// ellipsis.
func (Extractive) Summarize(_ context.Context, transcript string) (string, error) {
	sentences := strings.Split(transcript, ".")
	if len(sentences) > extractiveSentences {
		sentences = sentences[:extractiveSentences]
	}
	return strings.Join(sentences, ". ") + "...", nil
}
