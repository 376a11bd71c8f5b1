package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/2beens/fitcoach/internal/telemetry/metrics"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

type Topic string

const (
	TopicExercise Topic = "exercise"
	TopicDiet     Topic = "diet"
)

// ParseTopic maps the user's choice to a topic; anything but exercise is a diet question.
func ParseTopic(choice string) Topic {
	if strings.EqualFold(strings.TrimSpace(choice), string(TopicExercise)) {
		return TopicExercise
	}
	return TopicDiet
}

//go:generate mockgen -source=$GOFILE -destination=qa_mocks_test.go -package=retrieval_test

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Searcher interface {
	Search(ctx context.Context, query string, k int, threshold float64) ([]Match, error)
}

type Answer struct {
	Text    string  `json:"response"`
	Sources []Match `json:"sources"`
}

// QA answers questions by stuffing the retrieved documents into a single generation prompt.
type QA struct {
	searchers map[Topic]Searcher
	generator Generator
	topK      int
	threshold float64
	metrics   *metrics.Manager
}

type QAParams struct {
	Searchers map[Topic]Searcher
	Generator Generator
	TopK      int
	Threshold float64
	Metrics   *metrics.Manager
}

func NewQA(params QAParams) *QA {
	return &QA{
		searchers: params.Searchers,
		generator: params.Generator,
		topK:      params.TopK,
		threshold: params.Threshold,
		metrics:   params.Metrics,
	}
}

func (q *QA) Ask(ctx context.Context, topic Topic, question string) (_ *Answer, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "retrieval.qa.ask")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("topic", string(topic)))

	searcher, ok := q.searchers[topic]
	if !ok {
		return nil, fmt.Errorf("no index for topic [%s]", topic)
	}
	q.metrics.CounterRetrievalQueries.WithLabelValues(string(topic)).Inc()

	matches, err := searcher.Search(ctx, question, q.topK, q.threshold)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", topic, err)
	}
	span.SetAttributes(attribute.Int("matches", len(matches)))

	text, err := q.generator.Generate(ctx, StuffPrompt(matches, question))
	if err != nil {
		return nil, fmt.Errorf("generate %s answer: %w", topic, err)
	}

	return &Answer{
		Text:    text,
		Sources: matches,
	}, nil
}

// StuffPrompt places all matched documents as context in front of the question.
func StuffPrompt(matches []Match, question string) string {
	var sb strings.Builder
	sb.WriteString("Use the following pieces of context to answer the question at the end. ")
	sb.WriteString("If you don't know the answer, just say that you don't know, don't try to make up an answer.\n\n")
	for i, m := range matches {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(m.Document.Content)
	}
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(strings.TrimSpace(question))
	sb.WriteString("\nHelpful Answer:")
	return sb.String()
}
