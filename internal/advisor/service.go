package advisor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"antirisk/internal/types"
)

// Fixed notices substituted for capability failures. These travel in-band so
// the conversation and report logs always hold renderable text.
const (
	// StreamFailureNotice is emitted as the final fragment when the
	// advisory stream dies mid-flight.
	StreamFailureNotice = "⚠️ **Operational Link Failure.** Strategy engine is experiencing high latency. Please retry."
	// AuditFailureText replaces the analysis of a report whose audit call
	// failed. The report itself is still recorded.
	AuditFailureText = "Error: Audit engine timeout."
	// InsightsFailureText replaces the insights blob when synthesis fails.
	InsightsFailureText = "Error: Strategic engine timeout."
	// RetrievalFailureNotice replaces a grounded best-practices answer.
	RetrievalFailureNotice = "⚠️ **Intelligence Retrieval Failure.** Unable to ground this query in real-time global data. Please check your connectivity or try a broader topic."
)

// kbExcerptLimit caps how much of each knowledge document is inlined into
// the advisory prompt.
const kbExcerptLimit = 500

// Service exposes the application capabilities on top of the REST client.
type Service struct {
	client *Client
	logger *zap.Logger
}

// NewService wraps a client.
func NewService(client *Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, logger: logger}
}

// buildAdvisorPrompt assembles the knowledge excerpts, the trailing
// conversation window, and the new message into a single prompt.
func buildAdvisorPrompt(window []types.ChatMessage, message string, docs []types.KnowledgeDocument) string {
	var b strings.Builder

	if len(docs) > 0 {
		b.WriteString("KB:\n")
		for _, doc := range docs {
			excerpt := doc.Content
			if runes := []rune(excerpt); len(runes) > kbExcerptLimit {
				excerpt = string(runes[:kbExcerptLimit])
			}
			fmt.Fprintf(&b, "[%s]: %s\n", doc.Title, excerpt)
		}
	}

	b.WriteString("CONTEXT:\n")
	for _, m := range window {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Text)
	}
	fmt.Fprintf(&b, "CEO: %s", message)
	return b.String()
}

// AdvisorStream streams the advisory reply as incremental fragments. The
// channel always closes; on failure the final fragment is the fixed link
// failure notice so the caller never has to branch on an error path.
func (s *Service) AdvisorStream(ctx context.Context, window []types.ChatMessage, message string, docs []types.KnowledgeDocument) <-chan string {
	out := make(chan string, 100)

	prompt := buildAdvisorPrompt(window, message, docs)
	content, errs := s.client.stream(ctx, prompt, genOptions{
		system:      advisorSystemPrompt,
		temperature: 0.4,
		maxTokens:   1000,
	})

	go func() {
		defer close(out)
		for fragment := range content {
			out <- fragment
		}
		if err := <-errs; err != nil {
			s.logger.Warn("advisor stream failed", zap.Error(err))
			out <- StreamFailureNotice
		}
	}()

	return out
}

// AnalyzeReport audits a single incident report. ok=false marks a failed
// audit whose text is the fixed timeout notice; the caller records the
// report either way.
func (s *Service) AnalyzeReport(ctx context.Context, reportText string) (analysis string, ok bool) {
	prompt := "Perform a professional security audit on the following report. " +
		"Identify risks, standard violations, and tactical gaps. Use bullet points for clarity:\n\n" + reportText

	text, _, err := s.client.generate(ctx, prompt, genOptions{
		system:      auditSystemPrompt,
		temperature: 0.2,
	})
	if err != nil {
		s.logger.Warn("report audit failed", zap.Error(err))
		return AuditFailureText, false
	}
	if text == "" {
		return "Analysis failed.", false
	}
	return text, true
}

// SynthesizeInsights produces the cross-report briefing. ok=false marks a
// failed synthesis whose text is the fixed timeout notice.
func (s *Service) SynthesizeInsights(ctx context.Context, reports []types.StoredReport) (insights string, ok bool) {
	var summaries []string
	for i, r := range reports {
		summaries = append(summaries, fmt.Sprintf("REPORT %d (%s): %s", i+1, r.DateStr, r.Content))
	}
	prompt := "Analyze these operational logs for strategic patterns, recurring vulnerabilities, " +
		"and high-risk trends. Provide a \"CEO Briefing\" format:\n\n" + strings.Join(summaries, "\n---\n")

	text, _, err := s.client.generate(ctx, prompt, genOptions{
		system:      insightsSystemPrompt,
		temperature: 0.3,
	})
	if err != nil {
		s.logger.Warn("insight synthesis failed", zap.Error(err))
		return InsightsFailureText, false
	}
	if text == "" {
		return "Insight synthesis failed.", false
	}
	return text, true
}

// GenerateBriefing produces an intelligence briefing body. topic may be
// empty, in which case the model picks a high-impact standard of its own.
func (s *Service) GenerateBriefing(ctx context.Context, topic string) (string, error) {
	prompt := topic
	if prompt == "" {
		prompt = "Generate a high-impact weekly security standard tip for a CEO to share with his team."
	}
	text, _, err := s.client.generate(ctx, prompt, genOptions{
		system:      briefingSystemPrompt,
		temperature: 0.6,
	})
	if err != nil {
		return "", err
	}
	if text == "" {
		return "Generation failed.", nil
	}
	return text, nil
}

// FetchBestPractices answers a research query grounded in live web search
// and returns the cited sources. Failures degrade to the fixed retrieval
// notice with no sources.
func (s *Service) FetchBestPractices(ctx context.Context, topic string) (string, []types.Source) {
	prompt := fmt.Sprintf("Find and synthesize the latest global security best practices, "+
		"regulatory updates, and tactical standards regarding: %s. "+
		"Ensure the answer is grounded in current web search data.", topic)

	text, sources, err := s.client.generate(ctx, prompt, genOptions{
		temperature:  0.2,
		googleSearch: true,
	})
	if err != nil {
		s.logger.Warn("grounded retrieval failed", zap.Error(err))
		return RetrievalFailureNotice, nil
	}
	if text == "" {
		return "No intelligence could be synthesized for this topic.", sources
	}
	return text, sources
}

// GenerateTrainingModule builds a role-targeted training module.
func (s *Service) GenerateTrainingModule(ctx context.Context, role, topic string) (string, error) {
	prompt := fmt.Sprintf("Target Audience: %s\nTraining Topic: %s", role, topic)
	text, _, err := s.client.generate(ctx, prompt, genOptions{
		system:      trainerSystemPrompt,
		temperature: 0.5,
	})
	if err != nil {
		return "", err
	}
	if text == "" {
		return "Training generation failed.", nil
	}
	return text, nil
}
