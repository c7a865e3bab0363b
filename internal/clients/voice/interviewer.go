package voice

import (
	"context"
	"fmt"
	"strings"

	"github.com/zecpath/evaluation-engine/internal/apperrors"
	"github.com/zecpath/evaluation-engine/internal/entities"
)

type textGenerator interface {
	GenerateResponse(ctx context.Context, prompt string) (string, error)
}

// LLMInterviewer obtains answers from a language model standing in for the
// candidate on the call. Used when no live voice channel is attached.
type LLMInterviewer struct {
	generator textGenerator
}

func NewLLMInterviewer(generator textGenerator) *LLMInterviewer {
	return &LLMInterviewer{generator: generator}
}

func (i *LLMInterviewer) Answer(ctx context.Context, sessionID, question, category string) (string, error) {

	prompt := fmt.Sprintf(
		"You are a job candidate in a phone screening interview (session %s). "+
			"Answer the following %s question in two to four natural sentences, "+
			"as plain spoken text with no formatting.\n\nQuestion: %s",
		sessionID, category, question)

	answer, err := i.generator.GenerateResponse(ctx, prompt)
	if err != nil {
		return "", apperrors.NewExternalService("llm", err)
	}
	return strings.TrimSpace(answer), nil
}

// SimulatedInterviewer returns fixed per-category answers. Deterministic,
// needs no network, used in tests and non-interactive deployments.
type SimulatedInterviewer struct{}

func NewSimulatedInterviewer() *SimulatedInterviewer {
	return &SimulatedInterviewer{}
}

var simulatedAnswers = map[string]string{
	entities.CategoryIntroduction: "Yes, of course. I have a background in software development with a " +
		"degree in computer science, and over the years I have built up skills across the full " +
		"development cycle. My career so far has covered both product and consulting work, and my " +
		"education gave me a solid analytical foundation.",
	entities.CategoryExperience: "I have worked for about 5 years in development, mostly as part of a " +
		"small team. In my last role I led a project where I took responsibility for design, " +
		"implementation and testing, and we delivered it on time.",
	entities.CategorySkills: "I am proficient in several core technologies relevant to this role and " +
		"have expert-level knowledge of testing and deployment practices. I am also familiar with " +
		"modern analysis and design approaches.",
	entities.CategoryAvailability: "Yes, I am available to start on short notice. I could join within " +
		"2 weeks after accepting an offer, or immediately if needed.",
	entities.CategorySalary: "My expectation is a fair market range for the role. The overall " +
		"compensation package matters more to me than the base figure, and I am negotiable on the details.",
}

func (i *SimulatedInterviewer) Answer(_ context.Context, _, _, category string) (string, error) {

	if answer, ok := simulatedAnswers[category]; ok {
		return answer, nil
	}
	return "Yes, I am happy to talk about that. I have relevant project experience and would be " +
		"glad to go into more detail.", nil
}
