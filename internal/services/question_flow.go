package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/zecpath/evaluation-engine/internal/entities"
)

var answerYearsPattern = regexp.MustCompile(`(\d+)\s*(?:years?|yrs?)`)

type questionFlowSource interface {
	GetFlowForJob(ctx context.Context, jobID int64) ([]entities.QuestionTemplate, error)
}

type flowStateStore interface {
	CreateState(ctx context.Context, state *entities.InterviewState) error
	UpdateState(ctx context.Context, state *entities.InterviewState) error
}

// QuestionEngine steps through a job's interview flow: it skips questions
// whose conditions fail, injects one-shot follow-ups, and signals completion
// once the index passes the end of the flow.
type QuestionEngine struct {
	questions questionFlowSource
	states    flowStateStore
}

func NewQuestionEngine(questions questionFlowSource, states flowStateStore) *QuestionEngine {
	return &QuestionEngine{questions: questions, states: states}
}

// NextQuestion is the engine's single read operation. Completion is signalled
// by done=true. A follow-up does not advance the main index; AdvanceState is
// the only mutation that does.
type NextQuestion struct {
	Text     string
	Category string
	FollowUp bool
	Done     bool
}

func (e *QuestionEngine) InitializeState(ctx context.Context, sessionID int64) (*entities.InterviewState, error) {
	state := &entities.InterviewState{SessionID: sessionID, CurrentQuestionIndex: 0}
	if err := state.SetAnswers(map[int]string{}); err != nil {
		return nil, err
	}
	if err := e.states.CreateState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (e *QuestionEngine) GetNextQuestion(ctx context.Context, state *entities.InterviewState,
	jobID int64, previousAnswer string) (NextQuestion, error) {

	answers, err := state.AnswersAsMap()
	if err != nil {
		return NextQuestion{}, err
	}

	if previousAnswer != "" {
		answers[state.CurrentQuestionIndex] = previousAnswer
		if err = state.SetAnswers(answers); err != nil {
			return NextQuestion{}, err
		}
		if err = e.states.UpdateState(ctx, state); err != nil {
			return NextQuestion{}, err
		}
	}

	flow, err := e.questions.GetFlowForJob(ctx, jobID)
	if err != nil {
		return NextQuestion{}, err
	}

	// Iterative skip loop, bounded by the flow length so a fully excluded
	// tail cannot cycle.
	for skips := 0; skips <= len(flow); skips++ {

		if state.CurrentQuestionIndex >= len(flow) {
			return NextQuestion{Done: true}, nil
		}

		template := flow[state.CurrentQuestionIndex]

		passes, err := e.checkCondition(template, answers)
		if err != nil {
			return NextQuestion{}, err
		}
		if !passes {
			state.CurrentQuestionIndex++
			if err = e.states.UpdateState(ctx, state); err != nil {
				return NextQuestion{}, err
			}
			// the answer belongs to the question before the skip; a question
			// reached through a skip never gets a follow-up from it
			previousAnswer = ""
			continue
		}

		// A follow-up fires at most once per main question and leaves the
		// index untouched.
		if !followUpServed(state, state.CurrentQuestionIndex) {
			if followUp := followUpFor(template, previousAnswer); followUp != "" {
				served := append(state.FollowUpsServedAsArray(), state.CurrentQuestionIndex)
				if err = state.SetFollowUpsServed(served); err != nil {
					return NextQuestion{}, err
				}
				if err = e.states.UpdateState(ctx, state); err != nil {
					return NextQuestion{}, err
				}
				return NextQuestion{Text: followUp, Category: template.Category, FollowUp: true}, nil
			}
		}

		if err = e.markCategoryCompleted(ctx, state, template.Category); err != nil {
			return NextQuestion{}, err
		}

		return NextQuestion{Text: template.QuestionText, Category: template.Category}, nil
	}

	return NextQuestion{Done: true}, nil
}

// AdvanceState moves the cursor to the next main question.
func (e *QuestionEngine) AdvanceState(ctx context.Context, state *entities.InterviewState) error {
	state.CurrentQuestionIndex++
	return e.states.UpdateState(ctx, state)
}

func (e *QuestionEngine) checkCondition(template entities.QuestionTemplate, answers map[int]string) (bool, error) {

	condition, err := template.ConditionDetail()
	if err != nil {
		return false, err
	}

	if condition.MinExperience != nil {
		if experienceFromAnswers(answers) < *condition.MinExperience {
			return false, nil
		}
	}

	if condition.RequiresSkill != "" {
		skill := strings.ToLower(condition.RequiresSkill)
		mentioned := false
		for _, answer := range answers {
			if strings.Contains(strings.ToLower(answer), skill) {
				mentioned = true
				break
			}
		}
		if !mentioned {
			return false, nil
		}
	}

	return true, nil
}

func (e *QuestionEngine) markCategoryCompleted(ctx context.Context, state *entities.InterviewState,
	category string) error {

	completed := state.CompletedCategoriesAsArray()
	for _, existing := range completed {
		if existing == category {
			return nil
		}
	}

	if err := state.SetCompletedCategories(append(completed, category)); err != nil {
		return err
	}
	return e.states.UpdateState(ctx, state)
}

func followUpServed(state *entities.InterviewState, index int) bool {
	for _, served := range state.FollowUpsServedAsArray() {
		if served == index {
			return true
		}
	}
	return false
}

func followUpFor(template entities.QuestionTemplate, answer string) string {
	if answer == "" {
		return ""
	}

	answerLower := strings.ToLower(answer)
	for _, keyword := range template.FollowUpKeywords() {
		if strings.Contains(answerLower, strings.ToLower(keyword)) {
			return fmt.Sprintf("You mentioned %s. Can you tell me more about your experience with it?", keyword)
		}
	}
	return ""
}

func experienceFromAnswers(answers map[int]string) int {
	for _, answer := range answers {
		match := answerYearsPattern.FindStringSubmatch(strings.ToLower(answer))
		if match != nil {
			years, err := strconv.Atoi(match[1])
			if err == nil {
				return years
			}
		}
	}
	return 0
}
