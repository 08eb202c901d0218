package diagnosis

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidAnswer is returned (wrapped in *InvalidAnswerError) when an answer
// falls outside its question's enumerated set.
var ErrInvalidAnswer = errors.New("invalid answer")

// InvalidAnswerError identifies the offending question and value.
type InvalidAnswerError struct {
	QuestionID string
	Value      string
}

func (e *InvalidAnswerError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s is unanswered", ErrInvalidAnswer, e.QuestionID)
	}
	return fmt.Sprintf("%s: %s does not accept %q", ErrInvalidAnswer, e.QuestionID, e.Value)
}

func (e *InvalidAnswerError) Unwrap() error { return ErrInvalidAnswer }

// neutralScore is what permissive mode substitutes for an unrecognised answer.
const neutralScore = 3

// Normalizer maps raw answers onto the 1-5 score scale.
//
// By default an unrecognised answer fails with ErrInvalidAnswer. Permissive
// mode instead scores it as the neutral 3, which is what the first version of
// the questionnaire did; it exists for callers that must accept malformed
// input and should be switched on deliberately.
type Normalizer struct {
	Permissive bool
}

// Score normalizes one answer for question q.
func (n Normalizer) Score(q Question, answer string) (int, error) {
	var (
		score int
		ok    bool
	)
	switch q.Scale {
	case FivePoint:
		score, ok = scoreFivePoint(answer)
	default:
		score, ok = scoreThreeWay(answer, q.Inverted)
	}
	if ok {
		return score, nil
	}
	if n.Permissive {
		return neutralScore, nil
	}
	return 0, &InvalidAnswerError{QuestionID: q.ID, Value: answer}
}

// ScoreThreeWay maps yes/partial/no to 5/3/1, or 1/3/5 when inverted.
func ScoreThreeWay(answer string, inverted bool) (int, error) {
	score, ok := scoreThreeWay(answer, inverted)
	if !ok {
		return 0, &InvalidAnswerError{Value: answer}
	}
	return score, nil
}

// ScoreFivePoint returns the ordinal value of a "1".."5" selection.
func ScoreFivePoint(answer string) (int, error) {
	score, ok := scoreFivePoint(answer)
	if !ok {
		return 0, &InvalidAnswerError{Value: answer}
	}
	return score, nil
}

func scoreThreeWay(answer string, inverted bool) (int, bool) {
	var score int
	switch answer {
	case Yes:
		score = 5
	case Partial:
		score = 3
	case No:
		score = 1
	default:
		return 0, false
	}
	if inverted {
		score = 6 - score
	}
	return score, true
}

func scoreFivePoint(answer string) (int, bool) {
	// Only the bare digits are accepted; "+3" or "03" are not options.
	if len(answer) != 1 {
		return 0, false
	}
	v, err := strconv.Atoi(answer)
	if err != nil || v < 1 || v > 5 {
		return 0, false
	}
	return v, true
}
