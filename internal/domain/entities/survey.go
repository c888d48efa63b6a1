package entities

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SurveyStatus string

const (
	SurveyDraft     SurveyStatus = "draft"
	SurveyPublished SurveyStatus = "published"
	SurveyClosed    SurveyStatus = "closed"
)

type QuestionKind string

const (
	QuestionSingle   QuestionKind = "single"
	QuestionMultiple QuestionKind = "multiple"
	QuestionText     QuestionKind = "text"
	QuestionRating   QuestionKind = "rating"
)

const (
	minRating        = 1
	maxRating        = 5
	maxTextAnswerLen = 2000
)

var (
	ErrSurveyNotDraft     = errors.New("questions can only be changed while the survey is a draft")
	ErrSurveyNotPublished = errors.New("survey is not accepting responses")
)

type Survey struct {
	Id          uuid.UUID
	Title       string
	Description string
	Status      SurveyStatus
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewSurvey(createdBy uuid.UUID, title, description string) *Survey {
	now := time.Now()
	return &Survey{
		Id:          uuid.New(),
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Status:      SurveyDraft,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *Survey) Validate() error {
	if s.Title == "" {
		return errors.New("title must not be empty")
	}
	if len(s.Title) > 200 {
		return errors.New("title must be at most 200 characters")
	}
	return nil
}

func ParseSurveyStatus(v string) (SurveyStatus, error) {
	switch st := SurveyStatus(strings.ToLower(strings.TrimSpace(v))); st {
	case SurveyDraft, SurveyPublished, SurveyClosed:
		return st, nil
	}
	return "", fmt.Errorf("unknown survey status %q", v)
}

// TransitionTo moves the survey along draft -> published -> closed.
// Setting the current status again is a no-op.
func (s *Survey) TransitionTo(next SurveyStatus) error {
	if s.Status == next {
		return nil
	}
	allowed := false
	switch s.Status {
	case SurveyDraft:
		allowed = next == SurveyPublished || next == SurveyClosed
	case SurveyPublished:
		allowed = next == SurveyClosed
	}
	if !allowed {
		return fmt.Errorf("cannot move survey from %s to %s", s.Status, next)
	}
	s.Status = next
	s.UpdatedAt = time.Now()
	return nil
}

func (s *Survey) CanEdit(userId uuid.UUID, isAdmin bool) bool {
	return isAdmin || s.CreatedBy == userId
}

type SurveyQuestion struct {
	Id       uuid.UUID
	SurveyId uuid.UUID
	OrderNum int
	Kind     QuestionKind
	Title    string
	Options  []string
	Required bool
}

func NewSurveyQuestion(surveyId uuid.UUID, kind QuestionKind, title string, options []string, required bool) *SurveyQuestion {
	return &SurveyQuestion{
		Id:       uuid.New(),
		SurveyId: surveyId,
		Kind:     kind,
		Title:    strings.TrimSpace(title),
		Options:  trimOptions(options),
		Required: required,
	}
}

func (q *SurveyQuestion) Validate() error {
	if q.Title == "" {
		return errors.New("question title must not be empty")
	}
	switch q.Kind {
	case QuestionSingle, QuestionMultiple:
		if len(q.Options) < 2 {
			return errors.New("choice questions need at least two options")
		}
		seen := make(map[string]struct{}, len(q.Options))
		for _, o := range q.Options {
			if _, dup := seen[o]; dup {
				return fmt.Errorf("duplicate option %q", o)
			}
			seen[o] = struct{}{}
		}
	case QuestionText, QuestionRating:
		if len(q.Options) > 0 {
			return fmt.Errorf("%s questions do not take options", q.Kind)
		}
	default:
		return fmt.Errorf("unknown question kind %q", q.Kind)
	}
	return nil
}

// ValidateAnswer checks the submitted values against the question definition.
func (q *SurveyQuestion) ValidateAnswer(values []string) error {
	if len(values) == 0 {
		if q.Required {
			return fmt.Errorf("question %d is required", q.OrderNum)
		}
		return nil
	}
	switch q.Kind {
	case QuestionSingle:
		if len(values) != 1 {
			return fmt.Errorf("question %d takes exactly one value", q.OrderNum)
		}
		if !slices.Contains(q.Options, values[0]) {
			return fmt.Errorf("question %d: %q is not an option", q.OrderNum, values[0])
		}
	case QuestionMultiple:
		seen := make(map[string]struct{}, len(values))
		for _, v := range values {
			if !slices.Contains(q.Options, v) {
				return fmt.Errorf("question %d: %q is not an option", q.OrderNum, v)
			}
			if _, dup := seen[v]; dup {
				return fmt.Errorf("question %d: %q selected twice", q.OrderNum, v)
			}
			seen[v] = struct{}{}
		}
	case QuestionRating:
		if len(values) != 1 {
			return fmt.Errorf("question %d takes exactly one value", q.OrderNum)
		}
		n, err := strconv.Atoi(values[0])
		if err != nil || n < minRating || n > maxRating {
			return fmt.Errorf("question %d: rating must be an integer from 1 to 5", q.OrderNum)
		}
	case QuestionText:
		if len(values) != 1 {
			return fmt.Errorf("question %d takes exactly one value", q.OrderNum)
		}
		if len(values[0]) > maxTextAnswerLen {
			return fmt.Errorf("question %d: answer is too long", q.OrderNum)
		}
	}
	return nil
}

func trimOptions(options []string) []string {
	out := make([]string, 0, len(options))
	for _, o := range options {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// SortQuestions orders questions by OrderNum in place.
func SortQuestions(qs []*SurveyQuestion) {
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].OrderNum < qs[j].OrderNum })
}

// Renumber assigns OrderNum 1..n following slice order.
func Renumber(qs []*SurveyQuestion) {
	for i, q := range qs {
		q.OrderNum = i + 1
	}
}

// InsertQuestion places q at position pos (1-based) and renumbers. A pos
// outside 1..n+1 appends.
func InsertQuestion(qs []*SurveyQuestion, q *SurveyQuestion, pos int) []*SurveyQuestion {
	SortQuestions(qs)
	if pos < 1 || pos > len(qs)+1 {
		pos = len(qs) + 1
	}
	out := make([]*SurveyQuestion, 0, len(qs)+1)
	out = append(out, qs[:pos-1]...)
	out = append(out, q)
	out = append(out, qs[pos-1:]...)
	Renumber(out)
	return out
}

// MoveQuestion moves the question with id to position pos (clamped to 1..n)
// and renumbers.
func MoveQuestion(qs []*SurveyQuestion, id uuid.UUID, pos int) ([]*SurveyQuestion, error) {
	SortQuestions(qs)
	idx := slices.IndexFunc(qs, func(q *SurveyQuestion) bool { return q.Id == id })
	if idx < 0 {
		return nil, errors.New("question not found")
	}
	moving := qs[idx]
	rest := slices.Delete(slices.Clone(qs), idx, idx+1)
	if pos < 1 {
		pos = 1
	}
	if pos > len(qs) {
		pos = len(qs)
	}
	out := make([]*SurveyQuestion, 0, len(qs))
	out = append(out, rest[:pos-1]...)
	out = append(out, moving)
	out = append(out, rest[pos-1:]...)
	Renumber(out)
	return out, nil
}

// RemoveQuestion drops the question with id and compacts the numbering.
func RemoveQuestion(qs []*SurveyQuestion, id uuid.UUID) ([]*SurveyQuestion, error) {
	SortQuestions(qs)
	idx := slices.IndexFunc(qs, func(q *SurveyQuestion) bool { return q.Id == id })
	if idx < 0 {
		return nil, errors.New("question not found")
	}
	out := slices.Delete(slices.Clone(qs), idx, idx+1)
	Renumber(out)
	return out, nil
}

type Answer struct {
	QuestionId uuid.UUID `json:"questionId"`
	Values     []string  `json:"values"`
}

type SurveyResponse struct {
	Id        uuid.UUID
	SurveyId  uuid.UUID
	UserId    uuid.UUID
	Answers   []Answer
	CreatedAt time.Time
}

func NewSurveyResponse(surveyId, userId uuid.UUID, answers []Answer) *SurveyResponse {
	return &SurveyResponse{
		Id:        uuid.New(),
		SurveyId:  surveyId,
		UserId:    userId,
		Answers:   answers,
		CreatedAt: time.Now(),
	}
}

// ValidateAgainst checks every answer against the survey's questions and that
// all required questions are answered.
func (r *SurveyResponse) ValidateAgainst(questions []*SurveyQuestion) error {
	byId := make(map[uuid.UUID]*SurveyQuestion, len(questions))
	for _, q := range questions {
		byId[q.Id] = q
	}
	given := make(map[uuid.UUID][]string, len(r.Answers))
	for _, a := range r.Answers {
		if _, ok := byId[a.QuestionId]; !ok {
			return fmt.Errorf("answer references unknown question %s", a.QuestionId)
		}
		if _, dup := given[a.QuestionId]; dup {
			return fmt.Errorf("question %s answered twice", a.QuestionId)
		}
		given[a.QuestionId] = a.Values
	}
	for _, q := range questions {
		if err := q.ValidateAnswer(given[q.Id]); err != nil {
			return err
		}
	}
	return nil
}
