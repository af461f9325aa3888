package hangman

import (
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Session is one hangman game bound to a chat scope.
type Session struct {
	ID        string    `json:"id"`
	ScopeID   string    `json:"scope_id"`
	Word      string    `json:"word"`
	Lives     int       `json:"lives"`
	Correct   []string  `json:"correct"`
	Incorrect []string  `json:"incorrect"`
	StartedBy string    `json:"started_by,omitempty"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession validates and lowercases the word, then starts with InitialLives.
func NewSession(scopeID, word, startedBy string) (*Session, error) {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return nil, ErrInvalidWord
	}
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return nil, ErrInvalidWord
		}
	}
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		ScopeID:   scopeID,
		Word:      w,
		Lives:     InitialLives,
		Correct:   []string{},
		Incorrect: []string{},
		StartedBy: startedBy,
		StartedAt: now,
		UpdatedAt: now,
	}, nil
}

// ParseGuess accepts exactly one letter after trimming and returns it lowercased.
func ParseGuess(raw string) (rune, error) {
	s := strings.TrimSpace(raw)
	if utf8.RuneCountInString(s) != 1 {
		return 0, ErrInvalidGuess
	}
	r, _ := utf8.DecodeRuneInString(s)
	if !unicode.IsLetter(r) {
		return 0, ErrInvalidGuess
	}
	return unicode.ToLower(r), nil
}

// Guess applies one letter. Duplicates (correct or incorrect) leave the session untouched.
func (s *Session) Guess(letter rune) (Outcome, error) {
	if !unicode.IsLetter(letter) {
		return "", ErrInvalidGuess
	}
	if s.IsOver() {
		return "", ErrGameOver
	}
	l := string(unicode.ToLower(letter))
	if slices.Contains(s.Correct, l) || slices.Contains(s.Incorrect, l) {
		return OutcomeDuplicate, nil
	}
	s.UpdatedAt = time.Now()
	if strings.Contains(s.Word, l) {
		s.Correct = append(s.Correct, l)
		return OutcomeCorrect, nil
	}
	s.Incorrect = append(s.Incorrect, l)
	s.Lives--
	return OutcomeIncorrect, nil
}

// Masked renders the word with "_" for hidden letters, space separated ("p _ t h _ n").
func (s *Session) Masked() string {
	parts := make([]string, 0, len(s.Word))
	for _, r := range s.Word {
		l := string(r)
		if slices.Contains(s.Correct, l) {
			parts = append(parts, l)
		} else {
			parts = append(parts, "_")
		}
	}
	return strings.Join(parts, " ")
}

func (s *Session) revealed() bool {
	for _, r := range s.Word {
		if !slices.Contains(s.Correct, string(r)) {
			return false
		}
	}
	return true
}

func (s *Session) State() State {
	switch {
	case s.Lives <= 0:
		return StateLost
	case s.revealed():
		return StateWon
	default:
		return StateActive
	}
}

func (s *Session) IsOver() bool { return s.State() != StateActive }

// IncorrectLetters returns wrong guesses in the order they were made.
func (s *Session) IncorrectLetters() []string {
	return append([]string(nil), s.Incorrect...)
}

// WrongCount is the number of distinct wrong guesses so far.
func (s *Session) WrongCount() int { return len(s.Incorrect) }

// Clone returns a deep copy; registries hand out copies only.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Correct = append([]string{}, s.Correct...)
	c.Incorrect = append([]string{}, s.Incorrect...)
	return &c
}
