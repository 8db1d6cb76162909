package models

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyNormal Difficulty = "Normal"
	DifficultyHard   Difficulty = "Hard"
	DifficultyExpert Difficulty = "Expert"
)

type GameMode string

const (
	ModePractice GameMode = "Practice"
	ModeStory    GameMode = "Story"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "Multiple Choice"
	QuestionShortAnswer    QuestionType = "Short Answer"
	QuestionLongReasoning  QuestionType = "Long-form Reasoning"
)

// Language is a BCP 47 tag; en, zh-CN and zh-TW are supported.
type Language string

const (
	LanguageEnglish            Language = "en"
	LanguageChineseSimplified  Language = "zh-CN"
	LanguageChineseTraditional Language = "zh-TW"
)

// IsChinese reports whether prompts should ask for Chinese output.
func (l Language) IsChinese() bool {
	return strings.HasPrefix(string(l), "zh")
}

type Theme string

const (
	ThemeBlack   Theme = "black"
	ThemeSky     Theme = "sky"
	ThemeEmerald Theme = "emerald"
	ThemeAmber   Theme = "amber"
	ThemeZinc    Theme = "zinc"
)

type CharacterType string

const (
	CharacterKid    CharacterType = "kid"
	CharacterTeen   CharacterType = "teen"
	CharacterAdult  CharacterType = "adult"
	CharacterSenior CharacterType = "senior"
)

type CharacterGender string

const (
	GenderMale   CharacterGender = "m"
	GenderFemale CharacterGender = "f"
)

// Document is a reference attachment. Only its name reaches the prompt.
type Document struct {
	Name     string `json:"name"`
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// SimulationConfig is the setup snapshot a game starts from
type SimulationConfig struct {
	TargetLife    string         `json:"targetLife"`
	Difficulty    Difficulty     `json:"difficulty"`
	Mode          GameMode       `json:"mode"`
	QuestionTypes []QuestionType `json:"questionTypes"`
	SkillPacks    []string       `json:"skillPacks,omitempty"`
	Language      Language       `json:"language"`
	Theme         Theme          `json:"theme,omitempty"`
	Character     Character      `json:"character"`
	Documents     []Document     `json:"pdfs,omitempty"`
}

var (
	ErrEmptyTargetLife     = errors.New("target life is required")
	ErrInvalidDifficulty   = errors.New("invalid difficulty")
	ErrInvalidMode         = errors.New("invalid mode")
	ErrInvalidQuestionType = errors.New("invalid question type")
	ErrInvalidLanguage     = errors.New("unsupported language")
	ErrInvalidTheme        = errors.New("invalid theme")
	ErrInvalidCharacter    = errors.New("invalid character")
	ErrInvalidDocument     = errors.New("invalid document")
)

var (
	difficulties   = []Difficulty{DifficultyEasy, DifficultyNormal, DifficultyHard, DifficultyExpert}
	modes          = []GameMode{ModePractice, ModeStory}
	questionTypes  = []QuestionType{QuestionMultipleChoice, QuestionShortAnswer, QuestionLongReasoning}
	themes         = []Theme{ThemeBlack, ThemeSky, ThemeEmerald, ThemeAmber, ThemeZinc}
	characterTypes = []CharacterType{CharacterKid, CharacterTeen, CharacterAdult, CharacterSenior}
	genders        = []CharacterGender{GenderMale, GenderFemale}
)

var supportedLanguages = language.NewMatcher([]language.Tag{
	language.English,
	language.SimplifiedChinese,
	language.TraditionalChinese,
})

// ParseLanguage normalises a locale tag to one of the supported languages.
func ParseLanguage(s string) (Language, error) {
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, s)
	}
	return matchLanguage(tag)
}

// LanguageFromAcceptHeader picks a supported language from an
// Accept-Language header, defaulting to English.
func LanguageFromAcceptHeader(header string) Language {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return LanguageEnglish
	}
	for _, tag := range tags {
		if lang, err := matchLanguage(tag); err == nil {
			return lang
		}
	}
	return LanguageEnglish
}

func matchLanguage(tag language.Tag) (Language, error) {
	base, _ := tag.Base()
	switch base.String() {
	case "en":
		return LanguageEnglish, nil
	case "zh":
		_, idx, _ := supportedLanguages.Match(tag)
		if idx == 2 {
			return LanguageChineseTraditional, nil
		}
		return LanguageChineseSimplified, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, tag.String())
}

// Normalize fills defaults and trims free text. The receiver is not modified.
func (c SimulationConfig) Normalize() SimulationConfig {
	c.TargetLife = strings.TrimSpace(c.TargetLife)
	if c.Difficulty == "" {
		c.Difficulty = DifficultyNormal
	}
	if c.Mode == "" {
		c.Mode = ModeStory
	}
	if c.Language == "" {
		c.Language = LanguageEnglish
	} else if lang, err := ParseLanguage(string(c.Language)); err == nil {
		c.Language = lang
	}
	if c.Theme == "" {
		c.Theme = ThemeZinc
	}
	if c.Character.Type == "" {
		c.Character.Type = CharacterAdult
	}
	if c.Character.Gender == "" {
		c.Character.Gender = GenderMale
	}
	c.QuestionTypes = slices.Clone(c.QuestionTypes)
	c.SkillPacks = slices.DeleteFunc(slices.Clone(c.SkillPacks), func(s string) bool {
		return strings.TrimSpace(s) == ""
	})
	c.Documents = slices.Clone(c.Documents)
	return c
}

// Validate checks every field and joins all failures.
func (c SimulationConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.TargetLife) == "" {
		errs = append(errs, ErrEmptyTargetLife)
	}
	if !slices.Contains(difficulties, c.Difficulty) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidDifficulty, c.Difficulty))
	}
	if !slices.Contains(modes, c.Mode) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidMode, c.Mode))
	}
	for _, qt := range c.QuestionTypes {
		if !slices.Contains(questionTypes, qt) {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidQuestionType, qt))
		}
	}
	if _, err := ParseLanguage(string(c.Language)); err != nil {
		errs = append(errs, err)
	}
	if c.Theme != "" && !slices.Contains(themes, c.Theme) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidTheme, c.Theme))
	}
	if !slices.Contains(characterTypes, c.Character.Type) || !slices.Contains(genders, c.Character.Gender) {
		errs = append(errs, fmt.Errorf("%w: %s/%s", ErrInvalidCharacter, c.Character.Gender, c.Character.Type))
	}
	for i, d := range c.Documents {
		if strings.TrimSpace(d.Name) == "" {
			errs = append(errs, fmt.Errorf("%w: document %d has no name", ErrInvalidDocument, i))
		}
	}
	return errors.Join(errs...)
}
