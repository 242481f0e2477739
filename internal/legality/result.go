package legality

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

type Field string

const (
	FieldStats   Field = "stats"
	FieldLevel   Field = "level"
	FieldMoves   Field = "moves"
	FieldAbility Field = "ability"
	FieldGender  Field = "gender"
	FieldItem    Field = "item"
	FieldGeneral Field = "general"
)

type ValidationResult struct {
	ID       string   `json:"id"`
	Severity Severity `json:"severity"`
	Field    Field    `json:"field"`
	Message  string   `json:"message"`
}

func IsLegal(results []ValidationResult) bool {
	for _, r := range results {
		if r.Severity == SeverityError {
			return false
		}
	}
	return true
}

type Summary struct {
	Results      []ValidationResult `json:"results"`
	Errors       []ValidationResult `json:"errors"`
	Warnings     []ValidationResult `json:"warnings"`
	Legal        bool               `json:"legal"`
	ErrorCount   int                `json:"error_count"`
	WarningCount int                `json:"warning_count"`
}

func Summarize(results []ValidationResult) Summary {
	s := Summary{
		Results:  results,
		Errors:   []ValidationResult{},
		Warnings: []ValidationResult{},
	}
	for _, r := range results {
		switch r.Severity {
		case SeverityError:
			s.Errors = append(s.Errors, r)
		case SeverityWarning:
			s.Warnings = append(s.Warnings, r)
		}
	}
	s.ErrorCount = len(s.Errors)
	s.WarningCount = len(s.Warnings)
	s.Legal = s.ErrorCount == 0
	return s
}
