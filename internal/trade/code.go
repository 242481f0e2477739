package trade

import (
	"fmt"
	"regexp"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const digits = "0123456789"

var codePattern = regexp.MustCompile(`^\d{4} \d{4}$`)

// CodeGenerator returns a code formatted as two space-separated 4-digit groups.
type CodeGenerator func() (string, error)

// RandomCode draws each 4-digit group independently.
func RandomCode() (string, error) {
	first, err := gonanoid.Generate(digits, 4)
	if err != nil {
		return "", fmt.Errorf("failed to generate trade code: %w", err)
	}
	second, err := gonanoid.Generate(digits, 4)
	if err != nil {
		return "", fmt.Errorf("failed to generate trade code: %w", err)
	}
	return first + " " + second, nil
}

func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// FormatRemaining renders seconds as m:ss.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
