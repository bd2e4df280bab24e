package enum

import "fmt"

// NumberingMode decides how bulk allocation numbers the pages of each book
type NumberingMode string

const (
	// NumberingSequential keeps the printed page numbers of the range
	NumberingSequential NumberingMode = "sequential"
	// NumberingRestart restarts page numbering at 1 for every set
	NumberingRestart NumberingMode = "restart"
)

func (m NumberingMode) IsValid() bool {
	return m == NumberingSequential || m == NumberingRestart
}

func (m NumberingMode) String() string {
	return string(m)
}

// ParseNumberingMode defaults an empty value to sequential
func ParseNumberingMode(v string) (NumberingMode, error) {
	if v == "" {
		return NumberingSequential, nil
	}
	m := NumberingMode(v)
	if !m.IsValid() {
		return "", fmt.Errorf("unknown numbering mode %q", v)
	}
	return m, nil
}
