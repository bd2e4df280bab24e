package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// BookStatus represents where a receipt book is in its cycle
type BookStatus int

const (
	BookStatusInactive BookStatus = 0
	BookStatusReady    BookStatus = 1
	BookStatusAssigned BookStatus = 2
	BookStatusReturned BookStatus = 3
	BookStatusPosted   BookStatus = 4
)

var bookStatusNames = [...]string{"Inactive", "Ready", "Assigned", "Returned", "Posted"}

func (s BookStatus) String() string {
	if !s.IsValid() {
		return fmt.Sprintf("BookStatus(%d)", int(s))
	}
	return bookStatusNames[s]
}

// IsValid reports whether s is a known status
func (s BookStatus) IsValid() bool {
	return s >= BookStatusInactive && s <= BookStatusPosted
}

// IsIssued is true while the book is out with collection staff
func (s BookStatus) IsIssued() bool {
	return s == BookStatusAssigned || s == BookStatusReturned
}

// AcceptsEntries is true when a posting session may be opened
func (s BookStatus) AcceptsEntries() bool {
	return s.IsIssued() || s == BookStatusPosted
}

// ParseBookStatus accepts a status name (case-insensitive) or its number
func ParseBookStatus(v string) (BookStatus, error) {
	for i, name := range bookStatusNames {
		if strings.EqualFold(name, v) {
			return BookStatus(i), nil
		}
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err == nil && BookStatus(n).IsValid() {
		return BookStatus(n), nil
	}
	return 0, fmt.Errorf("unknown book status %q", v)
}

func (s BookStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *BookStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		str = fmt.Sprint(i)
	}
	parsed, err := ParseBookStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s BookStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *BookStatus) Scan(value interface{}) error {
	if value == nil {
		*s = BookStatusInactive
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = BookStatus(v)
	case int32:
		*s = BookStatus(v)
	case int:
		*s = BookStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into BookStatus", value)
	}
	return nil
}
