package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for every date field.
const DateLayout = "2006-01-02"

type Category string

const (
	CategoryRepair      Category = "REPAIR"
	CategoryDevelopment Category = "DEVELOPMENT"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryRepair, CategoryDevelopment}

func (c Category) Valid() bool {
	switch c {
	case CategoryRepair, CategoryDevelopment:
		return true
	}
	return false
}

func (c Category) Label() string {
	switch c {
	case CategoryRepair:
		return "수리접수"
	case CategoryDevelopment:
		return "개발요청"
	}
	return string(c)
}

// ParseCategory accepts a category code (any case) or its label.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) || s == c.Label() {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// UnmarshalJSON accepts a code or a Korean label. Unknown values are kept
// as-is so load validation can report them.
func (c *Category) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, (*string)(c), func(s string) (string, error) {
		v, err := ParseCategory(s)
		return string(v), err
	})
}

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "미정"
	case StatusInProgress:
		return "진행중"
	case StatusCompleted:
		return "완료"
	}
	return string(s)
}

func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	for _, st := range Statuses {
		if strings.EqualFold(s, string(st)) || s == st.Label() {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

func (s *Status) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, (*string)(s), func(raw string) (string, error) {
		v, err := ParseStatus(raw)
		return string(v), err
	})
}

type ProcessType string

const (
	ProcessRepair      ProcessType = "REPAIR"
	ProcessReplacement ProcessType = "REPLACEMENT"
	ProcessImpossible  ProcessType = "IMPOSSIBLE"
	ProcessOther       ProcessType = "OTHER"
)

var ProcessTypes = []ProcessType{ProcessRepair, ProcessReplacement, ProcessImpossible, ProcessOther}

func (p ProcessType) Valid() bool {
	switch p {
	case ProcessRepair, ProcessReplacement, ProcessImpossible, ProcessOther:
		return true
	}
	return false
}

func (p ProcessType) Label() string {
	switch p {
	case ProcessRepair:
		return "수리"
	case ProcessReplacement:
		return "교체"
	case ProcessImpossible:
		return "수리불가"
	case ProcessOther:
		return "기타"
	}
	return string(p)
}

func ParseProcessType(s string) (ProcessType, error) {
	s = strings.TrimSpace(s)
	for _, p := range ProcessTypes {
		if strings.EqualFold(s, string(p)) || s == p.Label() {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown process type %q", s)
}

func (p *ProcessType) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, (*string)(p), func(s string) (string, error) {
		v, err := ParseProcessType(s)
		return string(v), err
	})
}

func decodeEnum(data []byte, dst *string, parse func(string) (string, error)) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*dst = raw
	if v, err := parse(raw); err == nil {
		*dst = v
	}
	return nil
}

// RequestItem is a single customer-reported repair or development request.
// The JSON field names are the durable ledger format.
type RequestItem struct {
	ID          string      `json:"id"`
	Category    Category    `json:"category"`
	Customer    string      `json:"customer"`
	ReceiveDate string      `json:"receiveDate"`
	Product     string      `json:"product"`
	Qty         int         `json:"qty"`
	Issue       string      `json:"issue"`
	BuyDate     string      `json:"buyDate"`
	ProcessType ProcessType `json:"processType,omitempty"`
	ProcessNote string      `json:"processNote,omitempty"`
	Status      Status      `json:"status"`
	ProcessDate string      `json:"processDate,omitempty"`
}

// Draft holds the caller-supplied fields of a new request.
type Draft struct {
	Category    Category
	Customer    string
	Product     string
	Qty         int
	Issue       string
	ReceiveDate string
	BuyDate     string
}

// Changes is a partial update. Nil fields keep their prior value.
type Changes struct {
	Status      *Status
	ProcessType *ProcessType
	ProcessNote *string
	Customer    *string
	Product     *string
	Qty         *int
	Issue       *string
	BuyDate     *string
}

// Stats holds request counts by status.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
}

// ValidDate reports whether s is a calendar date in DateLayout.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Today formats t's calendar date.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}

// Ptr returns a pointer to v, for building Changes.
func Ptr[T any](v T) *T {
	return &v
}
