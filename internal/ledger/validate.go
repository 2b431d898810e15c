package ledger

import (
	"strings"

	"github.com/dualikorea/reception/internal/models"
)

func validateDraft(d models.Draft) error {
	verr := &ValidationError{}
	if !d.Category.Valid() {
		verr.add("category", "must be REPAIR or DEVELOPMENT")
	}
	requireText(verr, "customer", d.Customer)
	requireText(verr, "product", d.Product)
	requireText(verr, "issue", d.Issue)
	if d.Qty < 1 {
		verr.add("qty", "must be at least 1")
	}
	if d.ReceiveDate == "" {
		verr.add("receiveDate", "is required")
	} else if !models.ValidDate(d.ReceiveDate) {
		verr.add("receiveDate", "must be a YYYY-MM-DD date")
	}
	if d.BuyDate != "" && !models.ValidDate(d.BuyDate) {
		verr.add("buyDate", "must be a YYYY-MM-DD date")
	}
	return verr.orNil()
}

func validateChanges(c models.Changes) error {
	verr := &ValidationError{}
	if c.Status != nil && !c.Status.Valid() {
		verr.add("status", "must be PENDING, IN_PROGRESS or COMPLETED")
	}
	if c.ProcessType != nil && *c.ProcessType != "" && !c.ProcessType.Valid() {
		verr.add("processType", "must be REPAIR, REPLACEMENT, IMPOSSIBLE or OTHER")
	}
	if c.Customer != nil {
		requireText(verr, "customer", *c.Customer)
	}
	if c.Product != nil {
		requireText(verr, "product", *c.Product)
	}
	if c.Issue != nil {
		requireText(verr, "issue", *c.Issue)
	}
	if c.Qty != nil && *c.Qty < 1 {
		verr.add("qty", "must be at least 1")
	}
	if c.BuyDate != nil && *c.BuyDate != "" && !models.ValidDate(*c.BuyDate) {
		verr.add("buyDate", "must be a YYYY-MM-DD date")
	}
	return verr.orNil()
}

// validateItem checks a stored item. It returns the first problem found.
func validateItem(item models.RequestItem) string {
	switch {
	case strings.TrimSpace(item.ID) == "":
		return "missing id"
	case !item.Category.Valid():
		return "unknown category " + string(item.Category)
	case !item.Status.Valid():
		return "unknown status " + string(item.Status)
	case item.ProcessType != "" && !item.ProcessType.Valid():
		return "unknown process type " + string(item.ProcessType)
	case strings.TrimSpace(item.Customer) == "":
		return "missing customer"
	case strings.TrimSpace(item.Product) == "":
		return "missing product"
	case strings.TrimSpace(item.Issue) == "":
		return "missing issue"
	case item.Qty < 1:
		return "qty below 1"
	case item.ReceiveDate == "":
		return "missing receiveDate"
	}
	return ""
}

// validateCollection checks every item and rejects duplicate ids.
func validateCollection(items []models.RequestItem) error {
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		if reason := validateItem(item); reason != "" {
			return &CorruptDataError{Index: i, Reason: reason}
		}
		if _, dup := seen[item.ID]; dup {
			return &CorruptDataError{Index: i, Reason: "duplicate id " + item.ID}
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}

func requireText(verr *ValidationError, field, value string) {
	if strings.TrimSpace(value) == "" {
		verr.add(field, "is required")
	}
}
