// Package kyc validates loan applicants before any upstream call is made.
// The checks are local and synchronous: syntactic rules plus sanity floors
// on the uploaded document scans. A real provider can be swapped in behind
// the Checker interface later.
package kyc

import (
	"regexp"
	"strings"
)

// Result of one applicant check. Issues holds one human-readable message
// per failed rule.
type Result struct {
	OK     bool
	Issues []string
}

// Checker runs the applicant check. Implementations must not perform
// network I/O; the orchestration layer relies on this being cheap and local.
type Checker interface {
	CheckApplicant(fullName, passportNumber string, idFront, idBack, selfie []byte) Result
}

var (
	passportRU      = regexp.MustCompile(`^[0-9]{2}\s?[0-9]{2}\s?[0-9]{6}$`)
	passportGeneric = regexp.MustCompile(`^[A-Z0-9\-]{5,20}$`)
	spaces          = regexp.MustCompile(`\s+`)
)

// minImageSize guards against empty or truncated uploads.
const minImageSize = 50 * 1024

// Rules is the rule-based Checker used in production today.
type Rules struct{}

func NewRules() Rules {
	return Rules{}
}

func (Rules) CheckApplicant(fullName, passportNumber string, idFront, idBack, selfie []byte) Result {
	var issues []string

	if len(strings.Fields(fullName)) < 2 {
		issues = append(issues, "Некорректное ФИО")
	}

	if strings.TrimSpace(passportNumber) == "" {
		issues = append(issues, "Не указан номер паспорта")
	} else if !passportRU.MatchString(spaces.ReplaceAllString(passportNumber, "")) &&
		!passportGeneric.MatchString(passportNumber) {
		issues = append(issues, "Номер паспорта не соответствует допустимому формату")
	}

	if len(idFront) < minImageSize {
		issues = append(issues, "Плохое качество/размер фронт-скана документа")
	}
	// Back side and selfie are optional, but when submitted they are held
	// to the same floor.
	if len(idBack) > 0 && len(idBack) < minImageSize {
		issues = append(issues, "Плохое качество/размер оборотной стороны документа")
	}
	if len(selfie) > 0 && len(selfie) < minImageSize {
		issues = append(issues, "Плохое качество/размер селфи")
	}

	if len(issues) > 0 {
		return Result{OK: false, Issues: issues}
	}
	return Result{OK: true}
}
