package assign

import (
	"context"
	"fmt"
	"strings"

	"github.com/civicworks/civicd/pkg/models"
	"github.com/civicworks/civicd/pkg/repository"
)

// problemTypeToDepartment maps free-text problem types to canonical
// department names. User-supplied text is open-ended, so "no match" is a
// first-class outcome, not an error.
var problemTypeToDepartment = map[string]string{
	"pothole":          "Roads",
	"road repair":      "Roads",
	"road damage":      "Roads",
	"street light":     "Electrical",
	"streetlight":      "Electrical",
	"electrical":       "Electrical",
	"power outage":     "Electrical",
	"water supply":     "Water",
	"water leak":       "Water",
	"sewage":           "Sanitation",
	"drainage":         "Sanitation",
	"garbage":          "Sanitation",
	"cleaning":         "Sanitation",
	"public transport": "Transport",
}

// Resolver maps a report's problem type to a department. Resolution order:
// synonym table, exact case-insensitive name match, case-insensitive
// substring match. A nil result means no department currently matches and
// the report should stay pending.
type Resolver struct {
	departments repository.DepartmentRepo
}

func NewResolver(departments repository.DepartmentRepo) *Resolver {
	return &Resolver{departments: departments}
}

func (r *Resolver) Resolve(ctx context.Context, problemType string) (*models.Department, error) {
	normalized := strings.ToLower(strings.TrimSpace(problemType))
	if normalized == "" {
		return nil, nil
	}

	name := normalized
	if canonical, ok := problemTypeToDepartment[normalized]; ok {
		name = canonical
	}

	dept, err := r.departments.GetDepartmentByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("department lookup %q: %w", name, err)
	}
	if dept != nil {
		return dept, nil
	}

	dept, err = r.departments.FindDepartmentLike(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("department substring lookup %q: %w", name, err)
	}

	return dept, nil
}

// CanonicalName reports the department name a problem type would map to,
// whether or not such a department exists yet. Used for operator-facing
// warnings.
func CanonicalName(problemType string) string {
	normalized := strings.ToLower(strings.TrimSpace(problemType))
	if canonical, ok := problemTypeToDepartment[normalized]; ok {
		return canonical
	}
	return problemType
}
