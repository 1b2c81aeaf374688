// Package synth derives draft petitions. One path translates a server
// analysis (ordered decisions, each with eligible petition templates) into
// petition entities; the other builds a single petition directly from the
// current applicant and attorney defaults.
package synth

import (
	"fmt"

	"dario.cat/mergo"

	"github.com/cleanslate/recordflow/internal/identity"
	"github.com/cleanslate/recordflow/internal/record"
	"github.com/cleanslate/recordflow/internal/store"
)

// FromAnalysis turns an analysis document into a changeset of new petition
// entities.
//
// Decisions are processed in the exact order the server returned them, and
// templates in order within each decision; petition ids are assigned in that
// same order, each generation scoped against the ids created earlier in the
// batch as well as the pre-existing ones. A failure merging one template
// skips that petition only; later templates and decisions still synthesize.
func FromAnalysis(analysis record.Object, atty record.Attorney, existingIDs []string) (store.Changeset, []error) {
	var cs store.Changeset
	var errs []error

	raw, ok := analysis["decisions"]
	if !ok {
		return cs, []error{synthErr(ErrCodeAnalysisMalformed, -1, -1, "analysis has no decision list")}
	}
	decisions, ok := raw.([]any)
	if !ok {
		return cs, []error{synthErr(ErrCodeAnalysisMalformed, -1, -1, "decisions is %T, expected a list", raw)}
	}

	known := make([]string, len(existingIDs))
	copy(known, existingIDs)
	taken := make(map[string]bool, len(known))
	for _, id := range known {
		taken[id] = true
	}

	for di, d := range decisions {
		decision, ok := record.AsObject(d)
		if !ok {
			errs = append(errs, synthErr(ErrCodeDecisionMalformed, di, -1, "decision is %T, expected an object", d))
			continue
		}
		templates, err := decisionTemplates(decision, di)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for ti, t := range templates {
			template, ok := record.AsObject(t)
			if !ok {
				errs = append(errs, synthErr(ErrCodeTemplateMalformed, di, ti, "template is %T, expected an object", t))
				continue
			}
			merged := map[string]any{"attorney": plain(atty.Snapshot())}
			if err := mergo.Merge(&merged, plain(template.Clone()), mergo.WithOverride); err != nil {
				errs = append(errs, synthErr(ErrCodeMergeFailed, di, ti, "%v", err))
				continue
			}
			id := identity.PetitionID(known)
			if taken[id] {
				errs = append(errs, synthErr(ErrCodeIDCollision, di, ti, "generated id %q is already taken", id))
				continue
			}
			merged["id"] = id
			known = append(known, id)
			taken[id] = true
			cs.Upsert(record.TypePetitions, id, record.Object(merged))
		}
	}
	return cs, errs
}

// decisionTemplates reads a decision's eligible templates. A decision may
// carry zero templates; a template list of the wrong shape is an error.
func decisionTemplates(decision record.Object, di int) ([]any, error) {
	raw, ok := decision["value"]
	if !ok || raw == nil {
		return nil, nil
	}
	templates, ok := raw.([]any)
	if !ok {
		return nil, synthErr(ErrCodeDecisionMalformed, di, -1, "decision value is %T, expected a list", raw)
	}
	return templates, nil
}

// organizationPlaceholder stands in for a missing organization in generated
// text, so the petition language never reads as truncated.
const organizationPlaceholder = "____"

// IFPMessage builds the boilerplate in-forma-pauperis statement for a
// petition drafted from defaults.
func IFPMessage(atty record.Attorney) string {
	org := atty.Organization
	if org == "" {
		org = organizationPlaceholder
	}
	return fmt.Sprintf(
		"%s is a non-profit legal services organization that provides free legal"+
			" assistance to low-income individuals. I, %s, attorney for the"+
			" Petitioner, certify that Petitioner meets the financial eligibility"+
			" standards for representation by %s and that I am providing free"+
			" legal service to Petitioner.",
		org, atty.FullName, org)
}

// NewPetition builds a single petition from the current applicant and
// attorney defaults, without an analysis. The client and attorney fields are
// snapshots; aliases are embedded by value.
func NewPetition(applicant record.Object, aliases []record.Object, serviceAgencies []string, atty record.Attorney, existingIDs []string) (string, record.Object) {
	client := applicant.Clone()
	delete(client, "editing")
	embedded := make([]any, 0, len(aliases))
	for _, alias := range aliases {
		embedded = append(embedded, alias.Clone())
	}
	client["aliases"] = embedded

	agencies := make([]any, 0, len(serviceAgencies))
	for _, a := range serviceAgencies {
		agencies = append(agencies, a)
	}

	id := identity.PetitionID(existingIDs)
	pet := record.Object{
		"id":               id,
		"petition_type":    "Expungement",
		"attorney":         atty.Snapshot(),
		"client":           client,
		"service_agencies": agencies,
		"ifp_message":      IFPMessage(atty),
	}
	return id, pet
}

// RefreshFromProfile repopulates the attorney from the user profile's
// default-attorney fields, unless the user has explicitly edited the
// attorney. HasBeenEdited is a one-way latch: once set, defaults never
// overwrite the attorney again.
func RefreshFromProfile(current record.Attorney, user record.Object) record.Attorney {
	if current.HasBeenEdited {
		return current
	}
	return record.AttorneyFromDefaults(user)
}

// plain rewrites a document fragment onto bare map[string]any/[]any nodes so
// the merge sees uniform types on both sides.
func plain(v any) any {
	switch val := v.(type) {
	case record.Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = plain(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = plain(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = plain(elem)
		}
		return out
	default:
		return val
	}
}
