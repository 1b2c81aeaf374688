package record

// Address is a two-line mailing address as the petition documents expect it.
type Address struct {
	LineOne      string `json:"line_one,omitempty"`
	CityStateZip string `json:"city_state_zip,omitempty"`
}

// Attorney is the current attorney profile attached to new petitions.
//
// HasBeenEdited is a one-way latch: it becomes true the first time the user
// edits the attorney directly, and from then on automatic repopulation from
// the user profile's defaults must leave the attorney untouched.
type Attorney struct {
	Organization      string  `json:"organization,omitempty"`
	FullName          string  `json:"full_name,omitempty"`
	Address           Address `json:"address"`
	OrganizationPhone string  `json:"organization_phone,omitempty"`
	BarID             string  `json:"bar_id,omitempty"`
	HasBeenEdited     bool    `json:"hasBeenEdited,omitempty"`
}

// Snapshot renders the attorney as a document fragment for embedding into a
// petition. Petitions hold copied values: later edits to the live attorney
// must not reach petitions that were already created. The latch flag is a
// client-only concern and is not part of the snapshot.
func (a Attorney) Snapshot() Object {
	addr := Object{}
	if a.Address.LineOne != "" {
		addr["line_one"] = a.Address.LineOne
	}
	if a.Address.CityStateZip != "" {
		addr["city_state_zip"] = a.Address.CityStateZip
	}
	snap := Object{"address": addr}
	if a.Organization != "" {
		snap["organization"] = a.Organization
	}
	if a.FullName != "" {
		snap["full_name"] = a.FullName
	}
	if a.OrganizationPhone != "" {
		snap["organization_phone"] = a.OrganizationPhone
	}
	if a.BarID != "" {
		snap["bar_id"] = a.BarID
	}
	return snap
}

// AttorneyFromDefaults builds an attorney from the default-attorney fields of
// a fetched user profile. The result carries HasBeenEdited=false: it is a
// default, not a user edit.
func AttorneyFromDefaults(user Object) Attorney {
	return Attorney{
		Organization: user.Str("default_atty_organization"),
		FullName:     user.Str("default_atty_name"),
		Address: Address{
			LineOne:      user.Str("default_atty_address_line_one"),
			CityStateZip: user.Str("default_atty_address_line_two"),
		},
		OrganizationPhone: user.Str("default_atty_phone"),
		BarID:             user.Str("default_bar_id"),
	}
}
