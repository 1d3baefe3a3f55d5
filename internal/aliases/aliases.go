// Package aliases maps candidate record keys to the field names forms use for them in the wild.
package aliases

import "sort"

// table lists, per data key, naming variants in priority order:
// the canonical key first, then common spellings, then looser synonyms.
var table = map[string][]string{
	"first_name": {
		"first_name", "firstname", "first-name", "firstName", "fname",
		"given_name", "givenname",
	},
	"middle_name": {
		"middle_name", "middlename", "middle-name", "middleName", "mname",
	},
	"last_name": {
		"last_name", "lastname", "last-name", "lastName", "lname",
		"surname", "family_name", "familyname",
	},
	"passport_number": {
		"passport_number", "passportnumber", "passport-number", "passportNumber",
		"passport_no", "passport", "passportno",
	},
	"passport_expiry_date": {
		"passport_expiry_date", "passportexpirydate", "passport-expiry-date", "passportExpiryDate",
		"expiry_date", "expirydate", "passport_expiry", "expiry",
	},
	"passport_issue_date": {
		"passport_issue_date", "passportissuedate", "passport-issue-date", "passportIssueDate",
		"issue_date", "issuedate", "passport_issue",
	},
	"passport_issue_place": {
		"passport_issue_place", "passportissueplace", "passport-issue-place", "passportIssuePlace",
		"issue_place", "issueplace", "place_of_issue", "placeofissue",
	},
	"email": {
		"email", "email_address", "emailaddress", "e-mail", "mail", "email_id",
	},
	"gender": {
		"gender", "sex",
	},
	"mobile_number": {
		"mobile_number", "mobilenumber", "mobile-number", "mobileNumber", "mobile",
		"phone", "phone_number", "phonenumber", "contact", "contact_number",
		"telephone", "tel",
	},
	"date_of_birth": {
		"date_of_birth", "dateofbirth", "date-of-birth", "dateOfBirth", "dob",
		"birth_date", "birthdate", "birthday",
	},
}

// Lookup returns the alias list for dataKey. Keys without an entry map to
// themselves. The returned slice is a copy.
func Lookup(dataKey string) []string {
	list, ok := table[dataKey]
	if !ok {
		return []string{dataKey}
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// Known reports whether dataKey has its own alias list.
func Known(dataKey string) bool {
	_, ok := table[dataKey]
	return ok
}

// Keys returns every data key with an alias list, sorted.
func Keys() []string {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// All returns a copy of the whole table.
func All() map[string][]string {
	out := make(map[string][]string, len(table))
	for k := range table {
		out[k] = Lookup(k)
	}
	return out
}
