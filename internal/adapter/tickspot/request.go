package tickspot

import "net/url"

// Credentials identify the account and the user every call is made as.
// A Client copies them at construction and never mutates them.
type Credentials struct {
	Subdomain string
	Email     string
	Password  string
}

// buildForm merges the credential fields into params. email and password are
// reserved; a caller value under either key is replaced.
func buildForm(creds Credentials, params url.Values) url.Values {
	form := make(url.Values, len(params)+2)
	for k, v := range params {
		form[k] = append([]string(nil), v...)
	}
	form.Set("email", creds.Email)
	form.Set("password", creds.Password)
	return form
}
