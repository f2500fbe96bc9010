// Package validation implements Laravel-style pipe-rule validation for flat
// string input maps.
//
//	v := validation.Make(map[string]string{
//	    "name":  name,
//	    "email": email,
//	}, validation.Rules{
//	    "name":  "required|min:2|max:100",
//	    "email": "required|email",
//	})
//
//	if v.Fails() {
//	    res.ValidationError(v.Errors()) // 422 {"errors": {"field": ["msg"]}}
//	}
//
// Supported rules: required, email, numeric, integer, min:N, max:N, gte:N,
// in:a,b,c. Validation of a field stops at its first failing rule (Laravel's
// bail behaviour).
package validation
