package qschema

// IssueFor creates an Issue for the given element id with code, message and
// alternating key/value params. This is a convenience helper to improve
// readability at call sites with many parameters.
func IssueFor(id, code, msg string, kv ...any) Issue {
	var params map[string]any
	if len(kv) > 1 {
		params = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			k, _ := kv[i].(string)
			params[k] = kv[i+1]
		}
	}
	return Issue{ID: id, Code: code, Message: msg, Params: params}
}
