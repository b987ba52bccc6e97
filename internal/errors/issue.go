package errors

import "fmt"

// Issue is a non-fatal validation finding. Validation never fails outright;
// callers surface the issues and still accept the record.
type Issue struct {
	Code    Code   `json:"code"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

// String renders the issue for logs and CLI output
func (i Issue) String() string {
	if i.Path == "" {
		return fmt.Sprintf("[%s] %s", i.Code, i.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", i.Code, i.Path, i.Message)
}

// NewIssue creates an issue with a formatted message
func NewIssue(code Code, path, format string, args ...any) Issue {
	return Issue{
		Code:    code,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	}
}

// IssueFromError converts an error into an issue, keeping its code
func IssueFromError(path string, err error) Issue {
	return Issue{
		Code:    GetCode(err),
		Path:    path,
		Message: err.Error(),
	}
}

// HasIssue reports whether any issue carries the given code
func HasIssue(issues []Issue, code Code) bool {
	for _, issue := range issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}
