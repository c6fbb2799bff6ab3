package domain

// OCS application status codes used by the provisioning API.
const (
	StatusOK           = 100
	StatusInvalidInput = 101
	StatusUserExists   = 102
	StatusUnknownError = 103
)

// CreateFailureReason maps a user-creation status code to the human reason
// shown in progress output. Unknown codes map to an empty string.
func CreateFailureReason(code int) string {
	switch code {
	case StatusInvalidInput:
		return "invalid input data"
	case StatusUserExists:
		return "username already exists"
	case StatusUnknownError:
		return "unknown error occurred whilst adding the user"
	default:
		return ""
	}
}
