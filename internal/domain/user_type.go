package domain

// UserType categorizes the caller of an API request. It is derived from an
// opaque encrypted token; anything unrecognized collapses to UserTypeUnknown.
type UserType string

const (
	UserTypeAdvisor UserType = "advisor"
	UserTypeExpert  UserType = "expert"
	UserTypeTester  UserType = "tester"
	UserTypeUnknown UserType = "unknown"
)

// ParseUserType maps a plaintext token value to a known caller category.
// Unrecognized values yield UserTypeUnknown, never an error.
func ParseUserType(value string) UserType {
	switch UserType(value) {
	case UserTypeAdvisor, UserTypeExpert, UserTypeTester:
		return UserType(value)
	default:
		return UserTypeUnknown
	}
}
