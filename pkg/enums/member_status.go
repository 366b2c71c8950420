package enums

import "fmt"

// MemberStatus describes the allowed values for the `status` column in members.
type MemberStatus string

const (
	MemberStatusActive MemberStatus = "active"
	MemberStatusFrozen MemberStatus = "frozen"
)

var validMemberStatuses = []MemberStatus{
	MemberStatusActive,
	MemberStatusFrozen,
}

// IsValid reports whether the value matches the canonical member status enum.
func (s MemberStatus) IsValid() bool {
	for _, candidate := range validMemberStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseMemberStatus converts the raw string to MemberStatus.
func ParseMemberStatus(value string) (MemberStatus, error) {
	for _, candidate := range validMemberStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member status %q", value)
}
