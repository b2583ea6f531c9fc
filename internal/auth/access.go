package auth

// CanAccess decides whether a role may view a section. Pure and total:
// every (role, section) pair has an answer, and anything unrecognized is
// denied.
func CanAccess(role Role, section Section) bool {
	switch role {
	case RoleAdmin:
		switch section {
		case SectionDashboard, SectionUsers, SectionCollectors:
			return true
		}
		return false
	case RoleCollector:
		return section == SectionDashboard || section == SectionUsers
	case RoleMember:
		return section == SectionDashboard
	default:
		return false
	}
}
