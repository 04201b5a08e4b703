package campus

import "eas/internal/apierr"

// Scope is the campus visibility resolved for an authenticated user. Domain
// services take a Scope on every read and mutation; there is no unscoped
// path to campus-partitioned data.
type Scope struct {
	UserID              string
	Role                Role
	CampusID            int64
	AccessibleCampusIDs []int64
}

// CanAccess reports whether the scope may touch the given campus.
func (s Scope) CanAccess(campusID int64) bool {
	switch s.Role {
	case RoleSuperAdmin:
		return true
	case RoleCampusAdmin:
		if campusID == s.CampusID {
			return true
		}
		for _, id := range s.AccessibleCampusIDs {
			if id == campusID {
				return true
			}
		}
		return false
	default:
		return campusID == s.CampusID
	}
}

// ForCampus authorizes access to a single campus. A request for a campus
// outside the scope fails loudly; it is never narrowed to an accessible one.
func (s Scope) ForCampus(campusID int64) error {
	if !s.CanAccess(campusID) {
		return apierr.Newf(apierr.CodeCampusAccessDenied, "no access to campus %d", campusID)
	}
	return nil
}

// CampusIDs resolves the campus filter for list queries. With a requested
// campus it authorizes exactly that one; without, it returns every campus
// the scope can see. nil means unrestricted (super admin only).
func (s Scope) CampusIDs(requested *int64) ([]int64, error) {
	if requested != nil {
		if err := s.ForCampus(*requested); err != nil {
			return nil, err
		}
		return []int64{*requested}, nil
	}
	switch s.Role {
	case RoleSuperAdmin:
		return nil, nil
	case RoleCampusAdmin:
		ids := []int64{s.CampusID}
		for _, id := range s.AccessibleCampusIDs {
			if id != s.CampusID {
				ids = append(ids, id)
			}
		}
		return ids, nil
	default:
		return []int64{s.CampusID}, nil
	}
}
