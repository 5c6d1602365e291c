// Package policy is the single place where hierarchy-sensitive permission
// rules live. Handlers never re-derive level checks inline.
package policy

import (
	"github.com/recommerce-labs/console/internal/apiserver/database"
)

// levelRank orders levels by authority. RESELLER and AFFILIATE share a
// tier; COMPANY is the leaf tier.
var levelRank = map[database.UserLevel]int{
	database.LevelMaster:    4,
	database.LevelSuper:     3,
	database.LevelReseller:  2,
	database.LevelAffiliate: 2,
	database.LevelCompany:   1,
}

// Outranks reports whether level a strictly outranks level b
func Outranks(a, b database.UserLevel) bool {
	return levelRank[a] > levelRank[b]
}

// CanAssignModule decides whether the actor may assign or deactivate a
// module for the target. Masters may act on anyone. Supers and resellers
// may only act on a direct child or on themselves, narrower than their
// view of the full subtree.
func CanAssignModule(actorLevel database.UserLevel, actorID string, target *database.User) bool {
	switch actorLevel {
	case database.LevelMaster:
		return true
	case database.LevelSuper, database.LevelReseller:
		if target == nil {
			return false
		}
		if target.ID == actorID {
			return true
		}
		return target.ParentID != nil && *target.ParentID == actorID
	default:
		return false
	}
}

// CanManageUser decides whether the actor may view or edit the target
// user. Supers manage anyone below master; resellers manage only the
// affiliate and company tiers.
func CanManageUser(actorLevel database.UserLevel, target *database.User) bool {
	if target == nil {
		return false
	}
	switch actorLevel {
	case database.LevelMaster:
		return true
	case database.LevelSuper:
		return target.Level != database.LevelMaster
	case database.LevelReseller:
		return target.Level == database.LevelAffiliate || target.Level == database.LevelCompany
	default:
		return false
	}
}

// ValidParent reports whether parent may own a child of the given level:
// the parent must strictly outrank the child. Enforced on every user
// create and re-parent.
func ValidParent(parentLevel, childLevel database.UserLevel) bool {
	return Outranks(parentLevel, childLevel)
}
