package policy

import (
	"testing"

	"github.com/recommerce-labs/console/internal/apiserver/database"
	"github.com/stretchr/testify/assert"
)

var allLevels = []database.UserLevel{
	database.LevelMaster,
	database.LevelSuper,
	database.LevelReseller,
	database.LevelAffiliate,
	database.LevelCompany,
}

func ptr(s string) *string { return &s }

func TestCanAssignModule_Master(t *testing.T) {
	for _, lvl := range allLevels {
		target := &database.User{ID: "t", Level: lvl}
		assert.True(t, CanAssignModule(database.LevelMaster, "actor", target),
			"master must assign to %s", lvl)
	}
}

func TestCanAssignModule_DirectChildOnly(t *testing.T) {
	for _, actor := range []database.UserLevel{database.LevelSuper, database.LevelReseller} {
		child := &database.User{ID: "child", ParentID: ptr("actor"), Level: database.LevelCompany}
		grandchild := &database.User{ID: "gc", ParentID: ptr("child"), Level: database.LevelCompany}
		sibling := &database.User{ID: "sib", ParentID: ptr("other"), Level: database.LevelCompany}
		orphan := &database.User{ID: "orphan", Level: database.LevelCompany}
		self := &database.User{ID: "actor", Level: actor}

		assert.True(t, CanAssignModule(actor, "actor", child), "%s direct child", actor)
		assert.True(t, CanAssignModule(actor, "actor", self), "%s self", actor)
		assert.False(t, CanAssignModule(actor, "actor", grandchild), "%s grandchild", actor)
		assert.False(t, CanAssignModule(actor, "actor", sibling), "%s sibling", actor)
		assert.False(t, CanAssignModule(actor, "actor", orphan), "%s orphan", actor)
	}
}

func TestCanAssignModule_LeafLevels(t *testing.T) {
	child := &database.User{ID: "child", ParentID: ptr("actor"), Level: database.LevelCompany}
	for _, actor := range []database.UserLevel{database.LevelAffiliate, database.LevelCompany} {
		assert.False(t, CanAssignModule(actor, "actor", child))
		assert.False(t, CanAssignModule(actor, "actor", &database.User{ID: "actor", Level: actor}),
			"%s may not even self-assign", actor)
	}
}

func TestCanAssignModule_AllLevelPairs(t *testing.T) {
	// Full (actor level, target level) grid for both relations the rule
	// distinguishes. The decision never depends on the target's level,
	// only on who the actor is and whether the target is a direct child.
	for _, actor := range allLevels {
		canAssign := actor == database.LevelMaster ||
			actor == database.LevelSuper ||
			actor == database.LevelReseller

		for _, target := range allLevels {
			child := &database.User{ID: "child", ParentID: ptr("actor"), Level: target}
			assert.Equal(t, canAssign,
				CanAssignModule(actor, "actor", child),
				"%s assigning to direct child of level %s", actor, target)

			unrelated := &database.User{ID: "other", ParentID: ptr("elsewhere"), Level: target}
			assert.Equal(t, actor == database.LevelMaster,
				CanAssignModule(actor, "actor", unrelated),
				"%s assigning to unrelated %s", actor, target)
		}
	}
}

func TestCanAssignModule_NilTarget(t *testing.T) {
	assert.False(t, CanAssignModule(database.LevelSuper, "actor", nil))
}

func TestCanManageUser(t *testing.T) {
	// actor level -> target levels it may manage
	allowed := map[database.UserLevel]map[database.UserLevel]bool{
		database.LevelMaster: {
			database.LevelMaster: true, database.LevelSuper: true,
			database.LevelReseller: true, database.LevelAffiliate: true,
			database.LevelCompany: true,
		},
		database.LevelSuper: {
			database.LevelSuper: true, database.LevelReseller: true,
			database.LevelAffiliate: true, database.LevelCompany: true,
		},
		database.LevelReseller: {
			database.LevelAffiliate: true, database.LevelCompany: true,
		},
		database.LevelAffiliate: {},
		database.LevelCompany:   {},
	}

	for _, actor := range allLevels {
		for _, target := range allLevels {
			got := CanManageUser(actor, &database.User{ID: "t", Level: target})
			assert.Equal(t, allowed[actor][target], got, "%s managing %s", actor, target)
		}
	}
}

func TestCanManageUser_NilTarget(t *testing.T) {
	assert.False(t, CanManageUser(database.LevelMaster, nil))
}

func TestOutranks(t *testing.T) {
	assert.True(t, Outranks(database.LevelMaster, database.LevelSuper))
	assert.True(t, Outranks(database.LevelSuper, database.LevelReseller))
	assert.True(t, Outranks(database.LevelReseller, database.LevelCompany))
	assert.True(t, Outranks(database.LevelAffiliate, database.LevelCompany))

	// RESELLER and AFFILIATE share a tier, neither outranks the other
	assert.False(t, Outranks(database.LevelReseller, database.LevelAffiliate))
	assert.False(t, Outranks(database.LevelAffiliate, database.LevelReseller))
	assert.False(t, Outranks(database.LevelCompany, database.LevelCompany))
	assert.False(t, Outranks(database.LevelCompany, database.LevelMaster))
}

func TestValidParent(t *testing.T) {
	assert.True(t, ValidParent(database.LevelMaster, database.LevelSuper))
	assert.True(t, ValidParent(database.LevelSuper, database.LevelCompany))
	assert.False(t, ValidParent(database.LevelCompany, database.LevelCompany))
	assert.False(t, ValidParent(database.LevelReseller, database.LevelAffiliate))
	assert.False(t, ValidParent(database.LevelAffiliate, database.LevelSuper))
}
