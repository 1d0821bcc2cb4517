package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportStatusValid(t *testing.T) {
	for _, s := range []ReportStatus{StatusPending, StatusChanneled, StatusInProgress, StatusResolved} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, ReportStatus("DONE").Valid())
	assert.False(t, ReportStatus("pending").Valid(), "statuses are upper case")
	assert.False(t, ReportStatus("").Valid())
}

func TestValidReportCategory(t *testing.T) {
	for _, c := range ReportCategories {
		assert.True(t, ValidReportCategory(c.ID), c.ID)
	}
	assert.False(t, ValidReportCategory("ovni"))
	assert.False(t, ValidReportCategory(""))
}

func TestRoleNameValid(t *testing.T) {
	for _, r := range []RoleName{RoleSuperadmin, RoleAdmin, RoleOperator, RoleCitizen} {
		assert.True(t, r.Valid(), string(r))
	}
	assert.False(t, RoleName("intern").Valid())
}

func TestDashboardRolesExcludeCitizen(t *testing.T) {
	assert.NotContains(t, DashboardRoles, RoleCitizen)
	assert.Len(t, DashboardRoles, 3)
}
