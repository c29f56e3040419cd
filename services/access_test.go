package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dosada05/bracket-manager/models"
)

func TestTournamentAccess(t *testing.T) {
	access := TournamentAccess{}
	tests := []struct {
		name    string
		account models.Account
		op      Operation
		want    bool
	}{
		{"admin view", adminAccount, OpView, true},
		{"admin update", adminAccount, OpUpdate, true},
		{"admin unknown op", adminAccount, Operation("publish"), true},
		{"editor update", editorAccount, OpUpdate, true},
		{"editor delete", editorAccount, OpDelete, true},
		{"editor unknown op", editorAccount, Operation("publish"), false},
		{"viewer view", viewerAccount, OpView, true},
		{"viewer update", viewerAccount, OpUpdate, false},
		{"viewer delete", viewerAccount, OpDelete, false},
		{"anonymous view", anonymous, OpView, false},
		{"anonymous with view permission", models.AnonymousAccount(models.PermView), OpView, true},
		{"manage only cannot delete", models.NewAccount(9, "", models.PermManage), OpDelete, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, access.Access(tt.account, tt.op).IsAllowed())
		})
	}
}

func TestTournamentCreateAccess(t *testing.T) {
	access := TournamentAccess{}
	assert.True(t, access.CreateAccess(adminAccount).IsAllowed())
	assert.True(t, access.CreateAccess(editorAccount).IsAllowed())
	assert.False(t, access.CreateAccess(viewerAccount).IsAllowed())
	assert.False(t, access.CreateAccess(anonymous).IsAllowed())
}

func TestParticipantAccess(t *testing.T) {
	access := ParticipantAccess{}
	assert.True(t, access.Access(adminAccount, OpDelete).IsAllowed())
	assert.True(t, access.CreateAccess(adminAccount).IsAllowed())
	assert.False(t, access.Access(editorAccount, OpView).IsAllowed())
	assert.False(t, access.CreateAccess(editorAccount).IsAllowed())

	assert.True(t, access.QuickCreateAccess(editorAccount).IsAllowed())
	assert.False(t, access.QuickCreateAccess(viewerAccount).IsAllowed())
}
