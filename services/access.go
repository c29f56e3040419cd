package services

import "github.com/Dosada05/bracket-manager/models"

// Operation is an entity operation an access check is made for.
type Operation string

const (
	OpView   Operation = "view"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// AccessResult is the outcome of a single access check. Neutral means the
// check had no opinion; it is treated as a denial unless something else allows.
type AccessResult int

const (
	AccessNeutral AccessResult = iota
	AccessAllowed
)

func (r AccessResult) IsAllowed() bool {
	return r == AccessAllowed
}

func allowedIfHasPermission(account models.Account, perm models.Permission) AccessResult {
	if account.HasPermission(perm) {
		return AccessAllowed
	}
	return AccessNeutral
}

// TournamentAccess решает, может ли аккаунт выполнить операцию над турниром.
// Право администрирования разрешает всё.
type TournamentAccess struct{}

func (TournamentAccess) Access(account models.Account, op Operation) AccessResult {
	if account.HasPermission(models.PermAdminister) {
		return AccessAllowed
	}
	switch op {
	case OpView:
		return allowedIfHasPermission(account, models.PermView)
	case OpUpdate:
		return allowedIfHasPermission(account, models.PermManage)
	case OpDelete:
		return allowedIfHasPermission(account, models.PermDelete)
	}
	return AccessNeutral
}

func (TournamentAccess) CreateAccess(account models.Account) AccessResult {
	if account.HasPermission(models.PermAdminister) {
		return AccessAllowed
	}
	return allowedIfHasPermission(account, models.PermAdd)
}

// ParticipantAccess grants participant operations to administrators only.
type ParticipantAccess struct{}

func (ParticipantAccess) Access(account models.Account, _ Operation) AccessResult {
	return allowedIfHasPermission(account, models.PermAdminister)
}

func (ParticipantAccess) CreateAccess(account models.Account) AccessResult {
	return allowedIfHasPermission(account, models.PermAdminister)
}

// QuickCreateAccess covers the participant modal of the tournament form:
// anyone who may create tournaments may add participants from it.
func (ParticipantAccess) QuickCreateAccess(account models.Account) AccessResult {
	if account.HasPermission(models.PermAdminister) {
		return AccessAllowed
	}
	return TournamentAccess{}.CreateAccess(account)
}

func requireAccess(result AccessResult) error {
	if !result.IsAllowed() {
		return ErrForbiddenOperation
	}
	return nil
}
