// Package policy decides whether a principal may mutate beats and comments.
package policy

import (
	"beatmarket/internal/domain/entity"
	domainerrors "beatmarket/internal/domain/errors"
)

// CanModifyBeat reports whether p owns the beat or is an admin.
func CanModifyBeat(p entity.Principal, beat *entity.Beat) bool {
	return p.UserID == beat.OwnerUserID || p.IsAdmin()
}

// CanModifyComment additionally allows the comment's own author.
func CanModifyComment(p entity.Principal, comment *entity.Comment, beat *entity.Beat) bool {
	if p.UserID == comment.UserID {
		return true
	}
	if beat == nil {
		return p.IsAdmin()
	}

	return CanModifyBeat(p, beat)
}

// CheckBeatDeletion returns nil when p may delete a beat that has purchaseCount ledger entries.
// Purchased beats can never be deleted.
func CheckBeatDeletion(p entity.Principal, beat *entity.Beat, purchaseCount int64) error {
	if !CanModifyBeat(p, beat) {
		return domainerrors.ErrForbidden.WithDetails("only the owner or an admin can delete this beat")
	}
	if purchaseCount > 0 {
		return domainerrors.ErrBeatHasPurchases
	}

	return nil
}
