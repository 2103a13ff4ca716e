package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/checkin-lab/backend/internal/entity"
	"github.com/checkin-lab/backend/internal/repository"
	"github.com/checkin-lab/backend/pkg/xcontext"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

type GlobalRoleVerifier struct {
	userRepo repository.UserRepository
}

func NewGlobalRoleVerifier(userRepo repository.UserRepository) *GlobalRoleVerifier {
	return &GlobalRoleVerifier{userRepo: userRepo}
}

func (verifier *GlobalRoleVerifier) Verify(ctx context.Context, requiredRoles ...entity.GlobalRole) error {
	userID := xcontext.RequestUserID(ctx)
	u, err := verifier.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("user is not valid")
	}

	if !slices.Contains(requiredRoles, u.Role) {
		return errors.New("user role does not have permission")
	}

	return nil
}

type CommunityRoleVerifier struct {
	communityRepo repository.CommunityRepository
	userRepo      repository.UserRepository
}

func NewCommunityRoleVerifier(
	communityRepo repository.CommunityRepository,
	userRepo repository.UserRepository,
) *CommunityRoleVerifier {
	return &CommunityRoleVerifier{
		communityRepo: communityRepo,
		userRepo:      userRepo,
	}
}

// Verify passes when the request user is a global admin or holds one of the
// required staff roles in the community.
func (verifier *CommunityRoleVerifier) Verify(
	ctx context.Context,
	communityID string,
	requiredRoles ...entity.StaffRole,
) error {
	userID := xcontext.RequestUserID(ctx)
	u, err := verifier.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("user is not valid")
	}

	if slices.Contains(entity.GlobalAdminRoles, u.Role) {
		return nil
	}

	staff, err := verifier.communityRepo.GetStaff(ctx, userID, communityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("user is not a staff of this community")
		}

		return err
	}

	if !slices.Contains(requiredRoles, staff.Role) {
		return errors.New("user role does not have permission")
	}

	return nil
}
