package domain

import (
	"testing"

	"github.com/checkin-lab/backend/internal/common"
	"github.com/checkin-lab/backend/internal/entity"
	"github.com/checkin-lab/backend/internal/model"
	"github.com/checkin-lab/backend/internal/repository"
	"github.com/checkin-lab/backend/pkg/errorx"
	"github.com/checkin-lab/backend/pkg/storage"
	"github.com/checkin-lab/backend/pkg/testutil"
	"github.com/checkin-lab/backend/pkg/xcontext"

	"github.com/stretchr/testify/require"
)

func newCommunityDomain() *communityDomain {
	communityRepo := repository.NewCommunityRepository()
	userRepo := repository.NewUserRepository()
	return NewCommunityDomain(
		communityRepo,
		userRepo,
		repository.NewRuleRepository(),
		common.NewGlobalRoleVerifier(userRepo),
		common.NewCommunityRoleVerifier(communityRepo, userRepo),
		storage.NewMockStorage(),
	)
}

func Test_communityDomain_Create(t *testing.T) {
	ctx := testutil.NewMockContextWithUserID(testutil.SuperAdmin.ID)
	domain := newCommunityDomain()

	resp, err := domain.Create(ctx, &model.CreateCommunityRequest{Name: "Night Shift"})
	require.NoError(t, err)

	var community entity.Community
	tx := xcontext.DB(ctx).Take(&community, "id=?", resp.ID)
	require.NoError(t, tx.Error)
	require.Equal(t, "Night Shift", community.Name)
	require.Equal(t, entity.CommunityEnabled, community.Status)
	require.Equal(t, testutil.SuperAdmin.ID, community.CreatedBy)

	// Names are unique.
	_, err = domain.Create(ctx, &model.CreateCommunityRequest{Name: "Night Shift"})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.AlreadyExists, errx.Code)

	// Normal users cannot create communities.
	ctx2 := testutil.NewMockContextWithUserID(testutil.User1.ID)
	_, err = domain.Create(ctx2, &model.CreateCommunityRequest{Name: "Another"})
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.PermissionDenied, errx.Code)
}

func Test_communityDomain_Disable(t *testing.T) {
	ctx := testutil.NewMockContextWithUserID(testutil.SuperAdmin.ID)
	domain := newCommunityDomain()

	_, err := domain.Disable(ctx, &model.DisableCommunityRequest{ID: testutil.Community2.ID})
	require.NoError(t, err)

	var community entity.Community
	tx := xcontext.DB(ctx).Take(&community, "id=?", testutil.Community2.ID)
	require.NoError(t, tx.Error)
	require.Equal(t, entity.CommunityDisabled, community.Status)

	// The default community is a system one and cannot go away.
	_, err = domain.Disable(ctx, &model.DisableCommunityRequest{ID: testutil.Community1.ID})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.Unavailable, errx.Code)
}

func Test_communityDomain_AssignStaff(t *testing.T) {
	ctx := testutil.NewMockContextWithUserID(testutil.SuperAdmin.ID)
	domain := newCommunityDomain()

	// Community1 already has a manager from the fixtures.
	_, err := domain.AssignStaff(ctx, &model.AssignStaffRequest{
		CommunityID: testutil.Community1.ID,
		UserID:      testutil.User2.ID,
		Role:        string(entity.StaffRoleManager),
	})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.AlreadyExists, errx.Code)

	_, err = domain.AssignStaff(ctx, &model.AssignStaffRequest{
		CommunityID: testutil.Community2.ID,
		UserID:      testutil.User2.ID,
		Role:        string(entity.StaffRoleManager),
	})
	require.NoError(t, err)

	// The manager of Community1 adds staff to their own community only.
	ctxManager := testutil.NewMockContextWithUserID(testutil.Manager1.ID)
	_, err = domain.AssignStaff(ctxManager, &model.AssignStaffRequest{
		CommunityID: testutil.Community1.ID,
		UserID:      testutil.User1.ID,
		Role:        string(entity.StaffRoleStaff),
	})
	require.NoError(t, err)

	_, err = domain.AssignStaff(ctxManager, &model.AssignStaffRequest{
		CommunityID: testutil.Community2.ID,
		UserID:      testutil.User1.ID,
		Role:        string(entity.StaffRoleStaff),
	})
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.PermissionDenied, errx.Code)

	// Normal users cannot assign anyone.
	ctxUser := testutil.NewMockContextWithUserID(testutil.User1.ID)
	_, err = domain.AssignStaff(ctxUser, &model.AssignStaffRequest{
		CommunityID: testutil.Community1.ID,
		UserID:      testutil.User2.ID,
		Role:        string(entity.StaffRoleStaff),
	})
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.PermissionDenied, errx.Code)
}

func Test_communityDomain_Join(t *testing.T) {
	ctx := testutil.NewMockContextWithUserID(testutil.User1.ID)
	domain := newCommunityDomain()

	// User1 starts in Community1 with an active mapping to its rule.
	_, err := domain.Join(ctx, &model.JoinCommunityRequest{CommunityID: testutil.Community2.ID})
	require.NoError(t, err)

	var user entity.User
	tx := xcontext.DB(ctx).Take(&user, "id=?", testutil.User1.ID)
	require.NoError(t, tx.Error)
	require.Equal(t, testutil.Community2.ID, user.CurrentCommunityID.String)
	require.True(t, user.CommunityJoinedAt.Valid)

	// Leaving deactivated the old community's rule mapping.
	var mapping entity.UserCommunityRuleMapping
	tx = xcontext.DB(ctx).Take(&mapping,
		"user_id=? AND community_rule_id=?", testutil.User1.ID, testutil.CommunityRule1.ID)
	require.NoError(t, tx.Error)
	require.False(t, mapping.IsActive)
}

func Test_communityDomain_Join_sameCommunity(t *testing.T) {
	ctx := testutil.NewMockContextWithUserID(testutil.User1.ID)
	domain := newCommunityDomain()

	// Joining the community the user is already in changes nothing.
	_, err := domain.Join(ctx, &model.JoinCommunityRequest{CommunityID: testutil.Community1.ID})
	require.NoError(t, err)

	var mapping entity.UserCommunityRuleMapping
	tx := xcontext.DB(ctx).Take(&mapping,
		"user_id=? AND community_rule_id=?", testutil.User1.ID, testutil.CommunityRule1.ID)
	require.NoError(t, tx.Error)
	require.True(t, mapping.IsActive)
}

func Test_communityDomain_Join_disabledCommunity(t *testing.T) {
	ctx := testutil.NewMockContextWithUserID(testutil.SuperAdmin.ID)
	domain := newCommunityDomain()

	_, err := domain.Disable(ctx, &model.DisableCommunityRequest{ID: testutil.Community2.ID})
	require.NoError(t, err)

	ctx2 := xcontext.WithRequestUserID(ctx, testutil.User1.ID)
	_, err = domain.Join(ctx2, &model.JoinCommunityRequest{CommunityID: testutil.Community2.ID})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.Unavailable, errx.Code)
}

func Test_communityDomain_ChangeCommunity(t *testing.T) {
	ctx := testutil.NewMockContextWithUserID(testutil.Manager1.ID)
	domain := newCommunityDomain()

	_, err := domain.ChangeCommunity(ctx, &model.ChangeCommunityRequest{
		UserID:      testutil.User1.ID,
		CommunityID: testutil.Community2.ID,
	})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	// Manager1 manages Community1, not the target community.
	require.Equal(t, errorx.PermissionDenied, errx.Code)

	// A super admin passes the role check for any community.
	ctxAdmin := xcontext.WithRequestUserID(ctx, testutil.SuperAdmin.ID)
	_, err = domain.ChangeCommunity(ctxAdmin, &model.ChangeCommunityRequest{
		UserID:      testutil.User1.ID,
		CommunityID: testutil.Community2.ID,
	})
	require.NoError(t, err)

	var user entity.User
	tx := xcontext.DB(ctx).Take(&user, "id=?", testutil.User1.ID)
	require.NoError(t, tx.Error)
	require.Equal(t, testutil.Community2.ID, user.CurrentCommunityID.String)
}

func Test_communityDomain_GetList(t *testing.T) {
	ctx := testutil.NewMockContext()
	domain := newCommunityDomain()

	resp, err := domain.GetList(ctx, &model.GetCommunitiesRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Communities, 2)
}
