package domain

import (
	"testing"

	"github.com/checkin-lab/backend/internal/entity"
	"github.com/checkin-lab/backend/internal/model"
	"github.com/checkin-lab/backend/internal/repository"
	"github.com/checkin-lab/backend/pkg/errorx"
	"github.com/checkin-lab/backend/pkg/testutil"
	"github.com/checkin-lab/backend/pkg/xcontext"

	"github.com/stretchr/testify/require"
)

func Test_userDomain_GetMe(t *testing.T) {
	ctx := testutil.NewMockContextWithUserID(testutil.User1.ID)
	domain := NewUserDomain(repository.NewUserRepository())

	resp, err := domain.GetMe(ctx, &model.GetMeRequest{})
	require.NoError(t, err)
	require.Equal(t, testutil.User1.ID, resp.ID)
	require.Equal(t, testutil.User1.Name, resp.Name)
	require.Equal(t, testutil.Community1.ID, resp.CurrentCommunityID)

	// The phone is only ever exposed masked.
	require.Equal(t, "138****8000", resp.Phone)
}

func Test_userDomain_UpdateName(t *testing.T) {
	ctx := testutil.NewMockContextWithUserID(testutil.User1.ID)
	domain := NewUserDomain(repository.NewUserRepository())

	_, err := domain.UpdateName(ctx, &model.UpdateNameRequest{Name: "Renamed"})
	require.NoError(t, err)

	var user entity.User
	tx := xcontext.DB(ctx).Take(&user, "id=?", testutil.User1.ID)
	require.NoError(t, tx.Error)
	require.Equal(t, "Renamed", user.Name)

	_, err = domain.UpdateName(ctx, &model.UpdateNameRequest{Name: ""})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.BadRequest, errx.Code)
}
