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

func newRuleDomain() *ruleDomain {
	communityRepo := repository.NewCommunityRepository()
	return NewRuleDomain(
		repository.NewRuleRepository(),
		communityRepo,
		common.NewCommunityRoleVerifier(communityRepo, repository.NewUserRepository()),
		storage.NewMockStorage(),
	)
}

func Test_ruleDomain_CreatePersonal(t *testing.T) {
	ctx := testutil.NewMockContextWithUserID(testutil.User1.ID)
	domain := newRuleDomain()

	resp, err := domain.CreatePersonal(ctx, &model.CreatePersonalRuleRequest{
		Name:      "Night walk",
		Frequency: string(entity.FrequencyWeekly),
		WeekDays:  0b0010100, // Wednesday and Friday
		TimeSlot:  string(entity.TimeSlotCustom),
		CustomTime: "21:30",
	})
	require.NoError(t, err)

	var rule entity.PersonalRule
	tx := xcontext.DB(ctx).Take(&rule, "id=?", resp.ID)
	require.NoError(t, tx.Error)
	require.Equal(t, testutil.User1.ID, rule.UserID)
	require.Equal(t, entity.RuleActive, rule.Status)
	require.Equal(t, uint8(0b0010100), rule.WeekDays)
	require.Equal(t, "21:30", rule.CustomTime.String)
}

func Test_ruleDomain_CreatePersonal_validation(t *testing.T) {
	ctx := testutil.NewMockContextWithUserID(testutil.User1.ID)
	domain := newRuleDomain()

	tests := []struct {
		name string
		req  model.CreatePersonalRuleRequest
	}{
		{
			name: "empty name",
			req: model.CreatePersonalRuleRequest{
				Frequency: string(entity.FrequencyDaily),
				TimeSlot:  string(entity.TimeSlotMorning),
			},
		},
		{
			name: "unknown frequency",
			req: model.CreatePersonalRuleRequest{
				Name:      "x",
				Frequency: "fortnightly",
				TimeSlot:  string(entity.TimeSlotMorning),
			},
		},
		{
			name: "weekly without any day",
			req: model.CreatePersonalRuleRequest{
				Name:      "x",
				Frequency: string(entity.FrequencyWeekly),
				TimeSlot:  string(entity.TimeSlotMorning),
			},
		},
		{
			name: "weekly with out-of-range mask",
			req: model.CreatePersonalRuleRequest{
				Name:      "x",
				Frequency: string(entity.FrequencyWeekly),
				WeekDays:  0xff,
				TimeSlot:  string(entity.TimeSlotMorning),
			},
		},
		{
			name: "custom range with end before start",
			req: model.CreatePersonalRuleRequest{
				Name:            "x",
				Frequency:       string(entity.FrequencyCustomRange),
				TimeSlot:        string(entity.TimeSlotMorning),
				CustomStartDate: "2023-06-20",
				CustomEndDate:   "2023-06-10",
			},
		},
		{
			name: "custom slot with malformed time",
			req: model.CreatePersonalRuleRequest{
				Name:       "x",
				Frequency:  string(entity.FrequencyDaily),
				TimeSlot:   string(entity.TimeSlotCustom),
				CustomTime: "late evening",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.CreatePersonal(ctx, &tt.req)
			var errx errorx.Error
			require.ErrorAs(t, err, &errx)
			require.Equal(t, errorx.BadRequest, errx.Code)
		})
	}
}

func Test_ruleDomain_UpdateAndDeletePersonal(t *testing.T) {
	ctx := testutil.NewMockContextWithUserID(testutil.User1.ID)
	domain := newRuleDomain()

	_, err := domain.UpdatePersonal(ctx, &model.UpdatePersonalRuleRequest{
		ID: testutil.PersonalRule1.ID,
		CreatePersonalRuleRequest: model.CreatePersonalRuleRequest{
			Name:      "Morning swim",
			Frequency: string(entity.FrequencyWeekdays),
			TimeSlot:  string(entity.TimeSlotMorning),
		},
	})
	require.NoError(t, err)

	var rule entity.PersonalRule
	tx := xcontext.DB(ctx).Take(&rule, "id=?", testutil.PersonalRule1.ID)
	require.NoError(t, tx.Error)
	require.Equal(t, "Morning swim", rule.Name)
	require.Equal(t, entity.FrequencyWeekdays, rule.Frequency)

	// Only the owner may touch the rule.
	ctx2 := xcontext.WithRequestUserID(ctx, testutil.User2.ID)
	_, err = domain.DeletePersonal(ctx2, &model.DeletePersonalRuleRequest{
		ID: testutil.PersonalRule1.ID,
	})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.PermissionDenied, errx.Code)

	_, err = domain.DeletePersonal(ctx, &model.DeletePersonalRuleRequest{
		ID: testutil.PersonalRule1.ID,
	})
	require.NoError(t, err)

	tx = xcontext.DB(ctx).Take(&rule, "id=?", testutil.PersonalRule1.ID)
	require.NoError(t, tx.Error)
	require.Equal(t, entity.RuleDeleted, rule.Status)

	// A deleted rule behaves as gone.
	_, err = domain.DeletePersonal(ctx, &model.DeletePersonalRuleRequest{
		ID: testutil.PersonalRule1.ID,
	})
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.NotFound, errx.Code)
}

func Test_ruleDomain_GetMyRules(t *testing.T) {
	ctx := testutil.NewMockContextWithUserID(testutil.User1.ID)
	domain := newRuleDomain()

	resp, err := domain.GetMyRules(ctx, &model.GetMyRulesRequest{})
	require.NoError(t, err)
	require.Len(t, resp.PersonalRules, 1)
	require.Equal(t, testutil.PersonalRule1.ID, resp.PersonalRules[0].ID)
	require.Len(t, resp.CommunityRules, 1)
	require.Equal(t, testutil.CommunityRule1.ID, resp.CommunityRules[0].ID)

	// User2 has no rules at all.
	ctx2 := testutil.NewMockContextWithUserID(testutil.User2.ID)
	resp, err = domain.GetMyRules(ctx2, &model.GetMyRulesRequest{})
	require.NoError(t, err)
	require.Empty(t, resp.PersonalRules)
	require.Empty(t, resp.CommunityRules)
}

func Test_ruleDomain_CreateCommunity(t *testing.T) {
	ctx := testutil.NewMockContextWithUserID(testutil.Manager1.ID)
	domain := newRuleDomain()

	resp, err := domain.CreateCommunity(ctx, &model.CreateCommunityRuleRequest{
		CommunityID: testutil.Community1.ID,
		CreatePersonalRuleRequest: model.CreatePersonalRuleRequest{
			Name:      "Weekly sync",
			Frequency: string(entity.FrequencyWeekly),
			WeekDays:  1 << 0,
			TimeSlot:  string(entity.TimeSlotAfternoon),
		},
	})
	require.NoError(t, err)

	// Every current member of the community is mapped to the new rule.
	var mapping entity.UserCommunityRuleMapping
	tx := xcontext.DB(ctx).Take(&mapping,
		"user_id=? AND community_rule_id=?", testutil.User1.ID, resp.ID)
	require.NoError(t, tx.Error)
	require.True(t, mapping.IsActive)

	// A normal member cannot create community rules.
	ctx2 := testutil.NewMockContextWithUserID(testutil.User1.ID)
	_, err = domain.CreateCommunity(ctx2, &model.CreateCommunityRuleRequest{
		CommunityID: testutil.Community1.ID,
		CreatePersonalRuleRequest: model.CreatePersonalRuleRequest{
			Name:      "Sneaky rule",
			Frequency: string(entity.FrequencyDaily),
			TimeSlot:  string(entity.TimeSlotMorning),
		},
	})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.PermissionDenied, errx.Code)
}

func Test_ruleDomain_UpdateCommunityStatus(t *testing.T) {
	ctx := testutil.NewMockContextWithUserID(testutil.Manager1.ID)
	domain := newRuleDomain()

	_, err := domain.UpdateCommunityStatus(ctx, &model.UpdateCommunityRuleStatusRequest{
		ID:     testutil.CommunityRule1.ID,
		Status: string(entity.RuleDisabled),
	})
	require.NoError(t, err)

	var rule entity.CommunityRule
	tx := xcontext.DB(ctx).Take(&rule, "id=?", testutil.CommunityRule1.ID)
	require.NoError(t, tx.Error)
	require.Equal(t, entity.RuleDisabled, rule.Status)

	ctx2 := xcontext.WithRequestUserID(ctx, testutil.User1.ID)
	_, err = domain.UpdateCommunityStatus(ctx2, &model.UpdateCommunityRuleStatusRequest{
		ID:     testutil.CommunityRule1.ID,
		Status: string(entity.RuleActive),
	})
	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.PermissionDenied, errx.Code)
}
