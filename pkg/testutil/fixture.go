package testutil

import (
	"context"
	"database/sql"

	"github.com/checkin-lab/backend/internal/entity"
	"github.com/checkin-lab/backend/internal/repository"
	"github.com/checkin-lab/backend/pkg/crypto"
	"github.com/checkin-lab/backend/pkg/xcontext"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Fixture entities available in every mock context. Tests reference them by
// these variables instead of magic strings.
var (
	User1 = entity.User{
		Base:        entity.Base{ID: "user1"},
		Name:        "User One",
		PhoneHash:   sql.NullString{String: crypto.HashPhone("13800138000", "pepper"), Valid: true},
		PhoneMasked: "138****8000",
		Role:        entity.RoleNormal,
		Verified:    true,
		CurrentCommunityID: sql.NullString{
			String: "community1", Valid: true,
		},
	}

	User2 = entity.User{
		Base: entity.Base{ID: "user2"},
		Name: "User Two",
		Role: entity.RoleNormal,
	}

	Manager1 = entity.User{
		Base: entity.Base{ID: "manager1"},
		Name: "Manager One",
		Role: entity.RoleNormal,
	}

	SuperAdmin = entity.User{
		Base: entity.Base{ID: "super_admin"},
		Name: "Super Admin",
		Role: entity.RoleSuperAdmin,
	}

	Community1 = entity.Community{
		Base:      entity.Base{ID: "community1"},
		Name:      "Community One",
		Status:    entity.CommunityEnabled,
		CreatedBy: SuperAdmin.ID,
		IsDefault: true,
	}

	Community2 = entity.Community{
		Base:      entity.Base{ID: "community2"},
		Name:      "Community Two",
		Status:    entity.CommunityEnabled,
		CreatedBy: SuperAdmin.ID,
	}

	PersonalRule1 = entity.PersonalRule{
		Base: entity.Base{ID: "personal_rule1"},
		RuleSpec: entity.RuleSpec{
			Name:      "Morning run",
			Frequency: entity.FrequencyDaily,
			TimeSlot:  entity.TimeSlotMorning,
			Status:    entity.RuleActive,
		},
		UserID: User1.ID,
	}

	CommunityRule1 = entity.CommunityRule{
		Base: entity.Base{ID: "community_rule1"},
		RuleSpec: entity.RuleSpec{
			Name:      "Evening report",
			Frequency: entity.FrequencyDaily,
			TimeSlot:  entity.TimeSlotEvening,
			Status:    entity.RuleActive,
		},
		CommunityID: Community1.ID,
		CreatedBy:   Manager1.ID,
	}
)

// CreateFixtureDb opens an in-memory sqlite database, migrates the schema and
// loads the fixtures above.
func CreateFixtureDb() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	ctx := xcontext.WithDB(context.Background(), db)
	if err := entity.MigrateTable(ctx); err != nil {
		panic(err)
	}

	insertUsers(ctx)
	insertCommunities(ctx)
	insertRules(ctx)

	return db
}

func insertUsers(ctx context.Context) {
	userRepo := repository.NewUserRepository()

	for _, user := range []entity.User{User1, User2, Manager1, SuperAdmin} {
		if err := userRepo.Create(ctx, &user); err != nil {
			panic(err)
		}
	}
}

func insertCommunities(ctx context.Context) {
	communityRepo := repository.NewCommunityRepository()

	for _, community := range []entity.Community{Community1, Community2} {
		if err := communityRepo.Create(ctx, &community); err != nil {
			panic(err)
		}
	}

	err := communityRepo.AssignStaff(ctx, &entity.CommunityStaff{
		UserID:      Manager1.ID,
		CommunityID: Community1.ID,
		Role:        entity.StaffRoleManager,
	})
	if err != nil {
		panic(err)
	}
}

func insertRules(ctx context.Context) {
	ruleRepo := repository.NewRuleRepository()

	if err := ruleRepo.CreatePersonal(ctx, &PersonalRule1); err != nil {
		panic(err)
	}

	if err := ruleRepo.CreateCommunity(ctx, &CommunityRule1); err != nil {
		panic(err)
	}

	if err := ruleRepo.UpsertMapping(ctx, User1.ID, CommunityRule1.ID, true); err != nil {
		panic(err)
	}
}
