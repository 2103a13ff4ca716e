package entity

import (
	"context"

	"github.com/checkin-lab/backend/pkg/xcontext"
)

func MigrateTable(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&User{},
		&Community{},
		&CommunityStaff{},
		&PersonalRule{},
		&CommunityRule{},
		&UserCommunityRuleMapping{},
		&CheckinRecord{},
		&SupervisionLink{},
		&VerificationCode{},
	)
}
