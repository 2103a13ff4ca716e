package model

import (
	"time"

	"github.com/checkin-lab/backend/internal/entity"
)

const dateLayout = "2006-01-02"

func ConvertCheckinRecord(record *entity.CheckinRecord) CheckinRecord {
	ref := record.RuleRef()

	result := CheckinRecord{
		ID:          record.ID,
		UserID:      record.UserID,
		RuleType:    string(ref.Type),
		RuleID:      ref.ID,
		Date:        record.Date.Format(dateLayout),
		PlannedTime: record.PlannedTime.Format(time.RFC3339),
		Status:      string(record.Status),
	}

	if record.CheckinTime.Valid {
		result.CheckinTime = record.CheckinTime.Time.Format(time.RFC3339)
	}

	return result
}

func ConvertPersonalRule(rule *entity.PersonalRule) Rule {
	result := convertRuleSpec(rule.RuleSpec)
	result.ID = rule.ID
	result.Type = string(entity.RulePersonal)
	result.OwnerID = rule.UserID
	return result
}

func ConvertCommunityRule(rule *entity.CommunityRule) Rule {
	result := convertRuleSpec(rule.RuleSpec)
	result.ID = rule.ID
	result.Type = string(entity.RuleCommunity)
	result.OwnerID = rule.CommunityID
	return result
}

func convertRuleSpec(spec entity.RuleSpec) Rule {
	result := Rule{
		Name:      spec.Name,
		Icon:      spec.Icon,
		Frequency: string(spec.Frequency),
		WeekDays:  spec.WeekDays,
		TimeSlot:  string(spec.TimeSlot),
		Status:    string(spec.Status),
	}

	if spec.CustomTime.Valid {
		result.CustomTime = spec.CustomTime.String
	}

	if spec.CustomStartDate.Valid {
		result.CustomStartDate = spec.CustomStartDate.Time.Format(dateLayout)
	}

	if spec.CustomEndDate.Valid {
		result.CustomEndDate = spec.CustomEndDate.Time.Format(dateLayout)
	}

	return result
}

func ConvertUser(user *entity.User) User {
	result := User{
		ID:       user.ID,
		Name:     user.Name,
		Role:     string(user.Role),
		Verified: user.Verified,

		// Display is always the masked form, regardless of how the account
		// was registered.
		Phone: user.PhoneMasked,
	}

	if user.CurrentCommunityID.Valid {
		result.CurrentCommunityID = user.CurrentCommunityID.String
	}

	if user.CommunityJoinedAt.Valid {
		result.CommunityJoinedAt = user.CommunityJoinedAt.Time.Format(time.RFC3339)
	}

	return result
}

func ConvertCommunity(community *entity.Community) Community {
	return Community{
		ID:           community.ID,
		Name:         community.Name,
		Status:       string(community.Status),
		IsDefault:    community.IsDefault,
		IsBlackhouse: community.IsBlackhouse,
		LogoPicture:  community.LogoPicture,
	}
}

func ConvertSupervisionLink(link *entity.SupervisionLink) SupervisionLink {
	result := SupervisionLink{
		ID:            link.ID,
		SubjectUserID: link.SubjectUserID,
		Status:        string(link.Status),
	}

	if link.ObserverUserID.Valid {
		result.ObserverUserID = link.ObserverUserID.String
	}

	if ref, ok := link.Rule(); ok {
		result.RuleType = string(ref.Type)
		result.RuleID = ref.ID
	}

	return result
}
