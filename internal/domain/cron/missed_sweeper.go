package cron

import (
	"context"
	"time"

	"github.com/checkin-lab/backend/internal/common"
	"github.com/checkin-lab/backend/internal/domain"
	"github.com/checkin-lab/backend/internal/domain/schedule"
	"github.com/checkin-lab/backend/internal/entity"
	"github.com/checkin-lab/backend/internal/repository"
	"github.com/checkin-lab/backend/pkg/xcontext"
)

const sweeperBatchSize = 100

// MissedSweeperCronJob walks active rules every tick and materializes missed
// records for obligations whose planned time plus grace has passed without a
// check-in. It is idempotent per (rule, user, day); run exactly one instance
// per deployment.
type MissedSweeperCronJob struct {
	ruleRepo   repository.RuleRepository
	recordRepo repository.CheckinRecordRepository
	interval   time.Duration
}

func NewMissedSweeperCronJob(
	ruleRepo repository.RuleRepository,
	recordRepo repository.CheckinRecordRepository,
	interval time.Duration,
) *MissedSweeperCronJob {
	return &MissedSweeperCronJob{
		ruleRepo:   ruleRepo,
		recordRepo: recordRepo,
		interval:   interval,
	}
}

func (job *MissedSweeperCronJob) Do(ctx context.Context) {
	now := xcontext.Clock(ctx).Now()
	today := xcontext.Clock(ctx).Today()
	grace := xcontext.Configs(ctx).Checkin.Grace

	err := job.ruleRepo.IterateActivePersonal(ctx, sweeperBatchSize,
		func(rules []entity.PersonalRule) error {
			for i := range rules {
				job.sweepRule(ctx, rules[i].RuleSpec,
					entity.PersonalRuleRef(rules[i].ID), []string{rules[i].UserID}, now, today, grace)
			}
			return nil
		})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot iterate personal rules: %v", err)
	}

	err = job.ruleRepo.IterateActiveCommunity(ctx, sweeperBatchSize,
		func(rules []entity.CommunityRule) error {
			for i := range rules {
				userIDs, err := job.ruleRepo.ActiveMappingUserIDs(ctx, rules[i].ID)
				if err != nil {
					xcontext.Logger(ctx).Warnf("Cannot get users of rule %s: %v", rules[i].ID, err)
					continue
				}

				job.sweepRule(ctx, rules[i].RuleSpec,
					entity.CommunityRuleRef(rules[i].ID), userIDs, now, today, grace)
			}
			return nil
		})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot iterate community rules: %v", err)
	}
}

// sweepRule logs and swallows per-user failures so one bad row cannot stall
// the sweep.
func (job *MissedSweeperCronJob) sweepRule(
	ctx context.Context,
	spec entity.RuleSpec,
	ref entity.RuleRef,
	userIDs []string,
	now, today time.Time,
	grace time.Duration,
) {
	if !schedule.IsObligationDay(spec, today) {
		return
	}

	planned := schedule.PlannedTime(ctx, spec, today)
	if now.Before(planned.Add(grace)) {
		return
	}

	for _, userID := range userIDs {
		marked, err := domain.MarkMissed(ctx, job.recordRepo, ref, userID, planned)
		if err != nil {
			xcontext.Logger(ctx).Warnf(
				"Cannot mark missed for rule %s user %s: %v", ref.ID, userID, err)
			continue
		}

		if marked {
			common.PromCounters[common.MissedRecordsTotal].
				WithLabelValues(string(ref.Type)).Inc()
		}
	}
}

func (job *MissedSweeperCronJob) RunNow() bool {
	return true
}

func (job *MissedSweeperCronJob) Next() time.Time {
	return time.Now().Add(job.interval)
}
