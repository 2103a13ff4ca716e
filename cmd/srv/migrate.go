package main

import (
	"errors"

	"github.com/checkin-lab/backend/internal/entity"
	"github.com/checkin-lab/backend/internal/repository"
	"github.com/checkin-lab/backend/pkg/xcontext"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

func (s *srv) startMigrate(*cli.Context) error {
	s.loadConfig()
	s.loadLogger()
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()

	return s.seedSystemCommunities()
}

// seedSystemCommunities makes sure the default and blackhouse communities
// exist. Safe to rerun.
func (s *srv) seedSystemCommunities() error {
	communityRepo := repository.NewCommunityRepository()

	if _, err := communityRepo.GetDefault(s.ctx); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		err = communityRepo.Create(s.ctx, &entity.Community{
			Base:      entity.Base{ID: uuid.NewString()},
			Name:      "Default",
			Status:    entity.CommunityEnabled,
			IsDefault: true,
		})
		if err != nil {
			return err
		}

		s.logger.Infof("Created the default community")
	}

	if _, err := communityRepo.GetByName(s.ctx, "Blackhouse"); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		err = communityRepo.Create(s.ctx, &entity.Community{
			Base:         entity.Base{ID: uuid.NewString()},
			Name:         "Blackhouse",
			Status:       entity.CommunityEnabled,
			IsBlackhouse: true,
		})
		if err != nil {
			return err
		}

		s.logger.Infof("Created the blackhouse community")
	}

	return nil
}
