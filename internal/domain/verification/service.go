// Package verification issues and checks single-use phone codes. A code is
// stored hashed and salted, bound to its phone hash, expires after a
// configured TTL and is consumed on first successful verification.
package verification

import (
	"context"
	"errors"
	"strings"

	"github.com/checkin-lab/backend/internal/common"
	"github.com/checkin-lab/backend/internal/domain/ratelimit"
	"github.com/checkin-lab/backend/internal/entity"
	"github.com/checkin-lab/backend/internal/repository"
	"github.com/checkin-lab/backend/pkg/crypto"
	"github.com/checkin-lab/backend/pkg/sms"
	"github.com/checkin-lab/backend/pkg/xcontext"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"

	"github.com/google/uuid"
)

type Service struct {
	codeRepo repository.VerificationCodeRepository
	limiter  *ratelimit.Limiter
	sender   sms.Sender
}

func NewService(
	codeRepo repository.VerificationCodeRepository,
	limiter *ratelimit.Limiter,
	sender sms.Sender,
) *Service {
	return &Service{codeRepo: codeRepo, limiter: limiter, sender: sender}
}

// Issue generates a code for the phone, stores its hash replacing any prior
// row for the same (phone, purpose), and hands the plaintext to the SMS
// sender. The rate limit is enforced here so callers cannot bypass it.
func (s *Service) Issue(
	ctx context.Context, phone, ip string, purpose entity.VerificationPurpose,
) (string, error) {
	cfg := xcontext.Configs(ctx)
	phoneHash := crypto.HashPhone(phone, cfg.Auth.PhonePepper)

	if err := s.limiter.Check(ctx, phoneHash, ip); err != nil {
		return "", err
	}

	code := crypto.GenerateRandomDigits(cfg.Verification.CodeLength)
	salt := crypto.GenerateSalt()

	err := s.codeRepo.Upsert(ctx, &entity.VerificationCode{
		Base:      entity.Base{ID: uuid.NewString()},
		PhoneHash: phoneHash,
		Purpose:   purpose,
		CodeHash:  crypto.HashVerificationCode(phoneHash, code, salt),
		Salt:      salt,
		ExpiresAt: xcontext.Clock(ctx).Now().Add(cfg.Verification.CodeTTL),
		Used:      false,
	})
	if err != nil {
		return "", err
	}

	if err := s.sender.Send(ctx, phone, code); err != nil {
		return "", err
	}

	common.PromCounters[common.SmsCodesIssuedTotal].WithLabelValues(string(purpose)).Inc()

	return code, nil
}

// Verify accepts the code iff a current row exists for one of the purposes,
// is unused, unexpired, and the hash matches. On success the row is consumed
// in the same transaction; re-verification of the same code returns false.
//
// The purpose set is deliberate: a client that received a register code must
// be able to log in with it.
func (s *Service) Verify(
	ctx context.Context, phone, code string, purposes []entity.VerificationPurpose,
) (bool, error) {
	cfg := xcontext.Configs(ctx)

	if cfg.Verification.UseMockSms {
		return mockVerify(code), nil
	}

	phoneHash := crypto.HashPhone(phone, cfg.Auth.PhonePepper)

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	rows, err := s.codeRepo.GetCurrentAny(ctx, phoneHash, purposes)
	if err != nil {
		return false, err
	}

	now := xcontext.Clock(ctx).Now()
	for _, row := range rows {
		if row.Used || now.After(row.ExpiresAt) {
			continue
		}

		if !slices.Contains(purposes, row.Purpose) {
			continue
		}

		if crypto.HashVerificationCode(phoneHash, code, row.Salt) != row.CodeHash {
			continue
		}

		if err := s.codeRepo.MarkUsed(ctx, row.ID); err != nil {
			// A concurrent verification consumed the row first.
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}

			return false, err
		}

		xcontext.WithCommitDBTransaction(ctx)
		return true, nil
	}

	return false, nil
}

// mockRejectList holds codes the development short-circuit always rejects, so
// failure paths stay testable without a real SMS provider.
var mockRejectList = []string{"000000", "999999", "12345", "abcdef", "null"}

func mockVerify(code string) bool {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return false
	}

	return !slices.Contains(mockRejectList, trimmed)
}
