package config

import (
	"fmt"
	"time"
)

type Configs struct {
	Env string

	Database     DatabaseConfigs
	ApiServer    ServerConfigs
	Auth         AuthConfigs
	Redis        RedisConfigs
	Storage      S3Configs
	File         FileConfigs
	Checkin      CheckinConfigs
	Verification VerificationConfigs
	Supervision  SupervisionConfigs
	SmsLimits    SmsLimitConfigs
}

type DatabaseConfigs struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

func (d DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type ServerConfigs struct {
	Host string
	Port string
	Cert string
	Key  string
}

type AuthConfigs struct {
	TokenSecret string
	AccessToken TokenConfigs

	// PhonePepper keys the phone-number hash. Raw phone numbers are never
	// stored, only this hash and a masked display form.
	PhonePepper string

	WeChat WeChatConfigs
}

type WeChatConfigs struct {
	AppID     string
	AppSecret string
}

type TokenConfigs struct {
	Name       string
	Expiration time.Duration
}

type RedisConfigs struct {
	Addr string
}

type S3Configs struct {
	Region         string
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
	SSLDisabled    bool
}

type FileConfigs struct {
	MaxSize int64
}

type CheckinConfigs struct {
	// CancelWindow is how long after a successful check-in the owner may still
	// revoke it.
	CancelWindow time.Duration

	// SweepInterval is the tick period of the missed sweeper.
	SweepInterval time.Duration

	// Grace is added to the planned time before a record is marked missed.
	Grace time.Duration
}

type VerificationConfigs struct {
	CodeTTL    time.Duration
	CodeLength uint

	// UseMockSms switches Verify to the development short-circuit. Never set
	// together with a real SMS sender.
	UseMockSms bool
}

type SupervisionConfigs struct {
	InviteTTL time.Duration
}

type SmsLimitConfigs struct {
	PhoneHour    LimitConfigs
	PhoneDay     LimitConfigs
	IPHour       LimitConfigs
	GlobalMinute LimitConfigs
}

type LimitConfigs struct {
	Limit  int
	Window time.Duration
}

// DefaultSmsLimits is the four-row limit table applied to code issuance unless
// overridden by the environment.
func DefaultSmsLimits() SmsLimitConfigs {
	return SmsLimitConfigs{
		PhoneHour:    LimitConfigs{Limit: 3, Window: time.Hour},
		PhoneDay:     LimitConfigs{Limit: 10, Window: 24 * time.Hour},
		IPHour:       LimitConfigs{Limit: 10, Window: time.Hour},
		GlobalMinute: LimitConfigs{Limit: 100, Window: time.Minute},
	}
}
