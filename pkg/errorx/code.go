package errorx

type Code int

const (
	// Common codes
	BadRequest       Code = 100001
	BadResponse      Code = 100002
	PermissionDenied Code = 100003
	NotFound         Code = 100004
	Unauthenticated  Code = 100005
	AlreadyExists    Code = 100006
	Internal         Code = 100007
	Unavailable      Code = 100008
	NotImplemented   Code = 100009
	TooManyRequests  Code = 100010

	// Check-in codes
	AlreadyChecked      Code = 200001
	OutsideCancelWindow Code = 200002

	// Verification codes
	CodeInvalid Code = 300001

	// Supervision codes
	SelfSupervision    Code = 400001
	InviteTokenExpired Code = 400002
)
