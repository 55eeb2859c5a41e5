package routing

import "errors"

var (
	// ErrUnknownRequestType is returned when a request type string cannot be parsed
	ErrUnknownRequestType = errors.New("unknown request type")

	// ErrUnknownStrategy is returned when a routing strategy string cannot be parsed
	ErrUnknownStrategy = errors.New("unknown routing strategy")

	// ErrUnknownOperator is returned when a custom rule uses an unsupported operator
	ErrUnknownOperator = errors.New("unknown custom rule operator")

	// ErrRuleNotFound is returned when a routing rule is not found
	ErrRuleNotFound = errors.New("routing rule not found")

	// ErrDuplicateRuleName is returned when a rule name is already taken
	ErrDuplicateRuleName = errors.New("routing rule name already exists")

	// ErrInvalidRule is returned when a routing rule fails validation
	ErrInvalidRule = errors.New("invalid routing rule")

	// ErrRequestNotFound is returned when the referenced request does not exist
	ErrRequestNotFound = errors.New("request not found")

	// ErrProviderNotFound is returned when the referenced provider does not exist
	ErrProviderNotFound = errors.New("provider not found")

	// ErrProviderUnavailable is returned on reassignment to a provider that is
	// inactive or not accepting requests
	ErrProviderUnavailable = errors.New("provider is not available for assignment")
)
