package authz

import (
	"errors"
	"fmt"

	"github.com/ledgerline/finance-services/internal/authn"
)

// Rejection reasons surfaced on Result.Reason. The HTTP layer maps any
// unauthorized result to a 401; it never branches on the text.
const (
	ReasonMissingCredentials = "missing credentials"
	ReasonIncompleteToken    = "incomplete token"
	ReasonMismatchedTokens   = "mismatched tokens"
	ReasonSessionExpired     = "session expired, re-authenticate"
	ReasonWrongRole          = "wrong role"
	ReasonWrongIdentity      = "mismatched identity, endpoint requires a different principal"
	ReasonNotGroupMember     = "caller not a member of the addressed group"
)

type modeKind int

const (
	modeOpen modeKind = iota
	modeSelf
	modeRole
	modeField
	modeGroup
)

// Field names accepted by FieldMode.
const (
	FieldEmail    = "email"
	FieldUsername = "username"
)

// Mode selects which matching rule Verify applies once the token pair has
// passed the consistency checks. The set is closed; endpoints needing
// "self or admin" access call Verify twice and OR the results.
type Mode struct {
	kind     modeKind
	expected string
	field    string
	members  []string
}

// Open authorizes any request with a present, consistent token pair.
func Open() Mode {
	return Mode{kind: modeOpen}
}

// Self authorizes only the principal whose username matches.
func Self(username string) Mode {
	return Mode{kind: modeSelf, expected: username}
}

// Role authorizes only principals carrying the required role.
func Role(role string) Mode {
	return Mode{kind: modeRole, expected: role}
}

// Field authorizes only principals whose named claim matches the expected
// value. Supported fields are FieldEmail and FieldUsername.
func Field(field, expected string) Mode {
	return Mode{kind: modeField, field: field, expected: expected}
}

// Group authorizes only principals whose email is in the member set.
func Group(memberEmails []string) Mode {
	return Mode{kind: modeGroup, members: memberEmails}
}

// Result is the outcome of a single verification. RefreshedAccess is
// non-empty only when the access token was expired and a new one was
// minted from a valid refresh token; the caller is expected to forward it
// to the client.
type Result struct {
	Authorized      bool
	Reason          string
	Principal       authn.Principal
	RefreshedAccess string
}

func unauthorized(reason string) Result {
	return Result{Authorized: false, Reason: reason}
}

// Verifier decides authorization for a dual-token credential pair.
type Verifier struct {
	codec *authn.Codec
}

func NewVerifier(codec *authn.Codec) *Verifier {
	return &Verifier{codec: codec}
}

// Verify runs the authorization decision procedure: precondition checks on
// the token pair, an in-band access-token refresh when the access token
// has expired but the refresh token is still good, then the mode-specific
// matching rule. A refreshed principal still has to pass the mode check.
func (v *Verifier) Verify(accessToken, refreshToken string, mode Mode) Result {
	if accessToken == "" || refreshToken == "" {
		return unauthorized(ReasonMissingCredentials)
	}

	access, accessErr := v.codec.Decode(accessToken)
	if accessErr != nil && !errors.Is(accessErr, authn.ErrTokenExpired) {
		return unauthorized(fmt.Sprintf("access token: %v", accessErr))
	}

	refresh, refreshErr := v.codec.Decode(refreshToken)
	if accessErr == nil && refreshErr != nil {
		return unauthorized(fmt.Sprintf("refresh token: %v", refreshErr))
	}

	// Both tokens decoded (the access one possibly expired). Claim
	// completeness and pair consistency are checked before the refresh
	// path so a tampered pair is never silently refreshed.
	if refreshErr == nil {
		if !access.Complete() || !refresh.Complete() {
			return unauthorized(ReasonIncompleteToken)
		}
		if !access.Matches(refresh) {
			return unauthorized(ReasonMismatchedTokens)
		}
	}

	var refreshed string
	principal := access

	if errors.Is(accessErr, authn.ErrTokenExpired) {
		// Refresh path: a single bounded fallback, never retried.
		if refreshErr != nil {
			return unauthorized(ReasonSessionExpired)
		}

		minted, err := v.codec.EncodeAccess(refresh)
		if err != nil {
			return unauthorized(ReasonSessionExpired)
		}
		refreshed = minted
		principal = refresh
	}

	result := v.checkMode(principal, mode)
	result.RefreshedAccess = refreshed
	return result
}

func (v *Verifier) checkMode(p authn.Principal, mode Mode) Result {
	switch mode.kind {
	case modeOpen:
		return Result{Authorized: true, Principal: p}

	case modeSelf:
		if p.Username == mode.expected {
			return Result{Authorized: true, Principal: p}
		}
		return unauthorized(ReasonWrongRole)

	case modeRole:
		if p.Role == mode.expected {
			return Result{Authorized: true, Principal: p}
		}
		return unauthorized(ReasonWrongRole)

	case modeField:
		var value string
		switch mode.field {
		case FieldEmail:
			value = p.Email
		case FieldUsername:
			value = p.Username
		}
		if value == mode.expected {
			return Result{Authorized: true, Principal: p}
		}
		return unauthorized(ReasonWrongIdentity)

	case modeGroup:
		for _, email := range mode.members {
			if p.Email == email {
				return Result{Authorized: true, Principal: p}
			}
		}
		return unauthorized(ReasonNotGroupMember)
	}

	return unauthorized(ReasonWrongRole)
}
