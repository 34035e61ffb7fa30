package goAccount

import (
	"context"
	"strings"

	internalflows "github.com/MrEthical07/goAccount/internal/flows"
	"go.uber.org/zap"
)

// LinkIdentity finds the account for (SubjectID, Provider) or creates one
// with role Guest and no password. Email is never used for matching. When two
// first logins race, the loser re-reads the winner's record.
func (e *Engine) LinkIdentity(ctx context.Context, ident ExternalIdentity) (*User, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}

	ident.Provider = strings.TrimSpace(ident.Provider)
	ident.SubjectID = strings.TrimSpace(ident.SubjectID)
	if ident.Provider == "" || ident.SubjectID == "" {
		return nil, false, ErrInvalidIdentity
	}

	ctx, cancel := e.opContext(ctx)
	defer cancel()

	res := internalflows.RunFindOrCreate(ctx, internalflows.LinkDeps[*User]{
		Find: func(ctx context.Context) (*User, error) {
			return e.users.GetUserByIdentity(ctx, ident.SubjectID, ident.Provider)
		},
		Create: func(ctx context.Context) (*User, error) {
			u := &User{
				AccountID: ident.SubjectID,
				Provider:  ident.Provider,
				Name:      identityName(ident),
				Role:      DefaultRole,
			}
			return u, e.users.CreateUser(ctx, u)
		},
		Errors: storeErrors,
	})
	if res.Err != nil {
		return nil, false, wrapStore(res.Stage+" identity", res.Err)
	}

	u := res.Account
	switch res.Outcome {
	case internalflows.LinkCreated:
		e.metrics.Inc(MetricIdentityCreated)
		e.logger.Info("federated account created", zap.String("user_id", u.ID), zap.String("provider", u.Provider))
		return u, true, nil
	case internalflows.LinkRaceRecovered:
		e.metrics.Inc(MetricIdentityRaceRecovered)
	default:
		e.metrics.Inc(MetricIdentityLinked)
	}
	return u, false, nil
}

// LoginWithIdentity links the identity and issues a session token.
func (e *Engine) LoginWithIdentity(ctx context.Context, ident ExternalIdentity) (*AuthResult, error) {
	u, _, err := e.LinkIdentity(ctx, ident)
	if err != nil {
		return nil, err
	}
	return e.issueFor(u)
}

func identityName(ident ExternalIdentity) string {
	for _, s := range []string{ident.Username, ident.DisplayName} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ident.Provider + "-" + ident.SubjectID
}
