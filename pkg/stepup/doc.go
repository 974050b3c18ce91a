// Package stepup implements the policy engine that decides whether a
// sensitive action needs fresh multi-factor re-verification.
//
// Every gated action is evaluated from scratch against three independent
// signals: the actor's global status (super-admin or tenant role), the
// tenant's security policy, and the elapsed time since the actor's last
// successful verification. The outcome is one of three decisions: allowed,
// enrollment required, or challenge required.
//
// Super-admin status takes precedence over tenant policy and carries a fixed
// five-minute freshness window that no policy can relax. Tenants without a
// policy row get the default (MFA for owner and admin) created lazily on
// first evaluation, with that first call allowed. Storage failures are never
// silently treated as "allowed": they fail closed for super-admins and
// propagate as hard errors for everyone else.
package stepup
