// Package auth provides the account authentication core for the tutoring
// platform: local credential verification, federated (Google) login, JWT
// session issuance, and account registration.
//
// Identity sources:
//   - AccountProvider verifies local username/password pairs against bcrypt
//     digests, with a login-attempt cool down. Unknown usernames and wrong
//     passwords are indistinguishable to callers.
//   - The federation subpackage normalizes third-party identity assertions;
//     Auther resolves them onto local accounts by exact email match. Federated
//     logins never auto-provision accounts.
//
// Session tokens:
//   - TokenService signs {sub, uid, role, iat, exp} claim sets with an
//     immutable process-wide key. The role claim is a snapshot taken at
//     issuance; server-side role changes do not retroactively invalidate
//     outstanding tokens.
//
// Registration:
//   - RegisterAccountHandler funnels both local and federation-seeded
//     registrations through one validate, check-uniqueness, persist
//     transaction. Federation-seeded accounts store an unguessable placeholder
//     digest so local login stays impossible for them.
//
// Group admission lives in the admission subpackage.
package auth
