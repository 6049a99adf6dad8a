// Package subtrack implements the domain of a subscription-tracking API:
// user registration and login with stateless JWT sessions, bcrypt password
// hashing, bun-backed repositories for users and subscriptions, and the
// renewal lifecycle rules (auto-computed renewal dates, auto-expiry).
//
// HTTP concerns live in the server package; the bearer-token middleware in
// middleware/jwtware; process configuration in config.
package subtrack
