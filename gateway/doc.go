// Package gateway provides the HTTP implementation of the identity backend
// client consumed by the session controller. It speaks the JSON auth contract
// (register, login, refresh, me, profile, preferences, logout, account) and
// translates transport and HTTP failures into the controller's tagged
// sentinel errors.
package gateway
