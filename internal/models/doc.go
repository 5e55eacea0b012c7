// Package models defines the core domain models for the storefront.
//
// # Models
//
//   - Account: a registered user, including the plaintext password
//   - SessionUser: the password-free projection of an Account
//   - Session: authentication status plus the last transition error
//   - ContactMessage: an inquiry filed under one Subject
//
// # Design Principles
//
// 1. **Plain data**: models carry JSON tags matching the persisted record shapes
// 2. **No back references**: messages and accounts never point at each other
// 3. **Projection over exposure**: anything leaving the auth package uses SessionUser
package models
